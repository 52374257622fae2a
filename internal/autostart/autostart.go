// Package autostart registers air-server to start on login.
package autostart

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Label identifies the login item on every platform.
const Label = "airkvm-server"

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.airkvm.server</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Command}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name=airkvm server
Exec={{.Exec}}
X-GNOME-Autostart-enabled=true
NoDisplay=true
`

var (
	plistTemplate   = template.Must(template.New("plist").Parse(macLaunchAgentPlist))
	desktopTemplate = template.Must(template.New("desktop").Parse(xdgDesktopEntry))
)

// Enable starts the running executable with args on login.
func Enable(args ...string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(append([]string{execPath}, args...))
}

// Disable removes the login item. Removing a missing item is not an error.
func Disable() error {
	return disable()
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return isEnabled()
}

func renderPlist(command []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := plistTemplate.Execute(&buf, struct{ Command []string }{command}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderDesktop(command []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := desktopTemplate.Execute(&buf, struct{ Exec string }{commandLine(command)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// commandLine joins command, double-quoting arguments that contain spaces.
func commandLine(command []string) string {
	quoted := make([]string, len(command))
	for i, arg := range command {
		if strings.ContainsAny(arg, " \t\"") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}
