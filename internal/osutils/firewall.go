// Package osutils holds platform helpers for air-server.
package osutils

import (
	"fmt"
	"strconv"
	"strings"
)

// RuleName is the display name of the inbound firewall rule.
const RuleName = "airkvm server"

// ruleMatches reports whether netsh "show rule" output describes an
// allowing rule for port.
func ruleMatches(output string, port int) bool {
	if !strings.Contains(output, RuleName) || !strings.Contains(output, "Allow") {
		return false
	}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "LocalPort" {
			continue
		}
		if strings.TrimSpace(value) == strconv.Itoa(port) {
			return true
		}
	}
	return false
}

// ruleScript replaces any existing rule with one allowing inbound TCP on
// port for every profile.
func ruleScript(port int) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; "+
			"New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Any",
		RuleName, RuleName, port,
	)
}
