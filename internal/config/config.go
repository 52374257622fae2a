// Package config provides configuration management for air-client and
// air-server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/jsonc"

	"airkvm/internal/input"
	"airkvm/internal/replay"
)

// DefaultPort is the server's default TCP port.
const DefaultPort = 7878

// Config represents the application configuration
type Config struct {
	Log    LogConfig    `json:"log"`
	Client ClientConfig `json:"client"`
	Server ServerConfig `json:"server"`
}

// LogConfig controls log output
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error"
	Level string `json:"level"`

	// Format is "text" or "json"
	Format string `json:"format"`
}

// ClientConfig contains air-client settings
type ClientConfig struct {
	// ServerAddr is the server's host:port or ws:// URL
	ServerAddr string `json:"server_addr"`

	// Source selects the capture source: "terminal", "evdev" or "script"
	Source string `json:"source"`

	// Script is the YAML event script used by the "script" source
	Script string `json:"script,omitempty"`

	// Devices are the /dev/input/event* paths used by the "evdev" source
	Devices []string `json:"devices,omitempty"`

	// Grab takes evdev devices exclusively while capturing
	Grab bool `json:"grab"`

	// Surface is the size of the capture surface. For evdev it bounds the
	// virtual pointer.
	Surface input.Size `json:"surface"`

	// Display is the size of the server's display. When both sizes are set,
	// coordinates are scaled from Surface to Display.
	Display input.Size `json:"display"`

	// ToggleHotkey pauses and resumes forwarding (e.g. "Ctrl+Alt+F12")
	ToggleHotkey string `json:"toggle_hotkey,omitempty"`

	// ClipboardDedupe skips re-sending an unchanged clipboard on enter
	ClipboardDedupe bool `json:"clipboard_dedupe"`

	// PingIntervalSec is the keepalive ping interval in seconds
	PingIntervalSec int `json:"ping_interval_sec"`
}

// ServerConfig contains air-server settings
type ServerConfig struct {
	// Listen is the TCP listen address
	Listen string `json:"listen"`

	// MoveType is the smoothing step for relative motion: "immediate",
	// "smooth", "faster" or "veryfast"
	MoveType string `json:"move_type"`

	// CopyKeys are the key codes that, with Control held, trigger a
	// clipboard read-back
	CopyKeys []uint32 `json:"copy_keys"`

	// CopyReadbackDelayMS is how long to wait after a copy keystroke before
	// reading the clipboard
	CopyReadbackDelayMS int `json:"copy_readback_delay_ms"`

	// DryRun logs injections instead of performing them
	DryRun bool `json:"dry_run"`

	// Tray shows a system tray icon with the connection count
	Tray bool `json:"tray"`

	// ManageFirewall opens the listen port in the Windows firewall
	ManageFirewall bool `json:"manage_firewall"`

	// PingIntervalSec is the keepalive ping interval in seconds
	PingIntervalSec int `json:"ping_interval_sec"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Client: ClientConfig{
			ServerAddr:      fmt.Sprintf("127.0.0.1:%d", DefaultPort),
			Source:          "terminal",
			Surface:         input.Size{Width: 1920, Height: 1080},
			ToggleHotkey:    "Ctrl+Alt+F12",
			PingIntervalSec: 30,
		},
		Server: ServerConfig{
			Listen:              fmt.Sprintf("0.0.0.0:%d", DefaultPort),
			MoveType:            replay.Faster.String(),
			CopyKeys:            append([]uint32(nil), replay.DefaultCopyKeys...),
			CopyReadbackDelayMS: int(replay.DefaultCopyReadbackDelay / time.Millisecond),
			PingIntervalSec:     30,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch c.Client.Source {
	case "terminal", "evdev", "script":
	default:
		return fmt.Errorf("client.source: unknown source %q", c.Client.Source)
	}
	if c.Client.ServerAddr == "" {
		return errors.New("client.server_addr: must not be empty")
	}
	if _, err := replay.ParseMoveType(c.Server.MoveType); err != nil {
		return fmt.Errorf("server.move_type: %w", err)
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	if c.Server.CopyReadbackDelayMS < 0 {
		return errors.New("server.copy_readback_delay_ms: must not be negative")
	}
	return nil
}

// ParseLevel converts the configured level to a slog.Level.
func (c LogConfig) ParseLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CopyReadbackDelay returns the read-back delay as a duration.
func (c ServerConfig) CopyReadbackDelay() time.Duration {
	return time.Duration(c.CopyReadbackDelayMS) * time.Millisecond
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// PingInterval returns the keepalive interval; zero selects the default.
func (c ClientConfig) PingInterval() time.Duration { return seconds(c.PingIntervalSec) }

// PingInterval returns the keepalive interval; zero selects the default.
func (c ServerConfig) PingInterval() time.Duration { return seconds(c.PingIntervalSec) }

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	logger     *slog.Logger
}

// NewManager creates a new configuration manager. An empty path selects
// config.json in the per-user configuration directory.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
		logger:     logger.With("component", "config"),
	}, nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "airkvm")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "airkvm")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(configDir, "airkvm")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the configuration file location.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. The file may contain comments
// and trailing commas. A missing file leaves the defaults in place.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Debug("no configuration file, using defaults", "path", m.configPath)
		return nil
	}
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", m.configPath, err)
	}
	m.config = cfg
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	m.logger.Info("saving configuration", "path", m.configPath, "bytes", len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
}
