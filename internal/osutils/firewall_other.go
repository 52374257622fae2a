//go:build !windows

package osutils

import "log/slog"

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule is a stub for non-Windows platforms
func EnsureFirewallRule(port int, logger *slog.Logger) error {
	logger.Debug("firewall rule management is only supported on Windows", "port", port)
	return nil
}
