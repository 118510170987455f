package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Bridge.Socket) == "" {
		problems = append(problems, "bridge.socket must not be empty")
	}
	if c.Bridge.DialTimeoutSeconds <= 0 {
		problems = append(problems, "bridge.dial_timeout_seconds must be positive")
	}
	if c.Verify.Tolerance < 0 {
		problems = append(problems, "verify.tolerance must not be negative")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
