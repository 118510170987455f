package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Bridge contains connection settings for the automation-server bridge.
type Bridge struct {
	Socket             string `toml:"socket"`
	DialTimeoutSeconds int    `toml:"dial_timeout_seconds"`
}

// Case contains the model file to open and session-lock placement.
type Case struct {
	Path    string `toml:"path"`
	LockDir string `toml:"lock_dir"`
}

// SimAuto contains server properties applied when a session opens.
type SimAuto struct {
	CreateIfNotFound bool     `toml:"create_if_not_found"`
	UIVisible        bool     `toml:"ui_visible"`
	PrefetchTypes    []string `toml:"prefetch_types"`
}

// Verify configures change-and-confirm comparison behavior. SkipFields
// maps object types to fields excluded from write verification because
// their values legitimately differ after a solve.
type Verify struct {
	Tolerance  float64             `toml:"tolerance"`
	SkipFields map[string][]string `toml:"skip_fields"`
}

// Snapshot configures the local SQLite archive of query results.
type Snapshot struct {
	Path string `toml:"path"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Bridge   Bridge   `toml:"bridge"`
	Case     Case     `toml:"case"`
	SimAuto  SimAuto  `toml:"simauto"`
	Verify   Verify   `toml:"verify"`
	Snapshot Snapshot `toml:"snapshot"`
	Logging  Logging  `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bridge: Bridge{
			Socket:             "~/.local/share/gridauto/bridge.sock",
			DialTimeoutSeconds: 2,
		},
		Case: Case{
			LockDir: "~/.cache/gridauto/locks",
		},
		SimAuto: SimAuto{
			PrefetchTypes: []string{"bus", "gen", "load", "shunt", "branch"},
		},
		Verify: Verify{
			Tolerance:  1e-5,
			SkipFields: map[string][]string{},
		},
		Snapshot: Snapshot{
			Path: "~/.local/share/gridauto/snapshots.db",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return filepath.Join("~", ".config", "gridauto", "config.toml")
}

// Load reads configuration from the given path, or the default location
// when path is empty. A missing file yields the defaults with exists set
// to false. The resolved, expanded path is always returned.
func Load(path string) (Config, string, bool, error) {
	if path == "" {
		path = DefaultPath()
	}
	resolved := ExpandPath(path)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.expandPaths()
			return cfg, resolved, false, nil
		}
		return cfg, resolved, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return cfg, resolved, true, err
	}
	return cfg, resolved, true, nil
}

// CreateSample writes the annotated sample configuration to path,
// refusing to overwrite an existing file.
func CreateSample(path string) error {
	resolved := ExpandPath(path)
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) expandPaths() {
	c.Bridge.Socket = ExpandPath(c.Bridge.Socket)
	c.Case.Path = ExpandPath(c.Case.Path)
	c.Case.LockDir = ExpandPath(c.Case.LockDir)
	c.Snapshot.Path = ExpandPath(c.Snapshot.Path)
}

// ExpandPath resolves a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	expanded := os.ExpandEnv(path)
	if expanded == "~" || len(expanded) >= 2 && expanded[0] == '~' && os.IsPathSeparator(expanded[1]) {
		home, err := os.UserHomeDir()
		if err == nil {
			if expanded == "~" {
				return home
			}
			return filepath.Join(home, expanded[2:])
		}
	}
	return expanded
}
