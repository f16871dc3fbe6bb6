// Package config handles loading and saving ampdesk configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/ampdesk/config.yaml
//   - Data:    ~/.local/share/ampdesk/ (section graphs, templates)
//   - State:   ~/.local/state/ampdesk/ (recent projects, run journal)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Project represents a recently opened project file.
type Project struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// ComputeConfig tunes the background compute scheduler.
type ComputeConfig struct {
	DebounceMs   int  `yaml:"debounce_ms,omitempty"`   // quiet period before a run (default 200)
	WorkerLimit  int  `yaml:"worker_limit,omitempty"`  // max concurrent compute goroutines (default 1)
	SlowWarnMs   int  `yaml:"slow_warn_ms,omitempty"`  // log runs slower than this (default 50)
	PollWatchMs  int  `yaml:"poll_watch_ms,omitempty"` // watcher poll interval in fallback mode
	WatchProject bool `yaml:"watch_project,omitempty"` // reload on external project edits
}

// ValidationConfig controls the validation pass.
type ValidationConfig struct {
	Strict *bool `yaml:"strict,omitempty"` // fail fast on invalid section values
}

// Config is the top-level configuration for ampdesk.
type Config struct {
	Recent     []Project        `yaml:"recent,omitempty"`
	GraphPath  string           `yaml:"graph_path,omitempty"` // optional section graph override
	Compute    ComputeConfig    `yaml:"compute,omitempty"`
	Validation ValidationConfig `yaml:"validation,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Compute: ComputeConfig{
			DebounceMs:   200,
			WorkerLimit:  1,
			SlowWarnMs:   50,
			WatchProject: true,
		},
	}
}

// DebounceWindow returns the compute debounce as a duration.
func (c Config) DebounceWindow() time.Duration {
	if c.Compute.DebounceMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.Compute.DebounceMs) * time.Millisecond
}

// StrictValidation reports whether strict mode is on, defaulting to def when
// the config file does not say.
func (c Config) StrictValidation(def bool) bool {
	if c.Validation.Strict == nil {
		return def
	}
	return *c.Validation.Strict
}

// ConfigDir returns the XDG config directory for ampdesk.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "ampdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ampdesk")
}

// DataDir returns the XDG data directory for ampdesk.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "ampdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "ampdesk")
}

// StateDir returns the XDG state directory for ampdesk.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "ampdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "ampdesk")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Recent {
		cfg.Recent[i].Path = expandHome(cfg.Recent[i].Path)
	}
	cfg.GraphPath = expandHome(cfg.GraphPath)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// RememberProject prepends path to the recent list, deduplicating by path and
// keeping at most ten entries.
func (c *Config) RememberProject(name, path string) {
	path = expandHome(path)
	out := make([]Project, 0, len(c.Recent)+1)
	out = append(out, Project{Name: name, Path: path})
	for _, p := range c.Recent {
		if p.Path == path {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 10 {
		out = out[:10]
	}
	c.Recent = out
}

// FindRecent returns the recent project with the given name, or nil.
func (c Config) FindRecent(name string) *Project {
	for i := range c.Recent {
		if strings.EqualFold(c.Recent[i].Name, name) {
			return &c.Recent[i]
		}
	}
	return nil
}

// ResolvedPath returns the project path with ~ expanded.
func (p Project) ResolvedPath() string {
	return expandHome(p.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
