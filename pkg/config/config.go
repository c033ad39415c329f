// Package config loads bt settings from .bv/tree.yaml and finds the beads
// projects to show.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-project directory bt keeps its files in.
	DirName = ".bv"
	// FileName is the config file inside DirName.
	FileName = "tree.yaml"
	// EnvBeadsDir overrides the beads directory, as the bd CLI does.
	EnvBeadsDir = "BEADS_DIR"
)

// Config holds bt's settings. Zero fields in the file keep their defaults.
type Config struct {
	// BeadsDir points at a .beads directory directly, skipping discovery.
	BeadsDir string `yaml:"beads_dir,omitempty"`
	// Debounce is how long the issues file must be quiet before a reload.
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// SortValues pre-sorts each reload so new siblings appear in order.
	SortValues bool `yaml:"sort_values,omitempty"`
	// ExpandDepth is how many levels are expanded on first load.
	ExpandDepth int `yaml:"expand_depth"`
	// Repos lists extra projects shown side by side.
	Repos []Repo `yaml:"repos,omitempty"`
	// Discovery scans directories for more projects.
	Discovery Discovery `yaml:"discovery,omitempty"`
}

// Repo is one named project root.
type Repo struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// ResolvedPath returns Path with ~ expanded and made absolute.
func (r Repo) ResolvedPath() string {
	p := expandHome(r.Path)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Discovery configures project scanning.
type Discovery struct {
	ScanPaths []string `yaml:"scan_paths,omitempty"`
	MaxDepth  int      `yaml:"max_depth,omitempty"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() Config {
	return Config{
		Debounce:    200 * time.Millisecond,
		ExpandDepth: 2,
		Discovery:   Discovery{MaxDepth: 3},
	}
}

// Path returns the config file location for a project root.
func Path(projectDir string) string {
	return filepath.Join(projectDir, DirName, FileName)
}

// Load reads the config at path over the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", c.Debounce)
	}
	if c.ExpandDepth < 0 {
		return fmt.Errorf("expand_depth must not be negative, got %d", c.ExpandDepth)
	}
	if c.Discovery.MaxDepth < 0 {
		return fmt.Errorf("discovery.max_depth must not be negative, got %d", c.Discovery.MaxDepth)
	}
	names := make(map[string]bool, len(c.Repos))
	for i, r := range c.Repos {
		if strings.TrimSpace(r.Path) == "" {
			return fmt.Errorf("repos[%d]: path is required", i)
		}
		if r.Name == "" {
			continue
		}
		if names[r.Name] {
			return fmt.Errorf("repos[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true
	}
	return nil
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv(EnvBeadsDir); dir != "" {
		c.BeadsDir = dir
	}
}

// Save writes the config to path, creating its directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
