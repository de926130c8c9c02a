package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hubview/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "hubview" // application name used for config directory

// Config holds user configuration for hubview.
type Config struct {
	// DefaultRoute is the repository opened when none is given on the
	// command line, in "owner/repo" or "owner/repo/path" form.
	DefaultRoute string `yaml:"default_route"`
	// Branch overrides the repository's default branch when non-empty.
	Branch string `yaml:"branch"`
	// APIBaseURL points at a GitHub-compatible API root. Empty means
	// api.github.com; set it for GitHub Enterprise installs.
	APIBaseURL string `yaml:"api_base_url"`
	// GlamourStyle selects the markdown rendering theme ("auto",
	// "dark", "light", or a style file path).
	GlamourStyle string `yaml:"glamour_style"`
	Version      string `yaml:"version"`   // Track config version
	InitTime     int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// Route identifies a repository and an optional starting path inside it.
type Route struct {
	Owner       string
	Repo        string
	InitialPath string
}

// ParseRoute splits "owner/repo" or "owner/repo/some/dir/file.md" into
// its parts. The third segment onward becomes the initial path.
func ParseRoute(route string) (Route, error) {
	trimmed := strings.Trim(route, "/")
	if trimmed == "" {
		return Route{}, fmt.Errorf("empty repository route")
	}

	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Route{}, fmt.Errorf("invalid repository route %q, want owner/repo[/path]", route)
	}

	r := Route{Owner: parts[0], Repo: parts[1]}
	if len(parts) == 3 {
		r.InitialPath = strings.Trim(parts[2], "/")
	}
	return r, nil
}

// String renders the route back into its "owner/repo[/path]" form.
func (r Route) String() string {
	if r.InitialPath == "" {
		return r.Owner + "/" + r.Repo
	}
	return r.Owner + "/" + r.Repo + "/" + r.InitialPath
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config paths", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location. A missing file is
// not an error: first runs get the defaults.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		cfg := DefaultConfig()
		return &cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GlamourStyle: "auto",
		Version:      "1.0",
		InitTime:     0, // Set during first save
	}
}

func applyDefaults(cfg *Config) {
	if cfg.GlamourStyle == "" {
		cfg.GlamourStyle = "auto"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions since the file may hold an enterprise URL
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SetDefaultRoute validates and stores the default repository route.
func (c *Config) SetDefaultRoute(route string) error {
	parsed, err := ParseRoute(route)
	if err != nil {
		return err
	}
	c.DefaultRoute = parsed.String()

	if err := c.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration updated", "default_route", c.DefaultRoute)
	return nil
}
