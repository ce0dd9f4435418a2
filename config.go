package dkit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"mvdan.cc/sh/v3/shell"

	"github.com/Paranoid-AF/dkit/dcd"
	defaults "github.com/Paranoid-AF/dkit/default"
)

const (
	serverExecutable = "dcd-server"
	clientExecutable = "dcd-client"
)

// Config represents the user's dkit configuration.
type Config struct {
	Version      int      `toml:"version" json:"version"`
	Port         int      `toml:"dcd_port" json:"dcd_port"`
	DCDPath      string   `toml:"dcd_path" json:"dcd_path"`
	IncludePaths []string `toml:"include_paths" json:"include_paths"`
	DubPath      string   `toml:"dub_path" json:"dub_path"`
}

// ConfigDir returns the config directory path.
// Resolution order: $DKIT_CONFIG_DIR > $XDG_CONFIG_HOME/dkit > ~/.config/dkit
func ConfigDir() string {
	if dir := os.Getenv("DKIT_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "dkit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "dkit-config")
	}
	return filepath.Join(home, ".config", "dkit")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if _, err := toml.Decode(string(defaults.DefaultConfigTOML), &cfg); err != nil {
		panic("dkit: invalid embedded default_config.toml: " + err.Error())
	}
	if cfg.IncludePaths == nil {
		cfg.IncludePaths = []string{}
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Apply defaults for missing fields
	def := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.DubPath == "" {
		cfg.DubPath = def.DubPath
	}
	if cfg.IncludePaths == nil {
		cfg.IncludePaths = []string{}
	}

	return &cfg, nil
}

// ApplySettings returns a copy of cfg with the keys present in settings overlaid.
// Settings use the same keys as the config file; values are weakly typed so that
// JSON numbers and numeric strings both decode into dcd_port.
func ApplySettings(cfg *Config, settings map[string]any) (*Config, error) {
	out := *cfg
	out.IncludePaths = slices.Clone(cfg.IncludePaths)
	if len(settings) == 0 {
		return &out, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "toml",
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &out, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if ResolveDCDPath(cfg) == "" {
		warnings = append(warnings, "dcd_path is not set; dcd-server and dcd-client are looked up in the working directory")
	}
	if port := ResolvePort(cfg); port < 1 || port > 65535 {
		warnings = append(warnings, fmt.Sprintf("dcd_port %d is outside 1..65535", port))
	}
	paths, err := ExpandIncludePaths(cfg)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			warnings = append(warnings, "include path is not a directory: "+p)
		}
	}
	return warnings
}

// ResolveDCDPath returns the directory holding the DCD executables.
// Priority: $DKIT_DCD_PATH env > config value.
func ResolveDCDPath(cfg *Config) string {
	if path := os.Getenv("DKIT_DCD_PATH"); path != "" {
		return path
	}
	if cfg != nil {
		return cfg.DCDPath
	}
	return ""
}

// ResolvePort returns the DCD port.
// Priority: $DKIT_DCD_PORT env > config value.
func ResolvePort(cfg *Config) int {
	if s := os.Getenv("DKIT_DCD_PORT"); s != "" {
		if port, err := strconv.Atoi(s); err == nil {
			return port
		}
	}
	if cfg != nil {
		return cfg.Port
	}
	return 0
}

// ExpandIncludePaths expands $VAR, ${VAR} and a leading ~ in each include path.
// Order is preserved; empty entries are dropped.
func ExpandIncludePaths(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, nil
	}
	var errs []error
	out := make([]string, 0, len(cfg.IncludePaths))
	for _, p := range cfg.IncludePaths {
		expanded, err := expandPath(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("expand include path %q: %w", p, err))
			continue
		}
		if expanded != "" {
			out = append(out, expanded)
		}
	}
	return out, errors.Join(errs...)
}

func expandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		p = "$HOME" + p[1:]
	}
	return shell.Expand(p, nil)
}

// ServerConfig builds the supervisor configuration from cfg.
func (cfg *Config) ServerConfig() (dcd.ServerConfig, error) {
	dir, err := expandPath(ResolveDCDPath(cfg))
	if err != nil {
		return dcd.ServerConfig{}, fmt.Errorf("expand dcd_path: %w", err)
	}
	paths, err := ExpandIncludePaths(cfg)
	if err != nil {
		return dcd.ServerConfig{}, err
	}
	return dcd.ServerConfig{
		ServerPath:   filepath.Join(dir, serverExecutable),
		ClientPath:   filepath.Join(dir, clientExecutable),
		Port:         ResolvePort(cfg),
		IncludePaths: paths,
	}, nil
}
