package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Store   StoreConfig  `json:"store" yaml:"store"`
	Filters FilterConfig `json:"filters" yaml:"filters"`
	Diff    DiffConfig   `json:"diff" yaml:"diff"`
	Patch   PatchConfig  `json:"patch" yaml:"patch"`
	Output  OutputConfig `json:"output" yaml:"output"`
}

// StoreConfig holds series store options.
type StoreConfig struct {
	Path     string `json:"path" yaml:"path"`         // Default: ".diffseries.db"
	Compress bool   `json:"compress" yaml:"compress"` // zstd-compress diff payloads
	Timeout  int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// DiffConfig holds ingest and reconstruction options for diffs.
type DiffConfig struct {
	MaxDiffSize  int64    `json:"maxDiffSize" yaml:"maxDiffSize"`   // bytes; 0 disables the limit
	Encodings    []string `json:"encodings" yaml:"encodings"`       // tried in order when decoding file content
	RenameDetect string   `json:"renameDetect" yaml:"renameDetect"` // off, simple, aggressive
}

// PatchConfig selects the patch implementation.
type PatchConfig struct {
	Tool string `json:"tool" yaml:"tool"` // builtin or command
	Path string `json:"path" yaml:"path"` // patch binary for the command tool
}

// OutputConfig holds output defaults.
type OutputConfig struct {
	Format string `json:"format" yaml:"format"` // console, json, markdown
}

// Patch tools.
const (
	PatchToolBuiltin = "builtin"
	PatchToolCommand = "command"
)

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:     ".diffseries.db",
			Compress: true,
			Timeout:  5,
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Diff: DiffConfig{
			MaxDiffSize:  2 * 1024 * 1024,
			Encodings:    []string{"utf-8"},
			RenameDetect: "aggressive",
		},
		Patch: PatchConfig{
			Tool: PatchToolBuiltin,
			Path: "patch",
		},
		Output: OutputConfig{
			Format: "console",
		},
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Patch.Tool {
	case PatchToolBuiltin, PatchToolCommand:
	default:
		return fmt.Errorf("invalid patch tool %q: expected %q or %q", c.Patch.Tool, PatchToolBuiltin, PatchToolCommand)
	}
	switch c.Diff.RenameDetect {
	case "off", "simple", "aggressive":
	default:
		return fmt.Errorf("invalid renameDetect %q: expected off, simple or aggressive", c.Diff.RenameDetect)
	}
	if c.Diff.MaxDiffSize < 0 {
		return fmt.Errorf("maxDiffSize must not be negative")
	}
	return nil
}

var defaultNames = []string{".diffseries.json", ".diffseries.yaml", ".diffseries.yml"}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		dirs := []string{"."}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			dirs = append(dirs, home)
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			dirs = append(dirs, envHome)
		}
	search:
		for _, dir := range dirs {
			for _, name := range defaultNames {
				p := filepath.Join(dir, name)
				if _, err := os.Stat(p); err == nil {
					path = p
					break search
				}
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to a file. The format follows the file
// extension.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
