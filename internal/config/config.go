// Package config holds the YAML file configuration for the netexplorer
// server binary.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML scalars like "90s" or "5m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	// Server Settings
	HTTPAddr  string `yaml:"http_addr"`  // ":9091"
	AuthToken string `yaml:"auth_token"` // empty = API open without auth

	// Dataset Settings
	DataDir        string `yaml:"data_dir"`
	CacheSnapshots bool   `yaml:"cache_snapshots"` // binary cache next to the JSON datasets
	PreloadAll     bool   `yaml:"preload_all"`     // load every manifest year at startup

	// ManifestRefreshInterval re-reads the manifest to pick up new dataset
	// files without a restart. Zero disables the refresh goroutine.
	ManifestRefreshInterval Duration `yaml:"manifest_refresh_interval"`
}

// DefaultConfig returns a working configuration for a local data directory.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                ":9091",
		DataDir:                 "./data",
		CacheSnapshots:          true,
		ManifestRefreshInterval: Duration(60 * time.Second),
	}
}

// LoadConfig reads the YAML configuration file using strict parsing.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig() // Start with defaults

	if path == "" {
		return cfg, nil
	}

	// 1. Open File
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	// 2. Setup Strict Decoder
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	// 3. Decode
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
	}

	return cfg, nil
}
