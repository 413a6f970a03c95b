package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/utakatalp/league-predictor/internal/league"
)

//go:embed overrides.yaml
var embeddedOverrides []byte

type Config struct {
	Database      DatabaseConfig `yaml:"database"`
	HTTP          HTTPConfig     `yaml:"http"`
	Log           LogConfig      `yaml:"log"`
	OverridesPath string         `yaml:"overrides_path"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "postgres" or "sqlite"
	DSN    string `yaml:"dsn"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "postgres"},
		HTTP:     HTTPConfig{Addr: ":8080", ReadHeaderTimeout: 5 * time.Second},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at configPath on top of the defaults. An empty
// path skips the file. DATABASE_URL, when set, replaces the DSN.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadHeaderTimeout <= 0 {
		cfg.HTTP.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}

type overridesFile struct {
	Overrides map[string]int `yaml:"overrides"`
}

// LoadOverrides builds the override table from path, or from the table
// compiled into the binary when path is empty.
func LoadOverrides(path string) (league.Overrides, error) {
	data := embeddedOverrides
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return league.Overrides{}, fmt.Errorf("failed to read overrides file: %w", err)
		}
	}
	return ParseOverrides(data)
}

func ParseOverrides(data []byte) (league.Overrides, error) {
	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return league.Overrides{}, fmt.Errorf("failed to parse overrides: %w", err)
	}
	for name, gw := range f.Overrides {
		if gw < 0 {
			return league.Overrides{}, fmt.Errorf("override for %q: negative gameweek %d", name, gw)
		}
	}
	return league.NewOverrides(f.Overrides), nil
}
