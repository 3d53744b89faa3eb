package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/burugo/henry"
)

const (
	CurrentVersion = 1
	DefaultPath    = "henry.yaml"
	// EnvFile is loaded from the working directory before secrets resolve.
	EnvFile = ".env"
)

// Config is the top-level configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Source   SourceConfig   `yaml:"source"`
	TypeMaps TypeMapsConfig `yaml:"type_maps,omitempty"`
	Redis    RedisConfig    `yaml:"redis,omitempty"`
	Logging  LogConfig      `yaml:"logging,omitempty"`
}

// SourceConfig names the explorer driver and the database to read.
// For sqlite, Host is the path of the database file.
type SourceConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgresql or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// TypeMapsConfig chooses where type maps come from. Maps are looked up in
// File first, then in the Redis store when Store is set, then in the
// built-in maps.
type TypeMapsConfig struct {
	File  string `yaml:"file,omitempty"`
	Store bool   `yaml:"store,omitempty"`
}

// RedisConfig defines the type-map store connection.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"` // debug, info, warn, error
	Development bool   `yaml:"development,omitempty"`
}

var defaultPorts = map[string]int{
	"mysql":      3306,
	"postgresql": 5432,
	"sqlite":     0,
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}
	if _, ok := defaultPorts[cfg.Source.Driver]; !ok {
		return nil, fmt.Errorf("unsupported source driver %q", cfg.Source.Driver)
	}

	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}
	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Connection returns the explorer connection descriptor for Source.
func (c *Config) Connection() henry.Connection {
	return henry.Connection{
		Database: c.Source.Database,
		User:     c.Source.User,
		Password: c.Source.Password,
		Host:     c.Source.Host,
		Port:     c.Source.Port,
	}
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// applyDefaults fills unset fields. Relative file paths are taken relative
// to the config file's directory.
func (c *Config) applyDefaults(dir string) {
	if c.Source.Port == 0 {
		c.Source.Port = defaultPorts[c.Source.Driver]
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.TypeMaps.File != "" && !filepath.IsAbs(c.TypeMaps.File) {
		c.TypeMaps.File = filepath.Join(dir, c.TypeMaps.File)
	}
	if c.Source.Driver == "sqlite" && c.Source.Host != "" && !filepath.IsAbs(c.Source.Host) {
		c.Source.Host = filepath.Join(dir, c.Source.Host)
	}
}

var secretPattern = regexp.MustCompile(`\$\{ENV:([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	fields := []struct {
		name string
		val  *string
	}{
		{"source host", &c.Source.Host},
		{"source database", &c.Source.Database},
		{"source user", &c.Source.User},
		{"source password", &c.Source.Password},
		{"redis password", &c.Redis.Password},
	}
	for _, f := range fields {
		v, err := ResolveValue(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = v
	}
	return nil
}

// ResolveValue replaces a ${ENV:NAME} reference with the variable's value.
// Values without a reference are returned unchanged.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	v, ok := os.LookupEnv(matches[1])
	if !ok || v == "" {
		return "", fmt.Errorf("environment variable %s not set", matches[1])
	}
	return v, nil
}
