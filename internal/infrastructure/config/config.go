// Package config internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is used when neither the config file nor PORT sets one
const DefaultPort = "8080"

// Storage backends
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
)

// Config represents the service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Backend         string        `yaml:"backend"` // "badger" or "mongo"
	BadgerPath      string        `yaml:"badger_path"`
	MongoURI        string        `yaml:"mongo_uri"`
	MongoDatabase   string        `yaml:"mongo_database"`
	MongoCollection string        `yaml:"mongo_collection"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// BreakerConfig controls the circuit breaker in front of the store
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
	HalfOpenRequests    uint32        `yaml:"half_open_requests"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:         BackendBadger,
			BadgerPath:      "data",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "transactions",
			MongoCollection: "transactions",
			ConnectTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Breaker: BreakerConfig{
			Enabled:             false,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
			HalfOpenRequests:    1,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields from environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PORT":             &c.Server.Port,
		"STORE_BACKEND":    &c.Storage.Backend,
		"BADGER_PATH":      &c.Storage.BadgerPath,
		"MONGO_URI":        &c.Storage.MongoURI,
		"MONGO_DATABASE":   &c.Storage.MongoDatabase,
		"MONGO_COLLECTION": &c.Storage.MongoCollection,
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FORMAT":       &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("BREAKER_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing BREAKER_ENABLED: %w", err)
		}
		c.Breaker.Enabled = enabled
	}

	return nil
}

// Validate checks that the configuration can be used to start the server
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if _, err := strconv.ParseUint(c.Server.Port, 10, 16); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}

	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	switch c.Storage.Backend {
	case BackendBadger:
		if c.Storage.BadgerPath == "" {
			return fmt.Errorf("badger_path must be set for the badger backend")
		}
	case BackendMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDatabase == "" || c.Storage.MongoCollection == "" {
			return fmt.Errorf("mongo_uri, mongo_database and mongo_collection must be set for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
