// Package config loads the draftturn process configuration from an optional
// YAML file, then applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/draftturn/go/internal/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	NotifierBroker    = "broker"
	NotifierPGNotify  = "pgnotify"
	NotifierJetStream = "jetstream"
)

type Config struct {
	Store    string         `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Resolver ResolverConfig `yaml:"resolver"`
	Notifier NotifierConfig `yaml:"notifier"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Log      LogConfig      `yaml:"log"`

	// Database always comes from DB_* variables.
	Database dbconfig.Config `yaml:"-"`
}

type ServerConfig struct {
	Port               string        `yaml:"port"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	EligibilityTimeout time.Duration `yaml:"eligibility_timeout"`
}

type ResolverConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Workers      int           `yaml:"workers"`
	MaxSleep     time.Duration `yaml:"max_sleep"`
	ErrorBackoff time.Duration `yaml:"error_backoff"`
}

type NotifierConfig struct {
	// Backends lists where change events go besides the in-process broker.
	Backends   []string `yaml:"backends"`
	Channel    string   `yaml:"channel"`
	NATSURL    string   `yaml:"nats_url"`
	StreamName string   `yaml:"stream_name"`
}

type GatewayConfig struct {
	Port        string        `yaml:"port"`
	RedisAddr   string        `yaml:"redis_addr"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Store: StoreMemory,
		Server: ServerConfig{
			Port:               "8080",
			AllowedOrigins:     []string{"*"},
			EligibilityTimeout: 2 * time.Second,
		},
		Resolver: ResolverConfig{
			Enabled:      true,
			Workers:      4,
			MaxSleep:     30 * time.Second,
			ErrorBackoff: time.Second,
		},
		Notifier: NotifierConfig{
			Channel:    "draft_updated",
			NATSURL:    "nats://127.0.0.1:4222",
			StreamName: "DRAFT_EVENTS",
		},
		Gateway: GatewayConfig{
			Port:        "8081",
			SnapshotTTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path on top of the defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.Database = dbconfig.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Store = getEnv("STORE", c.Store)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Resolver.Workers = getEnvAsInt("RESOLVER_WORKERS", c.Resolver.Workers)
	c.Resolver.MaxSleep = getEnvAsDuration("RESOLVER_MAX_SLEEP", c.Resolver.MaxSleep)
	if v := os.Getenv("NOTIFIER_BACKENDS"); v != "" {
		c.Notifier.Backends = splitList(v)
	}
	c.Notifier.NATSURL = getEnv("NATS_URL", c.Notifier.NATSURL)
	c.Gateway.Port = getEnv("GATEWAY_PORT", c.Gateway.Port)
	c.Gateway.RedisAddr = getEnv("REDIS_ADDR", c.Gateway.RedisAddr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	for _, b := range c.Notifier.Backends {
		switch b {
		case NotifierBroker, NotifierJetStream:
		case NotifierPGNotify:
			if c.Store != StorePostgres {
				errs = append(errs, errors.New("pgnotify notifier requires the postgres store"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown notifier backend %q", b))
		}
	}
	if c.Resolver.Workers <= 0 {
		errs = append(errs, fmt.Errorf("resolver workers must be positive, got %d", c.Resolver.Workers))
	}
	return errors.Join(errs...)
}

// HasBackend reports whether change events should also go to name.
func (c *Config) HasBackend(name string) bool {
	for _, b := range c.Notifier.Backends {
		if b == name {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
