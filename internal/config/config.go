// Package config loads the YAML settings file and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
	"github.com/amirbrooks/tasker-intent-router/internal/intent"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

var ErrInvalid = errors.New("invalid config")

const FileName = "config.yaml"

type Config struct {
	Schema  int           `yaml:"schema" json:"schema"`
	Root    string        `yaml:"root" json:"root"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Gateway GatewayConfig `yaml:"gateway" json:"gateway"`
	Router  RouterConfig  `yaml:"router" json:"router"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" json:"backend"` // file|sqlite|redis|memory
	SQLitePath  string `yaml:"sqlite_path,omitempty" json:"sqlite_path,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`
	RedisPrefix string `yaml:"redis_prefix,omitempty" json:"redis_prefix,omitempty"`
}

type GatewayConfig struct {
	Provider string        `yaml:"provider" json:"provider"` // openrouter|gemini
	APIKey   string        `yaml:"api_key,omitempty" json:"-"`
	BaseURL  string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Model    string        `yaml:"model,omitempty" json:"model,omitempty"`
	Referrer string        `yaml:"referrer,omitempty" json:"referrer,omitempty"`
	AppID    string        `yaml:"app_id,omitempty" json:"app_id,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

type RouterConfig struct {
	Variant string `yaml:"variant" json:"variant"` // tasks|workspace
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text|json
}

func Default() Config {
	return Config{
		Schema:  1,
		Root:    DefaultRoot(),
		Store:   StoreConfig{Backend: store.BackendFile, RedisPrefix: store.DefaultRedisPrefix},
		Gateway: GatewayConfig{Provider: gateway.ProviderOpenRouter},
		Router:  RouterConfig{Variant: string(intent.VariantWorkspace)},
		Server:  ServerConfig{Addr: ":8000"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultRoot is ~/.tasker, or .tasker when there is no home directory.
func DefaultRoot() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return ".tasker"
	}
	return filepath.Join(home, ".tasker")
}

// DefaultPath is the config file inside root.
func DefaultPath(root string) string {
	return filepath.Join(store.ExpandHome(root), FileName)
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(store.ExpandHome(path))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if cfg.Schema == 0 {
		cfg.Schema = 1
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	if cfg.Schema == 0 {
		cfg.Schema = 1
	}
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	path = store.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// ApplyEnv overrides file values with any set environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Root, "TASKER_ROOT")
	set(&c.Store.Backend, "TASKER_STORE")
	set(&c.Store.RedisURL, "REDIS_URL")
	set(&c.Server.Addr, "TASKER_ADDR")
	set(&c.Router.Variant, "TASKER_VARIANT")
	set(&c.Gateway.Provider, "TASKER_GATEWAY")
	set(&c.Gateway.BaseURL, "OPENROUTER_BASE_URL")
	set(&c.Gateway.Referrer, "OPENROUTER_REFERRER")
	set(&c.Gateway.AppID, "OPENROUTER_APP_ID")
	if c.Gateway.Provider == gateway.ProviderGemini {
		set(&c.Gateway.APIKey, "GEMINI_API_KEY")
		set(&c.Gateway.Model, "GEMINI_MODEL")
	} else {
		set(&c.Gateway.APIKey, "OPENROUTER_API_KEY")
		set(&c.Gateway.Model, "OPENROUTER_MODEL")
	}
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite, store.BackendRedis, store.BackendMemory:
	default:
		return fmt.Errorf("%w: store.backend %q (use file|sqlite|redis|memory)", ErrInvalid, c.Store.Backend)
	}
	if c.Store.Backend == store.BackendRedis && strings.TrimSpace(c.Store.RedisURL) == "" {
		return fmt.Errorf("%w: store.redis_url is required for the redis backend", ErrInvalid)
	}
	switch c.Gateway.Provider {
	case gateway.ProviderOpenRouter, gateway.ProviderGemini:
	default:
		return fmt.Errorf("%w: gateway.provider %q (use openrouter|gemini)", ErrInvalid, c.Gateway.Provider)
	}
	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("%w: gateway.timeout must not be negative", ErrInvalid)
	}
	if _, err := intent.ParseVariant(c.Router.Variant); err != nil {
		return fmt.Errorf("%w: router.%v", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (use text|json)", ErrInvalid, c.Log.Format)
	}
	return nil
}

// Set updates one dotted key from its string form.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "root":
		c.Root = value
	case "store.backend":
		c.Store.Backend = strings.ToLower(value)
	case "store.sqlite_path":
		c.Store.SQLitePath = value
	case "store.redis_url":
		c.Store.RedisURL = value
	case "store.redis_prefix":
		c.Store.RedisPrefix = value
	case "gateway.provider":
		c.Gateway.Provider = strings.ToLower(value)
	case "gateway.base_url":
		c.Gateway.BaseURL = value
	case "gateway.model":
		c.Gateway.Model = value
	case "gateway.referrer":
		c.Gateway.Referrer = value
	case "gateway.app_id":
		c.Gateway.AppID = value
	case "gateway.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: gateway.timeout %q", ErrInvalid, value)
		}
		c.Gateway.Timeout = d
	case "router.variant":
		v, err := intent.ParseVariant(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		c.Router.Variant = string(v)
	case "server.addr":
		c.Server.Addr = value
	case "log.level":
		c.Log.Level = strings.ToLower(value)
	case "log.format":
		c.Log.Format = strings.ToLower(value)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalid, key)
	}
	return c.Validate()
}

func (c Config) Variant() intent.Variant {
	v, err := intent.ParseVariant(c.Router.Variant)
	if err != nil {
		return intent.VariantWorkspace
	}
	return v
}

func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.Store.Backend,
		Root:        c.Root,
		SQLitePath:  c.Store.SQLitePath,
		RedisURL:    c.Store.RedisURL,
		RedisPrefix: c.Store.RedisPrefix,
	}
}

func (c Config) GatewayConfig() gateway.Config {
	return gateway.Config{
		Provider: c.Gateway.Provider,
		APIKey:   c.Gateway.APIKey,
		BaseURL:  c.Gateway.BaseURL,
		Model:    c.Gateway.Model,
		Referrer: c.Gateway.Referrer,
		AppID:    c.Gateway.AppID,
		Timeout:  c.Gateway.Timeout,
	}
}

// NewLogger builds the process logger from the log section.
func (c Config) NewLogger() *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	if lvl, err := log.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return l
}
