// Package config loads branchwise settings from defaults, an optional config
// file, BRANCHWISE_* environment variables and command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables (BRANCHWISE_SERVER_PORT, ...).
const EnvPrefix = "BRANCHWISE"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the complete branchwise configuration.
type Config struct {
	// Tree is a path to a JSON/YAML tree document or an http(s) URL.
	Tree   string       `mapstructure:"tree"`
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Log    LogConfig    `mapstructure:"log"`
	Flow   FlowConfig   `mapstructure:"flow"`
	Export ExportConfig `mapstructure:"export"`
}

// ServerConfig controls the HTTP adapter.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects where session state lives.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the directory used by the file driver.
	Path string `mapstructure:"path"`
	// EncryptionKey, when set, encrypts persisted states with AES-256-GCM.
	// It is 32 bytes given as base64 or hex.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys still decrypt states written before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// RedisConfig is used by the redis driver.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FlowConfig tunes the interactive run.
type FlowConfig struct {
	// AutoAdvance is how long an info node with a continuation stays on
	// screen before the flow moves on. Zero waits for Enter.
	AutoAdvance time.Duration `mapstructure:"auto_advance"`
}

// ExportConfig controls report export.
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Path:   ".branchwise/sessions",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "branchwise:session:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Flow: FlowConfig{
			AutoAdvance: 1500 * time.Millisecond,
		},
		Export: ExportConfig{
			Path: "decisions-config.txt",
		},
	}
}

// New returns a viper instance seeded with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed variables honoured for compatibility with container platforms.
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	return v
}

// SetDefaults registers every default on v so that AutomaticEnv can resolve
// nested keys during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tree", d.Tree)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.encryption_key", d.Store.EncryptionKey)
	v.SetDefault("store.fallback_keys", d.Store.FallbackKeys)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("flow.auto_advance", d.Flow.AutoAdvance)
	v.SetDefault("export.path", d.Export.Path)
}

// ReadFile merges the config file at path into v. An empty path searches
// ./branchwise.yaml and the user config directory; a missing file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("branchwise")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(Dir())
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// BindFlags maps command line flags onto config keys. Flags that are not
// defined on fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
// FRONTEND_URL, when set, is appended to the allowed origins.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if frontend := strings.TrimSpace(os.Getenv("FRONTEND_URL")); frontend != "" {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, frontend)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Dir returns the user config directory for branchwise.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "branchwise")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".branchwise"
	}
	return filepath.Join(home, ".config", "branchwise")
}
