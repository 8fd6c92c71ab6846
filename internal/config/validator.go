package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/branchwise/pkg/persistence/middleware"
)

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log formats.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// ValidStoreDrivers returns the accepted store drivers.
func ValidStoreDrivers() []string {
	return []string{StoreMemory, StoreFile, StoreRedis}
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", c.Server.Port, "must be between 1 and 65535")
	}
	if !slices.Contains(ValidStoreDrivers(), c.Store.Driver) {
		add("store.driver", c.Store.Driver, "must be one of "+strings.Join(ValidStoreDrivers(), ", "))
	}
	if c.Store.Driver == StoreFile && c.Store.Path == "" {
		add("store.path", c.Store.Path, "is required by the file driver")
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			add("store.encryption_key", "<redacted>", err.Error())
		}
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			add(fmt.Sprintf("store.fallback_keys[%d]", i), "<redacted>", err.Error())
		}
	}
	if c.Store.Driver == StoreRedis && c.Redis.Addr == "" {
		add("redis.addr", c.Redis.Addr, "is required by the redis driver")
	}
	if c.Redis.DB < 0 {
		add("redis.db", c.Redis.DB, "must not be negative")
	}
	if c.Redis.TTL < 0 {
		add("redis.ttl", c.Redis.TTL, "must not be negative")
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		add("log.level", c.Log.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		add("log.format", c.Log.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}
	if c.Flow.AutoAdvance < 0 {
		add("flow.auto_advance", c.Flow.AutoAdvance, "must not be negative")
	}
	return errs
}
