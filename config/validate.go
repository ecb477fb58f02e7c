package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"activityrewards/native/rewards"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("config: invalid")

// Validate checks the configuration is usable by the daemon and CLI.
func (c *Config) Validate() error {
	if c.ScalingFactor == 0 {
		return fmt.Errorf("%w: ScalingFactor must be positive", ErrInvalid)
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Storage.Backend {
	case BackendLevelDB, BackendSQLite, BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("%w: Storage.DSN required for postgres", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend)
	}
	if c.Auth.Enabled && c.AuthSecret() == "" {
		return fmt.Errorf("%w: Auth.HMACSecret required when auth is enabled", ErrInvalid)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalid)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: Telemetry.SampleRatio must be within [0,1]", ErrInvalid)
	}
	if strings.TrimSpace(c.Webhook.URL) != "" && c.WebhookSecret() == "" {
		return fmt.Errorf("%w: Webhook.Secret required when Webhook.URL is set", ErrInvalid)
	}
	if c.Webhook.MaxAttempts < 0 {
		return fmt.Errorf("%w: Webhook.MaxAttempts must not be negative", ErrInvalid)
	}
	return nil
}

// Catalog converts the activity table into a reward catalog.
func (c *Config) Catalog() (*rewards.Catalog, error) {
	entries := make(map[rewards.ActivityID]uint64, len(c.Activities))
	for name, raw := range c.Activities {
		amount, err := rewards.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", name, err)
		}
		entries[rewards.ActivityID(name)] = amount
	}
	return rewards.NewCatalog(entries)
}

// Params returns the engine parameters.
func (c *Config) Params() rewards.Params {
	return rewards.Params{ScalingFactor: c.ScalingFactor}
}

// AuthSecret resolves the HMAC secret, preferring the named environment
// variable.
func (c *Config) AuthSecret() string {
	return resolveSecret(c.Auth.HMACSecretEnv, c.Auth.HMACSecret)
}

// WebhookSecret resolves the webhook signing secret.
func (c *Config) WebhookSecret() string {
	return resolveSecret(c.Webhook.SecretEnv, c.Webhook.Secret)
}

func resolveSecret(env, fallback string) string {
	if env = strings.TrimSpace(env); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(fallback)
}

// ClockSkew is the JWT leeway.
func (c *Config) ClockSkew() time.Duration {
	return time.Duration(c.Auth.ClockSkewSecs) * time.Second
}

// LevelDBPath resolves the LevelDB directory.
func (c *Config) LevelDBPath() string {
	if path := strings.TrimSpace(c.Storage.Path); path != "" {
		return path
	}
	return filepath.Join(c.DataDir, "ledger")
}

// SQLDSN resolves the SQL data source.
func (c *Config) SQLDSN() string {
	if dsn := strings.TrimSpace(c.Storage.DSN); dsn != "" {
		return dsn
	}
	return filepath.Join(c.DataDir, "ledger.db")
}
