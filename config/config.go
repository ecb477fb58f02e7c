package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"activityrewards/native/rewards"
)

const (
	BackendLevelDB  = "leveldb"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	RPCAddress    string            `toml:"RPCAddress" yaml:"RPCAddress"`
	DataDir       string            `toml:"DataDir" yaml:"DataDir"`
	Environment   string            `toml:"Environment" yaml:"Environment"`
	ScalingFactor uint64            `toml:"ScalingFactor" yaml:"ScalingFactor"`
	Activities    map[string]string `toml:"Activities" yaml:"Activities"`
	Storage       Storage           `toml:"Storage" yaml:"Storage"`
	Auth          Auth              `toml:"Auth" yaml:"Auth"`
	RateLimit     RateLimit         `toml:"RateLimit" yaml:"RateLimit"`
	Logging       Logging           `toml:"Logging" yaml:"Logging"`
	Telemetry     Telemetry         `toml:"Telemetry" yaml:"Telemetry"`
	NATS          NATS              `toml:"NATS" yaml:"NATS"`
	Webhook       Webhook           `toml:"Webhook" yaml:"Webhook"`
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	activities := make(map[string]string)
	for id, base := range rewards.DefaultActivities() {
		activities[string(id)] = rewards.FormatAmount(base)
	}
	return &Config{
		RPCAddress:    ":8080",
		DataDir:       "./rewards-data",
		Environment:   "local",
		ScalingFactor: rewards.DefaultScalingFactor,
		Activities:    activities,
		Storage:       Storage{Backend: BackendLevelDB},
		Auth:          Auth{ClockSkewSecs: 120},
		RateLimit:     RateLimit{RequestsPerSecond: 20, Burst: 40},
		Logging:       Logging{Level: "info", Format: "json"},
		Telemetry:     Telemetry{Endpoint: "localhost:4318", Insecure: true},
		NATS:          NATS{SubjectPrefix: "rewards"},
	}
}

// Load reads the configuration at path, choosing YAML for .yaml/.yml and TOML
// otherwise. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Activities = nil
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %s in %s", ErrInvalid, undecoded[0], path)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetBackend applies a storage backend override. Blank values are ignored and
// names are matched case-insensitively.
func (c *Config) SetBackend(raw string) {
	if v := strings.ToLower(strings.TrimSpace(raw)); v != "" {
		c.Storage.Backend = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Activities) == 0 {
		c.Activities = Default().Activities
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = BackendLevelDB
	}
	c.SetBackend(c.Storage.Backend)
	if strings.TrimSpace(c.NATS.SubjectPrefix) == "" {
		c.NATS.SubjectPrefix = "rewards"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
