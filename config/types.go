package config

// Storage selects the ledger backend.
type Storage struct {
	// Backend is one of "leveldb", "sqlite", "postgres" or "memory".
	Backend string `toml:"Backend" yaml:"Backend"`
	// Path is the LevelDB directory. Empty means <DataDir>/ledger.
	Path string `toml:"Path" yaml:"Path"`
	// DSN is the SQL data source. For sqlite an empty DSN means
	// <DataDir>/ledger.db.
	DSN string `toml:"DSN" yaml:"DSN"`
}

// Auth configures bearer token checks on the RPC endpoint.
type Auth struct {
	Enabled bool `toml:"Enabled" yaml:"Enabled"`
	// HMACSecret signs tokens. HMACSecretEnv, when set, names an environment
	// variable that overrides it.
	HMACSecret    string `toml:"HMACSecret" yaml:"HMACSecret"`
	HMACSecretEnv string `toml:"HMACSecretEnv" yaml:"HMACSecretEnv"`
	Issuer        string `toml:"Issuer" yaml:"Issuer"`
	Audience      string `toml:"Audience" yaml:"Audience"`
	ClockSkewSecs uint32 `toml:"ClockSkewSecs" yaml:"ClockSkewSecs"`
}

// RateLimit bounds requests per client.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond" yaml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst" yaml:"Burst"`
}

// Logging mirrors logging.Options.
type Logging struct {
	Level      string `toml:"Level" yaml:"Level"`
	Format     string `toml:"Format" yaml:"Format"`
	File       string `toml:"File" yaml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups" yaml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"MaxAgeDays"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint" yaml:"Endpoint"`
	Insecure    bool    `toml:"Insecure" yaml:"Insecure"`
	Headers     string  `toml:"Headers" yaml:"Headers"`
	Metrics     bool    `toml:"Metrics" yaml:"Metrics"`
	Traces      bool    `toml:"Traces" yaml:"Traces"`
	SampleRatio float64 `toml:"SampleRatio" yaml:"SampleRatio"`
}

// NATS configures the optional event bus publisher.
type NATS struct {
	URL           string `toml:"URL" yaml:"URL"`
	SubjectPrefix string `toml:"SubjectPrefix" yaml:"SubjectPrefix"`
}

// Webhook configures signed HTTP delivery of reward events.
type Webhook struct {
	URL string `toml:"URL" yaml:"URL"`
	// Secret signs each body. SecretEnv, when set, names an environment
	// variable that overrides it.
	Secret      string   `toml:"Secret" yaml:"Secret"`
	SecretEnv   string   `toml:"SecretEnv" yaml:"SecretEnv"`
	Events      []string `toml:"Events" yaml:"Events"`
	MaxAttempts int      `toml:"MaxAttempts" yaml:"MaxAttempts"`
}
