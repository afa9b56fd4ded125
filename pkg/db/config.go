// Package db owns the process-wide connection pool and hands out one
// unit-of-work session per logical operation. Configuration selects one of
// two backends: the embedded-file engine (sqlite) or the client/server
// engine (postgres).
package db

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Recognized environments. Development enables verbose statement logging.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrEnvironmentUnknown = errors.New("unknown environment")
	ErrPoolSizeInvalid    = errors.New("pool size must be positive")
	ErrWorkerCountInvalid = errors.New("expected worker count must be positive")
	ErrOverflowInvalid    = errors.New("max overflow must not be negative")
)

// Config holds backend selection and connection parameters.
// DatabaseName names the database for the client/server backend and the
// data file for the embedded backend. ConnectionURI, when set, overrides
// derived connection-string construction entirely.
type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Backend     string `mapstructure:"backend" yaml:"backend"`

	DatabaseName string `mapstructure:"database_name" yaml:"database_name"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	Host         string `mapstructure:"host" yaml:"host"`

	ConnectionURI string `mapstructure:"connection_uri" yaml:"connection_uri"`

	// Pool parameters, client/server backend only.
	PoolSize            int `mapstructure:"pool_size" yaml:"pool_size"`
	ExpectedWorkerCount int `mapstructure:"expected_worker_count" yaml:"expected_worker_count"`
	MaxOverflow         int `mapstructure:"max_overflow" yaml:"max_overflow"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Environment:         EnvDevelopment,
		Backend:             BackendSQLite,
		DatabaseName:        "app.db",
		User:                "user",
		Password:            "changeme",
		Host:                "localhost",
		PoolSize:            83,
		ExpectedWorkerCount: 9,
		MaxOverflow:         64,
	}
}

// knownBackends lists the backends Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// Validate checks that the Config is well-formed, returning a sentinel
// error from this package on failure. Pool parameters are only checked for
// the client/server backend.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	if c.Environment != "" && c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("%w: %q", ErrEnvironmentUnknown, c.Environment)
	}
	if c.Backend == BackendPostgres {
		if c.PoolSize <= 0 {
			return ErrPoolSizeInvalid
		}
		if c.ExpectedWorkerCount <= 0 {
			return ErrWorkerCountInvalid
		}
		if c.MaxOverflow < 0 {
			return ErrOverflowInvalid
		}
	}
	return nil
}

// EffectivePoolSize derives the per-process pool size from the configured
// budget divided across expected workers, with a floor of 5. A non-positive
// worker count yields the floor.
func (c Config) EffectivePoolSize() int {
	if c.ExpectedWorkerCount <= 0 {
		return 5
	}
	n := c.PoolSize / c.ExpectedWorkerCount
	if n < 5 {
		n = 5
	}
	return n
}

// DSN builds the connection string for the configured backend. An explicit
// ConnectionURI wins outright.
func (c Config) DSN() string {
	if c.ConnectionURI != "" {
		return c.ConnectionURI
	}
	if c.Backend == BackendPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.User, c.Password, c.DatabaseName)
	}
	return c.DatabaseName
}

// verbose reports whether statement logging should be enabled.
func (c Config) verbose() bool {
	return c.Environment == EnvDevelopment
}

// Load reads configuration from the given YAML file, with LARDER_-prefixed
// environment variables taking precedence over file values, on top of
// Default values. An empty path searches the working directory for
// larder.yaml; absence of that file is not an error, but an explicitly
// named file must exist.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("environment", defaults.Environment)
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("database_name", defaults.DatabaseName)
	v.SetDefault("user", defaults.User)
	v.SetDefault("password", defaults.Password)
	v.SetDefault("host", defaults.Host)
	// Registered with an empty default so AutomaticEnv can see the key.
	v.SetDefault("connection_uri", defaults.ConnectionURI)
	v.SetDefault("pool_size", defaults.PoolSize)
	v.SetDefault("expected_worker_count", defaults.ExpectedWorkerCount)
	v.SetDefault("max_overflow", defaults.MaxOverflow)

	v.SetEnvPrefix("LARDER")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("larder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		// Missing config file is fine; defaults and env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
