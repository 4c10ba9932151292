package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-default:"dev"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	NATS     NATSConfig
}

// Strict reports whether connectors should burn their full retry
// budget before giving up. Outside prod a single attempt is made.
func (c *Config) Strict() bool {
	return c.Env == EnvProd
}

type HTTPConfig struct {
	Host            string        `env:"TODO_BACKEND_HOST" env-default:""`
	Port            string        `env:"TODO_BACKEND_PORT" env-required:"true"`
	ShutdownTimeout time.Duration `env:"TODO_BACKEND_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"TODO_DB_HOST"`
	Port           int           `env:"TODO_DB_PORT" env-default:"5432"`
	Username       string        `env:"TODO_DB_USER"`
	Password       string        `env:"TODO_DB_PASS"`
	Database       string        `env:"TODO_DB_NAME"`
	SSLMode        string        `env:"TODO_DB_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"TODO_DB_CONNECT_TIMEOUT" env-default:"10s"`
	RetryAttempts  int           `env:"TODO_DB_RETRY_ATTEMPTS" env-default:"20"`
	RetryDelay     time.Duration `env:"TODO_DB_RETRY_DELAY" env-default:"5s"`
}

// Enabled reports whether every mandatory connection parameter was
// supplied. The backend runs in-memory only when any of them is missing.
func (c PostgresConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.Database != ""
}

// MissingVars lists the unset mandatory connection vars for startup warnings.
func (c PostgresConfig) MissingVars() []string {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "TODO_DB_HOST")
	}
	if c.Username == "" {
		missing = append(missing, "TODO_DB_USER")
	}
	if c.Password == "" {
		missing = append(missing, "TODO_DB_PASS")
	}
	if c.Database == "" {
		missing = append(missing, "TODO_DB_NAME")
	}
	return missing
}

type NATSConfig struct {
	URL           string        `env:"NATS_URL"`
	Subject       string        `env:"NATS_SUBJECT" env-default:"todos.events"`
	RetryAttempts int           `env:"NATS_RETRY_ATTEMPTS" env-default:"20"`
	RetryDelay    time.Duration `env:"NATS_RETRY_DELAY" env-default:"5s"`
}

func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}
