// Package config defines the environment-driven configuration of mmk-jobqueue.
package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the whole process configuration, loaded from the environment with
// github.com/caarlos0/env and normalised by Sanitize. The nested structs live in:
//   - auth.go: admin API token verification plus the Auth0 and Postmark clients
//   - database.go: queue store driver, Postgres/SQLite settings and the optional Redis token cache
//   - http.go: admin API server
//   - services.go: enabled services and queue engine tuning
//   - observability.go: logging, StatsD metrics and failure notifications
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// SecretsEncryptionKey holds the comma-separated keys that seal aggregator bearer tokens.
	// The first key encrypts; the rest are accepted for decryption during rotation.
	SecretsEncryptionKey string `env:"SECRETS_ENCRYPTION_KEY"`

	AdminAuth AdminAuthConfig `envPrefix:"ADMIN_AUTH_"`
	Auth0     Auth0Config     `envPrefix:"AUTH0_"`
	Postmark  PostmarkConfig  `envPrefix:"POSTMARK_"`

	// Database configuration
	DB    DBConfig    `envPrefix:"DB_"`
	Redis RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	// Services is a comma-delimited list of enabled services.
	Services string `env:"SERVICES" envDefault:"http,queue-worker"`

	Queue QueueConfig `envPrefix:"QUEUE_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.DB.Sanitize()
	c.Redis.Sanitize()
	c.HTTP.Sanitize()
	c.Queue.Sanitize()
	c.AdminAuth.Sanitize(c.IsDev)
	c.Auth0.Sanitize()
	c.Postmark.Sanitize()
	c.Observability.Sanitize()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsQueueWorkerEnabled returns true if the queue worker pool runs in this process.
func (c *AppConfig) IsQueueWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeQueueWorker]
}

// LogValue renders the settings worth seeing at startup. Secrets and credentials are never included.
func (c AppConfig) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Bool("dev", c.IsDev),
		slog.String("services", c.Services),
		slog.String("db_driver", string(c.DB.Driver)),
	}
	if c.DB.Driver == DBDriverSQLite {
		attrs = append(attrs, slog.String("db_path", c.DB.SQLitePath))
	} else {
		attrs = append(attrs,
			slog.String("db_host", c.DB.Host),
			slog.Int("db_port", c.DB.Port),
			slog.String("db_name", c.DB.Name),
		)
	}
	attrs = append(attrs,
		slog.Int("workers", c.Queue.WorkerCount),
		slog.Int("max_retry", c.Queue.MaxRetry),
		slog.Bool("redis", c.Redis.Enabled),
		slog.Bool("admin_auth", c.AdminAuth.Configured() && !c.AdminAuth.Disabled),
		slog.Bool("auth0", c.Auth0.Configured()),
		slog.Bool("postmark", c.Postmark.Configured()),
		slog.Bool("metrics", c.Observability.Metrics.IsEnabled()),
		slog.Bool("notifications", c.Observability.Notifications.Enabled),
		slog.Bool("encryption", c.SecretsEncryptionKey != ""),
	)
	return slog.GroupValue(attrs...)
}
