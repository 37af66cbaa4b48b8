package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultObservabilityName = "mmk-jobqueue"
	defaultMetricsPrefix     = "mmk_jobqueue"
)

// ObservabilityConfig groups logging, metrics and failure notification settings.
type ObservabilityConfig struct {
	Logging       LoggingConfig
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Logging.Sanitize()
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggingConfig controls the process-wide structured logger.
type LoggingConfig struct {
	Level  string    `env:"LOG_LEVEL"  envDefault:"info"`
	Format LogFormat `env:"LOG_FORMAT" envDefault:"json"`
}

// Sanitize lower-cases the values and falls back to info/json for anything unknown.
func (c *LoggingConfig) Sanitize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	if _, err := ParseLogLevel(c.Level); err != nil {
		c.Level = "info"
	}
	c.Format = LogFormat(strings.ToLower(strings.TrimSpace(string(c.Format))))
	if c.Format != LogFormatText {
		c.Format = LogFormatJSON
	}
}

// SlogLevel returns the configured level, info when it does not parse.
func (c LoggingConfig) SlogLevel() slog.Level {
	lvl, err := ParseLogLevel(c.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLogLevel maps debug, info, warn (or warning) and error to slog levels. Empty means info.
func ParseLogLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q (valid options: debug, info, warn, error)", v)
	}
}

// ObservabilityMetricsConfig controls emission of queue metrics to a StatsD agent.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"mmk_jobqueue"`
	// Tags are attached to every metric, e.g. "env:prod,region:us-east".
	Tags map[string]string `env:"OBSERVABILITY_METRICS_TAGS" envKeyValSeparator:":" envSeparator:","`
}

// Sanitize trims the address and prefix. A blank address disables emission.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if c.Prefix == "" {
		c.Prefix = defaultMetricsPrefix
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls outbound notifications for items that end up failed.
type ObservabilityNotificationsConfig struct {
	Enabled    bool          `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int           `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`

	// SkipJobTypes lists job types whose failures are not announced.
	SkipJobTypes []string `env:"OBSERVABILITY_NOTIFICATIONS_SKIP_JOB_TYPES" envSeparator:","`

	Slack     SlackNotificationConfig     `envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	PagerDuty PagerDutyNotificationConfig `envPrefix:"OBSERVABILITY_NOTIFICATIONS_PAGERDUTY_"`
}

// Sanitize normalises notification configuration values.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}

	c.Slack.sanitize()
	c.PagerDuty.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		c.PagerDuty.Enabled = false
		return
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}

	if c.PagerDuty.Enabled && c.PagerDuty.RoutingKey == "" {
		c.PagerDuty.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"mmk-jobqueue"`

	// AdminURLPrefix links failed item ids to the admin queue API.
	AdminURLPrefix string `env:"ADMIN_URL_PREFIX"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	c.AdminURLPrefix = strings.TrimSpace(c.AdminURLPrefix)
	if c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// PagerDutyNotificationConfig controls PagerDuty Events API v2 fan-out.
type PagerDutyNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"mmk-jobqueue"`
	Component  string `env:"COMPONENT"   envDefault:"queue"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = defaultObservabilityName
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = "queue"
	}
}
