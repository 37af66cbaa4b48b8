package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/target/mmk-jobqueue/config"
	"github.com/target/mmk-jobqueue/internal/queue/job"
)

// InitLogger installs the process-wide logger. LOG_LEVEL and LOG_FORMAT are read
// directly so the logger exists before the rest of the configuration is loaded.
func InitLogger() *slog.Logger {
	logCfg, err := env.ParseAs[config.LoggingConfig]()
	logCfg.Sanitize()
	logger := NewLogger(os.Stdout, logCfg)
	if err != nil {
		logger.Warn("invalid logging configuration, using defaults", "error", err)
	}
	slog.SetDefault(logger)
	return logger
}

// NewLogger builds a slog logger writing to w in the configured format.
func NewLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == config.LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// LoadConfig loads configuration from environment variables, reading .env first when present.
func LoadConfig() (config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (config.AppConfig, error) {
	var cfg config.AppConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig rejects configurations the process cannot start with.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	if cfg.DB.Driver == config.DBDriverSQLite && cfg.DB.SQLitePath == "" {
		return errors.New("DB_SQLITE_PATH is required when DB_DRIVER=sqlite")
	}

	if services[config.ServiceModeQueueWorker] {
		if _, err := job.ParseSchedules(
			cfg.Queue.SessionCleanupSchedule,
			cfg.Queue.QueueCleanupSchedule,
			cfg.Queue.TaskSyncSchedule,
		); err != nil {
			return fmt.Errorf("invalid queue schedules: %w", err)
		}
	}
	return nil
}

// GetEnabledServices returns the enabled service names in canonical order.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// ValidateServiceConfig reports the error.
		return []string{}
	}

	enabled := make([]string, 0, len(services))
	for _, mode := range config.ValidServiceModes() {
		if services[mode] {
			enabled = append(enabled, string(mode))
		}
	}
	return enabled
}
