package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the admin HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeQueueWorker runs the queue worker pool.
	ServiceModeQueueWorker ServiceMode = "queue-worker"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeQueueWorker,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeQueueWorker:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, queue-worker)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// QueueConfig contains the queue engine and job catalog configuration.
type QueueConfig struct {
	// WorkerCount is the number of worker loops kept alive by the pool.
	WorkerCount int `env:"WORKER_COUNT" envDefault:"2"`

	// MaxRetry is the number of failed attempts after which an item is marked failed.
	MaxRetry int `env:"MAX_RETRY" envDefault:"5"`

	// PollMin and PollMax bound the random idle wait between empty claims.
	PollMin time.Duration `env:"POLL_MIN" envDefault:"10s"`
	PollMax time.Duration `env:"POLL_MAX" envDefault:"20s"`

	// BackoffBase is multiplied by 4^(n-1) for the n-th retry.
	BackoffBase time.Duration `env:"BACKOFF_BASE" envDefault:"1s"`

	// MaxJitter bounds the random delay added to each retry. Negative disables jitter.
	MaxJitter time.Duration `env:"MAX_JITTER" envDefault:"15s"`

	// JobTimeout bounds a single attempt. Zero disables the deadline.
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"0s"`

	// Recurring job schedules, as standard cron expressions or descriptors.
	SessionCleanupSchedule string `env:"SESSION_CLEANUP_SCHEDULE" envDefault:"@every 60m"`
	QueueCleanupSchedule   string `env:"CLEANUP_SCHEDULE"         envDefault:"@every 60m"`
	TaskSyncSchedule       string `env:"TASK_SYNC_SCHEDULE"       envDefault:"@weekly"`

	// Retention is how long successful items are kept before QueueCleanup deletes them.
	Retention time.Duration `env:"RETENTION" envDefault:"336h"` // 14 days

	// TaskSyncConcurrency bounds the aggregators synced in parallel.
	TaskSyncConcurrency int `env:"TASK_SYNC_CONCURRENCY" envDefault:"4"`

	// RemoteTimeout bounds each aggregator HTTP call.
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	if q.WorkerCount < 1 {
		q.WorkerCount = 1
	}
	if q.MaxRetry < 1 {
		q.MaxRetry = 1
	}
	if q.PollMin < 100*time.Millisecond {
		q.PollMin = 100 * time.Millisecond
	}
	if q.PollMax < q.PollMin {
		q.PollMax = q.PollMin
	}
	if q.BackoffBase <= 0 {
		q.BackoffBase = time.Second
	}
	if q.JobTimeout < 0 {
		q.JobTimeout = 0
	}
	if q.Retention < time.Hour {
		q.Retention = time.Hour
	}
	if q.TaskSyncConcurrency < 1 {
		q.TaskSyncConcurrency = 1
	}
	if q.RemoteTimeout <= 0 {
		q.RemoteTimeout = 30 * time.Second
	}
	q.SessionCleanupSchedule = strings.TrimSpace(q.SessionCleanupSchedule)
	q.QueueCleanupSchedule = strings.TrimSpace(q.QueueCleanupSchedule)
	q.TaskSyncSchedule = strings.TrimSpace(q.TaskSyncSchedule)
}
