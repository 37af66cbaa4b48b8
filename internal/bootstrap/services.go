package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-jobqueue/config"
	"github.com/target/mmk-jobqueue/internal/adapters/oidc"
	"github.com/target/mmk-jobqueue/internal/data/cryptoutil"
	"github.com/target/mmk-jobqueue/internal/observability/notify/pagerduty"
	"github.com/target/mmk-jobqueue/internal/observability/notify/slack"
	"github.com/target/mmk-jobqueue/internal/observability/statsd"
	"github.com/target/mmk-jobqueue/internal/queue"
	"github.com/target/mmk-jobqueue/internal/queue/job"
	"github.com/target/mmk-jobqueue/internal/service"
	"github.com/target/mmk-jobqueue/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Queue         *queue.Queue
	QueueAdmin    *service.QueueService
	Verifier      *oidc.Verifier
	Clients       Clients
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	Store       *Store
	RedisClient redis.UniversalClient
	Encryptor   cryptoutil.Encryptor
	Logger      *slog.Logger
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled:    true,
			Address:    cfg.Metrics.StatsdAddress,
			Prefix:     cfg.Metrics.Prefix,
			GlobalTags: cfg.Metrics.Tags,
			Logger:     obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications, metricsSink),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityNotificationsConfig,
	metrics *statsd.Client,
) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	opts := failurenotifier.Options{
		Logger:       baseLogger,
		Timeout:      cfg.Timeout,
		SkipJobTypes: cfg.SkipJobTypes,
	}
	if metrics != nil {
		opts.Metrics = metrics
	}
	if !cfg.Enabled {
		return failurenotifier.NewService(opts)
	}

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:     cfg.Slack.WebhookURL,
			Channel:        cfg.Slack.Channel,
			Username:       cfg.Slack.Username,
			Timeout:        cfg.Timeout,
			RetryLimit:     cfg.RetryLimit,
			AdminURLPrefix: cfg.Slack.AdminURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			opts.Sinks = append(opts.Sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			opts.Sinks = append(opts.Sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(opts)
}

// QueueDeps groups dependencies for BuildQueue.
type QueueDeps struct {
	Config        config.QueueConfig
	Postmark      config.PostmarkConfig
	Store         *Store
	Clients       Clients
	Encryptor     cryptoutil.Encryptor
	Observability ObservabilityContainer
	Logger        *slog.Logger
}

// BuildQueue wires the job dispatcher and the queue engine.
func BuildQueue(deps QueueDeps) (*queue.Queue, error) {
	if deps.Store == nil {
		return nil, errors.New("queue store is required")
	}
	schedules, err := job.ParseSchedules(
		deps.Config.SessionCleanupSchedule,
		deps.Config.QueueCleanupSchedule,
		deps.Config.TaskSyncSchedule,
	)
	if err != nil {
		return nil, err
	}

	dispatcher, err := job.NewDispatcher(job.State{
		Identity:            deps.Clients.Identity,
		Mailer:              deps.Clients.Mailer,
		Aggregators:         deps.Clients.Aggregators,
		Encryptor:           deps.Encryptor,
		Records:             deps.Store.Records,
		Schedules:           schedules,
		InvitationTemplate:  deps.Postmark.InvitationTemplate,
		QueueRetention:      deps.Config.Retention,
		TaskSyncConcurrency: deps.Config.TaskSyncConcurrency,
		Logger:              deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create job dispatcher: %w", err)
	}

	opts := queue.Options{
		Store:       deps.Store.Queue,
		Performer:   dispatcher,
		Logger:      deps.Logger,
		WorkerCount: deps.Config.WorkerCount,
		MaxRetry:    deps.Config.MaxRetry,
		PollMin:     deps.Config.PollMin,
		PollMax:     deps.Config.PollMax,
		BackoffBase: deps.Config.BackoffBase,
		MaxJitter:   deps.Config.MaxJitter,
		JobTimeout:  deps.Config.JobTimeout,
		Recurring:   job.RecurringJobs(),
	}
	// Typed nil pointers must not leak into the interface fields.
	if deps.Observability.MetricsSink != nil {
		opts.Metrics = deps.Observability.MetricsSink
	}
	if deps.Observability.FailureNotifier != nil {
		opts.Notifier = deps.Observability.FailureNotifier
	}

	q, err := queue.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create queue: %w", err)
	}
	return q, nil
}

// NewServices initializes all application services.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.Store == nil {
		return ServiceContainer{}, errors.New("service deps require config and store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	encryptor := deps.Encryptor
	if encryptor == nil {
		encryptor = CreateEncryptor(deps.Config.SecretsEncryptionKey, logger)
	}

	observability := buildObservability(logger, deps.Config.Observability)
	clients := BuildClients(ClientsConfig{Config: deps.Config, RedisClient: deps.RedisClient, Logger: logger})

	q, err := BuildQueue(QueueDeps{
		Config:        deps.Config.Queue,
		Postmark:      deps.Config.Postmark,
		Store:         deps.Store,
		Clients:       clients,
		Encryptor:     encryptor,
		Observability: observability,
		Logger:        logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	admin, err := service.NewQueueService(service.QueueServiceOptions{
		Store:  deps.Store.Queue,
		Engine: q,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	var verifier *oidc.Verifier
	if deps.Config.IsHTTPServerEnabled() {
		verifier = BuildVerifier(ctx, AuthConfig{
			AdminAuth: deps.Config.AdminAuth,
			IsDev:     deps.Config.IsDev,
			Logger:    logger,
		})
	}

	return ServiceContainer{
		Queue:         q,
		QueueAdmin:    admin,
		Verifier:      verifier,
		Clients:       clients,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:      deps.cfg.Config,
		Services:    deps.cfg.Services,
		PoolEnabled: deps.enabledServices[config.ServiceModeQueueWorker],
		Logger:      deps.logger,
		ErrCh:       deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newQueueWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeQueueWorker,
		name: "queue worker pool",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Services.Queue == nil {
				return errors.New("queue is not configured")
			}
			return deps.cfg.Services.Queue.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newQueueWorkerBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      result.HTTPServer,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel          context.CancelFunc
	errCh           <-chan error
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops accepting HTTP traffic, then cancels the worker pool and
// waits for in-flight jobs to finish.
func gracefulStop(cfg shutdownConfig) error {
	var stopErr error
	if cfg.httpServer != nil {
		stopErr = ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Timeout: cfg.shutdownTimeout,
			Logger:  cfg.logger,
		})
	}

	cfg.cancel()

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return stopErr
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
