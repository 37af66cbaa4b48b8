package bootstrap

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-jobqueue/config"
	"github.com/target/mmk-jobqueue/internal/adapters/aggregator"
	"github.com/target/mmk-jobqueue/internal/adapters/auth0"
	"github.com/target/mmk-jobqueue/internal/adapters/postmark"
	redisadapter "github.com/target/mmk-jobqueue/internal/adapters/redis"
	"github.com/target/mmk-jobqueue/internal/core"
)

// ClientsConfig contains what BuildClients needs.
type ClientsConfig struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Clients groups the remote collaborators handed to the jobs. A nil field means
// the integration is not configured; jobs needing it retry until it is.
type Clients struct {
	Identity    core.IdentityProvider
	Mailer      core.Mailer
	Aggregators core.AggregatorClientFactory
	TokenCache  core.CacheRepository
}

// BuildClients creates the Auth0, Postmark and aggregator clients from config.
func BuildClients(cfg ClientsConfig) Clients {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	var clients Clients
	if cfg.RedisClient != nil {
		clients.TokenCache = redisadapter.NewTokenCacheWithPrefix(cfg.RedisClient, appCfg.Redis.KeyPrefix)
	}

	remoteTimeout := appCfg.Queue.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = 30 * time.Second
	}

	if identity := buildAuth0Client(appCfg.Auth0, clients.TokenCache, remoteTimeout, logger); identity != nil {
		clients.Identity = identity
	}
	if mailer := buildPostmarkClient(appCfg.Postmark, remoteTimeout, logger); mailer != nil {
		clients.Mailer = mailer
	}
	clients.Aggregators = aggregator.NewFactory(remoteTimeout)

	return clients
}

func buildAuth0Client(cfg config.Auth0Config, cache core.CacheRepository, timeout time.Duration, logger *slog.Logger) *auth0.Client {
	if !cfg.Configured() {
		logger.Warn("auth0 client disabled: configuration missing",
			"base_url_empty", cfg.BaseURL == "",
			"client_id_empty", cfg.ClientID == "",
			"client_secret_empty", cfg.ClientSecret == "",
		)
		return nil
	}
	client, err := auth0.NewClient(auth0.Config{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Audience:     cfg.Audience,
		Connection:   cfg.Connection,
		HTTPClient:   newHTTPClient(timeout),
		TokenCache:   cache,
		Logger:       logger,
	})
	if err != nil {
		logger.Warn("failed to create auth0 client, invitations disabled", "error", err)
		return nil
	}
	return client
}

func buildPostmarkClient(cfg config.PostmarkConfig, timeout time.Duration, logger *slog.Logger) *postmark.Client {
	if !cfg.Configured() {
		logger.Warn("postmark client disabled: configuration missing",
			"server_token_empty", cfg.ServerToken == "",
			"from_empty", cfg.From == "",
		)
		return nil
	}
	client, err := postmark.NewClient(postmark.Config{
		BaseURL:     cfg.BaseURL,
		ServerToken: cfg.ServerToken,
		From:        cfg.From,
		HTTPClient:  newHTTPClient(timeout),
	})
	if err != nil {
		logger.Warn("failed to create postmark client, invitation emails disabled", "error", err)
		return nil
	}
	return client
}
