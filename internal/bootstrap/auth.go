package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/mmk-jobqueue/config"
	"github.com/target/mmk-jobqueue/internal/adapters/oidc"
)

// AuthConfig contains configuration for the admin token verifier.
type AuthConfig struct {
	AdminAuth config.AdminAuthConfig
	IsDev     bool
	Logger    *slog.Logger
}

// BuildVerifier creates the admin bearer-token verifier.
// Returns nil if auth is not configured or discovery fails; the admin routes then reject every request.
func BuildVerifier(ctx context.Context, cfg AuthConfig) *oidc.Verifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AdminAuth.Disabled && cfg.IsDev {
		logger.Warn("admin authentication disabled in dev mode")
		return nil
	}
	if !cfg.AdminAuth.Configured() {
		logger.Warn("admin authentication not configured; admin routes will reject all requests",
			"issuer_empty", cfg.AdminAuth.Issuer == "",
			"client_id_empty", cfg.AdminAuth.ClientID == "",
		)
		return nil
	}

	v, err := oidc.NewVerifier(ctx, oidc.Config{
		Issuer:          cfg.AdminAuth.Issuer,
		ClientID:        cfg.AdminAuth.ClientID,
		AdminExpression: cfg.AdminAuth.AdminExpression,
		HTTPClient:      newHTTPClient(10 * time.Second),
	})
	if err != nil {
		logger.Warn("failed to create OIDC verifier, admin routes disabled", "error", err)
		return nil
	}
	return v
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
