// Package httpx serves the admin queue API and health checks.
package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds everything the router needs.
type RouterServices struct {
	Queue QueueAdmin
	// Pool is optional; health omits queue details without it.
	Pool PoolStatusProvider
	// Verifier authenticates admin callers. Ignored when AuthDisabled.
	Verifier     TokenVerifier
	AuthDisabled bool
	Logger       *slog.Logger
}

// NewRouter creates the HTTP handler. Every request gets an id, an access log line and panic recovery.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	health := healthHandler(services.Pool)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	if services.Queue != nil {
		admin := RequireAdmin(services.Verifier)
		if services.AuthDisabled {
			logger.Warn("admin authentication disabled")
			admin = AllowAll()
		}
		registerQueueRoutes(mux, &QueueHandlers{Svc: services.Queue}, admin)
	}

	var h http.Handler = mux
	h = Recover(logger)(h)
	h = Logging(logger)(h)
	h = RequestID()(h)
	return h
}

func registerQueueRoutes(mux *http.ServeMux, h *QueueHandlers, admin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/admin/queue", admin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/admin/queue/{id}", admin(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /api/admin/queue/{id}", admin(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/admin/invitations", admin(http.HandlerFunc(h.EnqueueInvitation)))
}
