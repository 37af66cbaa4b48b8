package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/target/mmk-jobqueue/internal/adapters/oidc"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// RequestID tags every request with an id, reusing a short client supplied X-Request-ID.
// The id is echoed in the response header and available through RequestIDFromContext.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if id == "" || len(id) > maxRequestIDLength {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(SetRequestIDInContext(r.Context(), id)))
		})
	}
}

// Logging logs one line per request. 5xx responses log at error and 4xx at warn.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			switch {
			case ww.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case ww.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Int("bytes", ww.bytes),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Recover turns a handler panic into a logged 500. Nothing is written when the
// handler already started its response.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww, ok := w.(*respWriter)
			if !ok {
				ww = &respWriter{ResponseWriter: w, status: http.StatusOK}
			}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic",
					slog.Any("error", rec),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("stack", string(debug.Stack())))
				if ww.wroteHeader {
					return
				}
				WriteError(ww, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal"})
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// TokenVerifier verifies bearer tokens. Implemented by oidc.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*oidc.Identity, error)
}

// RequireAdmin returns a middleware that only lets verified administrators through.
// A nil verifier rejects every request.
func RequireAdmin(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				writeUnauthorized(w, errors.New("admin authentication is not configured"))
				return
			}
			id, err := verifier.Verify(r.Context(), oidc.BearerToken(r.Header.Get("Authorization")))
			if err != nil {
				writeUnauthorized(w, errors.New("authentication required"))
				return
			}
			if !id.Admin {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("administrator access required"),
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), id)))
		})
	}
}

// AllowAll is the development stand-in for RequireAdmin.
func AllowAll() func(http.Handler) http.Handler {
	dev := &oidc.Identity{Subject: "dev", Admin: true}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), dev)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="mmk-jobqueue"`)
	WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: err})
}
