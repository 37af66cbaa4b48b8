package httpx

import (
	"net/http"

	"github.com/target/mmk-jobqueue/internal/service"
)

// PoolStatusProvider reports the worker pool state.
type PoolStatusProvider interface {
	Status() service.PoolStatus
}

type healthResponse struct {
	Status string              `json:"status"`
	Queue  *service.PoolStatus `json:"queue,omitempty"`
}

// healthHandler reports liveness plus the worker pool state when the pool runs in this process.
func healthHandler(pool PoolStatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if pool != nil {
			st := pool.Status()
			resp.Queue = &st
			if st.Running && st.LiveWorkers < st.Workers {
				resp.Status = "degraded"
			}
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
