package handlers

import (
	"net/http"
	"time"

	"github.com/growhub/growhub/internal/api/types"
)

// HealthChecker reports the health of a backing dependency.
type HealthChecker interface {
	Name() string
	Check(r *http.Request) error
}

// SetHealthCheckers installs dependency checks run by the health endpoint.
func (h *Handler) SetHealthCheckers(checkers ...HealthChecker) {
	h.checkers = checkers
}

// Health handles GET /health. It reports degraded with a 503 when any
// dependency check fails, so orchestrators can stop routing traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := &types.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	if len(h.checkers) > 0 {
		resp.Checks = make(map[string]string, len(h.checkers))
		for _, c := range h.checkers {
			if err := c.Check(r); err != nil {
				resp.Checks[c.Name()] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name()] = "ok"
		}
	}

	h.respondJSON(w, code, resp)
}
