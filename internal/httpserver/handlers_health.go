package httpserver

import (
	"net/http"
	"time"

	"github.com/gestfact/payments/pkg/responders"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Backend string `json:"storage_backend"`
}

// health reports liveness for load balancers and uptime checks.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	backend := h.cfg.Storage.Backend
	if backend == "" {
		backend = "memory"
	}

	responders.JSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(serverStartTime).Round(time.Second).String(),
		Backend: backend,
	})
}
