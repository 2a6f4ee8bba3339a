package handlers

import (
	"net/http"

	"depositlink/internal/health"
)

type Health struct {
	svc *health.Service
}

func NewHealth(svc *health.Service) *Health { return &Health{svc: svc} }

func (h *Health) Handler(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Check(r.Context())
	status := http.StatusOK
	state := "up"
	if !res.OK {
		status = http.StatusServiceUnavailable
		state = "down"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": res.Checks})
}
