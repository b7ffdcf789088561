package handler

import (
	"net/http"

	"github.com/alanyoungcy/privpoolbot/internal/scanloop"
)

// StateSource exposes the scan loop state.
type StateSource interface {
	State() scanloop.State
	LastError() error
}

// StatusInfo is the static part of the status response.
type StatusInfo struct {
	Mode         string   `json:"mode"`
	Wallet       string   `json:"wallet"`
	Simulating   bool     `json:"simulating"`
	Strategies   []string `json:"strategies"`
	Venues       []string `json:"venues"`
	ThresholdPct float64  `json:"threshold_pct"`
}

// StatusHandler serves the backend status for the dashboard.
type StatusHandler struct {
	info StatusInfo
	loop StateSource
}

// NewStatusHandler creates a StatusHandler. loop may be nil.
func NewStatusHandler(info StatusInfo, loop StateSource) *StatusHandler {
	return &StatusHandler{info: info, loop: loop}
}

// GetStatus responds with the configuration summary and scan loop state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"mode":          h.info.Mode,
		"wallet":        h.info.Wallet,
		"simulating":    h.info.Simulating,
		"strategies":    h.info.Strategies,
		"venues":        h.info.Venues,
		"threshold_pct": h.info.ThresholdPct,
	}
	if h.loop != nil {
		resp["state"] = h.loop.State().String()
		if err := h.loop.LastError(); err != nil {
			resp["last_error"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
