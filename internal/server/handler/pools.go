package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/alanyoungcy/privpoolbot/internal/venue"
)

// PoolSource reads confidential pool status. It returns
// domain.ErrConnectivity until the chains are connected.
type PoolSource interface {
	PoolStatuses(ctx context.Context) ([]venue.PoolState, error)
}

// PoolHandler serves confidential pool status.
type PoolHandler struct {
	source PoolSource
}

// NewPoolHandler creates a PoolHandler.
func NewPoolHandler(source PoolSource) *PoolHandler {
	return &PoolHandler{source: source}
}

// ListPools returns the status of every configured confidential pool.
// GET /api/pools
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.source.PoolStatuses(r.Context())
	switch {
	case errors.Is(err, domain.ErrConnectivity):
		writeError(w, http.StatusServiceUnavailable, "chains not connected")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, pools)
	}
}
