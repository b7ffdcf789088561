package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// RecentDecisions is the in-memory decision ledger.
type RecentDecisions interface {
	Recent(n int) []domain.ExecutionDecision
}

// DecisionHandler lists execution decisions. It reads from the store when
// one is configured and from the in-memory ledger otherwise.
type DecisionHandler struct {
	store  domain.DecisionStore
	ledger RecentDecisions
	logger *slog.Logger
}

// NewDecisionHandler creates a DecisionHandler. store may be nil.
func NewDecisionHandler(store domain.DecisionStore, ledger RecentDecisions, logger *slog.Logger) *DecisionHandler {
	return &DecisionHandler{store: store, ledger: ledger, logger: logHandler(logger, "decisions")}
}

// ListDecisions returns decisions newest first.
// GET /api/decisions?limit=&offset=&outcome=&since=&until=
func (h *DecisionHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOpts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time filter: "+err.Error())
		return
	}

	var decisions []domain.ExecutionDecision
	if h.store != nil {
		decisions, err = h.store.List(r.Context(), opts)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "list decisions", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to list decisions")
			return
		}
	} else {
		decisions = filterRecent(h.ledger.Recent(0), opts)
	}
	if decisions == nil {
		decisions = []domain.ExecutionDecision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

// GetDecision returns one decision by ID.
// GET /api/decisions/{id}
func (h *DecisionHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.store != nil {
		d, err := h.store.GetByID(r.Context(), id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "decision not found")
		case err != nil:
			h.logger.ErrorContext(r.Context(), "get decision", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to get decision")
		default:
			writeJSON(w, http.StatusOK, d)
		}
		return
	}
	for _, d := range h.ledger.Recent(0) {
		if d.ID == id {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeError(w, http.StatusNotFound, "decision not found")
}

// filterRecent applies list options to ledger entries, which are already
// newest first.
func filterRecent(all []domain.ExecutionDecision, opts domain.ListOpts) []domain.ExecutionDecision {
	var out []domain.ExecutionDecision
	skipped := 0
	for _, d := range all {
		if opts.Outcome != "" && d.Outcome != opts.Outcome {
			continue
		}
		if opts.Since != nil && d.DecidedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && d.DecidedAt.After(*opts.Until) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, d)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}
