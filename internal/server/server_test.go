package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/alanyoungcy/privpoolbot/internal/scanloop"
	"github.com/alanyoungcy/privpoolbot/internal/server/handler"
	"github.com/alanyoungcy/privpoolbot/internal/venue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLoop struct {
	stats  domain.ScanStats
	report domain.ScanReport
	err    error
}

func (f *fakeLoop) Stats() domain.ScanStats       { return f.stats }
func (f *fakeLoop) LastReport() domain.ScanReport { return f.report }
func (f *fakeLoop) State() scanloop.State         { return scanloop.Sleeping }
func (f *fakeLoop) LastError() error              { return f.err }

type fakeLedger []domain.ExecutionDecision

func (l fakeLedger) Recent(int) []domain.ExecutionDecision { return l }

type fakePools struct {
	pools []venue.PoolState
	err   error
}

func (f fakePools) PoolStatuses(context.Context) ([]venue.PoolState, error) { return f.pools, f.err }

type fakeLimiter struct{ allow bool }

func (f fakeLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return f.allow, nil
}

func newTestRoutes(t *testing.T, cfg Config, checks []handler.Check, pools fakePools) (http.Handler, *fakeLoop) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loop := &fakeLoop{
		stats: domain.ScanStats{Scans: 7, OpportunitiesFound: 2, SimulatedProfit: 0.012},
		report: domain.ScanReport{
			Candidates:  5,
			Profitable:  []domain.CandidateRecord{{ID: "c1", ProfitPct: 1.2}},
			CompletedAt: now,
		},
	}
	ledger := fakeLedger{
		{ID: "d2", Outcome: domain.OutcomeWouldExecute, DecidedAt: now},
		{ID: "d1", Outcome: domain.OutcomeSkippedBelowThreshold, DecidedAt: now.Add(-time.Hour)},
	}
	logger := discardLogger()
	h := Handlers{
		Health: handler.NewHealthHandler(checks, logger),
		Status: handler.NewStatusHandler(handler.StatusInfo{
			Mode:       "scan",
			Wallet:     "<none>",
			Simulating: true,
			Strategies: []string{"triangular"},
		}, loop),
		Scan:      handler.NewScanHandler(loop),
		Decisions: handler.NewDecisionHandler(nil, ledger, logger),
		Pools:     handler.NewPoolHandler(pools),
	}
	return Routes(cfg, h, nil, logger), loop
}

func get(t *testing.T, h http.Handler, path string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealth(t *testing.T) {
	ok := handler.Check{Name: "redis", Ping: func(context.Context) error { return nil }}
	h, _ := newTestRoutes(t, Config{}, []handler.Check{ok}, fakePools{})
	rec, body := get(t, h, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	bad := handler.Check{Name: "postgres", Ping: func(context.Context) error { return errors.New("refused") }}
	h, _ = newTestRoutes(t, Config{}, []handler.Check{ok, bad}, fakePools{})
	rec, body = get(t, h, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "refused", body["components"].(map[string]any)["postgres"])
}

func TestStatusStatsOpportunities(t *testing.T) {
	h, loop := newTestRoutes(t, Config{}, nil, fakePools{})
	loop.err = errors.New("rpc down")

	rec, body := get(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sleeping", body["state"])
	assert.Equal(t, true, body["simulating"])
	assert.Equal(t, "rpc down", body["last_error"])

	rec, body = get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, body["scans"])
	assert.InDelta(t, 0.012, body["simulated_profit"], 1e-12)

	rec, body = get(t, h, "/api/opportunities")
	require.Equal(t, http.StatusOK, rec.Code)
	opps := body["opportunities"].([]any)
	require.Len(t, opps, 1)
	assert.Equal(t, "c1", opps[0].(map[string]any)["id"])
}

func TestDecisionsFromLedger(t *testing.T) {
	h, _ := newTestRoutes(t, Config{}, nil, fakePools{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decisions?outcome=would_execute", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.ExecutionDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "d2", list[0].ID)

	rec, body := get(t, h, "/api/decisions/d1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "d1", body["id"])

	rec, _ = get(t, h, "/api/decisions/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, h, "/api/decisions?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPools(t *testing.T) {
	h, _ := newTestRoutes(t, Config{}, nil, fakePools{err: domain.ErrConnectivity})
	rec, _ := get(t, h, "/api/pools")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h, _ = newTestRoutes(t, Config{}, nil, fakePools{pools: []venue.PoolState{{Name: "pool_a", Status: domain.PoolActive}}})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var pools []venue.PoolState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pools))
	require.Len(t, pools, 1)
	assert.Equal(t, domain.PoolActive, pools[0].Status)
}

func TestAuthAndRateLimit(t *testing.T) {
	h, _ := newTestRoutes(t, Config{APIKey: "secret"}, nil, fakePools{})

	rec, _ := get(t, h, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code, "health is open")

	rec, _ = get(t, h, "/api/stats")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = get(t, h, "/api/stats", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = get(t, h, "/api/stats", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h, _ = newTestRoutes(t, Config{Limiter: fakeLimiter{allow: false}, RateLimitPerMinute: 10}, nil, fakePools{})
	rec, _ = get(t, h, "/api/stats")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRoutes(t, Config{CORSOrigins: []string{"http://localhost:3000"}}, nil, fakePools{})

	req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
