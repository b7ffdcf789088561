package venue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/confidential"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum"
	"golang.org/x/sync/errgroup"
)

// Required chains. Both must be reachable before any scan runs.
var requiredChains = []string{"lisk", "zama"}

// Backend is a chain connection the registry can health-check and call.
type Backend interface {
	ethereum.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
}

// Options configures a Registry.
type Options struct {
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// PoolState is a confidential pool and its last observed status.
type PoolState struct {
	Name    string            `json:"name"`
	Chain   string            `json:"chain"`
	Address string            `json:"address"`
	Status  domain.PoolStatus `json:"status"`
}

// Registry owns every venue adapter and confidential pool handle. All quote
// traffic goes through it.
type Registry struct {
	venues  []*Adapter
	byName  map[string]*Adapter
	pools   []confidential.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry verifies that both chains answer and builds an adapter per
// venue on its chain's backend. A missing or unresponsive backend is reported
// as domain.ErrConnectivity.
func NewRegistry(ctx context.Context, backends map[string]Backend, specs []Spec, pools []confidential.Pool, opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, name := range requiredChains {
		b, ok := backends[name]
		if !ok || b == nil {
			return nil, fmt.Errorf("venue: registry: no backend for chain %s: %w", name, domain.ErrConnectivity)
		}
		pingCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
		_, err := b.BlockNumber(pingCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("venue: registry: chain %s unreachable: %w", name, domain.NewQueryError("", name+".blockNumber", err))
		}
	}

	r := &Registry{
		byName:  make(map[string]*Adapter, len(specs)),
		pools:   pools,
		timeout: opts.CallTimeout,
		logger:  logger.With(slog.String("component", "registry")),
	}
	for _, s := range specs {
		b, ok := backends[s.Chain]
		if !ok {
			return nil, fmt.Errorf("venue: registry: venue %s: unknown chain %q", s.Name, s.Chain)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("venue: registry: duplicate venue %q", s.Name)
		}
		a := NewAdapter(s, b, opts.CallTimeout, logger)
		r.venues = append(r.venues, a)
		r.byName[s.Name] = a
	}
	return r, nil
}

// Venue returns the adapter with the given name.
func (r *Registry) Venue(name string) (*Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Venues returns the adapters in configuration order.
func (r *Registry) Venues() []*Adapter {
	return append([]*Adapter(nil), r.venues...)
}

// VenueNames returns the venue names in configuration order.
func (r *Registry) VenueNames() []string {
	names := make([]string, len(r.venues))
	for i, a := range r.venues {
		names[i] = a.Name()
	}
	return names
}

// Quote asks one venue for a quote.
func (r *Registry) Quote(ctx context.Context, venue string, in, out domain.TokenRef, amount float64) (float64, error) {
	a, ok := r.byName[venue]
	if !ok {
		return 0, fmt.Errorf("venue: unknown venue %q: %w", venue, domain.ErrNotFound)
	}
	return a.Quote(ctx, in.Address, out.Address, amount)
}

// QuoteAll quotes one unit of in for out on every venue concurrently. Venues
// that fail are left out of the result.
func (r *Registry) QuoteAll(ctx context.Context, in, out domain.TokenRef) map[string]float64 {
	var (
		mu     sync.Mutex
		prices = make(map[string]float64, len(r.venues))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range r.venues {
		g.Go(func() error {
			p, err := a.Quote(gctx, in.Address, out.Address, 1.0)
			if err != nil {
				r.logger.DebugContext(gctx, "quote failed",
					slog.String("venue", a.Name()),
					slog.String("pair", in.String()+"/"+out.String()),
					slog.String("failure", domain.FailureKind(err)),
				)
				return nil
			}
			mu.Lock()
			prices[a.Name()] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

// Pools returns the confidential pool handles.
func (r *Registry) Pools() []confidential.Pool {
	return append([]confidential.Pool(nil), r.pools...)
}

// PoolStatuses reads the status of every confidential pool.
func (r *Registry) PoolStatuses(ctx context.Context) []PoolState {
	states := make([]PoolState, len(r.pools))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.pools {
		g.Go(func() error {
			states[i] = PoolState{
				Name:    p.Name(),
				Chain:   p.Chain(),
				Address: p.Address().Hex(),
				Status:  p.Status(gctx),
			}
			return nil
		})
	}
	_ = g.Wait()
	return states
}
