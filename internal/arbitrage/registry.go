package arbitrage

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps config names to strategies.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Strategy{}}
}

// Register stores s under s.Name(), replacing any earlier entry.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	r.byName[s.Name()] = s
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	s, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("arbitrage: unknown strategy %q (have %v)", name, r.List())
	}
	return s, nil
}

// Select returns the named strategies in the order given.
func (r *Registry) Select(names []string) ([]Strategy, error) {
	selected := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
