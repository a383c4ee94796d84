// Package catalog serves curriculum content to the core. Content is
// read-only here: units come from YAML files or an upstream content
// service, optionally fronted by a Redis cache and resilience wrappers.
package catalog

import (
	"context"
	"sync"

	"github.com/darasahq/darasa/internal/domain"
)

// Registry is an in-memory catalog with an index over exercises for the
// batched lookups the recommendation engine issues.
type Registry struct {
	mu        sync.RWMutex
	units     map[string]*domain.Unit
	order     []string
	exercises map[string]domain.Exercise
}

// NewRegistry creates a registry over the given units.
func NewRegistry(units ...*domain.Unit) *Registry {
	r := &Registry{
		units:     make(map[string]*domain.Unit),
		exercises: make(map[string]domain.Exercise),
	}
	for _, u := range units {
		r.Add(u)
	}
	return r
}

// Add registers a unit, replacing any previous unit with the same id.
func (r *Registry) Add(unit *domain.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.units[unit.ID]; !exists {
		r.order = append(r.order, unit.ID)
	}
	r.units[unit.ID] = unit
	for _, ex := range unit.Exercises {
		r.exercises[ex.ID] = ex
	}
}

// GetUnit returns the unit with the given id.
func (r *Registry) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.units[unitID]
	if !ok {
		return nil, domain.ErrUnitNotFound
	}
	return unit, nil
}

// GetExercises returns the exercises for the given ids in one lookup.
// Unknown ids are silently absent from the result.
func (r *Registry) GetExercises(ctx context.Context, ids []string) (map[string]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Exercise, len(ids))
	for _, id := range ids {
		if ex, ok := r.exercises[id]; ok {
			out[id] = ex
		}
	}
	return out, nil
}

// ListUnits returns all units in registration order.
func (r *Registry) ListUnits(ctx context.Context) ([]*domain.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Unit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.units[id])
	}
	return out, nil
}

var _ domain.Catalog = (*Registry)(nil)
