// Package network holds the stop and route definitions the ETA engine reads.
package network

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"slugstop.org/tracker/internal/transit"
)

// Writer is the admin side of a network store.
type Writer interface {
	UpsertStop(ctx context.Context, stop transit.Stop) error
	DeactivateStop(ctx context.Context, stopID string) error
	UpsertRoute(ctx context.Context, route transit.Route) error
}

// MemoryStore is an in-process network store.
type MemoryStore struct {
	mu     sync.RWMutex
	stops  map[string]transit.Stop
	routes map[string]transit.Route
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stops:  make(map[string]transit.Stop),
		routes: make(map[string]transit.Route),
	}
}

func (m *MemoryStore) GetRoute(_ context.Context, routeID string) (*transit.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.routes[routeID]
	if !ok || !r.Active {
		return nil, fmt.Errorf("%w: %s", transit.ErrRouteNotFound, routeID)
	}
	r.Stops = append([]transit.RouteStop(nil), r.Stops...)
	return &r, nil
}

func (m *MemoryStore) GetStop(_ context.Context, stopID string) (*transit.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stops[stopID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", transit.ErrStopNotFound, stopID)
	}
	return &s, nil
}

func (m *MemoryStore) ListActiveStops(_ context.Context) ([]transit.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stops := make([]transit.Stop, 0, len(m.stops))
	for _, s := range m.stops {
		if s.Active {
			stops = append(stops, s)
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].Name < stops[j].Name })
	return stops, nil
}

func (m *MemoryStore) ListActiveRoutes(_ context.Context) ([]transit.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	routes := make([]transit.Route, 0, len(m.routes))
	for _, r := range m.routes {
		if r.Active {
			r.Stops = append([]transit.RouteStop(nil), r.Stops...)
			routes = append(routes, r)
		}
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}

// UpsertStop inserts or replaces a stop. Names are unique across stops.
func (m *MemoryStore) UpsertStop(_ context.Context, stop transit.Stop) error {
	if err := stop.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.stops {
		if id != stop.ID && existing.Name == stop.Name {
			verr := transit.NewValidationError()
			verr.Add("name", fmt.Sprintf("name %q already used by stop %s", stop.Name, id))
			return verr
		}
	}
	m.stops[stop.ID] = stop
	return nil
}

// DeactivateStop soft-deletes a stop so routes keep their references.
func (m *MemoryStore) DeactivateStop(_ context.Context, stopID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stops[stopID]
	if !ok {
		return fmt.Errorf("%w: %s", transit.ErrStopNotFound, stopID)
	}
	s.Active = false
	m.stops[stopID] = s
	return nil
}

// UpsertRoute inserts or replaces a route after checking that every stop exists.
func (m *MemoryStore) UpsertRoute(_ context.Context, route transit.Route) error {
	if err := route.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rs := range route.Stops {
		if _, ok := m.stops[rs.StopID]; !ok {
			return fmt.Errorf("route %s: %w: %s", route.ID, transit.ErrStopNotFound, rs.StopID)
		}
	}
	route.Stops = append([]transit.RouteStop(nil), route.Stops...)
	m.routes[route.ID] = route
	return nil
}
