package positions

import (
	"context"
	"sort"
	"sync"
	"time"

	"slugstop.org/tracker/internal/transit"
)

// MemoryStore is a Store held in process memory. Reports older than retention
// are pruned on write.
type MemoryStore struct {
	mu        sync.RWMutex
	reports   map[string]transit.PositionReport // vehicleID -> latest
	retention time.Duration
	clock     func() time.Time
}

// NewMemoryStore returns an empty store that forgets reports after retention.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		reports:   make(map[string]transit.PositionReport),
		retention: retention,
		clock:     time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, report transit.PositionReport) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked(m.clock())

	if current, ok := m.reports[report.VehicleID]; ok && current.Timestamp.After(report.Timestamp) {
		return false, nil
	}
	m.reports[report.VehicleID] = report
	return true, nil
}

func (m *MemoryStore) RecentForRoute(_ context.Context, routeID string, since time.Time) ([]transit.PositionReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]transit.PositionReport, 0)
	for _, r := range m.reports {
		if r.RouteID == routeID && !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	sortReports(out)
	return out, nil
}

func (m *MemoryStore) Recent(_ context.Context, since time.Time) ([]transit.PositionReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]transit.PositionReport, 0, len(m.reports))
	for _, r := range m.reports {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	sortReports(out)
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of vehicles currently held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

func (m *MemoryStore) pruneLocked(now time.Time) {
	if m.retention <= 0 {
		return
	}
	cutoff := now.Add(-m.retention)
	for id, r := range m.reports {
		if r.Timestamp.Before(cutoff) {
			delete(m.reports, id)
		}
	}
}

func sortReports(reports []transit.PositionReport) {
	sort.Slice(reports, func(i, j int) bool { return reports[i].VehicleID < reports[j].VehicleID })
}
