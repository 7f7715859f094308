package plans

import (
	"sync/atomic"
	"time"
)

type snapshot struct {
	plans     []Plan
	updatedAt time.Time
}

// Store holds the current plan catalog. ReplaceAll swaps the whole sequence
// atomically; readers always see either the previous or the next snapshot.
type Store struct {
	current atomic.Pointer[snapshot]
	now     func() time.Time
}

// NewStore returns an empty catalog.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.current.Store(&snapshot{plans: []Plan{}})
	return s
}

// ReplaceAll installs plans as the current catalog. The slice is copied so
// later caller mutations do not leak into readers.
func (s *Store) ReplaceAll(plans []Plan) {
	next := make([]Plan, len(plans))
	copy(next, plans)
	s.current.Store(&snapshot{plans: next, updatedAt: s.now()})
}

// ReadAll returns the current snapshot. Callers must treat it as read-only.
func (s *Store) ReadAll() []Plan {
	return s.load().plans
}

// Len returns the number of plans in the current snapshot.
func (s *Store) Len() int {
	return len(s.load().plans)
}

// UpdatedAt returns when the catalog was last replaced, or the zero time
// before the first successful sync.
func (s *Store) UpdatedAt() time.Time {
	return s.load().updatedAt
}

// Find returns the first plan with the given package code.
func (s *Store) Find(packageCode string) (Plan, bool) {
	for _, plan := range s.load().plans {
		if plan.PackageCode == packageCode {
			return plan, true
		}
	}
	return Plan{}, false
}

func (s *Store) load() *snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return &snapshot{plans: []Plan{}}
}
