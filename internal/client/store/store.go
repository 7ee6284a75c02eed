// Package store holds the client's in-memory view of the entry set, bucketed
// by calendar date and indexed by id. The backend is the source of truth:
// the store is rebuilt wholesale from snapshots and patched from single
// authoritative entries, both idempotent and last-write-wins by arrival
// order.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/timex"
)

type Store struct {
	mu      sync.Mutex
	buckets map[string][]models.Entry
	byID    map[string]models.Entry
	visible map[string]struct{}
	refs    models.ReferenceDates
	days    []models.CalendarDay
	now     func() time.Time
}

func New() *Store {
	return &Store{
		buckets: make(map[string][]models.Entry),
		byID:    make(map[string]models.Entry),
		visible: make(map[string]struct{}),
		now:     time.Now,
	}
}

// WithClock overrides the clock that pins today's bucket.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// ReplaceAll atomically discards all buckets and rebuilds them from a full
// server snapshot. Applying the same snapshot twice yields the same state.
func (s *Store) ReplaceAll(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string][]models.Entry)
	s.byID = make(map[string]models.Entry, len(snap.Entries))
	s.visible = make(map[string]struct{}, len(snap.CalendarStructure)+3)
	s.refs = snap.ReferenceDates
	s.days = snap.CalendarStructure

	// Today is always a date of interest, even when the server calendar
	// omits it (weekend, holiday): today's visits must never vanish.
	s.visible[timex.Today(s.now)] = struct{}{}
	if snap.ReferenceDates.PreviousWorkday != "" {
		s.visible[snap.ReferenceDates.PreviousWorkday] = struct{}{}
	}
	if snap.ReferenceDates.NextWorkday != "" {
		s.visible[snap.ReferenceDates.NextWorkday] = struct{}{}
	}
	for _, day := range snap.CalendarStructure {
		s.visible[day.Date] = struct{}{}
	}

	for _, e := range snap.Entries {
		s.insertLocked(e)
	}
}

// ApplyEntry removes the entry from its previous date bucket (if resident)
// and inserts the authoritative version into the bucket of its current
// datetime. An entry whose date is outside the visible set drops out of the
// store entirely; it still exists server-side.
func (s *Store) ApplyEntry(updated models.Entry, prevDateKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(updated.ID, prevDateKey)
	s.insertLocked(updated)
}

// Remove deletes the entry from the store. Missing ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.byID[id]; ok {
		s.removeLocked(id, e.DateKey())
		delete(s.byID, id)
	}
}

// Lookup returns the last-known full entry record by id, independent of
// which bucket currently renders it.
func (s *Store) Lookup(id string) (models.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	return e, ok
}

// Bucket returns a copy of the entries for one date key, ordered by
// datetime then id.
func (s *Store) Bucket(dateKey string) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.buckets[dateKey]
	out := make([]models.Entry, len(src))
	copy(out, src)
	return out
}

// VisibleDates returns the sorted set of date keys currently displayed.
func (s *Store) VisibleDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.visible))
	for d := range s.visible {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ReferenceDates returns the server-computed previous/next workday pair.
func (s *Store) ReferenceDates() models.ReferenceDates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Calendar returns the visible calendar structure from the last snapshot.
func (s *Store) Calendar() []models.CalendarDay {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CalendarDay, len(s.days))
	copy(out, s.days)
	return out
}

// Len reports how many entries the store currently holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Store) insertLocked(e models.Entry) {
	// A channel snapshot may have raced the caller: whatever copy the store
	// holds, wherever it lives, goes away before the fresh one lands. This
	// keeps the one-id-one-bucket invariant under any interleaving.
	if old, ok := s.byID[e.ID]; ok {
		s.removeLocked(e.ID, old.DateKey())
		delete(s.byID, e.ID)
	}

	key := e.DateKey()
	if _, ok := s.visible[key]; !ok {
		delete(s.byID, e.ID)
		return
	}

	bucket := s.buckets[key]
	idx := sort.Search(len(bucket), func(i int) bool {
		if !bucket[i].Datetime.Equal(e.Datetime) {
			return bucket[i].Datetime.After(e.Datetime)
		}
		return bucket[i].ID >= e.ID
	})
	bucket = append(bucket, models.Entry{})
	copy(bucket[idx+1:], bucket[idx:])
	bucket[idx] = e
	s.buckets[key] = bucket
	s.byID[e.ID] = e
}

func (s *Store) removeLocked(id string, dateKey string) {
	bucket := s.buckets[dateKey]
	for i, e := range bucket {
		if e.ID == id {
			s.buckets[dateKey] = append(bucket[:i], bucket[i+1:]...)
			if len(s.buckets[dateKey]) == 0 {
				delete(s.buckets, dateKey)
			}
			break
		}
	}
}
