/*
Package session ties the engine components into one explicit session object.

PURPOSE:
  A Session owns the state the original page kept in ambient globals: the
  current OrderSet snapshot, the active selection, and the milestone
  tracker. Every component call goes through the session, which makes the
  idempotence and one-shot properties mechanically testable without shared
  fixtures.

RECOMPUTATION MODEL:
  The engine itself is synchronous and never reenters. Selection mutations
  and ingestion each trigger exactly one recompute; bursts (a continuous
  slider drag) are expected to be coalesced by the collaborator before they
  reach the session. A mutex serializes callers so rapid triggers cannot
  corrupt state, but there is no internal queueing or cancellation.

SNAPSHOT DISCIPLINE:
  Re-ingestion installs a brand-new OrderSet pointer (copy-on-replace). A
  reader holding the prior snapshot keeps a consistent view; nothing is
  mutated in place.

SEE ALSO:
  - orders: ingestion and eligibility
  - selection: filter state and bucketing
  - pricing: breakdown and milestones
*/
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/pricing"
	"github.com/earlypay/advance-engine/selection"
)

// Session is the per-client engine context.
type Session struct {
	mu sync.Mutex

	normalizer orders.Normalizer
	engine     pricing.Engine
	tracker    *pricing.Tracker
	state      *selection.State

	set        *orders.OrderSet
	stats      orders.IngestStats
	snapshotID string

	pending []pricing.Celebration

	// now is injectable so quotes and milestone cooldowns are reproducible.
	now func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock freezes or replaces the session clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithNormalizer overrides the ingestion normalizer (lead time, row hook).
func WithNormalizer(n orders.Normalizer) Option {
	return func(s *Session) { s.normalizer = n }
}

// New creates a session with an empty order set and no selection.
func New(terms pricing.Terms, opts ...Option) *Session {
	s := &Session{
		engine:  pricing.NewEngine(terms),
		tracker: pricing.NewTracker(),
		state:   selection.NewState(),
		set:     &orders.OrderSet{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// INGESTION
// =============================================================================

// Ingest parses an export and installs the resulting OrderSet. On a
// SchemaError the prior set remains installed and usable. A successful
// ingest clears the selection (bucket indices refer to the old bucketing)
// and re-arms celebrations.
func (s *Session) Ingest(text string) (orders.IngestStats, error) {
	return s.IngestWith(text, nil)
}

// IngestWith is Ingest with an install hook that runs after a successful
// parse but before the new snapshot becomes visible. When the hook fails
// the session keeps its prior snapshot, so a collaborator (the order store)
// can never diverge from what the session serves.
func (s *Session) IngestWith(text string, install func(snapshotID string, recs []orders.OrderRecord) error) (orders.IngestStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, stats, err := s.normalizer.Parse(text, s.now())
	if err != nil {
		return orders.IngestStats{}, err
	}

	snapshotID := uuid.NewString()
	if install != nil {
		if err := install(snapshotID, set.Orders); err != nil {
			return orders.IngestStats{}, err
		}
	}

	s.set = set
	s.stats = stats
	s.snapshotID = snapshotID
	s.state.Clear()
	s.tracker.ResetCelebrations()
	s.observeLocked()
	return stats, nil
}

// Snapshot returns the current OrderSet. Callers may hold it across a
// re-ingestion; it is never mutated.
func (s *Session) Snapshot() *orders.OrderSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// SnapshotID identifies the current ingestion, empty before the first one.
func (s *Session) SnapshotID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotID
}

// Stats returns the ingest stats of the current snapshot.
func (s *Session) Stats() orders.IngestStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// =============================================================================
// SELECTION
// =============================================================================

// SetDateRange switches to range mode. Changing the selection identity
// invalidates prior celebrations.
func (s *Session) SetDateRange(start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetDateRange(start, end)
	s.tracker.ResetCelebrations()
	s.observeLocked()
}

// SetRangeByOffsets sets the range as day offsets from a base date, the
// shape a range slider emits.
func (s *Session) SetRangeByOffsets(base time.Time, from, to int) {
	s.SetDateRange(base.AddDate(0, 0, from), base.AddDate(0, 0, to))
}

// ToggleBucket flips one weekly bucket in or out of the selection.
func (s *Session) ToggleBucket(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ToggleBucket(index)
	s.tracker.ResetCelebrations()
	s.observeLocked()
}

// ClearSelection returns to the include-all default.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Clear()
	s.tracker.ResetCelebrations()
	s.observeLocked()
}

// SelectedBuckets returns the active bucket indices.
func (s *Session) SelectedBuckets() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SelectedBuckets()
}

// ActiveSpans returns the day spans the current selection filters by;
// ok is false for the include-all default.
func (s *Session) ActiveSpans() ([]selection.DaySpan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveSpans(selection.WeeklyBuckets(s.set))
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Breakdown resolves the current selection and prices it.
func (s *Session) Breakdown() ([]orders.OrderRecord, pricing.Breakdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breakdownLocked()
}

// DailyBuckets returns the chart view of the current snapshot.
func (s *Session) DailyBuckets() []selection.DailyBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection.DailyBuckets(s.set)
}

// WeeklyBuckets returns the selection view of the current snapshot.
func (s *Session) WeeklyBuckets() []selection.WeeklyBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection.WeeklyBuckets(s.set)
}

// Milestones reports progress against the current breakdown.
func (s *Session) Milestones() []pricing.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, b := s.breakdownLocked()
	return s.tracker.Progress(b.NetEligible)
}

// DrainCelebrations returns pending celebration events at most once.
func (s *Session) DrainCelebrations() []pricing.Celebration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// NetEligible is a convenience accessor for the current net amount.
func (s *Session) NetEligible() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, b := s.breakdownLocked()
	return b.NetEligible
}

// =============================================================================
// INTERNAL
// =============================================================================

func (s *Session) breakdownLocked() ([]orders.OrderRecord, pricing.Breakdown) {
	weekly := selection.WeeklyBuckets(s.set)
	selected, _ := s.state.Resolve(s.set, weekly)
	return selected, s.engine.Price(selected, s.now())
}

// observeLocked runs one recompute through the milestone tracker and queues
// whatever fired.
func (s *Session) observeLocked() {
	_, b := s.breakdownLocked()
	fired := s.tracker.Observe(b.NetEligible, s.now())
	s.pending = append(s.pending, fired...)
}
