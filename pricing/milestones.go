/*
milestones.go - Edge-triggered milestone tracking over the netEligible stream

PURPOSE:
  Watches the net eligible amount across recomputations and fires a
  one-shot celebration event the first time it crosses a threshold upward.
  Display state (Locked / InProgress / Achieved) is a pure function of the
  current amount; the celebration protocol is the stateful part.

CELEBRATION PROTOCOL:
  A threshold fires iff, in order:
    1. previousNetEligible < threshold <= netEligible (upward crossing)
    2. |netEligible - previousNetEligible| > 100 (suppresses re-fires from
       floating-point-sized jitter on near-identical recomputations)
    3. the threshold has not celebrated since the last selection reset
    4. no celebration is in flight for either threshold (a single guard
       serializes the two events so they never visually overlap)
  previousNetEligible is updated unconditionally after every observation.

  The in-flight guard is a plain 3-second deadline, not a completion
  signal: it clears on its own whether or not the consumer finished
  presenting.

RESET:
  ResetCelebrations clears the celebrated flags and the in-flight guard but
  keeps previousNetEligible, so a downward-then-upward re-crossing inside
  the same selection context still fires. The session invokes it on every
  selection change.
*/
package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MILESTONES
// =============================================================================

// MilestoneState is the display state of one milestone.
type MilestoneState string

const (
	MilestoneLocked     MilestoneState = "locked"
	MilestoneInProgress MilestoneState = "in_progress"
	MilestoneAchieved   MilestoneState = "achieved"
)

// Milestone is a fixed netEligible threshold with its celebration title.
type Milestone struct {
	ID        string
	Threshold decimal.Decimal
	Title     string
}

// DefaultMilestones returns the two offer milestones in firing order.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{ID: "200k", Threshold: decimal.NewFromInt(200_000), Title: "First Tier Bonus"},
		{ID: "500k", Threshold: decimal.NewFromInt(500_000), Title: "Elite Tier Bonus"},
	}
}

// Progress is the per-milestone view exposed to progress bars.
type Progress struct {
	MilestoneID string
	Title       string
	Threshold   decimal.Decimal
	State       MilestoneState
	// Fraction is current/threshold capped at 1.
	Fraction float64
}

// Celebration is a one-shot event consumed at most once per upward crossing.
type Celebration struct {
	EventID     string
	MilestoneID string
	Title       string
	FiredAt     time.Time
}

// =============================================================================
// TRACKER
// =============================================================================

// celebrationJitter is the minimum netEligible movement for a crossing to
// count as a real change rather than recomputation noise.
var celebrationJitter = decimal.NewFromInt(100)

// inFlightCooldown is how long the single in-flight guard stays set.
const inFlightCooldown = 3 * time.Second

// Tracker carries the session-lifetime milestone state. Not safe for
// concurrent use; the owning session serializes observations.
type Tracker struct {
	milestones    []Milestone
	celebrated    map[string]bool
	previousNet   decimal.Decimal
	inFlightUntil time.Time
}

// NewTracker returns a tracker over the default milestones.
func NewTracker() *Tracker { return NewTrackerWith(DefaultMilestones()) }

// NewTrackerWith returns a tracker over a custom milestone list. Order
// matters: earlier milestones win the in-flight guard on a double crossing.
func NewTrackerWith(milestones []Milestone) *Tracker {
	return &Tracker{
		milestones: milestones,
		celebrated: map[string]bool{},
	}
}

// Observe feeds one recomputed netEligible value into the tracker and
// returns any celebrations that fired.
func (t *Tracker) Observe(netEligible decimal.Decimal, now time.Time) []Celebration {
	inFlight := now.Before(t.inFlightUntil)
	significant := netEligible.Sub(t.previousNet).Abs().GreaterThan(celebrationJitter)

	var fired []Celebration
	for _, m := range t.milestones {
		crossed := t.previousNet.LessThan(m.Threshold) &&
			netEligible.GreaterThanOrEqual(m.Threshold)
		if !crossed || !significant || t.celebrated[m.ID] || inFlight {
			continue
		}
		fired = append(fired, Celebration{
			EventID:     uuid.NewString(),
			MilestoneID: m.ID,
			Title:       m.Title,
			FiredAt:     now,
		})
		t.celebrated[m.ID] = true
		t.inFlightUntil = now.Add(inFlightCooldown)
		inFlight = true
	}

	t.previousNet = netEligible
	return fired
}

// ResetCelebrations re-arms every milestone. previousNet survives so the
// next observation still compares against the last real value.
func (t *Tracker) ResetCelebrations() {
	t.celebrated = map[string]bool{}
	t.inFlightUntil = time.Time{}
}

// Progress reports the display state of every milestone for the given
// current netEligible. Stateless with respect to the celebration protocol.
func (t *Tracker) Progress(netEligible decimal.Decimal) []Progress {
	out := make([]Progress, 0, len(t.milestones))
	for _, m := range t.milestones {
		p := Progress{
			MilestoneID: m.ID,
			Title:       m.Title,
			Threshold:   m.Threshold,
			State:       MilestoneLocked,
		}
		switch {
		case netEligible.GreaterThanOrEqual(m.Threshold):
			p.State = MilestoneAchieved
			p.Fraction = 1
		case netEligible.IsPositive():
			p.State = MilestoneInProgress
			fraction, _ := netEligible.Div(m.Threshold).Float64()
			p.Fraction = fraction
		}
		out = append(out, p)
	}
	return out
}

// PreviousNet exposes the last observed value, for diagnostics and tests.
func (t *Tracker) PreviousNet() decimal.Decimal { return t.previousNet }
