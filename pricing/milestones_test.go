package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earlypay/advance-engine/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var observeTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// feed observes a sequence of netEligible values, spacing observations far
// enough apart that the in-flight guard never interferes.
func feed(t *pricing.Tracker, values ...int64) []pricing.Celebration {
	var fired []pricing.Celebration
	at := observeTime
	for _, v := range values {
		fired = append(fired, t.Observe(decimal.NewFromInt(v), at)...)
		at = at.Add(10 * time.Second)
	}
	return fired
}

func milestoneIDs(fired []pricing.Celebration) []string {
	out := make([]string, 0, len(fired))
	for _, c := range fired {
		out = append(out, c.MilestoneID)
	}
	return out
}

// =============================================================================
// ONE-SHOT CROSSING
// =============================================================================

func TestObserve_FiresOncePerUpwardCrossing(t *testing.T) {
	// GIVEN: A netEligible stream that climbs through 200k once and keeps
	//        moving above it
	// THEN: Exactly one celebration fires, at the crossing

	tracker := pricing.NewTracker()
	fired := feed(tracker, 0, 150_000, 199_000, 200_050, 201_000, 250_000)

	require.Len(t, fired, 1)
	assert.Equal(t, "200k", fired[0].MilestoneID)
	assert.Equal(t, "First Tier Bonus", fired[0].Title)
	assert.NotEmpty(t, fired[0].EventID)
}

func TestObserve_ReCrossingWithoutResetStaysSilent(t *testing.T) {
	tracker := pricing.NewTracker()
	fired := feed(tracker, 0, 210_000, 150_000, 210_000)

	assert.Equal(t, []string{"200k"}, milestoneIDs(fired),
		"a dip and re-cross must not re-fire until reset")
}

func TestObserve_NoCrossingNoFire(t *testing.T) {
	tracker := pricing.NewTracker()
	fired := feed(tracker, 0, 50_000, 199_000, 150_000)
	assert.Empty(t, fired)
}

func TestObserve_DownwardCrossingNeverFires(t *testing.T) {
	// Even with the milestone re-armed, crossing the threshold downward is
	// not a celebration.
	tracker := pricing.NewTracker()
	feed(tracker, 0, 300_000)
	tracker.ResetCelebrations()

	fired := tracker.Observe(decimal.NewFromInt(100_000), observeTime.Add(time.Minute))
	assert.Empty(t, fired)
}

// =============================================================================
// JITTER SUPPRESSION
// =============================================================================

func TestObserve_SubJitterCrossingIsSuppressed(t *testing.T) {
	// GIVEN: previousNet just under the threshold, new value just over, with
	//        total movement of 100 or less
	// THEN: The crossing is treated as recomputation noise

	tracker := pricing.NewTracker()
	fired := feed(tracker, 199_960, 200_040)

	assert.Empty(t, fired, "|delta| = 80 is within the jitter band")
}

func TestObserve_JitterBoundaryIsExclusive(t *testing.T) {
	tracker := pricing.NewTracker()
	fired := feed(tracker, 199_950, 200_050)
	assert.Empty(t, fired, "|delta| = 100 exactly does not count as movement")

	fired = feed(pricing.NewTracker(), 199_949, 200_050)
	assert.Equal(t, []string{"200k"}, milestoneIDs(fired), "|delta| = 101 does")
}

// =============================================================================
// IN-FLIGHT GUARD
// =============================================================================

func TestObserve_InFlightGuardSerializesThresholds(t *testing.T) {
	// GIVEN: One observation jumps over both thresholds at once
	// THEN: Only the first milestone fires; the guard holds the second back

	tracker := pricing.NewTracker()
	fired := tracker.Observe(decimal.NewFromInt(600_000), observeTime)

	assert.Equal(t, []string{"200k"}, milestoneIDs(fired))
}

func TestObserve_GuardBlocksDuringCooldown(t *testing.T) {
	tracker := pricing.NewTracker()
	first := tracker.Observe(decimal.NewFromInt(250_000), observeTime)
	require.Len(t, first, 1)

	// 500k crossing one second later: still inside the 3s window.
	blocked := tracker.Observe(decimal.NewFromInt(550_000), observeTime.Add(time.Second))
	assert.Empty(t, blocked)

	// The guard is a deadline, not a latch: the same crossing after expiry
	// fires, because previousNet moved back below in between.
	tracker.Observe(decimal.NewFromInt(400_000), observeTime.Add(5*time.Second))
	late := tracker.Observe(decimal.NewFromInt(550_000), observeTime.Add(10*time.Second))
	assert.Equal(t, []string{"500k"}, milestoneIDs(late))
}

// =============================================================================
// RESET
// =============================================================================

func TestResetCelebrations_ReArmsButKeepsPreviousNet(t *testing.T) {
	tracker := pricing.NewTracker()
	feed(tracker, 0, 250_000)
	require.True(t, tracker.PreviousNet().Equal(decimal.NewFromInt(250_000)))

	tracker.ResetCelebrations()

	// previousNet survives: no phantom fire on an unchanged value...
	assert.True(t, tracker.PreviousNet().Equal(decimal.NewFromInt(250_000)))
	silent := tracker.Observe(decimal.NewFromInt(250_000), observeTime.Add(time.Minute))
	assert.Empty(t, silent, "reset must not replay a crossing that already happened")

	// ...but a genuine re-crossing after the reset fires again.
	fired := feed(tracker, 100_000, 250_000)
	assert.Equal(t, []string{"200k"}, milestoneIDs(fired))
}

// =============================================================================
// DISPLAY STATE
// =============================================================================

func TestProgress_States(t *testing.T) {
	tracker := pricing.NewTracker()

	locked := tracker.Progress(decimal.Zero)
	require.Len(t, locked, 2)
	assert.Equal(t, pricing.MilestoneLocked, locked[0].State)
	assert.Equal(t, pricing.MilestoneLocked, locked[1].State)

	mid := tracker.Progress(decimal.NewFromInt(300_000))
	assert.Equal(t, pricing.MilestoneAchieved, mid[0].State)
	assert.Equal(t, float64(1), mid[0].Fraction)
	assert.Equal(t, pricing.MilestoneInProgress, mid[1].State)
	assert.InDelta(t, 0.6, mid[1].Fraction, 1e-9)

	top := tracker.Progress(decimal.NewFromInt(750_000))
	assert.Equal(t, pricing.MilestoneAchieved, top[0].State)
	assert.Equal(t, pricing.MilestoneAchieved, top[1].State)
}

func TestProgress_DoesNotDisturbCelebrationState(t *testing.T) {
	tracker := pricing.NewTracker()
	tracker.Progress(decimal.NewFromInt(900_000))

	// Progress is a pure view: the crossing below still fires normally.
	fired := feed(tracker, 0, 250_000)
	assert.Equal(t, []string{"200k"}, milestoneIDs(fired))
}
