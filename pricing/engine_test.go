package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var evalTime = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func order(id string, orderDate time.Time, amount string) orders.OrderRecord {
	return orders.OrderRecord{
		TransactionID: id,
		Amount:        decimal.RequireFromString(amount),
		OrderDate:     orderDate,
	}
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// FEE MODEL
// =============================================================================

func TestPrice_SingleOrderExactBreakdown(t *testing.T) {
	// GIVEN: A $300,000 order dated 30 days out, default terms
	// WHEN: Priced at the evaluation instant
	// THEN: in-hand is 86 days out, ceil(86/7) = 13 weeks, and every
	//       downstream figure is exact decimal arithmetic

	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("t1", evalTime.AddDate(0, 0, 30), "300000"),
	}

	b := engine.Price(selected, evalTime)

	require.Len(t, b.OrderFees, 1)
	assert.Equal(t, 13, b.OrderFees[0].WeeksTillInHand)
	assert.True(t, b.OrderFees[0].InHandDate.Equal(evalTime.AddDate(0, 0, 86)))

	// 300000 * 0.0065 * 13 = 25350
	assert.True(t, b.BaseFees.Equal(money("25350")), "base fees: %s", b.BaseFees)
	assert.True(t, b.EligibleAmount.Equal(money("300000")))
	assert.True(t, b.NetEligible.Equal(money("274650")))

	// 274650 clears the 200k tier only: 274650 * 0.005 = 1373.25
	assert.True(t, b.Tier1Bonus.Equal(money("1373.25")), "tier1: %s", b.Tier1Bonus)
	assert.True(t, b.Tier2Bonus.IsZero())
	assert.True(t, b.AdvanceAmount.Equal(money("276023.25")), "advance: %s", b.AdvanceAmount)
}

func TestPrice_EmptySelectionIsAllZeros(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultTerms())
	b := engine.Price(nil, evalTime)

	assert.True(t, b.EligibleAmount.IsZero())
	assert.True(t, b.BaseFees.IsZero())
	assert.True(t, b.NetEligible.IsZero())
	assert.True(t, b.Tier1Bonus.IsZero())
	assert.True(t, b.Tier2Bonus.IsZero())
	assert.True(t, b.AdvanceAmount.IsZero())
	assert.Empty(t, b.OrderFees)
	assert.True(t, b.FeePercent().IsZero())
}

func TestPrice_OrderPastInHandDateCarriesZeroFee(t *testing.T) {
	// An order whose settlement window has fully elapsed costs nothing.
	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("old", evalTime.AddDate(0, 0, -90), "50000"),
	}

	b := engine.Price(selected, evalTime)

	require.Len(t, b.OrderFees, 1)
	assert.Equal(t, 0, b.OrderFees[0].WeeksTillInHand)
	assert.True(t, b.OrderFees[0].Fee.IsZero())
	assert.True(t, b.NetEligible.Equal(money("50000")))
}

func TestPrice_PartialWeekRoundsUp(t *testing.T) {
	// In-hand exactly 1 day out is still one full week of fee.
	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("t1", evalTime.AddDate(0, 0, -55), "10000"),
	}

	b := engine.Price(selected, evalTime)

	require.Len(t, b.OrderFees, 1)
	assert.Equal(t, 1, b.OrderFees[0].WeeksTillInHand)
	assert.True(t, b.OrderFees[0].Fee.Equal(money("65"))) // 10000 * 0.0065 * 1
}

func TestPrice_FeesSumAcrossOrders(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("t1", evalTime, "10000"),                   // 8 weeks
		order("t2", evalTime.AddDate(0, 0, 14), "20000"), // 10 weeks
	}

	b := engine.Price(selected, evalTime)

	// 10000*0.0065*8 + 20000*0.0065*10 = 520 + 1300
	assert.True(t, b.BaseFees.Equal(money("1820")), "base fees: %s", b.BaseFees)
	assert.True(t, b.EligibleAmount.Equal(money("30000")))
}

// =============================================================================
// TIER REBATES
// =============================================================================

func TestPrice_BothTiersApplyAdditively(t *testing.T) {
	// GIVEN: netEligible clears both thresholds
	// THEN: Both rebates apply against the same netEligible (independent
	//       tiers, not else-if)

	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("big", evalTime.AddDate(0, 0, -90), "600000"), // zero fee
	}

	b := engine.Price(selected, evalTime)

	require.True(t, b.NetEligible.Equal(money("600000")))
	assert.True(t, b.Tier1Bonus.Equal(money("3000")))
	assert.True(t, b.Tier2Bonus.Equal(money("3000")))
	assert.True(t, b.AdvanceAmount.Equal(money("606000")))
}

func TestPrice_ThresholdBoundaryIsInclusive(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("exact", evalTime.AddDate(0, 0, -90), "200000"),
	}

	b := engine.Price(selected, evalTime)

	assert.True(t, b.Tier1Bonus.Equal(money("1000")), "netEligible == threshold qualifies")
	assert.True(t, b.Tier2Bonus.IsZero())
}

func TestPrice_BelowTier1NoBonus(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("small", evalTime.AddDate(0, 0, -90), "199999.99"),
	}

	b := engine.Price(selected, evalTime)

	assert.True(t, b.Tier1Bonus.IsZero())
	assert.True(t, b.Tier2Bonus.IsZero())
	assert.True(t, b.AdvanceAmount.Equal(b.NetEligible))
}

// =============================================================================
// MONOTONICITY AND DETERMINISM
// =============================================================================

func TestPrice_FeeDecaysAsEvaluationApproachesInHand(t *testing.T) {
	// The same order priced later in time never costs more.
	engine := pricing.NewEngine(pricing.DefaultTerms())
	o := order("t1", evalTime.AddDate(0, 0, 30), "100000")

	prev := decimal.NewFromInt(1 << 30)
	for days := 0; days <= 120; days += 7 {
		b := engine.Price([]orders.OrderRecord{o}, evalTime.AddDate(0, 0, days))
		assert.True(t, b.BaseFees.LessThanOrEqual(prev),
			"fee increased at +%d days: %s > %s", days, b.BaseFees, prev)
		prev = b.BaseFees
	}
}

func TestPrice_IsDeterministic(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultTerms())
	selected := []orders.OrderRecord{
		order("t1", evalTime.AddDate(0, 0, 30), "123456.78"),
		order("t2", evalTime.AddDate(0, 0, 45), "87654.32"),
	}

	first := engine.Price(selected, evalTime)
	second := engine.Price(selected, evalTime)

	assert.True(t, first.AdvanceAmount.Equal(second.AdvanceAmount))
	assert.True(t, first.BaseFees.Equal(second.BaseFees))
}

func TestFeePercent(t *testing.T) {
	b := pricing.Breakdown{
		EligibleAmount: money("300000"),
		BaseFees:       money("25350"),
	}
	// 25350 / 300000 * 100 = 8.45
	assert.True(t, b.FeePercent().Equal(money("8.45")), "fee percent: %s", b.FeePercent())
}
