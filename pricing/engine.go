/*
Package pricing computes the advance offer for a selected order subset.

PURPOSE:
  Given the selected orders and an evaluation instant, produce the full
  monetary breakdown: time-decayed per-order fees, tiered volume rebates,
  and the resulting advance amount.

THE FEE MODEL:
  Each order settles a fixed number of days after its order date (the
  "in-hand" date). The fee charges a weekly rate for every week of
  time-to-cash remaining at evaluation:

    inHand  = orderDate + SettlementDays
    weeks   = max(0, ceil((inHand - now) / 7d))
    fee     = amount * WeeklyFeeRate * weeks

  An order already past its in-hand date contributes zero fee.

TIER REBATES:
  Both tiers are evaluated independently against the same net eligible
  amount and are additive: when netEligible clears both thresholds, both
  rebates apply. This is deliberate, not a missed else-if.

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere; the engine never rounds.
     Two-decimal display rounding belongs to the presentation layer.
  2. Determinism: for a fixed subset and frozen "now" the output is exactly
     reproducible, so test fixtures freeze the clock.
  3. Totality: an empty subset prices to an all-zero breakdown, never an
     error.

SEE ALSO:
  - milestones.go: Threshold tracking over the netEligible stream
  - factory/terms.go: JSON terms configuration
*/
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/earlypay/advance-engine/orders"
)

// =============================================================================
// TERMS - The pricing ruleset
// =============================================================================

// Terms holds the configurable constants of the fee and rebate model.
type Terms struct {
	// WeeklyFeeRate is charged per week of time-to-cash (0.0065 = 0.65%/week).
	WeeklyFeeRate decimal.Decimal

	// SettlementDays is the assumed days from order date to cash in hand.
	SettlementDays int

	// TierRebateRate applies at each cleared tier (0.005 = 50 bps).
	TierRebateRate decimal.Decimal

	Tier1Threshold decimal.Decimal
	Tier2Threshold decimal.Decimal
}

// DefaultTerms returns the standard offer terms: 0.65% per week against an
// 8-week settlement, with 50 bps rebates at $200k and $500k net eligible.
func DefaultTerms() Terms {
	return Terms{
		WeeklyFeeRate:  decimal.RequireFromString("0.0065"),
		SettlementDays: 56,
		TierRebateRate: decimal.RequireFromString("0.005"),
		Tier1Threshold: decimal.NewFromInt(200_000),
		Tier2Threshold: decimal.NewFromInt(500_000),
	}
}

// =============================================================================
// BREAKDOWN - The derived offer
// =============================================================================

// OrderFee is the per-order fee detail exposed for tabular display.
type OrderFee struct {
	Order           orders.OrderRecord
	InHandDate      time.Time
	WeeksTillInHand int
	Fee             decimal.Decimal
}

// Breakdown is the full monetary result for one selection. It has no
// identity of its own and is recomputed on every selection change.
type Breakdown struct {
	EligibleAmount decimal.Decimal
	OrderFees      []OrderFee
	BaseFees       decimal.Decimal
	NetEligible    decimal.Decimal
	Tier1Bonus     decimal.Decimal
	Tier2Bonus     decimal.Decimal
	AdvanceAmount  decimal.Decimal
}

// FeePercent is the effective fee as a percentage of the eligible amount,
// used by the offer summary. Zero for an empty selection.
func (b Breakdown) FeePercent() decimal.Decimal {
	if b.EligibleAmount.IsZero() {
		return decimal.Zero
	}
	return b.BaseFees.Div(b.EligibleAmount).Mul(decimal.NewFromInt(100))
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine prices order subsets under a fixed set of terms.
type Engine struct {
	Terms Terms
}

// NewEngine returns an engine with the given terms.
func NewEngine(terms Terms) Engine { return Engine{Terms: terms} }

// Price computes the breakdown for the selected orders at the evaluation
// instant. Pure: same subset and instant, same output.
func (e Engine) Price(selected []orders.OrderRecord, now time.Time) Breakdown {
	b := Breakdown{
		EligibleAmount: decimal.Zero,
		BaseFees:       decimal.Zero,
		NetEligible:    decimal.Zero,
		Tier1Bonus:     decimal.Zero,
		Tier2Bonus:     decimal.Zero,
		AdvanceAmount:  decimal.Zero,
	}
	if len(selected) == 0 {
		return b
	}

	b.OrderFees = make([]OrderFee, 0, len(selected))
	for _, o := range selected {
		inHand := o.OrderDate.AddDate(0, 0, e.Terms.SettlementDays)
		weeks := weeksUntil(now, inHand)
		fee := o.Amount.Mul(e.Terms.WeeklyFeeRate).Mul(decimal.NewFromInt(int64(weeks)))

		b.OrderFees = append(b.OrderFees, OrderFee{
			Order:           o,
			InHandDate:      inHand,
			WeeksTillInHand: weeks,
			Fee:             fee,
		})
		b.EligibleAmount = b.EligibleAmount.Add(o.Amount)
		b.BaseFees = b.BaseFees.Add(fee)
	}

	b.NetEligible = b.EligibleAmount.Sub(b.BaseFees)
	if b.NetEligible.GreaterThanOrEqual(e.Terms.Tier1Threshold) {
		b.Tier1Bonus = b.NetEligible.Mul(e.Terms.TierRebateRate)
	}
	if b.NetEligible.GreaterThanOrEqual(e.Terms.Tier2Threshold) {
		b.Tier2Bonus = b.NetEligible.Mul(e.Terms.TierRebateRate)
	}
	b.AdvanceAmount = b.EligibleAmount.Sub(b.BaseFees).Add(b.Tier1Bonus).Add(b.Tier2Bonus)
	return b
}

// weeksUntil is the whole number of weeks from now until the deadline,
// rounded up, floored at zero.
func weeksUntil(now, deadline time.Time) int {
	hours := deadline.Sub(now).Hours()
	weeks := int(math.Ceil(hours / (24 * 7)))
	if weeks < 0 {
		return 0
	}
	return weeks
}
