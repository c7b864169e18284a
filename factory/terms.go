/*
Package factory provides JSON to Go terms conversion.

PURPOSE:
  Converts JSON offer-terms definitions into pricing.Terms and the
  normalizer lead time. This enables terms changes without code changes -
  an operator can tune rates and thresholds in JSON and restart.

JSON SCHEMA:
  {
    "weekly_fee_rate": "0.0065",
    "settlement_days": 56,
    "tier_rebate_rate": "0.005",
    "tier1_threshold": "200000",
    "tier2_threshold": "500000",
    "lead_time_days": 7
  }

  Rates and thresholds are JSON strings so they parse straight into
  decimals without a float round-trip. Omitted fields fall back to the
  defaults above.

USAGE:
  terms, leadTime, err := factory.ParseTerms(jsonString)
  sess := session.New(terms,
      session.WithNormalizer(orders.Normalizer{LeadTimeDays: leadTime}))

SEE ALSO:
  - pricing/engine.go: Terms definition and defaults
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/pricing"
)

// TermsJSON is the JSON representation of the offer terms.
type TermsJSON struct {
	WeeklyFeeRate  string `json:"weekly_fee_rate,omitempty"`
	SettlementDays int    `json:"settlement_days,omitempty"`
	TierRebateRate string `json:"tier_rebate_rate,omitempty"`
	Tier1Threshold string `json:"tier1_threshold,omitempty"`
	Tier2Threshold string `json:"tier2_threshold,omitempty"`
	LeadTimeDays   int    `json:"lead_time_days,omitempty"`
}

// ParseTerms builds pricing terms and the ingestion lead time from JSON,
// applying defaults for omitted fields and validating the result.
func ParseTerms(jsonStr string) (pricing.Terms, int, error) {
	var cfg TermsJSON
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return pricing.Terms{}, 0, fmt.Errorf("invalid terms JSON: %w", err)
	}

	terms := pricing.DefaultTerms()
	leadTime := orders.DefaultLeadTimeDays

	var err error
	if terms.WeeklyFeeRate, err = overrideDecimal(terms.WeeklyFeeRate, cfg.WeeklyFeeRate); err != nil {
		return pricing.Terms{}, 0, fmt.Errorf("weekly_fee_rate: %w", err)
	}
	if terms.TierRebateRate, err = overrideDecimal(terms.TierRebateRate, cfg.TierRebateRate); err != nil {
		return pricing.Terms{}, 0, fmt.Errorf("tier_rebate_rate: %w", err)
	}
	if terms.Tier1Threshold, err = overrideDecimal(terms.Tier1Threshold, cfg.Tier1Threshold); err != nil {
		return pricing.Terms{}, 0, fmt.Errorf("tier1_threshold: %w", err)
	}
	if terms.Tier2Threshold, err = overrideDecimal(terms.Tier2Threshold, cfg.Tier2Threshold); err != nil {
		return pricing.Terms{}, 0, fmt.Errorf("tier2_threshold: %w", err)
	}
	if cfg.SettlementDays != 0 {
		terms.SettlementDays = cfg.SettlementDays
	}
	if cfg.LeadTimeDays != 0 {
		leadTime = cfg.LeadTimeDays
	}

	if err := validate(terms, leadTime); err != nil {
		return pricing.Terms{}, 0, err
	}
	return terms, leadTime, nil
}

func overrideDecimal(current decimal.Decimal, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return current, nil
	}
	return decimal.NewFromString(raw)
}

func validate(t pricing.Terms, leadTime int) error {
	switch {
	case t.WeeklyFeeRate.IsNegative():
		return fmt.Errorf("weekly_fee_rate must not be negative")
	case t.TierRebateRate.IsNegative():
		return fmt.Errorf("tier_rebate_rate must not be negative")
	case t.SettlementDays <= 0:
		return fmt.Errorf("settlement_days must be positive")
	case leadTime <= 0:
		return fmt.Errorf("lead_time_days must be positive")
	case t.Tier2Threshold.LessThan(t.Tier1Threshold):
		return fmt.Errorf("tier2_threshold must not be below tier1_threshold")
	}
	return nil
}
