/*
Package orders provides the normalized order model for the advance engine.

PURPOSE:
  This package owns the OrderRecord type and the rules for turning a raw
  transaction export into a validated, eligibility-filtered OrderSet. The
  rest of the engine (selection, pricing) only ever sees orders that have
  already passed through this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - OrderRecord: A single receivable with an amount and calendar dates
  - OrderSet: The immutable per-session collection of eligible orders
  - IngestStats: Aggregate observability side-channel from a parse

DESIGN PRINCIPLES:
  1. Immutability: An OrderRecord is never modified after creation and an
     OrderSet is replaced wholesale on re-ingestion, never mutated.
  2. Precision: Uses decimal.Decimal for all monetary values.
  3. Single gate: The lead-time eligibility rule is enforced exactly once,
     at ingestion. Downstream code can assume every order is eligible.

SEE ALSO:
  - normalizer.go: Export parsing and row-level validation
  - serial.go: Spreadsheet serial-date conversion
*/
package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER RECORD - A single receivable
// =============================================================================

// OrderRecord is an eligible receivable. Immutable once created.
type OrderRecord struct {
	TransactionID string
	EventID       string
	EventName     string

	// Amount is the expected proceeds in USD. Always positive: rows with a
	// non-positive amount are discarded at parse time.
	Amount decimal.Decimal

	TransactionDate time.Time
	EventDate       time.Time

	// OrderDate is the date used for all selection and bucketing. It is the
	// event date when the transaction date was already in the past at parse
	// time, otherwise the transaction date.
	OrderDate time.Time

	// MustShipBy is nil when the export had no parsable value for the row.
	MustShipBy *time.Time
}

// =============================================================================
// ORDER SET - The per-session collection
// =============================================================================

// OrderSet holds every eligible order from one successful ingestion. It is
// created once per parse and shared read-only; re-ingestion installs a new
// set rather than mutating this one.
type OrderSet struct {
	Orders []OrderRecord
}

func (s *OrderSet) Len() int { return len(s.Orders) }

func (s *OrderSet) IsEmpty() bool { return len(s.Orders) == 0 }

// TotalAmount sums every order in the set.
func (s *OrderSet) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, o := range s.Orders {
		total = total.Add(o.Amount)
	}
	return total
}

// DateBounds returns the earliest and latest order date. ok is false for an
// empty set.
func (s *OrderSet) DateBounds() (earliest, latest time.Time, ok bool) {
	if len(s.Orders) == 0 {
		return time.Time{}, time.Time{}, false
	}
	earliest, latest = s.Orders[0].OrderDate, s.Orders[0].OrderDate
	for _, o := range s.Orders[1:] {
		if o.OrderDate.Before(earliest) {
			earliest = o.OrderDate
		}
		if o.OrderDate.After(latest) {
			latest = o.OrderDate
		}
	}
	return earliest, latest, true
}

// =============================================================================
// INGEST STATS - Observability side-channel
// =============================================================================

// IngestStats summarizes one parse. Skipped rows are counted here but never
// surfaced individually: one malformed row must not abort ingestion.
type IngestStats struct {
	Loaded      int
	Skipped     int
	TotalAmount decimal.Decimal
	FirstOrder  time.Time
	LastOrder   time.Time
}
