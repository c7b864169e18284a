/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal/time types from the external API contract: monetary
  values cross the wire as strings so clients do their own display
  rounding, exactly as the engine never rounds internally.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/pricing"
	"github.com/earlypay/advance-engine/selection"
)

// =============================================================================
// INGEST
// =============================================================================

// IngestResultDTO is the status line reported after an ingest.
type IngestResultDTO struct {
	SnapshotID  string `json:"snapshot_id"`
	Loaded      int    `json:"loaded"`
	Skipped     int    `json:"skipped"`
	TotalAmount string `json:"total_amount"`
	FirstOrder  string `json:"first_order,omitempty"`
	LastOrder   string `json:"last_order,omitempty"`
}

// =============================================================================
// SELECTION
// =============================================================================

// SetRangeRequest sets the date range by ISO dates, or by day offsets from
// a base date when a slider drives the selection.
type SetRangeRequest struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	BaseDate   string `json:"base_date,omitempty"`
	FromOffset *int   `json:"from_offset,omitempty"`
	ToOffset   *int   `json:"to_offset,omitempty"`
}

// =============================================================================
// BREAKDOWN / OFFER
// =============================================================================

// OrderFeeDTO is one row of the per-order fee table.
type OrderFeeDTO struct {
	TransactionID   string `json:"transaction_id"`
	EventID         string `json:"event_id"`
	EventName       string `json:"event_name"`
	OrderDate       string `json:"order_date"`
	Amount          string `json:"amount"`
	WeeksTillInHand int    `json:"weeks_till_in_hand"`
	Fee             string `json:"fee"`
	InHandDate      string `json:"in_hand_date"`
}

// BreakdownDTO is the full monetary breakdown for the current selection.
type BreakdownDTO struct {
	EligibleAmount string        `json:"eligible_amount"`
	BaseFees       string        `json:"base_fees"`
	NetEligible    string        `json:"net_eligible"`
	Tier1Bonus     string        `json:"tier1_bonus"`
	Tier2Bonus     string        `json:"tier2_bonus"`
	AdvanceAmount  string        `json:"advance_amount"`
	OrderCount     int           `json:"order_count"`
	OrderFees      []OrderFeeDTO `json:"order_fees"`
}

// OfferDTO is the offer-page summary.
type OfferDTO struct {
	EligibleAmount string `json:"eligible_amount"`
	TotalFees      string `json:"total_fees"`
	FeePercent     string `json:"fee_percent"`
	AdvanceAmount  string `json:"advance_amount"`
	OrderCount     int    `json:"order_count"`
}

// =============================================================================
// BUCKETS
// =============================================================================

// DailyBucketDTO is one chart bar.
type DailyBucketDTO struct {
	Day         string `json:"day,omitempty"`
	Total       string `json:"total"`
	Label       string `json:"label"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// WeeklyBucketDTO is one selectable bar.
type WeeklyBucketDTO struct {
	Index       int    `json:"index"`
	SpanStart   string `json:"span_start,omitempty"`
	SpanEnd     string `json:"span_end,omitempty"`
	Total       string `json:"total"`
	Label       string `json:"label"`
	Selected    bool   `json:"selected"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// =============================================================================
// MILESTONES
// =============================================================================

// MilestoneDTO is the progress view per threshold.
type MilestoneDTO struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Threshold string  `json:"threshold"`
	State     string  `json:"state"`
	Fraction  float64 `json:"fraction"`
}

// CelebrationDTO is a one-shot celebration event.
type CelebrationDTO struct {
	EventID     string `json:"event_id"`
	MilestoneID string `json:"milestone_id"`
	Title       string `json:"title"`
	FiredAt     string `json:"fired_at"`
}

// =============================================================================
// ORDERS TABLE
// =============================================================================

// OrderDTO is one row of the paginated orders table.
type OrderDTO struct {
	TransactionID string `json:"transaction_id"`
	EventID       string `json:"event_id"`
	EventName     string `json:"event_name"`
	OrderDate     string `json:"order_date"`
	EventDate     string `json:"event_date"`
	Amount        string `json:"amount"`
	MustShipBy    string `json:"must_ship_by,omitempty"`
}

// OrdersPageDTO is a page of the orders table.
type OrdersPageDTO struct {
	Orders  []OrderDTO `json:"orders"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toOrderFeeDTO(f pricing.OrderFee) OrderFeeDTO {
	return OrderFeeDTO{
		TransactionID:   f.Order.TransactionID,
		EventID:         f.Order.EventID,
		EventName:       f.Order.EventName,
		OrderDate:       f.Order.OrderDate.Format("2006-01-02"),
		Amount:          f.Order.Amount.String(),
		WeeksTillInHand: f.WeeksTillInHand,
		Fee:             f.Fee.String(),
		InHandDate:      f.InHandDate.Format("2006-01-02"),
	}
}

func toBreakdownDTO(b pricing.Breakdown) BreakdownDTO {
	fees := make([]OrderFeeDTO, len(b.OrderFees))
	for i, f := range b.OrderFees {
		fees[i] = toOrderFeeDTO(f)
	}
	return BreakdownDTO{
		EligibleAmount: b.EligibleAmount.String(),
		BaseFees:       b.BaseFees.String(),
		NetEligible:    b.NetEligible.String(),
		Tier1Bonus:     b.Tier1Bonus.String(),
		Tier2Bonus:     b.Tier2Bonus.String(),
		AdvanceAmount:  b.AdvanceAmount.String(),
		OrderCount:     len(b.OrderFees),
		OrderFees:      fees,
	}
}

func toOrderDTO(o orders.OrderRecord) OrderDTO {
	dto := OrderDTO{
		TransactionID: o.TransactionID,
		EventID:       o.EventID,
		EventName:     o.EventName,
		OrderDate:     o.OrderDate.Format("2006-01-02"),
		EventDate:     o.EventDate.Format(time.RFC3339),
		Amount:        o.Amount.String(),
	}
	if o.MustShipBy != nil {
		dto.MustShipBy = o.MustShipBy.Format("2006-01-02")
	}
	return dto
}

func toWeeklyBucketDTO(b selection.WeeklyBucket, selected bool) WeeklyBucketDTO {
	dto := WeeklyBucketDTO{
		Index:       b.Index,
		Total:       b.Total.String(),
		Label:       b.Label,
		Selected:    selected,
		Placeholder: b.Placeholder,
	}
	if !b.Placeholder {
		dto.SpanStart = b.Span.Start.Format("2006-01-02")
		dto.SpanEnd = b.Span.End.Format("2006-01-02")
	}
	return dto
}
