/*
normalizer.go - Export parsing and row-level validation

PURPOSE:
  Turns the raw text of a transaction export into an OrderSet. The export
  is a comma-delimited table with a header row; columns are identified by
  name, dates are spreadsheet serial numbers.

CONTRACT:
  - The header must contain TRANSACTIONDATETIME, EVENTDATETIME and
    POTENTIAL_EXPOSURE_USD. Anything else is optional.
  - A missing mandatory column fails the whole parse with a SchemaError.
  - A malformed data row is skipped, never fatal. Trailing garbage rows
    are common in these exports, so a row that is too short for the
    mandatory column indices is dropped silently.
  - Rows with amounts that do not parse, non-positive amounts, or serial
    dates at/before the Unix epoch are skipped.
  - The lead-time eligibility rule is applied here, once: an order is kept
    only when its event date and (when present) must-ship-by date are both
    at least LeadTimeDays in the future relative to the parse instant.

The parse instant is an explicit argument so that fixtures can freeze it;
the normalizer performs no I/O and reads no clock of its own.
*/
package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Contractual column names of the ingestion boundary.
const (
	ColTransactionDate = "TRANSACTIONDATETIME"
	ColEventDate       = "EVENTDATETIME"
	ColAmount          = "POTENTIAL_EXPOSURE_USD"
	ColTransactionID   = "TRANSACTIONID"
	ColEventID         = "EVENTID"
	ColEventName       = "EVENTNAME"
	ColMustShipBy      = "MUSTSHIPBY"
)

// DefaultLeadTimeDays is the minimum shipping lead time for eligibility.
const DefaultLeadTimeDays = 7

// RowOutcome classifies what happened to a single data row.
type RowOutcome string

const (
	RowLoaded  RowOutcome = "loaded"
	RowSkipped RowOutcome = "skipped"
)

// RowResult is delivered to the optional RowHook for each data row, so that
// callers (CLI progress bars, metrics) can observe parse progress without
// the normalizer surfacing skipped rows as errors.
type RowResult struct {
	Line    int
	Outcome RowOutcome
}

// Normalizer parses exports. The zero value is usable and applies the
// default lead time.
type Normalizer struct {
	// LeadTimeDays overrides DefaultLeadTimeDays when positive.
	LeadTimeDays int

	// RowHook, when set, is invoked once per non-blank data row.
	RowHook func(RowResult)
}

// Parse normalizes the export text into an OrderSet, evaluated at the given
// parse instant. The returned stats are a pure side-channel value.
func (n Normalizer) Parse(text string, now time.Time) (*OrderSet, IngestStats, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, IngestStats{}, &SchemaError{
			Missing: []string{ColTransactionDate, ColEventDate, ColAmount},
		}
	}

	header := tokenize(lines[0])
	cols := map[string]int{}
	for i, h := range header {
		cols[h] = i
	}

	var missing []string
	for _, required := range []string{ColTransactionDate, ColEventDate, ColAmount} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, IngestStats{}, &SchemaError{Missing: missing, Header: header}
	}

	txDateIdx := cols[ColTransactionDate]
	eventDateIdx := cols[ColEventDate]
	amountIdx := cols[ColAmount]
	txIDIdx := optionalIndex(cols, ColTransactionID)
	eventIDIdx := optionalIndex(cols, ColEventID)
	eventNameIdx := optionalIndex(cols, ColEventName)
	mustShipIdx := optionalIndex(cols, ColMustShipBy)

	maxMandatory := max3(txDateIdx, eventDateIdx, amountIdx)

	leadTime := n.LeadTimeDays
	if leadTime <= 0 {
		leadTime = DefaultLeadTimeDays
	}
	cutoff := now.Add(time.Duration(leadTime) * 24 * time.Hour)

	set := &OrderSet{}
	stats := IngestStats{TotalAmount: decimal.Zero}

	for lineNo, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		record, ok := n.parseRow(line, rowSchema{
			txDateIdx:    txDateIdx,
			eventDateIdx: eventDateIdx,
			amountIdx:    amountIdx,
			txIDIdx:      txIDIdx,
			eventIDIdx:   eventIDIdx,
			eventNameIdx: eventNameIdx,
			mustShipIdx:  mustShipIdx,
			maxMandatory: maxMandatory,
		}, now, cutoff)

		outcome := RowSkipped
		if ok {
			outcome = RowLoaded
			set.Orders = append(set.Orders, record)
			stats.Loaded++
			stats.TotalAmount = stats.TotalAmount.Add(record.Amount)
			if stats.FirstOrder.IsZero() || record.OrderDate.Before(stats.FirstOrder) {
				stats.FirstOrder = record.OrderDate
			}
			if record.OrderDate.After(stats.LastOrder) {
				stats.LastOrder = record.OrderDate
			}
		} else {
			stats.Skipped++
		}
		if n.RowHook != nil {
			n.RowHook(RowResult{Line: lineNo + 2, Outcome: outcome})
		}
	}

	return set, stats, nil
}

type rowSchema struct {
	txDateIdx    int
	eventDateIdx int
	amountIdx    int
	txIDIdx      int
	eventIDIdx   int
	eventNameIdx int
	mustShipIdx  int
	maxMandatory int
}

// parseRow validates one data row. A false return means the row is skipped;
// it is never an error.
func (n Normalizer) parseRow(line string, schema rowSchema, now, cutoff time.Time) (OrderRecord, bool) {
	values := tokenize(line)
	if len(values) <= schema.maxMandatory {
		return OrderRecord{}, false
	}

	txSerial, err := strconv.ParseFloat(values[schema.txDateIdx], 64)
	if err != nil {
		return OrderRecord{}, false
	}
	eventSerial, err := strconv.ParseFloat(values[schema.eventDateIdx], 64)
	if err != nil {
		return OrderRecord{}, false
	}
	amount, err := decimal.NewFromString(values[schema.amountIdx])
	if err != nil || !amount.IsPositive() {
		return OrderRecord{}, false
	}

	txDate, ok := DateFromSerial(txSerial)
	if !ok {
		return OrderRecord{}, false
	}
	eventDate, ok := DateFromSerial(eventSerial)
	if !ok {
		return OrderRecord{}, false
	}

	// The transaction date drives selection unless it is already behind us,
	// in which case the event date is the only meaningful future anchor.
	orderDate := txDate
	if txDate.Before(now) {
		orderDate = eventDate
	}

	var mustShipBy *time.Time
	if v := optionalValue(values, schema.mustShipIdx); v != "" {
		if serial, err := strconv.ParseFloat(v, 64); err == nil {
			if d, ok := DateFromSerial(serial); ok {
				mustShipBy = &d
			}
		}
	}

	// Eligibility gate: both the event date and any must-ship-by date must
	// be at least the lead time into the future.
	if eventDate.Before(cutoff) {
		return OrderRecord{}, false
	}
	if mustShipBy != nil && mustShipBy.Before(cutoff) {
		return OrderRecord{}, false
	}

	record := OrderRecord{
		TransactionID:   stringOr(optionalValue(values, schema.txIDIdx), "N/A"),
		EventID:         stringOr(optionalValue(values, schema.eventIDIdx), "N/A"),
		EventName:       stringOr(optionalValue(values, schema.eventNameIdx), "Event"),
		Amount:          amount,
		TransactionDate: txDate,
		EventDate:       eventDate,
		OrderDate:       orderDate,
		MustShipBy:      mustShipBy,
	}
	return record, true
}

// tokenize splits a line on the delimiter and strips quoting and whitespace
// from each token.
func tokenize(line string) []string {
	parts := strings.Split(line, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return out
}

func optionalIndex(cols map[string]int, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}

func optionalValue(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
