/*
buckets.go - Daily and weekly bucket derivation

PURPOSE:
  Pure functions grouping an OrderSet into fixed-width time buckets.

  Daily buckets feed the chart: one bucket per calendar day across the full
  order date range, labeled with a short month name only on the first day
  of each month.

  Weekly buckets feed bar-based selection: contiguous 7-day spans anchored
  at the earliest order date. Each bucket carries its DaySpan, which the
  selection model filters through directly (see span.go for why the label
  is never parsed).

EDGE CASE:
  An empty order set yields a single placeholder bucket with value zero so
  the renderer has a "no data" state to draw. Placeholder buckets are
  flagged and must never reach the pricing engine.
*/
package selection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/earlypay/advance-engine/orders"
)

// =============================================================================
// DAILY BUCKETS - Chart view
// =============================================================================

// DailyBucket is one calendar day of order volume.
type DailyBucket struct {
	Day         time.Time
	Total       decimal.Decimal
	Label       string
	Placeholder bool
}

// DailyBuckets returns one bucket per day from the earliest to the latest
// order date, inclusive. Pure function of the order set.
func DailyBuckets(set *orders.OrderSet) []DailyBucket {
	earliest, latest, ok := set.DateBounds()
	if !ok {
		return []DailyBucket{{Label: "No Data", Total: decimal.Zero, Placeholder: true}}
	}

	totals := map[time.Time]decimal.Decimal{}
	for _, o := range set.Orders {
		day := dayOf(o.OrderDate)
		totals[day] = totals[day].Add(o.Amount)
	}

	var buckets []DailyBucket
	for day := dayOf(earliest); !day.After(dayOf(latest)); day = day.AddDate(0, 0, 1) {
		label := ""
		if day.Day() == 1 {
			label = day.Format("Jan")
		}
		total, ok := totals[day]
		if !ok {
			total = decimal.Zero
		}
		buckets = append(buckets, DailyBucket{Day: day, Total: total, Label: label})
	}
	return buckets
}

// =============================================================================
// WEEKLY BUCKETS - Selection view
// =============================================================================

// WeeklyBucket is one selectable 7-day span of order volume.
type WeeklyBucket struct {
	Index       int
	Span        DaySpan
	Total       decimal.Decimal
	Label       string
	Placeholder bool
}

// WeeklyBuckets returns contiguous 7-day spans starting at the earliest
// order date, covering through the latest. Pure function of the order set.
func WeeklyBuckets(set *orders.OrderSet) []WeeklyBucket {
	earliest, latest, ok := set.DateBounds()
	if !ok {
		return []WeeklyBucket{{Label: "No Data", Total: decimal.Zero, Placeholder: true}}
	}

	var buckets []WeeklyBucket
	index := 0
	for start := dayOf(earliest); !start.After(dayOf(latest)); start = start.AddDate(0, 0, 7) {
		span := DaySpan{Start: start, End: start.AddDate(0, 0, 6)}
		total := decimal.Zero
		for _, o := range set.Orders {
			if span.Contains(o.OrderDate) {
				total = total.Add(o.Amount)
			}
		}
		buckets = append(buckets, WeeklyBucket{
			Index: index,
			Span:  span,
			Total: total,
			Label: span.Label(),
		})
		index++
	}
	return buckets
}
