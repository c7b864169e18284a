/*
main.go - Offline advance quoting CLI

PURPOSE:
  Loads a transaction export from disk, applies an optional date range,
  and prints the full advance breakdown. Useful for checking a quote
  against a known export without running the server.

COMMAND-LINE FLAGS:
  -csv     Path to the export file (required)
  -from    Range start, YYYY-MM-DD (optional)
  -to      Range end, YYYY-MM-DD (optional)
  -now     Evaluation instant, RFC3339 (default: wall clock). Freezing
           this makes a quote reproducible.
  -terms   Path to a terms JSON file (default: built-in terms)

EXAMPLE:
  advancectl -csv Confirmations.csv -from 2025-03-01 -to 2025-04-15 \
             -now 2025-02-20T00:00:00Z
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/earlypay/advance-engine/factory"
	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/pricing"
	"github.com/earlypay/advance-engine/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	csvPath := flag.String("csv", "", "Path to the transaction export")
	fromStr := flag.String("from", "", "Range start (YYYY-MM-DD)")
	toStr := flag.String("to", "", "Range end (YYYY-MM-DD)")
	nowStr := flag.String("now", "", "Evaluation instant (RFC3339), default wall clock")
	termsPath := flag.String("terms", "", "Path to terms JSON file")
	flag.Parse()

	if *csvPath == "" {
		log.Fatalf("Usage: advancectl -csv export.csv [-from YYYY-MM-DD -to YYYY-MM-DD] [-now RFC3339]")
	}

	now := time.Now().UTC()
	if *nowStr != "" {
		parsed, err := time.Parse(time.RFC3339, *nowStr)
		if err != nil {
			log.Fatalf("invalid -now: %v", err)
		}
		now = parsed
	}

	terms := pricing.DefaultTerms()
	leadTime := orders.DefaultLeadTimeDays
	if *termsPath != "" {
		raw, err := os.ReadFile(*termsPath)
		if err != nil {
			log.Fatalf("read terms: %v", err)
		}
		terms, leadTime, err = factory.ParseTerms(string(raw))
		if err != nil {
			log.Fatalf("parse terms: %v", err)
		}
	}

	raw, err := os.ReadFile(*csvPath)
	if err != nil {
		log.Fatalf("read export: %v", err)
	}
	text := string(raw)

	// One bar tick per data row, fed by the normalizer's row hook.
	bar := progressbar.Default(int64(countDataRows(text)), "parsing")
	normalizer := orders.Normalizer{
		LeadTimeDays: leadTime,
		RowHook:      func(orders.RowResult) { bar.Add(1) },
	}

	sess := session.New(terms,
		session.WithClock(func() time.Time { return now }),
		session.WithNormalizer(normalizer))

	stats, err := sess.Ingest(text)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	bar.Finish()
	fmt.Println()

	fmt.Printf("Loaded %d orders (%d rows skipped), total $%s\n",
		stats.Loaded, stats.Skipped, stats.TotalAmount.StringFixed(2))
	if !stats.FirstOrder.IsZero() {
		fmt.Printf("Order dates %s to %s\n",
			stats.FirstOrder.Format("2006-01-02"), stats.LastOrder.Format("2006-01-02"))
	}

	if *fromStr != "" && *toStr != "" {
		from, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			log.Fatalf("invalid -from: %v", err)
		}
		to, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			log.Fatalf("invalid -to: %v", err)
		}
		sess.SetDateRange(from, to)
	}

	selected, b := sess.Breakdown()
	fmt.Printf("\nSelected orders:  %d\n", len(selected))
	fmt.Printf("Eligible amount:  $%s\n", b.EligibleAmount.StringFixed(2))
	fmt.Printf("Base fees:        $%s (%s%%)\n", b.BaseFees.StringFixed(2), b.FeePercent().StringFixed(1))
	fmt.Printf("Net eligible:     $%s\n", b.NetEligible.StringFixed(2))
	fmt.Printf("Tier 1 bonus:     $%s\n", b.Tier1Bonus.StringFixed(2))
	fmt.Printf("Tier 2 bonus:     $%s\n", b.Tier2Bonus.StringFixed(2))
	fmt.Printf("Advance amount:   $%s\n", b.AdvanceAmount.StringFixed(2))

	fmt.Println("\nMilestones:")
	for _, p := range sess.Milestones() {
		fmt.Printf("  %-6s %-16s %-12s %.0f%%\n",
			p.MilestoneID, p.Title, p.State, p.Fraction*100)
	}
}

// countDataRows counts non-blank lines after the header so the progress bar
// has a total before parsing starts.
func countDataRows(text string) int {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return 0
	}
	n := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
