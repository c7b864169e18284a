/*
handlers.go - HTTP handlers for the advance engine

PURPOSE:
  Exposes the receivables selection and advance-pricing engine via REST.
  Handles HTTP request/response and JSON serialization, delegating every
  calculation to the session.

ENDPOINTS:
  Ingestion:
    POST   /api/ingest                      Load a transaction export (CSV body)

  Selection:
    POST   /api/selection/range             Set the date range
    POST   /api/selection/buckets/{index}/toggle
    DELETE /api/selection                   Back to include-all

  Derived views:
    GET    /api/advance                     Breakdown + per-order fees
    GET    /api/offer                       Offer summary
    GET    /api/buckets/daily               Chart buckets
    GET    /api/buckets/weekly              Selection buckets
    GET    /api/milestones                  Progress per threshold
    GET    /api/celebrations                Drain pending celebrations
    GET    /api/orders                      Paginated selected orders

ERROR HANDLING:
  A SchemaError on ingest keeps the prior snapshot usable and returns 422.
  Everything else in the engine degrades to an empty/default result by
  design, so handlers rarely have anything to fail with beyond bad input
  (400) and storage faults (500).

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/selection"
	"github.com/earlypay/advance-engine/session"
	"github.com/earlypay/advance-engine/store/sqlite"
)

// maxExportBytes bounds the ingest body; confirmations exports run a few
// MB at most.
const maxExportBytes = 64 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Session *session.Session
	Store   *sqlite.Store
	Metrics *Metrics
	Log     *slog.Logger
}

// NewHandler creates a handler around an engine session and snapshot store.
func NewHandler(sess *session.Session, store *sqlite.Store, metrics *Metrics, log *slog.Logger) *Handler {
	return &Handler{Session: sess, Store: store, Metrics: metrics, Log: log}
}

// =============================================================================
// INGESTION
// =============================================================================

// Ingest loads a transaction export from the request body.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxExportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read export body", err)
		return
	}

	// The store write runs as the install hook so a storage fault keeps the
	// session on its prior snapshot instead of diverging from the store.
	stats, err := h.Session.IngestWith(string(body), func(snapshotID string, recs []orders.OrderRecord) error {
		return h.Store.ReplaceSnapshot(r.Context(), snapshotID, recs)
	})
	if err != nil {
		var schemaErr *orders.SchemaError
		if errors.As(err, &schemaErr) {
			writeError(w, http.StatusUnprocessableEntity, "Export schema invalid", schemaErr)
			return
		}
		writeError(w, http.StatusInternalServerError, "Ingest failed", err)
		return
	}

	h.Metrics.IngestRows.WithLabelValues("loaded").Add(float64(stats.Loaded))
	h.Metrics.IngestRows.WithLabelValues("skipped").Add(float64(stats.Skipped))
	h.Log.Info("export ingested",
		"snapshot", h.Session.SnapshotID(),
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
		"total", stats.TotalAmount.String())

	dto := IngestResultDTO{
		SnapshotID:  h.Session.SnapshotID(),
		Loaded:      stats.Loaded,
		Skipped:     stats.Skipped,
		TotalAmount: stats.TotalAmount.String(),
	}
	if !stats.FirstOrder.IsZero() {
		dto.FirstOrder = stats.FirstOrder.Format("2006-01-02")
		dto.LastOrder = stats.LastOrder.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// SELECTION
// =============================================================================

// SetRange sets the active date range, by ISO dates or slider offsets.
func (h *Handler) SetRange(w http.ResponseWriter, r *http.Request) {
	var req SetRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.FromOffset != nil && req.ToOffset != nil {
		base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		if req.BaseDate != "" {
			parsed, err := time.Parse("2006-01-02", req.BaseDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid base_date (use YYYY-MM-DD)", err)
				return
			}
			base = parsed
		}
		h.Session.SetRangeByOffsets(base, *req.FromOffset, *req.ToOffset)
	} else {
		// Unparsable bounds become zero times; the selection model then
		// degrades to include-all rather than erroring.
		start, _ := time.Parse("2006-01-02", req.Start)
		end, _ := time.Parse("2006-01-02", req.End)
		h.Session.SetDateRange(start, end)
	}

	h.writeBreakdown(w)
}

// ToggleBucket flips one weekly bucket in the selection.
func (h *Handler) ToggleBucket(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid bucket index", err)
		return
	}
	h.Session.ToggleBucket(index)
	h.writeBreakdown(w)
}

// ClearSelection drops both selection modes.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.Session.ClearSelection()
	h.writeBreakdown(w)
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// GetAdvance returns the breakdown for the current selection.
func (h *Handler) GetAdvance(w http.ResponseWriter, r *http.Request) {
	h.writeBreakdown(w)
}

func (h *Handler) writeBreakdown(w http.ResponseWriter) {
	start := time.Now()
	_, b := h.Session.Breakdown()
	h.Metrics.Recompute.Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, toBreakdownDTO(b))
}

// GetOffer returns the offer-page summary.
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	_, b := h.Session.Breakdown()
	writeJSON(w, http.StatusOK, OfferDTO{
		EligibleAmount: b.EligibleAmount.String(),
		TotalFees:      b.BaseFees.String(),
		FeePercent:     b.FeePercent().StringFixed(1),
		AdvanceAmount:  b.AdvanceAmount.String(),
		OrderCount:     len(b.OrderFees),
	})
}

// GetDailyBuckets returns the chart buckets.
func (h *Handler) GetDailyBuckets(w http.ResponseWriter, r *http.Request) {
	buckets := h.Session.DailyBuckets()
	dtos := make([]DailyBucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = DailyBucketDTO{
			Total:       b.Total.String(),
			Label:       b.Label,
			Placeholder: b.Placeholder,
		}
		if !b.Placeholder {
			dtos[i].Day = b.Day.Format("2006-01-02")
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWeeklyBuckets returns the selectable weekly buckets.
func (h *Handler) GetWeeklyBuckets(w http.ResponseWriter, r *http.Request) {
	buckets := h.Session.WeeklyBuckets()
	selected := map[int]bool{}
	for _, i := range h.Session.SelectedBuckets() {
		selected[i] = true
	}
	dtos := make([]WeeklyBucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = toWeeklyBucketDTO(b, selected[b.Index])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMilestones returns progress per threshold.
func (h *Handler) GetMilestones(w http.ResponseWriter, r *http.Request) {
	progress := h.Session.Milestones()
	dtos := make([]MilestoneDTO, len(progress))
	for i, p := range progress {
		dtos[i] = MilestoneDTO{
			ID:        p.MilestoneID,
			Title:     p.Title,
			Threshold: p.Threshold.String(),
			State:     string(p.State),
			Fraction:  p.Fraction,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DrainCelebrations returns pending celebration events, at most once each.
func (h *Handler) DrainCelebrations(w http.ResponseWriter, r *http.Request) {
	fired := h.Session.DrainCelebrations()
	h.Metrics.Celebrations.Add(float64(len(fired)))
	dtos := make([]CelebrationDTO, len(fired))
	for i, c := range fired {
		dtos[i] = CelebrationDTO{
			EventID:     c.EventID,
			MilestoneID: c.MilestoneID,
			Title:       c.Title,
			FiredAt:     c.FiredAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ORDERS TABLE
// =============================================================================

const defaultPerPage = 100

// ListOrders serves the paginated orders table for the active selection.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := atoiDefault(r.URL.Query().Get("page"), 1)
	perPage := atoiDefault(r.URL.Query().Get("per_page"), defaultPerPage)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 1000 {
		perPage = defaultPerPage
	}

	var spans []selection.DaySpan
	if active, ok := h.Session.ActiveSpans(); ok {
		spans = active
	}

	result, err := h.Store.ListOrders(r.Context(), sqlite.OrderQuery{
		SnapshotID: h.Session.SnapshotID(),
		Spans:      spans,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(result.Orders))
	for i, o := range result.Orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, OrdersPageDTO{
		Orders:  dtos,
		Total:   result.Total,
		Page:    page,
		PerPage: perPage,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
