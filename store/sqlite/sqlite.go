/*
Package sqlite provides the SQLite-backed order snapshot store.

PURPOSE:
  Backs the paginated "selected orders" table. On every successful ingest
  the current snapshot's orders are written wholesale; listing queries push
  the active selection's day spans and the page window into SQL instead of
  slicing a giant slice in the handler.

SESSION SCOPE:
  The engine keeps no state beyond the session, so the default database is
  ":memory:"; a file path is accepted for local debugging only.

REPLACE-ONLY SEMANTICS:
  Snapshots are installed with delete-then-insert inside one transaction.
  There is no row-level mutation: the snapshot either swaps completely or
  not at all, mirroring the copy-on-replace discipline of the in-memory
  OrderSet.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

USAGE:
  store, err := sqlite.New(":memory:")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - api/handlers.go: The only consumer
  - session: Source of the snapshots written here
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/selection"
)

// Store holds order snapshots in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// memoryStoreSeq distinguishes the shared-cache names of concurrently open
// in-memory stores.
var memoryStoreSeq atomic.Int64

// New creates a store at the given database path. Use ":memory:" for the
// session-scoped default.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL"
	memory := dbPath == ":memory:"
	if memory {
		// A plain :memory: DSN gives every pooled connection its own empty
		// database, so the migrated schema and the installed snapshot would
		// only exist on whichever connection ran them. A named shared-cache
		// database makes every connection see the same store; the name is
		// unique per Store so separate stores stay isolated.
		dsn = fmt.Sprintf("file:advance_engine_%d?mode=memory&cache=shared",
			memoryStoreSeq.Add(1))
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Shared-cache connections contend on a single page cache; one
		// connection avoids SQLITE_LOCKED without changing behavior, and it
		// keeps the database alive for the lifetime of the store.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS order_snapshots (
		snapshot_id TEXT PRIMARY KEY,
		loaded_at   TEXT NOT NULL,
		order_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_orders (
		snapshot_id      TEXT NOT NULL,
		seq              INTEGER NOT NULL,
		transaction_id   TEXT NOT NULL,
		event_id         TEXT NOT NULL,
		event_name       TEXT NOT NULL,
		amount           TEXT NOT NULL,
		transaction_date TEXT NOT NULL,
		event_date       TEXT NOT NULL,
		order_date       TEXT NOT NULL,
		must_ship_by     TEXT,
		PRIMARY KEY (snapshot_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshot_orders_date
		ON snapshot_orders(snapshot_id, order_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT INSTALL
// =============================================================================

// ReplaceSnapshot installs the orders of a new ingestion, dropping every
// prior snapshot. All-or-nothing.
func (s *Store) ReplaceSnapshot(ctx context.Context, snapshotID string, recs []orders.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot install: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_orders`); err != nil {
		return fmt.Errorf("clear prior snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_snapshots`); err != nil {
		return fmt.Errorf("clear prior snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_snapshots (snapshot_id, loaded_at, order_count) VALUES (?, ?, ?)`,
		snapshotID, time.Now().UTC().Format(time.RFC3339), len(recs),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_orders
			(snapshot_id, seq, transaction_id, event_id, event_name,
			 amount, transaction_date, event_date, order_date, must_ship_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range recs {
		var mustShipBy interface{}
		if r.MustShipBy != nil {
			mustShipBy = r.MustShipBy.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx,
			snapshotID, i, r.TransactionID, r.EventID, r.EventName,
			r.Amount.String(),
			r.TransactionDate.UTC().Format(time.RFC3339),
			r.EventDate.UTC().Format(time.RFC3339),
			r.OrderDate.UTC().Format(time.RFC3339),
			mustShipBy,
		); err != nil {
			return fmt.Errorf("insert order %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// LISTING
// =============================================================================

// OrderQuery selects a page of a snapshot, optionally filtered to the
// active selection's day spans.
type OrderQuery struct {
	SnapshotID string
	Spans      []selection.DaySpan
	Limit      int
	Offset     int
}

// OrderPage is one page plus the total matching count for pagination.
type OrderPage struct {
	Orders []orders.OrderRecord
	Total  int
}

// ListOrders returns a page of orders in ingest order. Span filters are
// pushed into SQL; RFC3339 UTC strings compare lexically, so BETWEEN works
// on the stored text.
func (s *Store) ListOrders(ctx context.Context, q OrderQuery) (OrderPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildFilter(q)

	var total int
	countQuery := `SELECT COUNT(*) FROM snapshot_orders ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	listQuery := `
		SELECT transaction_id, event_id, event_name, amount,
		       transaction_date, event_date, order_date, must_ship_by
		FROM snapshot_orders ` + where + `
		ORDER BY seq LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, limit, q.Offset)...)
	if err != nil {
		return OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	page := OrderPage{Total: total}
	for rows.Next() {
		var (
			rec                        orders.OrderRecord
			amount, txDate, eventDate  string
			orderDate                  string
			mustShipBy                 sql.NullString
		)
		if err := rows.Scan(&rec.TransactionID, &rec.EventID, &rec.EventName,
			&amount, &txDate, &eventDate, &orderDate, &mustShipBy); err != nil {
			return OrderPage{}, fmt.Errorf("scan order: %w", err)
		}

		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return OrderPage{}, fmt.Errorf("decode amount: %w", err)
		}
		if rec.TransactionDate, err = time.Parse(time.RFC3339, txDate); err != nil {
			return OrderPage{}, fmt.Errorf("decode transaction_date: %w", err)
		}
		if rec.EventDate, err = time.Parse(time.RFC3339, eventDate); err != nil {
			return OrderPage{}, fmt.Errorf("decode event_date: %w", err)
		}
		if rec.OrderDate, err = time.Parse(time.RFC3339, orderDate); err != nil {
			return OrderPage{}, fmt.Errorf("decode order_date: %w", err)
		}
		if mustShipBy.Valid {
			t, err := time.Parse(time.RFC3339, mustShipBy.String)
			if err != nil {
				return OrderPage{}, fmt.Errorf("decode must_ship_by: %w", err)
			}
			rec.MustShipBy = &t
		}
		page.Orders = append(page.Orders, rec)
	}
	return page, rows.Err()
}

func buildFilter(q OrderQuery) (string, []interface{}) {
	clauses := []string{"snapshot_id = ?"}
	args := []interface{}{q.SnapshotID}

	if len(q.Spans) > 0 {
		var spanClauses []string
		for _, span := range q.Spans {
			spanClauses = append(spanClauses, "(order_date >= ? AND order_date < ?)")
			args = append(args,
				span.Start.UTC().Format(time.RFC3339),
				span.End.AddDate(0, 0, 1).UTC().Format(time.RFC3339))
		}
		clauses = append(clauses, "("+strings.Join(spanClauses, " OR ")+")")
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}
