/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the EarlyPay advance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load offer terms (defaults or JSON file)
  3. Initialize SQLite snapshot store
  4. Create session, handler, router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: ":memory:" - session scoped)
  -terms   Path to a terms JSON file (default: built-in terms)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with defaults
  ./server

  # Run with custom terms
  ./server -terms=./terms.json -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - factory/terms.go: Terms JSON schema
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earlypay/advance-engine/api"
	"github.com/earlypay/advance-engine/factory"
	"github.com/earlypay/advance-engine/orders"
	"github.com/earlypay/advance-engine/pricing"
	"github.com/earlypay/advance-engine/session"
	"github.com/earlypay/advance-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", ":memory:", "SQLite database path")
	termsPath := flag.String("terms", "", "Path to terms JSON file")
	flag.Parse()

	// Terms
	terms := pricing.DefaultTerms()
	leadTime := orders.DefaultLeadTimeDays
	if *termsPath != "" {
		raw, err := os.ReadFile(*termsPath)
		if err != nil {
			log.Fatalf("Failed to read terms file: %v", err)
		}
		terms, leadTime, err = factory.ParseTerms(string(raw))
		if err != nil {
			log.Fatalf("Failed to parse terms: %v", err)
		}
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Session + handler
	sess := session.New(terms,
		session.WithNormalizer(orders.Normalizer{LeadTimeDays: leadTime}))
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	handler := api.NewHandler(sess, store, api.NewMetrics(), logger)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Advance engine listening on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
