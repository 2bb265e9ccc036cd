/*
scheduler.go - Automated valuation scheduler

PURPOSE:
  Periodically records a valuation run per group per day so the ledger
  carries a residual-value history without anyone calling the valuation
  endpoint by hand.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips groups that already have a run for today
  - Stores the full statement JSON with each run for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewValuationScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunValuation endpoint (manual valuation)
  - store/sqlite/sqlite.go: Valuation run persistence
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/asset-ledger/proration"
	"github.com/warp/asset-ledger/store/sqlite"
)

// ValuationScheduler records daily valuation runs for every group.
type ValuationScheduler struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewValuationScheduler creates a new scheduler.
func NewValuationScheduler(store *sqlite.Store) *ValuationScheduler {
	return &ValuationScheduler{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (vs *ValuationScheduler) Start() {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if !vs.Enabled {
		slog.Info("valuation scheduler disabled, not starting")
		return
	}

	vs.ticker = time.NewTicker(vs.CheckInterval)
	vs.wg.Add(1)

	go vs.run()

	slog.Info("valuation scheduler started", "interval", vs.CheckInterval)
}

// Stop stops the scheduler.
func (vs *ValuationScheduler) Stop() {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.ticker != nil {
		vs.ticker.Stop()
		close(vs.stop)
		vs.wg.Wait()
		slog.Info("valuation scheduler stopped")
	}
}

func (vs *ValuationScheduler) run() {
	defer vs.wg.Done()

	// Run immediately on start
	vs.checkAndRecord()

	for {
		select {
		case <-vs.ticker.C:
			vs.checkAndRecord()
		case <-vs.stop:
			return
		}
	}
}

func (vs *ValuationScheduler) checkAndRecord() {
	ctx := context.Background()
	today := proration.Today()

	groups, err := vs.Store.ListGroups(ctx)
	if err != nil {
		slog.Error("valuation check failed to list groups", "error", err)
		return
	}

	recorded := 0
	skipped := 0

	for _, g := range groups {
		done, err := vs.Store.HasValuationRun(ctx, g.ID, today)
		if err != nil {
			slog.Error("valuation check failed", "group", g.ID, "error", err)
			continue
		}
		if done {
			skipped++
			continue
		}

		if err := vs.recordGroup(ctx, g.ID, today); err != nil {
			slog.Error("valuation run failed", "group", g.ID, "error", err)
			continue
		}
		recorded++
	}

	if recorded > 0 || skipped > 0 {
		slog.Info("valuation check completed", "recorded", recorded, "skipped", skipped)
	}
}

// recordGroup computes today's statement for one group and persists it.
func (vs *ValuationScheduler) recordGroup(ctx context.Context, groupID string, asOf proration.Date) error {
	group, err := vs.Store.LoadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return nil // deleted between list and load
	}

	calc, err := group.Calculator()
	if err != nil {
		return fmt.Errorf("stored group failed validation: %w", err)
	}

	stmt := calc.Statement(asOf)
	payload, err := json.Marshal(toGroupStatementDTO(string(group.ID), group.Currency, stmt, true))
	if err != nil {
		return err
	}

	return vs.Store.SaveValuationRun(ctx, sqlite.ValuationRun{
		ID:             uuid.NewString(),
		GroupID:        groupID,
		AsOf:           stmt.AsOf,
		TotalPurchased: stmt.TotalPurchased,
		TotalResidual:  stmt.TotalResidual,
		StatementJSON:  string(payload),
	})
}

// RunNow triggers an immediate check (for testing/admin).
func (vs *ValuationScheduler) RunNow() {
	vs.checkAndRecord()
}

// NextRunTime returns when the next scheduled check will occur.
func (vs *ValuationScheduler) NextRunTime() time.Time {
	return time.Now().Add(vs.CheckInterval)
}
