/*
Package sqlite provides a SQLite-backed implementation of the storage layer.

PURPOSE:
  Persists groups, their member rosters, their shared items, and the
  valuation history the scheduler produces. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

WHAT IS STORED vs COMPUTED:
  Only inputs are stored. Balances, usage and buy-ins are derived by the
  proration engine from the members/items snapshot and are never written
  back - with one deliberate exception: valuation_runs keeps point-in-time
  statement snapshots for history endpoints, clearly marked as derived.

KEY TABLES:
  groups:          Group headers (name, currency)
  members:         Membership spells (join/leave dates) per group
  items:           Shared items with price and depreciation schedule
  valuation_runs:  Scheduled revaluation snapshots (derived, append-ish)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  group, err := store.LoadGroup(ctx, "flat-7")

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - assets/types.go: the domain Group assembled by LoadGroup
  - api/handlers.go: the HTTP layer driving this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
)

// Store implements the storage layer using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Groups
	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Membership spells. A person who leaves and rejoins gets a second row.
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT,
		join_date TEXT NOT NULL,
		leave_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_members_group
		ON members(group_id);

	-- For roster-on-a-day queries
	CREATE INDEX IF NOT EXISTS idx_members_group_dates
		ON members(group_id, join_date, leave_date);

	-- Shared items
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		purchase_date TEXT NOT NULL,
		depreciation_days INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_group
		ON items(group_id);

	-- Valuation history (derived data, one row per group per as-of day)
	CREATE TABLE IF NOT EXISTS valuation_runs (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		as_of TEXT NOT NULL,
		total_purchased TEXT NOT NULL,
		total_residual TEXT NOT NULL,
		statement_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(group_id, as_of)
	);

	CREATE INDEX IF NOT EXISTS idx_valuation_runs_group
		ON valuation_runs(group_id, as_of DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// GroupRecord is a stored group header.
type GroupRecord struct {
	ID        string
	Name      string
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberRecord is one stored membership spell.
type MemberRecord struct {
	ID        string
	GroupID   string
	Name      string
	Email     string
	JoinDate  proration.Date
	LeaveDate *proration.Date
	CreatedAt time.Time
}

// ItemRecord is one stored shared item.
type ItemRecord struct {
	ID               string
	GroupID          string
	Name             string
	Price            proration.Money
	PurchaseDate     proration.Date
	DepreciationDays int
	CreatedAt        time.Time
}

// ValuationRun is one stored revaluation snapshot.
type ValuationRun struct {
	ID             string
	GroupID        string
	AsOf           proration.Date
	TotalPurchased proration.Money
	TotalResidual  proration.Money
	StatementJSON  string
	CreatedAt      time.Time
}

// =============================================================================
// GROUP STORE
// =============================================================================

// SaveGroup inserts or updates a group header.
func (s *Store) SaveGroup(ctx context.Context, g GroupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveGroupTx(ctx, s.db, g)
}

func (s *Store) saveGroupTx(ctx context.Context, db execer, g GroupRecord) error {
	query := `
		INSERT INTO groups (id, name, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	currency := g.Currency
	if currency == "" {
		currency = "USD"
	}
	_, err := db.ExecContext(ctx, query, g.ID, g.Name, currency, now, now)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group header by ID. Returns nil when not found.
func (s *Store) GetGroup(ctx context.Context, id string) (*GroupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var g GroupRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, created_at, updated_at FROM groups WHERE id = ?",
		id,
	).Scan(&g.ID, &g.Name, &g.Currency, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	g.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &g, nil
}

// ListGroups returns all group headers.
func (s *Store) ListGroups(ctx context.Context) ([]GroupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, currency, created_at, updated_at FROM groups ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []GroupRecord
	for rows.Next() {
		var g GroupRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&g.ID, &g.Name, &g.Currency, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		g.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group. Members, items and valuation history go
// with it via ON DELETE CASCADE.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	return err
}

// =============================================================================
// MEMBER STORE
// =============================================================================

// SaveMember inserts or updates a membership spell.
func (s *Store) SaveMember(ctx context.Context, m MemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveMemberTx(ctx, s.db, m)
}

func (s *Store) saveMemberTx(ctx context.Context, db execer, m MemberRecord) error {
	query := `
		INSERT INTO members (id, group_id, name, email, join_date, leave_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			join_date = excluded.join_date,
			leave_date = excluded.leave_date
	`

	var leave *string
	if m.LeaveDate != nil {
		v := m.LeaveDate.String()
		leave = &v
	}

	_, err := db.ExecContext(ctx, query,
		m.ID, m.GroupID, m.Name, m.Email,
		m.JoinDate.String(), leave,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// GetMember retrieves a membership spell by ID. Returns nil when not found.
func (s *Store) GetMember(ctx context.Context, id string) (*MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, email, join_date, leave_date, created_at
		 FROM members WHERE id = ?`, id)

	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns a group's membership spells in join order.
func (s *Store) ListMembers(ctx context.Context, groupID string) ([]MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, name, email, join_date, leave_date, created_at
		 FROM members WHERE group_id = ?
		 ORDER BY join_date ASC, id ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []MemberRecord
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// DeleteMember removes a membership spell.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (MemberRecord, error) {
	var (
		m         MemberRecord
		email     sql.NullString
		joinDate  string
		leaveDate sql.NullString
		createdAt string
	)

	err := row.Scan(&m.ID, &m.GroupID, &m.Name, &email, &joinDate, &leaveDate, &createdAt)
	if err != nil {
		return m, err
	}

	m.Email = email.String
	m.JoinDate, err = proration.ParseDate(joinDate)
	if err != nil {
		return m, fmt.Errorf("failed to scan member %s: %w", m.ID, err)
	}
	if leaveDate.Valid {
		d, err := proration.ParseDate(leaveDate.String)
		if err != nil {
			return m, fmt.Errorf("failed to scan member %s: %w", m.ID, err)
		}
		m.LeaveDate = &d
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return m, nil
}

// =============================================================================
// ITEM STORE
// =============================================================================

// SaveItem inserts or updates a shared item.
func (s *Store) SaveItem(ctx context.Context, it ItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveItemTx(ctx, s.db, it)
}

func (s *Store) saveItemTx(ctx context.Context, db execer, it ItemRecord) error {
	query := `
		INSERT INTO items (id, group_id, name, price, purchase_date, depreciation_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			purchase_date = excluded.purchase_date,
			depreciation_days = excluded.depreciation_days
	`

	_, err := db.ExecContext(ctx, query,
		it.ID, it.GroupID, it.Name,
		it.Price.Value.String(),
		it.PurchaseDate.String(),
		it.DepreciationDays,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID. Returns nil when not found.
func (s *Store) GetItem(ctx context.Context, id string) (*ItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, price, purchase_date, depreciation_days, created_at
		 FROM items WHERE id = ?`, id)

	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListItems returns a group's items in purchase order.
func (s *Store) ListItems(ctx context.Context, groupID string) ([]ItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, name, price, purchase_date, depreciation_days, created_at
		 FROM items WHERE group_id = ?
		 ORDER BY purchase_date ASC, id ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	return err
}

func scanItem(row rowScanner) (ItemRecord, error) {
	var (
		it           ItemRecord
		price        string
		purchaseDate string
		createdAt    string
	)

	err := row.Scan(&it.ID, &it.GroupID, &it.Name, &price, &purchaseDate, &it.DepreciationDays, &createdAt)
	if err != nil {
		return it, err
	}

	it.Price = proration.MustParseMoney(price)
	it.PurchaseDate, err = proration.ParseDate(purchaseDate)
	if err != nil {
		return it, fmt.Errorf("failed to scan item %s: %w", it.ID, err)
	}
	it.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return it, nil
}

// =============================================================================
// DOMAIN ASSEMBLY
// =============================================================================

// LoadGroup assembles the full domain Group for the given id.
// Returns nil when the group does not exist.
func (s *Store) LoadGroup(ctx context.Context, id string) (*assets.Group, error) {
	rec, err := s.GetGroup(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}

	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}

	g := &assets.Group{
		ID:       assets.GroupID(rec.ID),
		Name:     rec.Name,
		Currency: rec.Currency,
	}
	for _, m := range members {
		g.Members = append(g.Members, proration.Member{
			ID:        proration.MemberID(m.ID),
			Name:      m.Name,
			Email:     m.Email,
			JoinDate:  m.JoinDate,
			LeaveDate: m.LeaveDate,
		})
	}
	for _, it := range items {
		g.Items = append(g.Items, proration.Item{
			ID:               proration.ItemID(it.ID),
			Name:             it.Name,
			Price:            it.Price,
			PurchaseDate:     it.PurchaseDate,
			DepreciationDays: it.DepreciationDays,
		})
	}
	return g, nil
}

// ReplaceGroup writes a full group document atomically: the header is
// upserted and the roster/items are replaced wholesale. Used by document
// import and scenario loading.
func (s *Store) ReplaceGroup(ctx context.Context, g assets.Group) error {
	return s.WithTx(ctx, func(w Writer) error {
		if err := w.SaveGroup(ctx, GroupRecord{
			ID:       string(g.ID),
			Name:     g.Name,
			Currency: g.Currency,
		}); err != nil {
			return err
		}
		if err := w.ClearMembers(ctx, string(g.ID)); err != nil {
			return err
		}
		if err := w.ClearItems(ctx, string(g.ID)); err != nil {
			return err
		}
		for _, m := range g.Members {
			if err := w.SaveMember(ctx, MemberRecord{
				ID:        string(m.ID),
				GroupID:   string(g.ID),
				Name:      m.Name,
				Email:     m.Email,
				JoinDate:  m.JoinDate,
				LeaveDate: m.LeaveDate,
			}); err != nil {
				return err
			}
		}
		for _, it := range g.Items {
			if err := w.SaveItem(ctx, ItemRecord{
				ID:               string(it.ID),
				GroupID:          string(g.ID),
				Name:             it.Name,
				Price:            it.Price,
				PurchaseDate:     it.PurchaseDate,
				DepreciationDays: it.DepreciationDays,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// TRANSACTIONAL WRITES
// =============================================================================

// Writer is the mutating subset available inside WithTx.
type Writer interface {
	SaveGroup(ctx context.Context, g GroupRecord) error
	SaveMember(ctx context.Context, m MemberRecord) error
	SaveItem(ctx context.Context, it ItemRecord) error
	ClearMembers(ctx context.Context, groupID string) error
	ClearItems(ctx context.Context, groupID string) error
}

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(w Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tw := &txWriter{tx: sqlTx, parent: s}
	if err := fn(tw); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txWriter struct {
	tx     *sql.Tx
	parent *Store
}

func (tw *txWriter) SaveGroup(ctx context.Context, g GroupRecord) error {
	return tw.parent.saveGroupTx(ctx, tw.tx, g)
}

func (tw *txWriter) SaveMember(ctx context.Context, m MemberRecord) error {
	return tw.parent.saveMemberTx(ctx, tw.tx, m)
}

func (tw *txWriter) SaveItem(ctx context.Context, it ItemRecord) error {
	return tw.parent.saveItemTx(ctx, tw.tx, it)
}

func (tw *txWriter) ClearMembers(ctx context.Context, groupID string) error {
	_, err := tw.tx.ExecContext(ctx, "DELETE FROM members WHERE group_id = ?", groupID)
	return err
}

func (tw *txWriter) ClearItems(ctx context.Context, groupID string) error {
	_, err := tw.tx.ExecContext(ctx, "DELETE FROM items WHERE group_id = ?", groupID)
	return err
}

// =============================================================================
// VALUATION RUNS
// =============================================================================

// SaveValuationRun saves a revaluation snapshot. A rerun for the same
// group and as-of day overwrites the previous snapshot.
func (s *Store) SaveValuationRun(ctx context.Context, run ValuationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO valuation_runs
		(id, group_id, as_of, total_purchased, total_residual, statement_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id, as_of) DO UPDATE SET
			total_purchased = excluded.total_purchased,
			total_residual = excluded.total_residual,
			statement_json = excluded.statement_json,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.GroupID,
		run.AsOf.String(),
		run.TotalPurchased.Value.String(),
		run.TotalResidual.Value.String(),
		run.StatementJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save valuation run: %w", err)
	}
	return nil
}

// ListValuationRuns returns a group's valuation history, newest first.
func (s *Store) ListValuationRuns(ctx context.Context, groupID string, limit int) ([]ValuationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, as_of, total_purchased, total_residual, statement_json, created_at
		 FROM valuation_runs WHERE group_id = ?
		 ORDER BY as_of DESC
		 LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ValuationRun
	for rows.Next() {
		var (
			r         ValuationRun
			asOf      string
			purchased string
			residual  string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.GroupID, &asOf, &purchased, &residual, &r.StatementJSON, &createdAt); err != nil {
			return nil, err
		}
		r.AsOf, err = proration.ParseDate(asOf)
		if err != nil {
			return nil, fmt.Errorf("failed to scan valuation run %s: %w", r.ID, err)
		}
		r.TotalPurchased = proration.MustParseMoney(purchased)
		r.TotalResidual = proration.MustParseMoney(residual)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// HasValuationRun checks whether a snapshot already exists for the day.
func (s *Store) HasValuationRun(ctx context.Context, groupID string, asOf proration.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM valuation_runs WHERE group_id = ? AND as_of = ?",
		groupID, asOf.String(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"valuation_runs", "members", "items", "groups"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
