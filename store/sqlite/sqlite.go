/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every inventory persistence interface (CatalogStore, UserStore,
  LedgerStore, TransferStore, AssignmentStore, AuditRecorder) on SQLite via
  sqlx. The same patterns apply to PostgreSQL - only dialect differences.

APPEND-ONLY ENFORCEMENT:
  Purchases, expenditures, and audit entries are insert-only: no UPDATE or
  DELETE statements exist for those tables. Corrections are new events.

TRANSACTION BOUNDARIES:
  Every mutating operation that carries an audit entry commits the entry
  and the state change in one sql.Tx. If the audit insert fails, the whole
  transaction rolls back - the mutation never lands without its trail.

CAS TRANSITIONS:
  Transfer transitions are a single UPDATE guarded by the expected status
  and version; zero rows affected on an existing row means a concurrent
  transition won, surfaced as ErrConflict.

FILTERS:
  Each filter dimension contributes one AND-joined condition via the
  whereBuilder - mirroring the predicate composition in inventory/filter.go
  so SQL and in-memory stores resolve identical sets.

WAL MODE:
  Opened with WAL so aggregation reads never block writers.

USAGE:
  store, err := sqlite.New("./data/assets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

const timeLayout = time.RFC3339

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
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
	CREATE TABLE IF NOT EXISTS bases (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS asset_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		serial_number TEXT NOT NULL UNIQUE,
		asset_type_id TEXT NOT NULL REFERENCES asset_types(id),
		base_id TEXT NOT NULL REFERENCES bases(id),
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		purchase_date TEXT NOT NULL,
		purchase_price TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_base ON assets(base_id);
	CREATE INDEX IF NOT EXISTS idx_assets_type ON assets(asset_type_id);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		base_id TEXT REFERENCES bases(id),
		created_at TEXT NOT NULL
	);

	-- Acquisition events (append-only)
	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		asset_type_id TEXT NOT NULL REFERENCES asset_types(id),
		base_id TEXT NOT NULL REFERENCES bases(id),
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		supplier TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_base_date ON purchases(base_id, date);
	CREATE INDEX IF NOT EXISTS idx_purchases_type ON purchases(asset_type_id);

	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		from_base_id TEXT NOT NULL REFERENCES bases(id),
		to_base_id TEXT NOT NULL REFERENCES bases(id),
		date TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		decided_by TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_from_base ON transfers(from_base_id, date);
	CREATE INDEX IF NOT EXISTS idx_transfers_to_base ON transfers(to_base_id, date);
	CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		assigned_to TEXT NOT NULL REFERENCES users(id),
		assigned_by TEXT NOT NULL REFERENCES users(id),
		assigned_date TEXT NOT NULL,
		return_date TEXT,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_asset ON assignments(asset_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status);

	-- Consumption events (append-only)
	CREATE TABLE IF NOT EXISTS expenditures (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		base_id TEXT NOT NULL REFERENCES bases(id),
		quantity INTEGER NOT NULL,
		reason TEXT NOT NULL,
		date TEXT NOT NULL,
		approved_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenditures_base_date ON expenditures(base_id, date);

	-- Audit trail (append-only: no UPDATE, no DELETE, ever)
	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		actor_id TEXT NOT NULL,
		actor_base_id TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_logs(entity_type, entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_actor_base ON audit_logs(actor_base_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WHERE BUILDER - One condition per set filter dimension
// =============================================================================

type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) add(clause string, args ...any) {
	b.clauses = append(b.clauses, clause)
	b.args = append(b.args, args...)
}

func (b *whereBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) CreateBase(ctx context.Context, b inventory.Base) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bases (id, name, location, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Location, b.Description, now())
	if err != nil {
		return fmt.Errorf("failed to create base: %w", err)
	}
	return nil
}

func (s *Store) GetBase(ctx context.Context, id inventory.BaseID) (*inventory.Base, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var row baseRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM bases WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get base: %w", err)
	}
	b := row.toBase()
	return &b, nil
}

func (s *Store) ListBases(ctx context.Context) ([]inventory.Base, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []baseRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM bases ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list bases: %w", err)
	}
	out := make([]inventory.Base, len(rows))
	for i, r := range rows {
		out[i] = r.toBase()
	}
	return out, nil
}

func (s *Store) CreateAssetType(ctx context.Context, at inventory.AssetType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asset_types (id, name, category, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		at.ID, at.Name, at.Category, at.Description, now())
	if err != nil {
		return fmt.Errorf("failed to create asset type: %w", err)
	}
	return nil
}

func (s *Store) GetAssetType(ctx context.Context, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var row assetTypeRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM asset_types WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset type: %w", err)
	}
	at := row.toAssetType()
	return &at, nil
}

func (s *Store) ListAssetTypes(ctx context.Context) ([]inventory.AssetType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []assetTypeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM asset_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	out := make([]inventory.AssetType, len(rows))
	for i, r := range rows {
		out[i] = r.toAssetType()
	}
	return out, nil
}

func (s *Store) CreateAsset(ctx context.Context, a inventory.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (id, serial_number, asset_type_id, base_id, status, description, purchase_date, purchase_price, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SerialNumber, a.AssetTypeID, a.BaseID, a.Status, a.Description,
		a.PurchaseDate.String(), a.PurchasePrice.String(), now())
	if err != nil {
		if isUniqueConstraintError(err) {
			return &inventory.ValidationError{Field: "serial_number", Reason: "already registered"}
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (s *Store) GetAsset(ctx context.Context, id inventory.AssetID) (*inventory.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAsset(ctx, s.db, id)
}

func (s *Store) getAsset(ctx context.Context, q sqlx.QueryerContext, id inventory.AssetID) (*inventory.Asset, error) {
	var row assetRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM assets WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	a, err := row.toAsset()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAssetBySerial(ctx context.Context, serial string) (*inventory.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var row assetRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM assets WHERE serial_number = ?`, serial)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset by serial: %w", err)
	}
	a, err := row.toAsset()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAssets(ctx context.Context, f inventory.Filter) ([]inventory.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b whereBuilder
	if f.BaseID != nil {
		b.add("base_id = ?", *f.BaseID)
	}
	if f.AssetTypeID != nil {
		b.add("asset_type_id = ?", *f.AssetTypeID)
	}
	if f.AssetID != nil {
		b.add("id = ?", *f.AssetID)
	}
	if f.From != nil {
		b.add("purchase_date >= ?", f.From.String())
	}
	if f.To != nil {
		b.add("purchase_date <= ?", f.To.String())
	}

	var rows []assetRow
	query := `SELECT * FROM assets` + b.where() + ` ORDER BY serial_number`
	if err := s.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	out := make([]inventory.Asset, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAsset()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u inventory.User, audit inventory.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, base_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Role, nullableBase(u.BaseID), now())
	if err != nil {
		if isUniqueConstraintError(err) {
			return &inventory.ValidationError{Field: "username", Reason: "already taken"}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := appendAuditTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetUser(ctx context.Context, id inventory.UserID) (*inventory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userBy(ctx, `SELECT * FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*inventory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userBy(ctx, `SELECT * FROM users WHERE username = ?`, username)
}

func (s *Store) userBy(ctx context.Context, query string, arg any) (*inventory.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := row.toUser()
	return &u, nil
}

// =============================================================================
// PURCHASES
// =============================================================================

func (s *Store) CreatePurchase(ctx context.Context, p inventory.Purchase, audit inventory.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO purchases (id, asset_type_id, base_id, quantity, unit_price, total_amount, supplier, date, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AssetTypeID, p.BaseID, p.Quantity, p.UnitPrice.String(), p.TotalAmount.String(),
		p.Supplier, p.Date.String(), p.CreatedBy, now())
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	if err := appendAuditTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListPurchases(ctx context.Context, f inventory.Filter) ([]inventory.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b whereBuilder
	if f.BaseID != nil {
		b.add("base_id = ?", *f.BaseID)
	}
	if f.AssetTypeID != nil {
		b.add("asset_type_id = ?", *f.AssetTypeID)
	}
	if f.AssetID != nil {
		// Purchases are per asset type, never tied to one asset.
		b.add("1 = 0")
	}
	if f.From != nil {
		b.add("date >= ?", f.From.String())
	}
	if f.To != nil {
		b.add("date <= ?", f.To.String())
	}

	var rows []purchaseRow
	query := `SELECT * FROM purchases` + b.where() + ` ORDER BY date, created_at`
	if err := s.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	out := make([]inventory.Purchase, 0, len(rows))
	for _, r := range rows {
		p, err := r.toPurchase()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// =============================================================================
// EXPENDITURES
// =============================================================================

func (s *Store) CreateExpenditure(ctx context.Context, e inventory.Expenditure, audit inventory.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenditures (id, asset_id, base_id, quantity, reason, date, approved_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AssetID, e.BaseID, e.Quantity, e.Reason, e.Date.String(),
		nullableUser(e.ApprovedBy), now())
	if err != nil {
		return fmt.Errorf("failed to create expenditure: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE assets SET status = ? WHERE id = ?`,
		inventory.AssetExpended, e.AssetID)
	if err != nil {
		return fmt.Errorf("failed to mark asset expended: %w", err)
	}

	if err := appendAuditTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListExpenditures(ctx context.Context, f inventory.Filter) ([]inventory.Expenditure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b whereBuilder
	if f.BaseID != nil {
		b.add("e.base_id = ?", *f.BaseID)
	}
	if f.AssetTypeID != nil {
		b.add("a.asset_type_id = ?", *f.AssetTypeID)
	}
	if f.AssetID != nil {
		b.add("e.asset_id = ?", *f.AssetID)
	}
	if f.From != nil {
		b.add("e.date >= ?", f.From.String())
	}
	if f.To != nil {
		b.add("e.date <= ?", f.To.String())
	}

	var rows []expenditureRow
	query := `SELECT e.* FROM expenditures e JOIN assets a ON a.id = e.asset_id` +
		b.where() + ` ORDER BY e.date, e.created_at`
	if err := s.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("failed to list expenditures: %w", err)
	}
	out := make([]inventory.Expenditure, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toExpenditure())
	}
	return out, nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (s *Store) CreateTransfer(ctx context.Context, t inventory.Transfer, audit inventory.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transfers (id, asset_id, from_base_id, to_base_id, date, reason, status, created_by, decided_by, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AssetID, t.FromBaseID, t.ToBaseID, t.Date.String(), t.Reason, t.Status,
		t.CreatedBy, nullableUser(t.DecidedBy), t.Version, now(), now())
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	if err := appendAuditTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetTransfer(ctx context.Context, id inventory.TransferID) (*inventory.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTransfer(ctx, s.db, id)
}

func (s *Store) getTransfer(ctx context.Context, q sqlx.QueryerContext, id inventory.TransferID) (*inventory.Transfer, error) {
	var row transferRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM transfers WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	t, err := row.toTransfer()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransfers(ctx context.Context, f inventory.Filter) ([]inventory.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b whereBuilder
	if f.BaseID != nil {
		b.add("t.from_base_id = ?", *f.BaseID)
	}
	if f.AssetTypeID != nil {
		b.add("a.asset_type_id = ?", *f.AssetTypeID)
	}
	if f.AssetID != nil {
		b.add("t.asset_id = ?", *f.AssetID)
	}
	if f.From != nil {
		b.add("t.date >= ?", f.From.String())
	}
	if f.To != nil {
		b.add("t.date <= ?", f.To.String())
	}

	var rows []transferRow
	query := `SELECT t.* FROM transfers t JOIN assets a ON a.id = t.asset_id` +
		b.where() + ` ORDER BY t.created_at`
	if err := s.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	out := make([]inventory.Transfer, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTransfer()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TransitionTransfer applies one compare-and-set workflow step. The status
// update, the asset relocation (for completions), and the audit entry
// commit in the same transaction.
func (s *Store) TransitionTransfer(ctx context.Context, tr inventory.TransferTransition) (*inventory.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transfers SET status = ?, decided_by = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND status = ? AND version = ?`,
		tr.To, nullableUser(tr.DecidedBy), now(), tr.ID, tr.From, tr.ExpectedVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to transition transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check transition result: %w", err)
	}
	if affected == 0 {
		existing, err := s.getTransfer(ctx, tx, tr.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, &inventory.NotFoundError{Entity: "transfer", ID: string(tr.ID)}
		}
		return nil, inventory.ErrConflict
	}

	if tr.MoveAssetTo != nil {
		_, err = tx.ExecContext(ctx, `UPDATE assets SET base_id = ? WHERE id = ?`,
			*tr.MoveAssetTo, tr.AssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to relocate asset: %w", err)
		}
	}

	if err := appendAuditTx(ctx, tx, tr.Audit); err != nil {
		return nil, err
	}

	updated, err := s.getTransfer(ctx, tx, tr.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return updated, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (s *Store) CreateAssignment(ctx context.Context, a inventory.Assignment, audit inventory.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (id, asset_id, assigned_to, assigned_by, assigned_date, return_date, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AssetID, a.AssignedTo, a.AssignedBy, a.AssignedDate.String(),
		nullableDate(a.ReturnDate), a.Status, a.Notes, now())
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE assets SET status = ? WHERE id = ?`,
		inventory.AssetAssigned, a.AssetID)
	if err != nil {
		return fmt.Errorf("failed to mark asset assigned: %w", err)
	}

	if err := appendAuditTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetAssignment(ctx context.Context, id inventory.AssignmentID) (*inventory.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAssignment(ctx, s.db, id)
}

func (s *Store) getAssignment(ctx context.Context, q sqlx.QueryerContext, id inventory.AssignmentID) (*inventory.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM assignments WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	a, err := row.toAssignment()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAssignments(ctx context.Context, f inventory.Filter, status *inventory.AssignmentStatus) ([]inventory.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b whereBuilder
	if status != nil {
		b.add("g.status = ?", *status)
	}
	if f.BaseID != nil {
		b.add("a.base_id = ?", *f.BaseID)
	}
	if f.AssetTypeID != nil {
		b.add("a.asset_type_id = ?", *f.AssetTypeID)
	}
	if f.AssetID != nil {
		b.add("g.asset_id = ?", *f.AssetID)
	}
	if f.From != nil {
		b.add("g.assigned_date >= ?", f.From.String())
	}
	if f.To != nil {
		b.add("g.assigned_date <= ?", f.To.String())
	}

	var rows []assignmentRow
	query := `SELECT g.* FROM assignments g JOIN assets a ON a.id = g.asset_id` +
		b.where() + ` ORDER BY g.assigned_date, g.created_at`
	if err := s.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	out := make([]inventory.Assignment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAssignment()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) TransitionAssignment(ctx context.Context, tr inventory.AssignmentTransition) (*inventory.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status = ?, return_date = ? WHERE id = ? AND status = ?`,
		tr.To, nullableDate(tr.ReturnDate), tr.ID, tr.From)
	if err != nil {
		return nil, fmt.Errorf("failed to transition assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check transition result: %w", err)
	}
	if affected == 0 {
		existing, err := s.getAssignment(ctx, tx, tr.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, &inventory.NotFoundError{Entity: "assignment", ID: string(tr.ID)}
		}
		return nil, inventory.ErrConflict
	}

	if tr.AssetStatus != nil {
		_, err = tx.ExecContext(ctx, `UPDATE assets SET status = ? WHERE id = ?`,
			*tr.AssetStatus, tr.AssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to update asset status: %w", err)
		}
	}

	if err := appendAuditTx(ctx, tx, tr.Audit); err != nil {
		return nil, err
	}

	updated, err := s.getAssignment(ctx, tx, tr.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return updated, nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry inventory.AuditEntry) (inventory.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Timestamp = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity_type, entity_id, details, actor_id, actor_base_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Details,
		entry.ActorID, nullableBase(entry.ActorBaseID), entry.Timestamp.Format(timeLayout))
	if err != nil {
		return inventory.AuditEntry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}
	return entry, nil
}

func appendAuditTx(ctx context.Context, tx *sqlx.Tx, entry inventory.AuditEntry) error {
	entry.Timestamp = time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity_type, entity_id, details, actor_id, actor_base_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Details,
		entry.ActorID, nullableBase(entry.ActorBaseID), entry.Timestamp.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, f inventory.AuditFilter) ([]inventory.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b whereBuilder
	if f.ActorBaseID != nil {
		b.add("actor_base_id = ?", *f.ActorBaseID)
	}
	if f.EntityType != nil {
		b.add("entity_type = ?", *f.EntityType)
	}
	if f.From != nil {
		b.add("timestamp >= ?", f.From.Time.UTC().Format(timeLayout))
	}
	if f.To != nil {
		// Inclusive day bound: everything before the following midnight.
		b.add("timestamp < ?", f.To.AddDays(1).Time.UTC().Format(timeLayout))
	}

	var rows []auditRow
	query := `SELECT * FROM audit_logs` + b.where() + ` ORDER BY timestamp DESC`
	if err := s.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	out := make([]inventory.AuditEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func nullableUser(id *inventory.UserID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullableBase(id *inventory.BaseID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullableDate(d *inventory.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal value %q: %w", s, err)
	}
	return d, nil
}
