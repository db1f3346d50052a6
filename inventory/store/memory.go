// Package store provides an in-memory inventory.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds everything under one mutex, which makes the "audit entry and
// state change commit together" contract trivial: both happen inside one
// critical section or not at all.
type Memory struct {
	mu sync.RWMutex

	bases      map[inventory.BaseID]inventory.Base
	assetTypes map[inventory.AssetTypeID]inventory.AssetType
	assets     map[inventory.AssetID]inventory.Asset
	users      map[inventory.UserID]inventory.User

	purchases    []inventory.Purchase
	expenditures []inventory.Expenditure
	transfers    map[inventory.TransferID]inventory.Transfer
	assignments  map[inventory.AssignmentID]inventory.Assignment

	audit []inventory.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		bases:       make(map[inventory.BaseID]inventory.Base),
		assetTypes:  make(map[inventory.AssetTypeID]inventory.AssetType),
		assets:      make(map[inventory.AssetID]inventory.Asset),
		users:       make(map[inventory.UserID]inventory.User),
		transfers:   make(map[inventory.TransferID]inventory.Transfer),
		assignments: make(map[inventory.AssignmentID]inventory.Assignment),
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) CreateBase(_ context.Context, b inventory.Base) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bases[b.ID] = b
	return nil
}

func (m *Memory) GetBase(_ context.Context, id inventory.BaseID) (*inventory.Base, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.bases[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *Memory) ListBases(_ context.Context) ([]inventory.Base, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.Base, 0, len(m.bases))
	for _, b := range m.bases {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateAssetType(_ context.Context, at inventory.AssetType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if at.CreatedAt.IsZero() {
		at.CreatedAt = time.Now().UTC()
	}
	m.assetTypes[at.ID] = at
	return nil
}

func (m *Memory) GetAssetType(_ context.Context, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if at, ok := m.assetTypes[id]; ok {
		return &at, nil
	}
	return nil, nil
}

func (m *Memory) ListAssetTypes(_ context.Context) ([]inventory.AssetType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.AssetType, 0, len(m.assetTypes))
	for _, at := range m.assetTypes {
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateAsset(_ context.Context, a inventory.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assets {
		if existing.SerialNumber == a.SerialNumber {
			return &inventory.ValidationError{Field: "serial_number", Reason: "already registered"}
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.assets[a.ID] = a
	return nil
}

func (m *Memory) GetAsset(_ context.Context, id inventory.AssetID) (*inventory.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.assets[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) GetAssetBySerial(_ context.Context, serial string) (*inventory.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assets {
		if a.SerialNumber == serial {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListAssets(_ context.Context, f inventory.Filter) ([]inventory.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.Asset
	for _, a := range m.assets {
		if f.Matches(m.assetKey(a)) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) CreateUser(_ context.Context, u inventory.User, audit inventory.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return &inventory.ValidationError{Field: "username", Reason: "already taken"}
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	m.appendAuditLocked(audit)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id inventory.UserID) (*inventory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*inventory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

// =============================================================================
// PURCHASES / EXPENDITURES
// =============================================================================

func (m *Memory) CreatePurchase(_ context.Context, p inventory.Purchase, audit inventory.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.purchases = append(m.purchases, p)
	m.appendAuditLocked(audit)
	return nil
}

func (m *Memory) ListPurchases(_ context.Context, f inventory.Filter) ([]inventory.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.Purchase
	for _, p := range m.purchases {
		key := inventory.EventKey{BaseID: p.BaseID, AssetTypeID: p.AssetTypeID, Date: p.Date}
		if f.Matches(key) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) CreateExpenditure(_ context.Context, e inventory.Expenditure, audit inventory.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if a, ok := m.assets[e.AssetID]; ok {
		a.Status = inventory.AssetExpended
		m.assets[e.AssetID] = a
	}
	m.expenditures = append(m.expenditures, e)
	m.appendAuditLocked(audit)
	return nil
}

func (m *Memory) ListExpenditures(_ context.Context, f inventory.Filter) ([]inventory.Expenditure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.Expenditure
	for _, e := range m.expenditures {
		key := inventory.EventKey{
			BaseID:      e.BaseID,
			AssetTypeID: m.assetTypeOf(e.AssetID),
			AssetID:     e.AssetID,
			Date:        e.Date,
		}
		if f.Matches(key) {
			out = append(out, e)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (m *Memory) CreateTransfer(_ context.Context, t inventory.Transfer, audit inventory.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.transfers[t.ID] = t
	m.appendAuditLocked(audit)
	return nil
}

func (m *Memory) GetTransfer(_ context.Context, id inventory.TransferID) (*inventory.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transfers[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *Memory) ListTransfers(_ context.Context, f inventory.Filter) ([]inventory.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.Transfer
	for _, t := range m.transfers {
		key := inventory.EventKey{
			BaseID:      t.FromBaseID,
			AssetTypeID: m.assetTypeOf(t.AssetID),
			AssetID:     t.AssetID,
			Date:        t.Date,
		}
		if f.Matches(key) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) TransitionTransfer(_ context.Context, tr inventory.TransferTransition) (*inventory.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transfers[tr.ID]
	if !ok {
		return nil, &inventory.NotFoundError{Entity: "transfer", ID: string(tr.ID)}
	}
	if t.Status != tr.From || t.Version != tr.ExpectedVersion {
		return nil, inventory.ErrConflict
	}

	t.Status = tr.To
	t.DecidedBy = tr.DecidedBy
	t.Version++
	t.UpdatedAt = time.Now().UTC()
	m.transfers[tr.ID] = t

	if tr.MoveAssetTo != nil {
		if a, ok := m.assets[tr.AssetID]; ok {
			a.BaseID = *tr.MoveAssetTo
			m.assets[tr.AssetID] = a
		}
	}

	m.appendAuditLocked(tr.Audit)
	return &t, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) CreateAssignment(_ context.Context, a inventory.Assignment, audit inventory.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if asset, ok := m.assets[a.AssetID]; ok {
		asset.Status = inventory.AssetAssigned
		m.assets[a.AssetID] = asset
	}
	m.assignments[a.ID] = a
	m.appendAuditLocked(audit)
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, id inventory.AssignmentID) (*inventory.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) ListAssignments(_ context.Context, f inventory.Filter, status *inventory.AssignmentStatus) ([]inventory.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.Assignment
	for _, a := range m.assignments {
		if status != nil && a.Status != *status {
			continue
		}
		asset := m.assets[a.AssetID]
		key := inventory.EventKey{
			BaseID:      asset.BaseID,
			AssetTypeID: asset.AssetTypeID,
			AssetID:     a.AssetID,
			Date:        a.AssignedDate,
		}
		if f.Matches(key) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) TransitionAssignment(_ context.Context, tr inventory.AssignmentTransition) (*inventory.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assignments[tr.ID]
	if !ok {
		return nil, &inventory.NotFoundError{Entity: "assignment", ID: string(tr.ID)}
	}
	if a.Status != tr.From {
		return nil, inventory.ErrConflict
	}

	a.Status = tr.To
	a.ReturnDate = tr.ReturnDate
	m.assignments[tr.ID] = a

	if tr.AssetStatus != nil {
		if asset, ok := m.assets[tr.AssetID]; ok {
			asset.Status = *tr.AssetStatus
			m.assets[tr.AssetID] = asset
		}
	}

	m.appendAuditLocked(tr.Audit)
	return &a, nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, entry inventory.AuditEntry) (inventory.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendAuditLocked(entry), nil
}

func (m *Memory) ListAudit(_ context.Context, f inventory.AuditFilter) ([]inventory.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if f.Matches(m.audit[i]) {
			out = append(out, m.audit[i])
		}
	}
	return out, nil
}

func (m *Memory) appendAuditLocked(entry inventory.AuditEntry) inventory.AuditEntry {
	entry.Timestamp = time.Now().UTC()
	m.audit = append(m.audit, entry)
	return entry
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Memory) assetTypeOf(id inventory.AssetID) inventory.AssetTypeID {
	if a, ok := m.assets[id]; ok {
		return a.AssetTypeID
	}
	return ""
}

func (m *Memory) assetKey(a inventory.Asset) inventory.EventKey {
	return inventory.EventKey{
		BaseID:      a.BaseID,
		AssetTypeID: a.AssetTypeID,
		AssetID:     a.ID,
		Date:        a.PurchaseDate,
	}
}
