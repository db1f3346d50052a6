/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  The engine talks to durable storage through narrow interfaces defined here.
  Implementations live elsewhere (store/memory for tests, store/sqlite for
  the service). Services accept the smallest interface that covers their
  needs; the Store interface composes everything for wiring.

TRANSACTION BOUNDARIES:
  Mutations that change workflow state take the audit entry as an argument
  so the implementation can commit both in one transaction. There is no
  separate "best effort" audit path: if the entry cannot be written the
  whole mutation fails.

CAS TRANSITIONS:
  TransitionTransfer and TransitionAssignment are compare-and-set: they
  apply only if the row still carries the expected prior status (and
  version, for transfers). A lost race returns ErrConflict.

SEE ALSO:
  - store/memory.go: In-memory implementation
  - store/sqlite: SQLite implementation
*/
package inventory

import "context"

// =============================================================================
// CATALOG
// =============================================================================

type CatalogStore interface {
	CreateBase(ctx context.Context, b Base) error
	GetBase(ctx context.Context, id BaseID) (*Base, error)
	ListBases(ctx context.Context) ([]Base, error)

	CreateAssetType(ctx context.Context, at AssetType) error
	GetAssetType(ctx context.Context, id AssetTypeID) (*AssetType, error)
	ListAssetTypes(ctx context.Context) ([]AssetType, error)

	// CreateAsset fails with ErrValidation if the serial number is taken.
	CreateAsset(ctx context.Context, a Asset) error
	GetAsset(ctx context.Context, id AssetID) (*Asset, error)
	GetAssetBySerial(ctx context.Context, serial string) (*Asset, error)
	ListAssets(ctx context.Context, f Filter) ([]Asset, error)
}

// =============================================================================
// USERS
// =============================================================================

type UserStore interface {
	CreateUser(ctx context.Context, u User, audit AuditEntry) error
	GetUser(ctx context.Context, id UserID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// =============================================================================
// ACQUISITION / CONSUMPTION EVENTS
// =============================================================================

type LedgerStore interface {
	// CreatePurchase writes the purchase and its audit entry atomically.
	CreatePurchase(ctx context.Context, p Purchase, audit AuditEntry) error
	ListPurchases(ctx context.Context, f Filter) ([]Purchase, error)

	// CreateExpenditure writes the expenditure and its audit entry
	// atomically, and marks the asset EXPENDED.
	CreateExpenditure(ctx context.Context, e Expenditure, audit AuditEntry) error
	ListExpenditures(ctx context.Context, f Filter) ([]Expenditure, error)
}

// =============================================================================
// TRANSFERS
// =============================================================================

// TransferTransition is one compare-and-set step of the approval workflow.
// The audit entry commits in the same transaction as the status change and,
// when MoveAssetTo is set, the asset relocation.
type TransferTransition struct {
	ID              TransferID
	From            TransferStatus
	To              TransferStatus
	ExpectedVersion int64
	DecidedBy       *UserID
	AssetID         AssetID
	MoveAssetTo     *BaseID
	Audit           AuditEntry
}

type TransferStore interface {
	CreateTransfer(ctx context.Context, t Transfer, audit AuditEntry) error
	GetTransfer(ctx context.Context, id TransferID) (*Transfer, error)

	// ListTransfers matches the base dimension against the origin base;
	// asset type resolves transitively through the asset.
	ListTransfers(ctx context.Context, f Filter) ([]Transfer, error)

	// TransitionTransfer applies the step only if the transfer still carries
	// the expected status and version; otherwise it returns ErrConflict.
	TransitionTransfer(ctx context.Context, tr TransferTransition) (*Transfer, error)
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// AssignmentTransition moves one assignment out of ACTIVE. ReturnDate is set
// only for RETURNED; AssetStatus, when non-nil, updates the asset in the
// same transaction.
type AssignmentTransition struct {
	ID          AssignmentID
	From        AssignmentStatus
	To          AssignmentStatus
	ReturnDate  *Date
	AssetID     AssetID
	AssetStatus *AssetStatus
	Audit       AuditEntry
}

type AssignmentStore interface {
	// CreateAssignment writes the assignment, marks the asset ASSIGNED, and
	// writes the audit entry, all atomically.
	CreateAssignment(ctx context.Context, a Assignment, audit AuditEntry) error
	GetAssignment(ctx context.Context, id AssignmentID) (*Assignment, error)

	// ListAssignments matches base and asset type transitively through the
	// asset; the date dimension matches the assigned date. A nil status
	// matches all statuses.
	ListAssignments(ctx context.Context, f Filter, status *AssignmentStatus) ([]Assignment, error)

	TransitionAssignment(ctx context.Context, tr AssignmentTransition) (*Assignment, error)
}

// =============================================================================
// COMPOSED STORE
// =============================================================================

// EventStore is what the metrics aggregator needs: filtered reads over the
// four event collections.
type EventStore interface {
	ListPurchases(ctx context.Context, f Filter) ([]Purchase, error)
	ListTransfers(ctx context.Context, f Filter) ([]Transfer, error)
	ListAssignments(ctx context.Context, f Filter, status *AssignmentStatus) ([]Assignment, error)
	ListExpenditures(ctx context.Context, f Filter) ([]Expenditure, error)
}

// Store composes every persistence concern for service wiring.
type Store interface {
	CatalogStore
	UserStore
	LedgerStore
	TransferStore
	AssignmentStore
	AuditRecorder
}
