/*
Package inventory provides the core asset movement engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking military
  equipment across bases: acquisition (purchases), movement (transfers),
  custody (assignments), and consumption (expenditures). Stock balances and
  audit history are derived from these event records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar day (used as ledger keys, always UTC)
  - Base/AssetType/Asset: The inventory being tracked
  - Purchase/Transfer/Assignment/Expenditure: Immutable movement events
  - User: An actor with a role and an optional home base

DESIGN PRINCIPLES:
  1. Exactness: quantities are int64, money is decimal.Decimal - never floats
  2. Type Safety: strong typing for IDs prevents mixing base/asset/user IDs
  3. Immutability: event records are appended, corrections are new events
  4. Auditability: every mutating operation produces one audit entry

SEE ALSO:
  - filter.go: Predicate composition over event records
  - metrics.go: Balance aggregation from events
  - transfer.go: The transfer approval state machine
  - audit.go: Append-only audit trail
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	BaseID        string
	AssetTypeID   string
	AssetID       string
	PurchaseID    string
	TransferID    string
	AssignmentID  string
	ExpenditureID string
	AuditID       string
	UserID        string
)

// =============================================================================
// DATE - Calendar day, the granularity of every ledger event
// =============================================================================

// Date is a day-granularity point in time, normalized to UTC midnight.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }
func (d Date) AddDays(n int) Date            { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }
func (d Date) String() string                { return d.normalize().Format("2006-01-02") }

// =============================================================================
// CATALOG - Bases, asset types, and tracked assets
// =============================================================================

// Base is a physical location holding assets.
type Base struct {
	ID          BaseID
	Name        string
	Location    string
	Description string
	CreatedAt   time.Time
}

// AssetType is a category of equipment (e.g. rifle, radio, vehicle).
type AssetType struct {
	ID          AssetTypeID
	Name        string
	Category    string
	Description string
	CreatedAt   time.Time
}

type AssetStatus string

const (
	AssetAvailable   AssetStatus = "AVAILABLE"
	AssetAssigned    AssetStatus = "ASSIGNED"
	AssetMaintenance AssetStatus = "MAINTENANCE"
	AssetRetired     AssetStatus = "RETIRED"
	AssetExpended    AssetStatus = "EXPENDED"
)

// Asset is a single tracked unit. Its serial number is globally unique and
// it belongs to exactly one base at any instant; only a completed transfer
// relocates it.
type Asset struct {
	ID            AssetID
	SerialNumber  string
	AssetTypeID   AssetTypeID
	BaseID        BaseID
	Status        AssetStatus
	Description   string
	PurchaseDate  Date
	PurchasePrice decimal.Decimal
	CreatedAt     time.Time
}

// =============================================================================
// MOVEMENT EVENTS - Purchase, Transfer, Assignment, Expenditure
// =============================================================================

// Purchase is an acquisition event. Immutable once recorded.
type Purchase struct {
	ID          PurchaseID
	AssetTypeID AssetTypeID
	BaseID      BaseID
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
	Supplier    string
	Date        Date
	CreatedBy   UserID
	CreatedAt   time.Time
}

type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferApproved  TransferStatus = "APPROVED"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferRejected  TransferStatus = "REJECTED"
)

// Transfer is a movement event relocating one asset between two bases,
// gated by the approval workflow in transfer.go. Version backs the
// compare-and-set transition updates.
type Transfer struct {
	ID         TransferID
	AssetID    AssetID
	FromBaseID BaseID
	ToBaseID   BaseID
	Date       Date
	Reason     string
	Status     TransferStatus
	CreatedBy  UserID
	DecidedBy  *UserID
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentReturned AssignmentStatus = "RETURNED"
	AssignmentExpired  AssignmentStatus = "EXPIRED"
)

// Assignment is a custody event binding an asset to a user.
// Invariant: ReturnDate is set if and only if Status is RETURNED.
type Assignment struct {
	ID           AssignmentID
	AssetID      AssetID
	AssignedTo   UserID
	AssignedBy   UserID
	AssignedDate Date
	ReturnDate   *Date
	Status       AssignmentStatus
	Notes        string
	CreatedAt    time.Time
}

// Expenditure is a consumption event: permanent write-off of asset quantity.
type Expenditure struct {
	ID         ExpenditureID
	AssetID    AssetID
	BaseID     BaseID
	Quantity   int64
	Reason     string
	Date       Date
	ApprovedBy *UserID
	CreatedAt  time.Time
}

// =============================================================================
// USERS
// =============================================================================

type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleBaseCommander    Role = "BASE_COMMANDER"
	RoleLogisticsOfficer Role = "LOGISTICS_OFFICER"
)

// User is an authenticated actor. BaseID is nil for admins, who are not
// scoped to a single base.
type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	Role         Role
	BaseID       *BaseID
	CreatedAt    time.Time
}

// HomeBase reports whether the user's home base matches the given base.
// Admins have no home base and always report false here.
func (u User) HomeBase(baseID BaseID) bool {
	return u.BaseID != nil && *u.BaseID == baseID
}
