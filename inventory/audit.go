/*
audit.go - Append-only audit trail

PURPOSE:
  Every mutating operation in the system emits exactly one audit entry
  attributing the action to the actor. The trail is a compliance record:
  entries are never updated or deleted, and the write shares the store
  transaction of the state change it describes - a failed audit write
  aborts the mutation rather than being swallowed.

TIMESTAMPS:
  The recorder assigns the timestamp at write time. Callers build entries
  with NewAuditEntry and leave the timestamp zero; the store fills it in.

QUERIES:
  Audit queries filter by actor base, entity type, and timestamp range,
  composed the same way as filter.go: one predicate per set dimension.

SEE ALSO:
  - transfer.go, assignment.go, ledger.go: Emit entries on every mutation
  - store/sqlite: Writes entries inside the mutation's transaction
*/
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENTITY TYPES AND ACTIONS
// =============================================================================

type EntityType string

const (
	EntityAsset       EntityType = "Asset"
	EntityPurchase    EntityType = "Purchase"
	EntityTransfer    EntityType = "Transfer"
	EntityAssignment  EntityType = "Assignment"
	EntityExpenditure EntityType = "Expenditure"
	EntityUser        EntityType = "User"
)

const (
	ActionCreateTransfer    = "CREATE_TRANSFER"
	ActionApproveTransfer   = "APPROVE_TRANSFER"
	ActionRejectTransfer    = "REJECT_TRANSFER"
	ActionCompleteTransfer  = "COMPLETE_TRANSFER"
	ActionAssignAsset       = "ASSIGN_ASSET"
	ActionReturnAsset       = "RETURN_ASSET"
	ActionExpireAssignment  = "EXPIRE_ASSIGNMENT"
	ActionRecordPurchase    = "RECORD_PURCHASE"
	ActionRecordExpenditure = "RECORD_EXPENDITURE"
	ActionRegisterUser      = "REGISTER_USER"
)

// =============================================================================
// AUDIT ENTRY
// =============================================================================

// AuditEntry is one immutable line of the audit trail. ActorBaseID is
// denormalized from the actor at write time so base-scoped queries do not
// depend on the user record's later state.
type AuditEntry struct {
	ID          AuditID
	Action      string
	EntityType  EntityType
	EntityID    string
	Details     string
	ActorID     UserID
	ActorBaseID *BaseID
	Timestamp   time.Time
}

// NewAuditEntry builds an entry attributed to the actor. The timestamp is
// left zero and assigned by the recorder at write time.
func NewAuditEntry(action string, entityType EntityType, entityID, details string, actor User) AuditEntry {
	return AuditEntry{
		ID:          AuditID(uuid.NewString()),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Details:     details,
		ActorID:     actor.ID,
		ActorBaseID: actor.BaseID,
	}
}

// =============================================================================
// AUDIT FILTER - Same composition discipline as filter.go
// =============================================================================

// AuditFilter restricts an audit query. Nil fields impose no constraint.
type AuditFilter struct {
	ActorBaseID *BaseID
	EntityType  *EntityType
	From        *Date
	To          *Date
}

// ParseAuditFilter builds an AuditFilter from raw query values; malformed
// dates fail with ErrInvalidFilter.
func ParseAuditFilter(baseID, entityType, dateFrom, dateTo string) (AuditFilter, error) {
	var f AuditFilter
	if baseID != "" {
		id := BaseID(baseID)
		f.ActorBaseID = &id
	}
	if entityType != "" {
		et := EntityType(entityType)
		f.EntityType = &et
	}
	if dateFrom != "" {
		d, err := ParseDate(dateFrom)
		if err != nil {
			return AuditFilter{}, &FilterError{Field: "date_from", Value: dateFrom}
		}
		f.From = &d
	}
	if dateTo != "" {
		d, err := ParseDate(dateTo)
		if err != nil {
			return AuditFilter{}, &FilterError{Field: "date_to", Value: dateTo}
		}
		f.To = &d
	}
	return f, nil
}

// Matches reports whether the entry satisfies every set dimension. Date
// bounds are inclusive calendar days against the entry timestamp.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.ActorBaseID != nil && (e.ActorBaseID == nil || *e.ActorBaseID != *f.ActorBaseID) {
		return false
	}
	if f.EntityType != nil && e.EntityType != *f.EntityType {
		return false
	}
	day := NewDate(e.Timestamp.UTC().Year(), e.Timestamp.UTC().Month(), e.Timestamp.UTC().Day())
	if f.From != nil && day.Before(*f.From) {
		return false
	}
	if f.To != nil && day.After(*f.To) {
		return false
	}
	return true
}

// =============================================================================
// RECORDER
// =============================================================================

// AuditRecorder appends entries and resolves audit queries. Append is the
// only write; entries are immutable thereafter.
type AuditRecorder interface {
	// AppendAudit writes one entry, assigning the timestamp. Standalone use
	// only - mutations that change entity state pass their entry to the
	// store operation so both share a transaction.
	AppendAudit(ctx context.Context, entry AuditEntry) (AuditEntry, error)

	// ListAudit returns entries matching the filter, newest first.
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}
