/*
transfer.go - The transfer approval state machine

PURPOSE:
  Governs the lifecycle of a single transfer: one asset moving between two
  bases, gated by approval.

STATE MACHINE:
      ┌─────────┐  approve   ┌──────────┐  complete   ┌───────────┐
      │ PENDING │ ─────────▶ │ APPROVED │ ──────────▶ │ COMPLETED │
      └─────────┘            └──────────┘             └───────────┘
           │ reject
           ▼
      ┌──────────┐
      │ REJECTED │
      └──────────┘

  REJECTED and COMPLETED are terminal. No transition applies twice: the
  second attempt fails with ErrInvalidStateTransition. The asset's base
  changes at COMPLETED - physical movement confirmed - never at APPROVED.

AUTHORIZATION:
  Deciding a transfer requires ADMIN, or BASE_COMMANDER of the origin base.
  CanDecide exposes the predicate so the boundary can enforce it; the
  service also enforces it itself before transitioning.

CONCURRENCY:
  Transitions are compare-and-set on (status, version). Two concurrent
  approvals of the same PENDING transfer produce exactly one APPROVED
  outcome; the loser gets ErrConflict. A transfer already decided at
  read time gets ErrInvalidStateTransition instead.

AUDIT:
  Every transition hands its audit entry to the store so entry and status
  change commit together. A failed audit write aborts the transition.

SEE ALSO:
  - store.go: TransferTransition, the CAS contract
  - audit.go: Entry construction and action tags
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// AUTHORIZATION PREDICATE
// =============================================================================

// CanDecide reports whether the actor may approve, reject, or complete the
// transfer: an admin, or the commander of the origin base.
func CanDecide(actor User, t Transfer) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.Role == RoleBaseCommander && actor.HomeBase(t.FromBaseID)
}

// =============================================================================
// TRANSFER SERVICE
// =============================================================================

// CreateTransferInput is the request shape for a new transfer.
type CreateTransferInput struct {
	AssetID    AssetID
	FromBaseID BaseID
	ToBaseID   BaseID
	Date       Date
	Reason     string
}

type TransferService struct {
	Transfers TransferStore
	Catalog   CatalogStore
}

func NewTransferService(transfers TransferStore, catalog CatalogStore) *TransferService {
	return &TransferService{Transfers: transfers, Catalog: catalog}
}

// Create validates the request and records a PENDING transfer. All
// validation happens before any mutation.
func (s *TransferService) Create(ctx context.Context, in CreateTransferInput, actor User) (*Transfer, error) {
	if in.FromBaseID == in.ToBaseID {
		return nil, &ValidationError{Field: "to_base_id", Reason: "destination must differ from origin"}
	}
	if in.Reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "required"}
	}
	if in.Date.IsZero() {
		in.Date = Today()
	}

	asset, err := s.Catalog.GetAsset(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, &NotFoundError{Entity: "asset", ID: string(in.AssetID)}
	}
	if asset.BaseID != in.FromBaseID {
		return nil, &ValidationError{Field: "from_base_id", Reason: "asset is not at the origin base"}
	}

	for _, baseID := range []BaseID{in.FromBaseID, in.ToBaseID} {
		base, err := s.Catalog.GetBase(ctx, baseID)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return nil, &NotFoundError{Entity: "base", ID: string(baseID)}
		}
	}

	t := Transfer{
		ID:         TransferID(uuid.NewString()),
		AssetID:    in.AssetID,
		FromBaseID: in.FromBaseID,
		ToBaseID:   in.ToBaseID,
		Date:       in.Date,
		Reason:     in.Reason,
		Status:     TransferPending,
		CreatedBy:  actor.ID,
		Version:    1,
	}

	audit := NewAuditEntry(ActionCreateTransfer, EntityTransfer, string(t.ID),
		fmt.Sprintf("Created transfer request for asset %s (%s) from base %s to base %s",
			asset.SerialNumber, asset.ID, t.FromBaseID, t.ToBaseID),
		actor)

	if err := s.Transfers.CreateTransfer(ctx, t, audit); err != nil {
		return nil, err
	}
	return &t, nil
}

// Get loads one transfer.
func (s *TransferService) Get(ctx context.Context, id TransferID) (*Transfer, error) {
	t, err := s.Transfers.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Entity: "transfer", ID: string(id)}
	}
	return t, nil
}

// List returns transfers matching the filter.
func (s *TransferService) List(ctx context.Context, f Filter) ([]Transfer, error) {
	return s.Transfers.ListTransfers(ctx, f)
}

// Approve moves a PENDING transfer to APPROVED, attributed to the actor.
func (s *TransferService) Approve(ctx context.Context, id TransferID, actor User) (*Transfer, error) {
	return s.decide(ctx, id, actor, TransferApproved, ActionApproveTransfer, "Approved")
}

// Reject moves a PENDING transfer to REJECTED. Terminal.
func (s *TransferService) Reject(ctx context.Context, id TransferID, actor User) (*Transfer, error) {
	return s.decide(ctx, id, actor, TransferRejected, ActionRejectTransfer, "Rejected")
}

func (s *TransferService) decide(ctx context.Context, id TransferID, actor User, to TransferStatus, action, verb string) (*Transfer, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != TransferPending {
		return nil, &StateTransitionError{Entity: "transfer", From: string(t.Status), To: string(to)}
	}
	if !CanDecide(actor, *t) {
		return nil, &UnauthorizedError{Actor: actor.ID, Required: "ADMIN or BASE_COMMANDER of origin base"}
	}

	audit := NewAuditEntry(action, EntityTransfer, string(t.ID),
		fmt.Sprintf("%s transfer of asset %s from base %s to base %s",
			verb, t.AssetID, t.FromBaseID, t.ToBaseID),
		actor)

	return s.Transfers.TransitionTransfer(ctx, TransferTransition{
		ID:              id,
		From:            TransferPending,
		To:              to,
		ExpectedVersion: t.Version,
		DecidedBy:       &actor.ID,
		AssetID:         t.AssetID,
		Audit:           audit,
	})
}

// Complete confirms physical movement of an APPROVED transfer: the asset's
// base becomes the destination in the same transaction.
func (s *TransferService) Complete(ctx context.Context, id TransferID, actor User) (*Transfer, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != TransferApproved {
		return nil, &StateTransitionError{Entity: "transfer", From: string(t.Status), To: string(TransferCompleted)}
	}
	if !CanDecide(actor, *t) {
		return nil, &UnauthorizedError{Actor: actor.ID, Required: "ADMIN or BASE_COMMANDER of origin base"}
	}

	audit := NewAuditEntry(ActionCompleteTransfer, EntityTransfer, string(t.ID),
		fmt.Sprintf("Completed transfer of asset %s to base %s", t.AssetID, t.ToBaseID),
		actor)

	return s.Transfers.TransitionTransfer(ctx, TransferTransition{
		ID:              id,
		From:            TransferApproved,
		To:              TransferCompleted,
		ExpectedVersion: t.Version,
		DecidedBy:       t.DecidedBy,
		AssetID:         t.AssetID,
		MoveAssetTo:     &t.ToBaseID,
		Audit:           audit,
	})
}
