/*
assignment.go - Custody lifecycle of assigned assets

PURPOSE:
  Tracks custody of one asset handed to one user.

STATES:
  ACTIVE (initial) → RETURNED (sets the return date, asset back to
  AVAILABLE) or EXPIRED (swept by policy, return date stays unset).
  Both end states are terminal; returning a non-ACTIVE assignment fails
  with ErrInvalidStateTransition.

INVARIANT:
  ReturnDate is set if and only if the assignment is RETURNED.

EXPIRY:
  Nothing in-process schedules expiry. ExpireOverdue is an administrative
  sweep an external scheduler calls with an explicit cutoff: every ACTIVE
  assignment assigned before the cutoff becomes EXPIRED. The cutoff policy
  lives with the operator, not in this package.

SEE ALSO:
  - transfer.go: The other workflow over assets
  - store.go: AssignmentTransition, the CAS contract
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateAssignmentInput is the request shape for a new assignment.
type CreateAssignmentInput struct {
	AssetID      AssetID
	AssignedTo   UserID
	AssignedDate Date
	Notes        string
}

type AssignmentService struct {
	Assignments AssignmentStore
	Catalog     CatalogStore
	Users       UserStore
}

func NewAssignmentService(assignments AssignmentStore, catalog CatalogStore, users UserStore) *AssignmentService {
	return &AssignmentService{Assignments: assignments, Catalog: catalog, Users: users}
}

// Create validates and records an ACTIVE assignment. The asset must be
// AVAILABLE; it is marked ASSIGNED in the same transaction.
func (s *AssignmentService) Create(ctx context.Context, in CreateAssignmentInput, actor User) (*Assignment, error) {
	if in.AssignedDate.IsZero() {
		in.AssignedDate = Today()
	}

	asset, err := s.Catalog.GetAsset(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, &NotFoundError{Entity: "asset", ID: string(in.AssetID)}
	}
	if asset.Status != AssetAvailable {
		return nil, &ValidationError{Field: "asset_id", Reason: fmt.Sprintf("asset is %s, not assignable", asset.Status)}
	}

	target, err := s.Users.GetUser(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &NotFoundError{Entity: "user", ID: string(in.AssignedTo)}
	}

	a := Assignment{
		ID:           AssignmentID(uuid.NewString()),
		AssetID:      in.AssetID,
		AssignedTo:   in.AssignedTo,
		AssignedBy:   actor.ID,
		AssignedDate: in.AssignedDate,
		Status:       AssignmentActive,
		Notes:        in.Notes,
	}

	audit := NewAuditEntry(ActionAssignAsset, EntityAssignment, string(a.ID),
		fmt.Sprintf("Assigned asset %s (%s) to user %s", asset.SerialNumber, asset.ID, target.Username),
		actor)

	if err := s.Assignments.CreateAssignment(ctx, a, audit); err != nil {
		return nil, err
	}
	return &a, nil
}

// Get loads one assignment.
func (s *AssignmentService) Get(ctx context.Context, id AssignmentID) (*Assignment, error) {
	a, err := s.Assignments.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &NotFoundError{Entity: "assignment", ID: string(id)}
	}
	return a, nil
}

// List returns assignments matching the filter, optionally narrowed to one
// status.
func (s *AssignmentService) List(ctx context.Context, f Filter, status *AssignmentStatus) ([]Assignment, error) {
	return s.Assignments.ListAssignments(ctx, f, status)
}

// Return closes an ACTIVE assignment: sets today's return date and frees
// the asset. Only legal from ACTIVE.
func (s *AssignmentService) Return(ctx context.Context, id AssignmentID, actor User) (*Assignment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != AssignmentActive {
		return nil, &StateTransitionError{Entity: "assignment", From: string(a.Status), To: string(AssignmentReturned)}
	}

	today := Today()
	available := AssetAvailable

	audit := NewAuditEntry(ActionReturnAsset, EntityAssignment, string(a.ID),
		fmt.Sprintf("Returned asset %s from user %s", a.AssetID, a.AssignedTo),
		actor)

	return s.Assignments.TransitionAssignment(ctx, AssignmentTransition{
		ID:          id,
		From:        AssignmentActive,
		To:          AssignmentReturned,
		ReturnDate:  &today,
		AssetID:     a.AssetID,
		AssetStatus: &available,
		Audit:       audit,
	})
}

// ExpireOverdue sweeps ACTIVE assignments assigned strictly before the
// cutoff into EXPIRED. Assets stay ASSIGNED until physically recovered.
// Returns the assignments it expired.
func (s *AssignmentService) ExpireOverdue(ctx context.Context, cutoff Date, actor User) ([]Assignment, error) {
	if cutoff.IsZero() {
		return nil, &ValidationError{Field: "older_than", Reason: "required"}
	}

	active := AssignmentActive
	candidates, err := s.Assignments.ListAssignments(ctx, Filter{}, &active)
	if err != nil {
		return nil, err
	}

	var expired []Assignment
	for _, a := range candidates {
		if !a.AssignedDate.Before(cutoff) {
			continue
		}

		audit := NewAuditEntry(ActionExpireAssignment, EntityAssignment, string(a.ID),
			fmt.Sprintf("Expired assignment of asset %s to user %s (assigned %s)",
				a.AssetID, a.AssignedTo, a.AssignedDate),
			actor)

		updated, err := s.Assignments.TransitionAssignment(ctx, AssignmentTransition{
			ID:      a.ID,
			From:    AssignmentActive,
			To:      AssignmentExpired,
			AssetID: a.AssetID,
			Audit:   audit,
		})
		if err != nil {
			// Raced with a concurrent return; skip, the sweep is best-effort
			// over the candidate set, never over an individual transition.
			if IsRetryable(err) {
				continue
			}
			return expired, err
		}
		expired = append(expired, *updated)
	}
	return expired, nil
}
