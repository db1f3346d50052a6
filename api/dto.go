/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CONVENTIONS:
  - Dates serialize as "2006-01-02" strings
  - Timestamps serialize as RFC3339 strings
  - Monetary values serialize as decimal strings, never floats

VALIDATION:
  Structural validation (required fields, date parsing) happens in the
  handlers; domain rules live in the inventory services.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: The domain model these project
*/
package api

import (
	"time"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

// =============================================================================
// AUTH
// =============================================================================

// RegisterRequest creates a user account.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	BaseID   string `json:"base_id,omitempty"`
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries a token and the authenticated user.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// UserDTO represents a user in API responses. No password material.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	BaseID   string `json:"base_id,omitempty"`
}

func toUserDTO(u inventory.User) UserDTO {
	dto := UserDTO{
		ID:       string(u.ID),
		Username: u.Username,
		Role:     string(u.Role),
	}
	if u.BaseID != nil {
		dto.BaseID = string(*u.BaseID)
	}
	return dto
}

// =============================================================================
// CATALOG
// =============================================================================

// BaseDTO represents a base in API responses.
type BaseDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateBaseRequest creates a base.
type CreateBaseRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// AssetTypeDTO represents an asset type in API responses.
type AssetTypeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateAssetTypeRequest creates an asset type.
type CreateAssetTypeRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// AssetDTO represents an asset in API responses.
type AssetDTO struct {
	ID            string `json:"id"`
	SerialNumber  string `json:"serial_number"`
	AssetTypeID   string `json:"asset_type_id"`
	BaseID        string `json:"base_id"`
	Status        string `json:"status"`
	Description   string `json:"description,omitempty"`
	PurchaseDate  string `json:"purchase_date,omitempty"`
	PurchasePrice string `json:"purchase_price,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateAssetRequest registers an asset.
type CreateAssetRequest struct {
	SerialNumber  string `json:"serial_number"`
	AssetTypeID   string `json:"asset_type_id"`
	BaseID        string `json:"base_id"`
	Description   string `json:"description"`
	PurchaseDate  string `json:"purchase_date"`
	PurchasePrice string `json:"purchase_price"`
}

func toAssetDTO(a inventory.Asset) AssetDTO {
	return AssetDTO{
		ID:            string(a.ID),
		SerialNumber:  a.SerialNumber,
		AssetTypeID:   string(a.AssetTypeID),
		BaseID:        string(a.BaseID),
		Status:        string(a.Status),
		Description:   a.Description,
		PurchaseDate:  dateStr(a.PurchaseDate),
		PurchasePrice: a.PurchasePrice.String(),
		CreatedAt:     timeStr(a.CreatedAt),
	}
}

// =============================================================================
// TRANSFERS
// =============================================================================

// TransferDTO represents a transfer in API responses.
type TransferDTO struct {
	ID         string `json:"id"`
	AssetID    string `json:"asset_id"`
	FromBaseID string `json:"from_base_id"`
	ToBaseID   string `json:"to_base_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	CreatedBy  string `json:"created_by"`
	DecidedBy  string `json:"decided_by,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// CreateTransferRequest opens a transfer request.
type CreateTransferRequest struct {
	AssetID    string `json:"asset_id"`
	FromBaseID string `json:"from_base_id"`
	ToBaseID   string `json:"to_base_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
}

func toTransferDTO(t inventory.Transfer) TransferDTO {
	dto := TransferDTO{
		ID:         string(t.ID),
		AssetID:    string(t.AssetID),
		FromBaseID: string(t.FromBaseID),
		ToBaseID:   string(t.ToBaseID),
		Date:       dateStr(t.Date),
		Reason:     t.Reason,
		Status:     string(t.Status),
		CreatedBy:  string(t.CreatedBy),
		CreatedAt:  timeStr(t.CreatedAt),
		UpdatedAt:  timeStr(t.UpdatedAt),
	}
	if t.DecidedBy != nil {
		dto.DecidedBy = string(*t.DecidedBy)
	}
	return dto
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// AssignmentDTO represents an assignment in API responses.
type AssignmentDTO struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	AssignedTo   string `json:"assigned_to"`
	AssignedBy   string `json:"assigned_by"`
	AssignedDate string `json:"assigned_date"`
	ReturnDate   string `json:"return_date,omitempty"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreateAssignmentRequest assigns an asset to personnel.
type CreateAssignmentRequest struct {
	AssetID      string `json:"asset_id"`
	AssignedTo   string `json:"assigned_to"`
	AssignedDate string `json:"assigned_date"`
	Notes        string `json:"notes"`
}

// ExpireAssignmentsRequest sweeps overdue ACTIVE assignments.
type ExpireAssignmentsRequest struct {
	OlderThan string `json:"older_than"`
}

func toAssignmentDTO(a inventory.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:           string(a.ID),
		AssetID:      string(a.AssetID),
		AssignedTo:   string(a.AssignedTo),
		AssignedBy:   string(a.AssignedBy),
		AssignedDate: dateStr(a.AssignedDate),
		Status:       string(a.Status),
		Notes:        a.Notes,
		CreatedAt:    timeStr(a.CreatedAt),
	}
	if a.ReturnDate != nil {
		dto.ReturnDate = dateStr(*a.ReturnDate)
	}
	return dto
}

// =============================================================================
// LEDGER EVENTS
// =============================================================================

// PurchaseDTO represents an acquisition event in API responses.
type PurchaseDTO struct {
	ID          string `json:"id"`
	AssetTypeID string `json:"asset_type_id"`
	BaseID      string `json:"base_id"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalAmount string `json:"total_amount"`
	Supplier    string `json:"supplier,omitempty"`
	Date        string `json:"date"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreatePurchaseRequest records an acquisition.
type CreatePurchaseRequest struct {
	AssetTypeID string `json:"asset_type_id"`
	BaseID      string `json:"base_id"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Supplier    string `json:"supplier"`
	Date        string `json:"date"`
}

func toPurchaseDTO(p inventory.Purchase) PurchaseDTO {
	return PurchaseDTO{
		ID:          string(p.ID),
		AssetTypeID: string(p.AssetTypeID),
		BaseID:      string(p.BaseID),
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice.String(),
		TotalAmount: p.TotalAmount.String(),
		Supplier:    p.Supplier,
		Date:        dateStr(p.Date),
		CreatedBy:   string(p.CreatedBy),
		CreatedAt:   timeStr(p.CreatedAt),
	}
}

// ExpenditureDTO represents a consumption event in API responses.
type ExpenditureDTO struct {
	ID         string `json:"id"`
	AssetID    string `json:"asset_id"`
	BaseID     string `json:"base_id"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
	Date       string `json:"date"`
	ApprovedBy string `json:"approved_by,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateExpenditureRequest records a consumption event.
type CreateExpenditureRequest struct {
	AssetID  string `json:"asset_id"`
	BaseID   string `json:"base_id"`
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason"`
	Date     string `json:"date"`
}

func toExpenditureDTO(e inventory.Expenditure) ExpenditureDTO {
	dto := ExpenditureDTO{
		ID:        string(e.ID),
		AssetID:   string(e.AssetID),
		BaseID:    string(e.BaseID),
		Quantity:  e.Quantity,
		Reason:    e.Reason,
		Date:      dateStr(e.Date),
		CreatedAt: timeStr(e.CreatedAt),
	}
	if e.ApprovedBy != nil {
		dto.ApprovedBy = string(*e.ApprovedBy)
	}
	return dto
}

// =============================================================================
// METRICS & AUDIT
// =============================================================================

// MetricsDTO is the dashboard balance summary.
type MetricsDTO struct {
	OpeningBalance int64  `json:"opening_balance"`
	Purchases      int64  `json:"purchases"`
	TransfersIn    int64  `json:"transfers_in"`
	TransfersOut   int64  `json:"transfers_out"`
	Assigned       int64  `json:"assigned"`
	Expended       int64  `json:"expended"`
	ClosingBalance int64  `json:"closing_balance"`
	NetMovement    int64  `json:"net_movement"`
	PurchaseValue  string `json:"purchase_value"`
}

func toMetricsDTO(m inventory.Metrics) MetricsDTO {
	return MetricsDTO{
		OpeningBalance: m.OpeningBalance,
		Purchases:      m.Purchases,
		TransfersIn:    m.TransfersIn,
		TransfersOut:   m.TransfersOut,
		Assigned:       m.Assigned,
		Expended:       m.Expended,
		ClosingBalance: m.ClosingBalance,
		NetMovement:    m.NetMovement,
		PurchaseValue:  m.PurchaseValue.String(),
	}
}

// AuditEntryDTO represents one audit trail entry.
type AuditEntryDTO struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	Details     string `json:"details,omitempty"`
	ActorID     string `json:"actor_id"`
	ActorBaseID string `json:"actor_base_id,omitempty"`
	Timestamp   string `json:"timestamp"`
}

func toAuditEntryDTO(e inventory.AuditEntry) AuditEntryDTO {
	dto := AuditEntryDTO{
		ID:         string(e.ID),
		Action:     e.Action,
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		Details:    e.Details,
		ActorID:    string(e.ActorID),
		Timestamp:  timeStr(e.Timestamp),
	}
	if e.ActorBaseID != nil {
		dto.ActorBaseID = string(*e.ActorBaseID)
	}
	return dto
}

// ErrorResponse is the uniform error body. Kind discriminates the error
// class for clients (not_found, validation, invalid_filter,
// invalid_state_transition, unauthorized, conflict, internal).
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SERIALIZATION HELPERS
// =============================================================================

func dateStr(d inventory.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func timeStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
