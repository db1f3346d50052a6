/*
handlers.go - HTTP handlers for the asset management API

PURPOSE:
  Exposes the inventory domain via REST. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the domain services.

ENDPOINTS:
  Auth:
    POST   /api/auth/register           Create account
    POST   /api/auth/login              Authenticate, returns JWT

  Catalog:
    GET    /api/bases                   List bases
    POST   /api/bases                   Create base
    GET    /api/bases/{id}              Get base
    (asset-types and assets follow the same shape)

  Transfers:
    POST   /api/transfers               Open PENDING transfer
    GET    /api/transfers               List (filterable)
    GET    /api/transfers/{id}          Get one
    POST   /api/transfers/{id}/approve  PENDING -> APPROVED
    POST   /api/transfers/{id}/reject   PENDING -> REJECTED
    POST   /api/transfers/{id}/complete APPROVED -> COMPLETED, moves asset

  Assignments:
    POST   /api/assignments                    Assign asset
    GET    /api/assignments                    List (filterable, ?status=)
    POST   /api/assignments/{id}/return        ACTIVE -> RETURNED
    POST   /api/admin/assignments/expire       Sweep overdue ACTIVE

  Ledger:
    POST   /api/purchases               Record acquisition
    GET    /api/purchases               List (filterable)
    POST   /api/expenditures            Record consumption
    GET    /api/expenditures            List (filterable)

  Reporting:
    GET    /api/dashboard/metrics       Balance summary for a filter
    GET    /api/audit-logs              Audit trail (ADMIN, BASE_COMMANDER)

ERROR HANDLING:
  Domain errors map to HTTP status through errorStatus():
  - 400: validation, invalid_filter
  - 403: unauthorized
  - 404: not_found
  - 409: invalid_state_transition, conflict
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
  - inventory/: The domain services these delegate to
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rangaswamythommandra/asset-management/auth"
	"github.com/rangaswamythommandra/asset-management/inventory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       inventory.Store
	Transfers   *inventory.TransferService
	Assignments *inventory.AssignmentService
	Ledger      *inventory.LedgerService
	Aggregator  *inventory.Aggregator
	JWTSecret   string
	Logger      *zap.Logger
}

// NewHandler wires the domain services over the given store.
func NewHandler(store inventory.Store, jwtSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:       store,
		Transfers:   inventory.NewTransferService(store, store),
		Assignments: inventory.NewAssignmentService(store, store, store),
		Ledger:      inventory.NewLedgerService(store, store),
		Aggregator:  inventory.NewAggregator(store),
		JWTSecret:   jwtSecret,
		Logger:      logger,
	}
}

// =============================================================================
// AUTH
// =============================================================================

// Register creates a user account and returns a token.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation", "username and password are required", nil)
		return
	}

	role := inventory.Role(req.Role)
	switch role {
	case inventory.RoleAdmin, inventory.RoleBaseCommander, inventory.RoleLogisticsOfficer:
	default:
		writeError(w, http.StatusBadRequest, "validation", "unknown role", nil)
		return
	}
	if role != inventory.RoleAdmin && req.BaseID == "" {
		writeError(w, http.StatusBadRequest, "validation", "base_id is required for non-admin roles", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to hash password", err)
		return
	}

	u := inventory.User{
		ID:           inventory.UserID(uuid.NewString()),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}
	if req.BaseID != "" {
		base, err := h.Store.GetBase(r.Context(), inventory.BaseID(req.BaseID))
		if err != nil {
			h.internalError(w, "failed to look up base", err)
			return
		}
		if base == nil {
			writeError(w, http.StatusBadRequest, "validation", "unknown base", nil)
			return
		}
		u.BaseID = &base.ID
	}

	audit := inventory.NewAuditEntry(inventory.ActionRegisterUser, inventory.EntityUser,
		string(u.ID), u.Username, u)
	if err := h.Store.CreateUser(r.Context(), u, audit); err != nil {
		h.domainError(w, "failed to register user", err)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, u)
	if err != nil {
		h.internalError(w, "failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: toUserDTO(u)})
}

// Login authenticates a user and returns a token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}

	u, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.internalError(w, "failed to look up user", err)
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.Logger.Warn("login failed", zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, *u)
	if err != nil {
		h.internalError(w, "failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: toUserDTO(*u)})
}

// =============================================================================
// CATALOG
// =============================================================================

// ListBases returns all bases.
// GET /api/bases
func (h *Handler) ListBases(w http.ResponseWriter, r *http.Request) {
	bases, err := h.Store.ListBases(r.Context())
	if err != nil {
		h.internalError(w, "failed to list bases", err)
		return
	}
	dtos := make([]BaseDTO, len(bases))
	for i, b := range bases {
		dtos[i] = toBaseDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBase registers a new base.
// POST /api/bases
func (h *Handler) CreateBase(w http.ResponseWriter, r *http.Request) {
	var req CreateBaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation", "name is required", nil)
		return
	}

	b := inventory.Base{
		ID:          inventory.BaseID(uuid.NewString()),
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
	}
	if err := h.Store.CreateBase(r.Context(), b); err != nil {
		h.domainError(w, "failed to create base", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBaseDTO(b))
}

// GetBase returns one base.
// GET /api/bases/{id}
func (h *Handler) GetBase(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.GetBase(r.Context(), inventory.BaseID(chi.URLParam(r, "id")))
	if err != nil {
		h.internalError(w, "failed to get base", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "not_found", "base not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toBaseDTO(*b))
}

// ListAssetTypes returns all asset types.
// GET /api/asset-types
func (h *Handler) ListAssetTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListAssetTypes(r.Context())
	if err != nil {
		h.internalError(w, "failed to list asset types", err)
		return
	}
	dtos := make([]AssetTypeDTO, len(types))
	for i, at := range types {
		dtos[i] = toAssetTypeDTO(at)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssetType registers a new asset type.
// POST /api/asset-types
func (h *Handler) CreateAssetType(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation", "name is required", nil)
		return
	}

	at := inventory.AssetType{
		ID:          inventory.AssetTypeID(uuid.NewString()),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	}
	if err := h.Store.CreateAssetType(r.Context(), at); err != nil {
		h.domainError(w, "failed to create asset type", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetTypeDTO(at))
}

// GetAssetType returns one asset type.
// GET /api/asset-types/{id}
func (h *Handler) GetAssetType(w http.ResponseWriter, r *http.Request) {
	at, err := h.Store.GetAssetType(r.Context(), inventory.AssetTypeID(chi.URLParam(r, "id")))
	if err != nil {
		h.internalError(w, "failed to get asset type", err)
		return
	}
	if at == nil {
		writeError(w, http.StatusNotFound, "not_found", "asset type not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAssetTypeDTO(*at))
}

// ListAssets returns assets matching the query filter.
// GET /api/assets?base_id=&asset_type_id=&asset_id=&date_from=&date_to=
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	assets, err := h.Store.ListAssets(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to list assets", err)
		return
	}
	dtos := make([]AssetDTO, len(assets))
	for i, a := range assets {
		dtos[i] = toAssetDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAsset registers a new asset.
// POST /api/assets
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}
	if req.SerialNumber == "" || req.AssetTypeID == "" || req.BaseID == "" {
		writeError(w, http.StatusBadRequest, "validation",
			"serial_number, asset_type_id and base_id are required", nil)
		return
	}

	a := inventory.Asset{
		ID:           inventory.AssetID(uuid.NewString()),
		SerialNumber: req.SerialNumber,
		AssetTypeID:  inventory.AssetTypeID(req.AssetTypeID),
		BaseID:       inventory.BaseID(req.BaseID),
		Status:       inventory.AssetAvailable,
		Description:  req.Description,
	}
	if req.PurchaseDate != "" {
		d, err := inventory.ParseDate(req.PurchaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid purchase_date", err)
			return
		}
		a.PurchaseDate = d
	}
	if req.PurchasePrice != "" {
		price, err := decimal.NewFromString(req.PurchasePrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid purchase_price", err)
			return
		}
		a.PurchasePrice = price
	}

	if err := h.Store.CreateAsset(r.Context(), a); err != nil {
		h.domainError(w, "failed to create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetDTO(a))
}

// GetAsset returns one asset.
// GET /api/assets/{id}
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAsset(r.Context(), inventory.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.internalError(w, "failed to get asset", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "not_found", "asset not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(*a))
}

// =============================================================================
// TRANSFERS
// =============================================================================

// CreateTransfer opens a PENDING transfer.
// POST /api/transfers
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}

	in := inventory.CreateTransferInput{
		AssetID:    inventory.AssetID(req.AssetID),
		FromBaseID: inventory.BaseID(req.FromBaseID),
		ToBaseID:   inventory.BaseID(req.ToBaseID),
		Reason:     req.Reason,
	}
	if req.Date != "" {
		d, err := inventory.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid date", err)
			return
		}
		in.Date = d
	}

	t, err := h.Transfers.Create(r.Context(), in, actor)
	if err != nil {
		h.domainError(w, "failed to create transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferDTO(*t))
}

// ListTransfers returns transfers matching the query filter.
// GET /api/transfers
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	transfers, err := h.Transfers.List(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to list transfers", err)
		return
	}
	dtos := make([]TransferDTO, len(transfers))
	for i, t := range transfers {
		dtos[i] = toTransferDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTransfer returns one transfer.
// GET /api/transfers/{id}
func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	t, err := h.Transfers.Get(r.Context(), inventory.TransferID(chi.URLParam(r, "id")))
	if err != nil {
		h.domainError(w, "failed to get transfer", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferDTO(*t))
}

// ApproveTransfer moves a PENDING transfer to APPROVED.
// POST /api/transfers/{id}/approve
func (h *Handler) ApproveTransfer(w http.ResponseWriter, r *http.Request) {
	h.decideTransfer(w, r, h.Transfers.Approve)
}

// RejectTransfer moves a PENDING transfer to REJECTED.
// POST /api/transfers/{id}/reject
func (h *Handler) RejectTransfer(w http.ResponseWriter, r *http.Request) {
	h.decideTransfer(w, r, h.Transfers.Reject)
}

// CompleteTransfer moves an APPROVED transfer to COMPLETED and relocates
// the asset.
// POST /api/transfers/{id}/complete
func (h *Handler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	h.decideTransfer(w, r, h.Transfers.Complete)
}

func (h *Handler) decideTransfer(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id inventory.TransferID, actor inventory.User) (*inventory.Transfer, error)) {

	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	t, err := op(r.Context(), inventory.TransferID(chi.URLParam(r, "id")), actor)
	if err != nil {
		h.domainError(w, "transfer transition failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferDTO(*t))
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// CreateAssignment assigns an AVAILABLE asset to personnel.
// POST /api/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}

	in := inventory.CreateAssignmentInput{
		AssetID:    inventory.AssetID(req.AssetID),
		AssignedTo: inventory.UserID(req.AssignedTo),
		Notes:      req.Notes,
	}
	if req.AssignedDate != "" {
		d, err := inventory.ParseDate(req.AssignedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid assigned_date", err)
			return
		}
		in.AssignedDate = d
	}

	a, err := h.Assignments.Create(r.Context(), in, actor)
	if err != nil {
		h.domainError(w, "failed to create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*a))
}

// ListAssignments returns assignments matching the query filter.
// GET /api/assignments?status=ACTIVE&...
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	var status *inventory.AssignmentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := inventory.AssignmentStatus(s)
		status = &st
	}

	assignments, err := h.Assignments.List(r.Context(), f, status)
	if err != nil {
		h.internalError(w, "failed to list assignments", err)
		return
	}
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReturnAssignment closes an ACTIVE assignment and frees the asset.
// POST /api/assignments/{id}/return
func (h *Handler) ReturnAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	a, err := h.Assignments.Return(r.Context(), inventory.AssignmentID(chi.URLParam(r, "id")), actor)
	if err != nil {
		h.domainError(w, "failed to return assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// ExpireAssignments sweeps ACTIVE assignments older than the cutoff.
// Intended for an external scheduler.
// POST /api/admin/assignments/expire
func (h *Handler) ExpireAssignments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req ExpireAssignmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}
	cutoff, err := inventory.ParseDate(req.OlderThan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid older_than date", err)
		return
	}

	expired, err := h.Assignments.ExpireOverdue(r.Context(), cutoff, actor)
	if err != nil {
		h.domainError(w, "expiry sweep failed", err)
		return
	}
	dtos := make([]AssignmentDTO, len(expired))
	for i, a := range expired {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER EVENTS
// =============================================================================

// CreatePurchase records an acquisition event.
// POST /api/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}

	unitPrice := decimal.Zero
	if req.UnitPrice != "" {
		var err error
		unitPrice, err = decimal.NewFromString(req.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid unit_price", err)
			return
		}
	}

	in := inventory.RecordPurchaseInput{
		AssetTypeID: inventory.AssetTypeID(req.AssetTypeID),
		BaseID:      inventory.BaseID(req.BaseID),
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
		Supplier:    req.Supplier,
	}
	if req.Date != "" {
		d, err := inventory.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid date", err)
			return
		}
		in.Date = d
	}

	p, err := h.Ledger.RecordPurchase(r.Context(), in, actor)
	if err != nil {
		h.domainError(w, "failed to record purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseDTO(*p))
}

// ListPurchases returns purchases matching the query filter.
// GET /api/purchases
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	purchases, err := h.Ledger.ListPurchases(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to list purchases", err)
		return
	}
	dtos := make([]PurchaseDTO, len(purchases))
	for i, p := range purchases {
		dtos[i] = toPurchaseDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpenditure records a consumption event.
// POST /api/expenditures
func (h *Handler) CreateExpenditure(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req CreateExpenditureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", err)
		return
	}

	in := inventory.RecordExpenditureInput{
		AssetID:  inventory.AssetID(req.AssetID),
		BaseID:   inventory.BaseID(req.BaseID),
		Quantity: req.Quantity,
		Reason:   req.Reason,
	}
	if req.Date != "" {
		d, err := inventory.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid date", err)
			return
		}
		in.Date = d
	}

	e, err := h.Ledger.RecordExpenditure(r.Context(), in, actor)
	if err != nil {
		h.domainError(w, "failed to record expenditure", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenditureDTO(*e))
}

// ListExpenditures returns expenditures matching the query filter.
// GET /api/expenditures
func (h *Handler) ListExpenditures(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	expenditures, err := h.Ledger.ListExpenditures(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to list expenditures", err)
		return
	}
	dtos := make([]ExpenditureDTO, len(expenditures))
	for i, e := range expenditures {
		dtos[i] = toExpenditureDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORTING
// =============================================================================

// DashboardMetrics returns the balance summary for a filter window.
// GET /api/dashboard/metrics
func (h *Handler) DashboardMetrics(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	m, err := h.Aggregator.Metrics(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to aggregate metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, toMetricsDTO(m))
}

// ListAuditLogs returns the audit trail. Base commanders only see
// activity attributed to their own base.
// GET /api/audit-logs
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	q := r.URL.Query()
	f, err := inventory.ParseAuditFilter(q.Get("base_id"), q.Get("entity_type"),
		q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		h.domainError(w, "invalid audit filter", err)
		return
	}
	if actor.Role == inventory.RoleBaseCommander {
		f.ActorBaseID = actor.BaseID
	}

	entries, err := h.Store.ListAudit(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to list audit entries", err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (inventory.Filter, bool) {
	q := r.URL.Query()
	f, err := inventory.ParseFilter(q.Get("base_id"), q.Get("asset_type_id"),
		q.Get("asset_id"), q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		h.domainError(w, "invalid filter", err)
		return inventory.Filter{}, false
	}
	return f, true
}

func (h *Handler) domainError(w http.ResponseWriter, message string, err error) {
	status, kind := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
	}
	writeError(w, status, kind, message, err)
}

func (h *Handler) internalError(w http.ResponseWriter, message string, err error) {
	h.Logger.Error(message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal", message, err)
}

// errorStatus maps domain errors to HTTP status and error kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, inventory.ErrInvalidFilter):
		return http.StatusBadRequest, "invalid_filter"
	case errors.Is(err, inventory.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, inventory.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, inventory.ErrInvalidStateTransition):
		return http.StatusConflict, "invalid_state_transition"
	case errors.Is(err, inventory.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, message string, err error) {
	resp := ErrorResponse{Error: message, Kind: kind}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func toBaseDTO(b inventory.Base) BaseDTO {
	return BaseDTO{
		ID:          string(b.ID),
		Name:        b.Name,
		Location:    b.Location,
		Description: b.Description,
		CreatedAt:   timeStr(b.CreatedAt),
	}
}

func toAssetTypeDTO(at inventory.AssetType) AssetTypeDTO {
	return AssetTypeDTO{
		ID:          string(at.ID),
		Name:        at.Name,
		Category:    at.Category,
		Description: at.Description,
		CreatedAt:   timeStr(at.CreatedAt),
	}
}
