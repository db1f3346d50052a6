/*
handlers_test.go - HTTP-level tests for the API

Drives the full router with httptest: register/login, token enforcement,
the transfer approval flow, role-gated routes, and the error contract
(status code + kind) clients depend on.
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rangaswamythommandra/asset-management/inventory/store"
)

// =============================================================================
// FIXTURE
// =============================================================================

type testAPI struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	h := NewHandler(store.NewMemory(), "test-secret", zap.NewNop())
	return &testAPI{t: t, router: NewRouter(h)}
}

// do issues a request against the router. An empty token sends no
// Authorization header.
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func (a *testAPI) register(username, role, baseID string) AuthResponse {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: username,
		Password: "hunter2!",
		Role:     role,
		BaseID:   baseID,
	})
	require.Equal(a.t, http.StatusCreated, rr.Code, "register %s: %s", username, rr.Body.String())
	return decode[AuthResponse](a.t, rr)
}

func (a *testAPI) createBase(token, name string) BaseDTO {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/bases", token, CreateBaseRequest{Name: name, Location: "somewhere"})
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[BaseDTO](a.t, rr)
}

func (a *testAPI) createAssetType(token, name string) AssetTypeDTO {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/asset-types", token, CreateAssetTypeRequest{Name: name, Category: "WEAPON"})
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[AssetTypeDTO](a.t, rr)
}

func (a *testAPI) createAsset(token, serial, typeID, baseID string) AssetDTO {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/assets", token, CreateAssetRequest{
		SerialNumber: serial,
		AssetTypeID:  typeID,
		BaseID:       baseID,
	})
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[AssetDTO](a.t, rr)
}

// =============================================================================
// AUTH
// =============================================================================

func TestRegisterAndLogin(t *testing.T) {
	// GIVEN: A fresh server
	api := newTestAPI(t)

	// WHEN: An admin registers
	reg := api.register("quartermaster", "ADMIN", "")

	// THEN: A token and the user come back
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "quartermaster", reg.User.Username)
	assert.Equal(t, "ADMIN", reg.User.Role)
	assert.Empty(t, reg.User.BaseID)

	// WHEN: They log in with the right password
	rr := api.do(http.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: "quartermaster",
		Password: "hunter2!",
	})

	// THEN: A fresh token is issued
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	login := decode[AuthResponse](t, rr)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, reg.User.ID, login.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	// GIVEN: A registered user
	api := newTestAPI(t)
	api.register("quartermaster", "ADMIN", "")

	// WHEN: They log in with the wrong password
	rr := api.do(http.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: "quartermaster",
		Password: "wrong",
	})

	// THEN: 401 with the unauthorized kind
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decode[ErrorResponse](t, rr)
	assert.Equal(t, "unauthorized", body.Kind)
}

func TestRegister_Validation(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing password", RegisterRequest{Username: "x", Role: "ADMIN"}},
		{"unknown role", RegisterRequest{Username: "x", Password: "p", Role: "SUPREME_LEADER"}},
		{"commander without base", RegisterRequest{Username: "x", Password: "p", Role: "BASE_COMMANDER"}},
		{"commander with ghost base", RegisterRequest{Username: "x", Password: "p", Role: "BASE_COMMANDER", BaseID: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(http.MethodPost, "/api/auth/register", "", tc.req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "validation", decode[ErrorResponse](t, rr).Kind)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	api := newTestAPI(t)
	api.register("quartermaster", "ADMIN", "")

	rr := api.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "quartermaster",
		Password: "other",
		Role:     "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation", decode[ErrorResponse](t, rr).Kind)
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	// WHEN: Hitting a protected route with no token
	rr := api.do(http.MethodGet, "/api/bases", "", nil)
	// THEN: 401
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, rr).Kind)

	// WHEN: Hitting it with a garbage token
	rr = api.do(http.MethodGet, "/api/bases", "not-a-jwt", nil)
	// THEN: Still 401
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// =============================================================================
// TRANSFER FLOW
// =============================================================================

func TestTransferApprovalFlow(t *testing.T) {
	// GIVEN: Two bases and an asset at the origin
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	bravo := api.createBase(admin, "Fort Bravo")
	typ := api.createAssetType(admin, "Rifle")
	asset := api.createAsset(admin, "SN-1001", typ.ID, alpha.ID)

	// WHEN: A transfer is opened
	rr := api.do(http.MethodPost, "/api/transfers", admin, CreateTransferRequest{
		AssetID:    asset.ID,
		FromBaseID: alpha.ID,
		ToBaseID:   bravo.ID,
		Date:       "2026-03-01",
		Reason:     "redeployment",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tr := decode[TransferDTO](t, rr)
	assert.Equal(t, "PENDING", tr.Status)
	assert.Empty(t, tr.DecidedBy)

	// WHEN: The admin approves it
	rr = api.do(http.MethodPost, "/api/transfers/"+tr.ID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	approved := decode[TransferDTO](t, rr)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.NotEmpty(t, approved.DecidedBy)

	// THEN: The asset has not moved yet
	rr = api.do(http.MethodGet, "/api/assets/"+asset.ID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, alpha.ID, decode[AssetDTO](t, rr).BaseID)

	// WHEN: The transfer is completed
	rr = api.do(http.MethodPost, "/api/transfers/"+tr.ID+"/complete", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "COMPLETED", decode[TransferDTO](t, rr).Status)

	// THEN: The asset now sits at the destination
	rr = api.do(http.MethodGet, "/api/assets/"+asset.ID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	moved := decode[AssetDTO](t, rr)
	assert.Equal(t, bravo.ID, moved.BaseID)
	assert.Equal(t, "AVAILABLE", moved.Status)
}

func TestTransfer_ApproveTwice(t *testing.T) {
	// GIVEN: An approved transfer
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	bravo := api.createBase(admin, "Fort Bravo")
	typ := api.createAssetType(admin, "Rifle")
	asset := api.createAsset(admin, "SN-1001", typ.ID, alpha.ID)

	rr := api.do(http.MethodPost, "/api/transfers", admin, CreateTransferRequest{
		AssetID: asset.ID, FromBaseID: alpha.ID, ToBaseID: bravo.ID, Reason: "redeployment",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	tr := decode[TransferDTO](t, rr)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfers/"+tr.ID+"/approve", admin, nil).Code)

	// WHEN: It is approved again
	rr = api.do(http.MethodPost, "/api/transfers/"+tr.ID+"/approve", admin, nil)

	// THEN: 409 with the state-transition kind
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "invalid_state_transition", decode[ErrorResponse](t, rr).Kind)
}

func TestTransfer_InboundCommanderCannotDecide(t *testing.T) {
	// GIVEN: A pending transfer and the commander of the destination base
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	bravo := api.createBase(admin, "Fort Bravo")
	typ := api.createAssetType(admin, "Rifle")
	asset := api.createAsset(admin, "SN-1001", typ.ID, alpha.ID)
	inbound := api.register("cmdr-bravo", "BASE_COMMANDER", bravo.ID).Token

	rr := api.do(http.MethodPost, "/api/transfers", admin, CreateTransferRequest{
		AssetID: asset.ID, FromBaseID: alpha.ID, ToBaseID: bravo.ID, Reason: "redeployment",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	tr := decode[TransferDTO](t, rr)

	// WHEN: The destination commander tries to approve
	rr = api.do(http.MethodPost, "/api/transfers/"+tr.ID+"/approve", inbound, nil)

	// THEN: 403, and the transfer is still pending
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, rr).Kind)

	rr = api.do(http.MethodGet, "/api/transfers/"+tr.ID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "PENDING", decode[TransferDTO](t, rr).Status)
}

// =============================================================================
// ASSIGNMENTS & ADMIN SWEEP
// =============================================================================

func TestAssignmentReturnOverHTTP(t *testing.T) {
	// GIVEN: An asset assigned to a soldier
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	typ := api.createAssetType(admin, "Radio")
	asset := api.createAsset(admin, "SN-7", typ.ID, alpha.ID)
	soldier := api.register("pvt-jenkins", "LOGISTICS_OFFICER", alpha.ID)

	rr := api.do(http.MethodPost, "/api/assignments", admin, CreateAssignmentRequest{
		AssetID:      asset.ID,
		AssignedTo:   soldier.User.ID,
		AssignedDate: "2026-02-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	asg := decode[AssignmentDTO](t, rr)
	assert.Equal(t, "ACTIVE", asg.Status)

	// WHEN: The assignment is returned
	rr = api.do(http.MethodPost, "/api/assignments/"+asg.ID+"/return", admin, nil)

	// THEN: It closes with a return date and the asset is available again
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	returned := decode[AssignmentDTO](t, rr)
	assert.Equal(t, "RETURNED", returned.Status)
	assert.NotEmpty(t, returned.ReturnDate)

	rr = api.do(http.MethodGet, "/api/assets/"+asset.ID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "AVAILABLE", decode[AssetDTO](t, rr).Status)
}

func TestExpireSweep_AdminOnly(t *testing.T) {
	// GIVEN: An overdue ACTIVE assignment
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	typ := api.createAssetType(admin, "Radio")
	asset := api.createAsset(admin, "SN-7", typ.ID, alpha.ID)
	soldier := api.register("pvt-jenkins", "LOGISTICS_OFFICER", alpha.ID)

	rr := api.do(http.MethodPost, "/api/assignments", admin, CreateAssignmentRequest{
		AssetID:      asset.ID,
		AssignedTo:   soldier.User.ID,
		AssignedDate: "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	// WHEN: A non-admin calls the sweep
	rr = api.do(http.MethodPost, "/api/admin/assignments/expire", soldier.Token,
		ExpireAssignmentsRequest{OlderThan: "2026-01-01"})
	// THEN: 403
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// WHEN: The admin calls it
	rr = api.do(http.MethodPost, "/api/admin/assignments/expire", admin,
		ExpireAssignmentsRequest{OlderThan: "2026-01-01"})
	// THEN: The overdue assignment expires, no return date, asset still held
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	expired := decode[[]AssignmentDTO](t, rr)
	require.Len(t, expired, 1)
	assert.Equal(t, "EXPIRED", expired[0].Status)
	assert.Empty(t, expired[0].ReturnDate)

	rr = api.do(http.MethodGet, "/api/assets/"+asset.ID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ASSIGNED", decode[AssetDTO](t, rr).Status)
}

// =============================================================================
// LEDGER & METRICS
// =============================================================================

func TestDashboardMetricsOverHTTP(t *testing.T) {
	// GIVEN: Two purchases in different months
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	typ := api.createAssetType(admin, "Ammo Crate")

	for _, p := range []CreatePurchaseRequest{
		{AssetTypeID: typ.ID, BaseID: alpha.ID, Quantity: 10, UnitPrice: "100.50", Date: "2026-01-10"},
		{AssetTypeID: typ.ID, BaseID: alpha.ID, Quantity: 5, UnitPrice: "100", Date: "2026-02-10"},
	} {
		rr := api.do(http.MethodPost, "/api/purchases", admin, p)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	// WHEN: Metrics are queried for the February window
	rr := api.do(http.MethodGet,
		"/api/dashboard/metrics?base_id="+alpha.ID+"&date_from=2026-02-01&date_to=2026-02-28",
		admin, nil)

	// THEN: Opening carries January, closing includes February
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	m := decode[MetricsDTO](t, rr)
	assert.Equal(t, int64(10), m.OpeningBalance)
	assert.Equal(t, int64(5), m.Purchases)
	assert.Equal(t, int64(15), m.ClosingBalance)
	assert.Equal(t, "500", m.PurchaseValue)
}

func TestListPurchases_BadFilter(t *testing.T) {
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token

	rr := api.do(http.MethodGet, "/api/purchases?date_from=junk", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_filter", decode[ErrorResponse](t, rr).Kind)
}

// =============================================================================
// AUDIT LOGS
// =============================================================================

func TestAuditLogs_RoleGate(t *testing.T) {
	// GIVEN: An admin, a commander and a logistics officer
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token
	alpha := api.createBase(admin, "Fort Alpha")
	bravo := api.createBase(admin, "Fort Bravo")
	cmdrAlpha := api.register("cmdr-alpha", "BASE_COMMANDER", alpha.ID)
	api.register("cmdr-bravo", "BASE_COMMANDER", bravo.ID)
	officer := api.register("pvt-jenkins", "LOGISTICS_OFFICER", alpha.ID)

	// WHEN: The logistics officer asks for the audit trail
	rr := api.do(http.MethodGet, "/api/audit-logs", officer.Token, nil)
	// THEN: 403
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// WHEN: The admin asks
	rr = api.do(http.MethodGet, "/api/audit-logs", admin, nil)
	// THEN: Entries from every base come back
	require.Equal(t, http.StatusOK, rr.Code)
	all := decode[[]AuditEntryDTO](t, rr)
	assert.NotEmpty(t, all)

	// WHEN: The Alpha commander asks
	rr = api.do(http.MethodGet, "/api/audit-logs", cmdrAlpha.Token, nil)
	// THEN: Only entries by Alpha actors are visible
	require.Equal(t, http.StatusOK, rr.Code)
	scoped := decode[[]AuditEntryDTO](t, rr)
	require.NotEmpty(t, scoped)
	for _, e := range scoped {
		assert.Equal(t, alpha.ID, e.ActorBaseID)
	}
	assert.Less(t, len(scoped), len(all))
}

// =============================================================================
// ERROR CONTRACT
// =============================================================================

func TestNotFoundContract(t *testing.T) {
	api := newTestAPI(t)
	admin := api.register("quartermaster", "ADMIN", "").Token

	for _, path := range []string{
		"/api/bases/ghost",
		"/api/asset-types/ghost",
		"/api/assets/ghost",
		"/api/transfers/ghost",
	} {
		rr := api.do(http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.Equal(t, "not_found", decode[ErrorResponse](t, rr).Kind, path)
	}
}
