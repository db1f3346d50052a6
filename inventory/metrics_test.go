package inventory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangaswamythommandra/asset-management/inventory"
	"github.com/rangaswamythommandra/asset-management/inventory/store"
)

// =============================================================================
// FIXTURE
// =============================================================================

const (
	baseAlpha = inventory.BaseID("base-alpha")
	baseBravo = inventory.BaseID("base-bravo")
	typeRifle = inventory.AssetTypeID("type-rifle")
)

var sysAdmin = inventory.User{ID: "admin-1", Username: "root", Role: inventory.RoleAdmin}

func newFixture(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateBase(ctx, inventory.Base{ID: baseAlpha, Name: "Alpha"}))
	require.NoError(t, m.CreateBase(ctx, inventory.Base{ID: baseBravo, Name: "Bravo"}))
	require.NoError(t, m.CreateAssetType(ctx, inventory.AssetType{ID: typeRifle, Name: "Rifle"}))
	return m
}

func seedAsset(t *testing.T, m *store.Memory, id inventory.AssetID, base inventory.BaseID) {
	t.Helper()
	require.NoError(t, m.CreateAsset(context.Background(), inventory.Asset{
		ID:           id,
		SerialNumber: "SN-" + string(id),
		AssetTypeID:  typeRifle,
		BaseID:       base,
		Status:       inventory.AssetAvailable,
	}))
}

func seedPurchase(t *testing.T, m *store.Memory, base inventory.BaseID, qty int64, unitPrice string, d inventory.Date) {
	t.Helper()
	price := decimal.RequireFromString(unitPrice)
	p := inventory.Purchase{
		ID:          inventory.PurchaseID(fmt.Sprintf("p-%s-%s-%d", base, d, qty)),
		AssetTypeID: typeRifle,
		BaseID:      base,
		Quantity:    qty,
		UnitPrice:   price,
		TotalAmount: price.Mul(decimal.NewFromInt(qty)),
		Date:        d,
		CreatedBy:   sysAdmin.ID,
	}
	audit := inventory.NewAuditEntry(inventory.ActionRecordPurchase, inventory.EntityPurchase, string(p.ID), "", sysAdmin)
	require.NoError(t, m.CreatePurchase(context.Background(), p, audit))
}

func seedCompletedTransfer(t *testing.T, m *store.Memory, id inventory.TransferID, asset inventory.AssetID, from, to inventory.BaseID, d inventory.Date) {
	t.Helper()
	tr := inventory.Transfer{
		ID:         id,
		AssetID:    asset,
		FromBaseID: from,
		ToBaseID:   to,
		Date:       d,
		Reason:     "rebalance",
		Status:     inventory.TransferCompleted,
		CreatedBy:  sysAdmin.ID,
		Version:    3,
	}
	audit := inventory.NewAuditEntry(inventory.ActionCompleteTransfer, inventory.EntityTransfer, string(id), "", sysAdmin)
	require.NoError(t, m.CreateTransfer(context.Background(), tr, audit))
}

func baseFilter(base inventory.BaseID) inventory.Filter {
	b := base
	return inventory.Filter{BaseID: &b}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestMetrics_PurchaseOfTen(t *testing.T) {
	// GIVEN: A base with a single purchase of 10 rifles
	// WHEN: Metrics are computed for that base with no date window
	// THEN: Closing balance and net movement are both 10, opening is 0

	m := newFixture(t)
	seedPurchase(t, m, baseAlpha, 10, "1200.50", date(2025, time.March, 1))

	agg := inventory.NewAggregator(m)
	got, err := agg.Metrics(context.Background(), baseFilter(baseAlpha))
	require.NoError(t, err)

	assert.Equal(t, int64(0), got.OpeningBalance)
	assert.Equal(t, int64(10), got.Purchases)
	assert.Equal(t, int64(10), got.ClosingBalance)
	assert.Equal(t, int64(10), got.NetMovement)
	assert.Equal(t, "12005", got.PurchaseValue.String())
}

func TestMetrics_BalanceIdentity(t *testing.T) {
	// GIVEN: Purchases, completed transfers both ways, an active assignment,
	//        and an expenditure, all at one base
	// THEN: closing = opening + purchases + in - out - assigned - expended

	m := newFixture(t)
	ctx := context.Background()

	seedPurchase(t, m, baseAlpha, 10, "100", date(2025, time.March, 1))

	seedAsset(t, m, "asset-in", baseAlpha)
	seedCompletedTransfer(t, m, "tr-in", "asset-in", baseBravo, baseAlpha, date(2025, time.March, 5))
	seedAsset(t, m, "asset-out", baseBravo)
	seedCompletedTransfer(t, m, "tr-out", "asset-out", baseAlpha, baseBravo, date(2025, time.March, 6))

	seedAsset(t, m, "asset-assigned", baseAlpha)
	audit := inventory.NewAuditEntry(inventory.ActionAssignAsset, inventory.EntityAssignment, "as-1", "", sysAdmin)
	require.NoError(t, m.CreateAssignment(ctx, inventory.Assignment{
		ID:           "as-1",
		AssetID:      "asset-assigned",
		AssignedTo:   "soldier-1",
		AssignedBy:   sysAdmin.ID,
		AssignedDate: date(2025, time.March, 10),
		Status:       inventory.AssignmentActive,
	}, audit))

	seedAsset(t, m, "asset-spent", baseAlpha)
	audit = inventory.NewAuditEntry(inventory.ActionRecordExpenditure, inventory.EntityExpenditure, "ex-1", "", sysAdmin)
	require.NoError(t, m.CreateExpenditure(ctx, inventory.Expenditure{
		ID:       "ex-1",
		AssetID:  "asset-spent",
		BaseID:   baseAlpha,
		Quantity: 2,
		Reason:   "training",
		Date:     date(2025, time.March, 12),
	}, audit))

	agg := inventory.NewAggregator(m)
	got, err := agg.Metrics(ctx, baseFilter(baseAlpha))
	require.NoError(t, err)

	assert.Equal(t, int64(10), got.Purchases)
	assert.Equal(t, int64(1), got.TransfersIn)
	assert.Equal(t, int64(1), got.TransfersOut)
	assert.Equal(t, int64(1), got.Assigned)
	assert.Equal(t, int64(2), got.Expended)

	wantClosing := got.OpeningBalance + got.Purchases + got.TransfersIn -
		got.TransfersOut - got.Assigned - got.Expended
	assert.Equal(t, wantClosing, got.ClosingBalance)
	assert.Equal(t, got.Purchases+got.TransfersIn-got.TransfersOut, got.NetMovement)
}

func TestMetrics_OpeningBalanceRecomputed(t *testing.T) {
	// GIVEN: A purchase of 10 before the window and 5 inside it
	// WHEN: Metrics run for the February window
	// THEN: Opening is the closing of everything before, and repeating the
	//       query gives the same answer

	m := newFixture(t)
	seedPurchase(t, m, baseAlpha, 10, "100", date(2025, time.January, 10))
	seedPurchase(t, m, baseAlpha, 5, "100", date(2025, time.February, 15))

	from := date(2025, time.February, 1)
	to := date(2025, time.February, 28)
	f := baseFilter(baseAlpha)
	f.From = &from
	f.To = &to

	agg := inventory.NewAggregator(m)

	first, err := agg.Metrics(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.OpeningBalance)
	assert.Equal(t, int64(5), first.Purchases)
	assert.Equal(t, int64(15), first.ClosingBalance)
	// In-window monetary total only.
	assert.Equal(t, "500", first.PurchaseValue.String())

	second, err := agg.Metrics(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMetrics_PendingTransfersDoNotMoveStock(t *testing.T) {
	m := newFixture(t)
	seedAsset(t, m, "asset-1", baseAlpha)

	tr := inventory.Transfer{
		ID:         "tr-pending",
		AssetID:    "asset-1",
		FromBaseID: baseAlpha,
		ToBaseID:   baseBravo,
		Date:       date(2025, time.March, 1),
		Reason:     "pending move",
		Status:     inventory.TransferPending,
		CreatedBy:  sysAdmin.ID,
		Version:    1,
	}
	audit := inventory.NewAuditEntry(inventory.ActionCreateTransfer, inventory.EntityTransfer, "tr-pending", "", sysAdmin)
	require.NoError(t, m.CreateTransfer(context.Background(), tr, audit))

	agg := inventory.NewAggregator(m)
	got, err := agg.Metrics(context.Background(), baseFilter(baseAlpha))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TransfersIn)
	assert.Equal(t, int64(0), got.TransfersOut)
}

func TestMetrics_UnknownBaseYieldsZeroes(t *testing.T) {
	// A base with no records is an empty result, not an error.
	m := newFixture(t)
	seedPurchase(t, m, baseAlpha, 10, "100", date(2025, time.March, 1))

	agg := inventory.NewAggregator(m)
	got, err := agg.Metrics(context.Background(), baseFilter("base-nowhere"))
	require.NoError(t, err)
	assert.Equal(t, inventory.Metrics{PurchaseValue: decimal.Zero}, got)
}

func TestMetrics_UnfilteredTransfersNetToZero(t *testing.T) {
	// Without a base filter every completed transfer counts on both sides.
	m := newFixture(t)
	seedAsset(t, m, "asset-1", baseAlpha)
	seedCompletedTransfer(t, m, "tr-1", "asset-1", baseBravo, baseAlpha, date(2025, time.March, 5))

	agg := inventory.NewAggregator(m)
	got, err := agg.Metrics(context.Background(), inventory.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TransfersIn)
	assert.Equal(t, int64(1), got.TransfersOut)
	assert.Equal(t, int64(0), got.NetMovement)
}
