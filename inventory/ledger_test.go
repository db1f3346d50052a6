package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangaswamythommandra/asset-management/inventory"
	"github.com/rangaswamythommandra/asset-management/inventory/store"
)

func newLedgerFixture(t *testing.T) (*inventory.LedgerService, *store.Memory) {
	t.Helper()
	m := newFixture(t)
	return inventory.NewLedgerService(m, m), m
}

// =============================================================================
// PURCHASES
// =============================================================================

func TestLedger_RecordPurchase(t *testing.T) {
	svc, m := newLedgerFixture(t)
	ctx := context.Background()

	p, err := svc.RecordPurchase(ctx, inventory.RecordPurchaseInput{
		AssetTypeID: typeRifle,
		BaseID:      baseAlpha,
		Quantity:    10,
		UnitPrice:   decimal.RequireFromString("1200.50"),
		Supplier:    "Northern Armory",
		Date:        date(2025, time.March, 1),
	}, sysAdmin)
	require.NoError(t, err)

	assert.Equal(t, int64(10), p.Quantity)
	assert.Equal(t, "12005", p.TotalAmount.String())
	assert.Equal(t, sysAdmin.ID, p.CreatedBy)

	listed, err := svc.ListPurchases(ctx, inventory.Filter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// The acquisition leaves an audit entry in the same commit.
	entries, err := m.ListAudit(ctx, inventory.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.ActionRecordPurchase, entries[0].Action)
}

func TestLedger_RecordPurchase_Validation(t *testing.T) {
	svc, _ := newLedgerFixture(t)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, inventory.RecordPurchaseInput{
		AssetTypeID: typeRifle, BaseID: baseAlpha, Quantity: 0,
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrValidation))

	_, err = svc.RecordPurchase(ctx, inventory.RecordPurchaseInput{
		AssetTypeID: typeRifle, BaseID: baseAlpha, Quantity: 5,
		UnitPrice: decimal.NewFromInt(-1),
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrValidation))

	_, err = svc.RecordPurchase(ctx, inventory.RecordPurchaseInput{
		AssetTypeID: "ghost-type", BaseID: baseAlpha, Quantity: 5,
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrNotFound))

	_, err = svc.RecordPurchase(ctx, inventory.RecordPurchaseInput{
		AssetTypeID: typeRifle, BaseID: "ghost-base", Quantity: 5,
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrNotFound))
}

// =============================================================================
// EXPENDITURES
// =============================================================================

func TestLedger_RecordExpenditure_MarksAssetExpended(t *testing.T) {
	svc, m := newLedgerFixture(t)
	ctx := context.Background()
	seedAsset(t, m, "asset-1", baseAlpha)

	e, err := svc.RecordExpenditure(ctx, inventory.RecordExpenditureInput{
		AssetID:  "asset-1",
		BaseID:   baseAlpha,
		Quantity: 1,
		Reason:   "live-fire exercise",
		Date:     date(2025, time.March, 10),
	}, sysAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Quantity)

	asset, err := m.GetAsset(ctx, "asset-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.AssetExpended, asset.Status)
}

func TestLedger_RecordExpenditure_Validation(t *testing.T) {
	svc, m := newLedgerFixture(t)
	ctx := context.Background()
	seedAsset(t, m, "asset-1", baseAlpha)

	_, err := svc.RecordExpenditure(ctx, inventory.RecordExpenditureInput{
		AssetID: "asset-1", BaseID: baseAlpha, Quantity: 1,
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrValidation), "reason is required")

	_, err = svc.RecordExpenditure(ctx, inventory.RecordExpenditureInput{
		AssetID: "asset-1", BaseID: baseBravo, Quantity: 1, Reason: "x",
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrValidation), "asset is at another base")

	_, err = svc.RecordExpenditure(ctx, inventory.RecordExpenditureInput{
		AssetID: "ghost", BaseID: baseAlpha, Quantity: 1, Reason: "x",
	}, sysAdmin)
	assert.True(t, errors.Is(err, inventory.ErrNotFound))
}

func TestLedger_RecordExpenditure_AlreadyExpended(t *testing.T) {
	svc, m := newLedgerFixture(t)
	ctx := context.Background()
	seedAsset(t, m, "asset-1", baseAlpha)

	_, err := svc.RecordExpenditure(ctx, inventory.RecordExpenditureInput{
		AssetID: "asset-1", BaseID: baseAlpha, Quantity: 1, Reason: "exercise",
	}, sysAdmin)
	require.NoError(t, err)

	_, err = svc.RecordExpenditure(ctx, inventory.RecordExpenditureInput{
		AssetID: "asset-1", BaseID: baseAlpha, Quantity: 1, Reason: "again",
	}, sysAdmin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrValidation))
}
