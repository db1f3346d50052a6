/*
ledger.go - Recording acquisition and consumption events

PURPOSE:
  Purchases bring stock in, expenditures write it off. Both are immutable
  once recorded; corrections are administrative follow-up events, never
  edits. Each write commits together with its audit entry.

MONEY:
  Unit prices arrive as fixed-point decimal strings and stay decimal all
  the way through: TotalAmount = UnitPrice * Quantity computed with
  decimal arithmetic, no floats.

SEE ALSO:
  - metrics.go: Sums these events into balances
  - audit.go: The entries emitted per record
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordPurchaseInput is the request shape for an acquisition event.
type RecordPurchaseInput struct {
	AssetTypeID AssetTypeID
	BaseID      BaseID
	Quantity    int64
	UnitPrice   decimal.Decimal
	Supplier    string
	Date        Date
}

// RecordExpenditureInput is the request shape for a consumption event.
type RecordExpenditureInput struct {
	AssetID  AssetID
	BaseID   BaseID
	Quantity int64
	Reason   string
	Date     Date
}

// LedgerService records purchases and expenditures.
type LedgerService struct {
	Ledger  LedgerStore
	Catalog CatalogStore
}

func NewLedgerService(ledger LedgerStore, catalog CatalogStore) *LedgerService {
	return &LedgerService{Ledger: ledger, Catalog: catalog}
}

// RecordPurchase validates and appends one acquisition event.
func (s *LedgerService) RecordPurchase(ctx context.Context, in RecordPurchaseInput, actor User) (*Purchase, error) {
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if in.UnitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if in.Date.IsZero() {
		in.Date = Today()
	}

	assetType, err := s.Catalog.GetAssetType(ctx, in.AssetTypeID)
	if err != nil {
		return nil, err
	}
	if assetType == nil {
		return nil, &NotFoundError{Entity: "asset type", ID: string(in.AssetTypeID)}
	}
	base, err := s.Catalog.GetBase(ctx, in.BaseID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, &NotFoundError{Entity: "base", ID: string(in.BaseID)}
	}

	p := Purchase{
		ID:          PurchaseID(uuid.NewString()),
		AssetTypeID: in.AssetTypeID,
		BaseID:      in.BaseID,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TotalAmount: in.UnitPrice.Mul(decimal.NewFromInt(in.Quantity)),
		Supplier:    in.Supplier,
		Date:        in.Date,
		CreatedBy:   actor.ID,
	}

	audit := NewAuditEntry(ActionRecordPurchase, EntityPurchase, string(p.ID),
		fmt.Sprintf("Recorded purchase of %d x %s at base %s", p.Quantity, assetType.Name, base.Name),
		actor)

	if err := s.Ledger.CreatePurchase(ctx, p, audit); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPurchases returns acquisition events matching the filter.
func (s *LedgerService) ListPurchases(ctx context.Context, f Filter) ([]Purchase, error) {
	return s.Ledger.ListPurchases(ctx, f)
}

// RecordExpenditure validates and appends one consumption event. The asset
// is marked EXPENDED in the same transaction.
func (s *LedgerService) RecordExpenditure(ctx context.Context, in RecordExpenditureInput, actor User) (*Expenditure, error) {
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
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
	if asset.BaseID != in.BaseID {
		return nil, &ValidationError{Field: "base_id", Reason: "asset is not at this base"}
	}
	if asset.Status == AssetExpended {
		return nil, &ValidationError{Field: "asset_id", Reason: "asset already expended"}
	}

	e := Expenditure{
		ID:       ExpenditureID(uuid.NewString()),
		AssetID:  in.AssetID,
		BaseID:   in.BaseID,
		Quantity: in.Quantity,
		Reason:   in.Reason,
		Date:     in.Date,
	}

	audit := NewAuditEntry(ActionRecordExpenditure, EntityExpenditure, string(e.ID),
		fmt.Sprintf("Expended %d of asset %s (%s) at base %s: %s",
			e.Quantity, asset.SerialNumber, asset.ID, e.BaseID, e.Reason),
		actor)

	if err := s.Ledger.CreateExpenditure(ctx, e, audit); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExpenditures returns consumption events matching the filter.
func (s *LedgerService) ListExpenditures(ctx context.Context, f Filter) ([]Expenditure, error) {
	return s.Ledger.ListExpenditures(ctx, f)
}
