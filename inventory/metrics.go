/*
metrics.go - Balance and movement aggregation

PURPOSE:
  Computes the dashboard figures for an arbitrary filter by composing
  purchase, transfer, assignment, and expenditure totals from the event
  store. Balance is always derived from events - there is no stored
  balance that can drift out of sync.

THE BALANCE IDENTITY:
  closing = opening + purchases + transfersIn - transfersOut
            - assigned - expended
  netMovement = purchases + transfersIn - transfersOut

  All quantity sums are int64 - exact, no tolerance. Monetary totals use
  decimal.Decimal.

OPENING BALANCE:
  Recomputed by running the same aggregation over the window that ends the
  day before the filter's start. This is always recomputation, never a
  persisted snapshot, so repeated queries over the same window are
  idempotent by construction. A filter with no start date has an opening
  balance of zero.

TRANSFER DIRECTION:
  Only COMPLETED transfers move stock. With a base filter, a transfer
  counts as "in" when its destination matches and "out" when its origin
  matches. Without one, every completed transfer counts on both sides and
  the movement nets to zero, as it should across the whole system.

SEE ALSO:
  - filter.go: The filter the aggregation runs under
  - store.go: EventStore, the read surface this consumes
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// METRICS - The dashboard tuple
// =============================================================================

// Metrics is the point-in-time stock picture for a filter. Quantities are
// exact counts; PurchaseValue is the monetary total of matching purchases.
type Metrics struct {
	OpeningBalance int64
	Purchases      int64
	TransfersIn    int64
	TransfersOut   int64
	Assigned       int64
	Expended       int64
	ClosingBalance int64
	NetMovement    int64
	PurchaseValue  decimal.Decimal
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator derives Metrics from event records. Reads only; safe to run
// concurrently with writers.
type Aggregator struct {
	Store EventStore
}

func NewAggregator(store EventStore) *Aggregator {
	return &Aggregator{Store: store}
}

// Metrics computes the full dashboard tuple for the filter.
func (a *Aggregator) Metrics(ctx context.Context, f Filter) (Metrics, error) {
	m, err := a.window(ctx, f)
	if err != nil {
		return Metrics{}, err
	}

	if f.From != nil {
		opening := f
		opening.From = nil
		before := f.From.AddDays(-1)
		opening.To = &before

		prior, err := a.window(ctx, opening)
		if err != nil {
			return Metrics{}, err
		}
		m.OpeningBalance = prior.ClosingBalance
		m.ClosingBalance += prior.ClosingBalance
	}

	return m, nil
}

// window aggregates a single date window with an opening balance of zero.
func (a *Aggregator) window(ctx context.Context, f Filter) (Metrics, error) {
	var m Metrics
	m.PurchaseValue = decimal.Zero

	purchases, err := a.Store.ListPurchases(ctx, f)
	if err != nil {
		return Metrics{}, fmt.Errorf("aggregating purchases: %w", err)
	}
	for _, p := range purchases {
		m.Purchases += p.Quantity
		m.PurchaseValue = m.PurchaseValue.Add(p.TotalAmount)
	}

	in, out, err := a.transferMovement(ctx, f)
	if err != nil {
		return Metrics{}, err
	}
	m.TransfersIn = in
	m.TransfersOut = out

	active := AssignmentActive
	assignments, err := a.Store.ListAssignments(ctx, f, &active)
	if err != nil {
		return Metrics{}, fmt.Errorf("aggregating assignments: %w", err)
	}
	m.Assigned = int64(len(assignments))

	expenditures, err := a.Store.ListExpenditures(ctx, f)
	if err != nil {
		return Metrics{}, fmt.Errorf("aggregating expenditures: %w", err)
	}
	for _, e := range expenditures {
		m.Expended += e.Quantity
	}

	m.NetMovement = m.Purchases + m.TransfersIn - m.TransfersOut
	m.ClosingBalance = m.Purchases + m.TransfersIn - m.TransfersOut - m.Assigned - m.Expended
	return m, nil
}

// transferMovement partitions completed transfers by direction against the
// filter's base. Transfers are selected by type/asset/date only; the base
// dimension is direction-sensitive and applied here, not by the store.
func (a *Aggregator) transferMovement(ctx context.Context, f Filter) (in, out int64, err error) {
	transfers, err := a.Store.ListTransfers(ctx, f.WithoutBase())
	if err != nil {
		return 0, 0, fmt.Errorf("aggregating transfers: %w", err)
	}

	for _, t := range transfers {
		if t.Status != TransferCompleted {
			continue
		}
		if f.BaseID == nil {
			in++
			out++
			continue
		}
		if t.ToBaseID == *f.BaseID {
			in++
		}
		if t.FromBaseID == *f.BaseID {
			out++
		}
	}
	return in, out, nil
}
