/*
filter.go - Composable query filters over movement events

PURPOSE:
  Every listing and aggregation query in the system takes the same optional
  tuple (base, asset type, asset, date range). This file resolves that tuple
  into a predicate usable against any event record.

DESIGN:
  Each set dimension contributes one independent sub-predicate; resolution is
  the logical AND of all of them. An unset dimension contributes nothing -
  absence is a wildcard, never "empty". This keeps the filter linear in the
  number of dimensions: adding a dimension adds one predicate, not a
  doubling of query branches.

DATE SEMANTICS:
  Bounds are inclusive calendar days. A malformed date string fails with
  ErrInvalidFilter so HTTP callers can report 400 instead of a generic
  parse failure.

SEE ALSO:
  - metrics.go: Aggregates events selected by a Filter
  - store/memory.go: Applies Filter.Matches record by record
  - store/sqlite: Mirrors the same composition as an AND-joined WHERE list
*/
package inventory

// =============================================================================
// FILTER - Optional query dimensions
// =============================================================================

// Filter restricts a query to matching events. Nil fields impose no
// constraint.
type Filter struct {
	BaseID      *BaseID
	AssetTypeID *AssetTypeID
	AssetID     *AssetID
	From        *Date
	To          *Date
}

// ParseFilter builds a Filter from raw query-string values. Empty strings
// are wildcards. Malformed dates fail with ErrInvalidFilter.
func ParseFilter(baseID, assetTypeID, assetID, dateFrom, dateTo string) (Filter, error) {
	var f Filter
	if baseID != "" {
		id := BaseID(baseID)
		f.BaseID = &id
	}
	if assetTypeID != "" {
		id := AssetTypeID(assetTypeID)
		f.AssetTypeID = &id
	}
	if assetID != "" {
		id := AssetID(assetID)
		f.AssetID = &id
	}
	if dateFrom != "" {
		d, err := ParseDate(dateFrom)
		if err != nil {
			return Filter{}, &FilterError{Field: "date_from", Value: dateFrom}
		}
		f.From = &d
	}
	if dateTo != "" {
		d, err := ParseDate(dateTo)
		if err != nil {
			return Filter{}, &FilterError{Field: "date_to", Value: dateTo}
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return Filter{}, &FilterError{Field: "date_to", Value: "before date_from"}
	}
	return f, nil
}

// IsEmpty reports whether no dimension is set; an empty filter matches
// every record.
func (f Filter) IsEmpty() bool {
	return f.BaseID == nil && f.AssetTypeID == nil && f.AssetID == nil &&
		f.From == nil && f.To == nil
}

// WithoutBase returns a copy with the base dimension cleared. The metrics
// aggregator uses this to select transfers by type/asset/date and then
// partition by direction itself.
func (f Filter) WithoutBase() Filter {
	f.BaseID = nil
	return f
}

// =============================================================================
// EVENT KEY - What every event record exposes to the filter
// =============================================================================

// EventKey is the filterable projection of a movement event. Stores build it
// per record, resolving asset-type and base transitively through the Asset
// reference where the event does not carry them directly.
type EventKey struct {
	BaseID      BaseID
	AssetTypeID AssetTypeID
	AssetID     AssetID
	Date        Date
}

// =============================================================================
// PREDICATE COMPOSITION
// =============================================================================

type predicate func(EventKey) bool

// predicates returns one sub-predicate per set dimension.
func (f Filter) predicates() []predicate {
	var ps []predicate
	if f.BaseID != nil {
		want := *f.BaseID
		ps = append(ps, func(k EventKey) bool { return k.BaseID == want })
	}
	if f.AssetTypeID != nil {
		want := *f.AssetTypeID
		ps = append(ps, func(k EventKey) bool { return k.AssetTypeID == want })
	}
	if f.AssetID != nil {
		want := *f.AssetID
		ps = append(ps, func(k EventKey) bool { return k.AssetID == want })
	}
	if f.From != nil {
		from := *f.From
		ps = append(ps, func(k EventKey) bool { return k.Date.AfterOrEqual(from) })
	}
	if f.To != nil {
		to := *f.To
		ps = append(ps, func(k EventKey) bool { return k.Date.BeforeOrEqual(to) })
	}
	return ps
}

// Matches reports whether the record key satisfies every set dimension.
func (f Filter) Matches(k EventKey) bool {
	for _, p := range f.predicates() {
		if !p(k) {
			return false
		}
	}
	return true
}
