package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

func date(year int, month time.Month, day int) inventory.Date {
	return inventory.NewDate(year, month, day)
}

func key(base, assetType, asset string, d inventory.Date) inventory.EventKey {
	return inventory.EventKey{
		BaseID:      inventory.BaseID(base),
		AssetTypeID: inventory.AssetTypeID(assetType),
		AssetID:     inventory.AssetID(asset),
		Date:        d,
	}
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseFilter_AllDimensions(t *testing.T) {
	f, err := inventory.ParseFilter("base-1", "type-1", "asset-1", "2025-01-01", "2025-03-31")
	require.NoError(t, err)

	require.NotNil(t, f.BaseID)
	assert.Equal(t, inventory.BaseID("base-1"), *f.BaseID)
	require.NotNil(t, f.From)
	assert.Equal(t, "2025-01-01", f.From.String())
	require.NotNil(t, f.To)
	assert.Equal(t, "2025-03-31", f.To.String())
	assert.False(t, f.IsEmpty())
}

func TestParseFilter_Empty(t *testing.T) {
	f, err := inventory.ParseFilter("", "", "", "", "")
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
}

func TestParseFilter_MalformedDate(t *testing.T) {
	// A malformed calendar date is a filter error, not a wildcard and not
	// a panic.
	_, err := inventory.ParseFilter("", "", "", "not-a-date", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrInvalidFilter))

	var fe *inventory.FilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "date_from", fe.Field)
}

func TestParseFilter_ToBeforeFrom(t *testing.T) {
	_, err := inventory.ParseFilter("", "", "", "2025-06-01", "2025-01-01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrInvalidFilter))
}

// =============================================================================
// RESOLUTION - AND of independent sub-predicates
// =============================================================================

func TestFilter_EmptyMatchesEverything(t *testing.T) {
	// GIVEN: An empty filter
	// WHEN: Matched against arbitrary keys
	// THEN: Everything matches (identity law)

	var f inventory.Filter
	assert.True(t, f.Matches(key("b1", "t1", "a1", date(2025, time.March, 1))))
	assert.True(t, f.Matches(key("", "", "", inventory.Date{})))
}

func TestFilter_EachDimensionIndependent(t *testing.T) {
	f, err := inventory.ParseFilter("b1", "t1", "", "2025-01-01", "2025-12-31")
	require.NoError(t, err)

	match := key("b1", "t1", "a1", date(2025, time.June, 15))
	assert.True(t, f.Matches(match))

	wrongBase := match
	wrongBase.BaseID = "b2"
	assert.False(t, f.Matches(wrongBase))

	wrongType := match
	wrongType.AssetTypeID = "t2"
	assert.False(t, f.Matches(wrongType))

	tooEarly := match
	tooEarly.Date = date(2024, time.December, 31)
	assert.False(t, f.Matches(tooEarly))

	tooLate := match
	tooLate.Date = date(2026, time.January, 1)
	assert.False(t, f.Matches(tooLate))
}

func TestFilter_DateBoundsInclusive(t *testing.T) {
	f, err := inventory.ParseFilter("", "", "", "2025-03-01", "2025-03-31")
	require.NoError(t, err)

	assert.True(t, f.Matches(key("b", "t", "a", date(2025, time.March, 1))))
	assert.True(t, f.Matches(key("b", "t", "a", date(2025, time.March, 31))))
	assert.False(t, f.Matches(key("b", "t", "a", date(2025, time.February, 28))))
	assert.False(t, f.Matches(key("b", "t", "a", date(2025, time.April, 1))))
}

func TestFilter_WithoutBase(t *testing.T) {
	f, err := inventory.ParseFilter("b1", "t1", "", "", "")
	require.NoError(t, err)

	cleared := f.WithoutBase()
	assert.Nil(t, cleared.BaseID)
	require.NotNil(t, cleared.AssetTypeID)
	// The original is untouched.
	assert.NotNil(t, f.BaseID)
}
