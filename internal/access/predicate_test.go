package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFilterEmptyScopeMatchesNothing(t *testing.T) {
	for _, scope := range []*Scope{nil, {}} {
		filter, err := BuildFilter(scope, nil)
		require.NoError(t, err)
		require.Equal(t, "WHERE 1 = 0", filter.Clause)
		require.Empty(t, filter.Args)
	}
}

func TestBuildFilterWildcardOnlyScopeIsUnfiltered(t *testing.T) {
	filter, err := BuildFilter(Unrestricted(), nil)
	require.NoError(t, err)
	require.Empty(t, filter.Clause)
	require.Empty(t, filter.Args)
}

func TestBuildFilterCombinesDimensionsWithAnd(t *testing.T) {
	min := 1000.0
	scope := &Scope{
		Regions:   []string{"Norte", "Sur"},
		MinAmount: &min,
	}

	filter, err := BuildFilter(scope, nil)
	require.NoError(t, err)
	require.Equal(t, "WHERE region IN (?,?) AND monto >= ?", filter.Clause)
	require.Equal(t, []any{"Norte", "Sur", 1000.0}, filter.Args)
}

func TestBuildFilterFullScope(t *testing.T) {
	min, max := 100.0, 5000.0
	from, to := "2024-01-01", "2024-12-31"
	scope := &Scope{
		Regions:   []string{"Norte"},
		Branches:  []string{"Centro", "Sur 1"},
		MinAmount: &min,
		MaxAmount: &max,
		DateFrom:  &from,
		DateTo:    &to,
	}

	filter, err := BuildFilter(scope, nil)
	require.NoError(t, err)
	require.Equal(t,
		"WHERE region IN (?) AND sucursal IN (?,?) AND monto >= ? AND monto <= ? AND fecha >= ? AND fecha <= ?",
		filter.Clause)
	require.Equal(t, []any{"Norte", "Centro", "Sur 1", 100.0, 5000.0, "2024-01-01", "2024-12-31"}, filter.Args)
}

func TestBuildFilterExtraParamsSortedAndParameterized(t *testing.T) {
	filter, err := BuildFilter(Unrestricted(), map[string]any{
		"usuario": "jperez",
		"anio":    2024,
	})
	require.NoError(t, err)
	require.Equal(t, "WHERE anio = ? AND usuario = ?", filter.Clause)
	require.Equal(t, []any{2024, "jperez"}, filter.Args)
}

func TestBuildFilterRejectsNonIdentifierParamNames(t *testing.T) {
	for _, key := range []string{"region; DROP TABLE", "a b", "1abc", "col-name", ""} {
		_, err := BuildFilter(Unrestricted(), map[string]any{key: 1})
		require.Error(t, err, key)
	}
}

func TestBuildFilterNeverInterpolatesValues(t *testing.T) {
	// Hostile values stay bound arguments; the clause text is unaffected.
	scope := &Scope{Regions: []string{"Norte' OR '1'='1"}}

	filter, err := BuildFilter(scope, nil)
	require.NoError(t, err)
	require.Equal(t, "WHERE region IN (?)", filter.Clause)
	require.Equal(t, []any{"Norte' OR '1'='1"}, filter.Args)
}

func TestBuildFilterIsDeterministic(t *testing.T) {
	scope := &Scope{Regions: []string{"Norte", "Sur"}, Branches: []string{"Centro"}}
	extra := map[string]any{"usuario": "x", "anio": 2024, "mes": 5}

	first, err := BuildFilter(scope, extra)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		next, err := BuildFilter(scope, extra)
		require.NoError(t, err)
		require.Equal(t, first, next)
	}
}
