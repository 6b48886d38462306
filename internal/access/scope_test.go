package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	scope, err := ParseScope([]byte(`{"regions":["Norte","Sur"],"sucursales":["*"],"minAmount":1000}`))
	require.NoError(t, err)
	require.Equal(t, []string{"Norte", "Sur"}, scope.Regions)
	require.Equal(t, []string{Wildcard}, scope.Branches)
	require.NotNil(t, scope.MinAmount)
	require.Equal(t, 1000.0, *scope.MinAmount)
	require.Nil(t, scope.MaxAmount)
}

func TestParseScopeRejectsMalformedJSON(t *testing.T) {
	_, err := ParseScope([]byte(`{"regions":`))
	require.Error(t, err)
}

func TestScopeEmpty(t *testing.T) {
	var nilScope *Scope
	require.True(t, nilScope.Empty())
	require.True(t, (&Scope{}).Empty())

	require.False(t, (&Scope{Regions: []string{"Norte"}}).Empty())
	require.False(t, (&Scope{Branches: []string{Wildcard}}).Empty())

	min := 10.0
	require.False(t, (&Scope{MinAmount: &min}).Empty())
}

func TestScopeWildcardDisablesRestriction(t *testing.T) {
	scope := &Scope{Regions: []string{"Norte", Wildcard}, Branches: []string{"Centro"}}
	require.False(t, scope.RestrictsRegions())
	require.True(t, scope.RestrictsBranches())
}

func TestUnrestrictedScope(t *testing.T) {
	scope := Unrestricted()
	require.False(t, scope.Empty())
	require.False(t, scope.RestrictsRegions())
	require.False(t, scope.RestrictsBranches())
}
