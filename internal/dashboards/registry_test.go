package dashboards

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masterdash/masterdash/internal/access"
)

func TestNewRegistryValidatesBuiltins(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	require.Equal(t, []string{"consolidaciones", "uso-crm", "ventas"}, registry.Slugs())
}

func TestRegistryLookup(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	query, ok := registry.Lookup("ventas")
	require.True(t, ok)
	require.NoError(t, query.Validate())

	_, ok = registry.Lookup("unknown")
	require.False(t, ok)
}

func TestRegistryRejectsUnsafeQueries(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	err = registry.Register("broken", access.Query{Base: "SELECT * FROM t WHERE x = 1"})
	require.ErrorIs(t, err, access.ErrUnsafeQuery)

	err = registry.Register("", access.Query{Base: "SELECT 1"})
	require.Error(t, err)
}
