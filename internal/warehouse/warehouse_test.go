package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/masterdash/masterdash/internal/database/testutil"
)

func newStoreWithData(t *testing.T) *Store {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE vw_ventas (
		fecha TEXT NOT NULL,
		region TEXT NOT NULL,
		monto REAL NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO vw_ventas (fecha, region, monto) VALUES (?, ?, ?), (?, ?, ?)",
		"2024-05-01", "Norte", 1000.0,
		"2024-05-02", "Sur", 2500.0,
	).Error)

	return NewStore(db, 0)
}

func TestStoreQueryReturnsColumnKeyedRows(t *testing.T) {
	store := newStoreWithData(t)

	rows, err := store.Query(context.Background(),
		"SELECT fecha, region, monto FROM vw_ventas WHERE region = ?", "Norte")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Norte", rows[0]["region"])
	require.Equal(t, 1000.0, rows[0]["monto"])
}

func TestStoreQueryEmptyResult(t *testing.T) {
	store := newStoreWithData(t)

	rows, err := store.Query(context.Background(),
		"SELECT fecha FROM vw_ventas WHERE 1 = 0")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestStoreQueryHonoursContextCancellation(t *testing.T) {
	store := newStoreWithData(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Query(ctx, "SELECT fecha FROM vw_ventas")
	require.Error(t, err)
}

func TestStoreDefaultTimeout(t *testing.T) {
	store := NewStore(nil, 0)
	require.Equal(t, DefaultQueryTimeout, store.timeout)

	store = NewStore(nil, 3*time.Second)
	require.Equal(t, 3*time.Second, store.timeout)
}

func TestStorePingAndTables(t *testing.T) {
	store := newStoreWithData(t)

	require.NoError(t, store.Ping(context.Background()))

	tables, err := store.Tables(context.Background())
	require.NoError(t, err)
	require.Contains(t, tables, "vw_ventas")
}
