package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/masterdash/masterdash/internal/database/testutil"
	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/internal/warehouse"
)

// recordingExecutor counts calls so tests can prove denied requests never
// reach the warehouse.
type recordingExecutor struct {
	calls     int
	lastQuery string
	lastArgs  []any
	rows      []map[string]any
}

func (r *recordingExecutor) Query(_ context.Context, query string, args ...any) ([]map[string]any, error) {
	r.calls++
	r.lastQuery = query
	r.lastArgs = args
	return r.rows, nil
}

var ventasQuery = Query{
	Base: `SELECT fecha, sucursal, region, SUM(monto) AS total_ventas, COUNT(*) AS cantidad
FROM vw_ventas`,
	GroupBy: "fecha, sucursal, region",
	OrderBy: "fecha DESC",
}

func newWarehouseStore(t *testing.T) *warehouse.Store {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE vw_ventas (
		fecha TEXT NOT NULL,
		sucursal TEXT NOT NULL,
		region TEXT NOT NULL,
		monto REAL NOT NULL
	)`).Error)

	rows := [][]any{
		{"2024-05-01", "Centro 1", "Norte", 1000.0},
		{"2024-05-01", "Norte 2", "Norte", 2000.0},
		{"2024-05-01", "Sur 1", "Sur", 1500.0},
		{"2024-05-01", "Valpo", "Centro", 3000.0},
	}
	for _, row := range rows {
		require.NoError(t, db.Exec(
			"INSERT INTO vw_ventas (fecha, sucursal, region, monto) VALUES (?, ?, ?, ?)",
			row...,
		).Error)
	}

	return warehouse.NewStore(db, 0)
}

func newGateway(t *testing.T, db *gorm.DB, store warehouse.Executor) *Gateway {
	t.Helper()

	resolver, err := NewResolver(db)
	require.NoError(t, err)
	gateway, err := NewGateway(resolver, store)
	require.NoError(t, err)
	return gateway
}

func TestGatewayScopesRowsToGrant(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	gateway := newGateway(t, db, newWarehouseStore(t))

	user := seedUser(t, db, models.RoleUser)
	dashboard := seedDashboard(t, db, "ventas", true)
	seedGrant(t, db, user.ID, dashboard.ID, []byte(`{"regions":["Norte","Sur"],"sucursales":["*"]}`))

	result, err := gateway.Execute(context.Background(), user.ID, "ventas", ventasQuery, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	for _, row := range result.Rows {
		require.Contains(t, []any{"Norte", "Sur"}, row["region"])
	}
	require.Equal(t, []string{"Norte", "Sur"}, result.Scope.Regions)
}

func TestGatewayAdminSeesEverything(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	gateway := newGateway(t, db, newWarehouseStore(t))

	admin := seedUser(t, db, models.RoleAdmin)
	seedDashboard(t, db, "ventas", true)

	result, err := gateway.Execute(context.Background(), admin.ID, "ventas", ventasQuery, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 4)
	require.Equal(t, Unrestricted(), result.Scope)
}

func TestGatewayGrantWithoutScopeReturnsZeroRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	gateway := newGateway(t, db, newWarehouseStore(t))

	user := seedUser(t, db, models.RoleUser)
	dashboard := seedDashboard(t, db, "ventas", true)
	seedGrant(t, db, user.ID, dashboard.ID, nil)

	// The request succeeds; the scope just matches nothing.
	result, err := gateway.Execute(context.Background(), user.ID, "ventas", ventasQuery, nil)
	require.NoError(t, err)
	require.Empty(t, result.Rows)
	require.True(t, result.Scope.Empty())
}

func TestGatewayAmountAndDateRestrictions(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	gateway := newGateway(t, db, newWarehouseStore(t))

	user := seedUser(t, db, models.RoleUser)
	dashboard := seedDashboard(t, db, "ventas", true)
	seedGrant(t, db, user.ID, dashboard.ID, []byte(`{"regions":["*"],"sucursales":["*"],"minAmount":1500,"maxAmount":2500}`))

	result, err := gateway.Execute(context.Background(), user.ID, "ventas", ventasQuery, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
}

func TestGatewayHonoursRowLimit(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	gateway := newGateway(t, db, newWarehouseStore(t))

	admin := seedUser(t, db, models.RoleAdmin)
	seedDashboard(t, db, "ventas", true)

	capped := ventasQuery
	capped.Limit = 2

	result, err := gateway.Execute(context.Background(), admin.ID, "ventas", capped, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
}

func TestGatewayDeniedWithoutTouchingWarehouse(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := &recordingExecutor{}
	gateway := newGateway(t, db, store)

	user := seedUser(t, db, models.RoleUser)
	seedDashboard(t, db, "ventas", true)

	_, err := gateway.Execute(context.Background(), user.ID, "ventas", ventasQuery, nil)
	require.ErrorIs(t, err, ErrNoAccess)
	require.Zero(t, store.calls)
}

func TestGatewayUnknownUserWithoutTouchingWarehouse(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := &recordingExecutor{}
	gateway := newGateway(t, db, store)

	_, err := gateway.Execute(context.Background(), "b7c0ffee-0000-0000-0000-000000000001", "ventas", ventasQuery, nil)
	require.ErrorIs(t, err, ErrUnknownUser)
	require.Zero(t, store.calls)
}

func TestGatewayRejectsUnsafeQueryBeforeResolution(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := &recordingExecutor{}
	gateway := newGateway(t, db, store)

	unsafe := Query{Base: "SELECT * FROM vw_ventas WHERE monto > 0"}
	_, err := gateway.Execute(context.Background(), "any", "ventas", unsafe, nil)
	require.ErrorIs(t, err, ErrUnsafeQuery)
	require.Zero(t, store.calls)
}

func TestGatewayPassesBoundArgsToStore(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := &recordingExecutor{rows: []map[string]any{}}
	gateway := newGateway(t, db, store)

	user := seedUser(t, db, models.RoleUser)
	dashboard := seedDashboard(t, db, "ventas", true)
	seedGrant(t, db, user.ID, dashboard.ID, []byte(`{"regions":["Norte' OR '1'='1"]}`))

	_, err := gateway.Execute(context.Background(), user.ID, "ventas", ventasQuery, nil)
	require.NoError(t, err)
	require.Equal(t, 1, store.calls)
	require.Contains(t, store.lastQuery, "WHERE region IN (?)")
	require.NotContains(t, store.lastQuery, "OR '1'='1")
	require.Equal(t, []any{"Norte' OR '1'='1"}, store.lastArgs)
}
