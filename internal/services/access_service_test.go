package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/masterdash/masterdash/internal/database/testutil"
	"github.com/masterdash/masterdash/internal/access"
	"github.com/masterdash/masterdash/internal/models"
)

func newAccessFixture(t *testing.T) (*AccessService, *models.User, *models.Dashboard, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewAccessService(db, audit)
	require.NoError(t, err)

	user := models.User{Email: "u@x.cl", Name: "U", Password: "h", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	dashboard := models.Dashboard{Slug: "ventas", Title: "Ventas", IsActive: true}
	require.NoError(t, db.Create(&dashboard).Error)

	return svc, &user, &dashboard, db
}

func TestGrantLifecycle(t *testing.T) {
	svc, user, dashboard, _ := newAccessFixture(t)
	ctx := context.Background()

	grant, err := svc.Grant(ctx, GrantInput{
		UserID:      user.ID,
		DashboardID: dashboard.ID,
		Scope:       json.RawMessage(`{"regions":["Norte"],"sucursales":["*"]}`),
	})
	require.NoError(t, err)

	scope, err := access.ParseScope(grant.Scope)
	require.NoError(t, err)
	require.Equal(t, []string{"Norte"}, scope.Regions)

	updated, err := svc.UpdateScope(ctx, grant.ID, json.RawMessage(`{"regions":["Sur"]}`))
	require.NoError(t, err)
	scope, err = access.ParseScope(updated.Scope)
	require.NoError(t, err)
	require.Equal(t, []string{"Sur"}, scope.Regions)

	require.NoError(t, svc.Revoke(ctx, grant.ID))
	_, err = svc.GetByID(ctx, grant.ID)
	require.ErrorIs(t, err, ErrGrantNotFound)
}

func TestGrantIsUniquePerUserAndDashboard(t *testing.T) {
	svc, user, dashboard, _ := newAccessFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{UserID: user.ID, DashboardID: dashboard.ID})
	require.NoError(t, err)

	_, err = svc.Grant(ctx, GrantInput{UserID: user.ID, DashboardID: dashboard.ID})
	require.ErrorIs(t, err, ErrGrantExists)
}

func TestGrantValidatesReferences(t *testing.T) {
	svc, user, dashboard, _ := newAccessFixture(t)
	ctx := context.Background()

	missing := "b7c0ffee-0000-0000-0000-000000000000"

	_, err := svc.Grant(ctx, GrantInput{UserID: missing, DashboardID: dashboard.ID})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Grant(ctx, GrantInput{UserID: user.ID, DashboardID: missing})
	require.ErrorIs(t, err, ErrDashboardNotFound)
}

func TestGrantRejectsMalformedScope(t *testing.T) {
	svc, user, dashboard, _ := newAccessFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{
		UserID:      user.ID,
		DashboardID: dashboard.ID,
		Scope:       json.RawMessage(`{"regions":`),
	})
	require.ErrorIs(t, err, ErrInvalidScope)
}

func TestGrantWithoutScopeStoresNull(t *testing.T) {
	svc, user, dashboard, _ := newAccessFixture(t)
	ctx := context.Background()

	grant, err := svc.Grant(ctx, GrantInput{UserID: user.ID, DashboardID: dashboard.ID})
	require.NoError(t, err)
	require.Empty(t, grant.Scope)

	// Clearing a scope works the same way.
	withScope, err := svc.UpdateScope(ctx, grant.ID, json.RawMessage(`{"regions":["Norte"]}`))
	require.NoError(t, err)
	require.NotEmpty(t, withScope.Scope)

	cleared, err := svc.UpdateScope(ctx, grant.ID, nil)
	require.NoError(t, err)
	require.Empty(t, cleared.Scope)
}

func TestGrantListFilters(t *testing.T) {
	svc, user, dashboard, db := newAccessFixture(t)
	ctx := context.Background()

	other := models.User{Email: "o@x.cl", Name: "O", Password: "h", Role: models.RoleUser}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.Grant(ctx, GrantInput{UserID: user.ID, DashboardID: dashboard.ID})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{UserID: other.ID, DashboardID: dashboard.ID})
	require.NoError(t, err)

	all, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.List(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, user.ID, mine[0].UserID)

	byDashboard, err := svc.List(ctx, "", dashboard.ID)
	require.NoError(t, err)
	require.Len(t, byDashboard, 2)
}
