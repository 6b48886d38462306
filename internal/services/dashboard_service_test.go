package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/masterdash/masterdash/internal/database/testutil"
	"github.com/masterdash/masterdash/internal/models"
)

func newDashboardFixture(t *testing.T) (*DashboardService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewDashboardService(db, audit)
	require.NoError(t, err)
	return svc, db
}

func TestDashboardLifecycle(t *testing.T) {
	svc, _ := newDashboardFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateDashboardInput{Slug: "Ventas", Title: "Ventas"})
	require.NoError(t, err)
	require.Equal(t, "ventas", created.Slug)
	require.True(t, created.IsActive)

	bySlug, err := svc.GetBySlug(ctx, "ventas")
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)

	inactive := false
	_, err = svc.Update(ctx, created.ID, UpdateDashboardInput{IsActive: &inactive})
	require.NoError(t, err)

	// GetBySlug only returns active dashboards.
	_, err = svc.GetBySlug(ctx, "ventas")
	require.ErrorIs(t, err, ErrDashboardNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrDashboardNotFound)
}

func TestDashboardSlugUniqueness(t *testing.T) {
	svc, _ := newDashboardFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDashboardInput{Slug: "ventas", Title: "Ventas"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateDashboardInput{Slug: "ventas", Title: "Otro"})
	require.ErrorIs(t, err, ErrSlugTaken)
}

func TestDashboardListForUser(t *testing.T) {
	svc, db := newDashboardFixture(t)
	ctx := context.Background()

	ventas, err := svc.Create(ctx, CreateDashboardInput{Slug: "ventas", Title: "Ventas"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateDashboardInput{Slug: "uso-crm", Title: "Uso CRM"})
	require.NoError(t, err)

	admin := models.User{Email: "admin@x.cl", Name: "Admin", Password: "h", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&admin).Error)
	user := models.User{Email: "user@x.cl", Name: "User", Password: "h", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	grant := models.DashboardAccess{UserID: user.ID, DashboardID: ventas.ID}
	require.NoError(t, db.Create(&grant).Error)

	all, err := svc.ListForUser(ctx, &admin)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.ListForUser(ctx, &user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "ventas", mine[0].Slug)
}
