package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/masterdash/masterdash/internal/database/testutil"
	"github.com/masterdash/masterdash/internal/models"
)

func newAreaFixture(t *testing.T) (*AreaService, *models.Sector, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)

	sectors, err := NewSectorService(db, audit)
	require.NoError(t, err)
	sector, err := sectors.Create(context.Background(), CreateSectorInput{Name: "Comercial"})
	require.NoError(t, err)

	areas, err := NewAreaService(db, audit)
	require.NoError(t, err)
	return areas, sector, db
}

func TestAreaLifecycle(t *testing.T) {
	svc, sector, _ := newAreaFixture(t)
	ctx := context.Background()

	area, err := svc.Create(ctx, CreateAreaInput{Name: "Ventas", SectorID: sector.ID})
	require.NoError(t, err)
	require.Equal(t, sector.ID, area.SectorID)

	loaded, err := svc.GetByID(ctx, area.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Sector)
	require.Equal(t, "Comercial", loaded.Sector.Name)

	name := "Ventas Retail"
	updated, err := svc.Update(ctx, area.ID, UpdateAreaInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Ventas Retail", updated.Name)

	require.NoError(t, svc.Delete(ctx, area.ID))
	_, err = svc.GetByID(ctx, area.ID)
	require.ErrorIs(t, err, ErrAreaNotFound)
}

func TestAreaRequiresExistingSector(t *testing.T) {
	svc, _, _ := newAreaFixture(t)

	_, err := svc.Create(context.Background(), CreateAreaInput{
		Name:     "Huérfana",
		SectorID: "b7c0ffee-0000-0000-0000-000000000000",
	})
	require.ErrorIs(t, err, ErrSectorNotFound)
}

func TestAreaNameUniquePerSector(t *testing.T) {
	svc, sector, db := newAreaFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateAreaInput{Name: "Ventas", SectorID: sector.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateAreaInput{Name: "Ventas", SectorID: sector.ID})
	require.ErrorIs(t, err, ErrAreaNameTaken)

	// Same name under a different sector is allowed.
	other := models.Sector{Name: "Operaciones", IsActive: true}
	require.NoError(t, db.Create(&other).Error)

	_, err = svc.Create(ctx, CreateAreaInput{Name: "Ventas", SectorID: other.ID})
	require.NoError(t, err)
}

func TestAreaMoveValidatesTargetSector(t *testing.T) {
	svc, sector, _ := newAreaFixture(t)
	ctx := context.Background()

	area, err := svc.Create(ctx, CreateAreaInput{Name: "Ventas", SectorID: sector.ID})
	require.NoError(t, err)

	missing := "b7c0ffee-0000-0000-0000-000000000000"
	_, err = svc.Update(ctx, area.ID, UpdateAreaInput{SectorID: &missing})
	require.ErrorIs(t, err, ErrSectorNotFound)
}
