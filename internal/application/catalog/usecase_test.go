package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Obras-api/internal/application/catalog"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/infrastructure/memory"
)

func newCatalogFixture(t *testing.T) (*memory.Store, *catalog.CatalogUseCase) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	return store, catalog.NewCatalogUseCase(repos.Sites, repos.Items, repos.Machines)
}

func TestCreateSite_YListado(t *testing.T) {
	_, uc := newCatalogFixture(t)
	ctx := context.Background()

	site, err := uc.CreateSite(ctx, "Obra Norte", "Calle 10 #5-23")
	require.NoError(t, err)
	assert.Equal(t, entity.SiteKindPhysical, site.Kind, "por catálogo solo se crean obras físicas")

	sites, err := uc.ListSites(ctx, 50, 0)
	require.NoError(t, err)
	assert.Len(t, sites, 1)

	_, err = uc.CreateSite(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteSite_SoftDelete(t *testing.T) {
	_, uc := newCatalogFixture(t)
	ctx := context.Background()
	site, err := uc.CreateSite(ctx, "Obra Sur", "")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteSite(ctx, site.ID))

	got, err := uc.GetSite(ctx, site.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "la obra eliminada deja de ser visible")

	assert.ErrorIs(t, uc.DeleteSite(ctx, site.ID), domain.ErrNotFound)
}

// El almacén virtual no se administra por catálogo: borrarlo es ilegal.
func TestDeleteSite_VirtualProhibido(t *testing.T) {
	store, uc := newCatalogFixture(t)
	store.SeedSite(entity.Site{ID: "virtual-1", Name: "Almacén Virtual", Kind: entity.SiteKindVirtual})

	assert.ErrorIs(t, uc.DeleteSite(context.Background(), "virtual-1"), domain.ErrInvalidInput)
}

func TestCreateItem_SKUDuplicado(t *testing.T) {
	_, uc := newCatalogFixture(t)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, "CEM-001", "Cemento gris", "saco")
	require.NoError(t, err)

	_, err = uc.CreateItem(ctx, "CEM-001", "Otro cemento", "saco")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.CreateItem(ctx, "CEM-002", "Cemento blanco", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la unidad es obligatoria")
}

func TestCreateMachine_RequiereObraExistente(t *testing.T) {
	_, uc := newCatalogFixture(t)
	ctx := context.Background()

	_, err := uc.CreateMachine(ctx, "EXC-01", "Excavadora", "site-fantasma")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	site, err := uc.CreateSite(ctx, "Obra Norte", "")
	require.NoError(t, err)

	machine, err := uc.CreateMachine(ctx, "EXC-01", "Excavadora", site.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MachineStatusInUse, machine.Status)
	require.NotNil(t, machine.SiteID)
	assert.Equal(t, site.ID, *machine.SiteID)

	machines, err := uc.ListMachines(ctx, site.ID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, machines, 1)
}
