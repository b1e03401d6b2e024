package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/infrastructure/memory"
)

// Run debe revertir todo efecto parcial cuando el callback falla, igual que la
// transacción de BD a la que sustituye.
func TestRun_RestauraElSnapshotSiFallaElCallback(t *testing.T) {
	store := memory.NewStore()
	store.SeedInventory(entity.SiteInventory{
		SiteID: "site-a", ItemID: "item-x",
		Quantity: decimal.NewFromInt(10),
		Status:   entity.StockStatusInStock,
	})

	boom := errors.New("falla simulada")
	err := store.Run(context.Background(), func(r ledger.Repos) error {
		inv, err := r.Inventory.GetForUpdate("site-a", "item-x")
		require.NoError(t, err)
		inv.Quantity = decimal.Zero
		require.NoError(t, r.Inventory.Upsert(inv))
		require.NoError(t, r.Movements.Append(&entity.StockMovementLogEntry{
			ID: "mov-1", SiteID: "site-a", ItemID: "item-x",
			Change: decimal.NewFromInt(-10),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.True(t, store.Inventory("site-a", "item-x").Quantity.Equal(decimal.NewFromInt(10)),
		"la mutación parcial no debe sobrevivir")
	assert.Empty(t, store.Movements(), "la entrada del log tampoco")
}

// UpdateIf es el compare-and-swap: contra un estado obsoleto retorna
// ErrConflict en lugar de pisar la transición ganadora.
func TestUpdateIf_EstadoObsoletoRetornaConflict(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()

	issue := &entity.MaterialIssue{
		ID:     "issue-1",
		Status: entity.IssueStatusPending,
	}
	require.NoError(t, repos.Issues.Create(issue))

	// Primer escritor gana la transición
	issue.Status = entity.IssueStatusApproved
	require.NoError(t, repos.Issues.UpdateIf(issue, entity.IssueStatusPending))

	// Segundo escritor llega con el estado ya obsoleto
	stale := &entity.MaterialIssue{ID: "issue-1", Status: entity.IssueStatusRejected}
	err := repos.Issues.UpdateIf(stale, entity.IssueStatusPending)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repos.Issues.GetByID("issue-1")
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusApproved, got.Status,
		"la transición ganadora queda intacta")
}

func TestNextCode_ConsecutivosPorSecuencia(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()

	first, err := repos.Issues.NextCode()
	require.NoError(t, err)
	second, err := repos.Issues.NextCode()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	// Secuencias independientes por flujo
	other, err := repos.Transfers.NextCode()
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}
