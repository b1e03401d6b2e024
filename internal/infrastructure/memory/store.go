// Package memory implementa los puertos de repositorio sobre estructuras en
// memoria, con el mismo contrato transaccional que el adaptador PostgreSQL:
// Run toma un snapshot y lo restaura si el callback falla, de modo que una
// reserva o débito parcial nunca sobrevive. Respalda los tests de los casos
// de uso y el desarrollo local sin base de datos.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
)

// Store contiene todo el estado. Las transacciones serializan sobre el mutex:
// el equivalente en memoria del bloqueo de fila del adaptador real.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

type dataset struct {
	sites         map[string]entity.Site
	items         map[string]entity.Item
	machines      map[string]entity.Machine
	inventory     map[string]entity.SiteInventory // clave "siteID|itemID"
	movements     []entity.StockMovementLogEntry
	issues        map[string]entity.MaterialIssue
	issueItems    map[string][]entity.MaterialIssueItem
	transfers     map[string]entity.MachineTransfer
	procurements  map[string]entity.Procurement
	procItems     map[string][]entity.ProcurementItem
	dispatches    map[string]entity.Dispatch
	dispatchItems map[string][]entity.DispatchItem
	invoices      map[string]entity.Invoice
	invoiceItems  map[string][]entity.InvoiceItem
	payments      map[string][]entity.Payment
	seqs          map[string]int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

func newDataset() *dataset {
	return &dataset{
		sites:         make(map[string]entity.Site),
		items:         make(map[string]entity.Item),
		machines:      make(map[string]entity.Machine),
		inventory:     make(map[string]entity.SiteInventory),
		issues:        make(map[string]entity.MaterialIssue),
		issueItems:    make(map[string][]entity.MaterialIssueItem),
		transfers:     make(map[string]entity.MachineTransfer),
		procurements:  make(map[string]entity.Procurement),
		procItems:     make(map[string][]entity.ProcurementItem),
		dispatches:    make(map[string]entity.Dispatch),
		dispatchItems: make(map[string][]entity.DispatchItem),
		invoices:      make(map[string]entity.Invoice),
		invoiceItems:  make(map[string][]entity.InvoiceItem),
		payments:      make(map[string][]entity.Payment),
		seqs:          make(map[string]int64),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.sites {
		c.sites[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	for k, v := range d.machines {
		c.machines[k] = v
	}
	for k, v := range d.inventory {
		c.inventory[k] = v
	}
	c.movements = append(c.movements, d.movements...)
	for k, v := range d.issues {
		c.issues[k] = v
	}
	for k, v := range d.issueItems {
		c.issueItems[k] = append([]entity.MaterialIssueItem(nil), v...)
	}
	for k, v := range d.transfers {
		c.transfers[k] = v
	}
	for k, v := range d.procurements {
		c.procurements[k] = v
	}
	for k, v := range d.procItems {
		c.procItems[k] = append([]entity.ProcurementItem(nil), v...)
	}
	for k, v := range d.dispatches {
		c.dispatches[k] = v
	}
	for k, v := range d.dispatchItems {
		c.dispatchItems[k] = append([]entity.DispatchItem(nil), v...)
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	for k, v := range d.invoiceItems {
		c.invoiceItems[k] = append([]entity.InvoiceItem(nil), v...)
	}
	for k, v := range d.payments {
		c.payments[k] = append([]entity.Payment(nil), v...)
	}
	for k, v := range d.seqs {
		c.seqs[k] = v
	}
	return c
}

func invKey(siteID, itemID string) string { return siteID + "|" + itemID }

// Repos devuelve el bundle de repositorios sobre el almacén (sin transacción;
// para lecturas y operaciones de una sola escritura).
func (s *Store) Repos() ledger.Repos {
	return ledger.Repos{
		Sites:        &siteRepo{s: s},
		Items:        &itemRepo{s: s},
		Machines:     &machineRepo{s: s},
		Inventory:    &inventoryRepo{s: s},
		Movements:    &movementRepo{s: s},
		Issues:       &issueRepo{s: s},
		Transfers:    &transferRepo{s: s},
		Procurements: &procurementRepo{s: s},
		Dispatches:   &dispatchRepo{s: s},
		Invoices:     &invoiceRepo{s: s},
	}
}

var _ ledger.TxRunner = (*Store)(nil)

// Run ejecuta fn con semántica todo-o-nada: si fn falla se restaura el
// snapshot previo. El mutex serializa las transacciones completas.
func (s *Store) Run(_ context.Context, fn func(r ledger.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(s.Repos()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Seed helpers para tests ───────────────────────────────────────────────────

// SeedSite inserta una obra directamente.
func (s *Store) SeedSite(site entity.Site) { s.data.sites[site.ID] = site }

// SeedItem inserta un ítem directamente.
func (s *Store) SeedItem(item entity.Item) { s.data.items[item.ID] = item }

// SeedMachine inserta una máquina directamente.
func (s *Store) SeedMachine(m entity.Machine) { s.data.machines[m.ID] = m }

// SeedInventory fija la fila de inventario de (obra, ítem).
func (s *Store) SeedInventory(inv entity.SiteInventory) {
	s.data.inventory[invKey(inv.SiteID, inv.ItemID)] = inv
}

// Inventory devuelve la fila de inventario actual (cero si no existe).
func (s *Store) Inventory(siteID, itemID string) entity.SiteInventory {
	inv, ok := s.data.inventory[invKey(siteID, itemID)]
	if !ok {
		return entity.SiteInventory{SiteID: siteID, ItemID: itemID, Status: entity.StockStatusOutOfStock}
	}
	return inv
}

// Movements devuelve una copia del log completo.
func (s *Store) Movements() []entity.StockMovementLogEntry {
	return append([]entity.StockMovementLogEntry(nil), s.data.movements...)
}

// SumChanges suma los deltas del log para (obra, ítem).
func (s *Store) SumChanges(siteID, itemID string) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range s.data.movements {
		if m.SiteID == siteID && m.ItemID == itemID {
			sum = sum.Add(m.Change)
		}
	}
	return sum
}

// nextSeq incrementa y devuelve el consecutivo nombrado.
func (s *Store) nextSeq(name string) int64 {
	s.data.seqs[name]++
	return s.data.seqs[name]
}

// conflictIf traduce el compare-and-swap en memoria.
func conflictIf(ok bool) error {
	if !ok {
		return domain.ErrConflict
	}
	return nil
}
