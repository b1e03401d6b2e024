package memory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

// Implementaciones en memoria de los puertos de repositorio. Cada operación
// trabaja sobre el dataset vivo del Store; Run ya serializa y hace rollback.

type siteRepo struct{ s *Store }

var _ repository.SiteRepository = (*siteRepo)(nil)

func (r *siteRepo) Create(site *entity.Site) error {
	if site.Kind == entity.SiteKindVirtual {
		for _, existing := range r.s.data.sites {
			if existing.Kind == entity.SiteKindVirtual && existing.DeletedAt == nil {
				return domain.ErrDuplicate
			}
		}
	}
	r.s.data.sites[site.ID] = *site
	return nil
}

func (r *siteRepo) GetByID(id string) (*entity.Site, error) {
	site, ok := r.s.data.sites[id]
	if !ok || site.DeletedAt != nil {
		return nil, nil
	}
	return &site, nil
}

func (r *siteRepo) GetVirtual() (*entity.Site, error) {
	for _, site := range r.s.data.sites {
		if site.Kind == entity.SiteKindVirtual && site.DeletedAt == nil {
			v := site
			return &v, nil
		}
	}
	return nil, nil
}

func (r *siteRepo) List(limit, offset int) ([]*entity.Site, error) {
	var all []*entity.Site
	for _, site := range r.s.data.sites {
		if site.DeletedAt == nil {
			v := site
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

func (r *siteRepo) SoftDelete(id string) error {
	site, ok := r.s.data.sites[id]
	if !ok {
		return nil
	}
	now := time.Now()
	site.DeletedAt = &now
	r.s.data.sites[id] = site
	return nil
}

type itemRepo struct{ s *Store }

var _ repository.ItemRepository = (*itemRepo)(nil)

func (r *itemRepo) Create(item *entity.Item) error {
	for _, existing := range r.s.data.items {
		if existing.SKU == item.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.data.items[item.ID] = *item
	return nil
}

func (r *itemRepo) GetByID(id string) (*entity.Item, error) {
	item, ok := r.s.data.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *itemRepo) GetBySKU(sku string) (*entity.Item, error) {
	for _, item := range r.s.data.items {
		if item.SKU == sku {
			v := item
			return &v, nil
		}
	}
	return nil, nil
}

func (r *itemRepo) List(limit, offset int) ([]*entity.Item, error) {
	var all []*entity.Item
	for _, item := range r.s.data.items {
		v := item
		all = append(all, &v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return page(all, limit, offset), nil
}

type machineRepo struct{ s *Store }

var _ repository.MachineRepository = (*machineRepo)(nil)

func (r *machineRepo) Create(m *entity.Machine) error {
	r.s.data.machines[m.ID] = *m
	return nil
}

func (r *machineRepo) GetByID(id string) (*entity.Machine, error) {
	m, ok := r.s.data.machines[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *machineRepo) GetByIDForUpdate(id string) (*entity.Machine, error) {
	return r.GetByID(id)
}

func (r *machineRepo) UpdateStatus(id string, status string, siteID *string) error {
	m, ok := r.s.data.machines[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	m.SiteID = siteID
	m.UpdatedAt = time.Now()
	r.s.data.machines[id] = m
	return nil
}

func (r *machineRepo) ListBySite(siteID string, limit, offset int) ([]*entity.Machine, error) {
	var all []*entity.Machine
	for _, m := range r.s.data.machines {
		if m.SiteID != nil && *m.SiteID == siteID {
			v := m
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), nil
}

type inventoryRepo struct{ s *Store }

var _ repository.SiteInventoryRepository = (*inventoryRepo)(nil)

func (r *inventoryRepo) Get(siteID, itemID string) (*entity.SiteInventory, error) {
	inv, ok := r.s.data.inventory[invKey(siteID, itemID)]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *inventoryRepo) Ensure(siteID, itemID string) error {
	key := invKey(siteID, itemID)
	if _, ok := r.s.data.inventory[key]; !ok {
		r.s.data.inventory[key] = entity.SiteInventory{
			SiteID:         siteID,
			ItemID:         itemID,
			Quantity:       decimal.Zero,
			LockedQuantity: decimal.Zero,
			MinimumLevel:   decimal.Zero,
			Status:         entity.StockStatusOutOfStock,
			UpdatedAt:      time.Now(),
		}
	}
	return nil
}

func (r *inventoryRepo) GetForUpdate(siteID, itemID string) (*entity.SiteInventory, error) {
	return r.Get(siteID, itemID)
}

func (r *inventoryRepo) Upsert(inv *entity.SiteInventory) error {
	r.s.data.inventory[invKey(inv.SiteID, inv.ItemID)] = *inv
	return nil
}

func (r *inventoryRepo) ListBySite(siteID string, limit, offset int) ([]*entity.SiteInventory, error) {
	var all []*entity.SiteInventory
	for _, inv := range r.s.data.inventory {
		if inv.SiteID == siteID {
			v := inv
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ItemID < all[j].ItemID })
	return page(all, limit, offset), nil
}

type movementRepo struct{ s *Store }

var _ repository.StockMovementRepository = (*movementRepo)(nil)

func (r *movementRepo) Append(entry *entity.StockMovementLogEntry) error {
	r.s.data.movements = append(r.s.data.movements, *entry)
	return nil
}

func (r *movementRepo) ListBySite(siteID string, limit, offset int) ([]*entity.StockMovementLogEntry, error) {
	var all []*entity.StockMovementLogEntry
	for i := len(r.s.data.movements) - 1; i >= 0; i-- {
		if r.s.data.movements[i].SiteID == siteID {
			v := r.s.data.movements[i]
			all = append(all, &v)
		}
	}
	return page(all, limit, offset), nil
}

func (r *movementRepo) ListBySiteItem(siteID, itemID string, limit, offset int) ([]*entity.StockMovementLogEntry, error) {
	var all []*entity.StockMovementLogEntry
	for i := len(r.s.data.movements) - 1; i >= 0; i-- {
		m := r.s.data.movements[i]
		if m.SiteID == siteID && m.ItemID == itemID {
			v := m
			all = append(all, &v)
		}
	}
	return page(all, limit, offset), nil
}

func (r *movementRepo) SumChanges(siteID, itemID string) (decimal.Decimal, error) {
	return r.s.SumChanges(siteID, itemID), nil
}

type issueRepo struct{ s *Store }

var _ repository.MaterialIssueRepository = (*issueRepo)(nil)

func (r *issueRepo) Create(issue *entity.MaterialIssue) error {
	r.s.data.issues[issue.ID] = *issue
	return nil
}

func (r *issueRepo) CreateItem(item *entity.MaterialIssueItem) error {
	r.s.data.issueItems[item.IssueID] = append(r.s.data.issueItems[item.IssueID], *item)
	return nil
}

func (r *issueRepo) GetByID(id string) (*entity.MaterialIssue, error) {
	issue, ok := r.s.data.issues[id]
	if !ok {
		return nil, nil
	}
	return &issue, nil
}

func (r *issueRepo) GetByIDForUpdate(id string) (*entity.MaterialIssue, error) {
	return r.GetByID(id)
}

func (r *issueRepo) GetItems(issueID string) ([]*entity.MaterialIssueItem, error) {
	items := r.s.data.issueItems[issueID]
	out := make([]*entity.MaterialIssueItem, 0, len(items))
	for i := range items {
		v := items[i]
		out = append(out, &v)
	}
	return out, nil
}

func (r *issueRepo) UpdateIf(issue *entity.MaterialIssue, expectedStatus string) error {
	current, ok := r.s.data.issues[issue.ID]
	if err := conflictIf(ok && current.Status == expectedStatus); err != nil {
		return err
	}
	issue.UpdatedAt = time.Now()
	r.s.data.issues[issue.ID] = *issue
	return nil
}

func (r *issueRepo) ListBySite(siteID string, limit, offset int) ([]*entity.MaterialIssue, error) {
	var all []*entity.MaterialIssue
	for _, issue := range r.s.data.issues {
		if issue.SiteID == siteID {
			v := issue
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), nil
}

func (r *issueRepo) NextCode() (int64, error) { return r.s.nextSeq("issue"), nil }

type transferRepo struct{ s *Store }

var _ repository.MachineTransferRepository = (*transferRepo)(nil)

func (r *transferRepo) Create(t *entity.MachineTransfer) error {
	r.s.data.transfers[t.ID] = *t
	return nil
}

func (r *transferRepo) GetByID(id string) (*entity.MachineTransfer, error) {
	t, ok := r.s.data.transfers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *transferRepo) GetByIDForUpdate(id string) (*entity.MachineTransfer, error) {
	return r.GetByID(id)
}

func (r *transferRepo) UpdateIf(t *entity.MachineTransfer, expectedStatus string) error {
	current, ok := r.s.data.transfers[t.ID]
	if err := conflictIf(ok && current.Status == expectedStatus); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	r.s.data.transfers[t.ID] = *t
	return nil
}

func (r *transferRepo) ListBySite(siteID string, limit, offset int) ([]*entity.MachineTransfer, error) {
	var all []*entity.MachineTransfer
	for _, t := range r.s.data.transfers {
		if t.CurrentSiteID == siteID || (t.DestinationSiteID != nil && *t.DestinationSiteID == siteID) {
			v := t
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), nil
}

func (r *transferRepo) NextCode() (int64, error) { return r.s.nextSeq("transfer"), nil }

type procurementRepo struct{ s *Store }

var _ repository.ProcurementRepository = (*procurementRepo)(nil)

func (r *procurementRepo) Create(p *entity.Procurement) error {
	r.s.data.procurements[p.ID] = *p
	return nil
}

func (r *procurementRepo) CreateItem(item *entity.ProcurementItem) error {
	r.s.data.procItems[item.ProcurementID] = append(r.s.data.procItems[item.ProcurementID], *item)
	return nil
}

func (r *procurementRepo) GetByID(id string) (*entity.Procurement, error) {
	p, ok := r.s.data.procurements[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *procurementRepo) GetByIDForUpdate(id string) (*entity.Procurement, error) {
	return r.GetByID(id)
}

func (r *procurementRepo) GetItems(procurementID string) ([]*entity.ProcurementItem, error) {
	items := r.s.data.procItems[procurementID]
	out := make([]*entity.ProcurementItem, 0, len(items))
	for i := range items {
		v := items[i]
		out = append(out, &v)
	}
	return out, nil
}

func (r *procurementRepo) GetItemForUpdate(id string) (*entity.ProcurementItem, error) {
	for _, items := range r.s.data.procItems {
		for i := range items {
			if items[i].ID == id {
				v := items[i]
				return &v, nil
			}
		}
	}
	return nil, nil
}

func (r *procurementRepo) UpdateIf(p *entity.Procurement, expectedStatus string) error {
	current, ok := r.s.data.procurements[p.ID]
	if err := conflictIf(ok && current.Status == expectedStatus); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	r.s.data.procurements[p.ID] = *p
	return nil
}

func (r *procurementRepo) UpdateItemReceived(item *entity.ProcurementItem) error {
	items := r.s.data.procItems[item.ProcurementID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i].ReceivedQuantity = item.ReceivedQuantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *procurementRepo) ListBySite(siteID string, limit, offset int) ([]*entity.Procurement, error) {
	var all []*entity.Procurement
	for _, p := range r.s.data.procurements {
		if p.RequestingSiteID == siteID {
			v := p
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), nil
}

func (r *procurementRepo) Delete(id string) error {
	delete(r.s.data.procurements, id)
	delete(r.s.data.procItems, id)
	return nil
}

func (r *procurementRepo) NextCode() (int64, error) { return r.s.nextSeq("procurement"), nil }

type dispatchRepo struct{ s *Store }

var _ repository.DispatchRepository = (*dispatchRepo)(nil)

func (r *dispatchRepo) Create(d *entity.Dispatch) error {
	r.s.data.dispatches[d.ID] = *d
	return nil
}

func (r *dispatchRepo) CreateItem(item *entity.DispatchItem) error {
	r.s.data.dispatchItems[item.DispatchID] = append(r.s.data.dispatchItems[item.DispatchID], *item)
	return nil
}

func (r *dispatchRepo) GetByID(id string) (*entity.Dispatch, error) {
	d, ok := r.s.data.dispatches[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *dispatchRepo) GetByIDForUpdate(id string) (*entity.Dispatch, error) {
	return r.GetByID(id)
}

func (r *dispatchRepo) GetItems(dispatchID string) ([]*entity.DispatchItem, error) {
	items := r.s.data.dispatchItems[dispatchID]
	out := make([]*entity.DispatchItem, 0, len(items))
	for i := range items {
		v := items[i]
		out = append(out, &v)
	}
	return out, nil
}

func (r *dispatchRepo) UpdateIf(d *entity.Dispatch, expectedStatus string) error {
	current, ok := r.s.data.dispatches[d.ID]
	if err := conflictIf(ok && current.Status == expectedStatus); err != nil {
		return err
	}
	r.s.data.dispatches[d.ID] = *d
	return nil
}

func (r *dispatchRepo) ListByProcurement(procurementID string) ([]*entity.Dispatch, error) {
	var all []*entity.Dispatch
	for _, d := range r.s.data.dispatches {
		if d.ProcurementID == procurementID {
			v := d
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return all, nil
}

func (r *dispatchRepo) NextCode() (int64, error) { return r.s.nextSeq("dispatch"), nil }

type invoiceRepo struct{ s *Store }

var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

func (r *invoiceRepo) Create(inv *entity.Invoice) error {
	r.s.data.invoices[inv.ID] = *inv
	return nil
}

func (r *invoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	r.s.data.invoiceItems[item.InvoiceID] = append(r.s.data.invoiceItems[item.InvoiceID], *item)
	return nil
}

func (r *invoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	inv, ok := r.s.data.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *invoiceRepo) GetItems(invoiceID string) ([]*entity.InvoiceItem, error) {
	items := r.s.data.invoiceItems[invoiceID]
	out := make([]*entity.InvoiceItem, 0, len(items))
	for i := range items {
		v := items[i]
		out = append(out, &v)
	}
	return out, nil
}

func (r *invoiceRepo) Update(inv *entity.Invoice) error {
	if _, ok := r.s.data.invoices[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	inv.UpdatedAt = time.Now()
	r.s.data.invoices[inv.ID] = *inv
	return nil
}

func (r *invoiceRepo) ListByProcurement(procurementID string) ([]*entity.Invoice, error) {
	var all []*entity.Invoice
	for _, inv := range r.s.data.invoices {
		if inv.ProcurementID == procurementID {
			v := inv
			all = append(all, &v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return all, nil
}

func (r *invoiceRepo) CreatePayment(p *entity.Payment) error {
	r.s.data.payments[p.InvoiceID] = append(r.s.data.payments[p.InvoiceID], *p)
	return nil
}

func (r *invoiceRepo) ListPayments(invoiceID string) ([]*entity.Payment, error) {
	payments := r.s.data.payments[invoiceID]
	out := make([]*entity.Payment, 0, len(payments))
	for i := range payments {
		v := payments[i]
		out = append(out, &v)
	}
	return out, nil
}

func (r *invoiceRepo) SumPayments(invoiceID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.s.data.payments[invoiceID] {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func (r *invoiceRepo) NextCode() (int64, error) { return r.s.nextSeq("invoice"), nil }

// page aplica limit/offset sobre un slice ya ordenado.
func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
