package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Obras-api/internal/application/catalog"
	"github.com/jhoicas/Obras-api/internal/application/issue"
	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/application/procurement"
	"github.com/jhoicas/Obras-api/internal/application/transfer"
)

// Roles de la aplicación (claim "role" del token).
const (
	RoleAdmin       = "admin"
	RoleAlmacenista = "almacenista"
	RoleIngeniero   = "ingeniero"
	RoleCompras     = "compras"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CatalogUC     *catalog.CatalogUseCase
	LedgerUC      *ledger.LedgerUseCase
	IssueUC       *issue.IssueUseCase
	TransferUC    *transfer.TransferUseCase
	ProcurementUC *procurement.ProcurementUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; los
// flujos sensibles además restringen por rol.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Catálogo de soporte
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	sites := api.Group("/sites")
	sites.Post("/", RequireRole(RoleAdmin), catalogHandler.CreateSite)
	sites.Get("/", catalogHandler.ListSites)
	sites.Get("/:id", catalogHandler.GetSite)
	sites.Delete("/:id", RequireRole(RoleAdmin), catalogHandler.DeleteSite)

	items := api.Group("/items")
	items.Post("/", RequireRole(RoleAdmin, RoleAlmacenista), catalogHandler.CreateItem)
	items.Get("/", catalogHandler.ListItems)
	items.Get("/:id", catalogHandler.GetItem)

	machines := api.Group("/machines")
	machines.Post("/", RequireRole(RoleAdmin), catalogHandler.CreateMachine)
	machines.Get("/", catalogHandler.ListMachines)
	machines.Get("/:id", catalogHandler.GetMachine)

	// Ledger de inventario
	inventoryHandler := NewInventoryHandler(deps.LedgerUC)
	inv := api.Group("/inventory")
	inv.Post("/adjustments", RequireRole(RoleAdmin, RoleAlmacenista), inventoryHandler.Adjust)
	inv.Post("/reservations", RequireRole(RoleAdmin, RoleAlmacenista), inventoryHandler.Reserve)
	inv.Post("/releases", RequireRole(RoleAdmin, RoleAlmacenista), inventoryHandler.Release)
	inv.Get("/levels", inventoryHandler.Levels)
	inv.Get("/movements", inventoryHandler.Movements)
	inv.Get("/reconcile", inventoryHandler.Reconcile)
	inv.Get("/virtual-site", inventoryHandler.VirtualSite)

	// Salidas de material
	issueHandler := NewIssueHandler(deps.IssueUC)
	issues := api.Group("/issues")
	issues.Post("/", RequireRole(RoleAlmacenista, RoleIngeniero, RoleAdmin), issueHandler.Create)
	issues.Get("/", issueHandler.List)
	issues.Get("/:id", issueHandler.Get)
	issues.Post("/:id/approve", RequireRole(RoleIngeniero, RoleAdmin), issueHandler.Approve)
	issues.Post("/:id/dispatch", RequireRole(RoleAlmacenista, RoleAdmin), issueHandler.Dispatch)
	issues.Post("/:id/receive", RequireRole(RoleAlmacenista, RoleAdmin), issueHandler.Receive)
	issues.Post("/:id/consume", RequireRole(RoleAlmacenista, RoleAdmin), issueHandler.Consume)
	issues.Post("/:id/reject", RequireRole(RoleIngeniero, RoleAdmin), issueHandler.Reject)

	// Traslados de maquinaria
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers := api.Group("/machine-transfers")
	transfers.Post("/", RequireRole(RoleIngeniero, RoleAdmin), transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/approve", RequireRole(RoleAdmin), transferHandler.Approve)
	transfers.Post("/:id/dispatch", RequireRole(RoleAlmacenista, RoleAdmin), transferHandler.Dispatch)
	transfers.Post("/:id/receive", RequireRole(RoleAlmacenista, RoleAdmin), transferHandler.Receive)
	transfers.Post("/:id/reject", RequireRole(RoleAdmin), transferHandler.Reject)

	// Compras
	procurementHandler := NewProcurementHandler(deps.ProcurementUC)
	procs := api.Group("/procurements")
	procs.Post("/", RequireRole(RoleCompras, RoleAdmin), procurementHandler.Create)
	procs.Get("/", procurementHandler.List)
	procs.Get("/:id", procurementHandler.Get)
	procs.Delete("/:id", RequireRole(RoleCompras, RoleAdmin), procurementHandler.Delete)
	procs.Post("/:id/order", RequireRole(RoleCompras, RoleAdmin), procurementHandler.MarkOrdered)
	procs.Post("/:id/accept", RequireRole(RoleAlmacenista, RoleAdmin), procurementHandler.Accept)
	procs.Post("/:id/transit", RequireRole(RoleAlmacenista, RoleAdmin), procurementHandler.MarkInTransit)
	procs.Post("/:id/dispatches", RequireRole(RoleAlmacenista, RoleAdmin), procurementHandler.CreateDispatch)
	procs.Get("/:id/dispatches", procurementHandler.ListDispatches)
	procs.Post("/:id/invoices", RequireRole(RoleCompras, RoleAdmin), procurementHandler.RegisterInvoice)
	procs.Get("/:id/invoices", procurementHandler.ListInvoices)

	// Despachos y facturas por ID propio
	api.Post("/dispatches/:dispatch_id/receive", RequireRole(RoleAlmacenista, RoleAdmin), procurementHandler.ReceiveDispatch)
	api.Post("/invoices/:invoice_id/payments", RequireRole(RoleCompras, RoleAdmin), procurementHandler.RegisterPayment)
}
