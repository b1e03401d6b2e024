package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Obras-api/internal/application/catalog"
	"github.com/jhoicas/Obras-api/internal/application/issue"
	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/application/procurement"
	"github.com/jhoicas/Obras-api/internal/application/transfer"
	"github.com/jhoicas/Obras-api/internal/infrastructure/notification"
	"github.com/jhoicas/Obras-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Obras-api/internal/interfaces/http"
	"github.com/jhoicas/Obras-api/pkg/config"
	"github.com/jhoicas/Obras-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.DB.MigrateOnStart {
		if err := runMigrations(cfg); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios sobre el pool (lecturas y operaciones de una sola fila);
	// dentro de las transacciones el TxRunner los re-liga a la tx.
	siteRepo := postgres.NewSiteRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	machineRepo := postgres.NewMachineRepository(pool)
	inventoryRepo := postgres.NewSiteInventoryRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	issueRepo := postgres.NewMaterialIssueRepository(pool)
	transferRepo := postgres.NewMachineTransferRepository(pool)
	procurementRepo := postgres.NewProcurementRepository(pool)
	dispatchRepo := postgres.NewDispatchRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	notifier := notification.NewLogNotifier(log)

	ledgerUC := ledger.NewLedgerUseCase(txRunner, inventoryRepo, movementRepo, siteRepo, itemRepo)
	catalogUC := catalog.NewCatalogUseCase(siteRepo, itemRepo, machineRepo)
	issueUC := issue.NewIssueUseCase(txRunner, ledgerUC, issueRepo, siteRepo, itemRepo, notifier)
	transferUC := transfer.NewTransferUseCase(txRunner, transferRepo, machineRepo, siteRepo, notifier)
	procurementUC := procurement.NewProcurementUseCase(
		txRunner, ledgerUC, procurementRepo, dispatchRepo, invoiceRepo, siteRepo, itemRepo, notifier,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Obras API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		CatalogUC:     catalogUC,
		LedgerUC:      ledgerUC,
		IssueUC:       issueUC,
		TransferUC:    transferUC,
		ProcurementUC: procurementUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// runMigrations aplica las migraciones goose usando el driver database/sql de pgx.
func runMigrations(cfg *config.Config) error {
	db, err := goose.OpenDBWithDriver("pgx", cfg.DB.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Up(db, "migrations")
}
