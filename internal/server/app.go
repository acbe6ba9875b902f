// Package server wires configuration, storage and services together and
// runs the public HTTP API next to the ops gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/httpapi"
	"github.com/dmitrijs2005/studioportal/internal/server/opsgrpc"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"github.com/dmitrijs2005/studioportal/internal/telemetry"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// Services holds the concrete portal services built from one Config.
type Services struct {
	Auth       *services.AuthService
	Portal     *services.PortalService
	Downloads  *services.DownloadService
	Payments   *services.PaymentService
	Admin      *services.AdminService
	Leads      *services.LeadService
	FieldNotes *services.FieldNotesService
}

// NewServices builds every service over db. Mail goes through Resend when an
// API key is configured and to the log otherwise.
func NewServices(cfg *config.Config, l logging.Logger, db *sql.DB, m repomanager.RepositoryManager) *Services {
	var mailer services.Mailer = services.NewLogMailer(l)
	if cfg.ResendAPIKey != "" {
		mailer = services.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	}
	store := services.NewS3Store(cfg)

	return &Services{
		Auth:       services.NewAuthService(db, m, mailer, l, cfg),
		Portal:     services.NewPortalService(db, m, mailer, cfg.AdminEmail, l),
		Downloads:  services.NewDownloadService(db, m, store, l, cfg),
		Payments:   services.NewPaymentService(db, m, l, cfg.StripeWebhookSecret),
		Admin:      services.NewAdminService(db, m, store, l),
		Leads:      services.NewLeadService(db, m, mailer, cfg.AdminEmail, l),
		FieldNotes: services.NewFieldNotesService(cfg.NotionToken, cfg.NotionDatabaseID),
	}
}

// OpenDatabase opens the pool and brings the schema up to date.
func OpenDatabase(ctx context.Context, dsn string, m repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, nil
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services *Services
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	m := repomanager.NewPostgresRepositoryManager()
	db, err := OpenDatabase(ctx, c.DatabaseDSN, m)
	if err != nil {
		return nil, err
	}

	return newApp(c, logger, db, m), nil
}

func newApp(c *config.Config, l logging.Logger, db *sql.DB, m repomanager.RepositoryManager) *App {
	return &App{config: c, logger: l, db: db, services: NewServices(c, l, db, m)}
}

func (app *App) httpServer() *httpapi.Server {
	return httpapi.NewServer(app.config, app.logger, httpapi.Services{
		Auth:       app.services.Auth,
		Portal:     app.services.Portal,
		Downloads:  app.services.Downloads,
		Payments:   app.services.Payments,
		Admin:      app.services.Admin,
		Leads:      app.services.Leads,
		FieldNotes: app.services.FieldNotes,
	})
}

// Run serves HTTP and ops gRPC until SIGINT/SIGTERM or ctx cancellation.
// Either server failing stops the other.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "studioportal", app.config.OTelEndpoint)
	if err != nil {
		app.logger.Warn(ctx, "tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			app.logger.Error(ctx, "tracing shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.httpServer().Run(ctx)
	})
	g.Go(func() error {
		return opsgrpc.NewServer(app.config.GRPCAddr, app.logger, app.db).Run(ctx)
	})

	err = g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close", "error", cerr)
	}
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
