package portalctl

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studioportal/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Backend is what the commands need from the portal.
type Backend interface {
	Migrate(ctx context.Context) error
	CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error)
	MarkInvoicePaid(ctx context.Context, invoiceID string) (*models.Invoice, error)
	PruneRefreshTokens(ctx context.Context) (int64, error)
	ReplaceDeliverableFiles(ctx context.Context, deliverableID, previewExt, finalExt string) (*services.DeliverableUpload, error)
	SignFileLink(ctx context.Context, fileID string, ttl time.Duration) (string, time.Time, error)
	Close() error
}

// Opener connects a Backend for one command invocation.
type Opener func(ctx context.Context, cfg *config.Config) (Backend, error)

type dbBackend struct {
	cfg      *config.Config
	db       *sql.DB
	m        repomanager.RepositoryManager
	services *server.Services
	now      func() time.Time
}

// OpenDatabaseBackend talks to the portal database directly. Migrations are
// only applied by Migrate.
func OpenDatabaseBackend(_ context.Context, cfg *config.Config) (Backend, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return newDBBackend(cfg, logging.NewJSON(os.Stderr, cfg.LogLevel), db, repomanager.NewPostgresRepositoryManager()), nil
}

func newDBBackend(cfg *config.Config, l logging.Logger, db *sql.DB, m repomanager.RepositoryManager) *dbBackend {
	return &dbBackend{
		cfg:      cfg,
		db:       db,
		m:        m,
		services: server.NewServices(cfg, l.With("module", "portalctl"), db, m),
		now:      time.Now,
	}
}

func (b *dbBackend) Migrate(ctx context.Context) error {
	return b.m.RunMigrations(ctx, b.db)
}

func (b *dbBackend) CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	return b.services.Auth.CreateAdmin(ctx, email, name, password)
}

func (b *dbBackend) MarkInvoicePaid(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	return b.services.Payments.MarkInvoicePaid(ctx, invoiceID)
}

func (b *dbBackend) PruneRefreshTokens(ctx context.Context) (int64, error) {
	return b.services.Auth.PruneRefreshTokens(ctx)
}

func (b *dbBackend) ReplaceDeliverableFiles(ctx context.Context, deliverableID, previewExt, finalExt string) (*services.DeliverableUpload, error) {
	return b.services.Admin.ReplaceDeliverableFiles(ctx, deliverableID, previewExt, finalExt)
}

// SignFileLink signs a download link for an existing project file.
func (b *dbBackend) SignFileLink(ctx context.Context, fileID string, ttl time.Duration) (string, time.Time, error) {
	file, err := b.m.Files(b.db).GetByID(ctx, fileID)
	if err != nil {
		return "", time.Time{}, err
	}
	expires := b.now().Add(ttl)
	return services.SignedFileURL(b.cfg.PublicBaseURL, []byte(b.cfg.DownloadSigningKey), file.ID, expires), expires, nil
}

func (b *dbBackend) Close() error {
	return b.db.Close()
}
