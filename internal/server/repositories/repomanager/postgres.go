package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/migrations"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/clients"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/deliverables"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/feedback"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/files"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/invoices"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/leads"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/magiclinks"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/payments"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/projects"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/signoffs"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Clients(db dbx.DBTX) clients.Repository {
	return clients.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) MagicLinks(db dbx.DBTX) magiclinks.Repository {
	return magiclinks.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Projects(db dbx.DBTX) projects.Repository {
	return projects.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Invoices(db dbx.DBTX) invoices.Repository {
	return invoices.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Deliverables(db dbx.DBTX) deliverables.Repository {
	return deliverables.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Feedback(db dbx.DBTX) feedback.Repository {
	return feedback.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Signoffs(db dbx.DBTX) signoffs.Repository {
	return signoffs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Leads(db dbx.DBTX) leads.Repository {
	return leads.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Payments(db dbx.DBTX) payments.Repository {
	return payments.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
