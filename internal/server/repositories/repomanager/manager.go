// Package repomanager vends repositories bound to a database handle so that
// services can run the same repository code on *sql.DB or inside a
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
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
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Clients(db dbx.DBTX) clients.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	MagicLinks(db dbx.DBTX) magiclinks.Repository
	Projects(db dbx.DBTX) projects.Repository
	Invoices(db dbx.DBTX) invoices.Repository
	Deliverables(db dbx.DBTX) deliverables.Repository
	Feedback(db dbx.DBTX) feedback.Repository
	Signoffs(db dbx.DBTX) signoffs.Repository
	Files(db dbx.DBTX) files.Repository
	Leads(db dbx.DBTX) leads.Repository
	Payments(db dbx.DBTX) payments.Repository
}
