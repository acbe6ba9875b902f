package invoices

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

const invoiceColumns = `id, project_id, number, amount_cents, currency, status, stripe_invoice_id, paid_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s scanner) (*models.Invoice, error) {
	var (
		inv      models.Invoice
		stripeID sql.NullString
		paidAt   sql.NullTime
	)
	err := s.Scan(&inv.ID, &inv.ProjectID, &inv.Number, &inv.AmountCents, &inv.Currency, &inv.Status, &stripeID, &paidAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.StripeInvoiceID = stripeID.String
	inv.PaidAt = dbx.TimePtr(paidAt)
	return &inv, nil
}

func (r *PostgresRepository) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if invoice.Status == "" {
		invoice.Status = models.InvoiceOpen
	}
	query := `
		INSERT INTO invoices (project_id, number, amount_cents, currency, status, stripe_invoice_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		invoice.ProjectID, invoice.Number, invoice.AmountCents, invoice.Currency, invoice.Status, dbx.NullString(invoice.StripeInvoiceID)).
		Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return invoice, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByStripeID(ctx context.Context, stripeInvoiceID string) (*models.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE stripe_invoice_id = $1`, stripeInvoiceID)
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE project_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select invoices: %w", err)
	}
	defer rows.Close()

	var result []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, id string, now time.Time) (*models.Invoice, error) {
	query := `
		UPDATE invoices SET status = 'PAID', paid_at = COALESCE(paid_at, $2)
		WHERE id = $1
		RETURNING ` + invoiceColumns
	return r.getOne(ctx, query, id, now)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}
