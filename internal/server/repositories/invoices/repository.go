// Package invoices declares the repository contract for project invoices.
package invoices

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetByStripeID(ctx context.Context, stripeInvoiceID string) (*models.Invoice, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Invoice, error)

	// MarkPaid sets the invoice to PAID, stamping paid_at only the first
	// time, and returns the updated row.
	MarkPaid(ctx context.Context, id string, now time.Time) (*models.Invoice, error)
}
