// Package payments stores payment notifications received from the payment
// provider.
package payments

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	// Record inserts ev unless an event with the same provider event id was
	// already stored, in which case it reports created=false.
	Record(ctx context.Context, ev *models.PaymentEvent) (created bool, err error)

	GetByID(ctx context.Context, id string) (*models.PaymentEvent, error)
	ListUnmatched(ctx context.Context) ([]*models.PaymentEvent, error)
	CountUnmatched(ctx context.Context) (int, error)

	// MarkMatched binds an UNMATCHED event to invoiceID. A missing or
	// already matched event yields common.ErrAlreadyMatched.
	MarkMatched(ctx context.Context, id, invoiceID string, now time.Time) error
}
