// Package feedback stores client feedback records. Records are append-only.
package feedback

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
	ListByDeliverable(ctx context.Context, deliverableID string) ([]*models.Feedback, error)
}
