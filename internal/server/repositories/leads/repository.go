// Package leads stores inbound sales leads and newsletter subscribers.
package leads

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	ListLatest(ctx context.Context, limit int) ([]*models.Lead, error)

	// Subscribe records a newsletter subscriber. Subscribing an existing
	// address is a no-op and reports created=false.
	Subscribe(ctx context.Context, s *models.Subscriber) (created bool, err error)
}
