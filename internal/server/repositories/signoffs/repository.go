// Package signoffs stores the immutable release audit records.
package signoffs

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Signoff) (*models.Signoff, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Signoff, error)
}
