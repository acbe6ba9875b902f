// Package deliverables declares the repository contract for project
// deliverables.
package deliverables

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error)
	GetByID(ctx context.Context, id string) (*models.Deliverable, error)

	// GetInProject returns the deliverable only when it belongs to projectID;
	// otherwise common.ErrorNotFound.
	GetInProject(ctx context.Context, projectID, id string) (*models.Deliverable, error)

	ListByProject(ctx context.Context, projectID string) ([]*models.Deliverable, error)

	// MarkFinal sets the deliverable state to FINAL. Exactly one row must be
	// affected.
	MarkFinal(ctx context.Context, id string) error

	// SetKeys records uploaded object keys; empty values leave a key as is.
	SetKeys(ctx context.Context, id, previewKey, finalKey string) error
}
