// Package files declares the repository contract for project attachments
// stored in object storage.
package files

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.ProjectFile) (*models.ProjectFile, error)

	// GetByID returns the file row used to authorize and stream the object.
	GetByID(ctx context.Context, id string) (*models.ProjectFile, error)

	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error)
}
