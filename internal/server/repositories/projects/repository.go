// Package projects declares the repository contract for client projects.
package projects

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)

	// GetByID returns the project with OwnerUserID joined from its client.
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// GetByIDForUpdate is GetByID with the project row locked until the
	// surrounding transaction ends. Only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Project, error)

	List(ctx context.Context) ([]*models.Project, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.Project, error)

	// MarkReleased moves the project to RELEASED only if it is not already
	// RELEASED or COMPLETE. It reports whether the transition happened.
	MarkReleased(ctx context.Context, id string) (bool, error)

	// SetStage unconditionally sets the portal stage and refreshes updated_at.
	SetStage(ctx context.Context, id string, stage models.PortalStage) error

	// SetPaymentStatus writes the cached payment status.
	SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error

	CountByStage(ctx context.Context) (map[models.PortalStage]int, error)
	CountUnpaid(ctx context.Context) (int, error)
}
