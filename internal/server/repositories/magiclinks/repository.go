// Package magiclinks stores single-use login tokens by their sha256 digest.
package magiclinks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	// Create stores a digest for email that stays valid until expiresAt.
	Create(ctx context.Context, tokenHash, email string, expiresAt time.Time) error

	// Consume marks an unused, unexpired link as used and returns it. Any
	// other state yields common.ErrorNotFound.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*models.MagicLink, error)
}
