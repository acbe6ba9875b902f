package magiclinks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, tokenHash, email string, expiresAt time.Time) error {
	query := `
		INSERT INTO magic_links (token_hash, email, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, tokenHash, email, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Consume flips used_at in a single statement so a link cannot be redeemed
// twice, even by concurrent requests.
func (r *PostgresRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*models.MagicLink, error) {
	query := `
		UPDATE magic_links SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING token_hash, email, expires_at, used_at
	`
	link := &models.MagicLink{}
	var usedAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, tokenHash, now).Scan(&link.TokenHash, &link.Email, &link.ExpiresAt, &usedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	link.UsedAt = dbx.TimePtr(usedAt)
	return link, nil
}
