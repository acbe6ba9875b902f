package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	query := `
		INSERT INTO leads (name, email, company, message, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, lead.Name, lead.Email, lead.Company, lead.Message, lead.Source).
		Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) ListLatest(ctx context.Context, limit int) ([]*models.Lead, error) {
	query := `
		SELECT id, name, email, company, message, source, created_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select leads: %w", err)
	}
	defer rows.Close()

	var result []*models.Lead
	for rows.Next() {
		var item models.Lead
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Company, &item.Message, &item.Source, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Subscribe(ctx context.Context, s *models.Subscriber) (bool, error) {
	query := `
		INSERT INTO subscribers (email, source)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	res, err := r.db.ExecContext(ctx, query, s.Email, s.Source)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}
