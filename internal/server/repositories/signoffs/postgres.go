package signoffs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Signoff) (*models.Signoff, error) {
	query := `
		INSERT INTO signoffs (project_id, deliverable_id, signed_by_name, signed_by_email, signed_by_user_id, action)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ProjectID, s.DeliverableID, s.SignedByName, s.SignedByEmail, dbx.NullString(s.SignedByUserID), s.Action).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Signoff, error) {
	query := `
		SELECT id, project_id, deliverable_id, signed_by_name, signed_by_email, signed_by_user_id, action, created_at
		FROM signoffs
		WHERE project_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select signoffs: %w", err)
	}
	defer rows.Close()

	var result []*models.Signoff
	for rows.Next() {
		var (
			item   models.Signoff
			userID sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.DeliverableID, &item.SignedByName, &item.SignedByEmail, &userID, &item.Action, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.SignedByUserID = userID.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
