package feedback

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

func (r *PostgresRepository) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	query := `
		INSERT INTO feedback (project_id, deliverable_id, type, notes, submitted_by_name, submitted_by_email, submitted_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		f.ProjectID, f.DeliverableID, f.Type, f.Notes, f.SubmittedByName, f.SubmittedByEmail, dbx.NullString(f.SubmittedByUserID)).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByDeliverable(ctx context.Context, deliverableID string) ([]*models.Feedback, error) {
	query := `
		SELECT id, project_id, deliverable_id, type, notes, submitted_by_name, submitted_by_email, submitted_by_user_id, created_at
		FROM feedback
		WHERE deliverable_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, deliverableID)
	if err != nil {
		return nil, fmt.Errorf("failed to select feedback: %w", err)
	}
	defer rows.Close()

	var result []*models.Feedback
	for rows.Next() {
		var (
			item   models.Feedback
			userID sql.NullString
		)
		err := rows.Scan(&item.ID, &item.ProjectID, &item.DeliverableID, &item.Type, &item.Notes,
			&item.SubmittedByName, &item.SubmittedByEmail, &userID, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		item.SubmittedByUserID = userID.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
