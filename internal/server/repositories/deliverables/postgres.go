package deliverables

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

const deliverableColumns = `id, project_id, title, version, state, preview_key, final_key, created_at, updated_at`

// PostgresRepository implements deliverable storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeliverable(s scanner) (*models.Deliverable, error) {
	d := &models.Deliverable{}
	if err := s.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Version, &d.State, &d.PreviewKey, &d.FinalKey, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error) {
	query := `
		INSERT INTO deliverables (project_id, title, version, state, preview_key, final_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, d.ProjectID, d.Title, d.Version, d.State, d.PreviewKey, d.FinalKey).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Deliverable, error) {
	return r.getOne(ctx, `SELECT `+deliverableColumns+` FROM deliverables WHERE id = $1`, id)
}

func (r *PostgresRepository) GetInProject(ctx context.Context, projectID, id string) (*models.Deliverable, error) {
	return r.getOne(ctx, `SELECT `+deliverableColumns+` FROM deliverables WHERE id = $1 AND project_id = $2`, id, projectID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Deliverable, error) {
	d, err := scanDeliverable(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE project_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select deliverables: %w", err)
	}
	defer rows.Close()

	var result []*models.Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkFinal(ctx context.Context, id string) error {
	query := `update deliverables set state='FINAL', updated_at=now() where id=$1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark final: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("wrong rows affected count: %d", rowsAffected)
	}
	return nil
}

func (r *PostgresRepository) SetKeys(ctx context.Context, id, previewKey, finalKey string) error {
	query := `
		UPDATE deliverables SET
			preview_key = COALESCE(NULLIF($2, ''), preview_key),
			final_key = COALESCE(NULLIF($3, ''), final_key),
			updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, previewKey, finalKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.ExpectOneRow(res)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
