package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.ProjectFile) (*models.ProjectFile, error) {
	query := `
		INSERT INTO project_files (project_id, name, storage_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.ProjectID, file.Name, file.StorageKey, file.ContentType, file.SizeBytes).Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ProjectFile, error) {
	query := ` SELECT id, project_id, name, storage_key, content_type, size_bytes, created_at from project_files 
		WHERE id=$1
		`

	result := &models.ProjectFile{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&result.ID, &result.ProjectID, &result.Name, &result.StorageKey, &result.ContentType, &result.SizeBytes, &result.CreatedAt)
	if err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error) {
	query := ` SELECT id, project_id, name, storage_key, content_type, size_bytes, created_at from project_files 
		WHERE project_id=$1 ORDER BY created_at
		`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.ProjectFile
	for rows.Next() {
		var item models.ProjectFile
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Name, &item.StorageKey, &item.ContentType, &item.SizeBytes, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
