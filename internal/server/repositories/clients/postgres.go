package clients

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	query := `
		INSERT INTO clients (user_id, company)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, client.UserID, client.Company).Scan(&client.ID, &client.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return client, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	query := `
		SELECT id, user_id, company, created_at
		FROM clients
		WHERE id = $1
	`
	client := &models.Client{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&client.ID, &client.UserID, &client.Company, &client.CreatedAt); err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return client, nil
}
