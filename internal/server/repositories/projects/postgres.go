package projects

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

const selectProject = `
	SELECT p.id, p.client_id, c.user_id, p.name, p.payment_status, p.portal_stage, p.created_at, p.updated_at
	FROM projects p
	JOIN clients c ON c.id = p.client_id
`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*models.Project, error) {
	p := &models.Project{}
	if err := s.Scan(&p.ID, &p.ClientID, &p.OwnerUserID, &p.Name, &p.PaymentStatus, &p.PortalStage, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a project in ONBOARDING/UNPAID unless the caller set
// other values.
func (r *PostgresRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if project.PaymentStatus == "" {
		project.PaymentStatus = models.PaymentUnpaid
	}
	if project.PortalStage == "" {
		project.PortalStage = models.StageOnboarding
	}

	query := `
		INSERT INTO projects (client_id, name, payment_status, portal_stage)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, project.ClientID, project.Name, project.PaymentStatus, project.PortalStage).
		Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return project, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return r.getOne(ctx, selectProject+` WHERE p.id = $1`, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Project, error) {
	return r.getOne(ctx, selectProject+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id string) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Project, error) {
	return r.list(ctx, selectProject+` ORDER BY p.created_at DESC`)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.Project, error) {
	return r.list(ctx, selectProject+` WHERE c.user_id = $1 ORDER BY p.created_at DESC`, userID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkReleased(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE projects SET portal_stage = 'RELEASED', updated_at = now()
		WHERE id = $1 AND portal_stage NOT IN ('RELEASED', 'COMPLETE')
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to release project: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) SetStage(ctx context.Context, id string, stage models.PortalStage) error {
	query := `UPDATE projects SET portal_stage = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, stage)
}

func (r *PostgresRepository) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	query := `UPDATE projects SET payment_status = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, status)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, id string, arg any) error {
	res, err := r.db.ExecContext(ctx, query, id, arg)
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

func (r *PostgresRepository) CountByStage(ctx context.Context) (map[models.PortalStage]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT portal_stage, count(*) FROM projects GROUP BY portal_stage`)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()

	result := make(map[models.PortalStage]int)
	for rows.Next() {
		var (
			stage models.PortalStage
			n     int
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		result[stage] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountUnpaid counts projects that are neither marked PAID nor have a PAID
// invoice.
func (r *PostgresRepository) CountUnpaid(ctx context.Context) (int, error) {
	query := `
		SELECT count(*) FROM projects p
		WHERE p.payment_status <> 'PAID'
		  AND NOT EXISTS (SELECT 1 FROM invoices i WHERE i.project_id = p.id AND i.status = 'PAID')
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
