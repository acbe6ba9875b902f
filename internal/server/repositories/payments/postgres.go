package payments

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

const eventColumns = `id, provider, provider_event_id, kind, amount_cents, currency, customer_email, reference, invoice_id, status, received_at, matched_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*models.PaymentEvent, error) {
	var (
		ev        models.PaymentEvent
		invoiceID sql.NullString
		matchedAt sql.NullTime
	)
	err := s.Scan(&ev.ID, &ev.Provider, &ev.ProviderEventID, &ev.Kind, &ev.AmountCents, &ev.Currency,
		&ev.CustomerEmail, &ev.Reference, &invoiceID, &ev.Status, &ev.ReceivedAt, &matchedAt)
	if err != nil {
		return nil, err
	}
	ev.InvoiceID = invoiceID.String
	ev.MatchedAt = dbx.TimePtr(matchedAt)
	return &ev, nil
}

func (r *PostgresRepository) Record(ctx context.Context, ev *models.PaymentEvent) (bool, error) {
	query := `
		INSERT INTO payment_events (provider, provider_event_id, kind, amount_cents, currency, customer_email, reference, invoice_id, status, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (provider_event_id) DO NOTHING
		RETURNING id, received_at
	`
	var matchedAt any
	if ev.MatchedAt != nil {
		matchedAt = *ev.MatchedAt
	}
	err := r.db.QueryRowContext(ctx, query,
		ev.Provider, ev.ProviderEventID, ev.Kind, ev.AmountCents, ev.Currency, ev.CustomerEmail, ev.Reference,
		dbx.NullString(ev.InvoiceID), ev.Status, matchedAt).
		Scan(&ev.ID, &ev.ReceivedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PaymentEvent, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM payment_events WHERE id = $1`, id))
	if err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ev, nil
}

func (r *PostgresRepository) ListUnmatched(ctx context.Context) ([]*models.PaymentEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM payment_events WHERE status = 'UNMATCHED' ORDER BY received_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select payment events: %w", err)
	}
	defer rows.Close()

	var result []*models.PaymentEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountUnmatched(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM payment_events WHERE status = 'UNMATCHED'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkMatched(ctx context.Context, id, invoiceID string, now time.Time) error {
	query := `
		UPDATE payment_events SET status = 'MATCHED', invoice_id = $2, matched_at = $3
		WHERE id = $1 AND status = 'UNMATCHED'
	`
	res, err := r.db.ExecContext(ctx, query, id, invoiceID, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.ExpectOneRow(res)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrAlreadyMatched
	}
	return nil
}
