package invoices

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "project_id", "number", "amount_cents", "currency", "status", "stripe_invoice_id", "paid_at", "created_at"}

func TestCreate_NullStripeID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+invoices`).
		WithArgs("p1", "INV-1", int64(5000), "usd", models.InvoiceOpen, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("i1", now))

	inv, err := repo.Create(context.Background(), &models.Invoice{ProjectID: "p1", Number: "INV-1", AmountCents: 5000, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "i1", inv.ID)
	assert.Equal(t, models.InvoiceOpen, inv.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByStripeID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)FROM\s+invoices\s+WHERE\s+stripe_invoice_id\s*=\s*\$1`).
		WithArgs("in_123").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("i1", "p1", "INV-1", 5000, "usd", "OPEN", "in_123", nil, created))

	got, err := repo.GetByStripeID(context.Background(), "in_123")
	require.NoError(t, err)

	want := &models.Invoice{
		ID: "i1", ProjectID: "p1", Number: "INV-1", AmountCents: 5000, Currency: "usd",
		Status: models.InvoiceOpen, StripeInvoiceID: "in_123", CreatedAt: created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("invoice mismatch (-want +got):\n%s", diff)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+invoices\s+WHERE\s+id\s*=\s*\$1`).WithArgs("x").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "x")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestListByProject(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	paid := time.Now()
	mock.ExpectQuery(`(?s)FROM\s+invoices\s+WHERE\s+project_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("i1", "p1", "INV-1", 100, "usd", "VOID", nil, nil, paid).
			AddRow("i2", "p1", "INV-2", 200, "usd", "PAID", nil, paid, paid))

	got, err := repo.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].PaidAt)
	require.NotNil(t, got[1].PaidAt)
	assert.Equal(t, models.InvoicePaid, got[1].Status)
}

func TestMarkPaid_KeepsFirstPaidAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	first := now.Add(-time.Hour)
	mock.ExpectQuery(`(?s)UPDATE\s+invoices\s+SET\s+status\s*=\s*'PAID',\s*paid_at\s*=\s*COALESCE\(paid_at,\s*\$2\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`).
		WithArgs("i1", now).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("i1", "p1", "INV-1", 100, "usd", "PAID", nil, first, first))

	inv, err := repo.MarkPaid(context.Background(), "i1", now)
	require.NoError(t, err)
	require.NotNil(t, inv.PaidAt)
	assert.True(t, inv.PaidAt.Equal(first))
}

func TestMarkPaid_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)UPDATE\s+invoices`).WillReturnError(sql.ErrNoRows)

	_, err := repo.MarkPaid(context.Background(), "x", time.Now())
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
