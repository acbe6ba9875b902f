package leads

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+leads`).
		WithArgs("Ann", "ann@x.io", "Acme", "hello", "contact").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("l1", time.Now()))

	l, err := repo.Create(context.Background(), &models.Lead{Name: "Ann", Email: "ann@x.io", Company: "Acme", Message: "hello", Source: "contact"})
	require.NoError(t, err)
	assert.Equal(t, "l1", l.ID)
}

func TestListLatest(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+leads\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "company", "message", "source", "created_at"}).
			AddRow("l2", "Bo", "bo@x.io", "", "hi", "", time.Now()))

	got, err := repo.ListLatest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bo", got[0].Name)
}

func TestListLatest_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+leads`).WillReturnError(errors.New("boom"))

	_, err := repo.ListLatest(context.Background(), 5)
	assert.Error(t, err)
}

func TestSubscribe(t *testing.T) {
	const q = `(?s)INSERT\s+INTO\s+subscribers\s*\(email,\s*source\).*ON\s+CONFLICT\s*\(email\)\s+DO\s+NOTHING`

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(q).WithArgs("new@x.io", "footer").WillReturnResult(sqlmock.NewResult(0, 1))
	created, err := repo.Subscribe(context.Background(), &models.Subscriber{Email: " New@X.io", Source: "footer"})
	require.NoError(t, err)
	assert.True(t, created)

	mock.ExpectExec(q).WithArgs("new@x.io", "footer").WillReturnResult(sqlmock.NewResult(0, 0))
	created, err = repo.Subscribe(context.Background(), &models.Subscriber{Email: "new@x.io", Source: "footer"})
	require.NoError(t, err)
	assert.False(t, created)
}
