package signoffs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+signoffs\b`).
		WithArgs("p1", "d1", "Ann Client", "", nil, models.SignoffActionRelease).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("s1", now))

	s, err := repo.Create(context.Background(), &models.Signoff{
		ProjectID: "p1", DeliverableID: "d1", SignedByName: "Ann Client", Action: models.SignoffActionRelease,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByProject(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`(?s)FROM\s+signoffs\s+WHERE\s+project_id\s*=\s*\$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "deliverable_id", "signed_by_name", "signed_by_email", "signed_by_user_id", "action", "created_at"}).
			AddRow("s1", "p1", "d1", "Ann", "a@x.io", "u1", "RELEASE", time.Now()))

	got, err := repo.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].SignedByUserID)
}
