package feedback

import (
	"context"
	"errors"
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
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+feedback\b.*RETURNING\s+id,\s*created_at`).
		WithArgs("p1", "d1", models.FeedbackNeedsRevision, "fix kerning", "Ann", "ann@x.io", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("f1", now))

	f, err := repo.Create(context.Background(), &models.Feedback{
		ProjectID: "p1", DeliverableID: "d1", Type: models.FeedbackNeedsRevision, Notes: "fix kerning",
		SubmittedByName: "Ann", SubmittedByEmail: "ann@x.io", SubmittedByUserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+feedback`).WillReturnError(errors.New("check violation"))

	_, err = repo.Create(context.Background(), &models.Feedback{ProjectID: "p1", DeliverableID: "d1", Type: models.FeedbackApprove})
	assert.ErrorContains(t, err, "check violation")
}

func TestListByDeliverable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)FROM\s+feedback\s+WHERE\s+deliverable_id\s*=\s*\$1`).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "deliverable_id", "type", "notes", "submitted_by_name", "submitted_by_email", "submitted_by_user_id", "created_at"}).
			AddRow("f1", "p1", "d1", "APPROVE", "", "Ann", "", nil, now))

	got, err := repo.ListByDeliverable(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.FeedbackApprove, got[0].Type)
	assert.Empty(t, got[0].SubmittedByUserID)
}
