package portalctl

import (
	"context"
	"database/sql"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/files"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFiles struct {
	files.Repository
	byID map[string]*models.ProjectFile
}

func (f *fakeFiles) GetByID(_ context.Context, id string) (*models.ProjectFile, error) {
	if file, ok := f.byID[id]; ok {
		return file, nil
	}
	return nil, common.ErrorNotFound
}

type fakeManager struct {
	repomanager.RepositoryManager
	files    *fakeFiles
	migrated bool
}

func (m *fakeManager) Files(dbx.DBTX) files.Repository { return m.files }

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return nil
}

func newTestBackend(t *testing.T) (*dbBackend, *fakeManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.PublicBaseURL = "https://portal.example.com/"
	cfg.DownloadSigningKey = "signing-key"

	m := &fakeManager{files: &fakeFiles{byID: map[string]*models.ProjectFile{
		"f1": {ID: "f1", ProjectID: "p1", Name: "contract.pdf"},
	}}}
	b := newDBBackend(cfg, logging.Nop{}, db, m)
	b.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return b, m, mock
}

func TestSignFileLink(t *testing.T) {
	b, _, _ := newTestBackend(t)

	link, expires, err := b.SignFileLink(context.Background(), "f1", time.Hour)

	require.NoError(t, err)
	assert.Equal(t, time.Unix(1_700_003_600, 0), expires)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "portal.example.com", u.Host)
	assert.Equal(t, "/files/f1/download", u.Path)
	assert.Equal(t, "1700003600", u.Query().Get("expires"))
	assert.NotEmpty(t, u.Query().Get("token"))
}

func TestSignFileLink_UnknownFile(t *testing.T) {
	b, _, _ := newTestBackend(t)

	_, _, err := b.SignFileLink(context.Background(), "missing", time.Hour)

	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMigrateAndClose(t *testing.T) {
	b, m, mock := newTestBackend(t)
	mock.ExpectClose()

	require.NoError(t, b.Migrate(context.Background()))
	require.NoError(t, b.Close())

	assert.True(t, m.migrated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
