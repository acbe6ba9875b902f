package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/clients"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/deliverables"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/feedback"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/files"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/invoices"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/leads"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/magiclinks"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/payments"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/projects"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/signoffs"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- repository manager ---

type fakeRepoManager struct {
	repomanager.RepositoryManager

	users        *fakeUsersRepo
	clients      *fakeClientsRepo
	refresh      *fakeRefreshRepo
	links        *fakeMagicLinksRepo
	projects     *fakeProjectsRepo
	invoices     *fakeInvoicesRepo
	deliverables *fakeDeliverablesRepo
	feedback     *fakeFeedbackRepo
	signoffs     *fakeSignoffsRepo
	files        *fakeFilesRepo
	leads        *fakeLeadsRepo
	payments     *fakePaymentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:        &fakeUsersRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}},
		clients:      &fakeClientsRepo{byID: map[string]*models.Client{}},
		refresh:      &fakeRefreshRepo{deleted: true},
		links:        &fakeMagicLinksRepo{},
		projects:     &fakeProjectsRepo{byID: map[string]*models.Project{}, released: true},
		invoices:     &fakeInvoicesRepo{byID: map[string]*models.Invoice{}, byStripe: map[string]*models.Invoice{}},
		deliverables: &fakeDeliverablesRepo{byID: map[string]*models.Deliverable{}},
		feedback:     &fakeFeedbackRepo{},
		signoffs:     &fakeSignoffsRepo{},
		files:        &fakeFilesRepo{byID: map[string]*models.ProjectFile{}},
		leads:        &fakeLeadsRepo{subscribed: true},
		payments:     &fakePaymentsRepo{byID: map[string]*models.PaymentEvent{}, recordCreated: true},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) Clients(dbx.DBTX) clients.Repository             { return m.clients }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.refresh }
func (m *fakeRepoManager) MagicLinks(dbx.DBTX) magiclinks.Repository       { return m.links }
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository           { return m.projects }
func (m *fakeRepoManager) Invoices(dbx.DBTX) invoices.Repository           { return m.invoices }
func (m *fakeRepoManager) Deliverables(dbx.DBTX) deliverables.Repository   { return m.deliverables }
func (m *fakeRepoManager) Feedback(dbx.DBTX) feedback.Repository           { return m.feedback }
func (m *fakeRepoManager) Signoffs(dbx.DBTX) signoffs.Repository           { return m.signoffs }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository                 { return m.files }
func (m *fakeRepoManager) Leads(dbx.DBTX) leads.Repository                 { return m.leads }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository           { return m.payments }

// --- users / clients ---

type fakeUsersRepo struct {
	users.Repository

	byEmail   map[string]*models.User
	byID      map[string]*models.User
	getErr    error
	createErr error
	created   []*models.User
}

func (f *fakeUsersRepo) add(u *models.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *u
	out.ID = fmt.Sprintf("user-%d", len(f.created)+1)
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeClientsRepo struct {
	clients.Repository

	byID      map[string]*models.Client
	createErr error
	created   []*models.Client
}

func (f *fakeClientsRepo) Create(_ context.Context, c *models.Client) (*models.Client, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *c
	out.ID = "client-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeClientsRepo) GetByID(_ context.Context, id string) (*models.Client, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

// --- tokens ---

type fakeRefreshRepo struct {
	refreshtokens.Repository

	findOut   *models.RefreshToken
	findErr   error
	deleted   bool
	delErr    error
	createErr error
	created   []string
	pruned    int64
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, _ time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, userID+":"+token)
	return nil
}

func (f *fakeRefreshRepo) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(context.Context, string) (bool, error) {
	return f.deleted, f.delErr
}

func (f *fakeRefreshRepo) DeleteExpired(context.Context, time.Time) (int64, error) {
	return f.pruned, nil
}

type fakeMagicLinksRepo struct {
	magiclinks.Repository

	created    []string
	createErr  error
	consumeOut *models.MagicLink
	consumeErr error
	consumed   []string
}

func (f *fakeMagicLinksRepo) Create(_ context.Context, tokenHash, _ string, _ time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, tokenHash)
	return nil
}

func (f *fakeMagicLinksRepo) Consume(_ context.Context, tokenHash string, _ time.Time) (*models.MagicLink, error) {
	f.consumed = append(f.consumed, tokenHash)
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	if f.consumeOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.consumeOut, nil
}

// --- projects / invoices ---

type fakeProjectsRepo struct {
	projects.Repository

	byID        map[string]*models.Project
	getErr      error
	released    bool
	releaseErr  error
	releaseCall int
	lockCalls   int
	stages      []models.PortalStage
	stageErr    error
	statuses    map[string]models.PaymentStatus
	created     []*models.Project
	listed      string
	byStage     map[models.PortalStage]int
	unpaid      int
	countErr    error
}

func (f *fakeProjectsRepo) get(id string) (*models.Project, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeProjectsRepo) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	out := *p
	out.ID = "project-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeProjectsRepo) GetByID(_ context.Context, id string) (*models.Project, error) {
	return f.get(id)
}

func (f *fakeProjectsRepo) GetByIDForUpdate(_ context.Context, id string) (*models.Project, error) {
	f.lockCalls++
	return f.get(id)
}

func (f *fakeProjectsRepo) List(context.Context) ([]*models.Project, error) {
	f.listed = "all"
	return []*models.Project{{ID: "p1"}, {ID: "p2"}}, nil
}

func (f *fakeProjectsRepo) ListByOwner(_ context.Context, userID string) ([]*models.Project, error) {
	f.listed = userID
	return []*models.Project{{ID: "p1", OwnerUserID: userID}}, nil
}

func (f *fakeProjectsRepo) MarkReleased(context.Context, string) (bool, error) {
	f.releaseCall++
	return f.released, f.releaseErr
}

func (f *fakeProjectsRepo) SetStage(_ context.Context, _ string, stage models.PortalStage) error {
	if f.stageErr != nil {
		return f.stageErr
	}
	f.stages = append(f.stages, stage)
	return nil
}

func (f *fakeProjectsRepo) SetPaymentStatus(_ context.Context, id string, status models.PaymentStatus) error {
	if f.statuses == nil {
		f.statuses = map[string]models.PaymentStatus{}
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeProjectsRepo) CountByStage(context.Context) (map[models.PortalStage]int, error) {
	return f.byStage, f.countErr
}

func (f *fakeProjectsRepo) CountUnpaid(context.Context) (int, error) {
	return f.unpaid, nil
}

type fakeInvoicesRepo struct {
	invoices.Repository

	byID        map[string]*models.Invoice
	byStripe    map[string]*models.Invoice
	listErr     error
	markPaidErr error
	paid        []string
	created     []*models.Invoice
}

func (f *fakeInvoicesRepo) add(inv *models.Invoice) {
	f.byID[inv.ID] = inv
	if inv.StripeInvoiceID != "" {
		f.byStripe[inv.StripeInvoiceID] = inv
	}
}

func (f *fakeInvoicesRepo) Create(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	out := *inv
	out.ID = "invoice-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeInvoicesRepo) GetByID(_ context.Context, id string) (*models.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return inv, nil
}

func (f *fakeInvoicesRepo) GetByStripeID(_ context.Context, id string) (*models.Invoice, error) {
	inv, ok := f.byStripe[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return inv, nil
}

func (f *fakeInvoicesRepo) ListByProject(_ context.Context, projectID string) ([]*models.Invoice, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Invoice
	for _, inv := range f.byID {
		if inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoicesRepo) MarkPaid(_ context.Context, id string, now time.Time) (*models.Invoice, error) {
	if f.markPaidErr != nil {
		return nil, f.markPaidErr
	}
	inv, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.paid = append(f.paid, id)
	out := *inv
	out.Status = models.InvoicePaid
	if out.PaidAt == nil {
		out.PaidAt = &now
	}
	return &out, nil
}

// --- deliverables and their records ---

type fakeDeliverablesRepo struct {
	deliverables.Repository

	byID         map[string]*models.Deliverable
	markFinalErr error
	finalized    []string
	created      []*models.Deliverable
	keys         [][2]string
}

func (f *fakeDeliverablesRepo) Create(_ context.Context, d *models.Deliverable) (*models.Deliverable, error) {
	out := *d
	out.ID = "deliverable-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeDeliverablesRepo) GetByID(_ context.Context, id string) (*models.Deliverable, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *d
	return &out, nil
}

func (f *fakeDeliverablesRepo) GetInProject(_ context.Context, projectID, id string) (*models.Deliverable, error) {
	d, ok := f.byID[id]
	if !ok || d.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	out := *d
	return &out, nil
}

func (f *fakeDeliverablesRepo) ListByProject(_ context.Context, projectID string) ([]*models.Deliverable, error) {
	var out []*models.Deliverable
	for _, d := range f.byID {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDeliverablesRepo) MarkFinal(_ context.Context, id string) error {
	if f.markFinalErr != nil {
		return f.markFinalErr
	}
	f.finalized = append(f.finalized, id)
	return nil
}

func (f *fakeDeliverablesRepo) SetKeys(_ context.Context, _ string, previewKey, finalKey string) error {
	f.keys = append(f.keys, [2]string{previewKey, finalKey})
	return nil
}

type fakeFeedbackRepo struct {
	feedback.Repository

	createErr error
	listErr   error
	created   []*models.Feedback
}

func (f *fakeFeedbackRepo) ListByDeliverable(_ context.Context, deliverableID string) ([]*models.Feedback, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Feedback
	for _, fb := range f.created {
		if fb.DeliverableID == deliverableID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) Create(_ context.Context, fb *models.Feedback) (*models.Feedback, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *fb
	out.ID = "feedback-new"
	f.created = append(f.created, &out)
	return &out, nil
}

type fakeSignoffsRepo struct {
	signoffs.Repository

	createErr error
	created   []*models.Signoff
}

func (f *fakeSignoffsRepo) Create(_ context.Context, s *models.Signoff) (*models.Signoff, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *s
	out.ID = "signoff-new"
	f.created = append(f.created, &out)
	return &out, nil
}

type fakeFilesRepo struct {
	files.Repository

	byID    map[string]*models.ProjectFile
	created []*models.ProjectFile
}

func (f *fakeFilesRepo) Create(_ context.Context, file *models.ProjectFile) (*models.ProjectFile, error) {
	out := *file
	out.ID = "file-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeFilesRepo) GetByID(_ context.Context, id string) (*models.ProjectFile, error) {
	file, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFilesRepo) ListByProject(_ context.Context, projectID string) ([]*models.ProjectFile, error) {
	var out []*models.ProjectFile
	for _, file := range f.byID {
		if file.ProjectID == projectID {
			out = append(out, file)
		}
	}
	return out, nil
}

// --- leads / payments ---

type fakeLeadsRepo struct {
	leads.Repository

	createErr   error
	created     []*models.Lead
	latest      []*models.Lead
	subscribed  bool
	subscribers []*models.Subscriber
}

func (f *fakeLeadsRepo) Create(_ context.Context, l *models.Lead) (*models.Lead, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *l
	out.ID = "lead-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeLeadsRepo) ListLatest(_ context.Context, limit int) ([]*models.Lead, error) {
	if len(f.latest) > limit {
		return f.latest[:limit], nil
	}
	return f.latest, nil
}

func (f *fakeLeadsRepo) Subscribe(_ context.Context, s *models.Subscriber) (bool, error) {
	f.subscribers = append(f.subscribers, s)
	return f.subscribed, nil
}

type fakePaymentsRepo struct {
	payments.Repository

	byID          map[string]*models.PaymentEvent
	recordCreated bool
	recorded      []*models.PaymentEvent
	matched       []string
	unmatched     int
}

func (f *fakePaymentsRepo) Record(_ context.Context, ev *models.PaymentEvent) (bool, error) {
	f.recorded = append(f.recorded, ev)
	return f.recordCreated, nil
}

func (f *fakePaymentsRepo) GetByID(_ context.Context, id string) (*models.PaymentEvent, error) {
	ev, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return ev, nil
}

func (f *fakePaymentsRepo) ListUnmatched(context.Context) ([]*models.PaymentEvent, error) {
	var out []*models.PaymentEvent
	for _, ev := range f.byID {
		if ev.Status == models.PaymentEventUnmatched {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakePaymentsRepo) CountUnmatched(context.Context) (int, error) {
	return f.unmatched, nil
}

func (f *fakePaymentsRepo) MarkMatched(_ context.Context, id, invoiceID string, _ time.Time) error {
	f.matched = append(f.matched, id+"->"+invoiceID)
	return nil
}

// --- collaborators ---

type fakeMailer struct {
	err  error
	sent []Message
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeStore struct {
	objects    map[string]*Object
	presignErr error
	presigned  []string
	opened     []string
}

func (s *fakeStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.presigned = append(s.presigned, key)
	return "https://s3.local/" + key + "?sig=x", nil
}

func (s *fakeStore) Get(_ context.Context, key string) (*Object, error) {
	s.opened = append(s.opened, key)
	obj, ok := s.objects[key]
	if !ok {
		return nil, common.ErrNoFileAvailable
	}
	return obj, nil
}

func textObject(body, contentType string) *Object {
	return &Object{Body: io.NopCloser(strings.NewReader(body)), ContentType: contentType, Size: int64(len(body))}
}
