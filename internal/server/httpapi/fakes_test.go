package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/policy"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"github.com/stretchr/testify/require"
)

const (
	clientToken = "client-token"
	adminToken  = "admin-token"
)

var errBoom = errors.New("boom")

var (
	clientUser = &models.User{ID: "u-client", Email: "client@example.com", Name: "Client", Role: models.RoleClient}
	adminUser  = &models.User{ID: "u-admin", Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
)

// Each fake embeds its interface so only the methods a test sets need to
// exist; calling anything else panics.

type fakeAuth struct {
	AuthService
	magicLink func(email string) error
	verify    func(token string) (*services.TokenPair, error)
	login     func(email, password string) (*services.TokenPair, error)
	refresh   func(token string) (*services.TokenPair, error)
	loggedOut []string
}

func (f *fakeAuth) RequestMagicLink(_ context.Context, email string) error {
	return f.magicLink(email)
}

func (f *fakeAuth) VerifyMagicLink(_ context.Context, token string) (*services.TokenPair, error) {
	return f.verify(token)
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.TokenPair, error) {
	return f.login(email, password)
}

func (f *fakeAuth) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	return f.refresh(token)
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case clientToken:
		return clientUser, nil
	case adminToken:
		return adminUser, nil
	}
	return nil, common.ErrInvalidToken
}

type fakePortal struct {
	PortalService
	list     func(p policy.Principal) ([]*models.Project, error)
	get      func(p policy.Principal, id string) (*services.ProjectDetails, error)
	feedback func(p policy.Principal, in services.FeedbackInput) (*models.Feedback, error)
	release  func(p policy.Principal, in services.ReleaseInput) (*services.ReleaseResult, error)
}

func (f *fakePortal) ListProjects(_ context.Context, p policy.Principal) ([]*models.Project, error) {
	return f.list(p)
}

func (f *fakePortal) GetProject(_ context.Context, p policy.Principal, id string) (*services.ProjectDetails, error) {
	return f.get(p, id)
}

func (f *fakePortal) SubmitFeedback(_ context.Context, p policy.Principal, in services.FeedbackInput) (*models.Feedback, error) {
	return f.feedback(p, in)
}

func (f *fakePortal) Release(_ context.Context, p policy.Principal, in services.ReleaseInput) (*services.ReleaseResult, error) {
	return f.release(p, in)
}

type fakeDownloads struct {
	DownloadService
	open       func(p policy.Principal, id string) (*services.Download, error)
	sign       func(p policy.Principal, id string) (*services.SignedLink, error)
	openSigned func(id, token, expires string) (*services.Download, error)
}

func (f *fakeDownloads) OpenDeliverable(_ context.Context, p policy.Principal, id string) (*services.Download, error) {
	return f.open(p, id)
}

func (f *fakeDownloads) SignFileLink(_ context.Context, p policy.Principal, id string) (*services.SignedLink, error) {
	return f.sign(p, id)
}

func (f *fakeDownloads) OpenSignedFile(_ context.Context, id, token, expires string) (*services.Download, error) {
	return f.openSigned(id, token, expires)
}

type fakePayments struct {
	PaymentService
	webhook   func(payload []byte, signature string) error
	markPaid  func(id string) (*models.Invoice, error)
	unmatched func() ([]*models.PaymentEvent, error)
	reconcile func(eventID, invoiceID string) (*models.Invoice, error)
}

func (f *fakePayments) HandleStripeWebhook(_ context.Context, payload []byte, signature string) error {
	return f.webhook(payload, signature)
}

func (f *fakePayments) MarkInvoicePaid(_ context.Context, id string) (*models.Invoice, error) {
	return f.markPaid(id)
}

func (f *fakePayments) ListUnmatched(_ context.Context) ([]*models.PaymentEvent, error) {
	return f.unmatched()
}

func (f *fakePayments) Reconcile(_ context.Context, eventID, invoiceID string) (*models.Invoice, error) {
	return f.reconcile(eventID, invoiceID)
}

type fakeAdmin struct {
	AdminService
	dashboard   func() (*services.Dashboard, error)
	client      func(in services.NewClient) (*models.Client, error)
	project     func(clientID, name string) (*models.Project, error)
	invoice     func(in services.NewInvoice) (*models.Invoice, error)
	deliverable func(in services.NewDeliverable) (*services.DeliverableUpload, error)
	replace     func(id, previewExt, finalExt string) (*services.DeliverableUpload, error)
	file        func(in services.NewProjectFile) (*services.ProjectFileUpload, error)
}

func (f *fakeAdmin) Dashboard(_ context.Context) (*services.Dashboard, error) {
	return f.dashboard()
}

func (f *fakeAdmin) CreateClient(_ context.Context, in services.NewClient) (*models.Client, error) {
	return f.client(in)
}

func (f *fakeAdmin) CreateProject(_ context.Context, clientID, name string) (*models.Project, error) {
	return f.project(clientID, name)
}

func (f *fakeAdmin) CreateInvoice(_ context.Context, in services.NewInvoice) (*models.Invoice, error) {
	return f.invoice(in)
}

func (f *fakeAdmin) CreateDeliverable(_ context.Context, in services.NewDeliverable) (*services.DeliverableUpload, error) {
	return f.deliverable(in)
}

func (f *fakeAdmin) ReplaceDeliverableFiles(_ context.Context, id, previewExt, finalExt string) (*services.DeliverableUpload, error) {
	return f.replace(id, previewExt, finalExt)
}

func (f *fakeAdmin) CreateProjectFile(_ context.Context, in services.NewProjectFile) (*services.ProjectFileUpload, error) {
	return f.file(in)
}

type fakeLeads struct {
	LeadService
	submit    func(in services.LeadInput) (*models.Lead, error)
	subscribe func(email, source string) error
}

func (f *fakeLeads) SubmitLead(_ context.Context, in services.LeadInput) (*models.Lead, error) {
	return f.submit(in)
}

func (f *fakeLeads) Subscribe(_ context.Context, email, source string) error {
	return f.subscribe(email, source)
}

type fakeFieldNotes struct {
	notes []models.FieldNote
	err   error
}

func (f *fakeFieldNotes) List(_ context.Context) ([]models.FieldNote, error) {
	return f.notes, f.err
}

type testAPI struct {
	auth       *fakeAuth
	portal     *fakePortal
	downloads  *fakeDownloads
	payments   *fakePayments
	admin      *fakeAdmin
	leads      *fakeLeads
	fieldNotes *fakeFieldNotes
	handler    http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		auth:       &fakeAuth{},
		portal:     &fakePortal{},
		downloads:  &fakeDownloads{},
		payments:   &fakePayments{},
		admin:      &fakeAdmin{},
		leads:      &fakeLeads{},
		fieldNotes: &fakeFieldNotes{},
	}
	cfg := &config.Config{
		HTTPAddr:                    "127.0.0.1:0",
		PublicBaseURL:               "https://portal.example.com",
		AccessTokenValidityDuration: time.Hour,
	}
	srv := NewServer(cfg, logging.Nop{}, Services{
		Auth:       api.auth,
		Portal:     api.portal,
		Downloads:  api.downloads,
		Payments:   api.payments,
		Admin:      api.admin,
		Leads:      api.leads,
		FieldNotes: api.fieldNotes,
	})
	api.handler = srv.Handler()
	return api
}

// do sends a request with an optional JSON body and bearer token.
func (api *testAPI) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Error
}
