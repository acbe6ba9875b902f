package httpapi

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/policy"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
)

// The interfaces below list what the handlers call on the services package.
// They exist so handlers can be tested against fakes.

type AuthService interface {
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, token string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type PortalService interface {
	ListProjects(ctx context.Context, p policy.Principal) ([]*models.Project, error)
	GetProject(ctx context.Context, p policy.Principal, projectID string) (*services.ProjectDetails, error)
	SubmitFeedback(ctx context.Context, p policy.Principal, in services.FeedbackInput) (*models.Feedback, error)
	Release(ctx context.Context, p policy.Principal, in services.ReleaseInput) (*services.ReleaseResult, error)
}

type DownloadService interface {
	OpenDeliverable(ctx context.Context, p policy.Principal, deliverableID string) (*services.Download, error)
	SignFileLink(ctx context.Context, p policy.Principal, fileID string) (*services.SignedLink, error)
	OpenSignedFile(ctx context.Context, fileID, token, expires string) (*services.Download, error)
}

type PaymentService interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	MarkInvoicePaid(ctx context.Context, invoiceID string) (*models.Invoice, error)
	ListUnmatched(ctx context.Context) ([]*models.PaymentEvent, error)
	Reconcile(ctx context.Context, eventID, invoiceID string) (*models.Invoice, error)
}

type AdminService interface {
	Dashboard(ctx context.Context) (*services.Dashboard, error)
	CreateClient(ctx context.Context, in services.NewClient) (*models.Client, error)
	CreateProject(ctx context.Context, clientID, name string) (*models.Project, error)
	CreateInvoice(ctx context.Context, in services.NewInvoice) (*models.Invoice, error)
	CreateDeliverable(ctx context.Context, in services.NewDeliverable) (*services.DeliverableUpload, error)
	ReplaceDeliverableFiles(ctx context.Context, deliverableID, previewExt, finalExt string) (*services.DeliverableUpload, error)
	CreateProjectFile(ctx context.Context, in services.NewProjectFile) (*services.ProjectFileUpload, error)
}

type LeadService interface {
	SubmitLead(ctx context.Context, in services.LeadInput) (*models.Lead, error)
	Subscribe(ctx context.Context, email, source string) error
}

type FieldNotesService interface {
	List(ctx context.Context) ([]models.FieldNote, error)
}

// Services bundles the dependencies of the HTTP API.
type Services struct {
	Auth       AuthService
	Portal     PortalService
	Downloads  DownloadService
	Payments   PaymentService
	Admin      AdminService
	Leads      LeadService
	FieldNotes FieldNotesService
}
