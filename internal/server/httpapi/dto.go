package httpapi

import (
	"time"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
)

// Storage keys never leave the server; deliverables only report which
// files exist.

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

type projectResponse struct {
	ID            string               `json:"id"`
	ClientID      string               `json:"clientId"`
	Name          string               `json:"name"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	PortalStage   models.PortalStage   `json:"portalStage"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type projectDetailsResponse struct {
	projectResponse
	Paid         bool                  `json:"paid"`
	Deliverables []deliverableResponse `json:"deliverables"`
	Invoices     []invoiceResponse     `json:"invoices"`
	Files        []fileResponse        `json:"files"`
}

type deliverableResponse struct {
	ID         string                  `json:"id"`
	ProjectID  string                  `json:"projectId"`
	Title      string                  `json:"title"`
	Version    int                     `json:"version"`
	State      models.DeliverableState `json:"state"`
	HasPreview bool                    `json:"hasPreview"`
	HasFinal   bool                    `json:"hasFinal"`
	UpdatedAt  time.Time               `json:"updatedAt"`
	Feedback   []feedbackResponse      `json:"feedback,omitempty"`
}

type feedbackResponse struct {
	ID              string              `json:"id"`
	Type            models.FeedbackType `json:"type"`
	Notes           string              `json:"notes,omitempty"`
	SubmittedByName string              `json:"submittedByName"`
	CreatedAt       time.Time           `json:"createdAt"`
}

type invoiceResponse struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"projectId"`
	Number      string               `json:"number"`
	AmountCents int64                `json:"amountCents"`
	Currency    string               `json:"currency"`
	Status      models.InvoiceStatus `json:"status"`
	PaidAt      *time.Time           `json:"paidAt"`
}

type fileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type deliverableUploadResponse struct {
	Deliverable deliverableResponse `json:"deliverable"`
	Preview     *uploadResponse     `json:"previewUpload,omitempty"`
	Final       *uploadResponse     `json:"finalUpload,omitempty"`
}

type fileUploadResponse struct {
	File   fileResponse    `json:"file"`
	Upload *uploadResponse `json:"upload"`
}

type clientResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Company string `json:"company"`
}

type paymentEventResponse struct {
	ID              string                    `json:"id"`
	ProviderEventID string                    `json:"providerEventId"`
	Kind            string                    `json:"kind"`
	AmountCents     int64                     `json:"amountCents"`
	Currency        string                    `json:"currency"`
	CustomerEmail   string                    `json:"customerEmail"`
	Reference       string                    `json:"reference"`
	Status          models.PaymentEventStatus `json:"status"`
	ReceivedAt      time.Time                 `json:"receivedAt"`
}

type leadResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

type dashboardResponse struct {
	ProjectsByStage  map[models.PortalStage]int `json:"projectsByStage"`
	UnpaidProjects   int                        `json:"unpaidProjects"`
	UnmatchedPayment int                        `json:"unmatchedPayments"`
	LatestLeads      []leadResponse             `json:"latestLeads"`
}

func toTokenPair(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func toProject(p *models.Project) projectResponse {
	return projectResponse{
		ID:            p.ID,
		ClientID:      p.ClientID,
		Name:          p.Name,
		PaymentStatus: p.PaymentStatus,
		PortalStage:   p.PortalStage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toDeliverable(d *models.Deliverable) deliverableResponse {
	return deliverableResponse{
		ID:         d.ID,
		ProjectID:  d.ProjectID,
		Title:      d.Title,
		Version:    d.Version,
		State:      d.State,
		HasPreview: d.PreviewKey != "",
		HasFinal:   d.FinalKey != "",
		UpdatedAt:  d.UpdatedAt,
	}
}

func toFeedback(f *models.Feedback) feedbackResponse {
	return feedbackResponse{ID: f.ID, Type: f.Type, Notes: f.Notes, SubmittedByName: f.SubmittedByName, CreatedAt: f.CreatedAt}
}

func toInvoice(i *models.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:          i.ID,
		ProjectID:   i.ProjectID,
		Number:      i.Number,
		AmountCents: i.AmountCents,
		Currency:    i.Currency,
		Status:      i.Status,
		PaidAt:      i.PaidAt,
	}
}

func toFile(f *models.ProjectFile) fileResponse {
	return fileResponse{ID: f.ID, Name: f.Name, ContentType: f.ContentType, SizeBytes: f.SizeBytes, CreatedAt: f.CreatedAt}
}

func toUpload(u *models.UploadSlot) *uploadResponse {
	if u == nil {
		return nil
	}
	return &uploadResponse{Key: u.Key, URL: u.URL}
}

func toLead(l *models.Lead) leadResponse {
	return leadResponse{ID: l.ID, Name: l.Name, Email: l.Email, Company: l.Company, Source: l.Source, CreatedAt: l.CreatedAt}
}

func toProjectDetails(d *services.ProjectDetails) projectDetailsResponse {
	out := projectDetailsResponse{
		projectResponse: toProject(d.Project),
		Paid:            d.Paid,
		Deliverables:    make([]deliverableResponse, 0, len(d.Deliverables)),
		Invoices:        make([]invoiceResponse, 0, len(d.Project.Invoices)),
		Files:           make([]fileResponse, 0, len(d.Files)),
	}
	for _, x := range d.Deliverables {
		dr := toDeliverable(x)
		for _, fb := range d.Feedback[x.ID] {
			dr.Feedback = append(dr.Feedback, toFeedback(fb))
		}
		out.Deliverables = append(out.Deliverables, dr)
	}
	for _, x := range d.Project.Invoices {
		out.Invoices = append(out.Invoices, toInvoice(x))
	}
	for _, x := range d.Files {
		out.Files = append(out.Files, toFile(x))
	}
	return out
}

func toDeliverableUpload(u *services.DeliverableUpload) deliverableUploadResponse {
	return deliverableUploadResponse{
		Deliverable: toDeliverable(u.Deliverable),
		Preview:     toUpload(u.Preview),
		Final:       toUpload(u.Final),
	}
}
