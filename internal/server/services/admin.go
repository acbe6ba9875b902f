package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const dashboardLeadLimit = 5

type Dashboard struct {
	ProjectsByStage  map[models.PortalStage]int
	UnpaidProjects   int
	UnmatchedPayment int
	LatestLeads      []*models.Lead
}

type NewClient struct {
	Email   string
	Name    string
	Company string
}

type NewInvoice struct {
	ProjectID       string
	Number          string
	AmountCents     int64
	Currency        string
	StripeInvoiceID string
}

type NewDeliverable struct {
	ProjectID  string
	Title      string
	Version    int
	State      models.DeliverableState
	PreviewExt string
	FinalExt   string
}

// DeliverableUpload is a created deliverable plus where to PUT its files.
// A slot is nil when no extension was given for that variant.
type DeliverableUpload struct {
	Deliverable *models.Deliverable
	Preview     *models.UploadSlot
	Final       *models.UploadSlot
}

type NewProjectFile struct {
	ProjectID   string
	Name        string
	ContentType string
	SizeBytes   int64
}

type ProjectFileUpload struct {
	File   *models.ProjectFile
	Upload *models.UploadSlot
}

// AdminService backs the internal admin surface. Callers are expected to
// have checked the admin role.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, logger logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "admin"),
	}
}

// Dashboard gathers the overview counters concurrently.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := tracer.Start(ctx, "AdminService.Dashboard")
	defer span.End()

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.ProjectsByStage, err = s.repomanager.Projects(s.db).CountByStage(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.UnpaidProjects, err = s.repomanager.Projects(s.db).CountUnpaid(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.UnmatchedPayment, err = s.repomanager.Payments(s.db).CountUnmatched(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.LatestLeads, err = s.repomanager.Leads(s.db).ListLatest(gctx, dashboardLeadLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error building dashboard: %w", err)
	}
	return &d, nil
}

// CreateClient creates a CLIENT user and the client record that wraps it.
func (s *AdminService) CreateClient(ctx context.Context, in NewClient) (*models.Client, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}

	var client *models.Client
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email: email,
			Name:  strings.TrimSpace(in.Name),
			Role:  models.RoleClient,
		})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		client, err = s.repomanager.Clients(tx).Create(ctx, &models.Client{
			UserID:  user.ID,
			Company: strings.TrimSpace(in.Company),
		})
		if err != nil {
			return fmt.Errorf("error creating client: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *AdminService) CreateProject(ctx context.Context, clientID, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if _, err := uuid.Parse(clientID); err != nil {
		return nil, fmt.Errorf("%w: clientId is required", common.ErrorValidation)
	}
	if _, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	return s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		ClientID:      clientID,
		Name:          name,
		PaymentStatus: models.PaymentUnpaid,
		PortalStage:   models.StageOnboarding,
	})
}

func (s *AdminService) CreateInvoice(ctx context.Context, in NewInvoice) (*models.Invoice, error) {
	in.Number = strings.TrimSpace(in.Number)
	if in.Number == "" || in.AmountCents < 0 {
		return nil, fmt.Errorf("%w: number and a non-negative amountCents are required", common.ErrorValidation)
	}
	if in.Currency == "" {
		in.Currency = "usd"
	}
	if _, err := s.repomanager.Projects(s.db).GetByID(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	return s.repomanager.Invoices(s.db).Create(ctx, &models.Invoice{
		ProjectID:       in.ProjectID,
		Number:          in.Number,
		AmountCents:     in.AmountCents,
		Currency:        strings.ToLower(in.Currency),
		Status:          models.InvoiceOpen,
		StripeInvoiceID: strings.TrimSpace(in.StripeInvoiceID),
	})
}

// CreateDeliverable registers a DRAFT or REVIEW deliverable and returns
// presigned upload URLs for its preview and final files. FINAL is reachable
// only through a release.
func (s *AdminService) CreateDeliverable(ctx context.Context, in NewDeliverable) (*DeliverableUpload, error) {
	ctx, span := tracer.Start(ctx, "AdminService.CreateDeliverable")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if in.Version == 0 {
		in.Version = 1
	}
	if in.Version < 1 {
		return nil, fmt.Errorf("%w: version must be at least 1", common.ErrorValidation)
	}
	if in.State == "" {
		in.State = models.DeliverableDraft
	}
	if in.State != models.DeliverableDraft && in.State != models.DeliverableReview {
		return nil, fmt.Errorf("%w: state must be DRAFT or REVIEW", common.ErrorValidation)
	}
	if _, err := s.repomanager.Projects(s.db).GetByID(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	out := &DeliverableUpload{}
	d := &models.Deliverable{ProjectID: in.ProjectID, Title: in.Title, Version: in.Version, State: in.State}

	var err error
	if in.PreviewExt != "" {
		d.PreviewKey = DeliverableKey(in.ProjectID, "preview", in.PreviewExt)
		if out.Preview, err = s.uploadSlot(ctx, d.PreviewKey); err != nil {
			return nil, err
		}
	}
	if in.FinalExt != "" {
		d.FinalKey = DeliverableKey(in.ProjectID, "final", in.FinalExt)
		if out.Final, err = s.uploadSlot(ctx, d.FinalKey); err != nil {
			return nil, err
		}
	}

	out.Deliverable, err = s.repomanager.Deliverables(s.db).Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("error creating deliverable: %w", err)
	}
	return out, nil
}

// ReplaceDeliverableFiles issues fresh upload slots for an existing
// deliverable and points it at the new keys.
func (s *AdminService) ReplaceDeliverableFiles(ctx context.Context, deliverableID, previewExt, finalExt string) (*DeliverableUpload, error) {
	d, err := s.repomanager.Deliverables(s.db).GetByID(ctx, deliverableID)
	if err != nil {
		return nil, err
	}

	out := &DeliverableUpload{Deliverable: d}
	var previewKey, finalKey string
	if previewExt != "" {
		previewKey = DeliverableKey(d.ProjectID, "preview", previewExt)
		if out.Preview, err = s.uploadSlot(ctx, previewKey); err != nil {
			return nil, err
		}
	}
	if finalExt != "" {
		finalKey = DeliverableKey(d.ProjectID, "final", finalExt)
		if out.Final, err = s.uploadSlot(ctx, finalKey); err != nil {
			return nil, err
		}
	}
	if previewKey == "" && finalKey == "" {
		return nil, fmt.Errorf("%w: previewExt or finalExt is required", common.ErrorValidation)
	}

	if err := s.repomanager.Deliverables(s.db).SetKeys(ctx, d.ID, previewKey, finalKey); err != nil {
		return nil, err
	}
	if previewKey != "" {
		d.PreviewKey = previewKey
	}
	if finalKey != "" {
		d.FinalKey = finalKey
	}
	return out, nil
}

func (s *AdminService) CreateProjectFile(ctx context.Context, in NewProjectFile) (*ProjectFileUpload, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.SizeBytes < 0 {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if in.ContentType == "" {
		in.ContentType = defaultContentType
	}
	if _, err := s.repomanager.Projects(s.db).GetByID(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	key := ProjectFileKey(in.ProjectID, in.Name)
	slot, err := s.uploadSlotTyped(ctx, key, in.ContentType)
	if err != nil {
		return nil, err
	}

	file, err := s.repomanager.Files(s.db).Create(ctx, &models.ProjectFile{
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		StorageKey:  key,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return &ProjectFileUpload{File: file, Upload: slot}, nil
}

func (s *AdminService) uploadSlot(ctx context.Context, key string) (*models.UploadSlot, error) {
	return s.uploadSlotTyped(ctx, key, "")
}

func (s *AdminService) uploadSlotTyped(ctx context.Context, key, contentType string) (*models.UploadSlot, error) {
	u, err := s.store.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}
	return &models.UploadSlot{Key: key, URL: u}, nil
}
