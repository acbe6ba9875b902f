package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/policy"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel/attribute"
)

const releaseMessage = "Project released. Final files are now available for download."

type ReleaseInput struct {
	ProjectID     string
	DeliverableID string
	SignedByName  string
	SignedByEmail string
}

type ReleaseResult struct {
	SignoffID string
	Message   string
}

type FeedbackInput struct {
	ProjectID        string
	DeliverableID    string
	Type             models.FeedbackType
	Notes            string
	SubmittedByName  string
	SubmittedByEmail string
}

// ProjectDetails is a project as shown in the portal. Project.Invoices is
// populated.
type ProjectDetails struct {
	Project      *models.Project
	Paid         bool
	Deliverables []*models.Deliverable
	Files        []*models.ProjectFile
	// Feedback holds each deliverable's feedback history, oldest first,
	// keyed by deliverable id.
	Feedback     map[string][]*models.Feedback
}

// PortalService implements the client-facing delivery workflow: project
// reads, feedback and the payment-gated release.
type PortalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      Mailer
	adminEmail  string
	logger      logging.Logger
}

func NewPortalService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, adminEmail string, logger logging.Logger) *PortalService {
	return &PortalService{
		db:          db,
		repomanager: m,
		mailer:      mailer,
		adminEmail:  adminEmail,
		logger:      logger.With("module", "portal"),
	}
}

func requireSession(p policy.Principal) error {
	if p.UserID == "" {
		return common.ErrorUnauthorized
	}
	return nil
}

// loadAuthorizedProject fetches the project, checks access and attaches its
// invoices for the payment resolver.
func (s *PortalService) loadAuthorizedProject(ctx context.Context, db dbx.DBTX, p policy.Principal, projectID string) (*models.Project, error) {
	project, err := s.repomanager.Projects(db).GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeProject(p, project).Err(); err != nil {
		return nil, err
	}
	project.Invoices, err = s.repomanager.Invoices(db).ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading invoices: %w", err)
	}
	return project, nil
}

// Release signs off a deliverable and releases the project. The sign-off
// insert, the deliverable FINAL transition and the project RELEASED
// transition commit together or not at all.
func (s *PortalService) Release(ctx context.Context, p policy.Principal, in ReleaseInput) (*ReleaseResult, error) {
	ctx, span := tracer.Start(ctx, "PortalService.Release")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", in.ProjectID), attribute.String("deliverable.id", in.DeliverableID))

	if err := requireSession(p); err != nil {
		return nil, err
	}

	in.DeliverableID = strings.TrimSpace(in.DeliverableID)
	in.SignedByName = strings.TrimSpace(in.SignedByName)
	in.SignedByEmail = strings.TrimSpace(in.SignedByEmail)
	if in.DeliverableID == "" || in.SignedByName == "" {
		return nil, fmt.Errorf("%w: deliverableId and signedByName are required", common.ErrorValidation)
	}

	project, err := s.loadAuthorizedProject(ctx, s.db, p, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !policy.ProjectIsPaid(project) {
		return nil, common.ErrorPaymentRequired
	}
	if project.PortalStage.IsReleased() {
		return nil, common.ErrorAlreadyReleased
	}
	if _, err := s.repomanager.Deliverables(s.db).GetInProject(ctx, project.ID, in.DeliverableID); err != nil {
		return nil, err
	}

	var signoff *models.Signoff
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		released, err := s.repomanager.Projects(tx).MarkReleased(ctx, project.ID)
		if err != nil {
			return err
		}
		if !released {
			return common.ErrorAlreadyReleased
		}

		signoff, err = s.repomanager.Signoffs(tx).Create(ctx, &models.Signoff{
			ProjectID:      project.ID,
			DeliverableID:  in.DeliverableID,
			SignedByName:   in.SignedByName,
			SignedByEmail:  in.SignedByEmail,
			SignedByUserID: p.UserID,
			Action:         models.SignoffActionRelease,
		})
		if err != nil {
			return fmt.Errorf("error creating signoff: %w", err)
		}

		if err := s.repomanager.Deliverables(tx).MarkFinal(ctx, in.DeliverableID); err != nil {
			return fmt.Errorf("error finalizing deliverable: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "project released", "project_id", project.ID, "deliverable_id", in.DeliverableID, "signoff_id", signoff.ID)
	return &ReleaseResult{SignoffID: signoff.ID, Message: releaseMessage}, nil
}

// SubmitFeedback records client feedback on a deliverable. A revision
// request moves the project back to IN_DELIVERY in the same transaction.
func (s *PortalService) SubmitFeedback(ctx context.Context, p policy.Principal, in FeedbackInput) (*models.Feedback, error) {
	ctx, span := tracer.Start(ctx, "PortalService.SubmitFeedback")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", in.ProjectID), attribute.String("feedback.type", string(in.Type)))

	if err := requireSession(p); err != nil {
		return nil, err
	}

	in.DeliverableID = strings.TrimSpace(in.DeliverableID)
	switch {
	case in.DeliverableID == "":
		return nil, fmt.Errorf("%w: deliverableId is required", common.ErrorValidation)
	case !in.Type.Valid():
		return nil, fmt.Errorf("%w: unknown feedback type %q", common.ErrorValidation, in.Type)
	case in.Type == models.FeedbackNeedsRevision && blank(in.Notes):
		return nil, fmt.Errorf("%w: notes are required when requesting a revision", common.ErrorValidation)
	}

	project, err := s.loadAuthorizedProject(ctx, s.db, p, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Deliverables(s.db).GetInProject(ctx, project.ID, in.DeliverableID); err != nil {
		return nil, err
	}
	if in.Type.IsApproval() && !policy.ProjectIsPaid(project) {
		return nil, common.ErrorPaymentRequired
	}

	var fb *models.Feedback
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if in.Type == models.FeedbackNeedsRevision {
			if _, err := s.repomanager.Projects(tx).GetByIDForUpdate(ctx, project.ID); err != nil {
				return err
			}
		}

		var err error
		fb, err = s.repomanager.Feedback(tx).Create(ctx, &models.Feedback{
			ProjectID:         project.ID,
			DeliverableID:     in.DeliverableID,
			Type:              in.Type,
			Notes:             strings.TrimSpace(in.Notes),
			SubmittedByName:   strings.TrimSpace(in.SubmittedByName),
			SubmittedByEmail:  strings.TrimSpace(in.SubmittedByEmail),
			SubmittedByUserID: p.UserID,
		})
		if err != nil {
			return fmt.Errorf("error creating feedback: %w", err)
		}

		if in.Type == models.FeedbackNeedsRevision {
			if err := s.repomanager.Projects(tx).SetStage(ctx, project.ID, models.StageInDelivery); err != nil {
				return fmt.Errorf("error resetting stage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyFeedback(ctx, project, fb)
	return fb, nil
}

func (s *PortalService) notifyFeedback(ctx context.Context, project *models.Project, fb *models.Feedback) {
	if s.adminEmail == "" {
		return
	}
	who := fb.SubmittedByName
	if who == "" {
		who = "A client"
	}
	subject := fmt.Sprintf("[%s] %s: %s", project.Name, who, fb.Type)
	err := s.mailer.Send(ctx, Message{
		To:      []string{s.adminEmail},
		Subject: subject,
		Text:    fmt.Sprintf("%s left %s feedback on deliverable %s.\n\n%s", who, fb.Type, fb.DeliverableID, fb.Notes),
		HTML: fmt.Sprintf("<p>%s left <b>%s</b> feedback on deliverable %s.</p><p>%s</p>",
			html.EscapeString(who), fb.Type, html.EscapeString(fb.DeliverableID), html.EscapeString(fb.Notes)),
	})
	if err != nil {
		s.logger.Error(ctx, "feedback notification failed", "feedback_id", fb.ID, "error", err)
	}
}

// ListProjects returns every project for admins and the caller's own
// projects for clients.
func (s *PortalService) ListProjects(ctx context.Context, p policy.Principal) ([]*models.Project, error) {
	if err := requireSession(p); err != nil {
		return nil, err
	}
	repo := s.repomanager.Projects(s.db)
	if p.IsAdmin() {
		return repo.List(ctx)
	}
	return repo.ListByOwner(ctx, p.UserID)
}

// GetProject returns an access-checked project with its deliverables,
// invoices and attachments.
func (s *PortalService) GetProject(ctx context.Context, p policy.Principal, projectID string) (*ProjectDetails, error) {
	if err := requireSession(p); err != nil {
		return nil, err
	}

	project, err := s.loadAuthorizedProject(ctx, s.db, p, projectID)
	if err != nil {
		return nil, err
	}

	deliverables, err := s.repomanager.Deliverables(s.db).ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading deliverables: %w", err)
	}
	history := make(map[string][]*models.Feedback, len(deliverables))
	for _, d := range deliverables {
		fb, err := s.repomanager.Feedback(s.db).ListByDeliverable(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("error loading feedback: %w", err)
		}
		history[d.ID] = fb
	}
	files, err := s.repomanager.Files(s.db).ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading files: %w", err)
	}

	return &ProjectDetails{
		Project:      project,
		Paid:         policy.ProjectIsPaid(project),
		Deliverables: deliverables,
		Files:        files,
		Feedback:     history,
	}, nil
}

// isNotFound reports whether err is a repository miss.
func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
