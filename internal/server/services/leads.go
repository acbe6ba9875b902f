package services

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

type LeadInput struct {
	Name    string
	Email   string
	Company string
	Message string
	Source  string
}

// LeadService captures contact-form leads and newsletter sign-ups.
type LeadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      Mailer
	adminEmail  string
	logger      logging.Logger
}

func NewLeadService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, adminEmail string, logger logging.Logger) *LeadService {
	return &LeadService{
		db:          db,
		repomanager: m,
		mailer:      mailer,
		adminEmail:  adminEmail,
		logger:      logger.With("module", "leads"),
	}
}

// SubmitLead stores the lead and then emails the studio. A mail failure is
// returned but the lead stays stored.
func (s *LeadService) SubmitLead(ctx context.Context, in LeadInput) (*models.Lead, error) {
	lead := &models.Lead{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Company: strings.TrimSpace(in.Company),
		Message: strings.TrimSpace(in.Message),
		Source:  strings.TrimSpace(in.Source),
	}
	switch {
	case lead.Name == "":
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	case !validEmail(lead.Email):
		return nil, fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	case lead.Message == "":
		return nil, fmt.Errorf("%w: message is required", common.ErrorValidation)
	}

	lead, err := s.repomanager.Leads(s.db).Create(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("error storing lead: %w", err)
	}
	s.logger.Info(ctx, "lead stored", "lead_id", lead.ID, "source", lead.Source)

	if s.adminEmail == "" {
		return lead, nil
	}
	err = s.mailer.Send(ctx, Message{
		To:      []string{s.adminEmail},
		Subject: fmt.Sprintf("New lead: %s", lead.Name),
		Text:    fmt.Sprintf("%s <%s> %s\n\n%s", lead.Name, lead.Email, lead.Company, lead.Message),
		HTML: fmt.Sprintf("<p><b>%s</b> &lt;%s&gt; %s</p><p>%s</p>",
			html.EscapeString(lead.Name), html.EscapeString(lead.Email), html.EscapeString(lead.Company), html.EscapeString(lead.Message)),
	})
	if err != nil {
		return lead, fmt.Errorf("error sending lead notification: %w", err)
	}
	return lead, nil
}

// Subscribe adds email to the newsletter list. Repeated sign-ups succeed.
func (s *LeadService) Subscribe(ctx context.Context, email, source string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}
	created, err := s.repomanager.Leads(s.db).Subscribe(ctx, &models.Subscriber{Email: email, Source: strings.TrimSpace(source)})
	if err != nil {
		return fmt.Errorf("error storing subscriber: %w", err)
	}
	if created {
		s.logger.Info(ctx, "newsletter subscriber added", "source", source)
	}
	return nil
}
