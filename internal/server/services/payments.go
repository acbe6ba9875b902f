package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.opentelemetry.io/otel/attribute"
)

const (
	providerStripe = "stripe"

	eventInvoicePaid      = "invoice.paid"
	eventCheckoutComplete = "checkout.session.completed"

	// invoiceMetadataKey is the Stripe metadata key carrying our invoice id.
	invoiceMetadataKey = "invoice_id"
)

var constructEvent = func(payload []byte, header, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// PaymentService keeps project payment status in step with invoices and the
// payment provider.
type PaymentService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	logger        logging.Logger
	webhookSecret string
	now           func() time.Time
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, webhookSecret string) *PaymentService {
	return &PaymentService{
		db:            db,
		repomanager:   m,
		logger:        logger.With("module", "payments"),
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

// MarkInvoicePaid marks the invoice PAID and copies the fact onto its
// project. Running it again on a paid invoice changes nothing.
func (s *PaymentService) MarkInvoicePaid(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.MarkInvoicePaid")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	if _, err := uuid.Parse(invoiceID); err != nil {
		return nil, common.ErrorNotFound
	}

	var inv *models.Invoice
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		inv, err = s.markInvoicePaid(ctx, tx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "invoice paid", "invoice_id", inv.ID, "project_id", inv.ProjectID)
	return inv, nil
}

// markInvoicePaid is the only writer of projects.payment_status.
func (s *PaymentService) markInvoicePaid(ctx context.Context, tx dbx.DBTX, invoiceID string) (*models.Invoice, error) {
	inv, err := s.repomanager.Invoices(tx).MarkPaid(ctx, invoiceID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Projects(tx).SetPaymentStatus(ctx, inv.ProjectID, models.PaymentPaid); err != nil {
		return nil, fmt.Errorf("error updating project payment status: %w", err)
	}
	return inv, nil
}

// HandleStripeWebhook verifies and records a Stripe event. Payment events
// are stored once per provider event id; when they can be tied to an
// invoice, the invoice is marked paid in the same transaction.
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := tracer.Start(ctx, "PaymentService.HandleStripeWebhook")
	defer span.End()

	if s.webhookSecret == "" {
		return common.ErrNotConfigured
	}

	ev, err := constructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: webhook signature: %v", common.ErrorValidation, err)
	}
	span.SetAttributes(attribute.String("stripe.event_type", string(ev.Type)))

	pe, ref, err := paymentEventFromStripe(ev)
	if err != nil {
		return err
	}
	if pe == nil {
		s.logger.Debug(ctx, "ignoring stripe event", "type", ev.Type, "id", ev.ID)
		return nil
	}

	invoice, err := s.matchInvoice(ctx, ref)
	if err != nil {
		return err
	}
	pe.Status = models.PaymentEventUnmatched
	if invoice != nil {
		now := s.now()
		pe.InvoiceID = invoice.ID
		pe.Status = models.PaymentEventMatched
		pe.MatchedAt = &now
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Payments(tx).Record(ctx, pe)
		if err != nil {
			return fmt.Errorf("error recording payment event: %w", err)
		}
		if !created {
			s.logger.Info(ctx, "duplicate stripe event", "id", ev.ID)
			return nil
		}
		if invoice == nil {
			s.logger.Warn(ctx, "unmatched payment event", "id", ev.ID, "reference", pe.Reference, "email", pe.CustomerEmail)
			return nil
		}
		_, err = s.markInvoicePaid(ctx, tx, invoice.ID)
		return err
	})
}

type invoiceRef struct {
	invoiceID       string
	stripeInvoiceID string
}

func paymentEventFromStripe(ev stripe.Event) (*models.PaymentEvent, invoiceRef, error) {
	if ev.Data == nil {
		return nil, invoiceRef{}, nil
	}

	pe := &models.PaymentEvent{
		Provider:        providerStripe,
		ProviderEventID: ev.ID,
		Kind:            string(ev.Type),
	}
	var ref invoiceRef

	switch string(ev.Type) {
	case eventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, ref, fmt.Errorf("%w: invoice payload: %v", common.ErrorValidation, err)
		}
		pe.AmountCents = inv.AmountPaid
		pe.Currency = string(inv.Currency)
		pe.CustomerEmail = inv.CustomerEmail
		pe.Reference = inv.ID
		ref = invoiceRef{invoiceID: inv.Metadata[invoiceMetadataKey], stripeInvoiceID: inv.ID}

	case eventCheckoutComplete:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, ref, fmt.Errorf("%w: checkout payload: %v", common.ErrorValidation, err)
		}
		pe.AmountCents = cs.AmountTotal
		pe.Currency = string(cs.Currency)
		if cs.CustomerDetails != nil {
			pe.CustomerEmail = cs.CustomerDetails.Email
		}
		pe.Reference = cs.ID
		ref = invoiceRef{invoiceID: cs.Metadata[invoiceMetadataKey]}
		if cs.Invoice != nil {
			ref.stripeInvoiceID = cs.Invoice.ID
		}

	default:
		return nil, ref, nil
	}
	return pe, ref, nil
}

// matchInvoice resolves the referenced invoice, or nil when nothing matches.
func (s *PaymentService) matchInvoice(ctx context.Context, ref invoiceRef) (*models.Invoice, error) {
	repo := s.repomanager.Invoices(s.db)

	if _, err := uuid.Parse(ref.invoiceID); err == nil {
		inv, err := repo.GetByID(ctx, ref.invoiceID)
		switch {
		case err == nil:
			return inv, nil
		case !isNotFound(err):
			return nil, fmt.Errorf("error searching invoice: %w", err)
		}
	}

	if ref.stripeInvoiceID != "" {
		inv, err := repo.GetByStripeID(ctx, ref.stripeInvoiceID)
		switch {
		case err == nil:
			return inv, nil
		case !isNotFound(err):
			return nil, fmt.Errorf("error searching invoice: %w", err)
		}
	}
	return nil, nil
}

func (s *PaymentService) ListUnmatched(ctx context.Context) ([]*models.PaymentEvent, error) {
	return s.repomanager.Payments(s.db).ListUnmatched(ctx)
}

// Reconcile binds an unmatched payment event to an invoice and marks the
// invoice paid.
func (s *PaymentService) Reconcile(ctx context.Context, eventID, invoiceID string) (*models.Invoice, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Reconcile")
	defer span.End()

	if _, err := uuid.Parse(invoiceID); err != nil {
		return nil, fmt.Errorf("%w: invoiceId is required", common.ErrorValidation)
	}
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, common.ErrorNotFound
	}

	var inv *models.Invoice
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ev, err := s.repomanager.Payments(tx).GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.Status == models.PaymentEventMatched {
			return common.ErrAlreadyMatched
		}

		inv, err = s.markInvoicePaid(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		return s.repomanager.Payments(tx).MarkMatched(ctx, eventID, invoiceID, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "payment reconciled", "event_id", eventID, "invoice_id", invoiceID)
	return inv, nil
}
