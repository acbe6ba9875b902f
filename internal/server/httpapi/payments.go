package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

const (
	maxWebhookBody        = 64 << 10
	stripeSignatureHeader = "Stripe-Signature"
)

type reconcileRequest struct {
	InvoiceID string `json:"invoiceId"`
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: webhook body: %v", common.ErrorValidation, err))
		return
	}

	if err := s.svc.Payments.HandleStripeWebhook(r.Context(), payload, r.Header.Get(stripeSignatureHeader)); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handleInvoicePaid(w http.ResponseWriter, r *http.Request) {
	inv, err := s.svc.Payments.MarkInvoicePaid(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoice(inv))
}

func (s *Server) handleUnmatchedPayments(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Payments.ListUnmatched(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]paymentEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, toPaymentEvent(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, err := s.svc.Payments.Reconcile(r.Context(), r.PathValue("id"), req.InvoiceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoice(inv))
}

func toPaymentEvent(ev *models.PaymentEvent) paymentEventResponse {
	return paymentEventResponse{
		ID:              ev.ID,
		ProviderEventID: ev.ProviderEventID,
		Kind:            ev.Kind,
		AmountCents:     ev.AmountCents,
		Currency:        ev.Currency,
		CustomerEmail:   ev.CustomerEmail,
		Reference:       ev.Reference,
		Status:          ev.Status,
		ReceivedAt:      ev.ReceivedAt,
	}
}
