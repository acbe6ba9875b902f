package models

import "time"

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// PortalStage is the coarse lifecycle marker of a project.
type PortalStage string

const (
	StageOnboarding PortalStage = "ONBOARDING"
	StageInDelivery PortalStage = "IN_DELIVERY"
	StageReleased   PortalStage = "RELEASED"
	StageComplete   PortalStage = "COMPLETE"
)

// IsReleased reports whether clean files may be served for this stage.
func (s PortalStage) IsReleased() bool {
	return s == StageReleased || s == StageComplete
}

// Project belongs to one Client. OwnerUserID is joined from clients.user_id
// and is what ownership checks compare against.
type Project struct {
	ID            string
	ClientID      string
	OwnerUserID   string
	Name          string
	PaymentStatus PaymentStatus
	PortalStage   PortalStage
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Invoices is filled by callers that need the payment resolver.
	Invoices []*Invoice
}

type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "DRAFT"
	InvoiceOpen  InvoiceStatus = "OPEN"
	InvoicePaid  InvoiceStatus = "PAID"
	InvoiceVoid  InvoiceStatus = "VOID"
)

type Invoice struct {
	ID              string
	ProjectID       string
	Number          string
	AmountCents     int64
	Currency        string
	Status          InvoiceStatus
	StripeInvoiceID string
	PaidAt          *time.Time
	CreatedAt       time.Time
}
