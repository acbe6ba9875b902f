package models

import "time"

type PaymentEventStatus string

const (
	PaymentEventUnmatched PaymentEventStatus = "UNMATCHED"
	PaymentEventMatched   PaymentEventStatus = "MATCHED"
)

// PaymentEvent is a payment notification received from the provider. Events
// that cannot be tied to an invoice stay UNMATCHED until an admin
// reconciles them.
type PaymentEvent struct {
	ID              string
	Provider        string
	ProviderEventID string
	Kind            string
	AmountCents     int64
	Currency        string
	CustomerEmail   string
	Reference       string
	InvoiceID       string
	Status          PaymentEventStatus
	ReceivedAt      time.Time
	MatchedAt       *time.Time
}
