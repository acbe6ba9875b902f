package policy

import "github.com/dmitrijs2005/studioportal/internal/server/models"

// IsPaid is the payment status resolver: a project is paid when its stored
// status says so or when any linked invoice is paid. The stored status is
// only a cache of the invoice fact, so both sources are consulted.
func IsPaid(status models.PaymentStatus, invoices []*models.Invoice) bool {
	if status == models.PaymentPaid {
		return true
	}
	for _, inv := range invoices {
		if inv != nil && inv.Status == models.InvoicePaid {
			return true
		}
	}
	return false
}

// ProjectIsPaid applies IsPaid to a project with its invoices loaded.
func ProjectIsPaid(p *models.Project) bool {
	if p == nil {
		return false
	}
	return IsPaid(p.PaymentStatus, p.Invoices)
}
