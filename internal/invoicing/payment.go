package invoicing

import (
	"math"
	"strings"
	"time"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/money"
)

// NormalizeStatus maps a caller-supplied status literal to a canonical
// status. "Paid" is accepted as an alias of "Fully Paid". Matching ignores
// case and surrounding spaces.
func NormalizeStatus(s string) (domain.InvoiceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unpaid":
		return domain.StatusUnpaid, true
	case "partially paid":
		return domain.StatusPartiallyPaid, true
	case "fully paid", "paid":
		return domain.StatusFullyPaid, true
	}
	return "", false
}

// DeriveStatus derives the status from the amount paid
func DeriveStatus(amountPaid, grandTotal float64) domain.InvoiceStatus {
	switch {
	case amountPaid <= 0:
		return domain.StatusUnpaid
	case amountPaid >= grandTotal:
		return domain.StatusFullyPaid
	default:
		return domain.StatusPartiallyPaid
	}
}

// PaymentChange describes the payment side of a create or update
type PaymentChange struct {
	GrandTotal         float64
	PreviousAmountPaid float64
	AmountPaid         float64
	RequestedStatus    string
	Note               string
	RecordedBy         string
	At                 time.Time
}

// Reconciliation is the derived payment state
type Reconciliation struct {
	Status     domain.InvoiceStatus
	BalanceDue float64
	// Entry is nil when nothing should be appended to the payment history
	Entry *domain.PaymentEntry
}

// ReconcileOnCreate derives the payment state of a new invoice. The balance
// is floored at zero and a positive payment always decides the status.
func ReconcileOnCreate(c PaymentChange) Reconciliation {
	status := DeriveStatus(c.AmountPaid, c.GrandTotal)
	if c.AmountPaid <= 0 {
		if requested, ok := NormalizeStatus(c.RequestedStatus); ok {
			status = requested
		}
	}

	return Reconciliation{
		Status:     status,
		BalanceDue: money.Round(math.Max(c.GrandTotal-c.AmountPaid, 0)),
		Entry:      PaymentEntryFor(c),
	}
}

// ReconcileOnUpdate derives the payment state after an update. The balance
// is not floored, so an overpayment shows as a negative balance. An explicit
// status from the caller wins over the derived one.
func ReconcileOnUpdate(c PaymentChange) Reconciliation {
	status, ok := NormalizeStatus(c.RequestedStatus)
	if !ok {
		status = DeriveStatus(c.AmountPaid, c.GrandTotal)
	}

	return Reconciliation{
		Status:     status,
		BalanceDue: c.GrandTotal - c.AmountPaid,
		Entry:      PaymentEntryFor(c),
	}
}

// PaymentEntryFor returns the history entry for a payment change: the delta
// when the amount paid moved, a zero-amount entry when only a note was given,
// and nil otherwise.
func PaymentEntryFor(c PaymentChange) *domain.PaymentEntry {
	delta := c.AmountPaid - c.PreviousAmountPaid
	note := strings.TrimSpace(c.Note)
	if delta == 0 && note == "" {
		return nil
	}

	return &domain.PaymentEntry{
		Amount:     delta,
		Date:       c.At,
		Notes:      note,
		RecordedBy: c.RecordedBy,
	}
}
