package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

// Invoice number prefixes per document type
const (
	InvoicePrefix  = "INV-"
	ProformaPrefix = "PRO-"
)

// GenerateInvoiceNumber builds a document number from the type prefix and
// the millisecond timestamp. Uniqueness is not guaranteed beyond that.
func GenerateInvoiceNumber(docType domain.DocumentType, now time.Time) string {
	prefix := InvoicePrefix
	if docType == domain.DocumentTypeProforma {
		prefix = ProformaPrefix
	}
	return fmt.Sprintf("%s%d", prefix, now.UnixMilli())
}

// CheckConvertible verifies that the caller may convert the document and
// that it is an open, fully paid proforma. Checks run in that order.
func CheckConvertible(inv *domain.Invoice, role domain.Role) error {
	if !role.CanManageInvoices() {
		return fmt.Errorf("%w: only owners and admins can convert proformas", domain.ErrForbidden)
	}
	if !inv.IsProforma() {
		return domain.ErrNotProforma
	}
	if inv.ConvertedTo != nil {
		return domain.ErrAlreadyConverted
	}
	switch strings.ToLower(strings.TrimSpace(string(inv.Status))) {
	case "paid", "fully paid":
		return nil
	}
	return domain.ErrProformaNotPaid
}

// CloneAsInvoice copies a proforma into a new formal invoice. Parties,
// lines, notes, terms, totals and payment history are copied; the result is
// fully paid with no balance and points back at its source.
func CloneAsInvoice(src *domain.Invoice, newID string, now time.Time) *domain.Invoice {
	sourceID := src.ID

	inv := &domain.Invoice{
		ID:            newID,
		OwnerID:       src.OwnerID,
		InvoiceNumber: GenerateInvoiceNumber(domain.DocumentTypeInvoice, now),
		DocumentType:  domain.DocumentTypeInvoice,
		InvoiceDate:   src.InvoiceDate,
		DueDate:       src.DueDate,
		Currency:      src.Currency,

		BillFrom: src.BillFrom,
		BillTo:   src.BillTo,
		Lines:    append([]domain.InvoiceLine(nil), src.Lines...),
		Notes:    src.Notes,
		Terms:    src.Terms,

		DiscountPercent: src.DiscountPercent,
		DiscountAmount:  src.DiscountAmount,

		Subtotal:      src.Subtotal,
		TotalDiscount: src.TotalDiscount,
		TotalNHIL:     src.TotalNHIL,
		TotalGetFund:  src.TotalGetFund,
		TotalVAT:      src.TotalVAT,
		GrandTotal:    src.GrandTotal,
		AmountPaid:    src.AmountPaid,
		BalanceDue:    0,

		Status:         domain.StatusFullyPaid,
		PaymentHistory: append([]domain.PaymentEntry(nil), src.PaymentHistory...),

		ConvertedFromProforma: &sourceID,

		CreatedAt: now,
		UpdatedAt: now,
	}
	return inv
}
