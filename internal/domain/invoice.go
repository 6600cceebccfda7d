package domain

import (
	"encoding/json"
	"time"
)

// DateOnly is a custom type for handling date-only strings from JSON
type DateOnly struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for date-only strings.
// Full RFC3339 timestamps are accepted as well and truncated to the date.
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	// Handle null/empty dates
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		full, fullErr := time.Parse(time.RFC3339, s)
		if fullErr != nil {
			return err
		}
		y, m, day := full.Date()
		t = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	d.Time = t
	return nil
}

// MarshalJSON implements custom marshaling for date-only strings
func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}

// DocumentType distinguishes formal invoices from proformas
type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "invoice"
	DocumentTypeProforma DocumentType = "proforma"
)

// InvoiceStatus is the payment state of an invoice
type InvoiceStatus string

const (
	StatusUnpaid        InvoiceStatus = "Unpaid"
	StatusPartiallyPaid InvoiceStatus = "Partially Paid"
	StatusFullyPaid     InvoiceStatus = "Fully Paid"
)

// Party is a billing party (bill-from or bill-to)
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
}

// IsZero reports whether no field of the party is set
func (p Party) IsZero() bool {
	return p == Party{}
}

// InvoiceLine is a single line of an invoice. UnitPrice is tax-inclusive.
type InvoiceLine struct {
	SequenceNumber int     `json:"sequenceNumber"`
	Description    string  `json:"description"`
	UnitPrice      float64 `json:"unitPrice"`
	Quantity       float64 `json:"quantity"`

	// Per-line breakdown as sent by the client; only the update path sums these
	Amount   float64 `json:"amount"`
	VAT      float64 `json:"vat"`
	NHIL     float64 `json:"nhil"`
	GetFund  float64 `json:"getFund"`
	Discount float64 `json:"discount"`

	BaseAmount     float64 `json:"baseAmount"`
	TotalInclusive float64 `json:"totalInclusive"`

	CatalogItemID string `json:"catalogItemId,omitempty"`
}

// PaymentEntry is one immutable payment-history record. Amount is the change
// in amount paid, not the running total.
type PaymentEntry struct {
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	Notes      string    `json:"notes,omitempty"`
	RecordedBy string    `json:"recordedBy"`
}

// Invoice is the root invoicing document
type Invoice struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"user"`
	InvoiceNumber string       `json:"invoiceNumber"`
	DocumentType  DocumentType `json:"type"`
	InvoiceDate   DateOnly     `json:"invoiceDate"`
	DueDate       DateOnly     `json:"dueDate"`
	Currency      string       `json:"currency"`

	BillFrom Party         `json:"billFrom"`
	BillTo   Party         `json:"billTo"`
	Lines    []InvoiceLine `json:"items"`
	Notes    string        `json:"notes,omitempty"`
	Terms    string        `json:"terms,omitempty"`

	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`

	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"totalDiscount"`
	TotalNHIL     float64 `json:"totalNhil"`
	TotalGetFund  float64 `json:"totalGetFund"`
	TotalVAT      float64 `json:"totalVat"`
	GrandTotal    float64 `json:"grandTotal"`
	AmountPaid    float64 `json:"amountPaid"`
	BalanceDue    float64 `json:"balanceDue"`

	Status         InvoiceStatus  `json:"status"`
	PaymentHistory []PaymentEntry `json:"paymentHistory"`

	ConvertedFromProforma *string `json:"convertedFromProforma,omitempty"`
	ConvertedTo           *string `json:"convertedTo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsProforma reports whether the document is a proforma
func (i *Invoice) IsProforma() bool {
	return i.DocumentType == DocumentTypeProforma
}

// AppendPayment adds an entry to the payment history. Existing entries are
// never modified.
func (i *Invoice) AppendPayment(entry PaymentEntry) {
	i.PaymentHistory = append(i.PaymentHistory, entry)
}

// InvoiceFilter represents filters for querying invoices
type InvoiceFilter struct {
	DocumentType DocumentType
	Status       InvoiceStatus
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	Limit        int
}

// Pagination represents pagination metadata
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// PaginatedInvoices represents a paginated list of invoices
type PaginatedInvoices struct {
	Data       []Invoice  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// StatusSummary aggregates invoices sharing a status. Stores group by
// currency as well; the service merges currencies after conversion.
type StatusSummary struct {
	Status     InvoiceStatus `json:"status"`
	Currency   string        `json:"-"`
	Count      int           `json:"count"`
	GrandTotal float64       `json:"grandTotal"`
	AmountPaid float64       `json:"amountPaid"`
	BalanceDue float64       `json:"balanceDue"`
}

// ReceivablesSummary is the per-status overview of a team's invoices
type ReceivablesSummary struct {
	Currency         string          `json:"currency"`
	InvoiceCount     int             `json:"invoiceCount"`
	TotalInvoiced    float64         `json:"totalInvoiced"`
	TotalPaid        float64         `json:"totalPaid"`
	TotalOutstanding float64         `json:"totalOutstanding"`
	ByStatus         []StatusSummary `json:"byStatus"`
}

// InvoiceCreatedEvent is published after a new invoice has been stored
type InvoiceCreatedEvent struct {
	Invoice *Invoice
	// ActorID is the user who created the invoice
	ActorID string
	// TenantIDs are the member ids of the creator's team
	TenantIDs []string
}
