package model

import (
	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/invoicing"
)

// CreateInvoiceRequest is the body of POST /v1/invoices and /v1/invoices/quote
type CreateInvoiceRequest struct {
	Type          string          `json:"type" example:"invoice" enums:"invoice,proforma"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	InvoiceDate   domain.DateOnly `json:"invoiceDate" swaggertype:"string" example:"2024-05-01"`
	DueDate       domain.DateOnly `json:"dueDate" swaggertype:"string" example:"2024-05-31"`
	Currency      string          `json:"currency,omitempty" example:"GHS"`
	BillFrom      domain.Party    `json:"billFrom"`
	BillTo        domain.Party    `json:"billTo"`

	Items []invoicing.LineInput `json:"items"`
	// Lines is accepted as an alias of Items
	Lines []invoicing.LineInput `json:"lines,omitempty"`

	Notes string `json:"notes,omitempty"`
	Terms string `json:"terms,omitempty"`

	DiscountPercent domain.Number `json:"discountPercent" swaggertype:"number"`
	DiscountAmount  domain.Number `json:"discountAmount" swaggertype:"number"`
	AmountPaid      domain.Number `json:"amountPaid" swaggertype:"number"`
	Status          string        `json:"status,omitempty" example:"Unpaid"`
	PaymentNote     string        `json:"paymentNote,omitempty"`
}

// LineItems returns Items, falling back to the Lines alias
func (r *CreateInvoiceRequest) LineItems() []invoicing.LineInput {
	if r.Items != nil {
		return r.Items
	}
	return r.Lines
}

// UpdateInvoiceRequest is the partial body of PUT/PATCH /v1/invoices/{invoiceId}.
// Omitted fields keep their stored values.
type UpdateInvoiceRequest struct {
	InvoiceDate *domain.DateOnly `json:"invoiceDate,omitempty" swaggertype:"string"`
	DueDate     *domain.DateOnly `json:"dueDate,omitempty" swaggertype:"string"`
	Currency    *string          `json:"currency,omitempty"`
	BillFrom    *domain.Party    `json:"billFrom,omitempty"`
	BillTo      *domain.Party    `json:"billTo,omitempty"`

	// Resubmitted lines carry their own amount and levy breakdown
	Items []invoicing.LineInput `json:"items,omitempty"`
	Lines []invoicing.LineInput `json:"lines,omitempty"`

	Notes *string `json:"notes,omitempty"`
	Terms *string `json:"terms,omitempty"`

	DiscountPercent domain.Number `json:"discountPercent" swaggertype:"number"`
	DiscountAmount  domain.Number `json:"discountAmount" swaggertype:"number"`
	GrandTotal      domain.Number `json:"grandTotal" swaggertype:"number"`
	AmountPaid      domain.Number `json:"amountPaid" swaggertype:"number"`
	Status          *string       `json:"status,omitempty"`
	PaymentNote     string        `json:"paymentNote,omitempty"`
}

// LineItems returns Items, falling back to the Lines alias. Nil means the
// lines were not resubmitted.
func (r *UpdateInvoiceRequest) LineItems() []invoicing.LineInput {
	if r.Items != nil {
		return r.Items
	}
	return r.Lines
}

// InvoiceResponse wraps a created or quoted invoice
type InvoiceResponse struct {
	Invoice  *domain.Invoice             `json:"invoice"`
	Warnings []invoicing.CoercionWarning `json:"warnings,omitempty"`
}

// InvoicesListResponse represents a paginated list of invoices
type InvoicesListResponse struct {
	Data       []domain.Invoice   `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// FromDomain fills the response from a repository page
func (r *InvoicesListResponse) FromDomain(page *domain.PaginatedInvoices) {
	r.Data = page.Data
	if r.Data == nil {
		r.Data = []domain.Invoice{}
	}
	r.Pagination = PaginationResponse{
		TotalItems:  page.Pagination.TotalItems,
		TotalPages:  page.Pagination.TotalPages,
		CurrentPage: page.Pagination.CurrentPage,
		Limit:       page.Pagination.Limit,
	}
}

// CreateCatalogItemRequest is the body of POST /v1/catalog-items
type CreateCatalogItemRequest struct {
	Name       string  `json:"name" binding:"required"`
	SKU        string  `json:"sku,omitempty"`
	UnitPrice  float64 `json:"unitPrice"`
	TrackStock bool    `json:"trackStock"`
	Stock      int     `json:"stock"`
}
