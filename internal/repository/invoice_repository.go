package repository

import (
	"context"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

// InvoiceRepository defines the interface for invoice data storage operations
type InvoiceRepository interface {
	// CreateInvoice stores a new invoice. The ID is assigned by the caller.
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) error

	// GetInvoiceByID retrieves an invoice by its ID
	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// UpdateInvoice replaces the stored invoice with the same ID
	UpdateInvoice(ctx context.Context, invoice *domain.Invoice) error

	// DeleteInvoice deletes an invoice by its ID
	DeleteInvoice(ctx context.Context, invoiceID string) error

	// ListInvoices lists invoices owned by any of ownerIDs, newest first
	ListInvoices(ctx context.Context, ownerIDs []string, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)

	// ConvertProforma stores invoice and marks proformaID as converted to it
	// in one atomic step. The mark only succeeds while the proforma has no
	// conversion recorded; otherwise nothing is written and
	// domain.ErrConversionRace is returned.
	ConvertProforma(ctx context.Context, proformaID string, invoice *domain.Invoice) error

	// SummarizeInvoices aggregates formal invoices of ownerIDs per status and currency
	SummarizeInvoices(ctx context.Context, ownerIDs []string) ([]domain.StatusSummary, error)
}

// CatalogRepository defines the interface for catalog and stock ledger operations
type CatalogRepository interface {
	CreateCatalogItem(ctx context.Context, item *domain.CatalogItem) error
	GetCatalogItem(ctx context.Context, itemID string) (*domain.CatalogItem, error)
	ListCatalogItems(ctx context.Context, ownerIDs []string) ([]domain.CatalogItem, error)

	// DeductStock lowers the stock of a tracked item by movement.Quantity and
	// appends the movement, both or neither. The deduction is conditional:
	// when the stock is lower than the quantity nothing changes and
	// domain.ErrInsufficientStock is returned. OldStock and NewStock of the
	// movement are filled in from the stored values.
	DeductStock(ctx context.Context, movement *domain.StockMovement) error

	ListStockMovements(ctx context.Context, itemID string) ([]domain.StockMovement, error)
}

// normalizePage applies the default and maximum page size
func normalizePage(filter *domain.InvoiceFilter) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
}

func totalPages(totalItems, limit int) int {
	if totalItems == 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}
