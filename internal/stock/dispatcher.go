// Package stock applies the stock side effects of invoicing. Deductions are
// best effort: they run after the invoice is stored and their failures are
// logged, never returned to the invoice caller.
package stock

import (
	"context"
	"errors"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/logger"
)

// Store is the catalog storage the dispatcher needs
type Store interface {
	GetCatalogItem(ctx context.Context, itemID string) (*domain.CatalogItem, error)
	DeductStock(ctx context.Context, movement *domain.StockMovement) error
}

// Result is what happened to a single invoice line
type Result string

const (
	Deducted            Result = "deducted"
	SkippedQuantity     Result = "skipped_quantity"
	SkippedNotFound     Result = "skipped_not_found"
	SkippedUntracked    Result = "skipped_untracked"
	SkippedForeignOwner Result = "skipped_foreign_owner"
	SkippedInsufficient Result = "skipped_insufficient"
	Failed              Result = "failed"
)

// Outcome describes the handling of one catalog-linked line
type Outcome struct {
	Line          int
	CatalogItemID string
	Quantity      int
	Result        Result
	Err           error
}

// Dispatcher deducts stock for catalog-linked invoice lines
type Dispatcher struct {
	store  Store
	newID  func() string
	logger zerolog.Logger
}

// NewDispatcher creates a stock dispatcher backed by store
func NewDispatcher(store Store) *Dispatcher {
	return &Dispatcher{
		store:  store,
		newID:  uuid.NewString,
		logger: logger.WithComponent("stock"),
	}
}

// AfterInvoiceCreated is registered as the invoice post-commit hook
func (d *Dispatcher) AfterInvoiceCreated(ctx context.Context, event domain.InvoiceCreatedEvent) {
	d.Dispatch(ctx, event)
}

// Dispatch walks the invoice lines in order and deducts stock where it can.
// Lines are independent: a failure on one line does not stop the next.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.InvoiceCreatedEvent) []Outcome {
	inv := event.Invoice
	var outcomes []Outcome

	for _, line := range inv.Lines {
		if line.CatalogItemID == "" {
			continue
		}

		outcome := d.deductLine(ctx, event, line)
		outcomes = append(outcomes, outcome)

		log := d.logger.With().
			Str("invoice_id", inv.ID).
			Str("invoice_number", inv.InvoiceNumber).
			Str("catalog_item_id", line.CatalogItemID).
			Int("line", line.SequenceNumber).
			Int("quantity", outcome.Quantity).
			Logger()

		switch outcome.Result {
		case Deducted:
			log.Debug().Msg("stock deducted")
		case Failed:
			log.Error().Err(outcome.Err).Msg("stock deduction failed")
		default:
			log.Warn().Str("result", string(outcome.Result)).Msg("stock deduction skipped")
		}
	}

	return outcomes
}

func (d *Dispatcher) deductLine(ctx context.Context, event domain.InvoiceCreatedEvent, line domain.InvoiceLine) Outcome {
	outcome := Outcome{Line: line.SequenceNumber, CatalogItemID: line.CatalogItemID}

	qty := math.Floor(line.Quantity)
	if math.IsNaN(qty) || qty < 1 {
		outcome.Result = SkippedQuantity
		return outcome
	}
	if qty > math.MaxInt32 {
		outcome.Result = SkippedInsufficient
		return outcome
	}
	outcome.Quantity = int(qty)

	item, err := d.store.GetCatalogItem(ctx, line.CatalogItemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outcome.Result = SkippedNotFound
		return outcome
	case err != nil:
		outcome.Result, outcome.Err = Failed, err
		return outcome
	}

	if !item.TrackStock {
		outcome.Result = SkippedUntracked
		return outcome
	}
	if !slices.Contains(event.TenantIDs, item.OwnerID) {
		outcome.Result = SkippedForeignOwner
		return outcome
	}
	if item.Stock < outcome.Quantity {
		outcome.Result = SkippedInsufficient
		return outcome
	}

	movement := &domain.StockMovement{
		ID:            d.newID(),
		CatalogItemID: item.ID,
		OwnerID:       item.OwnerID,
		Type:          domain.MovementOut,
		Quantity:      outcome.Quantity,
		Reference:     event.Invoice.InvoiceNumber,
		Reason:        "invoice " + event.Invoice.InvoiceNumber,
		CreatedBy:     event.ActorID,
	}

	// the store re-checks the stock atomically, so a concurrent sale can
	// still turn this into a skip
	err = d.store.DeductStock(ctx, movement)
	switch {
	case err == nil:
		outcome.Result = Deducted
	case errors.Is(err, domain.ErrInsufficientStock):
		outcome.Result = SkippedInsufficient
	case errors.Is(err, domain.ErrNotFound):
		outcome.Result = SkippedNotFound
	default:
		outcome.Result, outcome.Err = Failed, err
	}
	return outcome
}
