package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
)

func seedCatalog(t *testing.T) *repository.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	items := []*domain.CatalogItem{
		{ID: "widget", OwnerID: "owner", Name: "Widget", TrackStock: true, Stock: 10},
		{ID: "scarce", OwnerID: "owner", Name: "Scarce", TrackStock: true, Stock: 1},
		{ID: "service", OwnerID: "owner", Name: "Consulting"},
		{ID: "foreign", OwnerID: "stranger", Name: "Foreign", TrackStock: true, Stock: 10},
	}
	for _, item := range items {
		require.NoError(t, store.CreateCatalogItem(ctx, item))
	}
	return store
}

func event(lines ...domain.InvoiceLine) domain.InvoiceCreatedEvent {
	for i := range lines {
		lines[i].SequenceNumber = i + 1
	}
	return domain.InvoiceCreatedEvent{
		Invoice:   &domain.Invoice{ID: "inv-1", InvoiceNumber: "INV-1700000000000", OwnerID: "owner", Lines: lines},
		ActorID:   "owner",
		TenantIDs: []string{"owner", "admin"},
	}
}

func TestDispatch_Outcomes(t *testing.T) {
	ctx := context.Background()
	store := seedCatalog(t)
	d := NewDispatcher(store)
	d.newID = func() string { return "movement-1" }

	outcomes := d.Dispatch(ctx, event(
		domain.InvoiceLine{Description: "no catalog link", Quantity: 5},
		domain.InvoiceLine{CatalogItemID: "widget", Quantity: 2.9},
		domain.InvoiceLine{CatalogItemID: "widget", Quantity: 0.5},
		domain.InvoiceLine{CatalogItemID: "missing", Quantity: 1},
		domain.InvoiceLine{CatalogItemID: "service", Quantity: 1},
		domain.InvoiceLine{CatalogItemID: "foreign", Quantity: 1},
		domain.InvoiceLine{CatalogItemID: "scarce", Quantity: 2},
	))

	results := make([]Result, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, o.Result)
	}
	assert.Equal(t, []Result{
		Deducted,
		SkippedQuantity,
		SkippedNotFound,
		SkippedUntracked,
		SkippedForeignOwner,
		SkippedInsufficient,
	}, results)
	assert.Equal(t, 2, outcomes[0].Quantity)
	assert.Equal(t, 2, outcomes[0].Line)

	widget, err := store.GetCatalogItem(ctx, "widget")
	require.NoError(t, err)
	assert.Equal(t, 8, widget.Stock)

	movements, err := store.ListStockMovements(ctx, "widget")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.StockMovement{
		ID:            "movement-1",
		CatalogItemID: "widget",
		OwnerID:       "owner",
		Type:          domain.MovementOut,
		Quantity:      2,
		OldStock:      10,
		NewStock:      8,
		Reference:     "INV-1700000000000",
		Reason:        "invoice INV-1700000000000",
		CreatedBy:     "owner",
		CreatedAt:     movements[0].CreatedAt,
	}, movements[0])

	scarce, err := store.GetCatalogItem(ctx, "scarce")
	require.NoError(t, err)
	assert.Equal(t, 1, scarce.Stock)
}

type failingStore struct {
	Store
	getErr    error
	deductErr error
	deducted  int
}

func (f *failingStore) GetCatalogItem(ctx context.Context, itemID string) (*domain.CatalogItem, error) {
	if f.getErr != nil && itemID == "broken" {
		return nil, f.getErr
	}
	return &domain.CatalogItem{ID: itemID, OwnerID: "owner", TrackStock: true, Stock: 100}, nil
}

func (f *failingStore) DeductStock(ctx context.Context, movement *domain.StockMovement) error {
	if f.deductErr != nil {
		return f.deductErr
	}
	f.deducted++
	return nil
}

func TestDispatch_ErrorsDoNotStopLaterLines(t *testing.T) {
	store := &failingStore{getErr: errors.New("connection reset")}
	d := NewDispatcher(store)

	outcomes := d.Dispatch(context.Background(), event(
		domain.InvoiceLine{CatalogItemID: "broken", Quantity: 1},
		domain.InvoiceLine{CatalogItemID: "ok", Quantity: 1},
	))

	require.Len(t, outcomes, 2)
	assert.Equal(t, Failed, outcomes[0].Result)
	assert.EqualError(t, outcomes[0].Err, "connection reset")
	assert.Equal(t, Deducted, outcomes[1].Result)
	assert.Equal(t, 1, store.deducted)
}

func TestDispatch_ConditionalDeductionLosesRace(t *testing.T) {
	store := &failingStore{deductErr: &repository.RepositoryError{Op: "deduct_stock", Err: domain.ErrInsufficientStock}}
	d := NewDispatcher(store)

	outcomes := d.Dispatch(context.Background(), event(domain.InvoiceLine{CatalogItemID: "ok", Quantity: 3}))
	require.Len(t, outcomes, 1)
	assert.Equal(t, SkippedInsufficient, outcomes[0].Result)
	assert.NoError(t, outcomes[0].Err)
}

func TestAfterInvoiceCreated_NeverPanicsOnEmptyInvoice(t *testing.T) {
	d := NewDispatcher(&failingStore{})
	assert.NotPanics(t, func() {
		d.AfterInvoiceCreated(context.Background(), event())
	})
}
