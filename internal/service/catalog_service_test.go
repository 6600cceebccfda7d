package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

func TestCatalogService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCatalogService(f.store, f.store).(*catalogService)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "widget" }

	_, err := svc.CreateCatalogItem(ctx, f.member, CreateCatalogItemInput{Name: "Widget"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateCatalogItem(ctx, f.owner, CreateCatalogItemInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateCatalogItem(ctx, f.owner, CreateCatalogItemInput{Name: "Widget", Stock: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	item, err := svc.CreateCatalogItem(ctx, f.admin, CreateCatalogItemInput{
		Name: " Widget ", SKU: "W-1", UnitPrice: 11.5, TrackStock: true, Stock: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CatalogItem{
		ID: "widget", OwnerID: "admin", Name: "Widget", SKU: "W-1", UnitPrice: 11.5,
		TrackStock: true, Stock: 4, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}, *item)

	items, err := svc.ListCatalogItems(ctx, f.member)
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = svc.ListCatalogItems(ctx, f.outsider)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, f.store.DeductStock(ctx, &domain.StockMovement{
		ID: "m1", CatalogItemID: "widget", OwnerID: "admin", Type: domain.MovementOut, Quantity: 1,
	}))
	movements, err := svc.ListStockMovements(ctx, f.member, "widget")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 3, movements[0].NewStock)

	_, err = svc.ListStockMovements(ctx, f.outsider, "widget")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListStockMovements(ctx, f.member, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
