package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

func storedInvoice(id, owner string, created time.Time) *domain.Invoice {
	return &domain.Invoice{
		ID:            id,
		OwnerID:       owner,
		InvoiceNumber: "INV-" + id,
		DocumentType:  domain.DocumentTypeInvoice,
		Status:        domain.StatusUnpaid,
		GrandTotal:    100,
		BalanceDue:    100,
		Lines:         []domain.InvoiceLine{{SequenceNumber: 1, Description: "x"}},
		CreatedAt:     created,
	}
}

func TestMemoryStore_InvoiceCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	inv := storedInvoice("a", "u1", time.Now())
	require.NoError(t, store.CreateInvoice(ctx, inv))

	err := store.CreateInvoice(ctx, inv)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := store.GetInvoiceByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-a", got.InvoiceNumber)

	// returned copies do not alias the stored document
	got.Lines[0].Description = "mutated"
	again, err := store.GetInvoiceByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Lines[0].Description)

	got.Status = domain.StatusFullyPaid
	require.NoError(t, store.UpdateInvoice(ctx, got))
	again, _ = store.GetInvoiceByID(ctx, "a")
	assert.Equal(t, domain.StatusFullyPaid, again.Status)

	require.NoError(t, store.DeleteInvoice(ctx, "a"))
	_, err = store.GetInvoiceByID(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteInvoice(ctx, "a"), domain.ErrNotFound)
	assert.ErrorIs(t, store.UpdateInvoice(ctx, got), domain.ErrNotFound)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().GetInvoiceByID(ctx, "a")
	var repoErr *RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "get_invoice", repoErr.Op)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ListInvoices(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		inv := storedInvoice(fmt.Sprintf("u1-%d", i), "u1", base.Add(time.Duration(i)*time.Hour))
		if i%2 == 0 {
			inv.DocumentType = domain.DocumentTypeProforma
		}
		require.NoError(t, store.CreateInvoice(ctx, inv))
	}
	require.NoError(t, store.CreateInvoice(ctx, storedInvoice("other", "u9", base)))

	page, err := store.ListInvoices(ctx, []string{"u1"}, domain.InvoiceFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Pagination.TotalItems)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "u1-4", page.Data[0].ID)
	assert.Equal(t, "u1-3", page.Data[1].ID)

	last, err := store.ListInvoices(ctx, []string{"u1"}, domain.InvoiceFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Data, 1)
	assert.Equal(t, "u1-0", last.Data[0].ID)

	proformas, err := store.ListInvoices(ctx, []string{"u1", "u9"}, domain.InvoiceFilter{DocumentType: domain.DocumentTypeProforma})
	require.NoError(t, err)
	assert.Equal(t, 3, proformas.Pagination.TotalItems)
	assert.Equal(t, 10, proformas.Pagination.Limit)

	none, err := store.ListInvoices(ctx, []string{"nobody"}, domain.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, none.Data)
	assert.Equal(t, 0, none.Pagination.TotalPages)
}

func TestMemoryStore_ConvertProformaIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	proforma := storedInvoice("pro", "u1", time.Now())
	proforma.DocumentType = domain.DocumentTypeProforma
	require.NoError(t, store.CreateInvoice(ctx, proforma))

	const attempts = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		raced     atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := "pro"
			inv := storedInvoice(fmt.Sprintf("inv-%d", i), "u1", time.Now())
			inv.ConvertedFromProforma = &src
			switch err := store.ConvertProforma(ctx, "pro", inv); {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, domain.ErrConversionRace):
				raced.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), raced.Load())

	got, err := store.GetInvoiceByID(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, got.ConvertedTo)

	all, err := store.ListInvoices(ctx, []string{"u1"}, domain.InvoiceFilter{DocumentType: domain.DocumentTypeInvoice})
	require.NoError(t, err)
	require.Len(t, all.Data, 1)
	assert.Equal(t, *got.ConvertedTo, all.Data[0].ID)
}

func TestMemoryStore_StaleUpdateKeepsConversionLink(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	proforma := storedInvoice("pro", "u1", time.Now())
	proforma.DocumentType = domain.DocumentTypeProforma
	proforma.Status = domain.StatusFullyPaid
	require.NoError(t, store.CreateInvoice(ctx, proforma))

	stale, err := store.GetInvoiceByID(ctx, "pro")
	require.NoError(t, err)

	src := "pro"
	first := storedInvoice("inv-1", "u1", time.Now())
	first.ConvertedFromProforma = &src
	require.NoError(t, store.ConvertProforma(ctx, "pro", first))

	stale.Notes = "edited before the conversion landed"
	require.NoError(t, store.UpdateInvoice(ctx, stale))

	got, err := store.GetInvoiceByID(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, got.ConvertedTo)
	assert.Equal(t, "inv-1", *got.ConvertedTo)
	assert.Equal(t, "edited before the conversion landed", got.Notes)

	second := storedInvoice("inv-2", "u1", time.Now())
	second.ConvertedFromProforma = &src
	err = store.ConvertProforma(ctx, "pro", second)
	assert.ErrorIs(t, err, domain.ErrConversionRace)

	_, err = store.GetInvoiceByID(ctx, "inv-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_DeleteClearsConversionLinks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	proforma := storedInvoice("pro", "u1", time.Now())
	proforma.DocumentType = domain.DocumentTypeProforma
	require.NoError(t, store.CreateInvoice(ctx, proforma))

	src := "pro"
	inv := storedInvoice("inv", "u1", time.Now())
	inv.ConvertedFromProforma = &src
	require.NoError(t, store.ConvertProforma(ctx, "pro", inv))

	require.NoError(t, store.DeleteInvoice(ctx, "pro"))
	got, err := store.GetInvoiceByID(ctx, "inv")
	require.NoError(t, err)
	assert.Nil(t, got.ConvertedFromProforma)
}

func TestMemoryStore_SummarizeInvoicesSkipsProformas(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := storedInvoice("a", "u1", time.Now())
	a.Currency = "GHS"
	b := storedInvoice("b", "u1", time.Now())
	b.Currency = "GHS"
	b.Status, b.AmountPaid, b.BalanceDue = domain.StatusFullyPaid, 100, 0
	p := storedInvoice("p", "u1", time.Now())
	p.DocumentType = domain.DocumentTypeProforma
	for _, inv := range []*domain.Invoice{a, b, p} {
		require.NoError(t, store.CreateInvoice(ctx, inv))
	}

	summaries, err := store.SummarizeInvoices(ctx, []string{"u1"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, domain.StatusSummary{Status: domain.StatusFullyPaid, Currency: "GHS", Count: 1, GrandTotal: 100, AmountPaid: 100}, summaries[0])
	assert.Equal(t, domain.StatusSummary{Status: domain.StatusUnpaid, Currency: "GHS", Count: 1, GrandTotal: 100, BalanceDue: 100}, summaries[1])
}

func TestMemoryStore_DeductStockIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateCatalogItem(ctx, &domain.CatalogItem{ID: "item", OwnerID: "u1", Name: "Widget", TrackStock: true, Stock: 5}))
	require.NoError(t, store.CreateCatalogItem(ctx, &domain.CatalogItem{ID: "service", OwnerID: "u1", Name: "Service", Stock: 5}))

	m := &domain.StockMovement{ID: "m1", CatalogItemID: "item", OwnerID: "u1", Type: domain.MovementOut, Quantity: 3, Reference: "INV-1"}
	require.NoError(t, store.DeductStock(ctx, m))
	assert.Equal(t, 5, m.OldStock)
	assert.Equal(t, 2, m.NewStock)
	assert.False(t, m.CreatedAt.IsZero())

	err := store.DeductStock(ctx, &domain.StockMovement{ID: "m2", CatalogItemID: "item", Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	err = store.DeductStock(ctx, &domain.StockMovement{ID: "m3", CatalogItemID: "service", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	err = store.DeductStock(ctx, &domain.StockMovement{ID: "m4", CatalogItemID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	item, err := store.GetCatalogItem(ctx, "item")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Stock)

	movements, err := store.ListStockMovements(ctx, "item")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "INV-1", movements[0].Reference)
}

func TestMemoryStore_TeamsAndProfiles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	owner := &domain.User{ID: "owner", Email: "owner@example.com", Role: domain.RoleOwner, TeamID: "team-1", PasswordHash: "hash"}
	member := &domain.User{ID: "member", Email: "member@example.com", Role: domain.RoleMember, TeamID: "team-1"}
	solo := &domain.User{ID: "solo", Email: "solo@example.com", Role: domain.RoleOwner}
	for _, u := range []*domain.User{owner, member, solo} {
		require.NoError(t, store.CreateUserWithPassword(ctx, u))
	}

	err := store.CreateUserWithPassword(ctx, &domain.User{Email: "OWNER@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	ids, err := store.GetTeamMemberIDs(ctx, "member")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"owner", "member"}, ids)

	ids, err = store.GetTeamMemberIDs(ctx, "solo")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, ids)

	withHash, err := store.GetUserByEmailWithPassword(ctx, "Owner@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", withHash.PasswordHash)

	byID, err := store.GetUserByID(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, byID.PasswordHash)

	_, err = store.GetBusinessProfile(ctx, "owner")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, store.UpsertBusinessProfile(ctx, &domain.BusinessProfile{UserID: "owner", BusinessName: "Acme"}))
	profile, err := store.GetBusinessProfile(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.BusinessName)
}
