package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
)

// CreateCatalogItemInput carries a new catalog item
type CreateCatalogItemInput struct {
	Name       string
	SKU        string
	UnitPrice  float64
	TrackStock bool
	Stock      int
}

// CatalogService manages catalog items and exposes their stock ledger
type CatalogService interface {
	CreateCatalogItem(ctx context.Context, actor Actor, input CreateCatalogItemInput) (*domain.CatalogItem, error)
	ListCatalogItems(ctx context.Context, actor Actor) ([]domain.CatalogItem, error)
	ListStockMovements(ctx context.Context, actor Actor, itemID string) ([]domain.StockMovement, error)
}

type catalogService struct {
	catalog repository.CatalogRepository
	users   repository.UserRepository
	now     func() time.Time
	newID   func() string
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog repository.CatalogRepository, users repository.UserRepository) CatalogService {
	return &catalogService{
		catalog: catalog,
		users:   users,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateCatalogItem adds an item owned by the actor
func (s *catalogService) CreateCatalogItem(ctx context.Context, actor Actor, input CreateCatalogItemInput) (*domain.CatalogItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("create_catalog_item", err)
	}
	if err := requireManager(actor); err != nil {
		return nil, serviceError("create_catalog_item", err)
	}

	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, serviceError("create_catalog_item", domain.NewValidationError("name is required"))
	case input.UnitPrice < 0:
		return nil, serviceError("create_catalog_item", domain.NewValidationError("unitPrice cannot be negative"))
	case input.Stock < 0:
		return nil, serviceError("create_catalog_item", domain.NewValidationError("stock cannot be negative"))
	}

	now := s.now()
	item := &domain.CatalogItem{
		ID:         s.newID(),
		OwnerID:    actor.UserID,
		Name:       name,
		SKU:        strings.TrimSpace(input.SKU),
		UnitPrice:  input.UnitPrice,
		TrackStock: input.TrackStock,
		Stock:      input.Stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.catalog.CreateCatalogItem(ctx, item); err != nil {
		return nil, serviceError("create_catalog_item", err)
	}
	return item, nil
}

// ListCatalogItems lists the catalog of the actor's team
func (s *catalogService) ListCatalogItems(ctx context.Context, actor Actor) ([]domain.CatalogItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("list_catalog_items", err)
	}

	ids, err := s.users.GetTeamMemberIDs(ctx, actor.UserID)
	if err != nil {
		return nil, serviceError("resolve_team", err)
	}
	items, err := s.catalog.ListCatalogItems(ctx, ids)
	if err != nil {
		return nil, serviceError("list_catalog_items", err)
	}
	return items, nil
}

// ListStockMovements returns the stock ledger of an item of the actor's team
func (s *catalogService) ListStockMovements(ctx context.Context, actor Actor, itemID string) ([]domain.StockMovement, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("list_stock_movements", err)
	}

	item, err := s.catalog.GetCatalogItem(ctx, itemID)
	if err != nil {
		return nil, serviceError("list_stock_movements", err)
	}
	ids, err := s.users.GetTeamMemberIDs(ctx, actor.UserID)
	if err != nil {
		return nil, serviceError("resolve_team", err)
	}
	if !slices.Contains(ids, item.OwnerID) {
		return nil, serviceError("list_stock_movements", fmt.Errorf("%w: catalog item belongs to another team", domain.ErrForbidden))
	}

	movements, err := s.catalog.ListStockMovements(ctx, itemID)
	if err != nil {
		return nil, serviceError("list_stock_movements", err)
	}
	return movements, nil
}
