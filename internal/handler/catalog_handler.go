package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/model"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

// CatalogHandler handles HTTP requests for catalog items and their stock ledger
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// RegisterRoutes registers catalog routes. manage guards item creation.
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup, manage gin.HandlerFunc) {
	items := router.Group("/catalog-items")
	{
		items.POST("", manage, h.CreateCatalogItem)
		items.GET("", h.ListCatalogItems)
		items.GET("/:itemId/movements", h.ListStockMovements)
	}
}

// CreateCatalogItem handles the POST /catalog-items endpoint
// @Summary Create a catalog item
// @Description Adds a product whose stock is deducted when invoices reference it
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body model.CreateCatalogItemRequest true "Catalog item"
// @Success 201 {object} domain.CatalogItem "Item created"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 403 {object} model.ErrorResponse "Forbidden"
// @Router /v1/catalog-items [post]
func (h *CatalogHandler) CreateCatalogItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	var req model.CreateCatalogItemRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	item, err := h.catalogService.CreateCatalogItem(c.Request.Context(), actor, service.CreateCatalogItemInput{
		Name:       req.Name,
		SKU:        req.SKU,
		UnitPrice:  req.UnitPrice,
		TrackStock: req.TrackStock,
		Stock:      req.Stock,
	})
	if err != nil {
		respondServiceError(c, "create_catalog_item_failed", err)
		return
	}

	respondCreated(c, item)
}

// ListCatalogItems handles the GET /catalog-items endpoint
// @Summary List catalog items
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.CatalogItem "Catalog items of the caller's team"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Router /v1/catalog-items [get]
func (h *CatalogHandler) ListCatalogItems(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	items, err := h.catalogService.ListCatalogItems(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, "list_catalog_items_failed", err)
		return
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}

	respondOK(c, items)
}

// ListStockMovements handles the GET /catalog-items/{itemId}/movements endpoint
// @Summary List stock movements
// @Description Returns the append-only stock ledger of a catalog item
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Catalog item ID"
// @Success 200 {array} domain.StockMovement "Stock movements"
// @Failure 403 {object} model.ErrorResponse "Forbidden"
// @Failure 404 {object} model.ErrorResponse "Item not found"
// @Router /v1/catalog-items/{itemId}/movements [get]
func (h *CatalogHandler) ListStockMovements(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	itemID, err := getPathParam(c, "itemId")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	movements, err := h.catalogService.ListStockMovements(c.Request.Context(), actor, itemID)
	if err != nil {
		respondServiceError(c, "list_stock_movements_failed", err)
		return
	}
	if movements == nil {
		movements = []domain.StockMovement{}
	}

	respondOK(c, movements)
}
