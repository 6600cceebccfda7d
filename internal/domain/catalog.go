package domain

import "time"

// MovementType is the direction of a stock movement
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// CatalogItem is a sellable product that may be stock-tracked
type CatalogItem struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"user"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku,omitempty"`
	UnitPrice  float64   `json:"unitPrice"`
	TrackStock bool      `json:"trackStock"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StockMovement is an append-only stock ledger record
type StockMovement struct {
	ID            string       `json:"id"`
	CatalogItemID string       `json:"catalogItemId"`
	OwnerID       string       `json:"user"`
	Type          MovementType `json:"type"`
	Quantity      int          `json:"quantity"`
	OldStock      int          `json:"oldStock"`
	NewStock      int          `json:"newStock"`
	Reference     string       `json:"reference"`
	Reason        string       `json:"reason,omitempty"`
	CreatedBy     string       `json:"createdBy"`
	CreatedAt     time.Time    `json:"createdAt"`
}
