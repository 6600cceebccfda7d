package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridwanfathin/invoicing-service/internal/database"
	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository
func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// CreateCatalogItem saves a new catalog item
func (r *PostgresCatalogRepository) CreateCatalogItem(ctx context.Context, item *domain.CatalogItem) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO catalog_items (id, user_id, name, sku, unit_price, track_stock, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, item.ID, item.OwnerID, item.Name, item.SKU, item.UnitPrice, item.TrackStock, item.Stock).Scan(
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return &RepositoryError{Op: "create_catalog_item", Err: fmt.Errorf("failed to insert catalog item: %w", err)}
	}
	return nil
}

// GetCatalogItem retrieves a catalog item by its ID
func (r *PostgresCatalogRepository) GetCatalogItem(ctx context.Context, itemID string) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.QueryRow(ctx, `
		SELECT id::text, user_id::text, name, sku, unit_price, track_stock, stock, created_at, updated_at
		FROM catalog_items
		WHERE id = $1
	`, itemID).Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.SKU, &item.UnitPrice, &item.TrackStock, &item.Stock,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &RepositoryError{Op: "get_catalog_item", Err: domain.NewNotFoundError("catalog item %s", itemID)}
		}
		return nil, &RepositoryError{Op: "get_catalog_item", Err: fmt.Errorf("failed to get catalog item: %w", err)}
	}
	return &item, nil
}

// ListCatalogItems lists the catalog items of ownerIDs ordered by name
func (r *PostgresCatalogRepository) ListCatalogItems(ctx context.Context, ownerIDs []string) ([]domain.CatalogItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, user_id::text, name, sku, unit_price, track_stock, stock, created_at, updated_at
		FROM catalog_items
		WHERE user_id = ANY($1::uuid[])
		ORDER BY name
	`, ownerIDs)
	if err != nil {
		return nil, &RepositoryError{Op: "list_catalog_items", Err: fmt.Errorf("failed to query catalog items: %w", err)}
	}
	defer rows.Close()

	items := []domain.CatalogItem{}
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Name, &item.SKU, &item.UnitPrice, &item.TrackStock, &item.Stock,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, &RepositoryError{Op: "list_catalog_items", Err: fmt.Errorf("failed to scan catalog item: %w", err)}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &RepositoryError{Op: "list_catalog_items", Err: fmt.Errorf("error iterating catalog items: %w", err)}
	}
	return items, nil
}

// DeductStock decrements the stock only when enough is available and
// appends the movement in the same transaction
func (r *PostgresCatalogRepository) DeductStock(ctx context.Context, movement *domain.StockMovement) error {
	err := database.ExecuteTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var newStock int
		err := tx.QueryRow(ctx, `
			UPDATE catalog_items
			SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND track_stock AND stock >= $2
			RETURNING stock
		`, movement.CatalogItemID, movement.Quantity).Scan(&newStock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrInsufficientStock
			}
			return err
		}

		movement.NewStock = newStock
		movement.OldStock = newStock + movement.Quantity

		return tx.QueryRow(ctx, `
			INSERT INTO stock_movements (
				id, catalog_item_id, user_id, movement_type, quantity, old_stock, new_stock, reference, reason, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at
		`, movement.ID, movement.CatalogItemID, movement.OwnerID, string(movement.Type), movement.Quantity,
			movement.OldStock, movement.NewStock, movement.Reference, movement.Reason, movement.CreatedBy,
		).Scan(&movement.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return &RepositoryError{Op: "deduct_stock", Err: err}
		}
		return &RepositoryError{Op: "deduct_stock", Err: fmt.Errorf("failed to deduct stock: %w", err)}
	}
	return nil
}

// ListStockMovements lists the movements of a catalog item, newest first
func (r *PostgresCatalogRepository) ListStockMovements(ctx context.Context, itemID string) ([]domain.StockMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, catalog_item_id::text, user_id::text, movement_type, quantity, old_stock, new_stock,
			reference, reason, created_by::text, created_at
		FROM stock_movements
		WHERE catalog_item_id = $1
		ORDER BY created_at DESC
	`, itemID)
	if err != nil {
		return nil, &RepositoryError{Op: "list_stock_movements", Err: fmt.Errorf("failed to query stock movements: %w", err)}
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	for rows.Next() {
		var (
			m            domain.StockMovement
			movementType string
		)
		if err := rows.Scan(
			&m.ID, &m.CatalogItemID, &m.OwnerID, &movementType, &m.Quantity, &m.OldStock, &m.NewStock,
			&m.Reference, &m.Reason, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, &RepositoryError{Op: "list_stock_movements", Err: fmt.Errorf("failed to scan stock movement: %w", err)}
		}
		m.Type = domain.MovementType(movementType)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &RepositoryError{Op: "list_stock_movements", Err: fmt.Errorf("error iterating stock movements: %w", err)}
	}
	return movements, nil
}
