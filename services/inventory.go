package services

import (
	"context"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/events"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/metrics"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	inventoryColumns   = "id, name, sku, category, current_stock, minimum_stock, unit, cost_per_unit, created_at, updated_at"
	stockMoveColumns   = "id, inventory_item_id, transaction_type, quantity, stock_after, unit_cost, notes, created_at"
	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

// InventoryItemRequest is the body of inventory item create and update.
// CurrentStock is only read on create; afterwards stock moves through transactions.
type InventoryItemRequest struct {
	Name         string           `json:"name" validate:"max=150"`
	SKU          string           `json:"sku" validate:"max=50"`
	Category     string           `json:"category" validate:"max=100"`
	CurrentStock *decimal.Decimal `json:"current_stock"`
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	Unit         string           `json:"unit" validate:"max=20"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
}

func (r *InventoryItemRequest) validate() error {
	trimmed(&r.Name)
	trimmed(&r.SKU)
	trimmed(&r.Unit)
	if r.Name == "" || r.SKU == "" || r.Unit == "" {
		return Invalid("Name, SKU, and unit are required")
	}
	for _, d := range []*decimal.Decimal{r.CurrentStock, r.MinimumStock, r.CostPerUnit} {
		if d != nil && (d.IsNegative() || !validMoney(*d)) {
			return Invalid("Stock levels and cost must be non-negative with at most two decimals")
		}
	}
	return validateStruct(r, "Invalid inventory item")
}

// StockMovementRequest is the body of an inventory transaction
type StockMovementRequest struct {
	TransactionType models.InventoryTransactionType `json:"transaction_type" validate:"required,oneof=restock usage waste adjustment"`
	Quantity        *decimal.Decimal                `json:"quantity" validate:"required"`
	UnitCost        *decimal.Decimal                `json:"unit_cost"`
	Notes           string                          `json:"notes" validate:"max=1000"`
}

func (r *StockMovementRequest) validate() error {
	if err := validateStruct(r, "Transaction type and a positive quantity are required"); err != nil {
		return err
	}
	if !r.Quantity.IsPositive() || !validMoney(*r.Quantity) {
		return Invalid("Quantity must be positive with at most two decimals")
	}
	if r.UnitCost != nil && (r.UnitCost.IsNegative() || !validMoney(*r.UnitCost)) {
		return Invalid("Unit cost must be a non-negative amount")
	}
	return nil
}

// StockMovement is the result of recording an inventory transaction
type StockMovement struct {
	Transaction models.InventoryTransaction `json:"transaction"`
	Item        models.InventoryItem        `json:"item"`
}

// InventoryFilter narrows inventory listings
type InventoryFilter struct {
	Category string
	LowStock bool
}

// InventoryService manages inventory items and their stock ledger
type InventoryService struct {
	db     *database.DB
	events events.Publisher
	log    *logrus.Entry
}

// NewInventoryService creates an InventoryService
func NewInventoryService(db *database.DB, publisher events.Publisher, log logrus.FieldLogger) *InventoryService {
	return &InventoryService{db: db, events: publisher, log: logging.Component(log, "inventory_service")}
}

// List returns inventory items ordered by name
func (s *InventoryService) List(ctx context.Context, f InventoryFilter) ([]models.InventoryItem, error) {
	query := "SELECT " + inventoryColumns + " FROM inventory_items WHERE 1=1"
	args := []interface{}{}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.LowStock {
		query += " AND current_stock <= minimum_stock"
	}
	query += " ORDER BY name, id"

	items := []models.InventoryItem{}
	if err := s.db.Conn(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}

// LowStock returns items at or below their minimum, the most depleted first
func (s *InventoryService) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	err := s.db.Conn(ctx).Raw(`
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE current_stock <= minimum_stock
		ORDER BY current_stock / NULLIF(minimum_stock, 0) ASC NULLS FIRST, name, id
	`).Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return items, nil
}

// Get returns one inventory item
func (s *InventoryService) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	res := s.db.Conn(ctx).Raw("SELECT "+inventoryColumns+" FROM inventory_items WHERE id = $1", id).Scan(&item)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Inventory item")
	}
	return &item, nil
}

// Create adds an inventory item with its opening stock
func (s *InventoryService) Create(ctx context.Context, req InventoryItemRequest) (*models.InventoryItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var item models.InventoryItem
	err := s.db.Conn(ctx).Raw(`
		INSERT INTO inventory_items (name, sku, category, current_stock, minimum_stock, unit, cost_per_unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+inventoryColumns,
		req.Name, req.SKU, req.Category, orZero(req.CurrentStock), orZero(req.MinimumStock), req.Unit, orZero(req.CostPerUnit),
	).Scan(&item).Error
	if err != nil {
		if isDuplicate(err) {
			return nil, Conflict("An inventory item with SKU %s already exists", req.SKU)
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	s.log.WithFields(logrus.Fields{"inventory_item_id": item.ID, "sku": item.SKU}).Info("Inventory item created")
	return &item, nil
}

// Update changes an item's descriptive fields and thresholds, never its stock
func (s *InventoryService) Update(ctx context.Context, id uint, req InventoryItemRequest) (*models.InventoryItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var item models.InventoryItem
	res := s.db.Conn(ctx).Raw(`
		UPDATE inventory_items
		SET name = $1, sku = $2, category = $3, minimum_stock = $4, unit = $5, cost_per_unit = $6
		WHERE id = $7
		RETURNING `+inventoryColumns,
		req.Name, req.SKU, req.Category, orZero(req.MinimumStock), req.Unit, orZero(req.CostPerUnit), id,
	).Scan(&item)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return nil, Conflict("An inventory item with SKU %s already exists", req.SKU)
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Inventory item")
	}
	return &item, nil
}

// Delete removes an item together with its ledger
func (s *InventoryService) Delete(ctx context.Context, id uint) error {
	res := s.db.Conn(ctx).Exec("DELETE FROM inventory_items WHERE id = $1", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete inventory item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("Inventory item")
	}
	return nil
}

// RecordTransaction applies a stock movement and appends it to the ledger in
// one database transaction. Restock adds the quantity, every other type
// subtracts it. Stock never goes below zero: a decrement larger than the
// current stock fails with ErrInsufficientStock and changes nothing.
func (s *InventoryService) RecordTransaction(ctx context.Context, itemID uint, req StockMovementRequest) (*StockMovement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var result StockMovement
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var res *gorm.DB
		if req.TransactionType.Increases() {
			res = tx.Raw(`
				UPDATE inventory_items
				SET current_stock = current_stock + $1, cost_per_unit = COALESCE($2, cost_per_unit)
				WHERE id = $3
				RETURNING `+inventoryColumns,
				*req.Quantity, req.UnitCost, itemID,
			).Scan(&result.Item)
		} else {
			res = tx.Raw(`
				UPDATE inventory_items
				SET current_stock = current_stock - $1
				WHERE id = $2 AND current_stock >= $1
				RETURNING `+inventoryColumns,
				*req.Quantity, itemID,
			).Scan(&result.Item)
		}
		if res.Error != nil {
			return fmt.Errorf("failed to update stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrShort(tx, itemID)
		}

		err := tx.Raw(`
			INSERT INTO inventory_transactions (inventory_item_id, transaction_type, quantity, stock_after, unit_cost, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING `+stockMoveColumns,
			itemID, req.TransactionType, *req.Quantity, result.Item.CurrentStock, req.UnitCost, req.Notes,
		).Scan(&result.Transaction).Error
		if err != nil {
			return fmt.Errorf("failed to record inventory transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordInventoryTransaction(string(req.TransactionType))
	s.log.WithFields(logrus.Fields{
		"inventory_item_id": itemID,
		"type":              req.TransactionType,
		"quantity":          req.Quantity.String(),
		"stock_after":       result.Item.CurrentStock.String(),
	}).Info("Inventory transaction recorded")

	if crossedLowStock(req, result.Item) {
		s.publish(ctx, events.New(events.InventoryLowStock, result.Item))
	}
	return &result, nil
}

// crossedLowStock reports whether a decrement took the item from above its
// minimum to at or below it
func crossedLowStock(req StockMovementRequest, item models.InventoryItem) bool {
	if req.TransactionType.Increases() || !item.IsLowStock() {
		return false
	}
	before := item.CurrentStock.Add(*req.Quantity)
	return before.GreaterThan(item.MinimumStock)
}

// missingOrShort explains why a conditional stock update touched no row
func missingOrShort(tx *gorm.DB, itemID uint) error {
	var count int64
	if err := tx.Raw("SELECT COUNT(*) FROM inventory_items WHERE id = $1", itemID).Scan(&count).Error; err != nil {
		return fmt.Errorf("failed to check inventory item: %w", err)
	}
	if count == 0 {
		return NotFound("Inventory item")
	}
	return ErrInsufficientStock
}

// Transactions returns the ledger of one item, newest first
func (s *InventoryService) Transactions(ctx context.Context, itemID uint, limit int) ([]models.InventoryTransaction, error) {
	if _, err := s.Get(ctx, itemID); err != nil {
		return nil, err
	}

	moves := []models.InventoryTransaction{}
	err := s.db.Conn(ctx).Raw(`
		SELECT `+stockMoveColumns+`
		FROM inventory_transactions
		WHERE inventory_item_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, itemID, clampLimit(limit, defaultLedgerLimit, maxLedgerLimit)).Scan(&moves).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory transactions: %w", err)
	}
	return moves, nil
}

// RecentTransactions returns the ledger across all items, optionally of one type
func (s *InventoryService) RecentTransactions(ctx context.Context, kind string, limit int) ([]models.InventoryTransaction, error) {
	query := `
		SELECT t.id, t.inventory_item_id, t.transaction_type, t.quantity, t.stock_after, t.unit_cost, t.notes, t.created_at,
			i.name AS item_name
		FROM inventory_transactions t
		JOIN inventory_items i ON i.id = t.inventory_item_id`
	args := []interface{}{}
	if kind != "" {
		if !models.InventoryTransactionType(kind).Valid() {
			return nil, Invalid("Unknown transaction type: " + kind)
		}
		query += " WHERE t.transaction_type = ?"
		args = append(args, kind)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC LIMIT ?"
	args = append(args, clampLimit(limit, defaultLedgerLimit, maxLedgerLimit))

	moves := []models.InventoryTransaction{}
	if err := s.db.Conn(ctx).Raw(query, args...).Scan(&moves).Error; err != nil {
		return nil, fmt.Errorf("failed to list inventory transactions: %w", err)
	}
	return moves, nil
}

func (s *InventoryService) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithField("event", e.Type).Warn("Failed to publish event")
	}
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
