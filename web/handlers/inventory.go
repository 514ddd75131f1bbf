package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListInventory returns inventory items, optionally only those at or below minimum
func (h *Handlers) ListInventory(c *fiber.Ctx) error {
	items, err := h.Inventory.List(c.UserContext(), services.InventoryFilter{
		Category: c.Query("category"),
		LowStock: c.QueryBool("low_stock"),
	})
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// LowStock returns items needing a restock, most urgent first
func (h *Handlers) LowStock(c *fiber.Ctx) error {
	items, err := h.Inventory.LowStock(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// RecentInventoryTransactions returns the stock ledger across items
func (h *Handlers) RecentInventoryTransactions(c *fiber.Ctx) error {
	moves, err := h.Inventory.RecentTransactions(c.UserContext(), c.Query("type"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(moves)
}

// GetInventoryItem returns one inventory item
func (h *Handlers) GetInventoryItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.Inventory.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// CreateInventoryItem adds an inventory item
func (h *Handlers) CreateInventoryItem(c *fiber.Ctx) error {
	var req services.InventoryItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.Inventory.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateInventoryItem changes item metadata
func (h *Handlers) UpdateInventoryItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.InventoryItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.Inventory.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// DeleteInventoryItem removes an inventory item and its ledger
func (h *Handlers) DeleteInventoryItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Inventory.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return success(c)
}

// RecordInventoryTransaction applies a restock, usage, waste or adjustment
func (h *Handlers) RecordInventoryTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.StockMovementRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	move, err := h.Inventory.RecordTransaction(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(move)
}

// InventoryItemTransactions returns the ledger of one item
func (h *Handlers) InventoryItemTransactions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	moves, err := h.Inventory.Transactions(c.UserContext(), id, c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(moves)
}
