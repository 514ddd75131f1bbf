package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListOrders returns orders newest first
func (h *Handlers) ListOrders(c *fiber.Ctx) error {
	filter := services.OrderFilter{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit"),
	}
	if raw := c.Query("member_id"); raw != "" {
		memberID := c.QueryInt("member_id")
		if memberID <= 0 {
			return services.Invalid("Invalid member_id")
		}
		id := uint(memberID)
		filter.MemberID = &id
	}

	orders, err := h.Orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// GetOrder returns an order with its items
func (h *Handlers) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.Orders.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// CreateOrder places an order
func (h *Handlers) CreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	order, err := h.Orders.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// UpdateOrderStatus moves an order along its lifecycle
func (h *Handlers) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.OrderStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	order, err := h.Orders.UpdateStatus(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(order)
}
