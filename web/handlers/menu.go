package handlers

import (
	"strconv"

	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListMenu returns menu items, filtered by category, availability and search text
func (h *Handlers) ListMenu(c *fiber.Ctx) error {
	filter := services.MenuFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return services.Invalid("available must be true or false")
		}
		filter.Available = &available
	}

	items, err := h.Menu.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// GetMenuItem returns one menu item
func (h *Handlers) GetMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.Menu.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// CreateMenuItem adds a menu item
func (h *Handlers) CreateMenuItem(c *fiber.Ctx) error {
	var req services.MenuItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.Menu.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateMenuItem replaces a menu item
func (h *Handlers) UpdateMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.MenuItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.Menu.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// SetMenuAvailability toggles availability, or sets it when the body carries is_available
func (h *Handlers) SetMenuAvailability(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		IsAvailable *bool `json:"is_available"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	item, err := h.Menu.SetAvailability(c.UserContext(), id, req.IsAvailable)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// DeleteMenuItem removes a menu item
func (h *Handlers) DeleteMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Menu.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return success(c)
}
