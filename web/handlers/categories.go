package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListCategories returns all categories with their menu item counts
func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	categories, err := h.Categories.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// CreateCategory adds a category
func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var req services.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.Categories.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory changes a category
func (h *Handlers) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.Categories.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(category)
}

// DeleteCategory removes an unused category
func (h *Handlers) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Categories.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return success(c)
}
