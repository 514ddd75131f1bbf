package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListWishlist returns a user's wishlist
func (h *Handlers) ListWishlist(c *fiber.Ctx) error {
	items, err := h.Wishlist.List(c.UserContext(), c.Query("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// AddToWishlist puts a menu item on a user's wishlist
func (h *Handlers) AddToWishlist(c *fiber.Ctx) error {
	var req services.WishlistRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.Wishlist.Add(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// RemoveFromWishlist takes a menu item off a user's wishlist
func (h *Handlers) RemoveFromWishlist(c *fiber.Ctx) error {
	menuItemID := c.QueryInt("menu_item_id")
	if menuItemID <= 0 {
		return services.Invalid("User ID and menu item ID are required")
	}
	if err := h.Wishlist.Remove(c.UserContext(), c.Query("user_id"), uint(menuItemID)); err != nil {
		return err
	}
	return success(c)
}

// PopularWishlistItems returns the most wished-for menu items
func (h *Handlers) PopularWishlistItems(c *fiber.Ctx) error {
	items, err := h.Wishlist.Popular(c.UserContext(), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(items)
}
