package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/config"
	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// Handlers holds what the HTTP handlers need. It is built once at startup.
type Handlers struct {
	Config       *config.Config
	DB           *database.DB
	Categories   *services.CategoryService
	Menu         *services.MenuService
	Inventory    *services.InventoryService
	Orders       *services.OrderService
	Members      *services.MemberService
	Reservations *services.ReservationService
	Wishlist     *services.WishlistService
	Uploads      *services.UploadService
	Dashboard    *services.DashboardService
}

// paramID reads a positive integer route parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, services.Invalid("Invalid " + name)
	}
	return uint(id), nil
}

// parseBody decodes a JSON request body into dst
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return services.Invalid("Invalid request body")
	}
	return nil
}

// success is the body of deletes and other writes with nothing to return
func success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}
