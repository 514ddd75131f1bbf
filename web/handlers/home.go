package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/LittleGragon/coffee-shop-sub000/web/middleware"
	"github.com/gofiber/fiber/v2"
)

type menuSection struct {
	Category string
	Items    []models.MenuItem
}

// HomePage renders the storefront menu grouped by category
func (h *Handlers) HomePage(c *fiber.Ctx) error {
	available := true
	items, err := h.Menu.List(c.UserContext(), services.MenuFilter{Available: &available})
	if err != nil {
		return err
	}

	// Items arrive ordered by category
	sections := []menuSection{}
	for _, item := range items {
		if n := len(sections); n == 0 || sections[n-1].Category != item.Category {
			sections = append(sections, menuSection{Category: item.Category})
		}
		last := &sections[len(sections)-1]
		last.Items = append(last.Items, item)
	}

	return c.Render("pages/menu", middleware.SQLPanel(c, fiber.Map{
		"Title":    "Menu",
		"Active":   "menu",
		"Sections": sections,
	}), "layouts/base")
}

// AdminPage renders the dashboard
func (h *Handlers) AdminPage(c *fiber.Ctx) error {
	dashboard, err := h.Dashboard.Load(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("pages/admin", middleware.SQLPanel(c, fiber.Map{
		"Title":        "Dashboard",
		"Active":       "admin",
		"Stats":        dashboard.Stats,
		"LowStock":     dashboard.LowStock,
		"RecentOrders": dashboard.RecentOrders,
	}), "layouts/base")
}

// AppConfig tells the client which data source to use
func (h *Handlers) AppConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"environment":   h.Config.App.Environment,
		"use_mock_data": h.Config.App.UseMockData,
	})
}

// Health pings the database
func (h *Handlers) Health(c *fiber.Ctx) error {
	if err := h.DB.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetSQLLogs returns SQL logs as JSON
func (h *Handlers) GetSQLLogs(c *fiber.Ctx) error {
	queries := h.DB.Queries.Recent(c.QueryInt("limit", 20))
	return c.JSON(queries)
}

// ClearSQLLogs clears all SQL logs
func (h *Handlers) ClearSQLLogs(c *fiber.Ctx) error {
	h.DB.Queries.Clear()
	return c.SendStatus(fiber.StatusOK)
}
