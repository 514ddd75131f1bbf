package database

import (
	"context"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// seedTables lists seeded tables children first, for TRUNCATE
var seedTables = []string{
	"wishlist_items",
	"member_transactions",
	"order_items",
	"orders",
	"inventory_transactions",
	"menu_items",
	"reservations",
	"members",
	"inventory_items",
	"categories",
}

// ClearData truncates every seeded table and resets identities
func (d *DB) ClearData(ctx context.Context) error {
	return d.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, table := range seedTables {
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate %s: %w", table, err)
			}
		}
		d.log.Info("  ✓ Cleared existing data")
		return nil
	})
}

// SeedData inserts the starter catalogue when the database is empty.
// With force set, existing data is truncated first.
func (d *DB) SeedData(ctx context.Context, force bool) error {
	if force {
		if err := d.ClearData(ctx); err != nil {
			return err
		}
	} else {
		var categoryCount, menuCount int64
		db := d.Conn(ctx)
		if err := db.Model(&models.Category{}).Count(&categoryCount).Error; err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if err := db.Model(&models.MenuItem{}).Count(&menuCount).Error; err != nil {
			return fmt.Errorf("failed to count menu items: %w", err)
		}
		if categoryCount > 0 || menuCount > 0 {
			d.log.Info("Database already has data. Skipping seed.")
			return nil
		}
	}

	d.log.Info("Database is empty. Starting seed process...")

	return d.WithTransaction(ctx, func(tx *gorm.DB) error {
		// 1. Categories
		if err := seedCategories(tx); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}

		// 2. Menu items
		if err := seedMenuItems(tx); err != nil {
			return fmt.Errorf("failed to seed menu items: %w", err)
		}

		// 3. Inventory
		if err := seedInventory(tx); err != nil {
			return fmt.Errorf("failed to seed inventory: %w", err)
		}

		// 4. Members
		if err := seedMembers(tx); err != nil {
			return fmt.Errorf("failed to seed members: %w", err)
		}

		d.log.Info("✅ Database seeded successfully!")
		return nil
	})
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCategories(tx *gorm.DB) error {
	categories := []models.Category{
		{Name: "Coffee", Description: "Espresso drinks and brewed coffee", SortOrder: 1},
		{Name: "Tea", Description: "Loose leaf teas and lattes", SortOrder: 2},
		{Name: "Pastries", Description: "Baked fresh every morning", SortOrder: 3},
		{Name: "Sandwiches", Description: "Breakfast and lunch", SortOrder: 4},
	}
	return tx.Create(&categories).Error
}

func seedMenuItems(tx *gorm.DB) error {
	items := []models.MenuItem{
		{Name: "Espresso", Price: money("3.00"), Category: "Coffee", Description: "Double shot", IsAvailable: true},
		{Name: "Cappuccino", Price: money("4.50"), Category: "Coffee", Description: "Espresso, steamed milk, foam", IsAvailable: true},
		{Name: "Caffe Latte", Price: money("4.75"), Category: "Coffee", Description: "Espresso with steamed milk", IsAvailable: true},
		{Name: "Cold Brew", Price: money("4.25"), Category: "Coffee", Description: "Steeped for 18 hours", IsAvailable: true},
		{Name: "Matcha Latte", Price: money("5.00"), Category: "Tea", Description: "Ceremonial grade matcha", IsAvailable: true},
		{Name: "Earl Grey", Price: money("3.00"), Category: "Tea", Description: "Bergamot black tea", IsAvailable: true},
		{Name: "Butter Croissant", Price: money("3.50"), Category: "Pastries", Description: "Laminated in house", IsAvailable: true},
		{Name: "Blueberry Muffin", Price: money("3.25"), Category: "Pastries", IsAvailable: true},
		{Name: "Turkey Club", Price: money("9.50"), Category: "Sandwiches", Description: "Turkey, bacon, lettuce, tomato", IsAvailable: true},
		{Name: "Avocado Toast", Price: money("6.00"), Category: "Sandwiches", Description: "Sourdough, chili flakes", IsAvailable: true},
	}
	return tx.Create(&items).Error
}

func seedInventory(tx *gorm.DB) error {
	items := []models.InventoryItem{
		{Name: "Espresso Beans", SKU: "BEAN-ESP-1KG", Category: "Coffee", CurrentStock: money("25"), MinimumStock: money("10"), Unit: "kg", CostPerUnit: money("18.50")},
		{Name: "Whole Milk", SKU: "MILK-WHL-1L", Category: "Dairy", CurrentStock: money("40"), MinimumStock: money("20"), Unit: "l", CostPerUnit: money("1.20")},
		{Name: "Oat Milk", SKU: "MILK-OAT-1L", Category: "Dairy", CurrentStock: money("8"), MinimumStock: money("12"), Unit: "l", CostPerUnit: money("2.40")},
		{Name: "Matcha Powder", SKU: "TEA-MAT-100G", Category: "Tea", CurrentStock: money("6"), MinimumStock: money("4"), Unit: "pack", CostPerUnit: money("12.00")},
		{Name: "Paper Cups 12oz", SKU: "CUP-12OZ", Category: "Supplies", CurrentStock: money("500"), MinimumStock: money("200"), Unit: "pcs", CostPerUnit: money("0.08")},
	}
	return tx.Create(&items).Error
}

func seedMembers(tx *gorm.DB) error {
	email := func(s string) *string { return &s }
	members := []models.Member{
		{Name: "Alice Nguyen", Email: email("alice@example.com"), Phone: email("0900000001"), MembershipLevel: models.LevelGold, Points: 1200, Balance: money("45.50")},
		{Name: "Bob Tran", Email: email("bob@example.com"), Phone: email("0900000002"), MembershipLevel: models.LevelBronze, Points: 80, Balance: money("0")},
		{Name: "Chi Le", Phone: email("0900000003"), MembershipLevel: models.LevelSilver, Points: 540, Balance: money("12.00")},
	}
	return tx.Create(&members).Error
}
