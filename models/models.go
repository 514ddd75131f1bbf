package models

// AllModels returns all model structs for auto-migration
// IMPORTANT: Order matters! Parent tables must be created before child tables
func AllModels() []interface{} {
	return []interface{}{
		// 1. Independent tables
		&Category{},
		&InventoryItem{},
		&Member{},
		&Reservation{},

		// 2. Tables with single dependencies
		&MenuItem{},             // depends on: Category (by name)
		&InventoryTransaction{}, // depends on: InventoryItem
		&Order{},                // depends on: Member

		// 3. Detail/junction tables
		&OrderItem{},         // depends on: Order, MenuItem
		&MemberTransaction{}, // depends on: Member, Order
		&WishlistItem{},      // depends on: MenuItem
	}
}
