package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/models"
	"gorm.io/gorm"
)

//go:embed triggers.sql
var triggersSQL string

// foreignKey describes one constraint added after the tables exist
type foreignKey struct {
	table     string
	name      string
	column    string
	refTable  string
	refColumn string
	onDelete  string
	onUpdate  string
}

var foreignKeys = []foreignKey{
	{"menu_items", "fk_menu_items_category", "category", "categories", "name", "RESTRICT", "CASCADE"},
	{"inventory_transactions", "fk_inventory_transactions_item", "inventory_item_id", "inventory_items", "id", "CASCADE", "NO ACTION"},
	{"orders", "fk_orders_member", "member_id", "members", "id", "SET NULL", "NO ACTION"},
	{"order_items", "fk_order_items_order", "order_id", "orders", "id", "CASCADE", "NO ACTION"},
	{"order_items", "fk_order_items_menu_item", "menu_item_id", "menu_items", "id", "RESTRICT", "NO ACTION"},
	{"member_transactions", "fk_member_transactions_member", "member_id", "members", "id", "CASCADE", "NO ACTION"},
	{"member_transactions", "fk_member_transactions_order", "order_id", "orders", "id", "SET NULL", "NO ACTION"},
	{"wishlist_items", "fk_wishlist_items_menu_item", "menu_item_id", "menu_items", "id", "CASCADE", "NO ACTION"},
}

var customConstraints = []struct {
	name  string
	query string
}{
	{"chk_inventory_transactions_type", "ALTER TABLE inventory_transactions ADD CONSTRAINT chk_inventory_transactions_type CHECK (transaction_type IN ('restock','usage','waste','adjustment'))"},
	{"chk_member_transactions_type", "ALTER TABLE member_transactions ADD CONSTRAINT chk_member_transactions_type CHECK (transaction_type IN ('topup','purchase','refund'))"},
	{"chk_orders_status", "ALTER TABLE orders ADD CONSTRAINT chk_orders_status CHECK (status IN ('pending','confirmed','preparing','ready','completed','cancelled'))"},
	{"chk_orders_type", "ALTER TABLE orders ADD CONSTRAINT chk_orders_type CHECK (order_type IN ('dine-in','takeout','delivery'))"},
	{"chk_reservations_status", "ALTER TABLE reservations ADD CONSTRAINT chk_reservations_status CHECK (status IN ('pending','confirmed','cancelled','completed','no-show'))"},
	{"chk_members_level", "ALTER TABLE members ADD CONSTRAINT chk_members_level CHECK (membership_level IN ('bronze','silver','gold','platinum'))"},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_member_transactions_created ON member_transactions(member_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_inventory_transactions_created ON inventory_transactions(inventory_item_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_reservations_status_time ON reservations(status, reservation_time)",
	"CREATE INDEX IF NOT EXISTS idx_inventory_items_low_stock ON inventory_items((current_stock - minimum_stock))",
}

// AutoMigrate creates every table, then adds foreign keys, checks, indexes and triggers.
// Steps after table creation are idempotent and log failures instead of aborting.
func (d *DB) AutoMigrate(ctx context.Context) error {
	d.log.Info("Starting GORM AutoMigrate...")
	db := d.Conn(ctx)

	// First pass: create tables without foreign keys
	migrator := db.Migrator()
	for _, model := range models.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		tableName := stmt.Schema.Table

		if migrator.HasTable(model) {
			if err := migrator.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to update table %s: %w", tableName, err)
			}
			d.log.Debugf("  ✓ Table already exists: %s", tableName)
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
		d.log.Infof("  ✓ Created table: %s", tableName)
	}

	d.createForeignKeys(db)
	d.addCustomConstraints(db)
	d.createIndexes(db)

	if err := db.Exec(triggersSQL).Error; err != nil {
		d.log.WithError(err).Warn("  ⚠ Failed to create triggers")
	} else {
		d.log.Info("  ✓ Created updated_at triggers")
	}

	d.log.Info("GORM AutoMigrate completed successfully")
	return nil
}

func (d *DB) createForeignKeys(db *gorm.DB) {
	for _, fk := range foreignKeys {
		// Check if foreign key already exists
		var count int64
		db.Raw(`
			SELECT COUNT(*) FROM information_schema.table_constraints
			WHERE constraint_type = 'FOREIGN KEY'
			AND table_schema = current_schema()
			AND table_name = ?
			AND constraint_name = ?
		`, fk.table, fk.name).Scan(&count)

		if count > 0 {
			d.log.Debugf("  ✓ Foreign key already exists: %s", fk.name)
			continue
		}

		query := fmt.Sprintf(
			"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s",
			fk.table, fk.name, fk.column, fk.refTable, fk.refColumn, fk.onDelete, fk.onUpdate,
		)
		if err := db.Exec(query).Error; err != nil {
			d.log.WithError(err).Warnf("  ⚠ Failed to create foreign key %s", fk.name)
			continue
		}
		d.log.Infof("  ✓ Created foreign key: %s", fk.name)
	}
}

func (d *DB) addCustomConstraints(db *gorm.DB) {
	for _, c := range customConstraints {
		var count int64
		db.Raw("SELECT COUNT(*) FROM pg_constraint WHERE conname = ?", c.name).Scan(&count)
		if count > 0 {
			continue
		}
		if err := db.Exec(c.query).Error; err != nil {
			d.log.WithError(err).Warnf("  ⚠ Failed to add constraint %s", c.name)
			continue
		}
		d.log.Infof("  ✓ Added constraint: %s", c.name)
	}
}

func (d *DB) createIndexes(db *gorm.DB) {
	created := 0
	for _, query := range indexes {
		if err := db.Exec(query).Error; err != nil {
			d.log.WithError(err).Warnf("  ⚠ Failed to create index: %s", query)
			continue
		}
		created++
	}
	d.log.Infof("Ensured %d indexes", created)
}

// DropAll drops every application table. Used by `migrate --drop`.
func (d *DB) DropAll(ctx context.Context) error {
	all := models.AllModels()
	migrator := d.Conn(ctx).Migrator()
	// Children first
	for i := len(all) - 1; i >= 0; i-- {
		if err := migrator.DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop %T: %w", all[i], err)
		}
	}
	return nil
}
