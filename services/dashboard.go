package services

import (
	"context"
	"fmt"
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/shopspring/decimal"
)

// DashboardStats are the headline numbers of the admin page
type DashboardStats struct {
	MenuItems            int64           `json:"menu_items"`
	Members              int64           `json:"members"`
	OpenOrders           int64           `json:"open_orders"`
	TodayOrders          int64           `json:"today_orders"`
	TodayRevenue         decimal.Decimal `json:"today_revenue"`
	UpcomingReservations int64           `json:"upcoming_reservations"`
}

// Dashboard is everything the admin page shows
type Dashboard struct {
	Stats        DashboardStats         `json:"stats"`
	LowStock     []models.InventoryItem `json:"low_stock"`
	RecentOrders []models.Order         `json:"recent_orders"`
}

// DashboardService gathers the admin overview
type DashboardService struct {
	db  *database.DB
	now func() time.Time
}

// NewDashboardService creates a DashboardService
func NewDashboardService(db *database.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// Load reads the overview in one pass of read-only queries
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	db := s.db.Conn(ctx)
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var d Dashboard
	err := db.Raw(`
		SELECT
			(SELECT COUNT(*) FROM menu_items) AS menu_items,
			(SELECT COUNT(*) FROM members) AS members,
			(SELECT COUNT(*) FROM orders WHERE status IN ('pending', 'confirmed', 'preparing', 'ready')) AS open_orders,
			(SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND status <> 'cancelled') AS today_orders,
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE created_at >= $1 AND status <> 'cancelled') AS today_revenue,
			(SELECT COUNT(*) FROM reservations WHERE reservation_time >= $2 AND status IN ('pending', 'confirmed')) AS upcoming_reservations
	`, dayStart, now).Scan(&d.Stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	d.LowStock = []models.InventoryItem{}
	err = db.Raw(`
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE current_stock <= minimum_stock
		ORDER BY current_stock / NULLIF(minimum_stock, 0) NULLS FIRST, name
		LIMIT 10
	`).Scan(&d.LowStock).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock items: %w", err)
	}

	d.RecentOrders = []models.Order{}
	err = db.Raw("SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id DESC LIMIT 10").Scan(&d.RecentOrders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	return &d, nil
}
