package services

import (
	"context"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/sirupsen/logrus"
)

// WishlistRequest adds a menu item to a user's wishlist
type WishlistRequest struct {
	UserID     string `json:"user_id" validate:"max=100"`
	MenuItemID uint   `json:"menu_item_id"`
}

func (r *WishlistRequest) validate() error {
	trimmed(&r.UserID)
	if r.UserID == "" || r.MenuItemID == 0 {
		return Invalid("User ID and menu item ID are required")
	}
	return validateStruct(r, "Invalid wishlist item")
}

// WishlistService keeps per-user favourite menu items
type WishlistService struct {
	db  *database.DB
	log *logrus.Entry
}

// NewWishlistService creates a WishlistService
func NewWishlistService(db *database.DB, log logrus.FieldLogger) *WishlistService {
	return &WishlistService{db: db, log: logging.Component(log, "wishlist_service")}
}

// List returns the user's wishlist with menu item details, newest first
func (s *WishlistService) List(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	if userID == "" {
		return nil, Invalid("User ID is required")
	}

	items := []models.WishlistItem{}
	err := s.db.Conn(ctx).Raw(`
		SELECT w.id, w.user_id, w.menu_item_id, w.created_at,
			m.name, m.price, m.category, m.image_url, m.is_available
		FROM wishlist_items w
		JOIN menu_items m ON m.id = w.menu_item_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
	`, userID).Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}

// Add puts a menu item on the user's wishlist
func (s *WishlistService) Add(ctx context.Context, req WishlistRequest) (*models.WishlistItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var item models.WishlistItem
	err := s.db.Conn(ctx).Raw(`
		INSERT INTO wishlist_items (user_id, menu_item_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, user_id, menu_item_id, created_at
	`, req.UserID, req.MenuItemID).Scan(&item).Error
	if err != nil {
		if isDuplicate(err) {
			return nil, Conflict("Item is already in the wishlist")
		}
		if isForeignKey(err) {
			return nil, NotFound("Menu item")
		}
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return &item, nil
}

// Remove takes a menu item off the user's wishlist
func (s *WishlistService) Remove(ctx context.Context, userID string, menuItemID uint) error {
	if userID == "" {
		return Invalid("User ID is required")
	}
	res := s.db.Conn(ctx).Exec("DELETE FROM wishlist_items WHERE user_id = $1 AND menu_item_id = $2", userID, menuItemID)
	if res.Error != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("Wishlist item")
	}
	return nil
}

// Popular returns the most wished-for menu items
func (s *WishlistService) Popular(ctx context.Context, limit int) ([]models.PopularItem, error) {
	items := []models.PopularItem{}
	err := s.db.Conn(ctx).Raw(`
		SELECT m.id AS menu_item_id, m.name, m.category, m.price, COUNT(w.id) AS wishlist_count
		FROM wishlist_items w
		JOIN menu_items m ON m.id = w.menu_item_id
		GROUP BY m.id, m.name, m.category, m.price
		ORDER BY wishlist_count DESC, m.name
		LIMIT $1
	`, clampLimit(limit, 10, 100)).Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list popular items: %w", err)
	}
	return items, nil
}
