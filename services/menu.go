package services

import (
	"context"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const menuColumns = "id, name, price, category, description, image_url, is_available, created_at, updated_at"

// MenuItemRequest is the body of menu item create and update
type MenuItemRequest struct {
	Name        string           `json:"name" validate:"max=150"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category" validate:"max=100"`
	Description string           `json:"description" validate:"max=2000"`
	ImageURL    string           `json:"image_url" validate:"max=500"`
	IsAvailable *bool            `json:"is_available"`
}

func (r *MenuItemRequest) validate() error {
	trimmed(&r.Name)
	trimmed(&r.Category)
	if r.Name == "" || r.Price == nil || r.Category == "" {
		return Invalid("Name, price, and category are required")
	}
	if r.Price.IsNegative() || !validMoney(*r.Price) {
		return Invalid("Price must be a non-negative amount with at most two decimals")
	}
	return validateStruct(r, "Invalid menu item")
}

// MenuFilter narrows menu listings. Zero values match everything.
type MenuFilter struct {
	Category  string
	Available *bool
	Search    string
}

// MenuService manages menu items
type MenuService struct {
	db  *database.DB
	log *logrus.Entry
}

// NewMenuService creates a MenuService
func NewMenuService(db *database.DB, log logrus.FieldLogger) *MenuService {
	return &MenuService{db: db, log: logging.Component(log, "menu_service")}
}

// List returns menu items matching f, ordered by category then name
func (s *MenuService) List(ctx context.Context, f MenuFilter) ([]models.MenuItem, error) {
	query := "SELECT " + menuColumns + " FROM menu_items WHERE 1=1"
	args := []interface{}{}

	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Available != nil {
		query += " AND is_available = ?"
		args = append(args, *f.Available)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query += " AND (name ILIKE ? OR description ILIKE ?)"
		args = append(args, like, like)
	}
	query += " ORDER BY category, name, id"

	items := []models.MenuItem{}
	if err := s.db.Conn(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

// Get returns one menu item
func (s *MenuService) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	res := s.db.Conn(ctx).Raw("SELECT "+menuColumns+" FROM menu_items WHERE id = $1", id).Scan(&item)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Menu item")
	}
	return &item, nil
}

// Create adds a menu item. Items are available unless the request says otherwise.
func (s *MenuService) Create(ctx context.Context, req MenuItemRequest) (*models.MenuItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	var item models.MenuItem
	err := s.db.Conn(ctx).Raw(`
		INSERT INTO menu_items (name, price, category, description, image_url, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+menuColumns,
		req.Name, *req.Price, req.Category, req.Description, req.ImageURL, available,
	).Scan(&item).Error
	if err != nil {
		if isForeignKey(err) {
			return nil, Invalid("Unknown category: " + req.Category)
		}
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}

	s.log.WithFields(logrus.Fields{"menu_item_id": item.ID, "name": item.Name}).Info("Menu item created")
	return &item, nil
}

// Update replaces a menu item's fields. A missing is_available keeps the current value.
func (s *MenuService) Update(ctx context.Context, id uint, req MenuItemRequest) (*models.MenuItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var item models.MenuItem
	res := s.db.Conn(ctx).Raw(`
		UPDATE menu_items
		SET name = $1, price = $2, category = $3, description = $4, image_url = $5,
			is_available = COALESCE($6, is_available)
		WHERE id = $7
		RETURNING `+menuColumns,
		req.Name, *req.Price, req.Category, req.Description, req.ImageURL, req.IsAvailable, id,
	).Scan(&item)
	if res.Error != nil {
		if isForeignKey(res.Error) {
			return nil, Invalid("Unknown category: " + req.Category)
		}
		return nil, fmt.Errorf("failed to update menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Menu item")
	}
	return &item, nil
}

// SetAvailability sets is_available, or flips it when available is nil
func (s *MenuService) SetAvailability(ctx context.Context, id uint, available *bool) (*models.MenuItem, error) {
	db := s.db.Conn(ctx)

	var item models.MenuItem
	var res *gorm.DB
	if available == nil {
		res = db.Raw("UPDATE menu_items SET is_available = NOT is_available WHERE id = $1 RETURNING "+menuColumns, id).Scan(&item)
	} else {
		res = db.Raw("UPDATE menu_items SET is_available = $1 WHERE id = $2 RETURNING "+menuColumns, *available, id).Scan(&item)
	}
	if res.Error != nil {
		return nil, fmt.Errorf("failed to change availability: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Menu item")
	}
	return &item, nil
}

// Delete removes a menu item that no order references
func (s *MenuService) Delete(ctx context.Context, id uint) error {
	res := s.db.Conn(ctx).Exec("DELETE FROM menu_items WHERE id = $1", id)
	if res.Error != nil {
		if isForeignKey(res.Error) {
			return Conflict("Menu item is referenced by existing orders")
		}
		return fmt.Errorf("failed to delete menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("Menu item")
	}
	return nil
}
