package services

import (
	"context"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/sirupsen/logrus"
)

const categoryColumns = "id, name, description, sort_order, created_at, updated_at"

// CategoryRequest is the body of category create and update
type CategoryRequest struct {
	Name        string `json:"name" validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
	SortOrder   int    `json:"sort_order" validate:"min=0"`
}

func (r *CategoryRequest) validate() error {
	trimmed(&r.Name)
	if r.Name == "" {
		return Invalid("Category name is required")
	}
	return validateStruct(r, "Invalid category")
}

// CategoryService manages menu categories
type CategoryService struct {
	db  *database.DB
	log *logrus.Entry
}

// NewCategoryService creates a CategoryService
func NewCategoryService(db *database.DB, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{db: db, log: logging.Component(log, "category_service")}
}

// List returns every category with the number of menu items in it
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.Conn(ctx).Raw(`
		SELECT c.id, c.name, c.description, c.sort_order, c.created_at, c.updated_at,
			COUNT(m.id) AS item_count
		FROM categories c
		LEFT JOIN menu_items m ON m.category = c.name
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`).Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create adds a category
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var category models.Category
	err := s.db.Conn(ctx).Raw(`
		INSERT INTO categories (name, description, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING `+categoryColumns,
		req.Name, req.Description, req.SortOrder,
	).Scan(&category).Error
	if err != nil {
		if isDuplicate(err) {
			return nil, Conflict("A category named %q already exists", req.Name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.log.WithField("category", category.Name).Info("Category created")
	return &category, nil
}

// Update renames or re-describes a category. Menu items follow a rename.
func (s *CategoryService) Update(ctx context.Context, id uint, req CategoryRequest) (*models.Category, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var category models.Category
	res := s.db.Conn(ctx).Raw(`
		UPDATE categories SET name = $1, description = $2, sort_order = $3
		WHERE id = $4
		RETURNING `+categoryColumns,
		req.Name, req.Description, req.SortOrder, id,
	).Scan(&category)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return nil, Conflict("A category named %q already exists", req.Name)
		}
		return nil, fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Category")
	}
	return &category, nil
}

// Delete removes a category that no menu item uses
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	db := s.db.Conn(ctx)

	var inUse int64
	err := db.Raw(`
		SELECT COUNT(*) FROM menu_items m
		JOIN categories c ON c.name = m.category
		WHERE c.id = $1
	`, id).Scan(&inUse).Error
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if inUse > 0 {
		return Conflict("Category is in use by %d menu items", inUse)
	}

	res := db.Exec("DELETE FROM categories WHERE id = $1", id)
	if res.Error != nil {
		if isForeignKey(res.Error) {
			return Conflict("Category is in use by menu items")
		}
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("Category")
	}
	return nil
}
