package services

import (
	"context"
	"fmt"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/events"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/metrics"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	orderColumns = "id, member_id, customer_name, customer_phone, order_type, payment_method, subtotal, discount_amount, " +
		"total_amount, status, points_earned, points_used, notes, created_at, updated_at"
	orderItemColumns  = "id, order_id, menu_item_id, item_name, quantity, unit_price, subtotal, special_instructions, created_at"
	defaultOrderLimit = 50
	maxOrderLimit     = 200
)

// pointValue is the discount one loyalty point buys
var pointValue = decimal.New(1, -2)

// OrderItemRequest is one line of a new order
type OrderItemRequest struct {
	MenuItemID          uint   `json:"menu_item_id" validate:"required"`
	Quantity            int    `json:"quantity" validate:"min=1,max=100"`
	SpecialInstructions string `json:"special_instructions" validate:"max=500"`
}

// CreateOrderRequest is the single contract for placing an order. Prices are
// never taken from the client; they are read from the menu when the order is placed.
type CreateOrderRequest struct {
	MemberID      *uint                `json:"member_id"`
	CustomerName  string               `json:"customer_name" validate:"max=100"`
	CustomerPhone string               `json:"customer_phone" validate:"max=20"`
	OrderType     models.OrderType     `json:"order_type" validate:"omitempty,oneof=dine-in takeout delivery"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=cash card account_balance"`
	PointsUsed    int                  `json:"points_used" validate:"min=0"`
	Notes         string               `json:"notes" validate:"max=1000"`
	Items         []OrderItemRequest   `json:"items" validate:"dive"`
}

func (r *CreateOrderRequest) validate() error {
	trimmed(&r.CustomerName)
	trimmed(&r.CustomerPhone)
	if len(r.Items) == 0 {
		return Invalid("Order must contain at least one item")
	}
	if r.OrderType == "" {
		r.OrderType = models.OrderDineIn
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = models.PaymentCash
	}
	if err := validateStruct(r, "Invalid order"); err != nil {
		return err
	}
	if r.MemberID == nil {
		if r.PaymentMethod == models.PaymentAccountBalance {
			return Invalid("Account balance payment requires a member")
		}
		if r.PointsUsed > 0 {
			return Invalid("Only members can redeem points")
		}
	}
	return nil
}

// OrderStatusRequest is the body of a status change
type OrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status   string
	MemberID *uint
	Limit    int
}

// OrderService places orders and moves them through their lifecycle
type OrderService struct {
	db     *database.DB
	events events.Publisher
	log    *logrus.Entry
}

// NewOrderService creates an OrderService
func NewOrderService(db *database.DB, publisher events.Publisher, log logrus.FieldLogger) *OrderService {
	return &OrderService{db: db, events: publisher, log: logging.Component(log, "order_service")}
}

// List returns orders newest first, without their items
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE 1=1"
	args := []interface{}{}
	if f.Status != "" {
		if !models.OrderStatus(f.Status).Valid() {
			return nil, Invalid("Unknown order status: " + f.Status)
		}
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.MemberID != nil {
		query += " AND member_id = ?"
		args = append(args, *f.MemberID)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, clampLimit(f.Limit, defaultOrderLimit, maxOrderLimit))

	orders := []models.Order{}
	if err := s.db.Conn(ctx).Raw(query, args...).Scan(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get returns an order with its items
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	db := s.db.Conn(ctx)

	var order models.Order
	res := db.Raw("SELECT "+orderColumns+" FROM orders WHERE id = $1", id).Scan(&order)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Order")
	}

	order.Items = []models.OrderItem{}
	err := db.Raw("SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", id).Scan(&order.Items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return &order, nil
}

// Create places an order. In one transaction it snapshots menu prices,
// inserts the order and its items, settles the member's points and, for
// account_balance payments, debits the balance and writes the ledger entry.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		lines, err := priceLines(tx, req.Items)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, line := range lines {
			subtotal = subtotal.Add(line.Subtotal)
		}
		pointsUsed := redeemablePoints(req.PointsUsed, subtotal)
		discount := pointValue.Mul(decimal.NewFromInt(int64(pointsUsed)))
		total := subtotal.Sub(discount)

		pointsEarned := 0
		if req.MemberID != nil {
			pointsEarned = int(total.Floor().IntPart())
		}

		err = tx.Raw(`
			INSERT INTO orders (member_id, customer_name, customer_phone, order_type, payment_method, subtotal,
				discount_amount, total_amount, status, points_earned, points_used, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			RETURNING `+orderColumns,
			req.MemberID, req.CustomerName, req.CustomerPhone, req.OrderType, req.PaymentMethod, subtotal,
			discount, total, models.OrderPending, pointsEarned, pointsUsed, req.Notes,
		).Scan(&order).Error
		if err != nil {
			if isForeignKey(err) {
				return NotFound("Member")
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		order.Items = make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			item := line
			item.OrderID = order.ID
			err := tx.Raw(`
				INSERT INTO order_items (order_id, menu_item_id, item_name, quantity, unit_price, subtotal, special_instructions, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				RETURNING `+orderItemColumns,
				item.OrderID, item.MenuItemID, item.ItemName, item.Quantity, item.UnitPrice, item.Subtotal, item.SpecialInstructions,
			).Scan(&item).Error
			if err != nil {
				return fmt.Errorf("failed to add order item: %w", err)
			}
			order.Items = append(order.Items, item)
		}

		if req.MemberID == nil {
			return nil
		}
		if err := settlePoints(tx, *req.MemberID, pointsUsed, pointsEarned); err != nil {
			return err
		}
		if req.PaymentMethod != models.PaymentAccountBalance || !total.IsPositive() {
			return nil
		}

		balance, err := debitBalance(tx, *req.MemberID, total)
		if err != nil {
			return err
		}
		orderID := order.ID
		return insertLedgerEntry(tx, &models.MemberTransaction{
			MemberID:        *req.MemberID,
			TransactionType: models.MemberPurchase,
			Amount:          total,
			BalanceAfter:    balance,
			PaymentMethod:   string(models.PaymentAccountBalance),
			OrderID:         &orderID,
			Description:     fmt.Sprintf("Order #%d", orderID),
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOrder(string(order.OrderType), string(order.PaymentMethod), order.TotalAmount.InexactFloat64())
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.TotalAmount.String(),
	}).Info("Order placed")
	s.publish(ctx, events.New(events.OrderCreated, order))
	return &order, nil
}

// priceLines snapshots name and price of every requested menu item
func priceLines(tx *gorm.DB, items []OrderItemRequest) ([]models.OrderItem, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MenuItemID)
	}

	var menu []models.MenuItem
	if err := tx.Raw("SELECT id, name, price, is_available FROM menu_items WHERE id IN ?", ids).Scan(&menu).Error; err != nil {
		return nil, fmt.Errorf("failed to load menu prices: %w", err)
	}
	byID := make(map[uint]models.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	lines := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		m, ok := byID[it.MenuItemID]
		if !ok {
			return nil, Invalid(fmt.Sprintf("Unknown menu item: %d", it.MenuItemID))
		}
		if !m.IsAvailable {
			return nil, Conflict("%s is currently unavailable", m.Name)
		}
		lines = append(lines, models.OrderItem{
			MenuItemID:          m.ID,
			ItemName:            m.Name,
			Quantity:            it.Quantity,
			UnitPrice:           m.Price,
			Subtotal:            m.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return lines, nil
}

// redeemablePoints caps a redemption so the discount never exceeds the subtotal
func redeemablePoints(requested int, subtotal decimal.Decimal) int {
	limit := subtotal.Div(pointValue).Floor().IntPart()
	if int64(requested) > limit {
		return int(limit)
	}
	return requested
}

// settlePoints redeems used points and credits earned ones in one statement.
// Redemption needs enough points on the account.
func settlePoints(tx *gorm.DB, memberID uint, used, earned int) error {
	res := tx.Exec(
		"UPDATE members SET points = points - $1 + $2 WHERE id = $3 AND points >= $1",
		used, earned, memberID,
	)
	if res.Error != nil {
		return fmt.Errorf("failed to update member points: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Raw("SELECT COUNT(*) FROM members WHERE id = $1", memberID).Scan(&count).Error; err != nil {
		return fmt.Errorf("failed to check member: %w", err)
	}
	if count == 0 {
		return NotFound("Member")
	}
	return ErrInsufficientPoints
}

// UpdateStatus moves an order to a new status. Cancelling reverses the
// member's points and refunds an account_balance payment in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, req OrderStatusRequest) (*models.Order, error) {
	if !req.Status.Valid() {
		return nil, Invalid("Invalid status. Allowed: pending, confirmed, preparing, ready, completed, cancelled")
	}

	var order models.Order
	var previous models.OrderStatus
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var current models.Order
		res := tx.Raw("SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id).Scan(&current)
		if res.Error != nil {
			return fmt.Errorf("failed to load order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return NotFound("Order")
		}
		previous = current.Status
		if !current.Status.CanTransitionTo(req.Status) {
			return Conflict("Cannot change order status from %s to %s", current.Status, req.Status)
		}

		if err := tx.Raw("UPDATE orders SET status = $1 WHERE id = $2 RETURNING "+orderColumns, req.Status, id).Scan(&order).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if req.Status != models.OrderCancelled || current.MemberID == nil {
			return nil
		}
		return reverseMemberEffects(tx, &current)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": id, "from": previous, "to": order.Status}).Info("Order status changed")
	s.publish(ctx, events.New(events.OrderStatusChanged, map[string]interface{}{
		"order_id": order.ID,
		"from":     previous,
		"to":       order.Status,
	}))
	return &order, nil
}

// reverseMemberEffects undoes what placing the order did to the member account
func reverseMemberEffects(tx *gorm.DB, order *models.Order) error {
	memberID := *order.MemberID
	err := tx.Exec(
		"UPDATE members SET points = GREATEST(points - $1, 0) + $2 WHERE id = $3",
		order.PointsEarned, order.PointsUsed, memberID,
	).Error
	if err != nil {
		return fmt.Errorf("failed to reverse member points: %w", err)
	}

	if order.PaymentMethod != models.PaymentAccountBalance || !order.TotalAmount.IsPositive() {
		return nil
	}
	balance, found, err := adjustBalance(tx, memberID, order.TotalAmount)
	if err != nil || !found {
		return err
	}
	orderID := order.ID
	return insertLedgerEntry(tx, &models.MemberTransaction{
		MemberID:        memberID,
		TransactionType: models.MemberRefund,
		Amount:          order.TotalAmount,
		BalanceAfter:    balance,
		PaymentMethod:   string(models.PaymentAccountBalance),
		OrderID:         &orderID,
		Description:     fmt.Sprintf("Refund for cancelled order #%d", orderID),
	})
}

func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithField("event", e.Type).Warn("Failed to publish event")
	}
}
