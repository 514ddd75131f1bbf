package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LittleGragon/coffee-shop-sub000/database/dbtest"
	"github.com/LittleGragon/coffee-shop-sub000/events"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuPriceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).
		AddRow(1, "Latte", "6.00", true).
		AddRow(2, "Croissant", "3.50", true).
		AddRow(3, "Espresso", "3.00", true)
}

func orderItemRow(id, menuItemID int, name, price string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "item_name", "quantity", "unit_price", "subtotal"}).
		AddRow(id, 42, menuItemID, name, 1, price, price)
}

func TestCreateOrderSnapshotsPricesAndTotals(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewOrderService(db, rec, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("SELECT id, name, price, is_available FROM menu_items WHERE id IN")).
		WithArgs(1, 2, 3).
		WillReturnRows(menuPriceRows())
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WithArgs(nil, "Walk-in", "", "takeout", "cash", money("12.5"), money("0"), money("12.5"), "pending", 0, 0, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_type", "payment_method", "subtotal", "discount_amount", "total_amount", "status"}).
			AddRow(42, "takeout", "cash", "12.50", "0.00", "12.50", "pending"))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).
		WithArgs(42, 1, "Latte", 1, money("6"), money("6"), "").
		WillReturnRows(orderItemRow(1, 1, "Latte", "6.00"))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).
		WithArgs(42, 2, "Croissant", 1, money("3.5"), money("3.5"), "").
		WillReturnRows(orderItemRow(2, 2, "Croissant", "3.50"))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).
		WithArgs(42, 3, "Espresso", 1, money("3"), money("3"), "extra hot").
		WillReturnRows(orderItemRow(3, 3, "Espresso", "3.00"))
	mock.ExpectCommit()

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		CustomerName: "Walk-in",
		OrderType:    models.OrderTakeout,
		Items: []OrderItemRequest{
			{MenuItemID: 1, Quantity: 1},
			{MenuItemID: 2, Quantity: 1},
			{MenuItemID: 3, Quantity: 1, SpecialInstructions: "extra hot"},
		},
	})
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(dec("12.5")))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Len(t, order.Items, 3)

	published := rec.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.OrderCreated, published[0].Type)
}

func TestCreateOrderRejectsUnknownMenuItem(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).AddRow(1, "Latte", "6.00", true))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: 1, Quantity: 1}, {MenuItemID: 9, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Unknown menu item: 9")
}

func TestCreateOrderRejectsUnavailableItem(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).AddRow(4, "Avocado Toast", "9.00", false))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateOrderRequest{Items: []OrderItemRequest{{MenuItemID: 4, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateOrderInsufficientBalanceRollsBack(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewOrderService(db, rec, logging.Discard())
	memberID := uint(7)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).AddRow(1, "Latte", "6.00", true))
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "total_amount", "status"}).AddRow(43, 7, "6.00", "pending"))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).
		WillReturnRows(orderItemRow(5, 1, "Latte", "6.00"))
	mock.ExpectExec(sqlLike("UPDATE members SET points = points - $1 + $2 WHERE id = $3 AND points >= $1")).
		WithArgs(0, 6, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlLike("UPDATE members SET balance = balance - $1 WHERE id = $2 AND balance >= $1")).
		WithArgs(money("6"), 7).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		MemberID:      &memberID,
		PaymentMethod: models.PaymentAccountBalance,
		Items:         []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, rec.Events())
}

func TestCreateOrderValidation(t *testing.T) {
	db, _ := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())

	_, err := svc.Create(context.Background(), CreateOrderRequest{})
	assert.EqualError(t, err, "Order must contain at least one item")

	_, err = svc.Create(context.Background(), CreateOrderRequest{
		PaymentMethod: models.PaymentAccountBalance,
		Items:         []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.EqualError(t, err, "Account balance payment requires a member")

	_, err = svc.Create(context.Background(), CreateOrderRequest{
		PaymentMethod: "bitcoin",
		Items:         []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOrderStatusRejectsBackwardMove(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM orders WHERE id = $1 FOR UPDATE")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(42, "ready"))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), 42, OrderStatusRequest{Status: models.OrderConfirmed})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateOrderStatusUnknownStatus(t *testing.T) {
	db, _ := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())

	_, err := svc.UpdateStatus(context.Background(), 42, OrderStatusRequest{Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelOrderRefundsAccountBalance(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewOrderService(db, rec, logging.Discard())

	orderCols := []string{"id", "member_id", "payment_method", "total_amount", "status", "points_earned", "points_used"}

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(42, 7, "account_balance", "12.50", "confirmed", 12, 0))
	mock.ExpectQuery(sqlLike("UPDATE orders SET status = $1 WHERE id = $2")).
		WithArgs("cancelled", 42).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(42, 7, "account_balance", "12.50", "cancelled", 12, 0))
	mock.ExpectExec(sqlLike("UPDATE members SET points = GREATEST(points - $1, 0) + $2 WHERE id = $3")).
		WithArgs(12, 0, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlLike("UPDATE members SET balance = balance + $1 WHERE id = $2 RETURNING balance")).
		WithArgs(money("12.5"), 7).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("30.00"))
	mock.ExpectQuery(sqlLike("INSERT INTO member_transactions")).
		WithArgs(7, "refund", money("12.5"), money("30"), "account_balance", 42, "Refund for cancelled order #42").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	order, err := svc.UpdateStatus(context.Background(), 42, OrderStatusRequest{Status: models.OrderCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)

	published := rec.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.OrderStatusChanged, published[0].Type)
}

func latteOnly() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).AddRow(1, "Latte", "6.00", true)
}

func TestCreateOrderRedeemsPoints(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())
	memberID := uint(7)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).WillReturnRows(latteOnly())
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WithArgs(7, "", "", "dine-in", "cash", money("6"), money("1.5"), money("4.5"), "pending", 4, 150, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "subtotal", "discount_amount", "total_amount", "points_earned", "points_used"}).
			AddRow(44, 7, "6.00", "1.50", "4.50", 4, 150))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).WillReturnRows(orderItemRow(6, 1, "Latte", "6.00"))
	mock.ExpectExec(sqlLike("UPDATE members SET points = points - $1 + $2 WHERE id = $3 AND points >= $1")).
		WithArgs(150, 4, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		MemberID:   &memberID,
		PointsUsed: 150,
		Items:      []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, order.DiscountAmount.Equal(dec("1.5")))
	assert.True(t, order.TotalAmount.Equal(dec("4.5")))
	assert.Equal(t, 4, order.PointsEarned)
}

func TestCreateOrderCapsRedemptionAtSubtotal(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())
	memberID := uint(7)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).WillReturnRows(latteOnly())
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WithArgs(7, "", "", "dine-in", "account_balance", money("6"), money("6"), money("0"), "pending", 0, 600, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "payment_method", "subtotal", "discount_amount", "total_amount", "points_used"}).
			AddRow(45, 7, "account_balance", "6.00", "6.00", "0.00", 600))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).WillReturnRows(orderItemRow(7, 1, "Latte", "6.00"))
	mock.ExpectExec(sqlLike("UPDATE members SET points = points - $1 + $2")).
		WithArgs(600, 0, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Nothing is left to pay, so the balance is not touched
	mock.ExpectCommit()

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		MemberID:      &memberID,
		PaymentMethod: models.PaymentAccountBalance,
		PointsUsed:    1000,
		Items:         []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, 600, order.PointsUsed)
}

func TestCreateOrderInsufficientPoints(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewOrderService(db, rec, logging.Discard())
	memberID := uint(7)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).WillReturnRows(latteOnly())
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id"}).AddRow(46, 7))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).WillReturnRows(orderItemRow(8, 1, "Latte", "6.00"))
	mock.ExpectExec(sqlLike("UPDATE members SET points = points - $1 + $2")).
		WithArgs(200, 4, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(sqlLike("SELECT COUNT(*) FROM members WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		MemberID:   &memberID,
		PointsUsed: 200,
		Items:      []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, rec.Events())
}

func TestCreateOrderPointsForMissingMember(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())
	memberID := uint(404)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).WillReturnRows(latteOnly())
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id"}).AddRow(47, 404))
	mock.ExpectQuery(sqlLike("INSERT INTO order_items")).WillReturnRows(orderItemRow(9, 1, "Latte", "6.00"))
	mock.ExpectExec(sqlLike("UPDATE members SET points = points - $1 + $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(sqlLike("SELECT COUNT(*) FROM members WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		MemberID:   &memberID,
		PointsUsed: 10,
		Items:      []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Member not found")
}

func TestCreateOrderUnknownMemberOnInsert(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())
	memberID := uint(404)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FROM menu_items WHERE id IN")).WillReturnRows(latteOnly())
	mock.ExpectQuery(sqlLike("INSERT INTO orders")).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		MemberID: &memberID,
		Items:    []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemablePoints(t *testing.T) {
	assert.Equal(t, 150, redeemablePoints(150, dec("6.00")))
	assert.Equal(t, 600, redeemablePoints(1000, dec("6.00")))
	assert.Equal(t, 1250, redeemablePoints(5000, dec("12.50")))
	assert.Equal(t, 0, redeemablePoints(0, dec("3.00")))
}

func TestRedeemingPointsRequiresMember(t *testing.T) {
	db, _ := dbtest.New(t)
	svc := NewOrderService(db, events.Nop{}, logging.Discard())

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		PointsUsed: 10,
		Items:      []OrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.EqualError(t, err, "Only members can redeem points")
}
