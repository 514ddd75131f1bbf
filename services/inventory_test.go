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

var itemCols = []string{"id", "name", "sku", "category", "current_stock", "minimum_stock", "unit", "cost_per_unit"}

func TestRestockAddsQuantity(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewInventoryService(db, rec, logging.Discard())
	qty := dec("5")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("SET current_stock = current_stock + $1, cost_per_unit = COALESCE($2, cost_per_unit)")).
		WithArgs(money("5"), nil, 1).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "Whole milk", "MILK-1L", "dairy", "15.00", "4.00", "l", "1.20"))
	mock.ExpectQuery(sqlLike("INSERT INTO inventory_transactions")).
		WithArgs(1, "restock", money("5"), money("15"), nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inventory_item_id", "transaction_type", "quantity", "stock_after"}).
			AddRow(8, 1, "restock", "5.00", "15.00"))
	mock.ExpectCommit()

	move, err := svc.RecordTransaction(context.Background(), 1, StockMovementRequest{
		TransactionType: models.InventoryRestock,
		Quantity:        &qty,
	})
	require.NoError(t, err)
	assert.True(t, move.Item.CurrentStock.Equal(dec("15")))
	assert.True(t, move.Transaction.StockAfter.Equal(dec("15")))
	assert.Empty(t, rec.Events())
}

func TestUsageSubtractsAndReportsLowStock(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewInventoryService(db, rec, logging.Discard())
	qty := dec("7")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("SET current_stock = current_stock - $1 WHERE id = $2 AND current_stock >= $1")).
		WithArgs(money("7"), 1).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "Whole milk", "MILK-1L", "dairy", "3.00", "4.00", "l", "1.20"))
	mock.ExpectQuery(sqlLike("INSERT INTO inventory_transactions")).
		WithArgs(1, "usage", money("7"), money("3"), nil, "morning rush").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_type", "stock_after"}).AddRow(9, "usage", "3.00"))
	mock.ExpectCommit()

	move, err := svc.RecordTransaction(context.Background(), 1, StockMovementRequest{
		TransactionType: models.InventoryUsage,
		Quantity:        &qty,
		Notes:           "morning rush",
	})
	require.NoError(t, err)
	assert.True(t, move.Item.CurrentStock.Equal(dec("3")))

	published := rec.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.InventoryLowStock, published[0].Type)
}

func TestUsageOnAlreadyLowItemPublishesNothing(t *testing.T) {
	db, mock := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewInventoryService(db, rec, logging.Discard())
	qty := dec("1")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("SET current_stock = current_stock - $1")).
		WithArgs(money("1"), 1).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "Whole milk", "MILK-1L", "dairy", "2.00", "4.00", "l", "1.20"))
	mock.ExpectQuery(sqlLike("INSERT INTO inventory_transactions")).
		WithArgs(1, "usage", money("1"), money("2"), nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_type", "stock_after"}).AddRow(10, "usage", "2.00"))
	mock.ExpectCommit()

	move, err := svc.RecordTransaction(context.Background(), 1, StockMovementRequest{
		TransactionType: models.InventoryUsage,
		Quantity:        &qty,
	})
	require.NoError(t, err)
	assert.True(t, move.Item.IsLowStock())
	assert.Empty(t, rec.Events())
}

func TestUsageLandingExactlyOnMinimumIsLow(t *testing.T) {
	move := StockMovementRequest{TransactionType: models.InventoryWaste, Quantity: decPtr("1")}
	item := models.InventoryItem{CurrentStock: dec("4"), MinimumStock: dec("4")}
	assert.True(t, crossedLowStock(move, item))

	restock := StockMovementRequest{TransactionType: models.InventoryRestock, Quantity: decPtr("1")}
	assert.False(t, crossedLowStock(restock, item))
}

func TestDecrementBelowZeroIsRefused(t *testing.T) {
	for _, kind := range []models.InventoryTransactionType{models.InventoryUsage, models.InventoryWaste, models.InventoryAdjustment} {
		t.Run(string(kind), func(t *testing.T) {
			db, mock := dbtest.New(t)
			svc := NewInventoryService(db, events.Nop{}, logging.Discard())
			qty := dec("100")

			mock.ExpectBegin()
			mock.ExpectQuery(sqlLike("current_stock >= $1")).
				WillReturnRows(sqlmock.NewRows(itemCols))
			mock.ExpectQuery(sqlLike("SELECT COUNT(*) FROM inventory_items WHERE id = $1")).
				WithArgs(1).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			mock.ExpectRollback()

			_, err := svc.RecordTransaction(context.Background(), 1, StockMovementRequest{TransactionType: kind, Quantity: &qty})
			assert.ErrorIs(t, err, ErrInsufficientStock)
		})
	}
}

func TestStockMovementOnMissingItem(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewInventoryService(db, events.Nop{}, logging.Discard())
	qty := dec("1")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("current_stock + $1")).
		WillReturnRows(sqlmock.NewRows(itemCols))
	mock.ExpectQuery(sqlLike("SELECT COUNT(*) FROM inventory_items")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.RecordTransaction(context.Background(), 5, StockMovementRequest{TransactionType: models.InventoryRestock, Quantity: &qty})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockMovementValidation(t *testing.T) {
	db, _ := dbtest.New(t)
	svc := NewInventoryService(db, events.Nop{}, logging.Discard())
	zero := dec("0")

	_, err := svc.RecordTransaction(context.Background(), 1, StockMovementRequest{TransactionType: "theft", Quantity: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordTransaction(context.Background(), 1, StockMovementRequest{TransactionType: models.InventoryUsage, Quantity: &zero})
	assert.EqualError(t, err, "Quantity must be positive with at most two decimals")
}

func TestCreateInventoryItemDuplicateSKU(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewInventoryService(db, events.Nop{}, logging.Discard())

	mock.ExpectQuery(sqlLike("INSERT INTO inventory_items")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Create(context.Background(), InventoryItemRequest{Name: "Oat milk", SKU: "OAT-1L", Unit: "l"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "An inventory item with SKU OAT-1L already exists")
}
