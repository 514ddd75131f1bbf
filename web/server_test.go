package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LittleGragon/coffee-shop-sub000/config"
	"github.com/LittleGragon/coffee-shop-sub000/database/dbtest"
	"github.com/LittleGragon/coffee-shop-sub000/events"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/LittleGragon/coffee-shop-sub000/web/handlers"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := dbtest.New(t)
	log := logging.Discard()
	cfg := &config.Config{
		App: config.AppConfig{
			Environment:    "test",
			UploadDir:      t.TempDir(),
			MaxUploadBytes: 1 << 20,
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		Reservation: config.ReservationConfig{SlotMinutes: 120, SeatCapacity: 40},
	}
	publisher := events.Nop{}

	h := &handlers.Handlers{
		Config:       cfg,
		DB:           db,
		Categories:   services.NewCategoryService(db, log),
		Menu:         services.NewMenuService(db, log),
		Inventory:    services.NewInventoryService(db, publisher, log),
		Orders:       services.NewOrderService(db, publisher, log),
		Members:      services.NewMemberService(db, log),
		Reservations: services.NewReservationService(db, cfg.Reservation, log),
		Wishlist:     services.NewWishlistService(db, log),
		Uploads:      services.NewUploadService(cfg.App.UploadDir, cfg.App.MaxUploadBytes, log),
		Dashboard:    services.NewDashboardService(db),
	}
	s := NewServer(h, log)
	t.Cleanup(s.stopBackground)
	return s, mock
}

func do(t *testing.T, s *Server, method, target, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestCreateMenuItemWithoutCategory(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, "POST", "/api/menu", `{"name":"Mocha","price":4.5}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"Name, price, and category are required"}`, body)
}

func TestTopUpResponse(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE members SET balance = balance + $1")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("70.50"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO member_transactions")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "transaction_type", "amount", "balance_after", "payment_method"}).
			AddRow(1, 1, "topup", "25.00", "70.50", "card"))
	mock.ExpectCommit()

	code, body := do(t, s, "POST", "/api/members/1/topup", `{"amount":25.00}`)
	require.Equal(t, http.StatusOK, code, body)

	var got struct {
		Success    bool    `json:"success"`
		NewBalance float64 `json:"newBalance"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.True(t, got.Success)
	assert.Equal(t, 70.5, got.NewBalance)
}

func TestCreateOrderResponse(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items WHERE id IN")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).
			AddRow(1, "Latte", "6.00", true).
			AddRow(2, "Croissant", "3.50", true).
			AddRow(3, "Espresso", "3.00", true))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subtotal", "total_amount", "status"}).AddRow(42, "12.50", "12.50", "pending"))
	for i := 1; i <= 3; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}).AddRow(i, 42))
	}
	mock.ExpectCommit()

	code, body := do(t, s, "POST", "/api/orders",
		`{"customer_name":"Walk-in","items":[{"menu_item_id":1,"quantity":1},{"menu_item_id":2,"quantity":1},{"menu_item_id":3,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code, body)

	var got struct {
		TotalAmount float64           `json:"total_amount"`
		Status      string            `json:"status"`
		Items       []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 12.5, got.TotalAmount)
	assert.Equal(t, "pending", got.Status)
	assert.Len(t, got.Items, 3)
}

func TestListMenuIsIdempotent(t *testing.T) {
	s, mock := newTestServer(t)
	created := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items WHERE 1=1")).
			WithArgs("coffee").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "category", "is_available", "created_at", "updated_at"}).
				AddRow(1, "Latte", "6.00", "coffee", true, created, created).
				AddRow(3, "Espresso", "3.00", "coffee", true, created, created))
	}

	code1, first := do(t, s, "GET", "/api/menu?category=coffee", "")
	code2, second := do(t, s, "GET", "/api/menu?category=coffee", "")

	assert.Equal(t, http.StatusOK, code1)
	assert.Equal(t, http.StatusOK, code2)
	assert.Equal(t, first, second)
	assert.Contains(t, first, `"price":6`)
}

func TestConflictAndNotFoundMapping(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM menu_items m")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	code, body := do(t, s, "DELETE", "/api/categories/1", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.JSONEq(t, `{"error":"Category is in use by 2 menu items"}`, body)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	code, body = do(t, s, "GET", "/api/orders/77", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Order not found"}`, body)
}

func TestConstraintViolationsMapToClientErrors(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO inventory_items")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	code, body := do(t, s, "POST", "/api/inventory", `{"name":"Oat milk","sku":"OAT-1L","unit":"l"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.JSONEq(t, `{"error":"An inventory item with SKU OAT-1L already exists"}`, body)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO menu_items")).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	code, body = do(t, s, "POST", "/api/menu", `{"name":"Mocha","price":4.5,"category":"potions"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"Unknown category: potions"}`, body)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wishlist_items")).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	code, body = do(t, s, "POST", "/api/wishlist", `{"user_id":"guest-1","menu_item_id":99}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Menu item not found"}`, body)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE 1=1")).
		WillReturnError(assert.AnError)

	code, body := do(t, s, "GET", "/api/members", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, body)
}

func TestValidationDetails(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, "POST", "/api/orders", `{"items":[{"menu_item_id":1,"quantity":0}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"Invalid order","details":[{"field":"items[0].quantity","rule":"min","param":"1"}]}`, body)

	code, body = do(t, s, "GET", "/api/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"Invalid id"}`, body)
}

func TestUnknownAPIRoute(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, "GET", "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Not found"}`, body)
}

func TestConfigAndHealth(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, "GET", "/api/config", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"environment":"test","use_mock_data":false}`, body)

	code, body = do(t, s, "GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestHTMLPages(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items WHERE 1=1 AND is_available = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "category"}).
			AddRow(1, "Latte", "6.00", "coffee").
			AddRow(2, "Croissant", "3.50", "pastry"))

	code, body := do(t, s, "GET", "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Croissant")
	assert.Contains(t, body, "$6.00")
	assert.Contains(t, body, "SQL executed for this page (1)")
	assert.Contains(t, body, "FROM menu_items")

	code, body = do(t, s, "GET", "/no-such-page", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "404")
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	do(t, s, "GET", "/api/config", "")
	code, body := do(t, s, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "coffeeshop_http_requests_total")
}

func TestShutdownTwice(t *testing.T) {
	s, _ := newTestServer(t)

	assert.NotPanics(t, func() {
		_ = s.Shutdown(context.Background())
		_ = s.Shutdown(context.Background())
	})
}
