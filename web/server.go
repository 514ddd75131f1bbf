package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/metrics"
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/LittleGragon/coffee-shop-sub000/web/handlers"
	"github.com/LittleGragon/coffee-shop-sub000/web/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var templatesFS embed.FS

// Server represents the web server
type Server struct {
	app     *fiber.App
	limiter *middleware.RateLimiter
	stop     chan struct{}
	stopOnce sync.Once
	log      *logrus.Entry
}

// NewServer creates the Fiber app with every route wired to h
func NewServer(h *handlers.Handlers, log logrus.FieldLogger) *Server {
	s := &Server{
		stop: make(chan struct{}),
		log:  logging.Component(log, "http"),
	}

	templates, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(templates), ".html")

	// Add custom template functions
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.Format("02 Jan 2006 15:04")
	})
	engine.AddFunc("formatCurrency", func(amount decimal.Decimal) string {
		return "$" + amount.StringFixed(2)
	})
	engine.AddFunc("formatDuration", func(d time.Duration) string {
		return d.Round(time.Microsecond).String()
	})

	app := fiber.New(fiber.Config{
		Views:        engine,
		AppName:      "coffee-shop",
		BodyLimit:    int(h.Config.App.MaxUploadBytes) + 1<<20,
		ErrorHandler: s.errorHandler,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(s.log))
	app.Use(middleware.Metrics())
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !h.Config.App.IsProduction(),
	}))
	app.Use(middleware.SQLDebugMiddleware(h.DB.Queries))

	app.Static("/uploads", h.Uploads.Dir())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	s.limiter = middleware.NewRateLimiter(h.Config.App.RateLimitRPS, h.Config.App.RateLimitBurst, s.log)
	s.limiter.StartCleanup(10*time.Minute, s.stop)

	setupRoutes(app, h, s.limiter.Handler())

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on port until Shutdown is called
func (s *Server) Start(port string) error {
	s.log.WithField("port", port).Info("Server starting")
	return s.app.Listen(":" + port)
}

// Shutdown stops accepting connections and waits for in-flight requests.
// It may be called more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopBackground()
	return s.app.ShutdownWithContext(ctx)
}

// stopBackground ends the limiter cleanup loop
func (s *Server) stopBackground() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// errorHandler is the one place where errors become HTTP responses.
// API routes always get {"error": ...}; pages get the error template.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var details interface{}

	var se *services.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &se):
		message = se.Message
		details = se.Details
		switch {
		case errors.Is(se.Kind, services.ErrValidation):
			code = fiber.StatusBadRequest
		case errors.Is(se.Kind, services.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(se.Kind, services.ErrConflict):
			code = fiber.StatusConflict
		}
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	}

	entry := s.log.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": code,
	})
	if code >= fiber.StatusInternalServerError {
		entry.WithError(err).Error("Request error")
	} else {
		entry.WithError(err).Debug("Request rejected")
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		body := fiber.Map{"error": message}
		if details != nil {
			body["details"] = details
		}
		return c.Status(code).JSON(body)
	}

	// HTML error page
	return c.Status(code).Render("pages/error", middleware.SQLPanel(c, fiber.Map{
		"Title":  "Error",
		"Active": "",
		"Error":  message,
		"Code":   code,
	}), "layouts/base")
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App, h *handlers.Handlers, limit fiber.Handler) {
	// Pages
	app.Get("/", h.HomePage)
	app.Get("/admin", h.AdminPage)

	api := app.Group("/api")

	api.Get("/config", h.AppConfig)
	api.Get("/health", h.Health)

	// Debug endpoint for SQL logs
	api.Get("/debug/sql", h.GetSQLLogs)
	api.Delete("/debug/sql", h.ClearSQLLogs)

	categories := api.Group("/categories")
	categories.Get("/", h.ListCategories)
	categories.Post("/", h.CreateCategory)
	categories.Put("/:id", h.UpdateCategory)
	categories.Delete("/:id", h.DeleteCategory)

	menu := api.Group("/menu")
	menu.Get("/", h.ListMenu)
	menu.Post("/", h.CreateMenuItem)
	menu.Get("/:id", h.GetMenuItem)
	menu.Put("/:id", h.UpdateMenuItem)
	menu.Patch("/:id/availability", h.SetMenuAvailability)
	menu.Delete("/:id", h.DeleteMenuItem)

	// Fixed paths before /:id
	inventory := api.Group("/inventory")
	inventory.Get("/", h.ListInventory)
	inventory.Get("/low-stock", h.LowStock)
	inventory.Get("/transactions", h.RecentInventoryTransactions)
	inventory.Post("/", h.CreateInventoryItem)
	inventory.Get("/:id", h.GetInventoryItem)
	inventory.Put("/:id", h.UpdateInventoryItem)
	inventory.Delete("/:id", h.DeleteInventoryItem)
	inventory.Get("/:id/transactions", h.InventoryItemTransactions)
	inventory.Post("/:id/transactions", h.RecordInventoryTransaction)

	orders := api.Group("/orders")
	orders.Get("/", h.ListOrders)
	orders.Post("/", limit, h.CreateOrder)
	orders.Get("/:id", h.GetOrder)
	orders.Patch("/:id/status", h.UpdateOrderStatus)

	members := api.Group("/members")
	members.Get("/", h.ListMembers)
	members.Get("/lookup", h.LookupMember)
	members.Post("/", limit, h.CreateMember)
	members.Get("/:id", h.GetMember)
	members.Put("/:id", h.UpdateMember)
	members.Delete("/:id", h.DeleteMember)
	members.Post("/:id/topup", h.TopUpMember)
	members.Get("/:id/transactions", h.MemberTransactions)

	reservations := api.Group("/reservations")
	reservations.Get("/", h.ListReservations)
	reservations.Get("/availability", h.ReservationAvailability)
	reservations.Post("/", limit, h.CreateReservation)
	reservations.Get("/:id", h.GetReservation)
	reservations.Patch("/:id/status", h.UpdateReservationStatus)
	reservations.Delete("/:id", h.DeleteReservation)

	wishlist := api.Group("/wishlist")
	wishlist.Get("/", h.ListWishlist)
	wishlist.Get("/popular", h.PopularWishlistItems)
	wishlist.Post("/", h.AddToWishlist)
	wishlist.Delete("/", h.RemoveFromWishlist)

	api.Post("/upload", limit, h.UploadImage)

	api.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not found")
	})
}
