package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/config"
	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/events"
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/LittleGragon/coffee-shop-sub000/web"
	"github.com/LittleGragon/coffee-shop-sub000/web/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	migrateOnStart bool
	seedOnStart    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with the JSON API under /api, the storefront
and admin pages, uploaded images under /uploads and Prometheus metrics
under /metrics. SIGINT or SIGTERM shuts it down gracefully.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "run database migration on startup")
	serveCmd.Flags().BoolVar(&seedOnStart, "seed", false, "seed sample data on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Ping(ctx); err != nil {
		return err
	}
	if migrateOnStart {
		log.Info("Running database migration")
		if err := db.AutoMigrate(ctx); err != nil {
			return err
		}
	}
	if seedOnStart {
		log.Info("Seeding database with sample data")
		if err := db.SeedData(ctx, false); err != nil {
			return err
		}
	}

	publisher, err := newPublisher(cfg.Events, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	server := web.NewServer(newHandlers(cfg, db, publisher, log), log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.App.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// newPublisher connects to the broker, or discards events when none is configured
func newPublisher(cfg config.EventsConfig, log logrus.FieldLogger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		log.Info("No AMQP_URL set, domain events are discarded")
		return events.Nop{}, nil
	}
	publisher, err := events.DialAMQP(cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	log.WithField("exchange", cfg.Exchange).Info("Publishing domain events to AMQP")
	return publisher, nil
}

func newHandlers(cfg *config.Config, db *database.DB, publisher events.Publisher, log logrus.FieldLogger) *handlers.Handlers {
	return &handlers.Handlers{
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
}
