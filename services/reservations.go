package services

import (
	"context"
	"fmt"
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/config"
	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/metrics"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const reservationColumns = "id, customer_name, customer_phone, customer_email, party_size, reservation_time, status, " +
	"special_requests, created_at, updated_at"

// ReservationRequest is the body of a new reservation
type ReservationRequest struct {
	CustomerName    string    `json:"customer_name" validate:"max=100"`
	CustomerPhone   string    `json:"customer_phone" validate:"max=20"`
	CustomerEmail   string    `json:"customer_email" validate:"omitempty,email,max=150"`
	PartySize       int       `json:"party_size" validate:"min=1,max=20"`
	ReservationTime time.Time `json:"reservation_time"`
	SpecialRequests string    `json:"special_requests" validate:"max=1000"`
}

func (r *ReservationRequest) validate() error {
	trimmed(&r.CustomerName)
	trimmed(&r.CustomerPhone)
	trimmed(&r.CustomerEmail)
	if r.CustomerName == "" || r.CustomerPhone == "" || r.PartySize == 0 || r.ReservationTime.IsZero() {
		return Invalid("Customer name, phone, party size, and reservation time are required")
	}
	return validateStruct(r, "Invalid reservation")
}

// ReservationStatusRequest is the body of a reservation status change
type ReservationStatusRequest struct {
	Status models.ReservationStatus `json:"status"`
}

// Availability describes how full the slot around a given time is
type Availability struct {
	Time       time.Time `json:"time"`
	PartySize  int       `json:"party_size"`
	SeatsTaken int       `json:"seats_booked"`
	Capacity   int       `json:"seats_capacity"`
	Available  bool      `json:"available"`
}

// ReservationService books tables
type ReservationService struct {
	db       *database.DB
	window   time.Duration
	capacity int
	log      *logrus.Entry
	now      func() time.Time
}

// NewReservationService creates a ReservationService
func NewReservationService(db *database.DB, cfg config.ReservationConfig, log logrus.FieldLogger) *ReservationService {
	return &ReservationService{
		db:       db,
		window:   cfg.SlotWindow(),
		capacity: cfg.SeatCapacity,
		log:      logging.Component(log, "reservation_service"),
		now:      time.Now,
	}
}

// List returns reservations in time order. date (YYYY-MM-DD) limits the result to one day.
func (s *ReservationService) List(ctx context.Context, date, status string) ([]models.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations WHERE 1=1"
	args := []interface{}{}
	if date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, Invalid("Date must be in YYYY-MM-DD format")
		}
		query += " AND reservation_time >= ? AND reservation_time < ?"
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	if status != "" {
		if !models.ReservationStatus(status).Valid() {
			return nil, Invalid("Unknown reservation status: " + status)
		}
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY reservation_time, id"

	reservations := []models.Reservation{}
	if err := s.db.Conn(ctx).Raw(query, args...).Scan(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// Get returns one reservation
func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	res := s.db.Conn(ctx).Raw("SELECT "+reservationColumns+" FROM reservations WHERE id = $1", id).Scan(&r)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Reservation")
	}
	return &r, nil
}

// Availability reports whether partySize more guests fit in the slot around at
func (s *ReservationService) Availability(ctx context.Context, at time.Time, partySize int) (*Availability, error) {
	if at.IsZero() {
		return nil, Invalid("Time is required")
	}
	if partySize < 1 {
		partySize = 1
	}
	taken, err := s.seatsTaken(s.db.Conn(ctx), at)
	if err != nil {
		return nil, err
	}
	return &Availability{
		Time:       at,
		PartySize:  partySize,
		SeatsTaken: taken,
		Capacity:   s.capacity,
		Available:  taken+partySize <= s.capacity,
	}, nil
}

// seatsTaken sums party sizes of the reservations holding seats within the slot window of at
func (s *ReservationService) seatsTaken(db *gorm.DB, at time.Time) (int, error) {
	var row struct{ Seats int }
	err := db.Raw(`
		SELECT COALESCE(SUM(party_size), 0) AS seats
		FROM reservations
		WHERE status IN ($1, $2) AND reservation_time > $3 AND reservation_time < $4
	`, models.ReservationPending, models.ReservationConfirmed, at.Add(-s.window), at.Add(s.window)).Scan(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to check availability: %w", err)
	}
	return row.Seats, nil
}

// Create books a table. The capacity check and the insert share a
// transaction that locks the reservations table against concurrent bookings.
func (s *ReservationService) Create(ctx context.Context, req ReservationRequest) (*models.Reservation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !req.ReservationTime.After(s.now()) {
		return nil, Invalid("Reservation time must be in the future")
	}

	var r models.Reservation
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE reservations IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return fmt.Errorf("failed to lock reservations: %w", err)
		}
		taken, err := s.seatsTaken(tx, req.ReservationTime)
		if err != nil {
			return err
		}
		if taken+req.PartySize > s.capacity {
			return Conflict("The requested time slot is not available")
		}

		err = tx.Raw(`
			INSERT INTO reservations (customer_name, customer_phone, customer_email, party_size, reservation_time,
				status, special_requests, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			RETURNING `+reservationColumns,
			req.CustomerName, req.CustomerPhone, req.CustomerEmail, req.PartySize, req.ReservationTime.UTC(),
			models.ReservationPending, req.SpecialRequests,
		).Scan(&r).Error
		if err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordReservation()
	s.log.WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"party_size":     r.PartySize,
		"time":           r.ReservationTime.Format(time.RFC3339),
	}).Info("Reservation created")
	return &r, nil
}

// UpdateStatus changes a reservation's status. Cancelled, completed and
// no-show reservations are final.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, req ReservationStatusRequest) (*models.Reservation, error) {
	if !req.Status.Valid() {
		return nil, Invalid("Invalid status. Allowed: pending, confirmed, cancelled, completed, no-show")
	}

	var r models.Reservation
	res := s.db.Conn(ctx).Raw(`
		UPDATE reservations SET status = $1
		WHERE id = $2 AND status IN ($3, $4)
		RETURNING `+reservationColumns,
		req.Status, id, models.ReservationPending, models.ReservationConfirmed,
	).Scan(&r)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &r, nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, Conflict("Reservation is already %s", current.Status)
}

// Delete removes a reservation
func (s *ReservationService) Delete(ctx context.Context, id uint) error {
	res := s.db.Conn(ctx).Exec("DELETE FROM reservations WHERE id = $1", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("Reservation")
	}
	return nil
}
