package models

import "time"

// ReservationStatus is the state of a table reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationNoShow    ReservationStatus = "no-show"
)

// Valid reports whether s is a known reservation status
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return true
	}
	return false
}

// Reservation represents reservations table
type Reservation struct {
	BaseModel
	CustomerName    string            `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerPhone   string            `gorm:"type:varchar(20);not null" json:"customer_phone"`
	CustomerEmail   string            `gorm:"type:varchar(150);not null;default:''" json:"customer_email"`
	PartySize       int               `gorm:"not null;check:party_size BETWEEN 1 AND 20" json:"party_size"`
	ReservationTime time.Time         `gorm:"not null;index" json:"reservation_time"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SpecialRequests string            `gorm:"type:text;not null;default:''" json:"special_requests"`
}

// TableName specifies the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}
