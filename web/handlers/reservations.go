package handlers

import (
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListReservations returns reservations for a day and status
func (h *Handlers) ListReservations(c *fiber.Ctx) error {
	reservations, err := h.Reservations.List(c.UserContext(), c.Query("date"), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(reservations)
}

// ReservationAvailability checks whether a party fits at a given time
func (h *Handlers) ReservationAvailability(c *fiber.Ctx) error {
	at, err := time.Parse(time.RFC3339, c.Query("time"))
	if err != nil {
		return services.Invalid("time must be an RFC3339 timestamp")
	}
	availability, err := h.Reservations.Availability(c.UserContext(), at, c.QueryInt("party_size", 1))
	if err != nil {
		return err
	}
	return c.JSON(availability)
}

// GetReservation returns one reservation
func (h *Handlers) GetReservation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	reservation, err := h.Reservations.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(reservation)
}

// CreateReservation books a table
func (h *Handlers) CreateReservation(c *fiber.Ctx) error {
	var req services.ReservationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reservation, err := h.Reservations.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(reservation)
}

// UpdateReservationStatus confirms, cancels or closes a reservation
func (h *Handlers) UpdateReservationStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.ReservationStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reservation, err := h.Reservations.UpdateStatus(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(reservation)
}

// DeleteReservation removes a reservation
func (h *Handlers) DeleteReservation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reservations.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return success(c)
}
