package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// ListMembers returns members matching search and level
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	members, err := h.Members.List(c.UserContext(), services.MemberFilter{
		Search: c.Query("search"),
		Level:  c.Query("level"),
	})
	if err != nil {
		return err
	}
	return c.JSON(members)
}

// LookupMember finds a member by email or phone
func (h *Handlers) LookupMember(c *fiber.Ctx) error {
	member, err := h.Members.Lookup(c.UserContext(), c.Query("email"), c.Query("phone"))
	if err != nil {
		return err
	}
	return c.JSON(member)
}

// GetMember returns one member
func (h *Handlers) GetMember(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	member, err := h.Members.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(member)
}

// CreateMember registers a member
func (h *Handlers) CreateMember(c *fiber.Ctx) error {
	var req services.MemberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	member, err := h.Members.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// UpdateMember changes a member's profile
func (h *Handlers) UpdateMember(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.MemberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	member, err := h.Members.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(member)
}

// DeleteMember removes a member
func (h *Handlers) DeleteMember(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Members.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return success(c)
}

// TopUpMember adds money to a member's balance
func (h *Handlers) TopUpMember(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.TopUpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.Members.TopUp(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// MemberTransactions returns a member's balance ledger
func (h *Handlers) MemberTransactions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.Members.Transactions(c.UserContext(), id, c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
