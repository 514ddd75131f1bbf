package handlers

import (
	"github.com/LittleGragon/coffee-shop-sub000/services"
	"github.com/gofiber/fiber/v2"
)

// UploadImage stores the multipart field "image"
func (h *Handlers) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return services.Invalid("No file uploaded")
	}
	result, err := h.Uploads.Save(fh)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
