package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefinder/internal/models"
)

// respondError maps service errors onto HTTP statuses: validation 400,
// not-found 404, ownership 403, uniqueness conflicts 409. Anything else is
// an upstream failure and propagates as 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal error",
			"error":   err.Error(),
		})
	}
}

// respondValidationErrors renders a field -> message map for failed struct
// validation.
func respondValidationErrors(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// actingUserID reads the authenticated user's id placed in the request
// locals by the auth middleware.
func actingUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
