package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefinder/internal/services"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	reviews  *services.ReviewService
	validate *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviews:  reviews,
		validate: validator.New(),
	}
}

// RegisterProtectedRoutes registers the review routes; all of them require
// a valid token.
func (h *ReviewHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/stores/:id/reviews", h.HandleCreateReview)
}

// ReviewRequest represents the request body for creating a review.
type ReviewRequest struct {
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

// HandleCreateReview creates a review of the store by the acting user.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	review, err := h.reviews.AddReview(c.Params("id"), actingUserID(c), req.Text, req.Rating)
	if err != nil {
		log.Printf("Error creating review for store %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
