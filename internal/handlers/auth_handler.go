package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefinder/internal/services"
)

// AuthHandler handles HTTP requests for registration, login and account
// updates.
type AuthHandler struct {
	accounts *services.AccountService
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers the routes that require a valid token.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Get("/account", h.HandleGetAccount)
	router.Put("/account", h.HandleUpdateAccount)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	user, err := h.accounts.Register(req.Email, req.Name, req.Password)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	token, err := h.accounts.Login(req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleGetAccount returns the acting user's account with their hearts.
func (h *AuthHandler) HandleGetAccount(c *fiber.Ctx) error {
	user, err := h.accounts.GetAccount(actingUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// AccountUpdateRequest represents the request body for profile updates.
type AccountUpdateRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=1,max=100"`
}

// HandleUpdateAccount updates the acting user's profile fields.
func (h *AuthHandler) HandleUpdateAccount(c *fiber.Ctx) error {
	var req AccountUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	user, err := h.accounts.UpdateAccount(actingUserID(c), req.Email, req.Name)
	if err != nil {
		log.Printf("Error updating account: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Account updated successfully",
		"user":    user,
	})
}
