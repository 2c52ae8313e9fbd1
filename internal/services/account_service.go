package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"storefinder/internal/models"
	"storefinder/internal/repositories"
)

// AccountService handles registration, login and profile updates.
type AccountService struct {
	users     repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAccountService creates a new AccountService.
func NewAccountService(users repositories.UserRepository, jwtSecret string) *AccountService {
	return &AccountService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// Register normalizes and validates the registration input, hashes the
// password and creates the user. Email is stored trimmed and lowercase.
func (s *AccountService) Register(email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", models.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", models.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", models.ErrValidation)
	}

	if existing, err := s.users.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("email %q already registered: %w", email, models.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Password: string(hashed),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	user.Hearts = []string{}
	return user, nil
}

// Login authenticates by email and password and returns a signed JWT.
// Lookup and comparison failures both collapse into the same generic error
// so callers cannot probe which emails are registered.
func (s *AccountService) Login(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT, returning the claims if valid.
func (s *AccountService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// UpdateAccount changes the user's profile fields with the same
// normalization as Register.
func (s *AccountService) UpdateAccount(userID, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", models.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", models.ErrValidation)
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.Name = name
	if err := s.users.Update(user); err != nil {
		return nil, err
	}
	return s.GetAccount(userID)
}

// GetAccount returns the user with their hearts set attached.
func (s *AccountService) GetAccount(userID string) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	hearts, err := s.users.Hearts(userID)
	if err != nil {
		return nil, err
	}
	user.Hearts = hearts
	return user, nil
}
