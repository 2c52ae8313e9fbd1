package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefinder/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users  map[string]models.User
	hearts map[string][]string
	stores *MockStoreRepository
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]models.User),
		hearts: make(map[string][]string),
	}
}

// UseStores wires in the store source that HeartedStores reads from.
func (r *MockUserRepository) UseStores(stores *MockStoreRepository) {
	r.stores = stores
}

// Create adds a new user, rejecting duplicate emails.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %q already registered: %w", user.Email, models.ErrConflict)
		}
	}
	r.users[user.ID] = *user
	return nil
}

// Update modifies an existing user's profile fields.
func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}
	for _, u := range r.users {
		if u.ID != user.ID && u.Email == user.Email {
			return fmt.Errorf("email %q already registered: %w", user.Email, models.ErrConflict)
		}
	}
	existing.Email = user.Email
	existing.Name = user.Name
	r.users[user.ID] = existing
	return nil
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, models.ErrNotFound)
}

// GetByID returns a user by id.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return &user, nil
}

// ToggleHeart flips the store's membership in the user's hearts under one
// lock, mirroring the single-statement semantics of the SQL implementation.
func (r *MockUserRepository) ToggleHeart(userID, storeID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	hearts := r.hearts[userID]
	for i, id := range hearts {
		if id == storeID {
			r.hearts[userID] = append(hearts[:i:i], hearts[i+1:]...)
			return append([]string{}, r.hearts[userID]...), nil
		}
	}
	r.hearts[userID] = append(hearts, storeID)
	return append([]string{}, r.hearts[userID]...), nil
}

// Hearts returns the ids of the stores the user favorited.
func (r *MockUserRepository) Hearts(userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string{}, r.hearts[userID]...), nil
}

// HeartedStores returns the stores the user favorited.
func (r *MockUserRepository) HeartedStores(userID string) ([]models.Store, error) {
	r.mu.RLock()
	ids := append([]string{}, r.hearts[userID]...)
	r.mu.RUnlock()

	stores := make([]models.Store, 0, len(ids))
	if r.stores == nil {
		return stores, nil
	}
	for _, id := range ids {
		store, err := r.stores.GetByID(id)
		if err != nil {
			continue
		}
		stores = append(stores, *store)
	}
	return stores, nil
}
