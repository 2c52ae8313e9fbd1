package repositories

import "storefinder/internal/models"

// UserRepository defines the interface for user data access, including the
// hearts (favorited stores) set attached to each user.
type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// ToggleHeart atomically adds the store to the user's hearts if absent
	// or removes it if present, and returns the updated hearts set. The
	// add and the remove are each a single conditional statement so two
	// concurrent toggles cannot both observe the same pre-state.
	ToggleHeart(userID, storeID string) ([]string, error)
	// Hearts returns the ids of the stores the user favorited.
	Hearts(userID string) ([]string, error)
	// HeartedStores returns the stores the user favorited.
	HeartedStores(userID string) ([]models.Store, error)
}
