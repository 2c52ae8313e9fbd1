package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefinder/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user. A duplicate email surfaces as
// models.ErrConflict.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email %q already registered: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves the user's profile columns.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"email": user.Email,
		"name":  user.Name,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email %q already registered: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}
	return nil
}

// GetByEmail retrieves a user by email.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by id.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// ToggleHeart adds the store to the user's hearts if absent, removes it if
// present, and returns the updated set. The add is an insert-on-conflict
// and the remove a keyed delete, so each side is a single atomic statement
// and a concurrent double-toggle cannot double-add or double-remove.
func (r *GORMUserRepository) ToggleHeart(userID, storeID string) ([]string, error) {
	heart := models.Heart{UserID: userID, StoreID: storeID}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&heart)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to toggle heart for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Already hearted: remove it.
		del := r.db.Delete(&models.Heart{}, "user_id = ? AND store_id = ?", userID, storeID)
		if del.Error != nil {
			return nil, fmt.Errorf("failed to toggle heart for user %s: %w", userID, del.Error)
		}
	}
	return r.Hearts(userID)
}

// Hearts returns the ids of the stores the user favorited.
func (r *GORMUserRepository) Hearts(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Heart{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("store_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hearts for user %s: %w", userID, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// HeartedStores returns the stores the user favorited.
func (r *GORMUserRepository) HeartedStores(userID string) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.
		Joins("JOIN hearts ON hearts.store_id = stores.id").
		Where("hearts.user_id = ?", userID).
		Order("hearts.created_at ASC").
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hearted stores for user %s: %w", userID, err)
	}
	return stores, nil
}
