package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefinder/internal/models"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// Create inserts a new review.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListByStore returns a store's reviews newest first, each with its author
// joined in. The join is an explicit second query, not a persistence hook.
func (r *GORMReviewRepository) ListByStore(storeID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.Where("store_id = ?", storeID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for store %s: %w", storeID, err)
	}
	if len(reviews) == 0 {
		return reviews, nil
	}

	ids := make([]string, 0, len(reviews))
	for i := range reviews {
		ids = append(ids, reviews[i].AuthorID)
	}
	var authors []models.User
	if err := r.db.Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to load review authors: %w", err)
	}
	byID := make(map[string]*models.User, len(authors))
	for i := range authors {
		byID[authors[i].ID] = &authors[i]
	}
	for i := range reviews {
		reviews[i].Author = byID[reviews[i].AuthorID]
	}
	return reviews, nil
}
