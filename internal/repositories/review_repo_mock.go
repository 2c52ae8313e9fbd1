package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefinder/internal/models"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
type MockReviewRepository struct {
	reviews map[string]models.Review
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[string]models.Review),
	}
}

// Create adds a new review.
func (r *MockReviewRepository) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	r.reviews[review.ID] = *review
	return nil
}

// ListByStore returns a store's reviews, newest first.
func (r *MockReviewRepository) ListByStore(storeID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviews []models.Review
	for _, review := range r.reviews {
		if review.StoreID == storeID {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}
