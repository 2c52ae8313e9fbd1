package repositories

import "storefinder/internal/models"

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(review *models.Review) error
	// ListByStore returns a store's reviews, newest first, with each
	// review's author joined in.
	ListByStore(storeID string) ([]models.Review, error)
}
