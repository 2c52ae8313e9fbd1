package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"storefinder/internal/models"
	"storefinder/internal/repositories"
	"storefinder/pkg/rabbitmq"
)

// ReviewService handles business logic for reviews.
type ReviewService struct {
	reviews  repositories.ReviewRepository
	stores   repositories.StoreRepository
	users    repositories.UserRepository
	mqClient *rabbitmq.Client
	cache    *redis.Client
}

// NewReviewService creates a new ReviewService. mqClient and cache may be
// nil; event publishing and cache invalidation are then skipped.
func NewReviewService(
	reviews repositories.ReviewRepository,
	stores repositories.StoreRepository,
	users repositories.UserRepository,
	mqClient *rabbitmq.Client,
	cache *redis.Client,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		stores:   stores,
		users:    users,
		mqClient: mqClient,
		cache:    cache,
	}
}

// AddReview validates and persists a review by the acting user. The store
// and author references are checked at write time; the storage engine does
// not enforce them. A new review can change the top-rated aggregation, so
// its cache entry is dropped.
func (s *ReviewService) AddReview(storeID, authorID, text string, rating int) (*models.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("review text is required: %w", models.ErrValidation)
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating %d out of range [1,5]: %w", rating, models.ErrValidation)
	}
	if _, err := s.stores.GetByID(storeID); err != nil {
		return nil, fmt.Errorf("review store: %w", err)
	}
	if _, err := s.users.GetByID(authorID); err != nil {
		return nil, fmt.Errorf("review author: %w", err)
	}

	review := &models.Review{
		StoreID:  storeID,
		AuthorID: authorID,
		Text:     text,
		Rating:   rating,
	}
	if err := s.reviews.Create(review); err != nil {
		return nil, err
	}

	s.invalidateTopStores()

	if s.mqClient != nil {
		err := s.mqClient.PublishEvent("review.created", map[string]interface{}{
			"id":        review.ID,
			"store_id":  review.StoreID,
			"author_id": review.AuthorID,
			"rating":    review.Rating,
		})
		if err != nil {
			log.Printf("Warning: failed to publish review.created event: %v", err)
		}
	}
	return review, nil
}

// ListByStore returns a store's reviews with their authors joined in.
func (s *ReviewService) ListByStore(storeID string) ([]models.Review, error) {
	return s.reviews.ListByStore(storeID)
}

func (s *ReviewService) invalidateTopStores() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := s.cache.Del(ctx, topStoresCacheKey).Err(); err != nil && err != redis.Nil {
		log.Printf("Warning: failed to invalidate top stores cache: %v", err)
	}
}
