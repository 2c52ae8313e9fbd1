package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"storefinder/internal/models"
	"storefinder/internal/repositories"
	"storefinder/pkg/rabbitmq"
)

const (
	// nearRadiusMeters is the fixed proximity-search radius.
	nearRadiusMeters = 10000.0
	nearLimit        = 10
	searchLimit      = 5
	topStoresLimit   = 10
	// topStoresMinReviews excludes stores with fewer reviews from the
	// top-rated aggregation. Strict: exactly one review does not qualify.
	topStoresMinReviews = 2

	// slugRetries bounds the recompute-and-retry loop when a concurrent
	// create wins the race for the same slug.
	slugRetries = 3

	topStoresCacheKey = "storefinder:top_stores"
	topStoresCacheTTL = time.Minute
	cacheTimeout      = 3 * time.Second
)

// StoreService handles business logic for stores: slug assignment,
// ownership checks, search and the read-side aggregations.
type StoreService struct {
	stores   repositories.StoreRepository
	users    repositories.UserRepository
	reviews  repositories.ReviewRepository
	mqClient *rabbitmq.Client
	cache    *redis.Client
}

// NewStoreService creates a new StoreService. mqClient and cache may be nil;
// event publishing and top-stores caching are then skipped.
func NewStoreService(
	stores repositories.StoreRepository,
	users repositories.UserRepository,
	reviews repositories.ReviewRepository,
	mqClient *rabbitmq.Client,
	cache *redis.Client,
) *StoreService {
	return &StoreService{
		stores:   stores,
		users:    users,
		reviews:  reviews,
		mqClient: mqClient,
		cache:    cache,
	}
}

// AssertOwner fails with models.ErrForbidden when the acting user is not
// the store's author. Pure guard, no side effects.
func AssertOwner(store *models.Store, userID string) error {
	if store.AuthorID != userID {
		return fmt.Errorf("user %s does not own store %s: %w", userID, store.ID, models.ErrForbidden)
	}
	return nil
}

// AuthorizeEdit loads the store and verifies the acting user owns it.
// Callers that write outside the database run this before touching anything.
func (s *StoreService) AuthorizeEdit(storeID, actingUserID string) (*models.Store, error) {
	store, err := s.stores.GetByID(storeID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(store, actingUserID); err != nil {
		return nil, err
	}
	return store, nil
}

// CreateStore derives a unique slug for the store, stamps the author and
// persists it. On a slug collision with a concurrent create the slug is
// recomputed and the insert retried a bounded number of times.
func (s *StoreService) CreateStore(store *models.Store, authorID string) error {
	store.Name = strings.TrimSpace(store.Name)
	store.Description = strings.TrimSpace(store.Description)
	store.Address = strings.TrimSpace(store.Address)
	if store.Name == "" {
		return fmt.Errorf("store name is required: %w", models.ErrValidation)
	}
	if store.Address == "" {
		return fmt.Errorf("store address is required: %w", models.ErrValidation)
	}
	if _, err := s.users.GetByID(authorID); err != nil {
		return fmt.Errorf("store author: %w", err)
	}
	store.AuthorID = authorID
	if store.Tags == nil {
		store.Tags = []string{}
	}

	var err error
	for attempt := 0; attempt < slugRetries; attempt++ {
		existing, slugErr := s.stores.ListSlugsLike(slugBase(store.Name))
		if slugErr != nil {
			return slugErr
		}
		store.Slug = deriveSlug(store.Name, existing)

		err = s.stores.Create(store)
		if err == nil {
			s.publishEvent("store.created", map[string]interface{}{
				"id":        store.ID,
				"name":      store.Name,
				"slug":      store.Slug,
				"author_id": store.AuthorID,
			})
			return nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return err
		}
		// Lost the slug race; recompute against the fresh slug set.
	}
	return err
}

// UpdateStore applies the author's edits. The slug is recomputed only when
// the name changed, with the same bounded retry as CreateStore.
func (s *StoreService) UpdateStore(storeID, actingUserID string, in *models.Store) (*models.Store, error) {
	store, err := s.AuthorizeEdit(storeID, actingUserID)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return nil, fmt.Errorf("store name is required: %w", models.ErrValidation)
	}
	if in.Address == "" {
		return nil, fmt.Errorf("store address is required: %w", models.ErrValidation)
	}

	nameChanged := !strings.EqualFold(store.Name, in.Name)
	store.Name = in.Name
	store.Description = strings.TrimSpace(in.Description)
	store.Address = in.Address
	store.Longitude = in.Longitude
	store.Latitude = in.Latitude
	store.Tags = in.Tags
	if store.Tags == nil {
		store.Tags = []string{}
	}

	if !nameChanged {
		if err := s.stores.Update(store); err != nil {
			return nil, err
		}
		return store, nil
	}

	oldSlug := store.Slug
	for attempt := 0; attempt < slugRetries; attempt++ {
		existing, slugErr := s.stores.ListSlugsLike(slugBase(store.Name))
		if slugErr != nil {
			return nil, slugErr
		}
		// The store's own current slug must not count against itself.
		others := existing[:0:0]
		for _, sl := range existing {
			if sl != oldSlug {
				others = append(others, sl)
			}
		}
		store.Slug = deriveSlug(store.Name, others)

		err = s.stores.Update(store)
		if err == nil {
			return store, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
	}
	return nil, err
}

// GetStoreBySlug returns the store with its author and reviews joined in.
// The joins are explicit follow-up queries, not persistence hooks.
func (s *StoreService) GetStoreBySlug(slug string) (*models.Store, error) {
	store, err := s.stores.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(store.AuthorID)
	if err == nil {
		store.Author = author
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	reviews, err := s.reviews.ListByStore(store.ID)
	if err != nil {
		return nil, err
	}
	store.Reviews = reviews
	return store, nil
}

// ListStores returns all stores, newest first.
func (s *StoreService) ListStores() ([]models.Store, error) {
	return s.stores.GetAll()
}

// ListTags returns distinct tag values with usage counts, most used first.
func (s *StoreService) ListTags() ([]models.TagCount, error) {
	return s.stores.TagCounts()
}

// TagPage returns the tag counts alongside the stores carrying the given
// tag (all stores when tag is empty). The two reads are independent, so
// they run concurrently.
func (s *StoreService) TagPage(tag string) ([]models.TagCount, []models.Store, error) {
	var (
		counts []models.TagCount
		stores []models.Store
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		counts, err = s.stores.TagCounts()
		return err
	})
	g.Go(func() error {
		var err error
		if tag == "" {
			stores, err = s.stores.GetAll()
		} else {
			stores, err = s.stores.ListByTag(tag)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return counts, stores, nil
}

// Near parses the raw coordinates and returns at most 10 store summaries
// within 10 km, nearest first. Malformed coordinates are a validation
// failure, never a silent default.
func (s *StoreService) Near(lngRaw, latRaw string) ([]models.StoreSummary, error) {
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", lngRaw, models.ErrValidation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", latRaw, models.ErrValidation)
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("coordinates (%f, %f) out of range: %w", lng, lat, models.ErrValidation)
	}
	return s.stores.NearBy(lng, lat, nearRadiusMeters, nearLimit)
}

// Search returns at most 5 stores ranked by relevance to the query.
// An empty query returns no results.
func (s *StoreService) Search(query string) ([]models.SearchResult, error) {
	return s.stores.Search(query, searchLimit)
}

// TopStores returns the top-rated aggregation, served from the cache when
// fresh. Cache failures degrade to the database, they never fail the read.
func (s *StoreService) TopStores() ([]models.TopStore, error) {
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		val, err := s.cache.Get(ctx, topStoresCacheKey).Result()
		if err == nil {
			var top []models.TopStore
			if jsonErr := json.Unmarshal([]byte(val), &top); jsonErr == nil {
				return top, nil
			}
		} else if err != redis.Nil {
			log.Printf("Warning: top stores cache read failed: %v", err)
		}
	}

	top, err := s.stores.TopStores(topStoresMinReviews, topStoresLimit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if body, jsonErr := json.Marshal(top); jsonErr == nil {
			ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
			defer cancel()
			if err := s.cache.Set(ctx, topStoresCacheKey, body, topStoresCacheTTL).Err(); err != nil {
				log.Printf("Warning: top stores cache write failed: %v", err)
			}
		}
	}
	return top, nil
}

// ToggleHeart flips the store's membership in the user's favorites and
// returns the updated hearts set.
func (s *StoreService) ToggleHeart(userID, storeID string) ([]string, error) {
	if _, err := s.stores.GetByID(storeID); err != nil {
		return nil, err
	}
	return s.users.ToggleHeart(userID, storeID)
}

// HeartedStores returns the stores the user favorited.
func (s *StoreService) HeartedStores(userID string) ([]models.Store, error) {
	return s.users.HeartedStores(userID)
}

// SetPhoto records the uploaded photo key on the store after an ownership
// check.
func (s *StoreService) SetPhoto(storeID, actingUserID, photoKey string) error {
	if _, err := s.AuthorizeEdit(storeID, actingUserID); err != nil {
		return err
	}
	return s.stores.SetPhoto(storeID, photoKey)
}

// publishEvent sends a domain event to RabbitMQ. Publishing is best effort:
// failures are logged and never fail the write that triggered them.
func (s *StoreService) publishEvent(eventType string, payload map[string]interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishEvent(eventType, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
