package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefinder/internal/models"
	"storefinder/pkg/geo"
)

// MockStoreRepository is an in-memory implementation of StoreRepository.
type MockStoreRepository struct {
	stores  map[string]models.Store
	reviews *MockReviewRepository
	mu      sync.RWMutex
}

// NewMockStoreRepository creates a new instance of MockStoreRepository.
func NewMockStoreRepository() *MockStoreRepository {
	return &MockStoreRepository{
		stores: make(map[string]models.Store),
	}
}

// UseReviews wires in the review source that TopStores aggregates over.
func (r *MockStoreRepository) UseReviews(reviews *MockReviewRepository) {
	r.reviews = reviews
}

// Create adds a new store, rejecting duplicate slugs the way the unique
// index would.
func (r *MockStoreRepository) Create(store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now()
	}
	for _, s := range r.stores {
		if strings.EqualFold(s.Slug, store.Slug) {
			return fmt.Errorf("store slug %q already taken: %w", store.Slug, models.ErrConflict)
		}
	}
	r.stores[store.ID] = *store
	return nil
}

// Update modifies an existing store.
func (r *MockStoreRepository) Update(store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.stores[store.ID]
	if !ok {
		return fmt.Errorf("store %s: %w", store.ID, models.ErrNotFound)
	}
	for _, s := range r.stores {
		if s.ID != store.ID && strings.EqualFold(s.Slug, store.Slug) {
			return fmt.Errorf("store slug %q already taken: %w", store.Slug, models.ErrConflict)
		}
	}
	store.CreatedAt = existing.CreatedAt
	store.AuthorID = existing.AuthorID
	r.stores[store.ID] = *store
	return nil
}

// GetByID returns a store by its id.
func (r *MockStoreRepository) GetByID(id string) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %s: %w", id, models.ErrNotFound)
	}
	return &store, nil
}

// GetBySlug returns a store by its slug.
func (r *MockStoreRepository) GetBySlug(slug string) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, store := range r.stores {
		if store.Slug == slug {
			s := store
			return &s, nil
		}
	}
	return nil, fmt.Errorf("store %s: %w", slug, models.ErrNotFound)
}

// GetAll returns all stores, newest first.
func (r *MockStoreRepository) GetAll() ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stores := make([]models.Store, 0, len(r.stores))
	for _, store := range r.stores {
		stores = append(stores, store)
	}
	sort.Slice(stores, func(i, j int) bool {
		return stores[i].CreatedAt.After(stores[j].CreatedAt)
	})
	return stores, nil
}

// ListByTag returns every store carrying the given tag.
func (r *MockStoreRepository) ListByTag(tag string) ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stores []models.Store
	for _, store := range r.stores {
		for _, t := range store.Tags {
			if t == tag {
				stores = append(stores, store)
				break
			}
		}
	}
	sort.Slice(stores, func(i, j int) bool {
		return stores[i].CreatedAt.After(stores[j].CreatedAt)
	})
	return stores, nil
}

// ListSlugsLike returns slugs equal to base or starting with "base-",
// case-insensitively.
func (r *MockStoreRepository) ListSlugsLike(base string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	base = strings.ToLower(base)
	var slugs []string
	for _, store := range r.stores {
		s := strings.ToLower(store.Slug)
		if s == base || strings.HasPrefix(s, base+"-") {
			slugs = append(slugs, store.Slug)
		}
	}
	return slugs, nil
}

// NearBy returns stores within radiusMeters, nearest first, capped at limit.
func (r *MockStoreRepository) NearBy(lng, lat, radiusMeters float64, limit int) ([]models.StoreSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var summaries []models.StoreSummary
	for _, s := range r.stores {
		d := geo.Distance(lng, lat, s.Longitude, s.Latitude)
		if d > radiusMeters {
			continue
		}
		summaries = append(summaries, models.StoreSummary{
			Slug:           s.Slug,
			Name:           s.Name,
			Description:    s.Description,
			Address:        s.Address,
			Longitude:      s.Longitude,
			Latitude:       s.Latitude,
			Photo:          s.Photo,
			DistanceMeters: d,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].DistanceMeters != summaries[j].DistanceMeters {
			return summaries[i].DistanceMeters < summaries[j].DistanceMeters
		}
		return summaries[i].Slug < summaries[j].Slug
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Search scores stores by substring match: 2 points for a name hit, 1 for
// a description hit. Matches the relevance shape of the SQL fallback.
func (r *MockStoreRepository) Search(query string, limit int) ([]models.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.SearchResult{}, nil
	}
	var results []models.SearchResult
	for _, s := range r.stores {
		score := 0.0
		if strings.Contains(strings.ToLower(s.Name), query) {
			score += 2.0
		}
		if strings.Contains(strings.ToLower(s.Description), query) {
			score += 1.0
		}
		if score > 0 {
			results = append(results, models.SearchResult{Store: s, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Store.ID < results[j].Store.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// TagCounts aggregates (store, tag) pairs by tag value.
func (r *MockStoreRepository) TagCounts() ([]models.TagCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byTag := make(map[string]int64)
	for _, store := range r.stores {
		for _, tag := range store.Tags {
			byTag[tag]++
		}
	}
	counts := make([]models.TagCount, 0, len(byTag))
	for tag, count := range byTag {
		counts = append(counts, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	return counts, nil
}

// TopStores aggregates over the attached review source.
func (r *MockStoreRepository) TopStores(minReviews, limit int) ([]models.TopStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var top []models.TopStore
	for _, store := range r.stores {
		var reviews []models.Review
		if r.reviews != nil {
			reviews, _ = r.reviews.ListByStore(store.ID)
		}
		if len(reviews) < minReviews {
			continue
		}
		sum := 0
		for _, rev := range reviews {
			sum += rev.Rating
		}
		top = append(top, models.TopStore{
			ID:            store.ID,
			Name:          store.Name,
			Slug:          store.Slug,
			Photo:         store.Photo,
			AverageRating: float64(sum) / float64(len(reviews)),
			ReviewCount:   int64(len(reviews)),
		})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].AverageRating != top[j].AverageRating {
			return top[i].AverageRating > top[j].AverageRating
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// SetPhoto records the photo key on the store.
func (r *MockStoreRepository) SetPhoto(id, photo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[id]
	if !ok {
		return fmt.Errorf("store %s: %w", id, models.ErrNotFound)
	}
	store.Photo = photo
	r.stores[id] = store
	return nil
}
