package repositories

import "storefinder/internal/models"

// StoreRepository defines the interface for store data access.
type StoreRepository interface {
	Create(store *models.Store) error
	Update(store *models.Store) error
	GetByID(id string) (*models.Store, error)
	GetBySlug(slug string) (*models.Store, error)
	GetAll() ([]models.Store, error)
	// ListByTag returns every store carrying the given tag.
	ListByTag(tag string) ([]models.Store, error)
	// ListSlugsLike returns all existing slugs that are either exactly base
	// or start with "base-", case-insensitively. The caller narrows the
	// result down to numeric suffixes.
	ListSlugsLike(base string) ([]string, error)
	// NearBy returns stores within radiusMeters of the point, nearest
	// first, capped at limit.
	NearBy(lng, lat, radiusMeters float64, limit int) ([]models.StoreSummary, error)
	// Search returns stores matching the free-text query ranked by
	// relevance descending, capped at limit.
	Search(query string, limit int) ([]models.SearchResult, error)
	// TagCounts groups every (store, tag) pair by tag value and counts
	// occurrences, ordered by count descending then tag ascending.
	TagCounts() ([]models.TagCount, error)
	// TopStores joins stores with their reviews, keeps stores with at
	// least minReviews reviews, and returns them ordered by mean rating
	// descending (id ascending on ties), capped at limit.
	TopStores(minReviews, limit int) ([]models.TopStore, error)
	// SetPhoto records the stored photo key on the store.
	SetPhoto(id, photo string) error
}
