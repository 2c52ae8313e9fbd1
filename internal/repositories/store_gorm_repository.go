package repositories

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefinder/internal/models"
	"storefinder/pkg/geo"
)

// GORMStoreRepository is a GORM implementation of StoreRepository.
type GORMStoreRepository struct {
	db *gorm.DB
}

// NewGORMStoreRepository creates a new instance of GORMStoreRepository.
func NewGORMStoreRepository(db *gorm.DB) *GORMStoreRepository {
	return &GORMStoreRepository{
		db: db,
	}
}

// Create inserts the store and its tag rows in one transaction. A slug
// collision surfaces as models.ErrConflict so the service can recompute
// the suffix and retry.
func (r *GORMStoreRepository) Create(store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(store).Error; err != nil {
			return err
		}
		return replaceTags(tx, store.ID, store.Tags)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("store slug %q already taken: %w", store.Slug, models.ErrConflict)
		}
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

// Update saves the store's columns and replaces its tag rows.
func (r *GORMStoreRepository) Update(store *models.Store) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Store{}).Where("id = ?", store.ID).Updates(map[string]interface{}{
			"name":        store.Name,
			"slug":        store.Slug,
			"description": store.Description,
			"address":     store.Address,
			"longitude":   store.Longitude,
			"latitude":    store.Latitude,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return replaceTags(tx, store.ID, store.Tags)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("store slug %q already taken: %w", store.Slug, models.ErrConflict)
		}
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("store %s: %w", store.ID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to update store %s: %w", store.ID, err)
	}
	return nil
}

// GetByID retrieves a single store with its tags.
func (r *GORMStoreRepository) GetByID(id string) (*models.Store, error) {
	return r.getOne("id = ?", id)
}

// GetBySlug retrieves a single store with its tags.
func (r *GORMStoreRepository) GetBySlug(slug string) (*models.Store, error) {
	return r.getOne("slug = ?", slug)
}

func (r *GORMStoreRepository) getOne(cond string, arg string) (*models.Store, error) {
	var store models.Store
	if err := r.db.First(&store, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store %s: %w", arg, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store %s: %w", arg, err)
	}
	if err := r.loadTags(&store); err != nil {
		return nil, err
	}
	return &store, nil
}

// GetAll retrieves every store with its tags, newest first.
func (r *GORMStoreRepository) GetAll() ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.Order("created_at DESC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to get all stores: %w", err)
	}
	if err := r.loadTagsAll(stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// ListByTag retrieves every store carrying the given tag, newest first.
func (r *GORMStoreRepository) ListByTag(tag string) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.
		Joins("JOIN store_tags ON store_tags.store_id = stores.id").
		Where("store_tags.tag = ?", tag).
		Order("stores.created_at DESC").
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stores by tag %q: %w", tag, err)
	}
	if err := r.loadTagsAll(stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// ListSlugsLike returns every slug equal to base or starting with "base-",
// case-insensitively. lower() on both sides keeps the comparison
// case-insensitive on Postgres, where LIKE is case-sensitive.
func (r *GORMStoreRepository) ListSlugsLike(base string) ([]string, error) {
	var slugs []string
	err := r.db.Model(&models.Store{}).
		Where("lower(slug) = lower(?) OR lower(slug) LIKE lower(?) || '-%'", base, base).
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs like %q: %w", base, err)
	}
	return slugs, nil
}

// NearBy prefilters candidates with a bounding-box query, then applies the
// exact great-circle distance and sorts nearest first.
func (r *GORMStoreRepository) NearBy(lng, lat, radiusMeters float64, limit int) ([]models.StoreSummary, error) {
	b := geo.BoundingBox(lng, lat, radiusMeters)

	var stores []models.Store
	err := r.db.
		Where("latitude BETWEEN ? AND ?", b.MinLat, b.MaxLat).
		Where("longitude BETWEEN ? AND ?", b.MinLng, b.MaxLng).
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stores near (%f, %f): %w", lng, lat, err)
	}

	summaries := make([]models.StoreSummary, 0, len(stores))
	for _, s := range stores {
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

// Search ranks stores against the query. On Postgres it uses the full-text
// index over name and description; elsewhere (in-memory SQLite under test)
// it falls back to a LIKE-based score so the contract stays observable.
func (r *GORMStoreRepository) Search(query string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	type row struct {
		models.Store
		Score float64
	}
	var rows []row

	if r.db.Dialector.Name() == "postgres" {
		err := r.db.Raw(`
			SELECT s.*, ts_rank(
				to_tsvector('english', s.name || ' ' || coalesce(s.description, '')),
				plainto_tsquery('english', ?)) AS score
			FROM stores s
			WHERE to_tsvector('english', s.name || ' ' || coalesce(s.description, ''))
				@@ plainto_tsquery('english', ?)
			ORDER BY score DESC, s.id ASC
			LIMIT ?`, query, query, limit).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to search stores for %q: %w", query, err)
		}
	} else {
		pattern := "%" + strings.ToLower(query) + "%"
		err := r.db.Raw(`
			SELECT s.*,
				(CASE WHEN lower(s.name) LIKE ? THEN 2.0 ELSE 0.0 END) +
				(CASE WHEN lower(s.description) LIKE ? THEN 1.0 ELSE 0.0 END) AS score
			FROM stores s
			WHERE lower(s.name) LIKE ? OR lower(s.description) LIKE ?
			ORDER BY score DESC, s.id ASC
			LIMIT ?`, pattern, pattern, pattern, pattern, limit).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to search stores for %q: %w", query, err)
		}
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, rw := range rows {
		results = append(results, models.SearchResult{Store: rw.Store, Score: rw.Score})
	}
	return results, nil
}

// TagCounts aggregates (store, tag) pairs by tag value.
func (r *GORMStoreRepository) TagCounts() ([]models.TagCount, error) {
	var counts []models.TagCount
	err := r.db.Model(&models.StoreTag{}).
		Select("tag, COUNT(*) AS count").
		Group("tag").
		Order("count DESC, tag ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tags: %w", err)
	}
	return counts, nil
}

// TopStores joins stores with their reviews and keeps only stores that
// reached minReviews reviews.
func (r *GORMStoreRepository) TopStores(minReviews, limit int) ([]models.TopStore, error) {
	var top []models.TopStore
	err := r.db.Raw(`
		SELECT s.id, s.name, s.slug, s.photo,
			AVG(CAST(r.rating AS REAL)) AS average_rating,
			COUNT(r.id) AS review_count
		FROM stores s
		JOIN reviews r ON r.store_id = s.id
		GROUP BY s.id, s.name, s.slug, s.photo
		HAVING COUNT(r.id) >= ?
		ORDER BY average_rating DESC, s.id ASC
		LIMIT ?`, minReviews, limit).Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top stores: %w", err)
	}
	return top, nil
}

// SetPhoto records the stored photo key on the store.
func (r *GORMStoreRepository) SetPhoto(id, photo string) error {
	res := r.db.Model(&models.Store{}).Where("id = ?", id).Update("photo", photo)
	if res.Error != nil {
		return fmt.Errorf("failed to set photo for store %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// replaceTags rewrites the ordered tag rows for a store.
func replaceTags(tx *gorm.DB, storeID string, tags []string) error {
	if err := tx.Delete(&models.StoreTag{}, "store_id = ?", storeID).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]models.StoreTag, 0, len(tags))
	for i, tag := range tags {
		rows = append(rows, models.StoreTag{StoreID: storeID, Position: i, Tag: tag})
	}
	return tx.Create(&rows).Error
}

func (r *GORMStoreRepository) loadTags(store *models.Store) error {
	var rows []models.StoreTag
	err := r.db.Where("store_id = ?", store.ID).Order("position ASC").Find(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to load tags for store %s: %w", store.ID, err)
	}
	store.Tags = make([]string, 0, len(rows))
	for _, row := range rows {
		store.Tags = append(store.Tags, row.Tag)
	}
	return nil
}

func (r *GORMStoreRepository) loadTagsAll(stores []models.Store) error {
	if len(stores) == 0 {
		return nil
	}
	ids := make([]string, 0, len(stores))
	for i := range stores {
		ids = append(ids, stores[i].ID)
	}
	var rows []models.StoreTag
	err := r.db.Where("store_id IN ?", ids).Order("position ASC").Find(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	byStore := make(map[string][]string, len(stores))
	for _, row := range rows {
		byStore[row.StoreID] = append(byStore[row.StoreID], row.Tag)
	}
	for i := range stores {
		stores[i].Tags = byStore[stores[i].ID]
		if stores[i].Tags == nil {
			stores[i].Tags = []string{}
		}
	}
	return nil
}
