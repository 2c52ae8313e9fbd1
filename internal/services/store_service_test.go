package services_test

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"storefinder/internal/models"
	"storefinder/internal/repositories"
	"storefinder/internal/services"
)

type storeFixture struct {
	stores  *repositories.MockStoreRepository
	reviews *repositories.MockReviewRepository
	users   *repositories.MockUserRepository
	service *services.StoreService
	author  *models.User
}

func newStoreFixture(t *testing.T, cache *redis.Client) *storeFixture {
	t.Helper()
	stores := repositories.NewMockStoreRepository()
	reviews := repositories.NewMockReviewRepository()
	users := repositories.NewMockUserRepository()
	stores.UseReviews(reviews)
	users.UseStores(stores)

	author := &models.User{Email: "owner@example.com", Name: "Owner"}
	assert.NoError(t, users.Create(author))

	return &storeFixture{
		stores:  stores,
		reviews: reviews,
		users:   users,
		service: services.NewStoreService(stores, users, reviews, nil, cache),
		author:  author,
	}
}

func (f *storeFixture) mustCreate(t *testing.T, name string, lng, lat float64, tags ...string) *models.Store {
	t.Helper()
	store := &models.Store{
		Name:      name,
		Address:   "1 Main St",
		Longitude: lng,
		Latitude:  lat,
		Tags:      tags,
	}
	assert.NoError(t, f.service.CreateStore(store, f.author.ID))
	return store
}

func TestStoreService_CreateStore_DerivesUniqueSlugs(t *testing.T) {
	f := newStoreFixture(t, nil)

	first := f.mustCreate(t, "Café Blue", -77.0, 38.9)
	second := f.mustCreate(t, "café blue", -77.0, 38.9)

	assert.Equal(t, "cafe-blue", first.Slug)
	assert.Equal(t, "cafe-blue-2", second.Slug)
	assert.Equal(t, f.author.ID, first.AuthorID)
}

func TestStoreService_CreateStore_Validation(t *testing.T) {
	f := newStoreFixture(t, nil)

	err := f.service.CreateStore(&models.Store{Name: "   ", Address: "1 Main St"}, f.author.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = f.service.CreateStore(&models.Store{Name: "No Address"}, f.author.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	// Unknown author is rejected before any write.
	err = f.service.CreateStore(&models.Store{Name: "Orphan", Address: "1 Main St"}, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	all, _ := f.stores.GetAll()
	assert.Empty(t, all)
}

func TestStoreService_UpdateStore_OwnershipGuard(t *testing.T) {
	f := newStoreFixture(t, nil)
	store := f.mustCreate(t, "Corner Shop", -77.0, 38.9)

	stranger := &models.User{Email: "other@example.com", Name: "Other"}
	assert.NoError(t, f.users.Create(stranger))

	_, err := f.service.UpdateStore(store.ID, stranger.ID, &models.Store{
		Name:    "Hijacked",
		Address: "2 Side St",
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	// No state change on a rejected edit.
	current, getErr := f.stores.GetByID(store.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, "Corner Shop", current.Name)
}

func TestStoreService_UpdateStore_SlugOnlyChangesWithName(t *testing.T) {
	f := newStoreFixture(t, nil)
	store := f.mustCreate(t, "Corner Shop", -77.0, 38.9)

	// Editing without renaming keeps the slug.
	updated, err := f.service.UpdateStore(store.ID, f.author.ID, &models.Store{
		Name:        "Corner Shop",
		Description: "Now with coffee",
		Address:     "1 Main St",
		Longitude:   -77.0,
		Latitude:    38.9,
	})
	assert.NoError(t, err)
	assert.Equal(t, "corner-shop", updated.Slug)

	// Renaming recomputes the slug.
	updated, err = f.service.UpdateStore(store.ID, f.author.ID, &models.Store{
		Name:      "Corner Bakery",
		Address:   "1 Main St",
		Longitude: -77.0,
		Latitude:  38.9,
	})
	assert.NoError(t, err)
	assert.Equal(t, "corner-bakery", updated.Slug)
}

func TestStoreService_UpdateStore_RenameDoesNotCollideWithItself(t *testing.T) {
	f := newStoreFixture(t, nil)
	store := f.mustCreate(t, "Corner Shop", -77.0, 38.9)

	// A case-only rename normalizes to the same base and must keep the
	// slug rather than suffixing against its own row.
	updated, err := f.service.UpdateStore(store.ID, f.author.ID, &models.Store{
		Name:      "CORNER SHOP!",
		Address:   "1 Main St",
		Longitude: -77.0,
		Latitude:  38.9,
	})
	assert.NoError(t, err)
	assert.Equal(t, "corner-shop", updated.Slug)
}

func TestStoreService_ToggleHeart(t *testing.T) {
	f := newStoreFixture(t, nil)
	store := f.mustCreate(t, "Corner Shop", -77.0, 38.9)

	hearts, err := f.service.ToggleHeart(f.author.ID, store.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{store.ID}, hearts)

	// Toggling again in strict sequence returns to the original state.
	hearts, err = f.service.ToggleHeart(f.author.ID, store.ID)
	assert.NoError(t, err)
	assert.Empty(t, hearts)

	// Unknown store: no membership change.
	_, err = f.service.ToggleHeart(f.author.ID, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStoreService_HeartedStores(t *testing.T) {
	f := newStoreFixture(t, nil)
	a := f.mustCreate(t, "Shop A", -77.0, 38.9)
	f.mustCreate(t, "Shop B", -77.0, 38.9)

	_, err := f.service.ToggleHeart(f.author.ID, a.ID)
	assert.NoError(t, err)

	hearted, err := f.service.HeartedStores(f.author.ID)
	assert.NoError(t, err)
	assert.Len(t, hearted, 1)
	assert.Equal(t, "Shop A", hearted[0].Name)
}

func TestStoreService_TopStores(t *testing.T) {
	f := newStoreFixture(t, nil)
	good := f.mustCreate(t, "Good Shop", -77.0, 38.9)
	single := f.mustCreate(t, "Single Review Shop", -77.0, 38.9)
	f.mustCreate(t, "No Review Shop", -77.0, 38.9)

	addReview := func(storeID string, rating int) {
		assert.NoError(t, f.reviews.Create(&models.Review{
			StoreID:  storeID,
			AuthorID: f.author.ID,
			Text:     "ok",
			Rating:   rating,
		}))
	}
	addReview(good.ID, 4)
	addReview(good.ID, 5)
	addReview(single.ID, 3)

	top, err := f.service.TopStores()
	assert.NoError(t, err)
	// A store with a single review never qualifies.
	assert.Len(t, top, 1)
	assert.Equal(t, "Good Shop", top[0].Name)
	assert.Equal(t, 4.5, top[0].AverageRating)
	assert.Equal(t, int64(2), top[0].ReviewCount)
}

func TestStoreService_TopStores_CacheAndInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	f := newStoreFixture(t, cache)
	reviewService := services.NewReviewService(f.reviews, f.stores, f.users, nil, cache)

	store := f.mustCreate(t, "Cached Shop", -77.0, 38.9)
	for _, rating := range []int{4, 4} {
		_, err := reviewService.AddReview(store.ID, f.author.ID, "fine", rating)
		assert.NoError(t, err)
	}

	top, err := f.service.TopStores()
	assert.NoError(t, err)
	assert.Len(t, top, 1)
	assert.Equal(t, 4.0, top[0].AverageRating)

	// A direct repository write bypasses invalidation, so the cached
	// aggregation is served.
	assert.NoError(t, f.reviews.Create(&models.Review{
		StoreID: store.ID, AuthorID: f.author.ID, Text: "wow", Rating: 5,
	}))
	top, err = f.service.TopStores()
	assert.NoError(t, err)
	assert.Equal(t, 4.0, top[0].AverageRating)

	// Adding a review through the service drops the cache entry.
	_, err = reviewService.AddReview(store.ID, f.author.ID, "wow", 5)
	assert.NoError(t, err)
	top, err = f.service.TopStores()
	assert.NoError(t, err)
	assert.Equal(t, 4.25, top[0].AverageRating)
	assert.Equal(t, int64(4), top[0].ReviewCount)
}

func TestStoreService_Near(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.mustCreate(t, "Close Shop", -77.0, 38.95) // ~5.6 km north
	f.mustCreate(t, "Here Shop", -77.0, 38.9)
	f.mustCreate(t, "Far Shop", -77.0, 39.1) // ~22 km north

	summaries, err := f.service.Near("-77.0", "38.9")
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	// Nearest first.
	assert.Equal(t, "Here Shop", summaries[0].Name)
	assert.Equal(t, "Close Shop", summaries[1].Name)
	for _, s := range summaries {
		assert.LessOrEqual(t, s.DistanceMeters, 10000.0)
	}
}

func TestStoreService_Near_CapsAtTen(t *testing.T) {
	f := newStoreFixture(t, nil)
	for i := 0; i < 12; i++ {
		f.mustCreate(t, fmt.Sprintf("Shop %02d", i), -77.0, 38.9)
	}

	summaries, err := f.service.Near("-77.0", "38.9")
	assert.NoError(t, err)
	assert.Len(t, summaries, 10)
}

func TestStoreService_Near_RejectsBadCoordinates(t *testing.T) {
	f := newStoreFixture(t, nil)

	_, err := f.service.Near("east", "38.9")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.Near("-77.0", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.Near("-200", "38.9")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestStoreService_Search(t *testing.T) {
	f := newStoreFixture(t, nil)
	for i := 0; i < 7; i++ {
		f.mustCreate(t, fmt.Sprintf("Coffee Place %d", i), -77.0, 38.9)
	}
	best := f.mustCreate(t, "Coffee", -77.0, 38.9)
	best.Description = "coffee coffee coffee"
	_, err := f.service.UpdateStore(best.ID, f.author.ID, best)
	assert.NoError(t, err)

	results, err := f.service.Search("coffee")
	assert.NoError(t, err)
	assert.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	// Name+description hit outranks name-only hits.
	assert.Equal(t, "Coffee", results[0].Store.Name)

	// Empty query returns no results, not everything.
	results, err = f.service.Search("   ")
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreService_Tags(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.mustCreate(t, "Shop A", -77.0, 38.9, "wifi", "vegan")
	f.mustCreate(t, "Shop B", -77.0, 38.9, "wifi")
	f.mustCreate(t, "Shop C", -77.0, 38.9, "wifi", "family-friendly")

	counts, err := f.service.ListTags()
	assert.NoError(t, err)
	assert.Equal(t, models.TagCount{Tag: "wifi", Count: 3}, counts[0])

	// The counts sum to the total number of (store, tag) pairs.
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	assert.Equal(t, int64(5), total)

	tags, stores, err := f.service.TagPage("wifi")
	assert.NoError(t, err)
	assert.Len(t, tags, 3)
	assert.Len(t, stores, 3)

	_, stores, err = f.service.TagPage("vegan")
	assert.NoError(t, err)
	assert.Len(t, stores, 1)
	assert.Equal(t, "Shop A", stores[0].Name)
}

func TestStoreService_GetStoreBySlug_JoinsAuthorAndReviews(t *testing.T) {
	f := newStoreFixture(t, nil)
	store := f.mustCreate(t, "Corner Shop", -77.0, 38.9)
	assert.NoError(t, f.reviews.Create(&models.Review{
		StoreID: store.ID, AuthorID: f.author.ID, Text: "great", Rating: 5,
	}))

	got, err := f.service.GetStoreBySlug("corner-shop")
	assert.NoError(t, err)
	assert.NotNil(t, got.Author)
	assert.Equal(t, "Owner", got.Author.Name)
	assert.Len(t, got.Reviews, 1)

	_, err = f.service.GetStoreBySlug("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStoreService_SetPhoto(t *testing.T) {
	f := newStoreFixture(t, nil)
	store := f.mustCreate(t, "Corner Shop", -77.0, 38.9)

	stranger := &models.User{Email: "other@example.com", Name: "Other"}
	assert.NoError(t, f.users.Create(stranger))

	err := f.service.SetPhoto(store.ID, stranger.ID, "photo.jpg")
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.NoError(t, f.service.SetPhoto(store.ID, f.author.ID, "photo.jpg"))
	got, err := f.stores.GetByID(store.ID)
	assert.NoError(t, err)
	assert.Equal(t, "photo.jpg", got.Photo)
}
