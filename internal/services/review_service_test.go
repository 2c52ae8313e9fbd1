package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefinder/internal/models"
	"storefinder/internal/repositories"
	"storefinder/internal/services"
)

type reviewFixture struct {
	reviews *repositories.MockReviewRepository
	stores  *repositories.MockStoreRepository
	users   *repositories.MockUserRepository
	service *services.ReviewService
	author  *models.User
	store   *models.Store
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	reviews := repositories.NewMockReviewRepository()
	stores := repositories.NewMockStoreRepository()
	users := repositories.NewMockUserRepository()
	stores.UseReviews(reviews)

	author := &models.User{Email: "reviewer@example.com", Name: "Reviewer"}
	assert.NoError(t, users.Create(author))

	store := &models.Store{Name: "Shop", Slug: "shop", Address: "1 Main St", AuthorID: author.ID}
	assert.NoError(t, stores.Create(store))

	return &reviewFixture{
		reviews: reviews,
		stores:  stores,
		users:   users,
		service: services.NewReviewService(reviews, stores, users, nil, nil),
		author:  author,
		store:   store,
	}
}

func TestReviewService_AddReview(t *testing.T) {
	f := newReviewFixture(t)

	review, err := f.service.AddReview(f.store.ID, f.author.ID, "  Great spot  ", 5)
	assert.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "Great spot", review.Text)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, f.store.ID, review.StoreID)
	assert.Equal(t, f.author.ID, review.AuthorID)
}

func TestReviewService_AddReview_Validation(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.AddReview(f.store.ID, f.author.ID, "   ", 3)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.AddReview(f.store.ID, f.author.ID, "ok", 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.AddReview(f.store.ID, f.author.ID, "ok", 6)
	assert.ErrorIs(t, err, models.ErrValidation)

	// Nothing was written on the rejected attempts.
	listed, listErr := f.reviews.ListByStore(f.store.ID)
	assert.NoError(t, listErr)
	assert.Empty(t, listed)
}

func TestReviewService_AddReview_MissingReferences(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.AddReview("missing-store", f.author.ID, "ok", 3)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.service.AddReview(f.store.ID, "missing-user", "ok", 3)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReviewService_ListByStore(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.AddReview(f.store.ID, f.author.ID, "first", 4)
	assert.NoError(t, err)
	_, err = f.service.AddReview(f.store.ID, f.author.ID, "second", 5)
	assert.NoError(t, err)

	listed, err := f.service.ListByStore(f.store.ID)
	assert.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = f.service.ListByStore("missing")
	assert.NoError(t, err)
	assert.Empty(t, listed)
}
