package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storefinder/internal/models"
	"storefinder/internal/services"
	"storefinder/pkg/storage"
)

// photoURLExpiry bounds the lifetime of pre-signed photo links.
const photoURLExpiry = time.Hour

// StoreHandler handles HTTP requests for stores, tags, search and hearts.
type StoreHandler struct {
	stores   *services.StoreService
	photos   storage.ObjectStore
	validate *validator.Validate
}

// NewStoreHandler creates a new StoreHandler. photos may be nil; photo
// uploads are then rejected as unavailable.
func NewStoreHandler(stores *services.StoreService, photos storage.ObjectStore) *StoreHandler {
	return &StoreHandler{
		stores:   stores,
		photos:   photos,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public store routes. The static /stores
// subpaths are registered before the :slug parameter route so they are
// matched first.
func (h *StoreHandler) RegisterRoutes(router fiber.Router) {
	storeRoutes := router.Group("/stores")
	storeRoutes.Get("/", h.HandleListStores)
	storeRoutes.Get("/top", h.HandleTopStores)
	storeRoutes.Get("/near", h.HandleNear)
	storeRoutes.Get("/search", h.HandleSearch)
	storeRoutes.Get("/:slug", h.HandleGetStoreBySlug)

	tagRoutes := router.Group("/tags")
	tagRoutes.Get("/", h.HandleListTags)
	tagRoutes.Get("/:tag", h.HandleTagPage)
}

// RegisterProtectedRoutes registers the routes that require a valid token.
func (h *StoreHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/stores", h.HandleCreateStore)
	router.Put("/stores/:id", h.HandleUpdateStore)
	router.Post("/stores/:id/photo", h.HandleUploadPhoto)
	router.Post("/stores/:id/heart", h.HandleToggleHeart)
	router.Get("/hearts", h.HandleHeartedStores)
}

// StoreRequest represents the request body for creating or editing a
// store. Coordinates are pointers so a missing field is distinguishable
// from zero.
type StoreRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=120"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Address     string   `json:"address" validate:"required"`
	Longitude   *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Latitude    *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Tags        []string `json:"tags" validate:"omitempty,dive,min=1,max=60"`
}

func (req *StoreRequest) toStore() *models.Store {
	return &models.Store{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Longitude:   *req.Longitude,
		Latitude:    *req.Latitude,
		Tags:        req.Tags,
	}
}

// HandleListStores returns all stores.
func (h *StoreHandler) HandleListStores(c *fiber.Ctx) error {
	stores, err := h.stores.ListStores()
	if err != nil {
		log.Printf("Error listing stores: %v", err)
		return respondError(c, err)
	}
	return c.JSON(stores)
}

// HandleCreateStore creates a new store authored by the acting user.
func (h *StoreHandler) HandleCreateStore(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	store := req.toStore()
	if err := h.stores.CreateStore(store, actingUserID(c)); err != nil {
		log.Printf("Error creating store: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(store)
}

// HandleUpdateStore edits a store after an ownership check.
func (h *StoreHandler) HandleUpdateStore(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	store, err := h.stores.UpdateStore(c.Params("id"), actingUserID(c), req.toStore())
	if err != nil {
		log.Printf("Error updating store %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(store)
}

// HandleGetStoreBySlug returns a single store with its author and reviews.
func (h *StoreHandler) HandleGetStoreBySlug(c *fiber.Ctx) error {
	store, err := h.stores.GetStoreBySlug(c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(store)
}

// HandleTopStores returns the top-rated stores.
func (h *StoreHandler) HandleTopStores(c *fiber.Ctx) error {
	top, err := h.stores.TopStores()
	if err != nil {
		log.Printf("Error aggregating top stores: %v", err)
		return respondError(c, err)
	}
	return c.JSON(top)
}

// HandleNear returns stores within 10 km of the given point.
func (h *StoreHandler) HandleNear(c *fiber.Ctx) error {
	summaries, err := h.stores.Near(c.Query("lng"), c.Query("lat"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries)
}

// HandleSearch returns stores ranked by relevance to the q parameter.
func (h *StoreHandler) HandleSearch(c *fiber.Ctx) error {
	results, err := h.stores.Search(c.Query("q"))
	if err != nil {
		log.Printf("Error searching stores: %v", err)
		return respondError(c, err)
	}
	return c.JSON(results)
}

// HandleListTags returns tag values with usage counts.
func (h *StoreHandler) HandleListTags(c *fiber.Ctx) error {
	tags, err := h.stores.ListTags()
	if err != nil {
		log.Printf("Error listing tags: %v", err)
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// HandleTagPage returns the tag counts plus the stores carrying the tag.
func (h *StoreHandler) HandleTagPage(c *fiber.Ctx) error {
	tags, stores, err := h.stores.TagPage(c.Params("tag"))
	if err != nil {
		log.Printf("Error building tag page: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"tags":   tags,
		"stores": stores,
	})
}

// HandleToggleHeart flips the store in the acting user's favorites and
// returns the updated hearts set.
func (h *StoreHandler) HandleToggleHeart(c *fiber.Ctx) error {
	hearts, err := h.stores.ToggleHeart(actingUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"hearts": hearts,
	})
}

// HandleHeartedStores returns the stores the acting user favorited.
func (h *StoreHandler) HandleHeartedStores(c *fiber.Ctx) error {
	stores, err := h.stores.HeartedStores(actingUserID(c))
	if err != nil {
		log.Printf("Error listing hearted stores: %v", err)
		return respondError(c, err)
	}
	return c.JSON(stores)
}

// HandleUploadPhoto stores the uploaded image in object storage and records
// its key on the store. Only the owner may change the photo; the ownership
// check runs before anything is written to object storage.
func (h *StoreHandler) HandleUploadPhoto(c *fiber.Ctx) error {
	if h.photos == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Photo storage is not configured",
		})
	}

	store, err := h.stores.AuthorizeEdit(c.Params("id"), actingUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A 'photo' file field is required",
		})
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return respondError(c, fmt.Errorf("unsupported photo content type %q: %w", contentType, models.ErrValidation))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, fmt.Errorf("failed to open uploaded photo: %w", err))
	}
	defer file.Close()

	key := uuid.New().String() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	if err := h.photos.Put(c.Context(), key, file, fileHeader.Size, contentType); err != nil {
		log.Printf("Error storing photo for store %s: %v", store.ID, err)
		return respondError(c, err)
	}

	if err := h.stores.SetPhoto(store.ID, actingUserID(c), key); err != nil {
		// The store changed between the check and the write; the object
		// just stored belongs to nothing, remove it.
		if delErr := h.photos.Delete(c.Context(), key); delErr != nil {
			log.Printf("Warning: failed to delete orphaned photo %s: %v", key, delErr)
		}
		return respondError(c, err)
	}

	if store.Photo != "" && store.Photo != key {
		if delErr := h.photos.Delete(c.Context(), store.Photo); delErr != nil {
			log.Printf("Warning: failed to delete replaced photo %s: %v", store.Photo, delErr)
		}
	}

	url, err := h.photos.PresignGet(c.Context(), key, photoURLExpiry)
	if err != nil {
		log.Printf("Warning: failed to presign photo URL for %s: %v", key, err)
		url = ""
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"photo": key,
		"url":   url,
	})
}
