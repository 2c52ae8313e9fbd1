package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlug(t *testing.T) {
	// No existing slugs: the base is used as-is.
	assert.Equal(t, "cafe-blue", deriveSlug("Café Blue", nil))

	// One existing match yields suffix 2.
	assert.Equal(t, "cafe-blue-2", deriveSlug("café blue", []string{"cafe-blue"}))

	// Base and numeric suffixes all count toward the next suffix.
	assert.Equal(t, "cafe-blue-3", deriveSlug("Cafe Blue", []string{"cafe-blue", "cafe-blue-2"}))

	// Matching is case-insensitive over the existing slugs.
	assert.Equal(t, "cafe-blue-2", deriveSlug("Cafe Blue", []string{"CAFE-BLUE"}))

	// Slugs that merely share the prefix are not collisions.
	assert.Equal(t, "cafe", deriveSlug("Cafe", []string{"cafe-blue", "cafe-noir-2"}))

	// Non-numeric suffixes do not count either.
	assert.Equal(t, "cafe-blue", deriveSlug("Cafe Blue", []string{"cafe-blue-east"}))
}

func TestSlugBase(t *testing.T) {
	assert.Equal(t, "mel-s-corner-diner", slugBase("Mel's Corner Diner"))
	assert.Equal(t, "cafe-blue", slugBase("  Café   Blue  "))
}
