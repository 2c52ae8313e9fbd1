package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	// Same point.
	assert.Equal(t, 0.0, Distance(-77.0, 38.9, -77.0, 38.9))

	// One degree of latitude is roughly 111 km.
	d := Distance(0, 0, 0, 1)
	assert.InDelta(t, 111195, d, 300)

	// Longitude degrees shrink with latitude.
	dEquator := Distance(0, 0, 1, 0)
	dHigh := Distance(0, 60, 1, 60)
	assert.Less(t, dHigh, dEquator)

	// Symmetry.
	assert.InDelta(t,
		Distance(-77.0, 38.9, -77.1, 38.8),
		Distance(-77.1, 38.8, -77.0, 38.9),
		1e-6)
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox(-77.0, 38.9, 10000)

	assert.Less(t, b.MinLat, 38.9)
	assert.Greater(t, b.MaxLat, 38.9)
	assert.Less(t, b.MinLng, -77.0)
	assert.Greater(t, b.MaxLng, -77.0)

	// The box must contain every point within the radius; check the four
	// cardinal extremes.
	for _, p := range [][2]float64{
		{-77.0, b.MinLat}, {-77.0, b.MaxLat},
	} {
		assert.LessOrEqual(t, Distance(-77.0, 38.9, p[0], p[1]), 10000*1.01)
	}

	// Near the poles the longitude span degrades to the full range
	// instead of dividing by ~zero.
	polar := BoundingBox(0, 89.9999, 10000)
	assert.LessOrEqual(t, polar.MaxLat, 90.0)
	assert.GreaterOrEqual(t, polar.MaxLng-polar.MinLng, 1.0)
}
