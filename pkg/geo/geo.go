// Package geo provides the small amount of spherical geometry the
// proximity search needs: great-circle distance and a bounding box used to
// prefilter candidate rows before the exact distance check.
package geo

import "math"

// earthRadiusMeters is the mean earth radius.
const earthRadiusMeters = 6371000.0

// Distance returns the great-circle (haversine) distance in meters between
// two (longitude, latitude) points given in degrees.
func Distance(lng1, lat1, lng2, lat2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	MinLng, MaxLng float64
	MinLat, MaxLat float64
}

// BoundingBox returns a rectangle that contains every point within
// radiusMeters of the given point. Near the poles the longitude span is
// clamped to the full range.
func BoundingBox(lng, lat, radiusMeters float64) Bounds {
	dLat := radiusMeters / earthRadiusMeters * 180 / math.Pi

	cosLat := math.Cos(lat * math.Pi / 180)
	var dLng float64
	if cosLat < 1e-10 {
		dLng = 180
	} else {
		dLng = dLat / cosLat
	}
	if dLng > 180 {
		dLng = 180
	}

	return Bounds{
		MinLng: lng - dLng,
		MaxLng: lng + dLng,
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
	}
}
