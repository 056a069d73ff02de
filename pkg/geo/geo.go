package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := lat2Rad - lat1Rad
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Box is a lat/lng rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a rectangle containing every point within radiusKm of
// lat/lng. Near the poles the longitude span widens to the full range.
func BoundingBox(lat, lng, radiusKm float64) Box {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	box := Box{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	cosLat := math.Cos(toRadians(lat))
	if cosLat > 1e-6 {
		dLng := dLat / cosLat
		if dLng < 180 {
			box.MinLng = math.Max(lng-dLng, -180)
			box.MaxLng = math.Min(lng+dLng, 180)
		}
	}
	return box
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
