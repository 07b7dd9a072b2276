package model

import (
	"fmt"
	"math"
)

// GeoCoordinate is a WGS84 position.
type GeoCoordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// NewGeoCoordinate validates the latitude and longitude ranges.
func NewGeoCoordinate(lat, lng float64) (*GeoCoordinate, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude out of range: %v", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("longitude out of range: %v", lng)
	}
	return &GeoCoordinate{Latitude: lat, Longitude: lng}, nil
}

// Equal reports whether both coordinates are equal. Two nil coordinates are equal.
func (g *GeoCoordinate) Equal(o *GeoCoordinate) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.Latitude == o.Latitude && g.Longitude == o.Longitude
}

// DistanceKM returns the great-circle distance between g and o.
func (g *GeoCoordinate) DistanceKM(o *GeoCoordinate) float64 {
	const earthRadiusKM = 6371.0
	lat1 := g.Latitude * math.Pi / 180
	lat2 := o.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (o.Longitude - g.Longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

func (g *GeoCoordinate) String() string {
	if g == nil {
		return ""
	}
	return fmt.Sprintf("%.6f,%.6f", g.Latitude, g.Longitude)
}
