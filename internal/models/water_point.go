package models

import "time"

const (
	PointTypeFountain     = "fountain"
	PointTypeTap          = "tap"
	PointTypeFilter       = "filter"
	PointTypeBottleRefill = "bottle_refill"

	PointStatusActive      = "active"
	PointStatusMaintenance = "maintenance"
	PointStatusInactive    = "inactive"
)

// Defaults applied to newly registered points.
const (
	DefaultPointRating       = 3.0
	DefaultPointOpeningHours = "24/7"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WaterPoint is a physical water-access location.
type WaterPoint struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Type                string      `json:"type,omitempty"`
	Status              string      `json:"status"`
	Coordinates         Coordinates `json:"coordinates"`
	Address             string      `json:"address"`
	Rating              float64     `json:"rating"`
	OpeningHours        string      `json:"opening_hours"`
	LastMaintenanceDate *time.Time  `json:"last_maintenance_date,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// NearbyWaterPoint pairs a point with its distance from the search origin.
type NearbyWaterPoint struct {
	WaterPoint
	DistanceKM float64 `json:"distance_km"`
}

// CoordinatesInput keeps lat/lng optional so missing values are detected.
type CoordinatesInput struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// CreateWaterPointRequest registers a new point.
type CreateWaterPointRequest struct {
	Name                string            `json:"name" validate:"required"`
	Type                string            `json:"type" validate:"omitempty,oneof=fountain tap filter bottle_refill"`
	Status              string            `json:"status" validate:"omitempty,oneof=active maintenance inactive"`
	Coordinates         *CoordinatesInput `json:"coordinates" validate:"required"`
	Address             string            `json:"address"`
	OpeningHours        string            `json:"opening_hours"`
	LastMaintenanceDate *time.Time        `json:"last_maintenance_date"`
}

// UpdateWaterPointRequest is the maintenance update payload.
type UpdateWaterPointRequest struct {
	Status              *string    `json:"status" validate:"omitempty,oneof=active maintenance inactive"`
	OpeningHours        *string    `json:"opening_hours"`
	Address             *string    `json:"address"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
}

// NearbyQuery searches points around a position.
type NearbyQuery struct {
	Lat      float64 `validate:"latitude"`
	Lng      float64 `validate:"longitude"`
	RadiusKM float64 `validate:"gt=0,lte=100"`
}
