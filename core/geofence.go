package core

import (
	"fmt"
	"math"
)

// DefaultGeofenceThresholdMeters is how far from the site a device may report
// before the check fails.
const DefaultGeofenceThresholdMeters = 150.0

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeofenceResult reports the proximity check. Skipped results are always
// valid: geofencing is advisory and never blocks on missing data.
type GeofenceResult struct {
	Valid          bool    `json:"valid"`
	Skipped        bool    `json:"skipped"`
	DistanceMeters float64 `json:"distanceMeters,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// GeofenceSettings is read at call time so the enforcement toggle can be
// flipped in config without touching this code path.
type GeofenceSettings struct {
	Enforce         bool
	ThresholdMeters float64
}

// ValidateGeofence checks the reported device position against the site
// position. Either side missing means skip.
func ValidateGeofence(device, site *LatLng, settings GeofenceSettings) GeofenceResult {
	if device == nil || site == nil {
		return GeofenceResult{Valid: true, Skipped: true}
	}

	threshold := settings.ThresholdMeters
	if threshold <= 0 {
		threshold = DefaultGeofenceThresholdMeters
	}

	distance := HaversineMeters(device.Lat, device.Lng, site.Lat, site.Lng)
	if distance <= threshold {
		return GeofenceResult{Valid: true, DistanceMeters: distance}
	}

	result := GeofenceResult{
		DistanceMeters: distance,
		Message:        fmt.Sprintf("%.0fm from site, threshold %.0fm", distance, threshold),
	}
	// Enforcement is currently disabled in production: out-of-range scans
	// are recorded as valid but keep the distance for reporting.
	result.Valid = !settings.Enforce
	return result
}

// HaversineMeters is the great-circle distance between two coordinates.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
