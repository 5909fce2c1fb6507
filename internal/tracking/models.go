package tracking

import (
	"time"

	"github.com/lib/pq"
)

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Geofence is a circular safe zone. The system tracks a single active zone:
// the lowest-id row with status "active" (see gormGeofenceStore.ActiveGeofence).
type Geofence struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	CenterLat    float64   `json:"center_lat"`
	CenterLng    float64   `json:"center_lng"`
	RadiusMeters float64   `gorm:"column:radius" json:"radius"`
	Status       string    `gorm:"default:'active';index" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (g *Geofence) Center() GeoPoint {
	return GeoPoint{Lat: g.CenterLat, Lng: g.CenterLng}
}

// LocationSample is one device report. Rows are append-only; InsideGeofence is
// computed once at write time against the geofence active at that moment and
// never recomputed.
type LocationSample struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ChildID        uint      `gorm:"index;not null" json:"child_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Accuracy       *float64  `json:"accuracy"`
	BatteryLevel   *int      `json:"battery_level"`
	InsideGeofence bool      `json:"inside_geofence"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
}

// Alert is an append-only record of an alerting decision. SentTo holds the
// resolved recipient user ids at the time the alert was raised.
type Alert struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ChildID   uint          `gorm:"index;not null" json:"child_id"`
	AlertType string        `gorm:"index" json:"alert_type"`
	Message   string        `json:"message"`
	Severity  string        `gorm:"default:'warning'" json:"severity"`
	SentTo    pq.Int64Array `gorm:"type:bigint[]" json:"sent_to"`
	CreatedAt time.Time     `json:"created_at"`
}

func (Geofence) TableName() string       { return "tracking.geofences" }
func (LocationSample) TableName() string { return "tracking.location_samples" }
func (Alert) TableName() string          { return "tracking.alerts" }
