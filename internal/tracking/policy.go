package tracking

import "fmt"

const (
	AlertTypeGeofenceExit = "geofence_exit"
	AlertTypeLowBattery   = "low_battery"

	SeverityWarning = "warning"

	// Battery percentage below which a low-battery alert fires on every sample.
	lowBatteryThreshold = 20
)

// Inside reports whether a point is inside the geofence. With no active fence
// every point counts as inside, so no exit can ever fire. The boundary is
// inclusive: a point exactly RadiusMeters from the center is inside.
func Inside(p GeoPoint, fence *Geofence) (bool, error) {
	if fence == nil {
		return true, nil
	}
	dist, err := DistanceMeters(p, fence.Center())
	if err != nil {
		return false, err
	}
	return dist <= fence.RadiusMeters, nil
}

// AlertDraft is an alerting decision before recipients are resolved and the
// row is persisted.
type AlertDraft struct {
	Type     string
	Message  string
	Severity string
}

// DecideAlerts applies the alerting rules for one sample. prevInside is nil
// when the child has no prior sample; a first-ever sample never produces an
// exit alert. The exit rule is edge-triggered (inside -> outside only), the
// battery rule is level-triggered and repeats while the battery stays low.
func DecideAlerts(prevInside *bool, curInside bool, battery *int, childName string) []AlertDraft {
	var drafts []AlertDraft

	if prevInside != nil && *prevInside && !curInside {
		drafts = append(drafts, AlertDraft{
			Type:     AlertTypeGeofenceExit,
			Message:  fmt.Sprintf("GEOFENCE ALERT: %s has left the safe zone.", childName),
			Severity: SeverityWarning,
		})
	}

	if battery != nil && *battery < lowBatteryThreshold {
		drafts = append(drafts, AlertDraft{
			Type:     AlertTypeLowBattery,
			Message:  fmt.Sprintf("LOW BATTERY ALERT: %s's device battery is at %d%%.", childName, *battery),
			Severity: SeverityWarning,
		})
	}

	return drafts
}
