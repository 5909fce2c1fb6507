package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/SafeTrack/ST-Backend/internal/notify"
	"github.com/lib/pq"
)

var (
	// ErrDeviceNotFound means no active child is paired with the reporting
	// device. The caller gets a 404 and must fix the pairing; retrying the
	// same request will not help.
	ErrDeviceNotFound = errors.New("device not found")
)

// ValidationError covers malformed ingestion requests. These map to 400 and
// are never retried automatically.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func missingField(field string) *ValidationError {
	return &ValidationError{msg: "Missing required field: " + field}
}

// StorageError wraps persistence failures, including timeouts. The whole
// request is safe to retry: sample and alerts commit in one transaction, so a
// failed ingestion leaves no partial state behind.
type StorageError struct {
	err error
}

func (e *StorageError) Error() string { return "storage: " + e.err.Error() }
func (e *StorageError) Unwrap() error { return e.err }

// Subject is the resolved child a device reports for. The directory owns the
// full child record; ingestion only needs the id and a display name for alert
// messages.
type Subject struct {
	ID   uint
	Name string
}

// SubjectDirectory resolves devices to children and children to alert
// recipients. Backed by the family package's tables in production.
type SubjectDirectory interface {
	// FindActiveChildByDevice returns nil with no error when no active child
	// has the device id.
	FindActiveChildByDevice(ctx context.Context, deviceID string) (*Subject, error)

	// ChildRecipients returns the active guardians and teachers linked to a
	// child.
	ChildRecipients(ctx context.Context, childID uint) ([]notify.Recipient, error)
}

// GeofenceStore fetches the single active geofence, if any.
type GeofenceStore interface {
	// ActiveGeofence returns the lowest-id active fence, or nil when none
	// exists.
	ActiveGeofence(ctx context.Context) (*Geofence, error)
}

// LocationStore reads and writes location samples and their alerts.
type LocationStore interface {
	// LatestSample returns the child's most recent sample, or nil when the
	// child has never reported.
	LatestSample(ctx context.Context, childID uint) (*LocationSample, error)

	// AppendReport writes the sample and any alerts as one transaction. A
	// reader must never observe the alerts without the sample that triggered
	// them, or vice versa.
	AppendReport(ctx context.Context, sample *LocationSample, alerts []Alert) error
}

// UpdateLocationRequest is the device report payload. Latitude and Longitude
// are pointers so a missing field can be told apart from a zero coordinate.
type UpdateLocationRequest struct {
	DeviceID     string   `json:"device_id"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Accuracy     *float64 `json:"accuracy"`
	BatteryLevel *int     `json:"battery_level"`
}

// UpdateLocationResult reports the outcome of a successful ingestion.
type UpdateLocationResult struct {
	ChildID        uint
	InsideGeofence bool
	Alerts         []Alert
}

// Service orchestrates location ingestion: resolve device, evaluate the
// geofence, decide alerts, persist, dispatch. It is stateless between
// requests; all state lives in the persisted samples.
type Service struct {
	dir        SubjectDirectory
	fences     GeofenceStore
	locations  LocationStore
	dispatcher notify.Dispatcher

	// Bound on all persistence work for one report.
	timeout time.Duration

	// Per-child locks serialize the previous-sample read against the
	// new-sample write. Two concurrent reports for the same child must not
	// both read the same "previously inside" state and double-fire an exit
	// alert. Different children never contend.
	mu         sync.Mutex
	childLocks map[uint]*sync.Mutex
}

const defaultPersistTimeout = 5 * time.Second

func NewService(dir SubjectDirectory, fences GeofenceStore, locations LocationStore, dispatcher notify.Dispatcher) *Service {
	return &Service{
		dir:        dir,
		fences:     fences,
		locations:  locations,
		dispatcher: dispatcher,
		timeout:    defaultPersistTimeout,
		childLocks: make(map[uint]*sync.Mutex),
	}
}

func (s *Service) lockChild(childID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.childLocks[childID]
	if !ok {
		lock = &sync.Mutex{}
		s.childLocks[childID] = lock
	}
	return lock
}

func validate(req UpdateLocationRequest) error {
	if req.DeviceID == "" {
		return missingField("device_id")
	}
	if req.Latitude == nil {
		return missingField("latitude")
	}
	if req.Longitude == nil {
		return missingField("longitude")
	}
	for _, v := range [...]float64{*req.Latitude, *req.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{msg: "Invalid coordinate"}
		}
	}
	if req.BatteryLevel != nil && (*req.BatteryLevel < 0 || *req.BatteryLevel > 100) {
		return &ValidationError{msg: "Invalid battery_level"}
	}
	return nil
}

// UpdateLocation runs one device report through the full pipeline. Validation
// and device resolution are pure reads and fail before any write.
func (s *Service) UpdateLocation(ctx context.Context, req UpdateLocationRequest) (UpdateLocationResult, error) {
	var res UpdateLocationResult

	if err := validate(req); err != nil {
		return res, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	child, err := s.dir.FindActiveChildByDevice(ctx, req.DeviceID)
	if err != nil {
		return res, &StorageError{err: fmt.Errorf("resolve device: %w", err)}
	}
	if child == nil {
		return res, ErrDeviceNotFound
	}

	// Serialize the read-decide-write window per child.
	lock := s.lockChild(child.ID)
	lock.Lock()
	defer lock.Unlock()

	fence, err := s.fences.ActiveGeofence(ctx)
	if err != nil {
		return res, &StorageError{err: fmt.Errorf("fetch geofence: %w", err)}
	}

	last, err := s.locations.LatestSample(ctx, child.ID)
	if err != nil {
		return res, &StorageError{err: fmt.Errorf("fetch latest sample: %w", err)}
	}

	point := GeoPoint{Lat: *req.Latitude, Lng: *req.Longitude}
	inside, err := Inside(point, fence)
	if err != nil {
		// Finite inputs were checked above, so a bad fence row is a data
		// problem, not a caller problem.
		return res, &StorageError{err: fmt.Errorf("evaluate geofence: %w", err)}
	}

	var prevInside *bool
	if last != nil {
		prevInside = &last.InsideGeofence
	}

	drafts := DecideAlerts(prevInside, inside, req.BatteryLevel, child.Name)

	sample := LocationSample{
		ChildID:        child.ID,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Accuracy:       req.Accuracy,
		BatteryLevel:   req.BatteryLevel,
		InsideGeofence: inside,
		Timestamp:      time.Now().UTC(),
	}

	alerts, notifications, err := s.buildAlerts(ctx, child, drafts)
	if err != nil {
		return res, &StorageError{err: err}
	}

	if err := s.locations.AppendReport(ctx, &sample, alerts); err != nil {
		return res, &StorageError{err: fmt.Errorf("persist report: %w", err)}
	}

	// Alerts are durable at this point; delivery is best-effort and a
	// failure must not surface to the device.
	s.dispatch(ctx, notifications)

	res.ChildID = child.ID
	res.InsideGeofence = inside
	res.Alerts = alerts
	return res, nil
}

// buildAlerts resolves recipients for drafts that fan out. Only geofence
// exits notify guardians and teachers; low-battery alerts are recorded for
// the dashboards with an empty recipient set.
func (s *Service) buildAlerts(ctx context.Context, child *Subject, drafts []AlertDraft) ([]Alert, []notify.Notification, error) {
	if len(drafts) == 0 {
		return nil, nil, nil
	}

	var recipients []notify.Recipient
	for _, d := range drafts {
		if d.Type == AlertTypeGeofenceExit {
			var err error
			recipients, err = s.dir.ChildRecipients(ctx, child.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("resolve recipients: %w", err)
			}
			break
		}
	}

	alerts := make([]Alert, 0, len(drafts))
	var notifications []notify.Notification
	for _, d := range drafts {
		sentTo := pq.Int64Array{}
		if d.Type == AlertTypeGeofenceExit {
			for _, r := range recipients {
				sentTo = append(sentTo, r.UserID)
			}
			notifications = append(notifications, notify.Notification{
				ChildID:    child.ID,
				AlertType:  d.Type,
				Message:    d.Message,
				Recipients: recipients,
			})
		}
		alerts = append(alerts, Alert{
			ChildID:   child.ID,
			AlertType: d.Type,
			Message:   d.Message,
			Severity:  d.Severity,
			SentTo:    sentTo,
		})
	}
	return alerts, notifications, nil
}

func (s *Service) dispatch(ctx context.Context, notifications []notify.Notification) {
	if s.dispatcher == nil {
		return
	}
	for _, n := range notifications {
		if err := s.dispatcher.Send(ctx, n); err != nil {
			log.Printf("[tracking] %s dispatch failed for child %d: %v",
				s.dispatcher.Name(), n.ChildID, err)
		}
	}
}
