package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/SafeTrack/ST-Backend/internal/notify"
)

func floatPtr(f float64) *float64 { return &f }

// mockDirectory implements SubjectDirectory without a database. A nil subject
// means no active child owns the device.
type mockDirectory struct {
	subject    *Subject
	recipients []notify.Recipient
	err        error

	mu          sync.Mutex
	lookupCalls int
}

func (m *mockDirectory) FindActiveChildByDevice(ctx context.Context, deviceID string) (*Subject, error) {
	m.mu.Lock()
	m.lookupCalls++
	m.mu.Unlock()
	return m.subject, m.err
}

func (m *mockDirectory) ChildRecipients(ctx context.Context, childID uint) ([]notify.Recipient, error) {
	return m.recipients, nil
}

type mockFenceStore struct {
	fence *Geofence
	err   error
}

func (m *mockFenceStore) ActiveGeofence(ctx context.Context) (*Geofence, error) {
	return m.fence, m.err
}

// mockLocationStore keeps samples in memory and updates the latest pointer on
// append, so repeated ingestions observe each other the way the database
// would.
type mockLocationStore struct {
	mu        sync.Mutex
	latest    *LocationSample
	samples   []LocationSample
	alerts    []Alert
	appendErr error
}

func (m *mockLocationStore) LatestSample(ctx context.Context, childID uint) (*LocationSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return nil, nil
	}
	cp := *m.latest
	return &cp, nil
}

func (m *mockLocationStore) AppendReport(ctx context.Context, sample *LocationSample, alerts []Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.samples = append(m.samples, *sample)
	m.alerts = append(m.alerts, alerts...)
	cp := *sample
	m.latest = &cp
	return nil
}

func (m *mockLocationStore) alertsOfType(alertType string) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Alert
	for _, a := range m.alerts {
		if a.AlertType == alertType {
			out = append(out, a)
		}
	}
	return out
}

type mockDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (m *mockDispatcher) Name() string { return "mock" }

func (m *mockDispatcher) Send(ctx context.Context, n notify.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return m.err
}

func newTestService(dir *mockDirectory, fences *mockFenceStore, locations *mockLocationStore, dispatcher *mockDispatcher) *Service {
	return NewService(dir, fences, locations, dispatcher)
}

func validReport(deviceID string, lat, lng float64) UpdateLocationRequest {
	return UpdateLocationRequest{
		DeviceID:  deviceID,
		Latitude:  floatPtr(lat),
		Longitude: floatPtr(lng),
	}
}

// TestUpdateLocation_FirstSampleNoFence covers the simplest happy path:
// no geofence, no history. The sample lands inside and no alerts fire.
func TestUpdateLocation_FirstSampleNoFence(t *testing.T) {
	dir := &mockDirectory{subject: &Subject{ID: 7, Name: "Lily Brown"}}
	locations := &mockLocationStore{}
	svc := newTestService(dir, &mockFenceStore{}, locations, &mockDispatcher{})

	res, err := svc.UpdateLocation(context.Background(), validReport("DEV-1001", 40.0, -74.0))
	if err != nil {
		t.Fatalf("UpdateLocation error: %v", err)
	}
	if !res.InsideGeofence {
		t.Error("expected inside_geofence=true with no active fence")
	}
	if len(locations.samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(locations.samples))
	}
	if !locations.samples[0].InsideGeofence {
		t.Error("expected sample stored with inside_geofence=true")
	}
	if len(locations.alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(locations.alerts))
	}
}

// TestUpdateLocation_GeofenceExit covers the core transition: the child was
// inside, reports ~500m from a 100m fence, and exactly one exit alert is
// created with resolved recipients and fanned out.
func TestUpdateLocation_GeofenceExit(t *testing.T) {
	dir := &mockDirectory{
		subject: &Subject{ID: 7, Name: "Lily Brown"},
		recipients: []notify.Recipient{
			{UserID: 2, Phone: "+15550100"},
			{UserID: 4, Phone: "+15550102"},
		},
	}
	fences := &mockFenceStore{fence: &Geofence{
		ID: 1, CenterLat: 40.0, CenterLng: -74.0, RadiusMeters: 100, Status: "active",
	}}
	locations := &mockLocationStore{
		latest: &LocationSample{ChildID: 7, InsideGeofence: true},
	}
	dispatcher := &mockDispatcher{}
	svc := newTestService(dir, fences, locations, dispatcher)

	// ~500m north of the fence center.
	res, err := svc.UpdateLocation(context.Background(), validReport("DEV-1001", 40.0045, -74.0))
	if err != nil {
		t.Fatalf("UpdateLocation error: %v", err)
	}
	if res.InsideGeofence {
		t.Error("expected inside_geofence=false")
	}

	exits := locations.alertsOfType(AlertTypeGeofenceExit)
	if len(exits) != 1 {
		t.Fatalf("expected exactly 1 geofence_exit alert, got %d", len(exits))
	}
	if exits[0].ChildID != 7 {
		t.Errorf("alert references child %d, want 7", exits[0].ChildID)
	}
	if len(exits[0].SentTo) != 2 || exits[0].SentTo[0] != 2 || exits[0].SentTo[1] != 4 {
		t.Errorf("unexpected recipient ids: %v", exits[0].SentTo)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("expected 1 dispatched notification, got %d", len(dispatcher.sent))
	}
	if len(dispatcher.sent[0].Recipients) != 2 {
		t.Errorf("expected 2 notification recipients, got %d", len(dispatcher.sent[0].Recipients))
	}
}

// TestUpdateLocation_ExitAndLowBattery verifies both rules fire on the same
// report: two alerts persisted, but only the exit fans out to recipients.
func TestUpdateLocation_ExitAndLowBattery(t *testing.T) {
	dir := &mockDirectory{
		subject:    &Subject{ID: 7, Name: "Lily Brown"},
		recipients: []notify.Recipient{{UserID: 2, Phone: "+15550100"}},
	}
	fences := &mockFenceStore{fence: &Geofence{
		ID: 1, CenterLat: 40.0, CenterLng: -74.0, RadiusMeters: 100, Status: "active",
	}}
	locations := &mockLocationStore{
		latest: &LocationSample{ChildID: 7, InsideGeofence: true},
	}
	dispatcher := &mockDispatcher{}
	svc := newTestService(dir, fences, locations, dispatcher)

	req := validReport("DEV-1001", 40.0045, -74.0)
	req.BatteryLevel = intPtr(15)

	if _, err := svc.UpdateLocation(context.Background(), req); err != nil {
		t.Fatalf("UpdateLocation error: %v", err)
	}

	if len(locations.alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(locations.alerts))
	}
	battery := locations.alertsOfType(AlertTypeLowBattery)
	if len(battery) != 1 {
		t.Fatalf("expected 1 low_battery alert, got %d", len(battery))
	}
	if len(battery[0].SentTo) != 0 {
		t.Errorf("low_battery alert should have no recipients, got %v", battery[0].SentTo)
	}
	if len(dispatcher.sent) != 1 {
		t.Errorf("only the exit alert should fan out, got %d notifications", len(dispatcher.sent))
	}
}

// TestUpdateLocation_UnknownDevice verifies an unpaired device yields
// ErrDeviceNotFound with no writes.
func TestUpdateLocation_UnknownDevice(t *testing.T) {
	locations := &mockLocationStore{}
	svc := newTestService(&mockDirectory{}, &mockFenceStore{}, locations, &mockDispatcher{})

	_, err := svc.UpdateLocation(context.Background(), validReport("DEV-GONE", 40.0, -74.0))
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if len(locations.samples) != 0 || len(locations.alerts) != 0 {
		t.Error("expected no writes for unknown device")
	}
}

// TestUpdateLocation_RepeatOutside verifies the exit alert does not re-fire
// while the child stays outside: new samples, no new alerts.
func TestUpdateLocation_RepeatOutside(t *testing.T) {
	dir := &mockDirectory{
		subject:    &Subject{ID: 7, Name: "Lily Brown"},
		recipients: []notify.Recipient{{UserID: 2, Phone: "+15550100"}},
	}
	fences := &mockFenceStore{fence: &Geofence{
		ID: 1, CenterLat: 40.0, CenterLng: -74.0, RadiusMeters: 100, Status: "active",
	}}
	locations := &mockLocationStore{
		latest: &LocationSample{ChildID: 7, InsideGeofence: true},
	}
	svc := newTestService(dir, fences, locations, &mockDispatcher{})

	req := validReport("DEV-1001", 40.0045, -74.0)
	for i := 0; i < 3; i++ {
		if _, err := svc.UpdateLocation(context.Background(), req); err != nil {
			t.Fatalf("UpdateLocation #%d error: %v", i+1, err)
		}
	}

	if len(locations.samples) != 3 {
		t.Errorf("expected 3 samples, got %d", len(locations.samples))
	}
	if exits := locations.alertsOfType(AlertTypeGeofenceExit); len(exits) != 1 {
		t.Errorf("expected exactly 1 exit alert across repeats, got %d", len(exits))
	}
}

// TestUpdateLocation_Validation verifies missing required fields fail with a
// ValidationError before any lookup happens.
func TestUpdateLocation_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UpdateLocationRequest
	}{
		{"missing device_id", UpdateLocationRequest{Latitude: floatPtr(40), Longitude: floatPtr(-74)}},
		{"missing latitude", UpdateLocationRequest{DeviceID: "DEV-1001", Longitude: floatPtr(-74)}},
		{"missing longitude", UpdateLocationRequest{DeviceID: "DEV-1001", Latitude: floatPtr(40)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &mockDirectory{subject: &Subject{ID: 7, Name: "Lily Brown"}}
			svc := newTestService(dir, &mockFenceStore{}, &mockLocationStore{}, &mockDispatcher{})

			_, err := svc.UpdateLocation(context.Background(), tt.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if dir.lookupCalls != 0 {
				t.Error("validation failures must not reach the directory")
			}
		})
	}
}

// TestUpdateLocation_StorageFailure verifies a persistence error surfaces as
// a StorageError and nothing is dispatched.
func TestUpdateLocation_StorageFailure(t *testing.T) {
	dir := &mockDirectory{subject: &Subject{ID: 7, Name: "Lily Brown"}}
	locations := &mockLocationStore{appendErr: errors.New("connection reset")}
	dispatcher := &mockDispatcher{}
	svc := newTestService(dir, &mockFenceStore{}, locations, dispatcher)

	_, err := svc.UpdateLocation(context.Background(), validReport("DEV-1001", 40.0, -74.0))
	var sErr *StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(dispatcher.sent) != 0 {
		t.Error("nothing should dispatch when persistence fails")
	}
}

// TestUpdateLocation_DispatchFailureIgnored verifies a dispatcher failure is
// logged, not surfaced: the device still gets a success.
func TestUpdateLocation_DispatchFailureIgnored(t *testing.T) {
	dir := &mockDirectory{
		subject:    &Subject{ID: 7, Name: "Lily Brown"},
		recipients: []notify.Recipient{{UserID: 2, Phone: "+15550100"}},
	}
	fences := &mockFenceStore{fence: &Geofence{
		ID: 1, CenterLat: 40.0, CenterLng: -74.0, RadiusMeters: 100, Status: "active",
	}}
	locations := &mockLocationStore{
		latest: &LocationSample{ChildID: 7, InsideGeofence: true},
	}
	dispatcher := &mockDispatcher{err: errors.New("queue unavailable")}
	svc := newTestService(dir, fences, locations, dispatcher)

	if _, err := svc.UpdateLocation(context.Background(), validReport("DEV-1001", 40.0045, -74.0)); err != nil {
		t.Fatalf("dispatch failure must not fail ingestion, got %v", err)
	}
}

// TestUpdateLocation_ConcurrentReportsSameChild verifies per-child
// serialization: many simultaneous outside reports for a child that was
// inside must produce exactly one exit alert, never duplicates.
func TestUpdateLocation_ConcurrentReportsSameChild(t *testing.T) {
	dir := &mockDirectory{
		subject:    &Subject{ID: 7, Name: "Lily Brown"},
		recipients: []notify.Recipient{{UserID: 2, Phone: "+15550100"}},
	}
	fences := &mockFenceStore{fence: &Geofence{
		ID: 1, CenterLat: 40.0, CenterLng: -74.0, RadiusMeters: 100, Status: "active",
	}}
	locations := &mockLocationStore{
		latest: &LocationSample{ChildID: 7, InsideGeofence: true},
	}
	svc := newTestService(dir, fences, locations, &mockDispatcher{})

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.UpdateLocation(context.Background(), validReport("DEV-1001", 40.0045, -74.0)); err != nil {
				t.Errorf("UpdateLocation error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(locations.samples) != workers {
		t.Errorf("expected %d samples, got %d", workers, len(locations.samples))
	}
	if exits := locations.alertsOfType(AlertTypeGeofenceExit); len(exits) != 1 {
		t.Errorf("expected exactly 1 exit alert under concurrency, got %d", len(exits))
	}
}
