package tracking

import (
	"errors"
	"math"
	"testing"
)

// TestDistanceMeters_Identity verifies the distance from a point to itself is
// zero within floating tolerance.
func TestDistanceMeters_Identity(t *testing.T) {
	points := []GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 40.0, Lng: -74.0},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: 179.9},
	}
	for _, p := range points {
		d, err := DistanceMeters(p, p)
		if err != nil {
			t.Fatalf("DistanceMeters(%v, %v) returned error: %v", p, p, err)
		}
		if d > 1e-6 {
			t.Errorf("expected zero distance for %v, got %f", p, d)
		}
	}
}

// TestDistanceMeters_Symmetry verifies distance(a,b) == distance(b,a).
func TestDistanceMeters_Symmetry(t *testing.T) {
	a := GeoPoint{Lat: 40.0, Lng: -74.0}
	b := GeoPoint{Lat: 51.5074, Lng: -0.1278}

	ab, err := DistanceMeters(a, b)
	if err != nil {
		t.Fatalf("DistanceMeters(a,b) error: %v", err)
	}
	ba, err := DistanceMeters(b, a)
	if err != nil {
		t.Fatalf("DistanceMeters(b,a) error: %v", err)
	}
	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("expected symmetric distance, got %f vs %f", ab, ba)
	}
}

// TestDistanceMeters_Antipodal verifies antipodal points are roughly half the
// Earth's circumference apart.
func TestDistanceMeters_Antipodal(t *testing.T) {
	d, err := DistanceMeters(GeoPoint{Lat: 0, Lng: 0}, GeoPoint{Lat: 0, Lng: 180})
	if err != nil {
		t.Fatalf("DistanceMeters error: %v", err)
	}
	// pi * 6371000
	want := 20015086.8
	if math.Abs(d-want) > 1000 {
		t.Errorf("expected ~%f for antipodal points, got %f", want, d)
	}
}

// TestDistanceMeters_OneDegreeLatitude checks a known reference distance:
// one degree of latitude is ~111.19 km on a 6371 km sphere.
func TestDistanceMeters_OneDegreeLatitude(t *testing.T) {
	d, err := DistanceMeters(GeoPoint{Lat: 0, Lng: 0}, GeoPoint{Lat: 1, Lng: 0})
	if err != nil {
		t.Fatalf("DistanceMeters error: %v", err)
	}
	want := 6371000.0 * math.Pi / 180
	if math.Abs(d-want) > 1 {
		t.Errorf("expected %f, got %f", want, d)
	}
}

// TestDistanceMeters_InvalidInput verifies NaN and Inf coordinates fail fast.
func TestDistanceMeters_InvalidInput(t *testing.T) {
	bad := []GeoPoint{
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
		{Lat: math.Inf(-1), Lng: 0},
	}
	good := GeoPoint{Lat: 40, Lng: -74}
	for _, p := range bad {
		if _, err := DistanceMeters(p, good); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("expected ErrInvalidCoordinate for %v, got %v", p, err)
		}
		if _, err := DistanceMeters(good, p); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("expected ErrInvalidCoordinate for %v as second arg, got %v", p, err)
		}
	}
}
