package geo

import (
	"math"
	"testing"

	"eatsdash/internal/models"
)

func TestDistanceFeetSymmetric(t *testing.T) {
	pairs := [][2]models.Coordinate{
		{{Lat: 40, Lon: -73}, {Lat: 40.0004, Lon: -73}},
		{{Lat: 51.5007, Lon: -0.1246}, {Lat: 40.6892, Lon: -74.0445}},
		{{Lat: -33.8568, Lon: 151.2153}, {Lat: 35.6586, Lon: 139.7454}},
		{{Lat: 0, Lon: 179.9999}, {Lat: 0, Lon: -179.9999}},
	}
	for _, p := range pairs {
		ab, ok1 := DistanceFeet(&p[0], &p[1])
		ba, ok2 := DistanceFeet(&p[1], &p[0])
		if !ok1 || !ok2 {
			t.Fatalf("expected defined distance for %v", p)
		}
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("DistanceFeet(%v) not symmetric: %f vs %f", p, ab, ba)
		}
	}
}

func TestDistanceFeetSamePointIsZero(t *testing.T) {
	c := models.Coordinate{Lat: 37.7749, Lon: -122.4194}
	d, ok := DistanceFeet(&c, &c)
	if !ok {
		t.Fatalf("expected defined distance")
	}
	if d != 0 {
		t.Errorf("DistanceFeet(a, a) = %f, want 0", d)
	}
}

func TestDistanceFeetKnownValue(t *testing.T) {
	home := models.Coordinate{Lat: 40.000, Lon: -73.000}
	driver := models.Coordinate{Lat: 40.0004, Lon: -73.0000}
	d, ok := DistanceFeet(&home, &driver)
	if !ok {
		t.Fatalf("expected defined distance")
	}
	if d < 140 || d > 150 {
		t.Errorf("DistanceFeet = %f, want about 146", d)
	}
}

func TestDistanceFeetAbsent(t *testing.T) {
	c := models.Coordinate{Lat: 1, Lon: 1}
	if _, ok := DistanceFeet(nil, &c); ok {
		t.Errorf("expected undefined distance with nil first argument")
	}
	if _, ok := DistanceFeet(&c, nil); ok {
		t.Errorf("expected undefined distance with nil second argument")
	}
}
