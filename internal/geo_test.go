package internal

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name          string
		p             Coordinates
		q             Coordinates
		expectedMiles float64
		expectedKm    float64
	}{
		{
			name:          "Same point",
			p:             NewCoordinates(37.7749, -122.4194),
			q:             NewCoordinates(37.7749, -122.4194),
			expectedMiles: 0.0,
			expectedKm:    0.0,
		},
		{
			name:          "One degree longitude at equator",
			p:             NewCoordinates(0, 0),
			q:             NewCoordinates(0, 1),
			expectedMiles: 69.08,
			expectedKm:    111.19,
		},
		{
			name:          "One degree latitude",
			p:             NewCoordinates(0, 0),
			q:             NewCoordinates(1, 0),
			expectedMiles: 69.08,
			expectedKm:    111.19,
		},
		{
			name:          "San Francisco to Los Angeles",
			p:             NewCoordinates(37.7749, -122.4194),
			q:             NewCoordinates(34.0522, -118.2437),
			expectedMiles: 347.36,
			expectedKm:    559.12,
		},
		{
			name:          "New York to London",
			p:             NewCoordinates(40.7128, -74.0060),
			q:             NewCoordinates(51.5074, -0.1278),
			expectedMiles: 3460.51,
			expectedKm:    5570.22,
		},
		{
			name:          "Short hop across town",
			p:             NewCoordinates(37.7749, -122.4194),
			q:             NewCoordinates(37.7849, -122.4094),
			expectedMiles: 0.88,
			expectedKm:    1.42,
		},
	}

	// Precision threshold for floating point comparison
	const epsilon = 0.01

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(tt.p, tt.q)
			if math.Abs(d.Miles()-tt.expectedMiles) > epsilon {
				t.Errorf("Distance().Miles() = %v, want %v", d.Miles(), tt.expectedMiles)
			}
			if math.Abs(d.Kilometers()-tt.expectedKm) > epsilon {
				t.Errorf("Distance().Kilometers() = %v, want %v", d.Kilometers(), tt.expectedKm)
			}

			// Great-circle distance is symmetric.
			reverse := Distance(tt.q, tt.p)
			if math.Abs(d.Miles()-reverse.Miles()) > epsilon {
				t.Errorf("Distance() is not symmetric: %v vs %v", d.Miles(), reverse.Miles())
			}
		})
	}
}

func TestQueryString(t *testing.T) {
	got := NewCoordinates(37.7749, -122.4194).QueryString()
	want := "37.774900,-122.419400"
	if got != want {
		t.Errorf("QueryString() = %q, want %q", got, want)
	}
}
