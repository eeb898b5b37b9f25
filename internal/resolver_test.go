package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineResolver(t *testing.T) {
	observer := NewCoordinates(37.7749, -122.4194)
	s := newTestSighting("snorlax", "")

	require.NoError(t, HaversineResolver{}.Resolve(context.Background(), observer, s))

	d, hasDistance := s.DistanceMiles()
	eta, hasETA := s.ETAMinutes()
	assert.True(t, hasDistance)
	assert.True(t, hasETA)
	assert.InDelta(t, d*3, eta, 0.001)
	assert.True(t, s.HaversineOnly())
}

func TestDriveTimeResolver(t *testing.T) {
	observer := NewCoordinates(37.7749, -122.4194)

	t.Run("successful lookup", func(t *testing.T) {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"origins":      r.URL.Query().Get("origins"),
				"destinations": r.URL.Query().Get("destinations"),
				"mode":         r.URL.Query().Get("mode"),
				"key":          r.URL.Query().Get("key"),
			}
			w.Write([]byte(`{"rows":[{"elements":[{"status":"OK",
				"distance":{"text":"3.2 mi"},"duration":{"text":"12 mins"}}]}]}`))
		}))
		defer srv.Close()

		r := NewDriveTimeResolver(srv.URL, "test-key", testLogger())
		s := newTestSighting("snorlax", "")
		require.NoError(t, r.Resolve(context.Background(), observer, s))

		d, _ := s.DistanceMiles()
		eta, _ := s.ETAMinutes()
		assert.Equal(t, 3.2, d)
		assert.Equal(t, 12.0, eta)
		assert.False(t, s.HaversineOnly())

		assert.Equal(t, "37.774900,-122.419400", gotQuery["origins"])
		assert.Equal(t, s.Coords().QueryString(), gotQuery["destinations"])
		assert.Equal(t, "driving", gotQuery["mode"])
		assert.Equal(t, "test-key", gotQuery["key"])
	})

	t.Run("server error falls back to haversine", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		r := NewDriveTimeResolver(srv.URL, "test-key", testLogger())
		s := newTestSighting("snorlax", "")
		require.NoError(t, r.Resolve(context.Background(), observer, s))

		_, hasDistance := s.DistanceMiles()
		assert.True(t, hasDistance)
		// Approximate data: the next refresh retries the precise lookup.
		assert.True(t, s.HaversineOnly())
	})

	t.Run("no route falls back to haversine", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`))
		}))
		defer srv.Close()

		r := NewDriveTimeResolver(srv.URL, "test-key", testLogger())
		s := newTestSighting("snorlax", "")
		require.NoError(t, r.Resolve(context.Background(), observer, s))
		assert.True(t, s.HaversineOnly())
	})

	t.Run("precise result overwrites earlier fallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rows":[{"elements":[{"status":"OK",
				"distance":{"text":"2.1 mi"},"duration":{"text":"8 mins"}}]}]}`))
		}))
		defer srv.Close()

		r := NewDriveTimeResolver(srv.URL, "test-key", testLogger())
		s := newTestSighting("snorlax", "")
		s.SetApproxDistance(5.0, testCreated)

		require.NoError(t, r.Resolve(context.Background(), observer, s))

		d, _ := s.DistanceMiles()
		assert.Equal(t, 2.1, d)
		assert.False(t, s.HaversineOnly())
	})
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "miles", input: "3.2 mi", expected: 3.2},
		{name: "minutes", input: "12 mins", expected: 12},
		{name: "single minute", input: "1 min", expected: 1},
		{name: "thousands separator", input: "1,024 mi", expected: 1024},
		{name: "bare number", input: "42", expected: 42},
		{name: "empty", input: "", wantErr: true},
		{name: "no number", input: "mi", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseQuantity(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}
