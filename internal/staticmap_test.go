package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticMapGenerate(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte("png bytes"))
	}))
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "current.png")
	gen := NewStaticMapGenerator(srv.URL, "map-key", outPath, testLogger())

	registry := newTestRegistry()
	registry.Admit(context.Background(), sightingAt("snorlax", 37.8, -122.4), testCreated)

	require.NoError(t, gen.Generate(context.Background(), registry))

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(written))
	assert.EqualValues(t, 1, fetches.Load())

	// Unchanged marker set: no second fetch.
	require.NoError(t, gen.Generate(context.Background(), registry))
	assert.EqualValues(t, 1, fetches.Load())

	// New sighting changes the URL and triggers a re-fetch.
	registry.Admit(context.Background(), sightingAt("gyrados", 37.81, -122.41), testCreated)
	require.NoError(t, gen.Generate(context.Background(), registry))
	assert.EqualValues(t, 2, fetches.Load())
}

func TestStaticMapGenerateWithoutObserver(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "current.png")
	require.NoError(t, os.WriteFile(outPath, []byte("stale"), 0o644))

	gen := NewStaticMapGenerator("http://unused.invalid", "map-key", outPath, testLogger())
	registry := NewRegistry(1.0, HaversineResolver{}, testLogger())

	require.NoError(t, gen.Generate(context.Background(), registry))

	_, err := os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestStaticMapBuildURL(t *testing.T) {
	gen := NewStaticMapGenerator("http://maps.example.com/staticmap", "map-key", "out.png", testLogger())
	observer := NewCoordinates(37.7749, -122.4194)

	views := []SightingView{
		{Label: "A", Coords: NewCoordinates(37.78, -122.42)},
		{Label: "B", Coords: NewCoordinates(37.79, -122.43)},
	}

	got := gen.buildURL(observer, views)
	assert.Contains(t, got, "http://maps.example.com/staticmap?")
	assert.Contains(t, got, "size=640x640")
	assert.Contains(t, got, "key=map-key")
	assert.Contains(t, got, "center=37.774900%2C-122.419400")
	assert.Contains(t, got, "&markers=color%3Ablack%7C37.774900%2C-122.419400")
	assert.Contains(t, got, "&markers=label%3AA%7C37.780000%2C-122.420000")
	assert.Contains(t, got, "&markers=label%3AB%7C37.790000%2C-122.430000")
}
