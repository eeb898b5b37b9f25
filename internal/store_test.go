package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *EventStore {
	t.Helper()
	store, err := OpenEventStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2023, 6, 14, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"snorlax", "gyrados", "lapras"} {
		require.NoError(t, store.Append(Report{
			Time:    base.Add(time.Duration(i) * time.Minute),
			Name:    name,
			Coords:  NewCoordinates(37.78, -122.42),
			RawText: "some raw report text",
			Link:    "http://maps.google.com/maps?q=37.78,-122.42",
		}))
	}

	reports, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	// Most recent first.
	assert.Equal(t, "lapras", reports[0].Name)
	assert.Equal(t, "gyrados", reports[1].Name)
	assert.Equal(t, "snorlax", reports[2].Name)

	assert.Equal(t, base.Add(2*time.Minute).Unix(), reports[0].Time.Unix())
	assert.Equal(t, NewCoordinates(37.78, -122.42), reports[0].Coords)
	assert.Equal(t, "http://maps.google.com/maps?q=37.78,-122.42", reports[0].Link)

	// Raw text is not restored on read.
	assert.Empty(t, reports[0].RawText)
}

func TestRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2023, 6, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(Report{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Name:   "snorlax",
			Coords: NewCoordinates(37.78, -122.42),
		}))
	}

	reports, err := store.Recent(2)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestRecentEmptyStore(t *testing.T) {
	store := openTestStore(t)

	reports, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
