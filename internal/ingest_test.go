package internal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected Coordinates
		wantErr  bool
	}{
		{
			name:     "plain maps link",
			link:     "http://maps.google.com/maps?q=37.7749,-122.4194",
			expected: NewCoordinates(37.7749, -122.4194),
		},
		{
			name:     "angle brackets and label suffix",
			link:     "<http://maps.google.com/maps?q=37.7749,-122.4194|Open in Google Maps>",
			expected: NewCoordinates(37.7749, -122.4194),
		},
		{
			name:     "spaces around the pair",
			link:     "http://maps.google.com/maps?q=37.7749, -122.4194",
			expected: NewCoordinates(37.7749, -122.4194),
		},
		{
			name:    "no coordinate query",
			link:    "http://maps.google.com/maps",
			wantErr: true,
		},
		{
			name:    "not a coordinate pair",
			link:    "http://maps.google.com/maps?q=downtown",
			wantErr: true,
		},
		{
			name:    "unparsable numbers",
			link:    "http://maps.google.com/maps?q=north,west",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseCoordinates(test.link)
			if test.wantErr {
				require.ErrorIs(t, err, ErrMalformedReport)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *recordingSink) {
	t.Helper()

	store, err := OpenEventStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	lists := testLists()
	sink := &recordingSink{}
	registry := NewRegistry(1.0, HaversineResolver{}, testLogger())
	registry.SetObserver(NewCoordinates(37.7749, -122.4194))

	return &Pipeline{
		Registry: registry,
		Notifier: NewNotifier(lists, testAlertConfig(), true, sink, testLogger()),
		Lists:    lists,
		Store:    store,
		Logger:   testLogger(),
	}, sink
}

func TestSubmit(t *testing.T) {
	p, sink := newTestPipeline(t)
	noon := time.Date(2023, 6, 14, 12, 0, 0, 0, time.UTC)

	s, outcome, err := p.Submit(context.Background(), Report{
		Time:    noon,
		Name:    "Gyrados",
		Coords:  NewCoordinates(37.78, -122.42),
		RawText: "Gyrados until 12:15",
		Link:    "http://maps.google.com/maps?q=37.78,-122.42",
	})

	require.NoError(t, err)
	assert.Equal(t, AdmittedActive, outcome)
	assert.Equal(t, "gyrados", s.Name())

	// Always-alert subject within range: one alert goes out whatever the hour.
	require.Len(t, sink.titles, 1)
	assert.Equal(t, "gyrados", sink.titles[0])

	// The report was persisted.
	reports, err := p.Store.Recent(10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Gyrados", reports[0].Name)
}

func TestSubmitEmptyNameRejected(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, outcome, err := p.Submit(context.Background(), Report{Time: time.Now()})
	require.ErrorIs(t, err, ErrMalformedReport)
	assert.Equal(t, Discarded, outcome)
}

func TestSubmitDiscardedIsNotAnError(t *testing.T) {
	p, sink := newTestPipeline(t)

	_, outcome, err := p.Submit(context.Background(), Report{
		Time:    time.Now(),
		Name:    "pidgey",
		Coords:  NewCoordinates(40.7, -74.0),
		RawText: "pidgey somewhere far away",
	})

	require.NoError(t, err)
	assert.Equal(t, Discarded, outcome)
	assert.Empty(t, sink.titles)
}

func TestReplay(t *testing.T) {
	p, sink := newTestPipeline(t)
	now := time.Now()

	// Young enough to replay.
	require.NoError(t, p.Store.Append(Report{
		Time:    now.Add(-time.Minute),
		Name:    "snorlax",
		Coords:  NewCoordinates(37.78, -122.42),
		RawText: "Snorlax until soon",
	}))
	// Too old to replay.
	require.NoError(t, p.Store.Append(Report{
		Time:    now.Add(-ReadmitWindow - time.Minute),
		Name:    "gyrados",
		Coords:  NewCoordinates(37.78, -122.42),
		RawText: "Gyrados long gone",
	}))

	require.NoError(t, p.Replay(context.Background(), 10))

	active, _ := p.Registry.Counts()
	assert.Equal(t, 1, active)

	// Replayed sightings never alert.
	assert.Empty(t, sink.titles)
}
