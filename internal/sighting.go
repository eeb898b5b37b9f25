package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SightingTTL is the fixed validity window of a sighting after the report
	// timestamp. Past this point the subject is assumed gone.
	SightingTTL = 900 * time.Second
	// observerMoveThreshold is how far (miles) the observer must move before a
	// precise distance result is considered stale.
	observerMoveThreshold = 0.25
)

// Sighting represents one reported occurrence of a named subject at a place
// and time. Distance state is mutated in place by refresh operations; the
// despawn deadline is fixed at creation and never changes.
type Sighting struct {
	id      string
	name    string
	coords  Coordinates
	rawText string // empty when reloaded from the event store
	link    string
	created time.Time

	distanceMiles float64
	etaMinutes    float64
	hasDistance   bool
	hasETA        bool
	lastChecked   time.Time
	lastCheckFrom *Coordinates // observer position used for the last precise lookup
	haversineOnly bool
	label         string

	class Classification
}

// NewSighting builds a sighting from a parsed report. The subject name is
// lowercased and classification flags are computed immediately.
func NewSighting(created time.Time, name string, coords Coordinates, rawText, link string, lists *Watchlists) *Sighting {
	s := &Sighting{
		id:      uuid.NewString(),
		coords:  coords,
		rawText: rawText,
		link:    link,
		created: created,
	}
	s.setName(name, lists)
	return s
}

func (s *Sighting) setName(name string, lists *Watchlists) {
	s.name = strings.ToLower(name)
	s.class = lists.Classify(s.name, s.link)
}

func (s *Sighting) ID() string                     { return s.id }
func (s *Sighting) Name() string                   { return s.name }
func (s *Sighting) Coords() Coordinates            { return s.coords }
func (s *Sighting) RawText() string                { return s.rawText }
func (s *Sighting) Link() string                   { return s.link }
func (s *Sighting) Created() time.Time             { return s.created }
func (s *Sighting) Label() string                  { return s.label }
func (s *Sighting) SetLabel(label string)          { s.label = label }
func (s *Sighting) Classification() Classification { return s.class }
func (s *Sighting) HaversineOnly() bool            { return s.haversineOnly }

// DistanceMiles returns the last computed distance, if any.
func (s *Sighting) DistanceMiles() (float64, bool) {
	return s.distanceMiles, s.hasDistance
}

// ETAMinutes returns the last computed travel time, if any.
func (s *Sighting) ETAMinutes() (float64, bool) {
	return s.etaMinutes, s.hasETA
}

// TimeLeftToDespawn is the remaining validity window at the given time.
// Negative once the sighting has expired.
func (s *Sighting) TimeLeftToDespawn(now time.Time) time.Duration {
	return s.created.Add(SightingTTL).Sub(now)
}

// IsStillValid reports whether the sighting is worth keeping: it must not be
// past its despawn deadline, and if a travel time is known there must be
// enough of the window left to actually reach it.
func (s *Sighting) IsStillValid(now time.Time) bool {
	left := s.TimeLeftToDespawn(now)
	if left <= 0 {
		return false
	}
	if s.hasETA && left.Minutes() < s.etaMinutes {
		return false
	}
	return true
}

// ShouldAdmitToActive reports whether the subject is on any tracked list.
func (s *Sighting) ShouldAdmitToActive() bool {
	return s.class.ShouldTrack
}

// IsNearby reports whether the sighting is within radiusMiles of the
// observer, using the cheap great-circle estimate only. The computed distance
// is recorded on the sighting as a side effect, matching the refresh path for
// the nearby collection.
func (s *Sighting) IsNearby(observer *Coordinates, radiusMiles float64, now time.Time) bool {
	if observer == nil {
		return false
	}
	return s.SetApproxDistance(Distance(*observer, s.coords).Miles(), now) < radiusMiles
}

// ShouldRefreshDistance reports whether the next refresh cycle should spend a
// precise lookup on this sighting: always when nothing precise has been
// computed yet, otherwise when the observer has moved far enough to matter.
func (s *Sighting) ShouldRefreshDistance(observer *Coordinates) bool {
	if s.lastCheckFrom == nil {
		return true
	}
	if observer == nil {
		return false
	}
	moved := Distance(*observer, *s.lastCheckFrom).Miles()
	return moved > observerMoveThreshold || s.haversineOnly
}

// SetApproxDistance records a great-circle distance result. Approximate data
// is always considered provisional: the haversineOnly flag stays set so a
// later refresh tries the precise lookup again, and any map label is dropped
// because the sorted position may have changed.
func (s *Sighting) SetApproxDistance(miles float64, now time.Time) float64 {
	s.distanceMiles = miles
	s.hasDistance = true
	s.haversineOnly = true
	s.label = ""
	s.lastChecked = now
	return miles
}

// SetApproxETA records an estimated travel time derived from an approximate
// distance.
func (s *Sighting) SetApproxETA(minutes float64) {
	s.etaMinutes = minutes
	s.hasETA = true
}

// SetPreciseResult records a successful driving-distance lookup along with
// the observer position it was computed from.
func (s *Sighting) SetPreciseResult(observer Coordinates, miles, etaMinutes float64, now time.Time) {
	s.distanceMiles = miles
	s.etaMinutes = etaMinutes
	s.hasDistance = true
	s.hasETA = true
	s.haversineOnly = false
	s.lastChecked = now
	from := observer
	s.lastCheckFrom = &from
}

func (s *Sighting) String() string {
	return fmt.Sprintf("(%s) coords=%s, d=%.2f, t=%.1f, id=%s",
		s.name, s.coords.QueryString(), s.distanceMiles, s.etaMinutes, s.id)
}
