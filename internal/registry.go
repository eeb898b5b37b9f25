package internal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// AdmitOutcome says where Admit routed a sighting.
type AdmitOutcome int

const (
	Discarded AdmitOutcome = iota
	AdmittedActive
	AdmittedNearby
)

// SightingView is an immutable snapshot of a sighting, safe to hand to
// renderers outside the registry lock.
type SightingView struct {
	ID            string
	Name          string
	Link          string
	Label         string
	Coords        Coordinates
	DistanceMiles float64
	ETAMinutes    float64
	HasDistance   bool
	HasETA        bool
	HaversineOnly bool
	Critical      bool
	Notable       bool
	TimeLeft      time.Duration
}

func snapshot(s *Sighting, now time.Time) SightingView {
	view := SightingView{
		ID:       s.ID(),
		Name:     s.Name(),
		Link:     s.Link(),
		Label:    s.Label(),
		Coords:   s.Coords(),
		Critical: s.Classification().Critical,
		Notable:  s.Classification().Notable,
		TimeLeft: s.TimeLeftToDespawn(now),
	}
	view.DistanceMiles, view.HasDistance = s.DistanceMiles()
	view.ETAMinutes, view.HasETA = s.ETAMinutes()
	view.HaversineOnly = s.HaversineOnly()
	return view
}

// Registry owns the two sighting collections and the observer position. All
// access goes through one mutex: the concurrency level here is tens of
// entities touched by the scheduler, the ingestion path and the dashboard.
type Registry struct {
	mu          sync.Mutex
	active      []*Sighting
	nearby      []*Sighting
	observer    *Coordinates
	radiusMiles float64
	resolver    DistanceResolver
	logger      *slog.Logger
}

func NewRegistry(radiusMiles float64, resolver DistanceResolver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		radiusMiles: radiusMiles,
		resolver:    resolver,
		logger:      logger,
	}
}

// SetObserver updates the process-wide observer position.
func (r *Registry) SetObserver(coords Coordinates) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := coords
	r.observer = &c
}

// Observer returns the current observer position, if known.
func (r *Registry) Observer() (Coordinates, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observer == nil {
		return Coordinates{}, false
	}
	return *r.observer, true
}

// Admit routes a new sighting: tracked subjects go to active, untracked but
// close ones to nearby, the rest are dropped on the floor. Active sightings
// without a travel time get one resolved immediately so the admission-time
// alert check has a distance to work with.
func (r *Registry) Admit(ctx context.Context, s *Sighting, now time.Time) AdmitOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case s.ShouldAdmitToActive():
		r.logger.Debug("admitting active sighting", "sighting", s.String())
		r.active = append(r.active, s)
		if _, ok := s.ETAMinutes(); !ok {
			r.resolveLocked(ctx, s)
		}
		return AdmittedActive
	case s.IsNearby(r.observer, r.radiusMiles, now):
		r.logger.Debug("admitting nearby sighting", "sighting", s.String())
		r.nearby = append(r.nearby, s)
		return AdmittedNearby
	default:
		return Discarded
	}
}

func (r *Registry) resolveLocked(ctx context.Context, s *Sighting) {
	if r.observer == nil {
		r.logger.Debug("no observer position, skipping distance resolution", "subject", s.Name())
		return
	}
	if err := r.resolver.Resolve(ctx, *r.observer, s); err != nil {
		r.logger.Warn("distance resolution failed", "subject", s.Name(), "id", s.ID(), "error", err)
	}
}

// RefreshAll recomputes distance state: active sightings get the full
// resolver when their data is stale, nearby sightings always get the cheap
// estimate and never an external call. Returns how many active sightings were
// refreshed.
func (r *Registry) RefreshAll(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	refreshed := 0
	for _, s := range r.active {
		if s.ShouldRefreshDistance(r.observer) {
			r.resolveLocked(ctx, s)
			refreshed++
		}
	}

	if r.observer != nil {
		now := time.Now()
		for _, s := range r.nearby {
			s.SetApproxDistance(Distance(*r.observer, s.Coords()).Miles(), now)
		}
	}

	return refreshed
}

// EvictExpired drops invalid sightings from both collections. Surviving
// entries keep their relative order.
func (r *Registry) EvictExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	r.active, evicted = keepValid(r.active, now, evicted, r.logger)
	r.nearby, evicted = keepValid(r.nearby, now, evicted, r.logger)
	return evicted
}

func keepValid(list []*Sighting, now time.Time, evicted int, logger *slog.Logger) ([]*Sighting, int) {
	kept := list[:0]
	for _, s := range list {
		if s.IsStillValid(now) {
			kept = append(kept, s)
			continue
		}
		logger.Info("evicting expired sighting", "subject", s.Name(), "id", s.ID())
		evicted++
	}
	return kept, evicted
}

// Remove drops a sighting by id from whichever collection holds it.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, list := range []*[]*Sighting{&r.active, &r.nearby} {
		for i, s := range *list {
			if s.ID() == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Counts returns the sizes of the active and nearby collections.
func (r *Registry) Counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active), len(r.nearby)
}

// SortedActive returns active sightings ascending by travel time. Sightings
// without a computed travel time sort last: never-measured entries should not
// crowd the top of the list.
func (r *Registry) SortedActive(now time.Time) []SightingView {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make([]SightingView, 0, len(r.active))
	for _, s := range r.sortedActiveLocked() {
		views = append(views, snapshot(s, now))
	}
	return views
}

func (r *Registry) sortedActiveLocked() []*Sighting {
	sorted := make([]*Sighting, len(r.active))
	copy(sorted, r.active)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessByMeasure(etaMeasure(sorted[i]), etaMeasure(sorted[j]))
	})
	return sorted
}

// SortedNearby returns nearby sightings ascending by distance, unmeasured
// last.
func (r *Registry) SortedNearby(now time.Time) []SightingView {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]*Sighting, len(r.nearby))
	copy(sorted, r.nearby)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessByMeasure(distanceMeasure(sorted[i]), distanceMeasure(sorted[j]))
	})

	views := make([]SightingView, len(sorted))
	for i, s := range sorted {
		views[i] = snapshot(s, now)
	}
	return views
}

// LabelActive sorts the active collection and assigns positional map labels
// (A..Z, then digits) in sorted order. Labels exist only for the rendering
// they were assigned for; distance refreshes clear them.
func (r *Registry) LabelActive(now time.Time) []SightingView {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := r.sortedActiveLocked()
	views := make([]SightingView, len(sorted))
	for i, s := range sorted {
		s.SetLabel(positionLabel(i))
		views[i] = snapshot(s, now)
	}
	return views
}

// positionLabel yields A..Z for the first 26 positions, then 0, 1, 2, ...
func positionLabel(pos int) string {
	if pos < 26 {
		return string(rune('A' + pos))
	}
	return fmt.Sprintf("%d", pos-26)
}

type measure struct {
	value float64
	known bool
}

func etaMeasure(s *Sighting) measure {
	m := measure{}
	m.value, m.known = s.ETAMinutes()
	return m
}

func distanceMeasure(s *Sighting) measure {
	m := measure{}
	m.value, m.known = s.DistanceMiles()
	return m
}

func lessByMeasure(a, b measure) bool {
	if a.known != b.known {
		return a.known // unmeasured sorts last
	}
	return a.value < b.value
}
