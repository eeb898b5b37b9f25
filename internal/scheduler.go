package internal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CycleState tracks where the scheduler is within a refresh cycle.
type CycleState int

const (
	StateIdle CycleState = iota
	StateRefreshing
	StateEvaluating
)

func (s CycleState) String() string {
	switch s {
	case StateRefreshing:
		return "refreshing"
	case StateEvaluating:
		return "evaluating"
	default:
		return "idle"
	}
}

// Scheduler drives the recurring refresh cycle: observer location, distance
// refresh, eviction, map regeneration. The loop only stops when its context
// is cancelled; component errors are logged and the next tick retries.
type Scheduler struct {
	registry *Registry
	locator  LocationService // nil when no location backend is configured
	mapGen   *StaticMapGenerator
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	state    CycleState
	lastRun  time.Time
	cycleNum uint64
}

func NewScheduler(registry *Registry, locator LocationService, mapGen *StaticMapGenerator, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		registry: registry,
		locator:  locator,
		mapGen:   mapGen,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks, executing one refresh cycle immediately and then one per tick
// until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("refresh cycle panicked", "panic", r)
		}
		s.setState(StateIdle)
	}()

	s.setState(StateRefreshing)
	s.refreshObserver(ctx)

	refreshed := s.registry.RefreshAll(ctx)

	s.setState(StateEvaluating)
	evicted := s.registry.EvictExpired(time.Now())

	if s.mapGen != nil {
		if err := s.mapGen.Generate(ctx, s.registry); err != nil {
			s.logger.Warn("static map generation failed", "error", err)
		}
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.cycleNum++
	s.mu.Unlock()

	active, nearby := s.registry.Counts()
	s.logger.Debug("refresh cycle complete",
		"refreshed", refreshed, "evicted", evicted, "active", active, "nearby", nearby)
}

func (s *Scheduler) refreshObserver(ctx context.Context) {
	if s.locator == nil {
		return
	}

	coords, err := s.locator.Query(ctx)
	if err != nil {
		s.logger.Warn("observer location lookup failed", "error", err)
		if reconnectErr := s.locator.Reconnect(ctx); reconnectErr != nil {
			s.logger.Warn("locator reconnect failed", "error", reconnectErr)
		}
		return
	}

	s.registry.SetObserver(coords)
}

func (s *Scheduler) setState(state CycleState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns the current cycle state.
func (s *Scheduler) State() CycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SecondsUntilNextUpdate is how long until the next cycle is due. Dashboard
// metadata; clamped at zero.
func (s *Scheduler) SecondsUntilNextUpdate() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun.IsZero() {
		return 0
	}
	remaining := time.Until(s.lastRun.Add(s.interval))
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
