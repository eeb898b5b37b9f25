package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ReadmitWindow is how far back startup replay reaches into the event store.
// Shorter than the sighting TTL so freshly reloaded entries still have some
// life left.
const ReadmitWindow = 700 * time.Second

var ErrMalformedReport = errors.New("malformed report")

// Report is one incoming sighting report, already split into fields by the
// transport bridge. RawText is empty for reports replayed from the store.
type Report struct {
	Time    time.Time
	Name    string
	Coords  Coordinates
	RawText string
	Link    string
}

// ParseCoordinates extracts the subject position out of a report's map link,
// e.g. "<http://maps.google.com/maps?q=37.7749,-122.4194|Open in Google Maps>".
func ParseCoordinates(link string) (Coordinates, error) {
	trimmed := strings.Trim(link, "<>")
	if cut := strings.Index(trimmed, "|"); cut != -1 {
		trimmed = trimmed[:cut]
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %s: %w", ErrMalformedReport, link, err)
	}

	q := parsed.Query().Get("q")
	if q == "" {
		return Coordinates{}, fmt.Errorf("%w: no coordinate query in %q", ErrMalformedReport, link)
	}

	parts := strings.Split(q, ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("%w: coordinate pair expected, got %q", ErrMalformedReport, q)
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return Coordinates{}, fmt.Errorf("%w: unparsable coordinates %q", ErrMalformedReport, q)
	}

	return NewCoordinates(lat, lon), nil
}

// Pipeline is the ingestion path: report in, sighting admitted, event
// persisted, admission-time alert evaluated. Transports (webhook, replay,
// whatever bridge feeds us) all call Submit.
type Pipeline struct {
	Registry *Registry
	Notifier *Notifier
	Lists    *Watchlists
	Store    *EventStore // nil disables persistence
	Logger   *slog.Logger
}

// Submit runs one report through the pipeline. A discarded report (untracked
// and not nearby) is not an error; a malformed one is, and the caller skips
// it.
func (p *Pipeline) Submit(ctx context.Context, report Report) (*Sighting, AdmitOutcome, error) {
	if report.Name == "" {
		return nil, Discarded, fmt.Errorf("%w: empty subject name", ErrMalformedReport)
	}

	if p.Store != nil && report.RawText != "" {
		if err := p.Store.Append(report); err != nil {
			// Persistence trouble shouldn't stop tracking.
			p.Logger.Error("failed to persist report", "subject", report.Name, "error", err)
		}
	}

	s := NewSighting(report.Time, report.Name, report.Coords, report.RawText, report.Link, p.Lists)
	outcome := p.Registry.Admit(ctx, s, time.Now())
	if outcome == AdmittedActive {
		p.Notifier.MaybeAlert(s, time.Now())
	}

	return s, outcome, nil
}

// Replay re-admits recently persisted reports at startup, so a restart
// doesn't forget in-flight sightings. Raw text is deliberately not restored,
// which keeps replayed sightings from re-alerting.
func (p *Pipeline) Replay(ctx context.Context, limit int) error {
	if p.Store == nil {
		return nil
	}

	reports, err := p.Store.Recent(limit)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	now := time.Now()
	reloaded := 0
	for _, report := range reports {
		if now.After(report.Time.Add(ReadmitWindow)) {
			continue
		}
		report.RawText = ""
		if _, _, err := p.Submit(ctx, report); err != nil {
			p.Logger.Warn("skipping unreplayable event", "subject", report.Name, "error", err)
			continue
		}
		reloaded++
	}

	p.Logger.Info("replayed recent events", "candidates", len(reports), "reloaded", reloaded)
	return nil
}
