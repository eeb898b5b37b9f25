package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
)

const (
	// appIconPath is the file path to the icon png for this application.
	appIconPath = "./assets/icon.png"
)

// AlertSink delivers an outbound alert to the user. The chat/SMS bridges live
// outside this repo; in-process we ship a desktop sink.
type AlertSink interface {
	Send(title, body string) error
}

// DesktopSink raises a desktop notification via beeep.
type DesktopSink struct{}

func (DesktopSink) Send(title, body string) error {
	return beeep.Notify(title, body, appIconPath)
}

// Notifier decides whether an admitted sighting warrants an outbound alert
// and emits it. The decision is made once, at admission time; refresh cycles
// do not re-evaluate.
type Notifier struct {
	lists   *Watchlists
	cfg     AlertConfig
	enabled bool
	sink    AlertSink
	logger  *slog.Logger
}

func NewNotifier(lists *Watchlists, cfg AlertConfig, enabled bool, sink AlertSink, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		lists:   lists,
		cfg:     cfg,
		enabled: enabled,
		sink:    sink,
		logger:  logger,
	}
}

// ShouldAlert is the pure alert policy: always-alert subjects fire at any
// hour within their range, critical+notable fires at any hour, everything
// else only inside the configured hour window.
func (n *Notifier) ShouldAlert(s *Sighting, distanceMiles float64, hourOfDay int) bool {
	if n.lists.IsAlwaysAlert(s.Name()) && distanceMiles < n.cfg.AlwaysMaxDistance {
		return true
	}

	class := s.Classification()
	if class.Critical && class.Notable {
		return true
	}

	if hourOfDay >= n.cfg.EarlyHour && hourOfDay <= n.cfg.LateHour {
		if class.Notable && distanceMiles < n.cfg.NotableMaxDistance {
			return true
		}
		if class.Critical && distanceMiles < n.cfg.CriticalMaxDistance {
			return true
		}
	}

	return false
}

// MaybeAlert runs the admission-time alert check and sends at most one alert.
// Sightings reloaded from the event store carry no raw text and never alert.
func (n *Notifier) MaybeAlert(s *Sighting, now time.Time) {
	if !n.enabled {
		return
	}
	if s.Classification().Suppressed {
		return
	}
	if s.RawText() == "" {
		return
	}

	distance, ok := s.DistanceMiles()
	if !ok {
		n.logger.Debug("no distance for alert check, skipping", "subject", s.Name())
		return
	}

	if !n.ShouldAlert(s, distance, now.Hour()) {
		return
	}

	body := FormatAlert(s)
	n.logger.Info("sending alert", "subject", s.Name(), "distance", distance)
	if err := n.sink.Send(s.Name(), body); err != nil {
		n.logger.Error("failed to send alert", "subject", s.Name(), "error", err)
	}
}

// SendSummary pushes a digest of the active collection through the sink, most
// reachable first. Used by the dashboard's manual "send now" action.
func (n *Notifier) SendSummary(views []SightingView, now time.Time) error {
	if len(views) == 0 {
		return nil
	}

	lines := make([]string, 0, len(views)+1)
	for _, v := range views {
		lines = append(lines, formatViewLine(v))
	}
	lines = append(lines, fmt.Sprintf("-=-=-%s-=-=-", now.Format("03:04:05PM")))

	return n.sink.Send("sightwatch", strings.Join(lines, "\n"))
}

// FormatAlert renders the per-sighting alert message.
func FormatAlert(s *Sighting) string {
	distance, _ := s.DistanceMiles()
	eta, hasETA := s.ETAMinutes()
	etaStr := "?"
	if hasETA {
		etaStr = fmt.Sprintf("%.0f", eta)
	}
	return fmt.Sprintf("`%s` time=%s(min) distance=%.2f(mi)\n%s", s.RawText(), etaStr, distance, s.Link())
}

func formatViewLine(v SightingView) string {
	etaStr, distStr := "?", "?"
	if v.HasETA {
		etaStr = fmt.Sprintf("%.0f", v.ETAMinutes)
	}
	if v.HasDistance {
		distStr = fmt.Sprintf("%.2f", v.DistanceMiles)
	}
	return fmt.Sprintf("`%s` time=%s(min) distance=%s(mi)\n%s", v.Name, etaStr, distStr, v.Link)
}
