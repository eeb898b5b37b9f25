package webapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwatts/sightwatch/internal"
)

// sightingJSON is the wire shape of one sighting. Distance fields are
// pointers so never-measured entries serialize as null rather than zero.
type sightingJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Link          string   `json:"link,omitempty"`
	Label         string   `json:"label,omitempty"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	DistanceMiles *float64 `json:"distance_miles"`
	ETAMinutes    *float64 `json:"eta_minutes"`
	HaversineOnly bool     `json:"haversine_only"`
	Critical      bool     `json:"critical"`
	Notable       bool     `json:"notable"`
	SecondsLeft   int      `json:"seconds_to_despawn"`
}

type sightingsResponse struct {
	Active             []sightingJSON `json:"active"`
	Nearby             []sightingJSON `json:"nearby"`
	NextRefreshSeconds int            `json:"next_refresh_seconds"`
	SchedulerState     string         `json:"scheduler_state"`
	Observer           *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"observer,omitempty"`
}

func toJSONViews(views []internal.SightingView) []sightingJSON {
	out := make([]sightingJSON, 0, len(views))
	for _, v := range views {
		item := sightingJSON{
			ID:            v.ID,
			Name:          v.Name,
			Link:          v.Link,
			Label:         v.Label,
			Latitude:      v.Coords.Latitude,
			Longitude:     v.Coords.Longitude,
			HaversineOnly: v.HaversineOnly,
			Critical:      v.Critical,
			Notable:       v.Notable,
			SecondsLeft:   int(v.TimeLeft.Seconds()),
		}
		if v.HasDistance {
			d := v.DistanceMiles
			item.DistanceMiles = &d
		}
		if v.HasETA {
			e := v.ETAMinutes
			item.ETAMinutes = &e
		}
		out = append(out, item)
	}
	return out
}

func (s *Server) handleListSightings(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	resp := sightingsResponse{
		Active:             toJSONViews(s.registry.SortedActive(now)),
		Nearby:             toJSONViews(s.registry.SortedNearby(now)),
		NextRefreshSeconds: s.scheduler.SecondsUntilNextUpdate(),
		SchedulerState:     s.scheduler.State().String(),
	}
	if observer, ok := s.registry.Observer(); ok {
		resp.Observer = &struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}{observer.Latitude, observer.Longitude}
	}

	writeJSON(w, http.StatusOK, resp)
}

// reportJSON is the webhook payload: whatever bridges the chat transport
// POSTs one of these per incoming report.
type reportJSON struct {
	Timestamp float64 `json:"ts"` // unix seconds, fractional allowed
	Name      string  `json:"name"`
	Text      string  `json:"text"`
	Link      string  `json:"link"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var payload reportJSON
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("dropping unparsable report payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	coords, err := internal.ParseCoordinates(payload.Link)
	if err != nil {
		s.logger.Warn("dropping malformed report", "name", payload.Name, "error", err)
		writeError(w, http.StatusBadRequest, "malformed report link")
		return
	}

	reportTime := time.Now()
	if payload.Timestamp > 0 {
		reportTime = time.Unix(int64(payload.Timestamp), 0)
	}

	sighting, outcome, err := s.pipeline.Submit(r.Context(), internal.Report{
		Time:    reportTime,
		Name:    payload.Name,
		Coords:  coords,
		RawText: payload.Text,
		Link:    payload.Link,
	})
	if err != nil {
		if errors.Is(err, internal.ErrMalformedReport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("report submission failed", "name", payload.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	status := map[internal.AdmitOutcome]string{
		internal.AdmittedActive: "active",
		internal.AdmittedNearby: "nearby",
		internal.Discarded:      "discarded",
	}[outcome]

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     sighting.ID(),
		"status": status,
	})
}

func (s *Server) handleRemoveSighting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registry.Remove(id) {
		writeError(w, http.StatusNotFound, "no such sighting")
		return
	}
	s.logger.Info("sighting removed via dashboard", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if err := s.notifier.SendSummary(s.registry.SortedActive(now), now); err != nil {
		s.logger.Error("manual summary send failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to send summary")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleMapImage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.mapPath)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
