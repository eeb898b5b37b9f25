package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// minutesPerMile is the conservative travel time factor used when only a
	// great-circle distance is available.
	minutesPerMile = 3.0
)

var (
	ErrMalformedDistanceResponse = errors.New("malformed distance response")
	ErrNoRouteFound              = errors.New("no route in distance response")
)

// DistanceResolver computes distance and travel time from the observer to a
// sighting and writes the result back onto the sighting.
type DistanceResolver interface {
	Resolve(ctx context.Context, observer Coordinates, s *Sighting) error
}

// HaversineResolver is the fast local strategy: great-circle distance with a
// fixed minutes-per-mile travel estimate. It never fails.
type HaversineResolver struct{}

func (HaversineResolver) Resolve(_ context.Context, observer Coordinates, s *Sighting) error {
	miles := s.SetApproxDistance(Distance(observer, s.Coords()).Miles(), time.Now())
	s.SetApproxETA(miles * minutesPerMile)
	return nil
}

// DriveTimeResolver queries an external driving-distance API. On any failure
// (network, non-OK status, unparsable body) it degrades to the haversine
// estimate for that call and leaves the sighting marked approximate so the
// next refresh retries the precise lookup.
type DriveTimeResolver struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	fallback HaversineResolver
	logger   *slog.Logger
}

func NewDriveTimeResolver(baseURL, apiKey string, logger *slog.Logger) *DriveTimeResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriveTimeResolver{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

func (r *DriveTimeResolver) Resolve(ctx context.Context, observer Coordinates, s *Sighting) error {
	miles, minutes, err := r.query(ctx, observer, s.Coords())
	if err != nil {
		r.logger.Warn("distance lookup failed, falling back to haversine",
			"subject", s.Name(), "id", s.ID(), "error", err)
		return r.fallback.Resolve(ctx, observer, s)
	}

	s.SetPreciseResult(observer, miles, minutes, time.Now())
	return nil
}

// distanceMatrixResponse mirrors the JSON returned by the distance API.
// Distance and duration arrive as display text ("3.2 mi", "12 mins"); the
// numeric prefix is what we want.
type distanceMatrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Text string `json:"text"`
			} `json:"distance"`
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

func (r *DriveTimeResolver) query(ctx context.Context, origin, dest Coordinates) (float64, float64, error) {
	params := url.Values{}
	params.Set("origins", origin.QueryString())
	params.Set("destinations", dest.QueryString())
	params.Set("mode", "driving")
	params.Set("units", "imperial")
	params.Set("key", r.apiKey)

	body, fetchErr := fetchBytes(ctx, r.client, r.baseURL+"?"+params.Encode())
	if fetchErr != nil {
		return 0, 0, fetchErr
	}

	var res distanceMatrixResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrMalformedDistanceResponse, err)
	}

	if len(res.Rows) == 0 || len(res.Rows[0].Elements) == 0 {
		return 0, 0, ErrNoRouteFound
	}

	elem := res.Rows[0].Elements[0]
	if elem.Status != "" && elem.Status != "OK" {
		return 0, 0, fmt.Errorf("%w: element status %s", ErrNoRouteFound, elem.Status)
	}

	miles, milesErr := parseQuantity(elem.Distance.Text)
	if milesErr != nil {
		return 0, 0, fmt.Errorf("%w: distance %q", ErrMalformedDistanceResponse, elem.Distance.Text)
	}

	minutes, minutesErr := parseQuantity(elem.Duration.Text)
	if minutesErr != nil {
		return 0, 0, fmt.Errorf("%w: duration %q", ErrMalformedDistanceResponse, elem.Duration.Text)
	}

	return miles, minutes, nil
}

// parseQuantity strips the unit suffix and thousands separators off an API
// display value like "1,024 mi" or "18 mins".
func parseQuantity(text string) (float64, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(text), "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ ")
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	if trimmed == "" {
		return 0, ErrMalformedDistanceResponse
	}
	return strconv.ParseFloat(trimmed, 64)
}
