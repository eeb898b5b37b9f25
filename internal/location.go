package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrMalformedLocation = errors.New("malformed location response")

// LocationService yields the observer's current position from a
// device-location backend. Query failures are expected to be transient; the
// caller invokes Reconnect and retries on the next cycle.
type LocationService interface {
	Query(ctx context.Context) (Coordinates, error)
	Reconnect(ctx context.Context) error
}

// DeviceLocator is an HTTP client for a device-location API with a bearer
// token and an explicit session-refresh endpoint.
type DeviceLocator struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewDeviceLocator(baseURL, token string) *DeviceLocator {
	return &DeviceLocator{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type locationResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (d *DeviceLocator) Query(ctx context.Context) (Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/location", nil)
	if reqErr != nil {
		return Coordinates{}, fmt.Errorf("locator query: %w", reqErr)
	}
	d.authorize(req)

	resp, respErr := d.client.Do(req)
	if respErr != nil {
		return Coordinates{}, fmt.Errorf("locator query: %w", respErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("locator query: %w %s", ErrNonOkResponse, resp.Status)
	}

	body, bodyErr := io.ReadAll(resp.Body)
	if bodyErr != nil {
		return Coordinates{}, fmt.Errorf("locator query: %w", bodyErr)
	}

	var loc locationResponse
	if err := json.Unmarshal(body, &loc); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %w", ErrMalformedLocation, err)
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return Coordinates{}, fmt.Errorf("%w: missing coordinates", ErrMalformedLocation)
	}

	return NewCoordinates(*loc.Latitude, *loc.Longitude), nil
}

// Reconnect asks the backend for a fresh session. Called after a failed
// Query; the next cycle retries regardless of the outcome here.
func (d *DeviceLocator) Reconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/reconnect", nil)
	if reqErr != nil {
		return fmt.Errorf("locator reconnect: %w", reqErr)
	}
	d.authorize(req)

	resp, respErr := d.client.Do(req)
	if respErr != nil {
		return fmt.Errorf("locator reconnect: %w", respErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("locator reconnect: %w %s", ErrNonOkResponse, resp.Status)
	}
	return nil
}

func (d *DeviceLocator) authorize(req *http.Request) {
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
}

// Compile-time check that DeviceLocator satisfies the interface.
var _ LocationService = (*DeviceLocator)(nil)
