package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 10 * time.Second

var (
	ErrNonOkResponse     = errors.New("non-OK response")
	ErrEmptyResponseBody = errors.New("empty response body")
)

// fetchBytes sends an HTTP GET request and returns the raw response body.
// Every external lookup in the refresh cycle goes through here so the timeout
// is bounded in one place.
func fetchBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("fetchBytes: invalid request error: %s : %w", url, reqErr)
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, respErr := client.Do(req)
	if respErr != nil {
		return nil, fmt.Errorf("fetchBytes: failed to send GET request: %w", respErr)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			respErr = fmt.Errorf("fetchBytes: error while closing response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetchBytes: %w %s", ErrNonOkResponse, resp.Status)
	}

	body, bodyErr := io.ReadAll(resp.Body)
	if bodyErr != nil {
		return nil, fmt.Errorf("fetchBytes: failed to read response body: %w", bodyErr)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("fetchBytes: %w", ErrEmptyResponseBody)
	}

	return body, nil
}
