package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// StaticMapGenerator renders the observer plus the labelled active sightings
// to a map image on disk, for the dashboard to serve. The image is replaced
// atomically and only re-fetched when the marker set actually changed.
type StaticMapGenerator struct {
	baseURL string
	apiKey  string
	outPath string
	client  *http.Client
	prevURL string
	logger  *slog.Logger
}

func NewStaticMapGenerator(baseURL, apiKey, outPath string, logger *slog.Logger) *StaticMapGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticMapGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		outPath: outPath,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// Generate builds the marker URL from the sorted active collection and
// downloads the image. Without an observer position there is nothing to
// center on, so any stale image is removed instead.
func (g *StaticMapGenerator) Generate(ctx context.Context, registry *Registry) error {
	observer, ok := registry.Observer()
	if !ok {
		g.prevURL = ""
		if err := os.Remove(g.outPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("staticmap: failed to remove stale image: %w", err)
		}
		return nil
	}

	views := registry.LabelActive(time.Now())
	if len(views) == 0 {
		return nil
	}

	mapURL := g.buildURL(observer, views)
	if mapURL == g.prevURL {
		return nil
	}

	body, fetchErr := fetchBytes(ctx, g.client, mapURL)
	if fetchErr != nil {
		return fmt.Errorf("staticmap: %w", fetchErr)
	}

	tmpPath := g.outPath + ".tmp"
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		return fmt.Errorf("staticmap: failed to write image: %w", err)
	}
	if err := os.Rename(tmpPath, g.outPath); err != nil {
		return fmt.Errorf("staticmap: failed to replace image: %w", err)
	}

	g.prevURL = mapURL
	g.logger.Debug("static map updated", "markers", len(views)+1)
	return nil
}

func (g *StaticMapGenerator) buildURL(observer Coordinates, views []SightingView) string {
	params := url.Values{}
	params.Set("size", "640x640")
	params.Set("center", observer.QueryString())
	params.Set("maptype", "roadmap")
	params.Set("key", g.apiKey)

	var markers strings.Builder
	markers.WriteString("&markers=" + url.QueryEscape("color:black|"+observer.QueryString()))
	for _, v := range views {
		markers.WriteString("&markers=" + url.QueryEscape(
			fmt.Sprintf("label:%s|%s", v.Label, v.Coords.QueryString())))
	}

	return g.baseURL + "?" + params.Encode() + markers.String()
}
