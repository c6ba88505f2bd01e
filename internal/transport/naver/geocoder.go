// Package naver is the Geocoding Resolver client: it resolves a free-text
// place query to coordinates through an NCP-style geocode API. The engine
// treats the service as a black box; one request, no retries.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rooibos-labs/corpsearch/internal/domain"
)

const (
	headerKeyID = "X-NCP-APIGW-API-KEY-ID"
	headerKey   = "X-NCP-APIGW-API-KEY"
)

// Client calls the geocode endpoint.
type Client struct {
	baseURL string
	keyID   string
	key     string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the geocode endpoint settings.
type Config struct {
	BaseURL string
	KeyID   string
	Key     string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a geocoder client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		keyID:   cfg.KeyID,
		key:     cfg.Key,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

// geocodeResponse is the wire shape of the geocode API. Coordinates arrive
// as decimal strings.
type geocodeResponse struct {
	Addresses []struct {
		X           string `json:"x"` // longitude
		Y           string `json:"y"` // latitude
		RoadAddress string `json:"roadAddress"`
	} `json:"addresses"`
}

// Resolve geocodes a place query. The first candidate wins; an empty
// candidate list is domain.ErrLocationNotFound.
func (c *Client) Resolve(ctx context.Context, query string) (domain.Location, error) {
	u := c.baseURL + "?query=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set(headerKeyID, c.keyID)
	req.Header.Set(headerKey, c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Location{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(body.Addresses) == 0 {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, query)
	}

	first := body.Addresses[0]
	lat, err := strconv.ParseFloat(first.Y, 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("parse latitude %q: %w", first.Y, err)
	}
	lon, err := strconv.ParseFloat(first.X, 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("parse longitude %q: %w", first.X, err)
	}

	c.logger.Debug("geocoded query",
		zap.String("query", query),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
	)

	return domain.Location{Latitude: lat, Longitude: lon, Address: first.RoadAddress}, nil
}
