package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ms-storefront/internal/config"
	"ms-storefront/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("geocoder API key is not configured")
	ErrNoResults     = errors.New("geocoding returned no results")
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a drop address to coordinates via a forward-geocoding
// HTTP API. Results are not cached; every call is independent.
type Geocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGeocoder(cfg config.GeocoderConfig) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve returns the address's coordinates. Explicit latitude/longitude on
// the address short-circuit the network call.
func (g *Geocoder) Resolve(ctx context.Context, addr models.DropAddress) (LatLng, error) {
	if addr.Latitude != nil && addr.Longitude != nil {
		return LatLng{Lat: *addr.Latitude, Lng: *addr.Longitude}, nil
	}
	return g.Forward(ctx, addr)
}

// Forward geocodes the textual address, ignoring any embedded coordinates.
func (g *Geocoder) Forward(ctx context.Context, addr models.DropAddress) (LatLng, error) {
	if g.apiKey == "" {
		return LatLng{}, ErrMissingAPIKey
	}

	query := strings.TrimSpace(fmt.Sprintf("%s %s %s %s", addr.Line1, addr.Area, addr.City, addr.Pincode))
	reqURL := fmt.Sprintf("%s/forward?access_key=%s&query=%s", g.baseURL, url.QueryEscape(g.apiKey), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return LatLng{}, fmt.Errorf("failed to create geocoding request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return LatLng{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LatLng{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return LatLng{}, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(body.Data) == 0 {
		return LatLng{}, ErrNoResults
	}

	return LatLng{Lat: body.Data[0].Latitude, Lng: body.Data[0].Longitude}, nil
}
