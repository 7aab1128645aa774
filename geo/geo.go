// Package geo turns coordinates into a postal address through an optional
// mapping service. Lookups never gate checkout; callers fall back to manual
// address entry when they fail.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	models "cafe-cart/model"
)

// ErrUnavailable is returned when no mapping service is configured or it
// has no answer for the coordinates.
var ErrUnavailable = errors.New("reverse geocoding unavailable")

const defaultBaseURL = "https://maps.googleapis.com"

// Geocoder resolves a coordinate pair to a formatted address.
type Geocoder interface {
	Reverse(ctx context.Context, at models.LatLng) (string, error)
}

// GoogleGeocoder talks to the Google Geocoding JSON API.
type GoogleGeocoder struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewGoogleGeocoder(baseURL, apiKey string, timeout time.Duration) *GoogleGeocoder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleGeocoder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, at models.LatLng) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("%w: no api key", ErrUnavailable)
	}
	q := url.Values{}
	q.Set("latlng", Coord(at.Lat)+","+Coord(at.Lng))
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/maps/api/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode request: status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("geocode decode: %w", err)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return "", fmt.Errorf("%w: status %s %s", ErrUnavailable, body.Status, body.ErrorMessage)
	}
	return body.Results[0].FormattedAddress, nil
}

// Nop is used when no mapping service is configured.
type Nop struct{}

func (Nop) Reverse(context.Context, models.LatLng) (string, error) {
	return "", ErrUnavailable
}

// MapLink points a map at the coordinates.
func MapLink(at models.LatLng) string {
	return "https://www.google.com/maps?q=" + Coord(at.Lat) + "," + Coord(at.Lng)
}

// Coord prints a coordinate with the shortest exact decimal form.
func Coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
