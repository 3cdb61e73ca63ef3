package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder resolves a coordinate pair to a formatted address. Implementations
// are treated as unreliable and rate-limited; the Resolver wraps them.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// GoogleClient reverse-geocodes through the Google Maps Geocoding API.
// Language controls the script of returned addresses.
type GoogleClient struct {
	apiKey   string
	language string
	baseURL  string
	http     *retryablehttp.Client
}

func NewGoogleClient(apiKey, language string) *GoogleClient {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 8 * time.Second
	rc.Logger = nil

	return &GoogleClient{apiKey: apiKey, language: language, baseURL: googleGeocodeURL, http: rc}
}

// SetBaseURL overrides the geocoding endpoint (used for tests).
func (g *GoogleClient) SetBaseURL(u string) { g.baseURL = u }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

func (g *GoogleClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%v,%v", lat, lng))
	q.Set("key", g.apiKey)
	if g.language != "" {
		q.Set("language", g.language)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("geocode error %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	switch {
	case body.Status == "OK" && len(body.Results) > 0:
		return body.Results[0].FormattedAddress, nil
	case body.Status == "ZERO_RESULTS":
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("geocode status %s", body.Status)
	}
}
