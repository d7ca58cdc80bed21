// Package google resolves routes through the Google Maps Directions API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/pkg/httpclient"
)

const provider = "google"

// DirectionsClient implements ports.RouteProvider.
type DirectionsClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewDirectionsClient creates a new DirectionsClient.
func NewDirectionsClient(baseURL, apiKey string, timeout time.Duration) *DirectionsClient {
	return &DirectionsClient{
		client:  httpclient.New(provider),
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// GetRoute requests directions between two free-form locations and returns
// the first leg of the first route, in metric units.
func (c *DirectionsClient) GetRoute(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
	body, status, err := httpclient.Get(ctx, c.client, c.requestURI(start, end, mode), c.timeout)
	if err != nil {
		return nil, &domain.ProviderError{Provider: provider, Op: "directions", Err: err}
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.ProviderError{Provider: provider, Op: "directions", Err: fmt.Errorf("unexpected status %d", status)}
	}
	return ParseDirections(body)
}

func (c *DirectionsClient) requestURI(start, end string, mode domain.TravelMode) string {
	q := url.Values{}
	q.Set("origin", start)
	q.Set("destination", end)
	q.Set("mode", strings.ToLower(string(mode)))
	q.Set("units", "metric")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return c.baseURL + "?" + q.Encode()
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance      distance        `json:"distance"`
			StartLocation domain.GeoPoint `json:"start_location"`
			EndLocation   domain.GeoPoint `json:"end_location"`
			StartAddress  string          `json:"start_address"`
			EndAddress    string          `json:"end_address"`
			Steps         []struct {
				Distance      distance        `json:"distance"`
				StartLocation domain.GeoPoint `json:"start_location"`
				EndLocation   domain.GeoPoint `json:"end_location"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type distance struct {
	Value int `json:"value"` // meters
}

// ParseDirections converts a Directions API response body into a route.
// NOT_FOUND, ZERO_RESULTS and an empty route list mean one of the locations
// could not be resolved.
func ParseDirections(body []byte) (*domain.Route, error) {
	var resp directionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ProviderError{Provider: provider, Op: "decode directions", Err: err}
	}

	switch resp.Status {
	case "OK":
	case "NOT_FOUND", "ZERO_RESULTS":
		return nil, domain.ErrInvalidLocation
	default:
		msg := resp.Status
		if resp.ErrorMessage != "" {
			msg += ": " + resp.ErrorMessage
		}
		return nil, &domain.ProviderError{Provider: provider, Op: "directions", Err: errors.New(msg)}
	}

	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, domain.ErrInvalidLocation
	}

	leg := resp.Routes[0].Legs[0]
	route := &domain.Route{
		TotalDistanceMeters: leg.Distance.Value,
		StartLocation:       leg.StartLocation,
		EndLocation:         leg.EndLocation,
		StartAddress:        leg.StartAddress,
		EndAddress:          leg.EndAddress,
		Steps:               make([]domain.RouteStep, 0, len(leg.Steps)),
	}
	for _, s := range leg.Steps {
		route.Steps = append(route.Steps, domain.RouteStep{
			DistanceMeters: s.Distance.Value,
			Start:          s.StartLocation,
			End:            s.EndLocation,
		})
	}
	return route, nil
}
