// Package osrm resolves routes between "lat,lng" inputs through an OSRM
// routing server.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/pkg/httpclient"
)

const provider = "osrm"

// RouteClient implements ports.RouteProvider.
type RouteClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
}

// NewRouteClient creates a new RouteClient.
func NewRouteClient(baseURL string, timeout time.Duration) *RouteClient {
	return &RouteClient{
		client:  httpclient.New(provider),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// ParseCoord parses "lat,lng".
func ParseCoord(input string) (domain.GeoPoint, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("invalid coordinate: %s", input)
	}

	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.GeoPoint{}, fmt.Errorf("invalid lat/lng: %s", input)
	}

	return domain.GeoPoint{Lat: lat, Lng: lng}, nil
}

// Profile maps a travel mode to an OSRM profile. OSRM has no transit
// profile; transit is routed as driving.
func Profile(mode domain.TravelMode) string {
	switch mode {
	case domain.TravelWalking:
		return "foot"
	case domain.TravelBicycling:
		return "bike"
	}
	return "driving"
}

// GetRoute routes between two "lat,lng" strings.
func (c *RouteClient) GetRoute(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
	from, err := ParseCoord(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidLocation, err)
	}
	to, err := ParseCoord(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidLocation, err)
	}

	uri := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?steps=true&overview=false",
		c.baseURL, Profile(mode), from.Lng, from.Lat, to.Lng, to.Lat)

	body, status, err := httpclient.Get(ctx, c.client, uri, c.timeout)
	if err != nil {
		return nil, &domain.ProviderError{Provider: provider, Op: "route", Err: err}
	}

	route, err := ParseRoute(body)
	if err != nil && status != fasthttp.StatusOK && !errors.Is(err, domain.ErrInvalidLocation) {
		return nil, &domain.ProviderError{Provider: provider, Op: "route", Err: fmt.Errorf("status %d: %w", status, err)}
	}
	return route, err
}

// OSRM coordinates are [lon, lat].
type lonLat []float64

func (l lonLat) point() (domain.GeoPoint, bool) {
	if len(l) != 2 {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: l[1], Lng: l[0]}, true
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Legs     []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Maneuver struct {
					Location lonLat `json:"location"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
	Waypoints []struct {
		Name     string `json:"name"`
		Location lonLat `json:"location"`
	} `json:"waypoints"`
}

// ParseRoute converts an OSRM route response into a route. Each step runs
// from its maneuver location to the next step's maneuver location.
func ParseRoute(body []byte) (*domain.Route, error) {
	var resp routeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ProviderError{Provider: provider, Op: "decode route", Err: err}
	}

	switch resp.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return nil, domain.ErrInvalidLocation
	default:
		return nil, &domain.ProviderError{Provider: provider, Op: "route", Err: fmt.Errorf("%s: %s", resp.Code, resp.Message)}
	}
	if len(resp.Routes) == 0 {
		return nil, domain.ErrInvalidLocation
	}

	r := resp.Routes[0]
	route := &domain.Route{TotalDistanceMeters: int(math.Round(r.Distance))}

	if n := len(resp.Waypoints); n >= 2 {
		route.StartLocation, _ = resp.Waypoints[0].Location.point()
		route.EndLocation, _ = resp.Waypoints[n-1].Location.point()
		route.StartAddress = resp.Waypoints[0].Name
		route.EndAddress = resp.Waypoints[n-1].Name
	}

	for _, leg := range r.Legs {
		for i, s := range leg.Steps {
			start, ok := s.Maneuver.Location.point()
			if !ok {
				return nil, &domain.ProviderError{Provider: provider, Op: "route", Err: domain.ErrMalformedRoute}
			}
			end := start
			if i+1 < len(leg.Steps) {
				if next, ok := leg.Steps[i+1].Maneuver.Location.point(); ok {
					end = next
				}
			}
			route.Steps = append(route.Steps, domain.RouteStep{
				DistanceMeters: int(math.Round(s.Distance)),
				Start:          start,
				End:            end,
			})
		}
	}
	return route, nil
}
