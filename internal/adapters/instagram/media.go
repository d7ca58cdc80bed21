// Package instagram searches geotagged photos through the media search API.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/pkg/httpclient"
	"github.com/mjsgreen01/Instatrip/internal/pkg/metrics"
)

const provider = "instagram"

// MediaClient implements ports.PhotoProvider.
type MediaClient struct {
	client      *fasthttp.Client
	baseURL     string
	accessToken string
	timeout     time.Duration
}

// NewMediaClient creates a new MediaClient.
func NewMediaClient(baseURL, accessToken string, timeout time.Duration) *MediaClient {
	return &MediaClient{
		client:      httpclient.New(provider),
		baseURL:     baseURL,
		accessToken: accessToken,
		timeout:     timeout,
	}
}

// SearchPhotos returns the photos posted within radiusMeters of point.
func (c *MediaClient) SearchPhotos(ctx context.Context, point domain.GeoPoint, radiusMeters int) ([]domain.PhotoRecord, error) {
	body, status, err := httpclient.Get(ctx, c.client, c.requestURI(point, radiusMeters), c.timeout)
	if err != nil {
		return nil, &domain.ProviderError{Provider: provider, Op: "media search", Err: err}
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.ProviderError{Provider: provider, Op: "media search", Err: fmt.Errorf("unexpected status %d", status)}
	}
	return ParseMedia(body)
}

func (c *MediaClient) requestURI(point domain.GeoPoint, radiusMeters int) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(point.Lng, 'f', -1, 64))
	q.Set("distance", strconv.Itoa(radiusMeters))
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	return c.baseURL + "?" + q.Encode()
}

type mediaResponse struct {
	Meta struct {
		Code         int    `json:"code"`
		ErrorType    string `json:"error_type"`
		ErrorMessage string `json:"error_message"`
	} `json:"meta"`
	Data []mediaItem `json:"data"`
}

type mediaItem struct {
	Link   string `json:"link"`
	Images *struct {
		LowResolution *struct {
			URL string `json:"url"`
		} `json:"low_resolution"`
	} `json:"images"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
}

// ParseMedia converts a media search body into photo records, in response
// order. Items without a link, a low resolution image or a full location
// are dropped.
func ParseMedia(body []byte) ([]domain.PhotoRecord, error) {
	var resp mediaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ProviderError{Provider: provider, Op: "decode media", Err: err}
	}
	if resp.Meta.Code != 0 && resp.Meta.Code != fasthttp.StatusOK {
		return nil, &domain.ProviderError{
			Provider: provider,
			Op:       "media search",
			Err:      fmt.Errorf("%s (%d): %s", resp.Meta.ErrorType, resp.Meta.Code, resp.Meta.ErrorMessage),
		}
	}

	photos := make([]domain.PhotoRecord, 0, len(resp.Data))
	for _, item := range resp.Data {
		rec, ok := item.record()
		if !ok {
			metrics.PhotosDropped.Inc()
			continue
		}
		photos = append(photos, rec)
	}
	return photos, nil
}

func (m mediaItem) record() (domain.PhotoRecord, bool) {
	if m.Link == "" || m.Images == nil || m.Images.LowResolution == nil || m.Images.LowResolution.URL == "" {
		return domain.PhotoRecord{}, false
	}
	if m.Location == nil || m.Location.Latitude == nil || m.Location.Longitude == nil {
		return domain.PhotoRecord{}, false
	}
	return domain.PhotoRecord{
		Link:     m.Link,
		ImageURL: m.Images.LowResolution.URL,
		Location: domain.GeoPoint{Lat: *m.Location.Latitude, Lng: *m.Location.Longitude},
	}, true
}
