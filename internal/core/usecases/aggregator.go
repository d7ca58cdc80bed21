package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/core/ports"
	"github.com/mjsgreen01/Instatrip/internal/pkg/metrics"
	"github.com/mjsgreen01/Instatrip/internal/pkg/telemetry"
)

const (
	// DefaultSearchRadiusMeters is the photo search radius around each stop-point.
	DefaultSearchRadiusMeters = 300

	// DefaultCallTimeout bounds every photo search so a lost response
	// cannot hold up the whole trip.
	DefaultCallTimeout = 5 * time.Second

	stallGrace = time.Second
)

// PhotoAggregator fetches photos for every stop-point concurrently and
// orders the resulting groups along the direction of travel.
type PhotoAggregator struct {
	photos       ports.PhotoProvider
	radiusMeters int
	callTimeout  time.Duration
}

// NewPhotoAggregator creates a new PhotoAggregator. Non-positive radius or
// timeout fall back to the defaults.
func NewPhotoAggregator(photos ports.PhotoProvider, radiusMeters int, callTimeout time.Duration) *PhotoAggregator {
	if radiusMeters <= 0 {
		radiusMeters = DefaultSearchRadiusMeters
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &PhotoAggregator{photos: photos, radiusMeters: radiusMeters, callTimeout: callTimeout}
}

// RadiusMeters returns the search radius used for every point.
func (a *PhotoAggregator) RadiusMeters() int {
	return a.radiusMeters
}

// Aggregate issues one photo search per coordinate and returns exactly one
// group per coordinate, sorted by SortGroups. Failed or timed out searches
// produce an empty group with Error set; they never fail the aggregation.
// The only error returned is the caller's context error.
func (a *PhotoAggregator) Aggregate(ctx context.Context, coords []domain.GeoPoint) ([]domain.CoordinatePhotoGroup, error) {
	if len(coords) == 0 {
		return []domain.CoordinatePhotoGroup{}, nil
	}

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "PhotoAggregator.Aggregate")
	defer span.End()

	start := time.Now()
	job := domain.NewAggregationJob(coords)

	// Buffered so searches never block on a collector that has moved on.
	results := make(chan searchResult, len(coords))
	for i, pt := range coords {
		go func(i int, pt domain.GeoPoint) {
			results <- searchResult{index: i, group: a.search(ctx, pt)}
		}(i, pt)
	}

	// Each search is bounded by callTimeout. A provider that ignores its
	// context still cannot hold the job past this deadline.
	stall := time.NewTimer(a.callTimeout + stallGrace)
	defer stall.Stop()

	arrived := make([]bool, len(coords))
	failed := 0
	for !job.Done() {
		select {
		case r := <-results:
			arrived[r.index] = true
			if r.group.Error != "" {
				failed++
			}
			job.Add(r.group)
		case <-stall.C:
			slog.ErrorContext(ctx, "photo aggregation stalled",
				"error", domain.ErrAggregationStall, "outstanding", job.Pending)
			for i, ok := range arrived {
				if ok {
					continue
				}
				metrics.PhotoSearches.WithLabelValues("timeout").Inc()
				failed++
				job.Add(domain.CoordinatePhotoGroup{
					Coordinate: coords[i],
					Photos:     []domain.PhotoRecord{},
					Error:      domain.ErrAggregationStall.Error(),
				})
			}
		}
	}

	metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int(telemetry.AttrGroupCount, len(job.Groups)),
		attribute.Int(telemetry.AttrFailedCalls, failed),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SortGroups(job.Groups, job.Coordinates), nil
}

type searchResult struct {
	index int
	group domain.CoordinatePhotoGroup
}

// search runs one bounded photo search and always returns a group.
func (a *PhotoAggregator) search(ctx context.Context, pt domain.GeoPoint) domain.CoordinatePhotoGroup {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	group := domain.CoordinatePhotoGroup{Coordinate: pt, Photos: []domain.PhotoRecord{}}

	photos, err := a.photos.SearchPhotos(ctx, pt, a.radiusMeters)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.PhotoSearches.WithLabelValues(outcome).Inc()
		slog.WarnContext(ctx, "photo search failed",
			"lat", pt.Lat, "lng", pt.Lng, "outcome", outcome, "error", err)
		group.Error = err.Error()
		return group
	}

	group.Photos = FilterPhotos(photos)
	if len(group.Photos) == 0 {
		metrics.PhotoSearches.WithLabelValues("empty").Inc()
	} else {
		metrics.PhotoSearches.WithLabelValues("ok").Inc()
	}
	return group
}

// FilterPhotos drops records that cannot be rendered, keeping provider order.
func FilterPhotos(photos []domain.PhotoRecord) []domain.PhotoRecord {
	out := make([]domain.PhotoRecord, 0, len(photos))
	for _, p := range photos {
		if !p.Valid() {
			metrics.PhotosDropped.Inc()
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortGroups orders groups by the longitude of their representative point:
// descending when travel heads west (origin longitude greater than the
// destination's), ascending otherwise. Latitude is not considered.
func SortGroups(groups []domain.CoordinatePhotoGroup, coords []domain.GeoPoint) []domain.CoordinatePhotoGroup {
	if len(groups) < 2 || len(coords) == 0 {
		return groups
	}

	origin := coords[0]
	destination := coords[len(coords)-1]
	westward := origin.Lng > destination.Lng

	sort.SliceStable(groups, func(i, j int) bool {
		li, lj := groups[i].Representative().Lng, groups[j].Representative().Lng
		if westward {
			return li > lj
		}
		return li < lj
	})
	return groups
}
