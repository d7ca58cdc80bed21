package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/core/usecases"
	"github.com/mjsgreen01/Instatrip/internal/pkg/geospatial"
)

// TaskQueue is the default queue trip workflows run on.
const TaskQueue = "instatrip-trips"

// TripWorkflowInput is the input for the trip workflow.
type TripWorkflowInput struct {
	TripID  string
	Request domain.TripRequest
}

// TripWorkflow plans a trip asynchronously: fetch the route, sample
// stop-points, search photos around every point in parallel, order the
// groups along the direction of travel and publish the result. A failed
// photo search becomes an error group; only an unresolvable route or an
// invalid request fails the workflow.
func TripWorkflow(ctx workflow.Context, input TripWorkflowInput) (*domain.Trip, error) {
	logger := workflow.GetLogger(ctx)

	req, err := usecases.NormalizeRequest(input.Request)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidTripRequest", err)
	}
	logger.Info("Starting trip workflow", "tripID", input.TripID, "mode", req.Mode)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var a *TripActivities

	// Step 1: Route
	var route domain.Route
	if err := workflow.ExecuteActivity(ctx, a.FetchRoute, req).Get(ctx, &route); err != nil {
		return nil, err
	}

	// Step 2: Stop-points
	points := usecases.NewRouteSampler().Sample(route, req.Points)

	// Step 3: Photos, collected in completion order
	photoCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: usecases.DefaultCallTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})

	job := domain.NewAggregationJob(points)
	selector := workflow.NewSelector(ctx)
	for _, pt := range points {
		selector.AddFuture(workflow.ExecuteActivity(photoCtx, a.SearchPhotos, pt), func(f workflow.Future) {
			group := domain.CoordinatePhotoGroup{Coordinate: pt, Photos: []domain.PhotoRecord{}}
			var photos []domain.PhotoRecord
			if err := f.Get(ctx, &photos); err != nil {
				logger.Warn("photo search failed", "lat", pt.Lat, "lng", pt.Lng, "error", err)
				group.Error = err.Error()
			} else if photos != nil {
				group.Photos = photos
			}
			job.Add(group)
		})
	}
	for !job.Done() {
		selector.Select(ctx)
	}

	straight := geospatial.Haversine(
		route.StartLocation.Lat, route.StartLocation.Lng,
		route.EndLocation.Lat, route.EndLocation.Lng,
	)

	trip := &domain.Trip{
		ID:                 input.TripID,
		Start:              req.Start,
		End:                req.End,
		Mode:               req.Mode,
		StartLocation:      route.StartLocation,
		EndLocation:        route.EndLocation,
		DistanceMeters:     route.TotalDistanceMeters,
		StraightLineMeters: straight,
		Points:             points,
		Groups:             usecases.SortGroups(job.Groups, points),
		CreatedAt:          workflow.Now(ctx).UTC(),
	}

	// Step 4: Publish (best effort)
	if err := workflow.ExecuteActivity(ctx, a.PublishTripPlanned, trip).Get(ctx, nil); err != nil {
		logger.Warn("publish trip planned failed", "tripID", trip.ID, "error", err)
	}

	logger.Info("Trip planned", "tripID", trip.ID, "groups", len(trip.Groups))
	return trip, nil
}
