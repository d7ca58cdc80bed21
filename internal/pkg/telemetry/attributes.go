package telemetry

// Span attribute keys shared by the trip pipeline.
const (
	AttrTravelMode  = "trip.mode"
	AttrPointCount  = "trip.points"
	AttrGroupCount  = "trip.groups"
	AttrRouteMeters = "trip.route_meters"
	AttrFailedCalls = "trip.failed_searches"
)

// TracerName is the instrumentation scope for spans emitted by this service.
const TracerName = "github.com/mjsgreen01/Instatrip"
