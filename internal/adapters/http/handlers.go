package http

import (
	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/mjsgreen01/Instatrip/internal/adapters/nats"
	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

// WaypointsResponse is a resolved route with its stop-points.
type WaypointsResponse struct {
	Route  *domain.Route     `json:"route"`
	Points []domain.GeoPoint `json:"points"`
}

// TripAccepted acknowledges an asynchronous trip request.
type TripAccepted struct {
	TripID  string `json:"trip_id"`
	Subject string `json:"subject"`
}

// tripRequestFromQuery reads start, end, mode and points.
func tripRequestFromQuery(c *fiber.Ctx) domain.TripRequest {
	return domain.TripRequest{
		Start:  c.Query("start"),
		End:    c.Query("end"),
		Mode:   domain.TravelMode(c.Query("mode")),
		Points: c.QueryInt("points", 0),
	}
}

func tripRequestFromBody(c *fiber.Ctx) (domain.TripRequest, error) {
	var req domain.TripRequest
	if err := c.BodyParser(&req); err != nil {
		return req, err
	}
	return req, nil
}

// SearchHandler plans a trip from a JSON body and returns it with its
// photo groups.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := tripRequestFromBody(c)
		if err != nil {
			return errBadRequest(c, "invalid request body")
		}

		trip, err := deps.Trips.Plan(c.UserContext(), req)
		if err != nil {
			return errTrip(c, err)
		}
		return c.JSON(trip)
	}
}

// TripHandler is SearchHandler for query parameters, cacheable by proxies.
func TripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Trips.Plan(c.UserContext(), tripRequestFromQuery(c))
		if err != nil {
			return errTrip(c, err)
		}
		return c.JSON(trip)
	}
}

// WaypointsHandler returns the route and its stop-points without photos.
func WaypointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, points, err := deps.Trips.Waypoints(c.UserContext(), tripRequestFromQuery(c))
		if err != nil {
			return errTrip(c, err)
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(WaypointsResponse{Route: route, Points: points})
	}
}

// RequestTripHandler queues a trip for the asynchronous planner. The
// planned trip is published on the returned subject.
func RequestTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := tripRequestFromBody(c)
		if err != nil {
			return errBadRequest(c, "invalid request body")
		}

		id, err := deps.Trips.RequestTrip(c.UserContext(), req)
		if err != nil {
			return errTrip(c, err)
		}

		c.Location("/ws?trip_id=" + id)
		return c.Status(fiber.StatusAccepted).JSON(TripAccepted{
			TripID:  id,
			Subject: natsadapter.PlannedSubject(id),
		})
	}
}

// LegacySearchHandler serves POST /search for older browser clients: the
// body is the bare list of photo groups and errors use {"error": "..."}.
func LegacySearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := tripRequestFromBody(c)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		trip, err := deps.Trips.Plan(c.UserContext(), req)
		if err != nil {
			status, _, msg := statusFor(err)
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		return c.JSON(trip.Groups)
	}
}
