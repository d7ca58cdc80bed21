package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the trip service.
// Fields resolve through the domain types' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	stepType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteStep",
		Fields: graphql.Fields{
			"distance_meters": &graphql.Field{Type: graphql.Int},
			"start":           &graphql.Field{Type: geoPointType},
			"end":             &graphql.Field{Type: geoPointType},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"total_distance_meters": &graphql.Field{Type: graphql.Int},
			"start_location":        &graphql.Field{Type: geoPointType},
			"end_location":          &graphql.Field{Type: geoPointType},
			"start_address":         &graphql.Field{Type: graphql.String},
			"end_address":           &graphql.Field{Type: graphql.String},
			"steps":                 &graphql.Field{Type: graphql.NewList(stepType)},
		},
	})

	photoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Photo",
		Fields: graphql.Fields{
			"link":      &graphql.Field{Type: graphql.String},
			"image_url": &graphql.Field{Type: graphql.String},
			"location":  &graphql.Field{Type: geoPointType},
		},
	})

	groupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PhotoGroup",
		Fields: graphql.Fields{
			"coordinate": &graphql.Field{Type: geoPointType},
			"photos":     &graphql.Field{Type: graphql.NewList(photoType)},
			"error":      &graphql.Field{Type: graphql.String},
		},
	})

	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"id":                   &graphql.Field{Type: graphql.String},
			"start":                &graphql.Field{Type: graphql.String},
			"end":                  &graphql.Field{Type: graphql.String},
			"mode":                 &graphql.Field{Type: graphql.String},
			"start_location":       &graphql.Field{Type: geoPointType},
			"end_location":         &graphql.Field{Type: geoPointType},
			"distance_meters":      &graphql.Field{Type: graphql.Int},
			"straight_line_meters": &graphql.Field{Type: graphql.Float},
			"points":               &graphql.Field{Type: graphql.NewList(geoPointType)},
			"groups":               &graphql.Field{Type: graphql.NewList(groupType)},
			"created_at":           &graphql.Field{Type: graphql.DateTime},
		},
	})

	waypointsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoints",
		Fields: graphql.Fields{
			"route":  &graphql.Field{Type: routeType},
			"points": &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	tripArgs := graphql.FieldConfigArgument{
		"start":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"end":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"mode":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.TravelWalking)},
		"points": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "Plan a trip with photo groups ordered along the direction of travel",
				Args:        tripArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Trips.Plan(p.Context, tripRequestFromArgs(p.Args))
				},
			},
			"waypoints": &graphql.Field{
				Type:        waypointsType,
				Description: "Resolve a route and its stop-points without photos",
				Args:        tripArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, points, err := deps.Trips.Waypoints(p.Context, tripRequestFromArgs(p.Args))
					if err != nil {
						return nil, err
					}
					return WaypointsResponse{Route: route, Points: points}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func tripRequestFromArgs(args map[string]interface{}) domain.TripRequest {
	req := domain.TripRequest{}
	req.Start, _ = args["start"].(string)
	req.End, _ = args["end"].(string)
	if mode, ok := args["mode"].(string); ok {
		req.Mode = domain.TravelMode(mode)
	}
	req.Points, _ = args["points"].(int)
	return req
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
