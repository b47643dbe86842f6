package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema over trips and offers.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"stations":      &graphql.Field{Type: graphql.NewList(graphql.String)},
			"distances":     &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"start_station": &graphql.Field{Type: graphql.String},
			"end_station":   &graphql.Field{Type: graphql.String},
		},
	})

	trainTypeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TrainType",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"economy_class": &graphql.Field{Type: graphql.Int},
			"confort_class": &graphql.Field{Type: graphql.Int},
			"average_speed": &graphql.Field{Type: graphql.Int},
		},
	})

	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"trip_id":               &graphql.Field{Type: graphql.String},
			"train_type_name":       &graphql.Field{Type: graphql.String},
			"route_id":              &graphql.Field{Type: graphql.String},
			"start_station_name":    &graphql.Field{Type: graphql.String},
			"stations_name":         &graphql.Field{Type: graphql.NewList(graphql.String)},
			"terminal_station_name": &graphql.Field{Type: graphql.String},
			"start_time":            &graphql.Field{Type: graphql.DateTime},
			"end_time":              &graphql.Field{Type: graphql.DateTime},
			"route": &graphql.Field{
				Type: routeType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					trip := p.Source.(domain.Trip)
					return deps.Travel.RouteByTripID(p.Context, trip.ID)
				},
			},
			"train_type": &graphql.Field{
				Type: trainTypeType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					trip := p.Source.(domain.Trip)
					return deps.Travel.TrainTypeByTripID(p.Context, trip.ID)
				},
			},
		},
	})

	offerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Offer",
		Fields: graphql.Fields{
			"trip_id":                 &graphql.Field{Type: graphql.String},
			"train_type_name":         &graphql.Field{Type: graphql.String},
			"start_station":           &graphql.Field{Type: graphql.String},
			"terminal_station":        &graphql.Field{Type: graphql.String},
			"start_time":              &graphql.Field{Type: graphql.DateTime},
			"end_time":                &graphql.Field{Type: graphql.DateTime},
			"confort_class":           &graphql.Field{Type: graphql.Int},
			"economy_class":           &graphql.Field{Type: graphql.Int},
			"price_for_confort_class": &graphql.Field{Type: graphql.Float},
			"price_for_economy_class": &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"trips": &graphql.Field{
				Type:        graphql.NewList(tripType),
				Description: "List all trips, optionally only those of one route",
				Args: graphql.FieldConfigArgument{
					"route_id": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if routeID, ok := p.Args["route_id"].(string); ok && routeID != "" {
						groups, err := deps.Travel.TripsByRoutes(p.Context, []string{routeID})
						if err != nil {
							return nil, err
						}
						return groups[0], nil
					}
					trips, err := deps.Travel.ListAll(p.Context)
					if errors.Is(err, domain.ErrNoContent) {
						return []domain.Trip{}, nil
					}
					return trips, err
				},
			},
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "Get a trip by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					trip, err := deps.Travel.Retrieve(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return *trip, nil
				},
			},
			"offers": &graphql.Field{
				Type:        graphql.NewList(offerType),
				Description: "Availability between two stations on a date (YYYY-MM-DD)",
				Args: graphql.FieldConfigArgument{
					"start_place": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"end_place":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"parallel":    &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: true},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					date, err := time.ParseInLocation("2006-01-02", p.Args["date"].(string), time.Local)
					if err != nil {
						return nil, err
					}
					q := domain.Query{
						StartPlace:    p.Args["start_place"].(string),
						EndPlace:      p.Args["end_place"].(string),
						DepartureTime: date,
					}
					run := deps.Queries.QueryParallel
					if parallel, _ := p.Args["parallel"].(bool); !parallel {
						run = deps.Queries.Query
					}
					offers, err := run(p.Context, q)
					if errors.Is(err, domain.ErrNoContent) {
						return []domain.Offer{}, nil
					}
					return offers, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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
