package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// WelcomeHandler answers the legacy liveness greeting.
func WelcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString("Welcome to [ Travel Service ] !")
	}
}

// CreateTripHandler stores a new trip.
func CreateTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tripRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := req.validate(); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		trip := req.toDomain()
		if err := deps.Travel.Create(c.UserContext(), trip); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	}
}

// UpdateTripHandler replaces an existing trip.
func UpdateTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tripRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := req.validate(); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		trip := req.toDomain()
		if err := deps.Travel.Update(c.UserContext(), trip); err != nil {
			return respondError(c, err)
		}
		return c.JSON(trip)
	}
}

// DeleteTripHandler removes a trip.
func DeleteTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("tripId")
		if err := deps.Travel.Delete(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"trip_id": id, "deleted": true})
	}
}

// GetTripHandler returns a single trip.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Travel.Retrieve(c.UserContext(), c.Params("tripId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(trip)
	}
}

// ListTripsHandler returns every trip, paginated.
func ListTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trips, err := deps.Travel.ListAll(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		page, pg := paginate(c, trips)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// RouteByTripHandler returns the route a trip runs on.
func RouteByTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Travel.RouteByTripID(c.UserContext(), c.Params("tripId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(route)
	}
}

// TrainTypeByTripHandler returns the train type of a trip.
func TrainTypeByTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tt, err := deps.Travel.TrainTypeByTripID(c.UserContext(), c.Params("tripId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(tt)
	}
}

// TripsByRoutesHandler returns one list of trips per requested route id.
func TripsByRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var routeIDs []string
		if err := c.BodyParser(&routeIDs); err != nil {
			return errBadRequest(c, "body must be a JSON array of route ids")
		}
		if err := validate.Var(routeIDs, "required,min=1,dive,required"); err != nil {
			return errBadRequest(c, "at least one non-empty route id is required")
		}

		groups, err := deps.Travel.TripsByRoutes(c.UserContext(), routeIDs)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(groups)
	}
}

// QueryHandler answers an availability query. With parallel set, trips are
// evaluated on the shared worker pool and failing trips are left out;
// otherwise the first failing trip turns the whole answer into 204.
func QueryHandler(deps *Dependencies, parallel bool) fiber.Handler {
	run := deps.Queries.Query
	if parallel {
		run = deps.Queries.QueryParallel
	}
	return func(c *fiber.Ctx) error {
		var req queryRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := req.validate(); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		offers, err := run(c.UserContext(), req.toDomain())
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(offers)
	}
}

// TripDetailHandler returns one trip together with its offer.
func TripDetailHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tripDetailRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := req.validate(); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		detail, err := deps.Queries.Detail(c.UserContext(), req.toDomain())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(detail)
	}
}

// AdminTripsHandler returns every trip joined with its route and train type.
func AdminTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trips, err := deps.Travel.AdminList(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		page, pg := paginate(c, trips)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// ImportTripsHandler starts an asynchronous batch import.
func ImportTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Importer == nil {
			return errUnavailable(c, "trip import is not configured")
		}

		var reqs []tripRequest
		if err := c.BodyParser(&reqs); err != nil {
			return errBadRequest(c, "body must be a JSON array of trips")
		}
		if len(reqs) == 0 {
			return errBadRequest(c, "at least one trip is required")
		}
		trips := make([]domain.Trip, 0, len(reqs))
		for i, r := range reqs {
			if err := r.validate(); err != nil {
				return errBadRequest(c, "trip "+strconv.Itoa(i)+": "+validationMessage(err))
			}
			trips = append(trips, *r.toDomain())
		}

		batchID, err := deps.Importer.StartImport(c.UserContext(), trips)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"batch_id": batchID,
			"trips":    len(trips),
		})
	}
}
