package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
	"github.com/angrychow/train-ticket/internal/pkg/metrics"
	"github.com/angrychow/train-ticket/internal/pkg/workerpool"
)

const (
	modeSequential = "sequential"
	modeParallel   = "parallel"
)

// QueryService answers availability queries by fanning out one offer build
// per candidate trip.
type QueryService struct {
	trips   ports.TripRepository
	gateway ports.Gateway
	builder *OfferBuilder
	pool    *workerpool.Pool
}

// NewQueryService creates a new QueryService. pool is only used by
// QueryParallel and is shared with other callers.
func NewQueryService(trips ports.TripRepository, gateway ports.Gateway, builder *OfferBuilder, pool *workerpool.Pool) *QueryService {
	return &QueryService{trips: trips, gateway: gateway, builder: builder, pool: pool}
}

// Query evaluates candidate trips one after another. The first trip that
// fails for any reason other than "no offer" aborts the whole query.
// An empty result is reported as domain.ErrNoContent.
func (s *QueryService) Query(ctx context.Context, q domain.Query) ([]domain.Offer, error) {
	defer observeQuery(modeSequential, time.Now())
	log := logging.FromContext(ctx)

	if !s.builder.DateUsable(q.DepartureTime) {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoContent, domain.ErrInvalidDate)
	}

	trips, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	var offers []domain.Offer
	for i := range trips {
		offer, err := s.evaluate(ctx, &trips[i], q)
		if err != nil {
			if domain.IsNoOffer(err) {
				metrics.QueryOffers.WithLabelValues(modeSequential, "no_offer").Inc()
				continue
			}
			metrics.QueryOffers.WithLabelValues(modeSequential, "failed").Inc()
			log.Warn("query aborted",
				"trip_id", trips[i].ID, "start", q.StartPlace, "end", q.EndPlace, "error", err)
			return nil, fmt.Errorf("%w: trip %s: %w", domain.ErrNoContent, trips[i].ID, err)
		}
		metrics.QueryOffers.WithLabelValues(modeSequential, "offer").Inc()
		offers = append(offers, *offer)
	}

	if len(offers) == 0 {
		return nil, domain.ErrNoContent
	}
	return offers, nil
}

// QueryParallel evaluates candidate trips on the shared worker pool.
// Offers come back in trip listing order. A trip whose evaluation fails is
// left out; the rest of the batch is unaffected.
func (s *QueryService) QueryParallel(ctx context.Context, q domain.Query) ([]domain.Offer, error) {
	defer observeQuery(modeParallel, time.Now())
	log := logging.FromContext(ctx)

	if !s.builder.DateUsable(q.DepartureTime) {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoContent, domain.ErrInvalidDate)
	}

	trips, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	futures := make([]*workerpool.Future[*domain.Offer], len(trips))
	for i := range trips {
		trip := trips[i]
		futures[i] = workerpool.Go(ctx, s.pool, func(ctx context.Context) (*domain.Offer, error) {
			return s.evaluate(ctx, &trip, q)
		})
	}

	offers := make([]domain.Offer, 0, len(trips))
	for i, f := range futures {
		offer, err := f.Wait(ctx)
		if ctx.Err() != nil {
			// caller is gone; queued tasks see the same context and are skipped
			return nil, ctx.Err()
		}
		switch {
		case err == nil:
			metrics.QueryOffers.WithLabelValues(modeParallel, "offer").Inc()
			offers = append(offers, *offer)
		case domain.IsNoOffer(err):
			metrics.QueryOffers.WithLabelValues(modeParallel, "no_offer").Inc()
		default:
			metrics.QueryOffers.WithLabelValues(modeParallel, "failed").Inc()
			log.Warn("trip omitted from query",
				"trip_id", trips[i].ID, "route_id", trips[i].RouteID, "error", err)
		}
	}

	if len(offers) == 0 {
		return nil, domain.ErrNoContent
	}
	return offers, nil
}

// Detail builds the offer of a single stored trip.
func (s *QueryService) Detail(ctx context.Context, q domain.TripDetailQuery) (*domain.TripDetail, error) {
	trip, err := s.trips.GetByID(ctx, q.TripID)
	if err != nil {
		return nil, err
	}
	route, err := s.gateway.GetRoute(ctx, trip.RouteID)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", trip.RouteID, err)
	}

	offer, err := s.builder.Build(ctx, trip, route, q.From, q.To, q.TravelDate)
	if err != nil {
		if domain.IsNoOffer(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrNoContent, err)
		}
		return nil, err
	}
	return &domain.TripDetail{Trip: trip, Offer: offer}, nil
}

// candidates lists every trip, or only the trips of the requested routes.
func (s *QueryService) candidates(ctx context.Context, q domain.Query) ([]domain.Trip, error) {
	if len(q.RouteIDs) == 0 {
		trips, err := s.trips.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list trips: %w", err)
		}
		return trips, nil
	}

	var trips []domain.Trip
	for _, routeID := range q.RouteIDs {
		byRoute, err := s.trips.ListByRoute(ctx, routeID)
		if err != nil {
			return nil, fmt.Errorf("list trips of route %s: %w", routeID, err)
		}
		trips = append(trips, byRoute...)
	}
	return trips, nil
}

// evaluate fetches the trip's route, filters on station order and builds
// the offer. A route the route service does not know is treated like a
// route that does not serve the query.
func (s *QueryService) evaluate(ctx context.Context, trip *domain.Trip, q domain.Query) (*domain.Offer, error) {
	route, err := s.gateway.GetRoute(ctx, trip.RouteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: route %s not found", domain.ErrNotOnRoute, trip.RouteID)
		}
		return nil, fmt.Errorf("route %s: %w", trip.RouteID, err)
	}
	if !route.Serves(q.StartPlace, q.EndPlace) {
		return nil, domain.ErrNotOnRoute
	}
	return s.builder.Build(ctx, trip, route, q.StartPlace, q.EndPlace, q.DepartureTime)
}

func observeQuery(mode string, start time.Time) {
	metrics.QueryDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
