package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
	"github.com/angrychow/train-ticket/internal/pkg/metrics"
)

// TravelService manages the stored trips and the lookups that hang off them.
type TravelService struct {
	trips     ports.TripRepository
	gateway   ports.Gateway
	publisher ports.EventPublisher
}

// NewTravelService creates a new TravelService. publisher may be nil.
func NewTravelService(trips ports.TripRepository, gateway ports.Gateway, publisher ports.EventPublisher) *TravelService {
	return &TravelService{trips: trips, gateway: gateway, publisher: publisher}
}

// Create stores a new trip.
func (s *TravelService) Create(ctx context.Context, trip *domain.Trip) error {
	if trip.ID == "" {
		return fmt.Errorf("%w: trip id must not be empty", domain.ErrInvalidArgument)
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return err
	}
	s.publish(ctx, domain.TripCreated, trip)
	return nil
}

// Update replaces a stored trip.
func (s *TravelService) Update(ctx context.Context, trip *domain.Trip) error {
	if err := s.trips.Update(ctx, trip); err != nil {
		return err
	}
	s.publish(ctx, domain.TripUpdated, trip)
	return nil
}

// Delete removes a stored trip.
func (s *TravelService) Delete(ctx context.Context, id string) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.TripDeleted, &domain.Trip{ID: id})
	return nil
}

// Retrieve returns a single trip.
func (s *TravelService) Retrieve(ctx context.Context, id string) (*domain.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

// ListAll returns every stored trip; domain.ErrNoContent when there is none.
func (s *TravelService) ListAll(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, domain.ErrNoContent
	}
	return trips, nil
}

// TripsByRoutes returns the trips of each route, one slice per route id in
// request order.
func (s *TravelService) TripsByRoutes(ctx context.Context, routeIDs []string) ([][]domain.Trip, error) {
	out := make([][]domain.Trip, 0, len(routeIDs))
	for _, id := range routeIDs {
		trips, err := s.trips.ListByRoute(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list trips of route %s: %w", id, err)
		}
		if trips == nil {
			trips = []domain.Trip{}
		}
		out = append(out, trips)
	}
	return out, nil
}

// RouteByTripID returns the route a trip runs on.
func (s *TravelService) RouteByTripID(ctx context.Context, tripID string) (*domain.Route, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.gateway.GetRoute(ctx, trip.RouteID)
}

// TrainTypeByTripID returns the train type a trip is operated with.
func (s *TravelService) TrainTypeByTripID(ctx context.Context, tripID string) (*domain.TrainType, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.gateway.GetTrainType(ctx, trip.TrainTypeName)
}

// AdminList returns every trip joined with its route and train type.
// A route or train type the downstream services do not know is left nil.
func (s *TravelService) AdminList(ctx context.Context) ([]domain.AdminTrip, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, domain.ErrNoContent
	}

	out := make([]domain.AdminTrip, 0, len(trips))
	for i := range trips {
		trip := trips[i]
		at := domain.AdminTrip{Trip: trip}

		route, err := s.gateway.GetRoute(ctx, trip.RouteID)
		switch {
		case err == nil:
			at.Route = route
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("route %s: %w", trip.RouteID, err)
		}

		trainType, err := s.gateway.GetTrainType(ctx, trip.TrainTypeName)
		switch {
		case err == nil:
			at.TrainType = trainType
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("train type %s: %w", trip.TrainTypeName, err)
		}

		out = append(out, at)
	}
	return out, nil
}

// publish is best-effort; a broker outage never fails the write.
func (s *TravelService) publish(ctx context.Context, eventType string, trip *domain.Trip) {
	if s.publisher == nil {
		return
	}
	event := &domain.TripEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		TripID:     trip.ID,
		Trip:       trip,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishTripEvent(ctx, event); err != nil {
		metrics.TripEventsPublished.WithLabelValues(eventType, "error").Inc()
		logging.FromContext(ctx).Warn("publish trip event",
			"type", eventType, "trip_id", trip.ID, "error", err)
		return
	}
	metrics.TripEventsPublished.WithLabelValues(eventType, "ok").Inc()
}
