package ports

import (
	"context"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// Gateway is the narrow view of the downstream route, train, station, seat
// and fare services. Implementations own call timeouts and report
// domain.ErrNotFound or domain.ErrUpstreamUnavailable.
type Gateway interface {
	GetRoute(ctx context.Context, routeID string) (*domain.Route, error)
	GetTrainType(ctx context.Context, name string) (*domain.TrainType, error)
	ResolveStationID(ctx context.Context, stationName string) (string, error)
	GetRemainingSeats(ctx context.Context, q domain.SeatQuery) (int, error)
	GetFare(ctx context.Context, q domain.FareQuery) (*domain.Fare, error)
}

// EventPublisher publishes trip lifecycle events to a message broker.
type EventPublisher interface {
	PublishTripEvent(ctx context.Context, event *domain.TripEvent) error
}

// EventSubscriber subscribes to events from other services.
type EventSubscriber interface {
	SubscribeStationEvents(ctx context.Context, handler func(ctx context.Context, event *domain.StationEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TripImporter starts asynchronous batch imports of trips.
type TripImporter interface {
	StartImport(ctx context.Context, trips []domain.Trip) (batchID string, err error)
}
