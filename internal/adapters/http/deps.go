package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/angrychow/train-ticket/internal/adapters/valkey"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/core/usecases"
)

// Pinger is implemented by anything the readiness check depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Travel   *usecases.TravelService
	Queries  *usecases.QueryService
	Importer ports.TripImporter // nil when no Temporal client is configured
	NATS     *nats.Conn
	Store    Pinger
	Cache    *valkey.Cache
}
