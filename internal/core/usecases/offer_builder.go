package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
)

// OfferBuilder turns one trip on one route into a rider-facing offer.
type OfferBuilder struct {
	gateway ports.Gateway
	now     func() time.Time
}

// NewOfferBuilder creates a new OfferBuilder.
func NewOfferBuilder(gateway ports.Gateway) *OfferBuilder {
	return &OfferBuilder{gateway: gateway, now: time.Now}
}

// WithClock replaces the clock used for the travel-date check.
func (b *OfferBuilder) WithClock(now func() time.Time) *OfferBuilder {
	b.now = now
	return b
}

// Build computes the offer of trip between from and to on date.
//
// domain.ErrInvalidDate and domain.ErrNotOnRoute mean "no offer" and are
// returned before any downstream call. Any other error means a downstream
// fact was missing or invalid; no partial offer is ever returned.
func (b *OfferBuilder) Build(ctx context.Context, trip *domain.Trip, route *domain.Route, from, to string, date time.Time) (*domain.Offer, error) {
	if !domain.IsUsable(date, b.now()) {
		return nil, domain.ErrInvalidDate
	}
	if !route.Serves(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s on route %s", domain.ErrNotOnRoute, from, to, route.ID)
	}

	trainType, err := b.gateway.GetTrainType(ctx, trip.TrainTypeName)
	if err != nil {
		return nil, fmt.Errorf("train type %s: %w", trip.TrainTypeName, err)
	}

	fare, err := b.gateway.GetFare(ctx, domain.FareQuery{
		Trip:          trip,
		StartPlace:    from,
		EndPlace:      to,
		DepartureTime: date,
	})
	if err != nil {
		return nil, fmt.Errorf("fare for trip %s: %w", trip.ID, err)
	}
	comfortPrice, economyPrice, err := fare.ClassPrices()
	if err != nil {
		return nil, fmt.Errorf("fare for trip %s: %w", trip.ID, err)
	}

	first, err := b.remainingSeats(ctx, trip, from, to, date, domain.FirstClass)
	if err != nil {
		return nil, err
	}
	second, err := b.remainingSeats(ctx, trip, from, to, date, domain.SecondClass)
	if err != nil {
		return nil, err
	}

	startTime, err := domain.ComputeTime(route, trip, trainType, from)
	if err != nil {
		return nil, err
	}
	endTime, err := domain.ComputeTime(route, trip, trainType, to)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("offer built",
		"trip_id", trip.ID, "train_number", fare.TrainNumber,
		"start_time", startTime, "end_time", endTime)

	// The offer carries the train number the booking side returned with the
	// fare, not the id of the stored trip.
	return &domain.Offer{
		TripID:               fare.TrainNumber,
		TrainTypeName:        trip.TrainTypeName,
		StartStation:         from,
		TerminalStation:      to,
		StartTime:            startTime,
		EndTime:              endTime,
		ConfortClass:         first,
		EconomyClass:         second,
		PriceForConfortClass: comfortPrice,
		PriceForEconomyClass: economyPrice,
	}, nil
}

func (b *OfferBuilder) remainingSeats(ctx context.Context, trip *domain.Trip, from, to string, date time.Time, class domain.SeatClass) (int, error) {
	fromID, err := b.gateway.ResolveStationID(ctx, from)
	if err != nil {
		return 0, fmt.Errorf("station %s: %w", from, err)
	}
	toID, err := b.gateway.ResolveStationID(ctx, to)
	if err != nil {
		return 0, fmt.Errorf("station %s: %w", to, err)
	}

	n, err := b.gateway.GetRemainingSeats(ctx, domain.SeatQuery{
		TravelDate:   date,
		TrainNumber:  trip.ID,
		StartStation: fromID,
		DestStation:  toID,
		SeatType:     class,
	})
	if err != nil {
		return 0, fmt.Errorf("%s class seats for trip %s: %w", class, trip.ID, err)
	}
	return n, nil
}

// DateUsable reports whether offers can exist for date at all.
func (b *OfferBuilder) DateUsable(date time.Time) bool {
	return domain.IsUsable(date, b.now())
}
