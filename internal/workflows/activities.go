package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/usecases"
)

// Error types of creates that can never succeed on retry.
const (
	errTypeTripExists  = "TripExists"
	errTypeInvalidTrip = "InvalidTrip"
)

// TripActivities holds the activity implementations for the import workflow.
type TripActivities struct {
	Travel *usecases.TravelService
}

// CreateTrip stores one trip of a batch.
func (a *TripActivities) CreateTrip(ctx context.Context, trip domain.Trip) error {
	err := a.Travel.Create(ctx, &trip)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("trip %s already exists", trip.ID), errTypeTripExists, err)
	}
	if errors.Is(err, domain.ErrInvalidArgument) {
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidTrip, err)
	}
	if err != nil {
		return fmt.Errorf("create trip %s: %w", trip.ID, err)
	}
	return nil
}

// DeleteTrip removes a trip created earlier in the batch (saga compensation).
// A trip that is already gone counts as deleted.
func (a *TripActivities) DeleteTrip(ctx context.Context, tripID string) error {
	err := a.Travel.Delete(ctx, tripID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete trip %s: %w", tripID, err)
	}
	activity.GetLogger(ctx).Info("trip removed by compensation", "trip_id", tripID)
	return nil
}
