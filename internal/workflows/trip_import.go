package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// TaskQueue is the default queue the import worker listens on.
const TaskQueue = "trip-import-queue"

// TripImportInput is the input for the trip import workflow.
type TripImportInput struct {
	BatchID string
	Trips   []domain.Trip
}

// TripImportResult reports how many trips a finished import created.
type TripImportResult struct {
	BatchID string
	Created int
}

// TripImportWorkflow creates the trips of a batch one by one. If any create
// fails, every trip this batch already created is deleted again, newest
// first, and the workflow fails with the create error.
func TripImportWorkflow(ctx workflow.Context, input TripImportInput) (TripImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting trip import", "batchID", input.BatchID, "trips", len(input.Trips))

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	result := TripImportResult{BatchID: input.BatchID}
	created := make([]string, 0, len(input.Trips))

	for _, trip := range input.Trips {
		err := workflow.ExecuteActivity(ctx, "CreateTrip", trip).Get(ctx, nil)
		if err != nil {
			logger.Warn("trip create failed, compensating",
				"batchID", input.BatchID, "tripID", trip.ID, "created", len(created), "error", err)
			compensate(ctx, created)
			return result, err
		}
		created = append(created, trip.ID)
		result.Created++
	}

	logger.Info("Trip import finished", "batchID", input.BatchID, "created", result.Created)
	return result, nil
}

// compensate deletes the given trips in reverse order. It runs on a
// disconnected context so a cancelled workflow still cleans up.
func compensate(ctx workflow.Context, tripIDs []string) {
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()

	for i := len(tripIDs) - 1; i >= 0; i-- {
		if err := workflow.ExecuteActivity(dctx, "DeleteTrip", tripIDs[i]).Get(dctx, nil); err != nil {
			workflow.GetLogger(ctx).Error("compensation failed", "tripID", tripIDs[i], "error", err)
		}
	}
}
