package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// Importer implements ports.TripImporter by starting a TripImportWorkflow.
type Importer struct {
	client    client.Client
	taskQueue string
}

func NewImporter(c client.Client, taskQueue string) *Importer {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Importer{client: c, taskQueue: taskQueue}
}

// StartImport starts the workflow and returns its batch id without waiting
// for it to finish.
func (i *Importer) StartImport(ctx context.Context, trips []domain.Trip) (string, error) {
	batchID := uuid.NewString()
	opts := client.StartWorkflowOptions{
		ID:        "trip-import-" + batchID,
		TaskQueue: i.taskQueue,
	}
	input := TripImportInput{BatchID: batchID, Trips: trips}
	if _, err := i.client.ExecuteWorkflow(ctx, opts, TripImportWorkflow, input); err != nil {
		return "", fmt.Errorf("%w: start import workflow: %w", domain.ErrUpstreamUnavailable, err)
	}
	return batchID, nil
}
