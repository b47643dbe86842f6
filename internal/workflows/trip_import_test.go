package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/usecases"
	"github.com/angrychow/train-ticket/internal/workflows"
)

type memTripRepo struct {
	mu      sync.Mutex
	trips   map[string]domain.Trip
	deleted []string
}

func newMemTripRepo(existing ...domain.Trip) *memTripRepo {
	r := &memTripRepo{trips: make(map[string]domain.Trip)}
	for _, t := range existing {
		r.trips[t.ID] = t
	}
	return r
}

func (r *memTripRepo) Create(ctx context.Context, t *domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[t.ID]; ok {
		return fmt.Errorf("%w: trip %s", domain.ErrAlreadyExists, t.ID)
	}
	r.trips[t.ID] = *t
	return nil
}

func (r *memTripRepo) Update(ctx context.Context, t *domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[t.ID] = *t
	return nil
}

func (r *memTripRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[id]; !ok {
		return fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
	}
	delete(r.trips, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
	}
	return &t, nil
}

func (r *memTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		out = append(out, t)
	}
	return out, nil
}

func (r *memTripRepo) ListByRoute(ctx context.Context, routeID string) ([]domain.Trip, error) {
	return nil, nil
}

func (r *memTripRepo) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.trips[id]
	return ok
}

func batch(ids ...string) []domain.Trip {
	start := time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
	out := make([]domain.Trip, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Trip{ID: id, TrainTypeName: "GaoTieOne", RouteID: "r1", StartTime: start})
	}
	return out
}

func newEnv(t *testing.T, repo *memTripRepo) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.TripImportWorkflow)
	env.RegisterActivity(&workflows.TripActivities{
		Travel: usecases.NewTravelService(repo, nil, nil),
	})
	return env
}

func TestTripImportWorkflow_CreatesAll(t *testing.T) {
	repo := newMemTripRepo()
	env := newEnv(t, repo)

	env.ExecuteWorkflow(workflows.TripImportWorkflow, workflows.TripImportInput{
		BatchID: "b1",
		Trips:   batch("G1", "G2", "G3"),
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}

	var res workflows.TripImportResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.BatchID != "b1" || res.Created != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	for _, id := range []string{"G1", "G2", "G3"} {
		if !repo.has(id) {
			t.Errorf("trip %s not created", id)
		}
	}
}

func TestTripImportWorkflow_CompensatesOnDuplicate(t *testing.T) {
	existing := batch("G2")[0]
	existing.RouteID = "r-original"
	repo := newMemTripRepo(existing)
	env := newEnv(t, repo)

	env.ExecuteWorkflow(workflows.TripImportWorkflow, workflows.TripImportInput{
		BatchID: "b2",
		Trips:   batch("G0", "G1", "G2", "G3"),
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	err := env.GetWorkflowError()
	if err == nil {
		t.Fatal("expected workflow error")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != "TripExists" {
		t.Errorf("expected TripExists application error, got %v", err)
	}

	// Trips of this batch are rolled back newest first; the trip that was
	// already there is untouched and G3 was never attempted.
	if len(repo.deleted) != 2 || repo.deleted[0] != "G1" || repo.deleted[1] != "G0" {
		t.Errorf("expected G1 then G0 deleted, got %v", repo.deleted)
	}
	got, err := repo.GetByID(context.Background(), "G2")
	if err != nil || got.RouteID != "r-original" {
		t.Errorf("pre-existing trip changed: %+v, %v", got, err)
	}
	if repo.has("G3") {
		t.Error("G3 must not be created after the failure")
	}
}

func TestTripImportWorkflow_EmptyBatch(t *testing.T) {
	env := newEnv(t, newMemTripRepo())

	env.ExecuteWorkflow(workflows.TripImportWorkflow, workflows.TripImportInput{BatchID: "b3"})

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res workflows.TripImportResult
	_ = env.GetWorkflowResult(&res)
	if res.Created != 0 {
		t.Errorf("expected nothing created, got %d", res.Created)
	}
}

func TestTripActivities_DeleteMissingIsNoop(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(&workflows.TripActivities{
		Travel: usecases.NewTravelService(newMemTripRepo(), nil, nil),
	})

	if _, err := env.ExecuteActivity("DeleteTrip", "ghost"); err != nil {
		t.Fatalf("expected missing trip to be ignored, got %v", err)
	}
}

func TestTripActivities_CreateInvalidIsNotRetried(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(&workflows.TripActivities{
		Travel: usecases.NewTravelService(newMemTripRepo(), nil, nil),
	})

	_, err := env.ExecuteActivity("CreateTrip", domain.Trip{RouteID: "r1"})
	if err == nil {
		t.Fatal("expected error for a trip without id")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != "InvalidTrip" || !appErr.NonRetryable() {
		t.Errorf("expected non-retryable InvalidTrip error, got %v", err)
	}
}
