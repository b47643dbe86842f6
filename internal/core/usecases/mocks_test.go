package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// --- Mock TripRepository ---

type mockTripRepo struct {
	trips []domain.Trip

	createFn      func(ctx context.Context, trip *domain.Trip) error
	updateFn      func(ctx context.Context, trip *domain.Trip) error
	deleteFn      func(ctx context.Context, id string) error
	listFn        func(ctx context.Context) ([]domain.Trip, error)
	listByRouteFn func(ctx context.Context, routeID string) ([]domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, trip)
	}
	for _, t := range m.trips {
		if t.ID == trip.ID {
			return domain.ErrAlreadyExists
		}
	}
	m.trips = append(m.trips, *trip)
	return nil
}

func (m *mockTripRepo) Update(ctx context.Context, trip *domain.Trip) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, trip)
	}
	for i, t := range m.trips {
		if t.ID == trip.ID {
			m.trips[i] = *trip
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockTripRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	for i, t := range m.trips {
		if t.ID == id {
			m.trips = append(m.trips[:i], m.trips[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	for _, t := range m.trips {
		if t.ID == id {
			trip := t
			return &trip, nil
		}
	}
	return nil, fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
}

func (m *mockTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return append([]domain.Trip(nil), m.trips...), nil
}

func (m *mockTripRepo) ListByRoute(ctx context.Context, routeID string) ([]domain.Trip, error) {
	if m.listByRouteFn != nil {
		return m.listByRouteFn(ctx, routeID)
	}
	var out []domain.Trip
	for _, t := range m.trips {
		if t.RouteID == routeID {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- Fake Gateway ---

// fakeGateway serves a fixed set of routes and train types. Fare lookups
// can be delayed or failed per trip id.
type fakeGateway struct {
	routes     map[string]*domain.Route
	trainTypes map[string]*domain.TrainType

	fareDelay map[string]time.Duration
	fareErr   map[string]error
	fareFn    func(ctx context.Context, q domain.FareQuery) (*domain.Fare, error)

	mu    sync.Mutex
	calls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		routes: map[string]*domain.Route{
			"r1": {
				ID:        "r1",
				Stations:  []string{"shanghai", "suzhou", "nanjing"},
				Distances: []int{0, 100, 250},
			},
			"r2": {
				ID:        "r2",
				Stations:  []string{"beijing", "tianjin"},
				Distances: []int{0, 120},
			},
		},
		trainTypes: map[string]*domain.TrainType{
			"GaoTieOne": {ID: "tt-1", Name: "GaoTieOne", AverageSpeed: 50},
		},
		fareDelay: map[string]time.Duration{},
		fareErr:   map[string]error{},
	}
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	g.record("route:" + routeID)
	r, ok := g.routes[routeID]
	if !ok {
		return nil, fmt.Errorf("%w: route %s", domain.ErrNotFound, routeID)
	}
	return r, nil
}

func (g *fakeGateway) GetTrainType(ctx context.Context, name string) (*domain.TrainType, error) {
	g.record("train_type:" + name)
	tt, ok := g.trainTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: train type %s", domain.ErrNotFound, name)
	}
	return tt, nil
}

func (g *fakeGateway) ResolveStationID(ctx context.Context, stationName string) (string, error) {
	g.record("station:" + stationName)
	return "id-" + stationName, nil
}

func (g *fakeGateway) GetRemainingSeats(ctx context.Context, q domain.SeatQuery) (int, error) {
	g.record(fmt.Sprintf("seats:%s:%s:%s:%s", q.TrainNumber, q.StartStation, q.DestStation, q.SeatType))
	if q.SeatType == domain.FirstClass {
		return 10, nil
	}
	return 20, nil
}

func (g *fakeGateway) GetFare(ctx context.Context, q domain.FareQuery) (*domain.Fare, error) {
	g.record("fare:" + q.Trip.ID)
	if d := g.fareDelay[q.Trip.ID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := g.fareErr[q.Trip.ID]; err != nil {
		return nil, err
	}
	if g.fareFn != nil {
		return g.fareFn(ctx, q)
	}
	return &domain.Fare{
		TrainNumber: q.Trip.ID,
		Prices:      map[string]float64{domain.PriceComfort: 100, domain.PriceEconomy: 50},
	}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.TripEvent
	err    error
}

func (m *mockPublisher) PublishTripEvent(ctx context.Context, event *domain.TripEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// --- Fixtures ---

var (
	testNow   = time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC)
	testStart = time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return testNow }

func testTrip(id, routeID string) domain.Trip {
	return domain.Trip{
		ID:                  id,
		TrainTypeName:       "GaoTieOne",
		StartStationName:    "shanghai",
		TerminalStationName: "nanjing",
		StartTime:           testStart,
		EndTime:             testStart.Add(5 * time.Hour),
		RouteID:             routeID,
	}
}

func testQuery() domain.Query {
	return domain.Query{StartPlace: "suzhou", EndPlace: "nanjing", DepartureTime: testNow}
}
