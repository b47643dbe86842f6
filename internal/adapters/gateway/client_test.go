package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/angrychow/train-ticket/internal/adapters/gateway"
	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/pkg/config"
)

func writeEnvelope(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "msg": msg, "data": data})
}

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *bodyRecorder) add(b string) {
	r.mu.Lock()
	r.bodies = append(r.bodies, b)
	r.mu.Unlock()
}

func (r *bodyRecorder) first() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bodies) == 0 {
		return ""
	}
	return r.bodies[0]
}

// newDownstream serves every downstream service from one test server.
func newDownstream(t *testing.T) (*httptest.Server, *bodyRecorder) {
	t.Helper()
	bodies := &bodyRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/routeservice/routes/r1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1, "Success", map[string]any{
			"id":        "r1",
			"stations":  []string{"shanghai", "suzhou", "nanjing"},
			"distances": []int{0, 100, 250},
		})
	})
	mux.HandleFunc("/api/v1/routeservice/routes/gone", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, "No content with the routeId", nil)
	})
	mux.HandleFunc("/api/v1/trainservice/trains/GaoTieOne", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1, "success", map[string]any{
			"id": "GaoTieOne", "name": "GaoTieOne", "economyClass": 250, "confortClass": 50, "averageSpeed": 250,
		})
	})
	mux.HandleFunc("/api/v1/stationservice/stations/id/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1, "Success", "id-"+r.URL.Path[len("/api/v1/stationservice/stations/id/"):])
	})
	mux.HandleFunc("/api/v1/seatservice/seats/left_tickets", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies.add(string(b))
		writeEnvelope(w, 1, "Get Left Ticket of Internal Success", 42)
	})
	mux.HandleFunc("/api/v1/basicservice/basic/travel", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1, "Success", map[string]any{
			"status": true,
			"prices": map[string]any{"confortClass": "95.0", "economyClass": 50.5},
		})
	})
	mux.HandleFunc("/api/v1/orderservice/order/2030-01-10/G1234", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1, "Success", map[string]any{"trainNumber": "G1234"})
	})
	mux.HandleFunc("/api/v1/trainservice/trains/Broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/api/v1/trainservice/trains/Slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeEnvelope(w, 1, "success", map[string]any{"name": "Slow", "averageSpeed": 10})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, bodies
}

func newClient(srv *httptest.Server, timeoutMS int) *gateway.Client {
	return gateway.New(config.GatewayConfig{
		RouteURL:   srv.URL,
		TrainURL:   srv.URL,
		StationURL: srv.URL,
		SeatURL:    srv.URL,
		BasicURL:   srv.URL,
		OrderURL:   srv.URL,
		TimeoutMS:  timeoutMS,
	})
}

func TestClient_GetRoute(t *testing.T) {
	srv, _ := newDownstream(t)
	c := newClient(srv, 1000)

	route, err := c.GetRoute(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.IndexOf("nanjing") != 2 || route.Distances[2] != 250 {
		t.Errorf("unexpected route %+v", route)
	}

	if _, err := c.GetRoute(context.Background(), "gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for status 0 envelope, got %v", err)
	}
	if _, err := c.GetRoute(context.Background(), "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for 404, got %v", err)
	}
}

func TestClient_GetTrainType(t *testing.T) {
	srv, _ := newDownstream(t)
	c := newClient(srv, 1000)

	tt, err := c.GetTrainType(context.Background(), "GaoTieOne")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tt.AverageSpeed != 250 || tt.EconomyClass != 250 {
		t.Errorf("unexpected train type %+v", tt)
	}

	if _, err := c.GetTrainType(context.Background(), "Broken"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv, _ := newDownstream(t)
	c := newClient(srv, 50)

	_, err := c.GetTrainType(context.Background(), "Slow")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	srv, _ := newDownstream(t)
	c := newClient(srv, 5000)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetTrainType(ctx, "Slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestClient_SeatsAndStations(t *testing.T) {
	srv, bodies := newDownstream(t)
	c := newClient(srv, 1000)

	id, err := c.ResolveStationID(context.Background(), "suzhou")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "id-suzhou" {
		t.Errorf("expected id-suzhou, got %s", id)
	}

	n, err := c.GetRemainingSeats(context.Background(), domain.SeatQuery{
		TravelDate:   time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC),
		TrainNumber:  "G1234",
		StartStation: "id-suzhou",
		DestStation:  "id-nanjing",
		SeatType:     domain.FirstClass,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(bodies.first()), &sent); err != nil {
		t.Fatalf("decode seat request: %v", err)
	}
	if sent["seatType"] != float64(2) || sent["travelDate"] != "2030-01-10" || sent["trainNumber"] != "G1234" {
		t.Errorf("unexpected seat request %v", sent)
	}
}

func TestClient_GetFare(t *testing.T) {
	srv, _ := newDownstream(t)
	c := newClient(srv, 1000)

	trip := &domain.Trip{ID: "G1234", TrainTypeName: "GaoTieOne", RouteID: "r1"}
	fare, err := c.GetFare(context.Background(), domain.FareQuery{
		Trip:          trip,
		StartPlace:    "suzhou",
		EndPlace:      "nanjing",
		DepartureTime: time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comfort, economy, err := fare.ClassPrices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comfort != 95 || economy != 50.5 || fare.TrainNumber != "G1234" {
		t.Errorf("unexpected fare %+v", fare)
	}
}
