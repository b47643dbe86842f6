// Package gateway talks to the downstream route, train, station, seat, basic
// and order services over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/pkg/config"
	"github.com/angrychow/train-ticket/internal/pkg/metrics"
	"github.com/angrychow/train-ticket/internal/pkg/telemetry"
)

// Client implements ports.Gateway.
type Client struct {
	http    *fasthttp.Client
	cfg     config.GatewayConfig
	timeout time.Duration
}

// New creates a gateway client. Every call is bounded by cfg.Timeout() or
// the context deadline, whichever comes first.
func New(cfg config.GatewayConfig) *Client {
	timeout := cfg.Timeout()
	return &Client{
		http: &fasthttp.Client{
			Name:                "ts-travel-service",
			MaxConnsPerHost:     512,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		cfg:     cfg,
		timeout: timeout,
	}
}

// GetRoute fetches a route by id.
func (c *Client) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	var dto routeDTO
	u := c.cfg.RouteURL + "/api/v1/routeservice/routes/" + url.PathEscape(routeID)
	if err := c.do(ctx, "get_route", fasthttp.MethodGet, u, nil, &dto); err != nil {
		return nil, err
	}
	if len(dto.Stations) == 0 {
		return nil, fmt.Errorf("%w: route %s has no stations", domain.ErrNotFound, routeID)
	}
	return dto.toDomain(), nil
}

// GetTrainType fetches a train type by name.
func (c *Client) GetTrainType(ctx context.Context, name string) (*domain.TrainType, error) {
	var dto trainTypeDTO
	u := c.cfg.TrainURL + "/api/v1/trainservice/trains/" + url.PathEscape(name)
	if err := c.do(ctx, "get_train_type", fasthttp.MethodGet, u, nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// ResolveStationID maps a station name to the id the seat service uses.
func (c *Client) ResolveStationID(ctx context.Context, stationName string) (string, error) {
	var id string
	u := c.cfg.StationURL + "/api/v1/stationservice/stations/id/" + url.PathEscape(stationName)
	if err := c.do(ctx, "resolve_station", fasthttp.MethodGet, u, nil, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: station %s", domain.ErrNotFound, stationName)
	}
	return id, nil
}

// GetRemainingSeats asks the seat service how many seats of a class are left.
func (c *Client) GetRemainingSeats(ctx context.Context, q domain.SeatQuery) (int, error) {
	var n int
	u := c.cfg.SeatURL + "/api/v1/seatservice/seats/left_tickets"
	if err := c.do(ctx, "remaining_seats", fasthttp.MethodPost, u, newSeatRequest(q), &n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetFare combines the price table of the basic service with the train
// number the order service sold tickets under.
func (c *Client) GetFare(ctx context.Context, q domain.FareQuery) (*domain.Fare, error) {
	var result travelResult
	u := c.cfg.BasicURL + "/api/v1/basicservice/basic/travel"
	if err := c.do(ctx, "get_fare", fasthttp.MethodPost, u, newTravelRequest(q), &result); err != nil {
		return nil, err
	}
	prices, err := result.prices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	var sold soldTicket
	u = c.cfg.OrderURL + "/api/v1/orderservice/order/" +
		q.DepartureTime.Format(wireDateLayout) + "/" + url.PathEscape(q.Trip.ID)
	if err := c.do(ctx, "sold_tickets", fasthttp.MethodGet, u, nil, &sold); err != nil {
		return nil, err
	}

	return &domain.Fare{TrainNumber: sold.TrainNumber, Prices: prices}, nil
}

// do performs one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, op, method, uri string, body, out any) (err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "gateway."+op,
		attribute.String("http.method", method),
		attribute.String("http.url", uri),
	)
	defer func() {
		metrics.ObserveGateway(op, start, err)
		telemetry.EndSpan(span, err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{&req.Header})

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, op, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, uri)
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %s returned %d", domain.ErrUpstreamUnavailable, op, code)
	}

	var env response
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrUpstreamUnavailable, op, err)
	}
	if env.Status != statusOK || isNull(env.Data) {
		return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, op, env.Msg)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s data: %v", domain.ErrUpstreamUnavailable, op, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// headerCarrier adapts fasthttp request headers to propagation.TextMapCarrier.
type headerCarrier struct {
	h *fasthttp.RequestHeader
}

func (c headerCarrier) Get(key string) string { return string(c.h.Peek(key)) }
func (c headerCarrier) Set(key, value string) { c.h.Set(key, value) }

func (c headerCarrier) Keys() []string {
	var keys []string
	c.h.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

var _ propagation.TextMapCarrier = headerCarrier{}
