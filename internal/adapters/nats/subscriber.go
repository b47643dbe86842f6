package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeStationEvents delivers station changes published on
// travel.station.<type>. A message whose body has no type takes it from the
// subject.
func (s *Subscriber) SubscribeStationEvents(ctx context.Context, handler func(ctx context.Context, event *domain.StationEvent) error) error {
	log := logging.FromContext(ctx)
	sub, err := s.js.Subscribe(StationSubjects, func(msg *nats.Msg) {
		var event domain.StationEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn("malformed station event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if event.Type == "" {
			event.Type = strings.TrimPrefix(msg.Subject, StationSubjectPrefix)
		}
		if err := handler(ctx, &event); err != nil {
			log.Warn("station event handler failed", "station", event.Name, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("travel-station-cache"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
