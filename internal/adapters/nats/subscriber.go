package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
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
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeTripRequests delivers queued trip requests to handler. Messages
// are acked when handler succeeds, redelivered up to three times when it
// fails, and terminated when they cannot be decoded.
func (s *Subscriber) SubscribeTripRequests(ctx context.Context, handler func(ctx context.Context, id string, req domain.TripRequest) error) error {
	sub, err := s.js.Subscribe(SubjectTripRequested, func(msg *nats.Msg) {
		event, err := DecodeTripRequested(msg.Data)
		if err != nil {
			slog.WarnContext(ctx, "dropping undecodable trip request", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, event.ID, event.Request); err != nil {
			slog.ErrorContext(ctx, "trip request handler failed", "trip_id", event.ID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("trip-planner"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// DecodeTripRequested parses a SubjectTripRequested payload.
func DecodeTripRequested(data []byte) (TripRequestedEvent, error) {
	var event TripRequestedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, err
	}
	if event.ID == "" {
		return event, fmt.Errorf("trip request without id")
	}
	return event, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
