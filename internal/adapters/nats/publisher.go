package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

const (
	// SubjectTripRequested carries trips waiting for the asynchronous planner.
	SubjectTripRequested = "instatrip.trips.requested"
	// SubjectTripPlannedPrefix is followed by the trip ID.
	SubjectTripPlannedPrefix = "instatrip.trips.planned."
	// SubjectTripPlannedAll matches every planned trip.
	SubjectTripPlannedAll = SubjectTripPlannedPrefix + ">"
)

// TripRequestedEvent is the payload on SubjectTripRequested.
type TripRequestedEvent struct {
	ID      string             `json:"id"`
	Request domain.TripRequest `json:"request"`
}

// PlannedSubject returns the subject a planned trip is published on.
func PlannedSubject(tripID string) string {
	return SubjectTripPlannedPrefix + tripID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:       "TRIP_REQUESTS",
			Subjects:   []string{SubjectTripRequested},
			Retention:  nats.WorkQueuePolicy,
			MaxAge:     1 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		},
		{
			Name:      "TRIP_RESULTS",
			Subjects:  []string{SubjectTripPlannedAll},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishTripRequested queues a trip for the asynchronous planner. The trip
// ID doubles as the JetStream message ID so retries are deduplicated.
func (p *Publisher) PublishTripRequested(ctx context.Context, id string, req domain.TripRequest) error {
	data, err := json.Marshal(TripRequestedEvent{ID: id, Request: req})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectTripRequested, data, nats.Context(ctx), nats.MsgId(id))
	return err
}

func (p *Publisher) PublishTripPlanned(ctx context.Context, trip *domain.Trip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(PlannedSubject(trip.ID), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("instatrip"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
