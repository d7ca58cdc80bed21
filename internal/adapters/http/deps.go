package http

import (
	"github.com/nats-io/nats.go"

	"github.com/mjsgreen01/Instatrip/internal/adapters/valkey"
	"github.com/mjsgreen01/Instatrip/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// NATS and Cache are optional.
type Dependencies struct {
	Trips *usecases.TripService
	NATS  *nats.Conn
	Cache *valkey.Cache
}
