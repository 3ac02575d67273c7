package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/anupsamy/squadup/internal/core/usecases"
)

// Pinger is a backing service the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Groups        *usecases.GroupService
	MeetingPoints *usecases.MeetingPointService
	Venues        *usecases.VenueService
	NATS          *nats.Conn
	DB            Pinger // nil when not configured
	Cache         Pinger // nil when not configured
	Version       string
}
