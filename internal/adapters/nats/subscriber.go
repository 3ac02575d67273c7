package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the squad event stream exists.
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
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeMemberUpdates delivers every member update of every group to
// handler. A handler error naks the message for redelivery unless it is
// permanent (invalid argument or not found), which terminates it.
func (s *Subscriber) SubscribeMemberUpdates(ctx context.Context, handler func(ctx context.Context, event *domain.MemberUpdatedEvent) error) error {
	sub, err := s.js.Subscribe(subjectRoot+"*."+channelMembers, func(msg *nats.Msg) {
		settleMemberUpdate(ctx, msg.Subject, msg.Data, msg, handler)
	},
		nats.Durable(memberConsumerName),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return fmt.Errorf("subscribe member updates: %w", err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// acker is the acknowledgement half of *nats.Msg.
type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

func settleMemberUpdate(ctx context.Context, subject string, data []byte, msg acker, handler func(ctx context.Context, event *domain.MemberUpdatedEvent) error) {
	var event domain.MemberUpdatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Warn("drop malformed member update", "subject", subject, "error", err)
		_ = msg.Term()
		return
	}
	if err := handler(ctx, &event); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrNotFound) {
			slog.Warn("drop unprocessable member update", "subject", subject, "error", err)
			_ = msg.Term()
			return
		}
		slog.Warn("member update handler failed", "group_id", event.GroupID, "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
