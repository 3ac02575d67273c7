package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/anupsamy/squadup/internal/core/domain"
)

type fakeAcker struct {
	acks, naks, terms int
}

func (f *fakeAcker) Ack(...nats.AckOpt) error {
	f.acks++
	return nil
}

func (f *fakeAcker) Nak(...nats.AckOpt) error {
	f.naks++
	return nil
}

func (f *fakeAcker) Term(...nats.AckOpt) error {
	f.terms++
	return nil
}

func TestSettleMemberUpdate(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		handlerErr error
		want       fakeAcker
	}{
		{"ok", `{"group_id":"g1"}`, nil, fakeAcker{acks: 1}},
		{"malformed", `{`, nil, fakeAcker{terms: 1}},
		{"transient", `{"group_id":"g1"}`, errors.New("temporal down"), fakeAcker{naks: 1}},
		{"missing group", `{}`, fmt.Errorf("%w: member update without group id", domain.ErrInvalidArgument), fakeAcker{terms: 1}},
		{"not found", `{"group_id":"g1"}`, fmt.Errorf("group: %w", domain.ErrNotFound), fakeAcker{terms: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got fakeAcker
			calls := 0
			handler := func(context.Context, *domain.MemberUpdatedEvent) error {
				calls++
				return tt.handlerErr
			}
			settleMemberUpdate(context.Background(), "squad.group.g1.members", []byte(tt.data), &got, handler)
			assert.Equal(t, tt.want, got)
			if tt.name == "malformed" {
				assert.Zero(t, calls)
			}
		})
	}
}
