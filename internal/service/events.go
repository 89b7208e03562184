package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/sse"
)

// EventPublisher pushes server-sent events to a user's open streams.
type EventPublisher interface {
	Publish(ctx context.Context, mobile string, event sse.Event) error
}

// publish is best effort: a lost event is recovered by the client's polling.
func publish(ctx context.Context, events EventPublisher, mobile, eventType string, payload any) {
	if events == nil {
		return
	}
	event, err := sse.NewEvent(eventType, payload)
	if err == nil {
		err = events.Publish(ctx, mobile, event)
	}
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
