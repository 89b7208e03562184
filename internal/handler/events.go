package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/middleware"
	"github.com/astroconsult/consult-server-go/internal/sse"
	"github.com/astroconsult/consult-server-go/internal/util"
)

// Subscriber hands out per-user event streams.
type Subscriber interface {
	Subscribe(mobile string) *sse.Client
	Unsubscribe(client *sse.Client)
}

// EventsHandler streams status and wallet events so clients can stop
// polling once a stream is open. Polling stays the fallback.
type EventsHandler struct {
	broker Subscriber
	users  UserAPI
}

func NewEventsHandler(broker Subscriber, users UserAPI) *EventsHandler {
	return &EventsHandler{
		broker: broker,
		users:  users,
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mobile := middleware.GetMobile(r.Context())
	if mobile == "" {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(mobile)
	defer h.broker.Unsubscribe(client)

	log.Info().
		Str("mobile", util.MaskMobile(mobile)).
		Msg("sse connection established")

	ctx := r.Context()

	// The current status goes first so a client that subscribed after the
	// last transition still learns it.
	connected := map[string]any{"mobile": mobile}
	if status, err := h.users.Status(ctx, mobile); err != nil {
		log.Warn().Err(err).Msg("failed to load status for sse connect")
	} else {
		connected["status"] = status.Status
		connected["wallet_balance"] = status.WalletBalance
	}
	if err := h.sendEvent(w, flusher, "connected", connected); err != nil {
		return
	}

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("mobile", util.MaskMobile(mobile)).
				Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().
				Str("mobile", util.MaskMobile(mobile)).
				Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Str("mobile", util.MaskMobile(mobile)).
					Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
