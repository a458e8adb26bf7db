package events

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Subscriber is one live output channel registered with the Hub. It is owned
// by the Hub while registered; consumers only read from Events.
type Subscriber struct {
	id     uuid.UUID
	ch     chan []byte
	closed bool
}

// ID returns the subscriber's unique identifier.
func (s *Subscriber) ID() uuid.UUID { return s.id }

// Events returns the channel of serialized events. The channel is closed
// when the subscriber is removed from the Hub.
func (s *Subscriber) Events() <-chan []byte { return s.ch }

// Hub multicasts events to every registered subscriber. Delivery is
// best-effort and at-most-once per subscriber per event: each event is
// serialized exactly once and the same bytes go to every subscriber in
// subscription order. Publish never blocks on a slow subscriber; when a
// subscriber's buffer is full the event is dropped for that subscriber only.
// There is no backlog or replay for late joiners.
type Hub struct {
	mu         sync.Mutex
	subs       []*Subscriber
	bufferSize int
	logger     *slog.Logger
}

// NewHub creates a Hub whose subscribers buffer up to bufferSize events.
func NewHub(bufferSize int, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		subs:       make([]*Subscriber, 0),
		bufferSize: bufferSize,
		logger:     logger.With("component", "event_hub"),
	}
}

// Subscribe registers a new subscriber and queues a connected hello event
// to it alone. The returned subscriber must eventually be passed to
// Unsubscribe or its channel will never be closed.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id: uuid.New(),
		ch: make(chan []byte, h.bufferSize),
	}

	hello, err := json.Marshal(NewConnectedEvent(sub.id))
	if err != nil {
		// ConnectedEvent has no unmarshalable fields; this cannot happen.
		h.logger.Error("failed to marshal connected event", "error", err)
	} else {
		sub.ch <- hello
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, sub)

	h.logger.Debug("subscriber attached",
		"subscriber_id", sub.id,
		"subscriber_count", len(h.subs))
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. It is
// idempotent and safe to call after the underlying connection is gone.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return
	}

	for i, s := range h.subs {
		if s == sub {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			break
		}
	}
	sub.closed = true
	close(sub.ch)

	h.logger.Debug("subscriber detached",
		"subscriber_id", sub.id,
		"subscriber_count", len(h.subs))
}

// Publish serializes the event once and delivers the bytes to every
// registered subscriber in subscription order. A full subscriber buffer
// drops the event for that subscriber only; everyone else still receives it.
func (h *Hub) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event",
			"kind", event.EventKind(),
			"error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- data:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				"subscriber_id", sub.id,
				"kind", event.EventKind())
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every subscriber. Used during shutdown so streaming
// handlers observe channel close and return.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		sub.closed = true
		close(sub.ch)
	}
	h.subs = h.subs[:0]
}
