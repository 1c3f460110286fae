// Package stream publishes ticket events to Pulse streams backed by Redis so
// operator consoles can follow conversations live. Callers build a Redis
// client, pass it to New, and hand the resulting publisher to the worker.
// Publishing is best effort: a ticket never fails because its live feed does.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

// Event kinds published to ticket streams.
const (
	EventMessage  = "message"
	EventStatus   = "status"
	EventQuestion = "question"
)

type (
	// Event is one entry on a ticket's live feed.
	Event struct {
		// Type is the event kind (message, status, question).
		Type string `json:"type"`
		// TicketID identifies the ticket the event belongs to.
		TicketID string `json:"ticket_id"`
		// Timestamp records when the event was published (UTC).
		Timestamp time.Time `json:"timestamp"`
		// Payload carries the event-specific data.
		Payload any `json:"payload,omitempty"`
	}

	// Stream exposes the Pulse stream operations the publisher needs.
	Stream interface {
		Add(ctx context.Context, event string, payload []byte) (string, error)
		NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error)
	}

	// Sink is a consumer group reading one ticket's feed.
	Sink interface {
		Subscribe() <-chan *streaming.Event
		Ack(context.Context, *streaming.Event) error
		Close(context.Context)
	}

	// Client opens Pulse streams by name. Satisfied by the Redis-backed
	// implementation returned by New and by mocks in tests.
	Client interface {
		Stream(name string) (Stream, error)
	}

	// Options configures the Redis-backed client.
	Options struct {
		// Redis is the connection backing the Pulse streams. Required.
		Redis *redis.Client
		// StreamMaxLen bounds entries kept per ticket stream. Zero uses
		// the Pulse default.
		StreamMaxLen int
	}

	// Publisher writes ticket events to per-ticket Pulse streams.
	Publisher struct {
		client Client

		mu      sync.Mutex
		streams map[string]Stream
	}

	redisClient struct {
		rdb    *redis.Client
		maxLen int
	}

	handle struct {
		stream *streaming.Stream
	}

	sinkAdapter struct {
		*streaming.Sink
	}
)

// New builds a Redis-backed Pulse client.
func New(opts Options) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	return &redisClient{rdb: opts.Redis, maxLen: opts.StreamMaxLen}, nil
}

// Stream opens the named Pulse stream, creating it if needed.
func (c *redisClient) Stream(name string) (Stream, error) {
	if name == "" {
		return nil, errors.New("stream name is required")
	}
	var streamOptions []streamopts.Stream
	if c.maxLen > 0 {
		streamOptions = append(streamOptions, streamopts.WithStreamMaxLen(c.maxLen))
	}
	str, err := streaming.NewStream(name, c.rdb, streamOptions...)
	if err != nil {
		return nil, fmt.Errorf("create pulse stream: %w", err)
	}
	return &handle{stream: str}, nil
}

func (h *handle) Add(ctx context.Context, event string, payload []byte) (string, error) {
	if event == "" {
		return "", errors.New("event name is required")
	}
	id, err := h.stream.Add(ctx, event, payload)
	if err != nil {
		return "", fmt.Errorf("pulse add: %w", err)
	}
	return id, nil
}

func (h *handle) NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error) {
	sink, err := h.stream.NewSink(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	return sinkAdapter{Sink: sink}, nil
}

func (s sinkAdapter) Close(ctx context.Context) {
	s.Sink.Close(ctx)
}

// NewPublisher builds a publisher over the given client.
func NewPublisher(client Client) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("pulse client is required")
	}
	return &Publisher{client: client, streams: make(map[string]Stream)}, nil
}

// StreamName is the Pulse stream carrying one ticket's feed.
func StreamName(ticketID string) string {
	return "ticket/" + ticketID
}

// Publish appends the event to its ticket's stream.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.TicketID == "" {
		return errors.New("stream event missing ticket id")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	stream, err := p.handleFor(StreamName(ev.TicketID))
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := stream.Add(ctx, ev.Type, payload); err != nil {
		return err
	}
	return nil
}

// Tail subscribes to a ticket's feed and invokes handler for every event
// until the context is done. Events that fail to decode are acked and
// dropped.
func (p *Publisher) Tail(ctx context.Context, ticketID, consumer string, handler func(Event)) error {
	stream, err := p.handleFor(StreamName(ticketID))
	if err != nil {
		return err
	}
	sink, err := stream.NewSink(ctx, consumer)
	if err != nil {
		return fmt.Errorf("create pulse sink: %w", err)
	}
	defer sink.Close(ctx)
	events := sink.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-events:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal(raw.Payload, &ev); err == nil {
				handler(ev)
			}
			if err := sink.Ack(ctx, raw); err != nil {
				return fmt.Errorf("ack pulse event: %w", err)
			}
		}
	}
}

func (p *Publisher) handleFor(name string) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stream, ok := p.streams[name]; ok {
		return stream, nil
	}
	stream, err := p.client.Stream(name)
	if err != nil {
		return nil, err
	}
	p.streams[name] = stream
	return stream, nil
}
