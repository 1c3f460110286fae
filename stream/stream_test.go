package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

type fakeStream struct {
	added []fakeEntry
}

type fakeEntry struct {
	event   string
	payload []byte
}

func (f *fakeStream) Add(_ context.Context, event string, payload []byte) (string, error) {
	f.added = append(f.added, fakeEntry{event: event, payload: payload})
	return "1-0", nil
}

func (f *fakeStream) NewSink(context.Context, string, ...streamopts.Sink) (Sink, error) {
	return nil, nil
}

type fakeClient struct {
	opened  []string
	streams map[string]*fakeStream
}

func (f *fakeClient) Stream(name string) (Stream, error) {
	f.opened = append(f.opened, name)
	if f.streams == nil {
		f.streams = make(map[string]*fakeStream)
	}
	if _, ok := f.streams[name]; !ok {
		f.streams[name] = &fakeStream{}
	}
	return f.streams[name], nil
}

func TestPublishRoutesPerTicket(t *testing.T) {
	client := &fakeClient{}
	pub, err := NewPublisher(client)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), Event{
		Type: EventMessage, TicketID: "TKT-1",
		Payload: map[string]any{"content": "hello"},
	}))
	require.NoError(t, pub.Publish(context.Background(), Event{
		Type: EventStatus, TicketID: "TKT-2", Payload: "resolved",
	}))
	require.NoError(t, pub.Publish(context.Background(), Event{
		Type: EventMessage, TicketID: "TKT-1", Payload: map[string]any{"content": "again"},
	}))

	// One stream per ticket, opened once and reused.
	assert.Equal(t, []string{"ticket/TKT-1", "ticket/TKT-2"}, client.opened)
	require.Len(t, client.streams["ticket/TKT-1"].added, 2)

	entry := client.streams["ticket/TKT-1"].added[0]
	assert.Equal(t, EventMessage, entry.event)
	var ev Event
	require.NoError(t, json.Unmarshal(entry.payload, &ev))
	assert.Equal(t, "TKT-1", ev.TicketID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestPublishRequiresTicketID(t *testing.T) {
	pub, err := NewPublisher(&fakeClient{})
	require.NoError(t, err)
	require.Error(t, pub.Publish(context.Background(), Event{Type: EventMessage}))
}

func TestEventEnvelopeRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(Event{Type: EventQuestion, TicketID: "TKT-9", Timestamp: now, Payload: "Which order?"})
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, EventQuestion, ev.Type)
	assert.Equal(t, now, ev.Timestamp)
	assert.Equal(t, "Which order?", ev.Payload)
}

var _ Sink = sinkAdapter{Sink: (*streaming.Sink)(nil)}
