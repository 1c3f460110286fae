package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/conductor/ticket"
)

func archivedTicket(id, customerID string, updated time.Time) ticket.Ticket {
	t := ticket.New(id, customerID, map[string]any{"name": "John Doe"}, updated.Add(-time.Hour))
	t.Append(ticket.Message{
		ID:        "msg-1",
		Type:      ticket.MessageCustomer,
		Content:   "Where is my order?",
		Timestamp: updated,
	})
	t.Status = ticket.StatusResolved
	return *t
}

func TestArchiveRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	updated := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.ArchiveTicket(ctx, archivedTicket("TKT-1", "customer-456", updated)))

	got, err := store.Ticket(ctx, "TKT-1")
	require.NoError(t, err)
	assert.Equal(t, "customer-456", got.CustomerID)
	assert.Equal(t, ticket.StatusResolved, got.Status)
	require.Len(t, got.ChatHistory, 1)
	assert.Equal(t, "Where is my order?", got.ChatHistory[0].Content)

	// The archive holds its own copy. Mutating what came back must not
	// leak into a later read.
	got.CustomerProfile["name"] = "changed"
	again, err := store.Ticket(ctx, "TKT-1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", again.CustomerProfile["name"])
}

func TestArchiveMissingTicket(t *testing.T) {
	store := NewMemory()
	_, err := store.Ticket(context.Background(), "TKT-absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveRequiresTicketID(t *testing.T) {
	store := NewMemory()
	require.Error(t, store.ArchiveTicket(context.Background(), ticket.Ticket{}))
}

func TestArchiveReplacesOnReArchive(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	updated := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	first := archivedTicket("TKT-1", "customer-456", updated)
	require.NoError(t, store.ArchiveTicket(ctx, first))

	second := first
	second.Status = ticket.StatusClosed
	require.NoError(t, store.ArchiveTicket(ctx, second))

	got, err := store.Ticket(ctx, "TKT-1")
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusClosed, got.Status)
}

func TestCustomerTicketsOrderAndLimit(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.ArchiveTicket(ctx, archivedTicket("TKT-1", "customer-456", base)))
	require.NoError(t, store.ArchiveTicket(ctx, archivedTicket("TKT-2", "customer-456", base.Add(2*time.Hour))))
	require.NoError(t, store.ArchiveTicket(ctx, archivedTicket("TKT-3", "customer-456", base.Add(time.Hour))))
	require.NoError(t, store.ArchiveTicket(ctx, archivedTicket("TKT-9", "customer-789", base)))

	all, err := store.CustomerTickets(ctx, "customer-456", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "TKT-2", all[0].TicketID)
	assert.Equal(t, "TKT-3", all[1].TicketID)
	assert.Equal(t, "TKT-1", all[2].TicketID)

	limited, err := store.CustomerTickets(ctx, "customer-456", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "TKT-2", limited[0].TicketID)

	none, err := store.CustomerTickets(ctx, "customer-000", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Mongo)(nil)
)
