package history

import (
	"context"
	"sort"
	"sync"

	"goa.design/conductor/ticket"
)

// Memory is an in-memory Store for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	tickets map[string]ticket.Ticket
}

// NewMemory returns an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{tickets: make(map[string]ticket.Ticket)}
}

// ArchiveTicket stores a deep copy of the ticket.
func (m *Memory) ArchiveTicket(_ context.Context, t ticket.Ticket) error {
	if t.TicketID == "" {
		return errNoTicketID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[t.TicketID] = *t.Snapshot()
	return nil
}

// Ticket returns a deep copy of the archived ticket or ErrNotFound.
func (m *Memory) Ticket(_ context.Context, ticketID string) (ticket.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return ticket.Ticket{}, ErrNotFound
	}
	return *t.Snapshot(), nil
}

// CustomerTickets lists a customer's archived tickets, most recently updated
// first.
func (m *Memory) CustomerTickets(_ context.Context, customerID string, limit int) ([]ticket.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ticket.Ticket
	for _, t := range m.tickets {
		if t.CustomerID == customerID {
			out = append(out, *t.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
