// Package history archives tickets once their workflow reaches a terminal
// status. The archive is the system of record after the workflow closes:
// operator tooling and follow-up tickets read past conversations from here,
// never from Temporal history.
package history

import (
	"context"
	"errors"

	"goa.design/conductor/ticket"
)

// ErrNotFound reports that no archived ticket matches the lookup.
var ErrNotFound = errors.New("archived ticket not found")

var errNoTicketID = errors.New("ticket id is required")

// Store persists terminal tickets and serves them back for review.
type Store interface {
	// ArchiveTicket stores the full ticket. Re-archiving the same ticket
	// replaces the previous copy.
	ArchiveTicket(ctx context.Context, t ticket.Ticket) error

	// Ticket returns the archived ticket or ErrNotFound.
	Ticket(ctx context.Context, ticketID string) (ticket.Ticket, error)

	// CustomerTickets lists a customer's archived tickets, most recently
	// updated first. A non-positive limit returns all of them.
	CustomerTickets(ctx context.Context, customerID string, limit int) ([]ticket.Ticket, error)
}
