package activities

import (
	"context"

	"goa.design/clue/log"

	"goa.design/conductor/history"
	"goa.design/conductor/stream"
	"goa.design/conductor/ticket"
)

type (
	// Publish hosts the chat event publication activity.
	Publish struct {
		pub *stream.Publisher
	}

	// Archive hosts the terminal-ticket archival activity.
	Archive struct {
		store history.Store
	}
)

// NewPublish builds the publication activity. A nil publisher disables
// streaming entirely.
func NewPublish(pub *stream.Publisher) *Publish {
	return &Publish{pub: pub}
}

// PublishEvent pushes an event onto the ticket's live feed. Publication is
// best effort: failures are logged and swallowed so the conductor never
// retries or fails over its feed.
func (p *Publish) PublishEvent(ctx context.Context, ev stream.Event) error {
	if p.pub == nil {
		return nil
	}
	if err := p.pub.Publish(ctx, ev); err != nil {
		log.Errorf(ctx, err, "publish %s event for ticket %s", ev.Type, ev.TicketID)
	}
	return nil
}

// NewArchive builds the archival activity.
func NewArchive(store history.Store) *Archive {
	return &Archive{store: store}
}

// ArchiveTicket stores the final ticket snapshot in the archive.
func (a *Archive) ArchiveTicket(ctx context.Context, t ticket.Ticket) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.ArchiveTicket(ctx, t); err != nil {
		return err
	}
	log.Printf(ctx, "archived ticket %s (%s)", t.TicketID, t.Status)
	return nil
}
