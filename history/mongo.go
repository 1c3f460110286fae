package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goa.design/conductor/ticket"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	defaultCollection = "archived_tickets"
	defaultOpTimeout  = 5 * time.Second
	mongoClientName   = "history-mongo"
)

type (
	// MongoOptions configures the Mongo-backed archive.
	MongoOptions struct {
		// Client is the connected Mongo client. Required.
		Client *mongodriver.Client
		// Database is the database name. Required.
		Database string
		// Collection overrides the default archive collection.
		Collection string
		// Timeout bounds index creation and health pings.
		Timeout time.Duration
	}

	// Mongo implements Store on a MongoDB collection. Tickets are stored
	// as their JSON encoding next to the indexed lookup fields so the
	// archived document always round-trips exactly what the workflow held.
	Mongo struct {
		client  *mongodriver.Client
		coll    *mongodriver.Collection
		timeout time.Duration
	}

	archiveDoc struct {
		TicketID   string    `bson:"ticket_id"`
		CustomerID string    `bson:"customer_id"`
		Status     string    `bson:"status"`
		UpdatedAt  time.Time `bson:"updated_at"`
		ArchivedAt time.Time `bson:"archived_at"`
		Payload    []byte    `bson:"payload"`
	}
)

// NewMongo builds the Mongo archive and ensures its indexes.
func NewMongo(opts MongoOptions) (*Mongo, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collection := opts.Collection
	if collection == "" {
		collection = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	m := &Mongo{
		client:  opts.Client,
		coll:    opts.Client.Database(opts.Database).Collection(collection),
		timeout: timeout,
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "ticket_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create archive indexes: %w", err)
	}
	return nil
}

// Name implements health.Pinger.
func (m *Mongo) Name() string { return mongoClientName }

// Ping implements health.Pinger.
func (m *Mongo) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return m.client.Ping(ctx, readpref.Primary())
}

// ArchiveTicket upserts the ticket keyed by ticket id.
func (m *Mongo) ArchiveTicket(ctx context.Context, t ticket.Ticket) error {
	if t.TicketID == "" {
		return errNoTicketID
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode archived ticket: %w", err)
	}
	doc := archiveDoc{
		TicketID:   t.TicketID,
		CustomerID: t.CustomerID,
		Status:     string(t.Status),
		UpdatedAt:  t.LastUpdated.UTC(),
		ArchivedAt: time.Now().UTC(),
		Payload:    payload,
	}
	_, err = m.coll.ReplaceOne(ctx,
		bson.D{{Key: "ticket_id", Value: t.TicketID}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("archive ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// Ticket returns the archived ticket or ErrNotFound.
func (m *Mongo) Ticket(ctx context.Context, ticketID string) (ticket.Ticket, error) {
	var doc archiveDoc
	err := m.coll.FindOne(ctx, bson.D{{Key: "ticket_id", Value: ticketID}}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return ticket.Ticket{}, ErrNotFound
	}
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("load archived ticket %s: %w", ticketID, err)
	}
	return decodeArchived(doc)
}

// CustomerTickets lists a customer's archived tickets, newest first.
func (m *Mongo) CustomerTickets(ctx context.Context, customerID string, limit int) ([]ticket.Ticket, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		findOpts = findOpts.SetLimit(int64(limit))
	}
	cursor, err := m.coll.Find(ctx, bson.D{{Key: "customer_id", Value: customerID}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list archived tickets for %s: %w", customerID, err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var out []ticket.Ticket
	for cursor.Next(ctx) {
		var doc archiveDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode archived ticket: %w", err)
		}
		t, err := decodeArchived(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list archived tickets for %s: %w", customerID, err)
	}
	return out, nil
}

func decodeArchived(doc archiveDoc) (ticket.Ticket, error) {
	var t ticket.Ticket
	if err := json.Unmarshal(doc.Payload, &t); err != nil {
		return ticket.Ticket{}, fmt.Errorf("decode archived ticket %s: %w", doc.TicketID, err)
	}
	return t, nil
}
