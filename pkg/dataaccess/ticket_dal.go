package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/lynx/pkg/custom"
	"github.com/Jacobbrewer1/lynx/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

// TicketFilter narrows ListTickets results. Zero-valued fields are ignored.
type TicketFilter struct {
	// Status filters by exact lifecycle status.
	Status entities.TicketStatus

	// AssignedStaff filters by the implicitly assigned staff member.
	AssignedStaff string

	// Unassigned, when true, returns open tickets with no assigned staff.
	Unassigned bool
}

// ITicketDal is the durable ticket store consumed by the lifecycle manager
// and the administrative API. The store is the single source of truth for
// ticket state; the platform surface is a derived mirror.
type ITicketDal interface {
	// CreateTicket inserts a new ticket. It returns ErrDuplicateID if the
	// ticket ID collides with an existing record.
	CreateTicket(ctx context.Context, ticket *entities.Ticket) error

	// SaveTicket persists a loaded ticket's lifecycle fields. It is
	// optimistic: ErrStaleWrite is returned if the record changed since it
	// was loaded. The conversation log is never written here; it belongs to
	// AppendMessage alone.
	SaveTicket(ctx context.Context, ticket *entities.Ticket) error

	// AppendMessage appends a message to the ticket's conversation log and
	// bumps last_activity.
	AppendMessage(ctx context.Context, ticketID string, msg *entities.TicketMessage) error

	// FindOpenByUser returns the ticket with status != closed for the given
	// user and guild, or ErrTicketNotFound.
	FindOpenByUser(ctx context.Context, userID, guildID string) (*entities.Ticket, error)

	// FindBySurface returns the newest ticket bound to the given surface, or
	// ErrTicketNotFound. Newest-first ordering means a surface ID recycled by
	// the platform is never attributed back to an old ticket.
	FindBySurface(ctx context.Context, surfaceID string) (*entities.Ticket, error)

	// FindByTicketID returns the ticket with the given ID, or
	// ErrTicketNotFound.
	FindByTicketID(ctx context.Context, ticketID string) (*entities.Ticket, error)

	// CountAll returns the number of tickets ever created, open or closed.
	CountAll(ctx context.Context) (int64, error)

	// ListTickets returns tickets matching the filter, newest first.
	ListTickets(ctx context.Context, filter *TicketFilter) ([]*entities.Ticket, error)

	// BulkClose closes every non-closed ticket under the given identity and
	// reason, returning how many records changed. Used by the cleanup tool.
	BulkClose(ctx context.Context, closedBy, reason string) (int64, error)

	// EnsureIndexes creates the unique ticket_id index backing ID allocation.
	EnsureIndexes(ctx context.Context) error
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(logger *slog.Logger) ITicketDal {
	l := logger.With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(ticketsCollection)
}

// observe starts the prometheus metrics for a query and returns the timer.
func observe(query string) *prometheus.Timer {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, query, mongoDatabase, ticketsCollection).Inc()
	return prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, query, mongoDatabase, ticketsCollection))
}

func (d *ticketDal) EnsureIndexes(ctx context.Context) error {
	t := observe("ensure_indexes")
	defer t.ObserveDuration()

	_, err := d.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ticket_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating ticket_id index: %w", err)
	}
	return nil
}

func (d *ticketDal) CreateTicket(ctx context.Context, ticket *entities.Ticket) error {
	t := observe("create_ticket")
	defer t.ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, ticket); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("error inserting ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) SaveTicket(ctx context.Context, ticket *entities.Ticket) error {
	t := observe("save_ticket")
	defer t.ObserveDuration()

	// Version-gated update. The write only lands if the record still carries
	// the version we loaded.
	loadedVersion := ticket.Version
	ticket.Version++

	// Lifecycle fields only. The conversation log is append-only and owned
	// by AppendMessage; writing it from a loaded snapshot would erase any
	// message pushed since the load.
	update := bson.M{
		"status":         ticket.Status,
		"priority":       ticket.Priority,
		"claimed_by":     ticket.ClaimedBy,
		"claimed_at":     ticket.ClaimedAt,
		"assigned_staff": ticket.AssignedStaff,
		"assigned_team":  ticket.AssignedTeam,
		"tags":           ticket.Tags,
		"closed_at":      ticket.ClosedAt,
		"closed_by":      ticket.ClosedBy,
		"close_reason":   ticket.CloseReason,
		"last_activity":  ticket.LastActivity,
		"version":        ticket.Version,
	}

	res, err := d.collection().UpdateOne(ctx,
		bson.M{"ticket_id": ticket.TicketID, "version": loadedVersion},
		bson.M{"$set": update},
	)
	if err != nil {
		ticket.Version = loadedVersion
		return fmt.Errorf("error updating ticket: %w", err)
	}
	if res.MatchedCount == 0 {
		ticket.Version = loadedVersion
		return ErrStaleWrite
	}
	return nil
}

func (d *ticketDal) AppendMessage(ctx context.Context, ticketID string, msg *entities.TicketMessage) error {
	t := observe("append_message")
	defer t.ObserveDuration()

	res, err := d.collection().UpdateOne(ctx,
		bson.M{"ticket_id": ticketID},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set":  bson.M{"last_activity": custom.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("error appending message: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (d *ticketDal) FindOpenByUser(ctx context.Context, userID, guildID string) (*entities.Ticket, error) {
	t := observe("find_open_by_user")
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{
		"user_id":  userID,
		"guild_id": guildID,
		"status":   bson.M{"$ne": entities.StatusClosed},
	}).Decode(ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) FindBySurface(ctx context.Context, surfaceID string) (*entities.Ticket, error) {
	t := observe("find_by_surface")
	defer t.ObserveDuration()

	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{"surface_id": surfaceID}, opts).Decode(ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) FindByTicketID(ctx context.Context, ticketID string) (*entities.Ticket, error) {
	t := observe("find_by_ticket_id")
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{"ticket_id": ticketID}).Decode(ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) BulkClose(ctx context.Context, closedBy, reason string) (int64, error) {
	t := observe("bulk_close")
	defer t.ObserveDuration()

	now := custom.Now()
	res, err := d.collection().UpdateMany(ctx,
		bson.M{"status": bson.M{"$ne": entities.StatusClosed}},
		bson.M{
			"$set": bson.M{
				"status":        entities.StatusClosed,
				"closed_at":     now,
				"closed_by":     closedBy,
				"close_reason":  reason,
				"last_activity": now,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("error bulk closing tickets: %w", err)
	}
	return res.ModifiedCount, nil
}

func (d *ticketDal) CountAll(ctx context.Context) (int64, error) {
	t := observe("count_all")
	defer t.ObserveDuration()

	count, err := d.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error counting tickets: %w", err)
	}
	return count, nil
}

func (d *ticketDal) ListTickets(ctx context.Context, filter *TicketFilter) ([]*entities.Ticket, error) {
	t := observe("list_tickets")
	defer t.ObserveDuration()

	query := bson.M{}
	if filter != nil {
		if filter.Status != "" {
			query["status"] = filter.Status
		}
		if filter.AssignedStaff != "" {
			query["assigned_staff"] = filter.AssignedStaff
		}
		if filter.Unassigned {
			query["status"] = entities.StatusOpen
			query["assigned_staff"] = ""
		}
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cur, err := d.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			d.l.Error("Error closing cursor", slog.String(logging.KeyError, err.Error()))
		}
	}()

	tickets := make([]*entities.Ticket, 0)
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}
