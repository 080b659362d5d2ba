package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/lynx/pkg/custom"
	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
)

// CloseReasonStale is recorded when a ticket is reconciled away because its
// surface disappeared on the platform side.
const CloseReasonStale = "stale"

// InboundMessage is a message delivered to a ticket-bound surface.
type InboundMessage struct {
	// Content is the message body.
	Content string

	// Author is the sending member, with a fresh role/permission snapshot.
	Author *Member

	// Timestamp is when the message was sent.
	Timestamp time.Time

	// Attachments are the message's file attachments.
	Attachments []entities.Attachment
}

// TicketPatch is an administrative update to a ticket. Nil fields are left
// untouched.
type TicketPatch struct {
	Status        *entities.TicketStatus
	Priority      *entities.TicketPriority
	AssignedStaff *string
	AssignedTeam  *string
	Tags          []string
}

// statusRank orders lifecycle states so transitions can be checked for
// forward monotonicity.
var statusRank = map[entities.TicketStatus]int{
	entities.StatusOpen:    0,
	entities.StatusClaimed: 1,
	entities.StatusClosed:  2,
}

// Manager is the single authority for the ticket lifecycle. Every entry
// point (buttons, platform messages, the administrative API) calls into it;
// there is no second copy of the state machine anywhere else.
//
// The store is the source of truth. The platform surface is a best-effort
// mirror that can fall out of sync and is reconciled at creation-check time,
// never trusted blindly.
type Manager struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the fixed ticketing configuration.
	cfg *Config

	// dal is the durable ticket store.
	dal dataaccess.ITicketDal

	// gw is the platform gateway.
	gw Gateway

	// prov creates conversation surfaces.
	prov *Provisioner

	// dispatcher receives lifecycle events after transitions commit.
	dispatcher *Dispatcher

	// sched schedules the post-close archival step.
	sched Scheduler
}

// NewManager creates a new lifecycle manager.
func NewManager(l *slog.Logger, cfg *Config, dal dataaccess.ITicketDal, gw Gateway, prov *Provisioner, dispatcher *Dispatcher, sched Scheduler) *Manager {
	return &Manager{
		l:          l,
		cfg:        cfg,
		dal:        dal,
		gw:         gw,
		prov:       prov,
		dispatcher: dispatcher,
		sched:      sched,
	}
}

// Create opens a new ticket for the given member.
//
// If the member already has a non-closed ticket whose surface still resolves,
// ErrDuplicateOpenTicket is returned together with the existing ticket so the
// caller can point at its surface. If the surface no longer exists the stale
// record is closed under the service identity and creation proceeds: a ticket
// only counts as open if its surface is independently confirmed reachable.
func (m *Manager) Create(ctx context.Context, creator *Member, category Category, inv Invocation) (*entities.Ticket, error) {
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	existing, err := m.dal.FindOpenByUser(ctx, creator.UserID, inv.GuildID)
	switch {
	case err == nil:
		found, rerr := m.gw.ResolveSurface(ctx, existing.SurfaceID)
		if rerr != nil {
			// If the surface cannot be verified, treat it as gone rather
			// than leaving the user locked out behind a dead record.
			m.l.Warn("Error resolving existing ticket surface, treating as stale",
				slog.String(logging.KeyTicket, existing.TicketID),
				slog.String(logging.KeyError, rerr.Error()))
			found = false
		}
		if found {
			return existing, ErrDuplicateOpenTicket
		}
		if err := m.closeStale(ctx, existing); err != nil {
			return nil, err
		}
	case errors.Is(err, dataaccess.ErrTicketNotFound):
		// No open ticket, carry on.
	default:
		return nil, fmt.Errorf("error looking up open ticket: %w", err)
	}

	ticketID, err := m.nextTicketID(ctx)
	if err != nil {
		return nil, err
	}

	surface, err := m.prov.Provision(ctx, category, creator, ticketID, inv)
	if err != nil {
		// No partial ticket record without a bound surface.
		return nil, fmt.Errorf("error provisioning surface: %w", err)
	}

	now := custom.Now()
	ticket := &entities.Ticket{
		TicketID:        ticketID,
		UserID:          creator.UserID,
		Username:        creator.Username,
		GuildID:         inv.GuildID,
		SurfaceID:       surface.ID,
		ParentChannelID: surface.ParentChannelID,
		SurfaceKind:     surface.Kind,
		Type:            string(category),
		Status:          entities.StatusOpen,
		Priority:        entities.PriorityMedium,
		Tags:            []string{category.Info().Label},
		CreatedAt:       now,
		LastActivity:    now,
		Messages:        []entities.TicketMessage{},
	}

	if err := m.dal.CreateTicket(ctx, ticket); err != nil {
		if !errors.Is(err, dataaccess.ErrDuplicateID) {
			return nil, fmt.Errorf("error creating ticket: %w", err)
		}

		// The count-plus-one sequence raced with a concurrent create. Recount
		// and retry once; the unique index remains the backstop.
		retryID, rerr := m.nextTicketID(ctx)
		if rerr != nil {
			return nil, rerr
		}
		m.l.Warn("Ticket ID collision, retrying with recount",
			slog.String(logging.KeyTicket, ticketID),
			slog.String("retry_id", retryID))
		ticket.TicketID = retryID
		if err := m.dal.CreateTicket(ctx, ticket); err != nil {
			return nil, fmt.Errorf("error creating ticket after retry: %w", err)
		}
	}

	m.dispatcher.Publish(Event{
		Type:    EventTicketCreated,
		Ticket:  ticket,
		ActorID: creator.UserID,
	})

	return ticket, nil
}

// nextTicketID allocates the next sequential, zero-padded ticket ID. The
// sequence is count-plus-one over all tickets ever created: closed tickets
// are never deleted, so IDs are strictly increasing and never reused.
func (m *Manager) nextTicketID(ctx context.Context) (string, error) {
	count, err := m.dal.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("error counting tickets: %w", err)
	}
	return fmt.Sprintf("%0*d", m.cfg.ticketIDWidth(), count+1), nil
}

// closeStale closes an orphaned ticket whose surface no longer resolves.
func (m *Manager) closeStale(ctx context.Context, ticket *entities.Ticket) error {
	now := custom.Now()
	ticket.Status = entities.StatusClosed
	ticket.ClosedAt = now
	ticket.ClosedBy = m.cfg.BotUserID
	ticket.CloseReason = CloseReasonStale
	ticket.LastActivity = now

	if err := m.dal.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("error closing stale ticket: %w", err)
	}

	m.l.Info("Auto-closed stale ticket, surface no longer exists",
		slog.String(logging.KeyTicket, ticket.TicketID),
		slog.String(logging.KeySurface, ticket.SurfaceID))
	return nil
}

// Claim assigns the ticket bound to the given surface to the acting staff
// member. The creator can never claim their own ticket, and a ticket can only
// be claimed once.
func (m *Manager) Claim(ctx context.Context, actor *Member, surfaceID string) (*entities.Ticket, error) {
	ticket, err := m.resolveTicket(ctx, surfaceID)
	if err != nil {
		return nil, err
	}

	if ticket.Closed() {
		return ticket, ErrAlreadyClosed
	}
	if ticket.ClaimedBy != "" {
		return ticket, ErrAlreadyClaimed
	}
	if !IsStaff(m.cfg, actor) {
		return ticket, ErrForbidden
	}
	if actor.UserID == ticket.UserID {
		return ticket, ErrForbidden
	}

	now := custom.Now()
	ticket.ClaimedBy = actor.UserID
	ticket.ClaimedAt = now
	ticket.Status = entities.StatusClaimed
	ticket.LastActivity = now

	if err := m.dal.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving claimed ticket: %w", err)
	}

	m.dispatcher.Publish(Event{
		Type:    EventTicketClaimed,
		Ticket:  ticket,
		ActorID: actor.UserID,
	})

	return ticket, nil
}

// Close transitions the ticket bound to the given surface to its terminal
// state. Staff and the ticket creator may close; closing twice yields
// ErrAlreadyClosed with the original closure untouched.
//
// Surface archival happens after a grace delay and is decoupled from the
// close itself: the logical state is final once the store write lands, and an
// archival failure is logged, not retried, and never reverts the close.
func (m *Manager) Close(ctx context.Context, actor *Member, surfaceID string) (*entities.Ticket, error) {
	ticket, err := m.resolveTicket(ctx, surfaceID)
	if err != nil {
		return nil, err
	}

	if ticket.Closed() {
		return ticket, ErrAlreadyClosed
	}
	if !IsStaff(m.cfg, actor) && actor.UserID != ticket.UserID {
		return ticket, ErrForbidden
	}

	now := custom.Now()
	ticket.Status = entities.StatusClosed
	ticket.ClosedAt = now
	ticket.ClosedBy = actor.UserID
	ticket.LastActivity = now

	if err := m.dal.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving closed ticket: %w", err)
	}

	m.dispatcher.Publish(Event{
		Type:    EventTicketClosed,
		Ticket:  ticket,
		ActorID: actor.UserID,
	})

	m.scheduleArchival(ticket)

	return ticket, nil
}

// scheduleArchival queues the cosmetic surface cleanup for a closed ticket.
// Threads and forum posts are archived; dedicated channels are deleted.
func (m *Manager) scheduleArchival(ticket *entities.Ticket) {
	surfaceID := ticket.SurfaceID
	kind := ticket.SurfaceKind
	ticketID := ticket.TicketID

	m.sched.After(m.cfg.archiveDelay(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var err error
		if kind == entities.SurfaceChannel {
			err = m.gw.DeleteChannel(ctx, surfaceID)
		} else {
			err = m.gw.SetArchived(ctx, surfaceID)
		}
		if err != nil {
			m.l.Error("Error archiving ticket surface",
				slog.String(logging.KeyTicket, ticketID),
				slog.String(logging.KeySurface, surfaceID),
				slog.String(logging.KeyError, err.Error()))
		}
	})
}

// OnMessage records a message delivered to a ticket-bound surface. Messages
// in closed tickets are not appended; messages in open and claimed tickets
// are. If the author is staff and the ticket has no assigned staff yet, the
// author becomes the implicitly assigned staff member, without changing the
// status.
func (m *Manager) OnMessage(ctx context.Context, surfaceID string, msg *InboundMessage) error {
	ticket, err := m.dal.FindBySurface(ctx, surfaceID)
	if err != nil {
		if errors.Is(err, dataaccess.ErrTicketNotFound) {
			// Not a ticket surface.
			return nil
		}
		return fmt.Errorf("error resolving ticket for message: %w", err)
	}

	if ticket.Closed() {
		return nil
	}

	isStaff := IsStaff(m.cfg, msg.Author)

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	record := &entities.TicketMessage{
		Content:     msg.Content,
		AuthorID:    msg.Author.UserID,
		AuthorName:  msg.Author.Username,
		Timestamp:   custom.Datetime(ts),
		IsStaff:     isStaff,
		Attachments: msg.Attachments,
	}

	if err := m.dal.AppendMessage(ctx, ticket.TicketID, record); err != nil {
		return fmt.Errorf("error appending message: %w", err)
	}

	if isStaff && ticket.AssignedStaff == "" {
		m.assignStaff(ctx, ticket, msg.Author.UserID)
	}

	return nil
}

// assignStaff records the implicit assignment of the first staff responder.
// Losing the save race just means another writer assigned first.
func (m *Manager) assignStaff(ctx context.Context, ticket *entities.Ticket, staffID string) {
	ticket.AssignedStaff = staffID
	ticket.LastActivity = custom.Now()

	if err := m.dal.SaveTicket(ctx, ticket); err != nil {
		if errors.Is(err, dataaccess.ErrStaleWrite) {
			m.l.Debug("Lost implicit assignment race",
				slog.String(logging.KeyTicket, ticket.TicketID))
			return
		}
		m.l.Error("Error saving implicit staff assignment",
			slog.String(logging.KeyTicket, ticket.TicketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	m.dispatcher.Publish(Event{
		Type:    EventTicketAssigned,
		Ticket:  ticket,
		ActorID: staffID,
	})
}

// resolveTicket finds the ticket bound to a surface, translating the store's
// not-found into the lifecycle error.
func (m *Manager) resolveTicket(ctx context.Context, surfaceID string) (*entities.Ticket, error) {
	ticket, err := m.dal.FindBySurface(ctx, surfaceID)
	if err != nil {
		if errors.Is(err, dataaccess.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("error resolving ticket: %w", err)
	}
	return ticket, nil
}

// List returns tickets matching the filter, newest first.
func (m *Manager) List(ctx context.Context, filter *dataaccess.TicketFilter) ([]*entities.Ticket, error) {
	tickets, err := m.dal.ListTickets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	return tickets, nil
}

// Get returns one ticket by ID.
func (m *Manager) Get(ctx context.Context, ticketID string) (*entities.Ticket, error) {
	ticket, err := m.dal.FindByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, dataaccess.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

// Patch applies an administrative update. Status changes must move forward
// through the lifecycle; a closed ticket can never be regressed. Patching the
// status to closed records the acting identity as the closer.
func (m *Manager) Patch(ctx context.Context, ticketID, actorID string, patch *TicketPatch) (*entities.Ticket, error) {
	ticket, err := m.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		next := *patch.Status
		if !next.Valid() {
			return nil, ErrInvalidPatch
		}
		if statusRank[next] < statusRank[ticket.Status] {
			return nil, ErrInvalidPatch
		}
		if next == entities.StatusClosed && !ticket.Closed() {
			ticket.ClosedAt = custom.Now()
			ticket.ClosedBy = actorID
		}
		ticket.Status = next
	}

	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, ErrInvalidPatch
		}
		ticket.Priority = *patch.Priority
	}

	if patch.AssignedStaff != nil {
		ticket.AssignedStaff = *patch.AssignedStaff
	}

	if patch.AssignedTeam != nil {
		ticket.AssignedTeam = *patch.AssignedTeam
	}

	if patch.Tags != nil {
		ticket.Tags = patch.Tags
	}

	ticket.LastActivity = custom.Now()

	if err := m.dal.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving patched ticket: %w", err)
	}

	return ticket, nil
}

// PostStaffMessage appends a staff-authored message from the administrative
// surface and mirrors it into the bound platform surface. The mirror is best
// effort: the appended record is already committed.
func (m *Manager) PostStaffMessage(ctx context.Context, ticketID, authorID, authorName, content string) (*entities.Ticket, error) {
	ticket, err := m.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Closed() {
		return ticket, ErrAlreadyClosed
	}

	record := &entities.TicketMessage{
		Content:    content,
		AuthorID:   authorID,
		AuthorName: authorName,
		Timestamp:  custom.Now(),
		IsStaff:    true,
	}
	if err := m.dal.AppendMessage(ctx, ticket.TicketID, record); err != nil {
		return nil, fmt.Errorf("error appending staff message: %w", err)
	}

	if err := m.gw.SendMessage(ctx, ticket.SurfaceID, fmt.Sprintf("**%s:** %s", authorName, content)); err != nil {
		m.l.Error("Error mirroring staff message to surface",
			slog.String(logging.KeyTicket, ticket.TicketID),
			slog.String(logging.KeyError, err.Error()))
	}

	if ticket.AssignedStaff == "" {
		m.assignStaff(ctx, ticket, authorID)
	}

	return ticket, nil
}
