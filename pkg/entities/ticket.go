package entities

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/lynx/pkg/custom"
)

// TicketStatus is the lifecycle state of a ticket.
//
// Transitions are monotone forward only: open -> claimed -> closed, with
// open -> closed also valid. Closed is terminal.
type TicketStatus string

const (
	StatusOpen    TicketStatus = "open"
	StatusClaimed TicketStatus = "claimed"
	StatusClosed  TicketStatus = "closed"
)

// Valid reports whether the status is a member of the closed status set.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusClosed:
		return true
	}
	return false
}

// TicketPriority is the priority of a ticket. It is only ever set from the
// administrative surface; the bot itself creates every ticket as medium.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the priority is a member of the closed priority set.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityUrgent:
		return true
	}
	return false
}

// Ticket is a support ticket. Field names and enum values are the wire
// contract for the administrative API and the Mongo collection; both must
// round-trip exactly.
type Ticket struct {
	// TicketID is the sequential, zero-padded ticket number (e.g. "00042").
	// It is assigned exactly once and never reused, even after closure.
	TicketID string `json:"ticket_id" bson:"ticket_id"`

	// UserID is the ID of the user that created the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// Username is the handle of the user that created the ticket.
	Username string `json:"username" bson:"username"`

	// GuildID is the ID of the guild that the ticket belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// SurfaceID is the ID of the conversation surface (thread, forum post or
	// dedicated channel) bound to the ticket. The platform may delete the
	// surface without telling us, so it can go stale.
	SurfaceID string `json:"surface_id" bson:"surface_id"`

	// ParentChannelID is the channel (or category) the surface was created
	// under.
	ParentChannelID string `json:"parent_channel_id" bson:"parent_channel_id"`

	// SurfaceKind records how the surface was provisioned.
	SurfaceKind SurfaceKind `json:"surface_kind" bson:"surface_kind"`

	// Type is the ticket category. Immutable once created.
	Type string `json:"type" bson:"type"`

	Status   TicketStatus   `json:"status" bson:"status"`
	Priority TicketPriority `json:"priority" bson:"priority"`

	// ClaimedBy is the staff member that explicitly claimed the ticket.
	ClaimedBy string          `json:"claimed_by" bson:"claimed_by"`
	ClaimedAt custom.Datetime `json:"claimed_at" bson:"claimed_at"`

	// AssignedStaff is set implicitly by the first staff reply. It is
	// distinct from ClaimedBy and never changes the status.
	AssignedStaff string `json:"assigned_staff" bson:"assigned_staff"`

	// AssignedTeam is only ever set from the administrative surface.
	AssignedTeam string `json:"assigned_team" bson:"assigned_team"`

	Tags []string `json:"tags" bson:"tags"`

	CreatedAt   custom.Datetime `json:"created_at" bson:"created_at"`
	ClosedAt    custom.Datetime `json:"closed_at" bson:"closed_at"`
	ClosedBy    string          `json:"closed_by" bson:"closed_by"`
	CloseReason string          `json:"close_reason" bson:"close_reason"`

	// LastActivity is bumped on every message or state change. It is
	// monotonically non-decreasing.
	LastActivity custom.Datetime `json:"last_activity" bson:"last_activity"`

	// Messages is the append-only conversation log, in chronological order.
	Messages []TicketMessage `json:"messages" bson:"messages"`

	// Version is the optimistic-locking counter used by the store.
	Version int64 `json:"-" bson:"version"`
}

// Name returns the deterministic fallback channel name for the ticket, so
// operators can identify ownership without querying the store.
func (t *Ticket) Name() string {
	return fmt.Sprintf("ticket-%s", strings.ToLower(t.TicketID))
}

// Closed reports whether the ticket has reached its terminal state.
func (t *Ticket) Closed() bool {
	return t.Status == StatusClosed
}

// TicketMessage is a single entry in a ticket's conversation log.
type TicketMessage struct {
	Content    string `json:"content" bson:"content"`
	AuthorID   string `json:"author_id" bson:"author_id"`
	AuthorName string `json:"author_name" bson:"author_name"`

	Timestamp custom.Datetime `json:"timestamp" bson:"timestamp"`

	// IsStaff records whether the author was staff at the time the message
	// was sent.
	IsStaff bool `json:"is_staff" bson:"is_staff"`

	Attachments []Attachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
}

// Attachment is a file attached to a ticket message.
type Attachment struct {
	URL  string `json:"url" bson:"url"`
	Name string `json:"name" bson:"name"`
}
