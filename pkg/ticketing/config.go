package ticketing

import "time"

// DefaultArchiveDelay is the grace period between a ticket closing and its
// surface being archived or deleted.
const DefaultArchiveDelay = 10 * time.Second

// DefaultTicketIDWidth is the zero-padding width of ticket IDs.
const DefaultTicketIDWidth = 5

// Config is the fixed ticketing configuration. It is loaded once at process
// start and passed explicitly to the manager and the provisioner; nothing in
// this package reads ambient global state.
type Config struct {
	// GuildID is the guild the bot serves.
	GuildID string

	// SupportRoleID is the role that handles tickets. Optional; when empty no
	// support-role grants or mentions are made.
	SupportRoleID string

	// AdminRoleID is the administrator role. Optional.
	AdminRoleID string

	// ParentCategoryID is the category that fallback ticket channels are
	// created under. Optional.
	ParentCategoryID string

	// LogChannelID is the surface that lifecycle notifications are posted to.
	// Optional; when empty no log notifications are emitted.
	LogChannelID string

	// BotUserID is the service identity. It is recorded as the closer of
	// tickets reconciled as stale, and granted access to fallback channels.
	BotUserID string

	// ArchiveDelay is the grace period before surface archival after close.
	ArchiveDelay time.Duration

	// TicketIDWidth is the zero-padding width of allocated ticket IDs.
	TicketIDWidth int
}

// archiveDelay returns the configured delay, defaulting when unset.
func (c *Config) archiveDelay() time.Duration {
	if c.ArchiveDelay <= 0 {
		return DefaultArchiveDelay
	}
	return c.ArchiveDelay
}

// ticketIDWidth returns the configured width, defaulting when unset.
func (c *Config) ticketIDWidth() int {
	if c.TicketIDWidth <= 0 {
		return DefaultTicketIDWidth
	}
	return c.TicketIDWidth
}
