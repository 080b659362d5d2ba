package ticketing

import "context"

// ChannelKind classifies the invoking location for provisioning. It is a
// closed set; the provisioning strategy is selected by a single switch on
// this value.
type ChannelKind int

const (
	// ChannelKindOther is any location with no threading capability.
	ChannelKindOther ChannelKind = iota

	// ChannelKindText is a plain text channel that supports threads.
	ChannelKindText

	// ChannelKindForum is a forum-style channel whose posts are threads.
	ChannelKindForum
)

// Permission bits, as defined by the platform.
const (
	PermissionAdministrator      int64 = 1 << 3
	PermissionManageGuild        int64 = 1 << 5
	PermissionViewChannel        int64 = 1 << 10
	PermissionSendMessages       int64 = 1 << 11
	PermissionReadMessageHistory int64 = 1 << 16
)

// OverwriteType is the subject type of a permission overwrite.
type OverwriteType int

const (
	OverwriteRole OverwriteType = iota
	OverwriteMember
)

// PermissionOverwrite grants or denies permissions on a created channel.
type PermissionOverwrite struct {
	// ID is the role or member the overwrite applies to.
	ID string

	// Type is whether ID names a role or a member.
	Type OverwriteType

	Allow int64
	Deny  int64
}

// Member is the platform actor invoking an operation. Roles and Permissions
// are a point-in-time snapshot; they must be fetched fresh for every
// authorization check, not cached from ticket creation.
type Member struct {
	// UserID is the member's user ID.
	UserID string

	// Username is the member's handle, used in surface naming.
	Username string

	// Roles are the member's role IDs.
	Roles []string

	// Permissions are the member's resolved permission bits.
	Permissions int64
}

// Invocation captures where an operation was triggered from.
type Invocation struct {
	// GuildID is the guild the invocation happened in.
	GuildID string

	// ChannelID is the channel the invocation happened in.
	ChannelID string

	// ChannelKind classifies the invoking channel's provisioning capability.
	ChannelKind ChannelKind
}

// Gateway is the abstract platform gateway. The lifecycle core never talks to
// the chat platform directly; event delivery and client mechanics live behind
// this interface.
type Gateway interface {
	// CreateForumPost creates a post in a forum channel and returns the post
	// ID. The post is the conversation surface.
	CreateForumPost(ctx context.Context, channelID, name, content string) (string, error)

	// CreatePrivateThread creates a private, non-discoverable thread under
	// the given text channel and returns the thread ID.
	CreatePrivateThread(ctx context.Context, channelID, name string) (string, error)

	// CreateChannel creates a top-level channel with the given permission
	// overwrites and returns the channel ID. parentID may be empty.
	CreateChannel(ctx context.Context, guildID, name, parentID string, overwrites []PermissionOverwrite) (string, error)

	// AddParticipant adds a user to a thread surface.
	AddParticipant(ctx context.Context, surfaceID, userID string) error

	// SendMessage posts a message into a surface.
	SendMessage(ctx context.Context, surfaceID, content string) error

	// ResolveSurface reports whether the surface still exists on the
	// platform.
	ResolveSurface(ctx context.Context, surfaceID string) (bool, error)

	// SetArchived archives a thread or forum post surface.
	SetArchived(ctx context.Context, surfaceID string) error

	// DeleteChannel deletes a dedicated channel surface.
	DeleteChannel(ctx context.Context, surfaceID string) error
}
