package entities

// SurfaceKind is the closed set of conversation surface types a ticket can be
// bound to. The provisioning strategy is selected on this tag rather than by
// sniffing platform objects at call sites.
type SurfaceKind string

const (
	// SurfaceForumPost is a post in a forum-style channel; the post itself is
	// the surface.
	SurfaceForumPost SurfaceKind = "forum_post"

	// SurfaceThread is a private, non-discoverable thread under a text
	// channel.
	SurfaceThread SurfaceKind = "thread"

	// SurfaceChannel is a dedicated top-level private channel, used when the
	// invoking location has no threading capability.
	SurfaceChannel SurfaceKind = "channel"
)

// Surface is the platform-side conversation object bound to a ticket.
type Surface struct {
	// ID is the thread, post or channel ID.
	ID string `json:"id" bson:"id"`

	// ParentChannelID is the channel (or configured category) the surface
	// lives under.
	ParentChannelID string `json:"parent_channel_id" bson:"parent_channel_id"`

	// Kind records the provisioning strategy used.
	Kind SurfaceKind `json:"kind" bson:"kind"`
}
