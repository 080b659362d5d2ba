package messages

// User-visible strings. Rejections are short and specific; transient platform
// or store failures always map to ErrUserErrorProcessing so that a permission
// denial is never mistaken for an outage.
const (
	// ErrUserErrorProcessing is the generic "try again later" message.
	ErrUserErrorProcessing = "There was an error processing your request. Please try again later."

	// ErrInvalidCategory is sent when a ticket button carries an unknown category.
	ErrInvalidCategory = "Invalid ticket type. Please try again."

	// ErrNotTicketSurface is sent when a claim/close happens outside a ticket.
	ErrNotTicketSurface = "This doesn't appear to be a valid ticket channel."

	// ErrOnlyStaffClaim is sent when a non-staff member tries to claim.
	ErrOnlyStaffClaim = "Only support staff can claim tickets."

	// ErrClaimOwnTicket is sent when a creator tries to claim their own ticket.
	ErrClaimOwnTicket = "You cannot claim a ticket you created."

	// ErrNoPermissionClose is sent when the actor may not close the ticket.
	ErrNoPermissionClose = "You don't have permission to close this ticket."

	// ErrTicketAlreadyClosed is sent when closing an already closed ticket.
	ErrTicketAlreadyClosed = "This ticket is already closed."
)

// Format strings for messages that reference a user or surface.
const (
	// MsgAlreadyOpenTicket takes the existing surface ID.
	MsgAlreadyOpenTicket = "You already have an open ticket! Please use <#%s> instead."

	// MsgTicketCreated takes the new surface ID.
	MsgTicketCreated = "Your ticket has been created! Please check <#%s>."

	// MsgTicketAlreadyClaimed takes the claiming user's ID.
	MsgTicketAlreadyClaimed = "This ticket has already been claimed by <@%s>."

	// MsgTicketClaimed takes the claiming user's ID.
	MsgTicketClaimed = "This ticket has been claimed by <@%s>."

	// MsgTicketClosed takes the archival grace delay in seconds.
	MsgTicketClosed = "Ticket closed! This channel will be archived in %d seconds."

	// MsgAutoAssigned is sent in-surface when the first staff reply lands.
	MsgAutoAssigned = "**Note:** This ticket has been automatically assigned to <@%s> as the first staff member to respond."

	// MsgSupportNotify takes the support role ID.
	MsgSupportNotify = "<@&%s> A new ticket has been created."
)
