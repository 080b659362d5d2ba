package ticketing

import "errors"

var (
	// ErrInvalidCategory is returned when a create names a category outside
	// the fixed set. Not retryable.
	ErrInvalidCategory = errors.New("invalid ticket category")

	// ErrDuplicateOpenTicket is returned when the creator already has a
	// non-closed ticket whose surface is still reachable.
	ErrDuplicateOpenTicket = errors.New("user already has an open ticket")

	// ErrTicketNotFound is returned when no ticket matches the surface or ID.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrAlreadyClaimed is returned when the ticket is already claimed.
	ErrAlreadyClaimed = errors.New("ticket already claimed")

	// ErrAlreadyClosed is returned when the ticket has already reached its
	// terminal state. Closing is idempotent; callers treat this as a no-op
	// denial, not a retryable failure.
	ErrAlreadyClosed = errors.New("ticket already closed")

	// ErrForbidden is returned when the actor is not authorized for the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidPatch is returned when an administrative patch carries an
	// unknown enum value or would regress a closed ticket.
	ErrInvalidPatch = errors.New("invalid ticket patch")
)
