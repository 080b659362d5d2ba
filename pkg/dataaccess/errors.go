package dataaccess

import "errors"

var (
	// ErrTicketNotFound is returned when no ticket matches the query.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrDuplicateID is returned when a create collides with an existing
	// ticket ID. The ID sequence is a best-effort count-plus-one, so two
	// concurrent creates can race to the same number; the unique index is the
	// backstop.
	ErrDuplicateID = errors.New("duplicate ticket id")

	// ErrStaleWrite is returned when a save loses an optimistic-lock race,
	// i.e. the record changed since it was loaded.
	ErrStaleWrite = errors.New("stale write")
)
