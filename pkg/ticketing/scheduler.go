package ticketing

import "time"

// Scheduler runs a function after a delay. Scheduled work is not persisted: a
// process restart between close and archival drops the archival step, which
// is acceptable because the ticket's logical state is already final.
type Scheduler interface {
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func())
}

// timerScheduler schedules with the runtime timer.
type timerScheduler struct{}

// NewScheduler creates the standard timer-backed scheduler.
func NewScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
