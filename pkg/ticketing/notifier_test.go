package ticketing

import (
	"context"
	"testing"

	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestNotifier(t *testing.T) {
	setup := func(cfg *Config) (*fakeGateway, *Dispatcher) {
		gw := newFakeGateway()
		n := NewNotifier(testLogger(), cfg, gw)
		d := NewDispatcher(testLogger(), 8)
		n.Register(d)
		go d.Run()
		return gw, d
	}

	ticket := &entities.Ticket{
		TicketID:  "00001",
		UserID:    "user-1",
		SurfaceID: "thread-1",
		Type:      string(CategorySupport),
	}

	t.Run("created posts a welcome and a log line", func(t *testing.T) {
		gw, d := setup(testConfig())

		d.Publish(Event{Type: EventTicketCreated, Ticket: ticket, ActorID: "user-1"})
		d.Close()

		require.Len(t, gw.sent, 2)
		require.Equal(t, "thread-1", gw.sent[0].surfaceID)
		require.Contains(t, gw.sent[0].content, "<@user-1>")
		require.Contains(t, gw.sent[0].content, "**Ticket ID:** 00001")
		require.Equal(t, "log-1", gw.sent[1].surfaceID)
		require.Contains(t, gw.sent[1].content, "`00001`")
	})

	t.Run("claimed announces the claimer in the surface", func(t *testing.T) {
		gw, d := setup(testConfig())

		d.Publish(Event{Type: EventTicketClaimed, Ticket: ticket, ActorID: "staff-1"})
		d.Close()

		require.Len(t, gw.sent, 2)
		require.Equal(t, "thread-1", gw.sent[0].surfaceID)
		require.Contains(t, gw.sent[0].content, "<@staff-1>")
	})

	t.Run("closed only logs", func(t *testing.T) {
		gw, d := setup(testConfig())

		d.Publish(Event{Type: EventTicketClosed, Ticket: ticket, ActorID: "staff-1"})
		d.Close()

		require.Len(t, gw.sent, 1)
		require.Equal(t, "log-1", gw.sent[0].surfaceID)
	})

	t.Run("no log channel configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.LogChannelID = ""
		gw, d := setup(cfg)

		d.Publish(Event{Type: EventTicketClosed, Ticket: ticket, ActorID: "staff-1"})
		d.Close()

		require.Empty(t, gw.sent)
	})

	t.Run("send failures are swallowed", func(t *testing.T) {
		gw, d := setup(testConfig())
		gw.sendErr = context.DeadlineExceeded

		d.Publish(Event{Type: EventTicketCreated, Ticket: ticket, ActorID: "user-1"})
		d.Close()

		require.Empty(t, gw.sent)
	})
}
