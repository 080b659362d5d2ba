package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// memoryDal is an in-memory ticket store for api tests.
type memoryDal struct {
	tickets []*entities.Ticket
}

func (f *memoryDal) CreateTicket(_ context.Context, ticket *entities.Ticket) error {
	for _, t := range f.tickets {
		if t.TicketID == ticket.TicketID {
			return dataaccess.ErrDuplicateID
		}
	}
	cp := *ticket
	f.tickets = append(f.tickets, &cp)
	return nil
}

func (f *memoryDal) SaveTicket(_ context.Context, ticket *entities.Ticket) error {
	for i, t := range f.tickets {
		if t.TicketID == ticket.TicketID {
			cp := *ticket
			cp.Messages = t.Messages
			f.tickets[i] = &cp
			return nil
		}
	}
	return dataaccess.ErrTicketNotFound
}

func (f *memoryDal) AppendMessage(_ context.Context, ticketID string, msg *entities.TicketMessage) error {
	for _, t := range f.tickets {
		if t.TicketID == ticketID {
			t.Messages = append(t.Messages, *msg)
			return nil
		}
	}
	return dataaccess.ErrTicketNotFound
}

func (f *memoryDal) FindOpenByUser(_ context.Context, userID, guildID string) (*entities.Ticket, error) {
	for _, t := range f.tickets {
		if t.UserID == userID && t.GuildID == guildID && !t.Closed() {
			return t, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *memoryDal) FindBySurface(_ context.Context, surfaceID string) (*entities.Ticket, error) {
	for i := len(f.tickets) - 1; i >= 0; i-- {
		if f.tickets[i].SurfaceID == surfaceID {
			return f.tickets[i], nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *memoryDal) FindByTicketID(_ context.Context, ticketID string) (*entities.Ticket, error) {
	for _, t := range f.tickets {
		if t.TicketID == ticketID {
			return t, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *memoryDal) CountAll(_ context.Context) (int64, error) {
	return int64(len(f.tickets)), nil
}

func (f *memoryDal) ListTickets(_ context.Context, filter *dataaccess.TicketFilter) ([]*entities.Ticket, error) {
	out := make([]*entities.Ticket, 0)
	for i := len(f.tickets) - 1; i >= 0; i-- {
		t := f.tickets[i]
		if filter != nil {
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.AssignedStaff != "" && t.AssignedStaff != filter.AssignedStaff {
				continue
			}
			if filter.Unassigned && (t.Status != entities.StatusOpen || t.AssignedStaff != "") {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *memoryDal) BulkClose(_ context.Context, closedBy, reason string) (int64, error) {
	var n int64
	for _, t := range f.tickets {
		if t.Closed() {
			continue
		}
		t.Status = entities.StatusClosed
		t.ClosedBy = closedBy
		t.CloseReason = reason
		n++
	}
	return n, nil
}

func (f *memoryDal) EnsureIndexes(_ context.Context) error { return nil }

// nullGateway satisfies the gateway for api tests; nothing here talks to the
// platform.
type nullGateway struct{}

func (nullGateway) CreateForumPost(context.Context, string, string, string) (string, error) {
	return "post-1", nil
}
func (nullGateway) CreatePrivateThread(context.Context, string, string) (string, error) {
	return "thread-1", nil
}
func (nullGateway) CreateChannel(context.Context, string, string, string, []ticketing.PermissionOverwrite) (string, error) {
	return "chan-1", nil
}
func (nullGateway) AddParticipant(context.Context, string, string) error  { return nil }
func (nullGateway) SendMessage(context.Context, string, string) error     { return nil }
func (nullGateway) ResolveSurface(context.Context, string) (bool, error)  { return true, nil }
func (nullGateway) SetArchived(context.Context, string) error             { return nil }
func (nullGateway) DeleteChannel(context.Context, string) error           { return nil }

type noopScheduler struct{}

func (noopScheduler) After(_ time.Duration, _ func()) {}

func newTestApp(t *testing.T) (*App, *memoryDal) {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &ticketing.Config{
		GuildID:       "guild-1",
		SupportRoleID: "role-support",
		BotUserID:     "bot-1",
	}

	dal := &memoryDal{}
	dispatcher := ticketing.NewDispatcher(l, 16)
	go dispatcher.Run()
	t.Cleanup(dispatcher.Close)

	gw := nullGateway{}
	prov := ticketing.NewProvisioner(l, cfg, gw)
	mgr := ticketing.NewManager(l, cfg, dal, gw, prov, dispatcher, noopScheduler{})

	a := &App{
		Logger:    l,
		r:         mux.NewRouter(),
		ticketCfg: cfg,
		dal:       dal,
		manager:   mgr,
	}
	a.setupApiRoutes()

	return a, dal
}

func seedTicket(t *testing.T, a *App, userID, username string) *entities.Ticket {
	t.Helper()

	ticket, err := a.Manager().Create(context.Background(), &ticketing.Member{UserID: userID, Username: username},
		ticketing.CategorySupport, ticketing.Invocation{GuildID: "guild-1", ChannelID: "chan-text", ChannelKind: ticketing.ChannelKindText})
	require.NoError(t, err)
	return ticket
}

func TestApi_ListTickets(t *testing.T) {
	a, _ := newTestApp(t)
	first := seedTicket(t, a, "user-1", "alice")
	second := seedTicket(t, a, "user-2", "ben")

	t.Run("all tickets newest first", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var got []*entities.Ticket
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Len(t, got, 2)
		require.Equal(t, second.TicketID, got[0].TicketID)
		require.Equal(t, first.TicketID, got[1].TicketID)
	})

	t.Run("status filter", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tickets?status=open", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var got []*entities.Ticket
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Len(t, got, 2)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tickets?status=bogus", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unassigned filter", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tickets?unassigned=true", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var got []*entities.Ticket
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Len(t, got, 2)
	})
}

func TestApi_GetTicket(t *testing.T) {
	a, _ := newTestApp(t)
	ticket := seedTicket(t, a, "user-1", "alice")

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tickets/"+ticket.TicketID, nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var got entities.Ticket
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Equal(t, ticket.TicketID, got.TicketID)
		require.Equal(t, entities.StatusOpen, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tickets/99999", nil))

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestApi_PatchTicket(t *testing.T) {
	t.Run("updates priority and assignment", func(t *testing.T) {
		a, _ := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		body, _ := json.Marshal(map[string]any{
			"priority":       "urgent",
			"assigned_staff": "staff-1",
		})

		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticket.TicketID, bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rr.Code)

		var got entities.Ticket
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Equal(t, entities.PriorityUrgent, got.Priority)
		require.Equal(t, "staff-1", got.AssignedStaff)
	})

	t.Run("closing records the actor", func(t *testing.T) {
		a, dal := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		body, _ := json.Marshal(map[string]any{
			"status":   "closed",
			"actor_id": "admin-1",
		})

		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticket.TicketID, bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rr.Code)

		stored, err := dal.FindByTicketID(context.Background(), ticket.TicketID)
		require.NoError(t, err)
		require.True(t, stored.Closed())
		require.Equal(t, "admin-1", stored.ClosedBy)
	})

	t.Run("regressing a closed ticket is a bad request", func(t *testing.T) {
		a, _ := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		closeBody, _ := json.Marshal(map[string]any{"status": "closed"})
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticket.TicketID, bytes.NewReader(closeBody)))
		require.Equal(t, http.StatusOK, rr.Code)

		reopenBody, _ := json.Marshal(map[string]any{"status": "open"})
		rr = httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticket.TicketID, bytes.NewReader(reopenBody)))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		a, _ := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticket.TicketID, bytes.NewReader([]byte("{"))))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestApi_PostTicketMessage(t *testing.T) {
	t.Run("appends a staff message", func(t *testing.T) {
		a, dal := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		body, _ := json.Marshal(map[string]any{
			"author_id":   "staff-1",
			"author_name": "bob",
			"content":     "looking into it",
		})

		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tickets/"+ticket.TicketID+"/message", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rr.Code)

		stored, err := dal.FindByTicketID(context.Background(), ticket.TicketID)
		require.NoError(t, err)
		require.Len(t, stored.Messages, 1)
		require.True(t, stored.Messages[0].IsStaff)
		require.Equal(t, "staff-1", stored.AssignedStaff)
	})

	t.Run("missing content is rejected", func(t *testing.T) {
		a, _ := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		body, _ := json.Marshal(map[string]any{"author_id": "staff-1"})

		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tickets/"+ticket.TicketID+"/message", bytes.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("closed tickets conflict", func(t *testing.T) {
		a, _ := newTestApp(t)
		ticket := seedTicket(t, a, "user-1", "alice")

		closeBody, _ := json.Marshal(map[string]any{"status": "closed"})
		rr := httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticket.TicketID, bytes.NewReader(closeBody)))
		require.Equal(t, http.StatusOK, rr.Code)

		body, _ := json.Marshal(map[string]any{"author_id": "staff-1", "content": "too late"})
		rr = httptest.NewRecorder()
		a.r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tickets/"+ticket.TicketID+"/message", bytes.NewReader(body)))
		require.Equal(t, http.StatusConflict, rr.Code)
	})
}
