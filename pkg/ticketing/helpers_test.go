package ticketing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/entities"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDal is an in-memory ITicketDal. Tickets are kept in insertion order so
// surface lookups can return the newest binding first, matching the real
// store's sort.
type fakeDal struct {
	mu      sync.Mutex
	tickets []*entities.Ticket

	createErr    error
	createErrPop bool // return createErr once, then succeed
	saveErr      error
	countErr     error
}

func newFakeDal() *fakeDal {
	return &fakeDal{}
}

func (f *fakeDal) CreateTicket(_ context.Context, ticket *entities.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		err := f.createErr
		if f.createErrPop {
			f.createErr = nil
		}
		return err
	}

	for _, t := range f.tickets {
		if t.TicketID == ticket.TicketID {
			return dataaccess.ErrDuplicateID
		}
	}

	cp := *ticket
	f.tickets = append(f.tickets, &cp)
	return nil
}

func (f *fakeDal) SaveTicket(_ context.Context, ticket *entities.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}

	for i, t := range f.tickets {
		if t.TicketID == ticket.TicketID {
			if t.Version != ticket.Version {
				return dataaccess.ErrStaleWrite
			}
			cp := *ticket
			// Lifecycle save only; the stored conversation log is owned by
			// AppendMessage, matching the real store.
			cp.Messages = t.Messages
			cp.Version++
			ticket.Version++
			f.tickets[i] = &cp
			return nil
		}
	}
	return dataaccess.ErrTicketNotFound
}

func (f *fakeDal) AppendMessage(_ context.Context, ticketID string, msg *entities.TicketMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.TicketID == ticketID {
			t.Messages = append(t.Messages, *msg)
			return nil
		}
	}
	return dataaccess.ErrTicketNotFound
}

func (f *fakeDal) FindOpenByUser(_ context.Context, userID, guildID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.UserID == userID && t.GuildID == guildID && !t.Closed() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeDal) FindBySurface(_ context.Context, surfaceID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Newest binding wins when a surface ID has been reused.
	for i := len(f.tickets) - 1; i >= 0; i-- {
		if f.tickets[i].SurfaceID == surfaceID {
			cp := *f.tickets[i]
			return &cp, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeDal) FindByTicketID(_ context.Context, ticketID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.TicketID == ticketID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeDal) CountAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.tickets)), nil
}

func (f *fakeDal) ListTickets(_ context.Context, filter *dataaccess.TicketFilter) ([]*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

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
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeDal) BulkClose(_ context.Context, closedBy, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

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

func (f *fakeDal) EnsureIndexes(_ context.Context) error {
	return nil
}

// stored returns the live stored ticket for assertions.
func (f *fakeDal) stored(ticketID string) *entities.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.TicketID == ticketID {
			return t
		}
	}
	return nil
}

type sentMessage struct {
	surfaceID string
	content   string
}

// fakeGateway records every call and returns canned results.
type fakeGateway struct {
	mu sync.Mutex

	forumPostErr error
	threadErr    error
	channelErr   error
	addErr       error
	sendErr      error
	resolveOK    bool
	resolveErr   error

	createdForumPosts []string
	createdThreads    []string
	createdChannels   []string
	channelOverwrites [][]PermissionOverwrite
	channelParents    []string
	addedParticipants []string
	sent              []sentMessage
	archived          []string
	deleted           []string

	nextID int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{resolveOK: true}
}

func (g *fakeGateway) id(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s%d", prefix, g.nextID)
}

func (g *fakeGateway) CreateForumPost(_ context.Context, _, name, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.forumPostErr != nil {
		return "", g.forumPostErr
	}
	g.createdForumPosts = append(g.createdForumPosts, name)
	return g.id("post-"), nil
}

func (g *fakeGateway) CreatePrivateThread(_ context.Context, _, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.threadErr != nil {
		return "", g.threadErr
	}
	g.createdThreads = append(g.createdThreads, name)
	return g.id("thread-"), nil
}

func (g *fakeGateway) CreateChannel(_ context.Context, _, name, parentID string, overwrites []PermissionOverwrite) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.channelErr != nil {
		return "", g.channelErr
	}
	g.createdChannels = append(g.createdChannels, name)
	g.channelParents = append(g.channelParents, parentID)
	g.channelOverwrites = append(g.channelOverwrites, overwrites)
	return g.id("chan-"), nil
}

func (g *fakeGateway) AddParticipant(_ context.Context, surfaceID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.addErr != nil {
		return g.addErr
	}
	g.addedParticipants = append(g.addedParticipants, surfaceID+":"+userID)
	return nil
}

func (g *fakeGateway) SendMessage(_ context.Context, surfaceID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, sentMessage{surfaceID: surfaceID, content: content})
	return nil
}

func (g *fakeGateway) ResolveSurface(_ context.Context, _ string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolveOK, g.resolveErr
}

func (g *fakeGateway) SetArchived(_ context.Context, surfaceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.archived = append(g.archived, surfaceID)
	return nil
}

func (g *fakeGateway) DeleteChannel(_ context.Context, surfaceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, surfaceID)
	return nil
}

// fakeScheduler captures scheduled work so tests can fire it synchronously.
type fakeScheduler struct {
	mu    sync.Mutex
	delay time.Duration
	fns   []func()
}

func (s *fakeScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	s.fns = append(s.fns, fn)
}

// fire runs all captured callbacks.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// eventRecorder subscribes to every event type and records what arrives.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) subscribeAll(d *Dispatcher) {
	for _, t := range []EventType{EventTicketCreated, EventTicketClaimed, EventTicketClosed, EventTicketAssigned} {
		d.Subscribe(t, func(_ context.Context, e Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
		})
	}
}

func (r *eventRecorder) recorded() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

type managerFixture struct {
	manager    *Manager
	dal        *fakeDal
	gw         *fakeGateway
	sched      *fakeScheduler
	dispatcher *Dispatcher
	events     *eventRecorder
}

func testConfig() *Config {
	return &Config{
		GuildID:          "guild-1",
		SupportRoleID:    "role-support",
		AdminRoleID:      "role-admin",
		ParentCategoryID: "cat-1",
		LogChannelID:     "log-1",
		BotUserID:        "bot-1",
		ArchiveDelay:     time.Second,
	}
}

func newManagerFixture(cfg *Config) *managerFixture {
	l := testLogger()
	dal := newFakeDal()
	gw := newFakeGateway()
	sched := &fakeScheduler{}
	dispatcher := NewDispatcher(l, 16)
	rec := &eventRecorder{}
	rec.subscribeAll(dispatcher)
	go dispatcher.Run()

	prov := NewProvisioner(l, cfg, gw)
	mgr := NewManager(l, cfg, dal, gw, prov, dispatcher, sched)

	return &managerFixture{
		manager:    mgr,
		dal:        dal,
		gw:         gw,
		sched:      sched,
		dispatcher: dispatcher,
		events:     rec,
	}
}

// drain stops the dispatcher, guaranteeing all published events have been
// handled before assertions run.
func (f *managerFixture) drain() {
	f.dispatcher.Close()
}

func textInvocation() Invocation {
	return Invocation{GuildID: "guild-1", ChannelID: "chan-text", ChannelKind: ChannelKindText}
}

func member(userID, username string, roles ...string) *Member {
	return &Member{UserID: userID, Username: username, Roles: roles}
}

func staffMember(userID, username string) *Member {
	return &Member{UserID: userID, Username: username, Roles: []string{"role-support"}}
}
