package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/messages"
	"golang.org/x/time/rate"
)

// Notifier posts lifecycle notices to the configured log surface and into the
// ticket's own surface. Every post is best effort: failures are logged and
// swallowed, never propagated to the operation that committed the state
// change.
type Notifier struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the fixed ticketing configuration.
	cfg *Config

	// gw is the platform gateway.
	gw Gateway

	// limiter caps outbound notification posts so a burst of lifecycle
	// events cannot hammer the platform API.
	limiter *rate.Limiter
}

// NewNotifier creates a new notification emitter.
func NewNotifier(l *slog.Logger, cfg *Config, gw Gateway) *Notifier {
	return &Notifier{
		l:       l,
		cfg:     cfg,
		gw:      gw,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Register subscribes the notifier to the dispatcher's lifecycle events.
func (n *Notifier) Register(d *Dispatcher) {
	d.Subscribe(EventTicketCreated, n.onCreated)
	d.Subscribe(EventTicketClaimed, n.onClaimed)
	d.Subscribe(EventTicketClosed, n.onClosed)
	d.Subscribe(EventTicketAssigned, n.onAssigned)
}

// send posts content into a surface, waiting on the rate limiter first.
func (n *Notifier) send(ctx context.Context, surfaceID, content string) {
	if err := n.limiter.Wait(ctx); err != nil {
		n.l.Error("Error waiting for notification rate limiter", slog.String(logging.KeyError, err.Error()))
		return
	}
	if err := n.gw.SendMessage(ctx, surfaceID, content); err != nil {
		n.l.Error("Error sending notification",
			slog.String(logging.KeySurface, surfaceID),
			slog.String(logging.KeyError, err.Error()))
	}
}

// log posts content to the configured log surface, if one is set.
func (n *Notifier) log(ctx context.Context, content string) {
	if n.cfg.LogChannelID == "" {
		return
	}
	n.send(ctx, n.cfg.LogChannelID, content)
}

func (n *Notifier) onCreated(ctx context.Context, e Event) {
	info := Category(e.Ticket.Type).Info()

	welcome := fmt.Sprintf(
		"%s Hello <@%s>, thank you for creating a ticket. A staff member will be with you shortly.\n**Ticket Type:** %s\n**Ticket ID:** %s",
		info.Emoji, e.Ticket.UserID, info.Label, e.Ticket.TicketID,
	)
	n.send(ctx, e.Ticket.SurfaceID, welcome)

	n.log(ctx, fmt.Sprintf("Ticket `%s` (%s) created by <@%s> in <#%s>",
		e.Ticket.TicketID, info.Label, e.Ticket.UserID, e.Ticket.SurfaceID))
}

func (n *Notifier) onClaimed(ctx context.Context, e Event) {
	n.send(ctx, e.Ticket.SurfaceID, fmt.Sprintf(messages.MsgTicketClaimed, e.ActorID))

	n.log(ctx, fmt.Sprintf("Ticket `%s` claimed by <@%s>", e.Ticket.TicketID, e.ActorID))
}

func (n *Notifier) onClosed(ctx context.Context, e Event) {
	n.log(ctx, fmt.Sprintf("Ticket `%s` closed by <@%s>", e.Ticket.TicketID, e.ActorID))
}

func (n *Notifier) onAssigned(ctx context.Context, e Event) {
	n.send(ctx, e.Ticket.SurfaceID, fmt.Sprintf(messages.MsgAutoAssigned, e.ActorID))
}
