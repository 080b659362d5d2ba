package ticketing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/messages"
)

// Provisioner creates exactly one conversation surface per ticket and grants
// the creator and the support role access to it.
type Provisioner struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the fixed ticketing configuration.
	cfg *Config

	// gw is the platform gateway.
	gw Gateway
}

// NewProvisioner creates a new surface provisioner.
func NewProvisioner(l *slog.Logger, cfg *Config, gw Gateway) *Provisioner {
	return &Provisioner{
		l:   l,
		cfg: cfg,
		gw:  gw,
	}
}

// Provision creates the surface for a new ticket. Strategy, in priority
// order: a forum post when invoked from a forum channel, a private thread
// when the location supports threads, otherwise a dedicated private channel
// under the configured category.
//
// Any surface-creation failure aborts the whole ticket creation; no ticket
// record may be persisted without a bound surface.
func (p *Provisioner) Provision(ctx context.Context, category Category, creator *Member, ticketID string, inv Invocation) (*entities.Surface, error) {
	switch inv.ChannelKind {
	case ChannelKindForum:
		return p.provisionForumPost(ctx, category, creator, inv)
	case ChannelKindText:
		return p.provisionThread(ctx, category, creator, inv)
	default:
		return p.provisionChannel(ctx, creator, ticketID, inv)
	}
}

// threadName builds the deterministic thread/post name from the category
// label and the creator's handle.
func threadName(category Category, creator *Member) string {
	return fmt.Sprintf("%s-%s", category.Info().Label, creator.Username)
}

func (p *Provisioner) provisionForumPost(ctx context.Context, category Category, creator *Member, inv Invocation) (*entities.Surface, error) {
	content := fmt.Sprintf("Ticket created by <@%s>", creator.UserID)

	postID, err := p.gw.CreateForumPost(ctx, inv.ChannelID, threadName(category, creator), content)
	if err != nil {
		return nil, fmt.Errorf("error creating forum post: %w", err)
	}

	return &entities.Surface{
		ID:              postID,
		ParentChannelID: inv.ChannelID,
		Kind:            entities.SurfaceForumPost,
	}, nil
}

func (p *Provisioner) provisionThread(ctx context.Context, category Category, creator *Member, inv Invocation) (*entities.Surface, error) {
	threadID, err := p.gw.CreatePrivateThread(ctx, inv.ChannelID, threadName(category, creator))
	if err != nil {
		return nil, fmt.Errorf("error creating thread: %w", err)
	}

	// Private threads are not discoverable; the creator has to be added
	// explicitly.
	if err := p.gw.AddParticipant(ctx, threadID, creator.UserID); err != nil {
		return nil, fmt.Errorf("error adding creator to thread: %w", err)
	}

	// Notify the support role inside the thread. Best effort: a failed
	// notification must not fail provisioning.
	if p.cfg.SupportRoleID != "" {
		if err := p.gw.SendMessage(ctx, threadID, fmt.Sprintf(messages.MsgSupportNotify, p.cfg.SupportRoleID)); err != nil {
			p.l.Error("Error notifying support role in thread",
				slog.String(logging.KeySurface, threadID),
				slog.String(logging.KeyError, err.Error()))
		}
	}

	return &entities.Surface{
		ID:              threadID,
		ParentChannelID: inv.ChannelID,
		Kind:            entities.SurfaceThread,
	}, nil
}

func (p *Provisioner) provisionChannel(ctx context.Context, creator *Member, ticketID string, inv Invocation) (*entities.Surface, error) {
	ticket := entities.Ticket{TicketID: ticketID}

	allowText := PermissionViewChannel | PermissionSendMessages | PermissionReadMessageHistory

	overwrites := []PermissionOverwrite{
		// Deny the general membership from seeing the ticket.
		{
			ID:   inv.GuildID,
			Type: OverwriteRole,
			Deny: PermissionViewChannel,
		},
		// The creator of the ticket can see the ticket.
		{
			ID:    creator.UserID,
			Type:  OverwriteMember,
			Allow: allowText,
		},
		// The bot itself needs access to post into the ticket.
		{
			ID:    p.cfg.BotUserID,
			Type:  OverwriteMember,
			Allow: allowText,
		},
	}
	if p.cfg.SupportRoleID != "" {
		overwrites = append(overwrites, PermissionOverwrite{
			ID:    p.cfg.SupportRoleID,
			Type:  OverwriteRole,
			Allow: allowText,
		})
	}

	channelID, err := p.gw.CreateChannel(ctx, inv.GuildID, ticket.Name(), p.cfg.ParentCategoryID, overwrites)
	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}

	return &entities.Surface{
		ID:              channelID,
		ParentChannelID: p.cfg.ParentCategoryID,
		Kind:            entities.SurfaceChannel,
	}, nil
}
