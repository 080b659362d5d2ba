package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/lynx/pkg/ticketing"
)

// threadAutoArchiveMinutes is the platform auto-archive window for ticket
// threads (one day).
const threadAutoArchiveMinutes = 1440

// discordGateway adapts the discord session to the ticketing gateway. All
// platform mechanics (thread starts, permission overwrites, archival) live
// here; the lifecycle core stays platform-free.
type discordGateway struct {
	s *discordgo.Session
}

func newDiscordGateway(s *discordgo.Session) *discordGateway {
	return &discordGateway{s: s}
}

func (g *discordGateway) CreateForumPost(_ context.Context, channelID, name, content string) (string, error) {
	ch, err := g.s.ForumThreadStart(channelID, name, threadAutoArchiveMinutes, content)
	if err != nil {
		return "", fmt.Errorf("error starting forum thread: %w", err)
	}
	return ch.ID, nil
}

func (g *discordGateway) CreatePrivateThread(_ context.Context, channelID, name string) (string, error) {
	ch, err := g.s.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		Invitable:           false,
	})
	if err != nil {
		return "", fmt.Errorf("error starting thread: %w", err)
	}
	return ch.ID, nil
}

func (g *discordGateway) CreateChannel(_ context.Context, guildID, name, parentID string, overwrites []ticketing.PermissionOverwrite) (string, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwritesToDiscord(overwrites),
	}

	ch, err := g.s.GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return "", fmt.Errorf("error creating channel: %w", err)
	}
	return ch.ID, nil
}

func (g *discordGateway) AddParticipant(_ context.Context, surfaceID, userID string) error {
	if err := g.s.ThreadMemberAdd(surfaceID, userID); err != nil {
		return fmt.Errorf("error adding thread member: %w", err)
	}
	return nil
}

func (g *discordGateway) SendMessage(_ context.Context, surfaceID, content string) error {
	if _, err := g.s.ChannelMessageSend(surfaceID, content); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

func (g *discordGateway) ResolveSurface(_ context.Context, surfaceID string) (bool, error) {
	_, err := g.s.Channel(surfaceID)
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("error resolving channel: %w", err)
	}
	return true, nil
}

func (g *discordGateway) SetArchived(_ context.Context, surfaceID string) error {
	archived := true
	if _, err := g.s.ChannelEditComplex(surfaceID, &discordgo.ChannelEdit{
		Archived: &archived,
	}); err != nil {
		return fmt.Errorf("error archiving channel: %w", err)
	}
	return nil
}

func (g *discordGateway) DeleteChannel(_ context.Context, surfaceID string) error {
	if _, err := g.s.ChannelDelete(surfaceID); err != nil {
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func overwritesToDiscord(overwrites []ticketing.PermissionOverwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(overwrites))
	for _, o := range overwrites {
		t := discordgo.PermissionOverwriteTypeRole
		if o.Type == ticketing.OverwriteMember {
			t = discordgo.PermissionOverwriteTypeMember
		}
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    o.ID,
			Type:  t,
			Allow: o.Allow,
			Deny:  o.Deny,
		})
	}
	return out
}

// memberFromInteraction builds the lifecycle view of the invoking member.
// Roles and permissions come straight off the interaction, so staff checks
// always see the member's current state.
func memberFromInteraction(i *discordgo.InteractionCreate) *ticketing.Member {
	if i.Member == nil || i.Member.User == nil {
		return nil
	}
	return &ticketing.Member{
		UserID:      i.Member.User.ID,
		Username:    i.Member.User.Username,
		Roles:       i.Member.Roles,
		Permissions: i.Member.Permissions,
	}
}

// invocationFromInteraction classifies the invoking channel so the
// provisioner can pick a surface strategy.
func invocationFromInteraction(a IApp, i *discordgo.InteractionCreate) (ticketing.Invocation, error) {
	inv := ticketing.Invocation{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}

	ch, err := a.Session().Channel(i.ChannelID)
	if err != nil {
		return inv, fmt.Errorf("error getting invoking channel: %w", err)
	}

	switch ch.Type {
	case discordgo.ChannelTypeGuildForum:
		inv.ChannelKind = ticketing.ChannelKindForum
	case discordgo.ChannelTypeGuildText:
		inv.ChannelKind = ticketing.ChannelKindText
	default:
		inv.ChannelKind = ticketing.ChannelKindOther
	}
	return inv, nil
}
