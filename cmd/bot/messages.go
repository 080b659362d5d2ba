package main

import (
	"context"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/ticketing"
)

// messageHandler records every non-bot message sent in a ticket surface.
// Messages in channels with no bound ticket are ignored by the manager, so
// this handler fires on all guild messages without pre-filtering.
func messageHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		member := &ticketing.Member{
			UserID:   m.Author.ID,
			Username: m.Author.Username,
		}
		if m.Member != nil {
			member.Roles = m.Member.Roles
		}

		// Resolved permissions are not carried on the message; fetch them so
		// the staff check sees the author's current state.
		perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			a.Log().Debug("Error resolving author permissions",
				slog.String(logging.KeyUser, m.Author.ID),
				slog.String(logging.KeyError, err.Error()))
		} else {
			member.Permissions = perms
		}

		attachments := make([]entities.Attachment, 0, len(m.Attachments))
		for _, att := range m.Attachments {
			attachments = append(attachments, entities.Attachment{
				URL:  att.URL,
				Name: att.Filename,
			})
		}

		msg := &ticketing.InboundMessage{
			Content:     m.Content,
			Author:      member,
			Attachments: attachments,
		}

		if err := a.Manager().OnMessage(context.Background(), m.ChannelID, msg); err != nil {
			a.Log().Error("Error recording ticket message",
				slog.String(logging.KeySurface, m.ChannelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}
}
