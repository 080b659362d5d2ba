package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/lynx/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/messages"
	"github.com/Jacobbrewer1/lynx/pkg/ticketing"
)

const (
	// OpenTicketButtonPrefix prefixes the panel buttons; the ticket category
	// follows the prefix.
	OpenTicketButtonPrefix = "open_ticket_"

	// ClaimTicketButtonID is the ID for the claim ticket button.
	ClaimTicketButtonID = "claim_ticket_button"

	// CloseTicketButtonID is the ID for the close ticket button.
	CloseTicketButtonID = "close_ticket_button"
)

const (
	// ClaimEmoji is the emoji for the claim button. (Ticket)
	ClaimEmoji = "\U0001F3AB"

	// CloseEmoji is the emoji for the close button. (Padlock)
	CloseEmoji = "\U0001F510"
)

// PanelCmdName is the command that posts the ticket panel.
const PanelCmdName = "ticketpanel"

// panelCmd posts the ticket panel into the invoking channel. Restricted to
// members who can manage the guild.
var panelCmd = &discordgo.ApplicationCommand{
	Name:        PanelCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Posts the ticket panel with one button per ticket category.",
}

// panelMessage builds the ticket panel: one button per category, in display
// order, carrying the category in the button's custom ID.
func panelMessage() *discordgo.MessageSend {
	components := make([]discordgo.MessageComponent, 0, len(ticketing.CategoryOrder))
	for _, c := range ticketing.CategoryOrder {
		info := c.Info()
		components = append(components, discordgo.Button{
			Label:    fmt.Sprintf("%s %s", info.Emoji, info.Label),
			Style:    discordgo.PrimaryButton,
			CustomID: OpenTicketButtonPrefix + string(c),
		})
	}

	return &discordgo.MessageSend{
		Content: "**Need help?** Select the type of ticket you would like to open.",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: components,
			},
		},
	}
}

// ticketButtons is the claim/close row posted into a fresh ticket surface.
func ticketButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    fmt.Sprintf("%s Claim", ClaimEmoji),
					Style:    discordgo.PrimaryButton,
					CustomID: ClaimTicketButtonID,
				},
				discordgo.Button{
					Label:    fmt.Sprintf("%s Close", CloseEmoji),
					Style:    discordgo.SecondaryButton,
					CustomID: CloseTicketButtonID,
				},
			},
		},
	}
}

func panelCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	member := memberFromInteraction(i)
	if member == nil || member.Permissions&ticketing.PermissionManageGuild == 0 {
		return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
	}

	if _, err := a.Session().ChannelMessageSendComplex(i.ChannelID, panelMessage()); err != nil {
		return fmt.Errorf("error posting ticket panel: %w", err)
	}

	return respondEphemeral(a, i, "Ticket panel posted.")
}

func createTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	member := memberFromInteraction(i)
	if member == nil {
		return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
	}

	category := ticketing.Category(i.MessageComponentData().CustomID[len(OpenTicketButtonPrefix):])

	inv, err := invocationFromInteraction(a, i)
	if err != nil {
		return err
	}

	ticket, err := a.Manager().Create(context.Background(), member, category, inv)
	switch {
	case errors.Is(err, ticketing.ErrInvalidCategory):
		return respondEphemeral(a, i, messages.ErrInvalidCategory)
	case errors.Is(err, ticketing.ErrDuplicateOpenTicket):
		return respondEphemeral(a, i, fmt.Sprintf(messages.MsgAlreadyOpenTicket, ticket.SurfaceID))
	case err != nil:
		return fmt.Errorf("error creating ticket: %w", err)
	}

	monitoring.TotalTicketsCreated.WithLabelValues(ticket.Type).Inc()

	// Post the claim/close controls into the fresh surface. Best effort; the
	// ticket is already live.
	if _, err := a.Session().ChannelMessageSendComplex(ticket.SurfaceID, &discordgo.MessageSend{
		Content:    "Please provide any additional info you deem relevant to help us answer faster.",
		Components: ticketButtons(),
	}); err != nil {
		a.Log().Error("Error posting ticket controls",
			slog.String(logging.KeyTicket, ticket.TicketID),
			slog.String(logging.KeyError, err.Error()))
	}

	return respondEphemeral(a, i, fmt.Sprintf(messages.MsgTicketCreated, ticket.SurfaceID))
}

func claimTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	member := memberFromInteraction(i)
	if member == nil {
		return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
	}

	ticket, err := a.Manager().Claim(context.Background(), member, i.ChannelID)
	switch {
	case errors.Is(err, ticketing.ErrTicketNotFound):
		return respondEphemeral(a, i, messages.ErrNotTicketSurface)
	case errors.Is(err, ticketing.ErrAlreadyClosed):
		return respondEphemeral(a, i, messages.ErrTicketAlreadyClosed)
	case errors.Is(err, ticketing.ErrAlreadyClaimed):
		return respondEphemeral(a, i, fmt.Sprintf(messages.MsgTicketAlreadyClaimed, ticket.ClaimedBy))
	case errors.Is(err, ticketing.ErrForbidden):
		if ticket != nil && member.UserID == ticket.UserID {
			return respondEphemeral(a, i, messages.ErrClaimOwnTicket)
		}
		return respondEphemeral(a, i, messages.ErrOnlyStaffClaim)
	case err != nil:
		return fmt.Errorf("error claiming ticket: %w", err)
	}

	monitoring.TotalTicketsClaimed.Inc()

	return respondEphemeral(a, i, fmt.Sprintf(messages.MsgTicketClaimed, member.UserID))
}

func closeTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	member := memberFromInteraction(i)
	if member == nil {
		return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
	}

	ticket, err := a.Manager().Close(context.Background(), member, i.ChannelID)
	switch {
	case errors.Is(err, ticketing.ErrTicketNotFound):
		return respondEphemeral(a, i, messages.ErrNotTicketSurface)
	case errors.Is(err, ticketing.ErrAlreadyClosed):
		return respondEphemeral(a, i, messages.ErrTicketAlreadyClosed)
	case errors.Is(err, ticketing.ErrForbidden):
		return respondEphemeral(a, i, messages.ErrNoPermissionClose)
	case err != nil:
		return fmt.Errorf("error closing ticket: %w", err)
	}

	monitoring.TotalTicketsClosed.Inc()

	delay := int(a.TicketConfig().ArchiveDelay.Seconds())
	if delay <= 0 {
		delay = int(ticketing.DefaultArchiveDelay.Seconds())
	}

	if _, err := a.Session().ChannelMessageSend(ticket.SurfaceID, fmt.Sprintf(messages.MsgTicketClosed, delay)); err != nil {
		a.Log().Error("Error announcing ticket close",
			slog.String(logging.KeyTicket, ticket.TicketID),
			slog.String(logging.KeyError, err.Error()))
	}

	return respondEphemeral(a, i, fmt.Sprintf(messages.MsgTicketClosed, delay))
}
