package discord

import (
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// messageClient is the part of *discordgo.Session the notifier uses.
type messageClient interface {
	ChannelMessageSendComplex(
		channelID string,
		data *discordgo.MessageSend,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	ChannelMessageEditComplex(
		m *discordgo.MessageEdit,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Notifier draws the now-playing message and posts channel notifications.
type Notifier struct {
	client messageClient
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{client: session}
}

// Render sends a "Now Playing" embed with the player controls.
func (n *Notifier) Render(
	ctx context.Context,
	channelID snowflake.ID,
	view ports.NowPlayingView,
) (*ports.MessageHandle, error) {
	msg, err := n.client.ChannelMessageSendComplex(
		channelID.String(),
		&discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{NowPlayingEmbed(view)},
			Components: Controls(view.Paused),
		},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return nil, classifyUIError(err)
	}

	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse message ID")
	}
	return &ports.MessageHandle{ChannelID: channelID, MessageID: messageID}, nil
}

// Update edits the embed and controls of an existing now-playing message.
func (n *Notifier) Update(ctx context.Context, handle ports.MessageHandle, view ports.NowPlayingView) error {
	components := Controls(view.Paused)
	edit := discordgo.NewMessageEdit(handle.ChannelID.String(), handle.MessageID.String()).
		SetEmbeds([]*discordgo.MessageEmbed{NowPlayingEmbed(view)})
	edit.Components = &components

	if _, err := n.client.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return classifyUIError(err)
	}
	return nil
}

// ReportError sends an error embed to the channel.
func (n *Notifier) ReportError(ctx context.Context, channelID snowflake.ID, message string) error {
	return n.send(ctx, channelID, ErrorEmbed(message))
}

// Announce sends a neutral embed to the channel.
func (n *Notifier) Announce(ctx context.Context, channelID snowflake.ID, message string) error {
	return n.send(ctx, channelID, NeutralEmbed(message))
}

func (n *Notifier) send(ctx context.Context, channelID snowflake.ID, embed *discordgo.MessageEmbed) error {
	_, err := n.client.ChannelMessageSendComplex(
		channelID.String(),
		&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return classifyUIError(err)
	}
	return nil
}

// classifyUIError marks a REST failure as gone, forbidden or transient.
func classifyUIError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return errors.Mark(err, domain.ErrUITransient)
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return errors.Mark(err, domain.ErrUIGone)
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return errors.Mark(err, domain.ErrUIPermissionDenied)
		}
	}

	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return errors.Mark(err, domain.ErrUIGone)
		case http.StatusForbidden:
			return errors.Mark(err, domain.ErrUIPermissionDenied)
		}
	}
	return errors.Mark(err, domain.ErrUITransient)
}

// Ensure Notifier implements ports.NowPlayingUI.
var _ ports.NowPlayingUI = (*Notifier)(nil)
