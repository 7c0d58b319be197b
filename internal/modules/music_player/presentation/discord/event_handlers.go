package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
)

// disconnectHandler is notified when the bot leaves voice.
type disconnectHandler interface {
	HandleBotDisconnected(guildID, botID snowflake.ID)
}

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID  snowflake.ID
	player disconnectHandler
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(botID snowflake.ID, player disconnectHandler) *EventHandlers {
	return &EventHandlers{
		botID:  botID,
		player: player,
	}
}

// HandleVoiceStateUpdate stops the guild's session when the bot was
// disconnected from voice by someone else.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if event.VoiceState == nil || event.UserID != h.botID.String() || event.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		zlog.Error().Err(err).Str("guild", event.GuildID).Msg("Failed to parse guild ID in voice state update")
		return
	}

	h.player.HandleBotDisconnected(guildID, h.botID)
}
