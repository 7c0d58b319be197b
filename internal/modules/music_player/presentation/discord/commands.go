package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/usecases"
)

// Slash command names.
const (
	CommandPlayNow = "p"
	CommandAdd     = "a"
	CommandQuit    = "q"
	CommandPause   = "st"
	CommandResume  = "res"
	CommandSkip    = "sk"
	CommandVolume  = "v"
	CommandList    = "ls"
	CommandAIPick  = "ai"
	CommandVibe    = "vibe"
)

// Option names.
const (
	optionQuery   = "query"
	optionPercent = "percent"
	optionPrompt  = "prompt"
	optionCount   = "count"
)

// Volume bounds in percent as entered by users.
const (
	minVolumePercent = 0
	maxVolumePercent = 200
)

// Commands returns all slash commands for the music player module. The AI
// commands are only offered when suggestions are enabled.
func Commands(withSuggestions bool) []*discordgo.ApplicationCommand {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        CommandPlayNow,
			Description: "Play a song immediately, replacing the current song but keeping the queue",
			Options:     []*discordgo.ApplicationCommandOption{queryOption()},
		},
		{
			Name:        CommandAdd,
			Description: "Add a song to the end of the queue without interrupting",
			Options:     []*discordgo.ApplicationCommandOption{queryOption()},
		},
		{
			Name:        CommandQuit,
			Description: "Kill the session and leave the voice channel",
		},
		{
			Name:        CommandPause,
			Description: "Pause the current song",
		},
		{
			Name:        CommandResume,
			Description: "Resume the paused song",
		},
		{
			Name:        CommandSkip,
			Description: "Skip the current song",
		},
		{
			Name:        CommandVolume,
			Description: "Set the volume (0 to 200%)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        optionPercent,
					Description: "Volume percent (0-200)",
					Required:    true,
					MinValue:    floatPtr(minVolumePercent),
					MaxValue:    maxVolumePercent,
				},
			},
		},
		{
			Name:        CommandList,
			Description: "List the current queue",
		},
	}

	if !withSuggestions {
		return commands
	}

	return append(commands,
		&discordgo.ApplicationCommand{
			Name:        CommandAIPick,
			Description: "Let the AI pick a song for a mood or vibe",
			Options:     []*discordgo.ApplicationCommandOption{promptOption()},
		},
		&discordgo.ApplicationCommand{
			Name:        CommandVibe,
			Description: "Let the AI queue several songs for a mood or vibe",
			Options: []*discordgo.ApplicationCommandOption{
				promptOption(),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        optionCount,
					Description: "Number of songs to queue (default 5, max 10)",
					Required:    false,
					MinValue:    floatPtr(1),
					MaxValue:    usecases.MaxSuggestionCount,
				},
			},
		},
	)
}

func queryOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         optionQuery,
		Description:  "Song name or URL",
		Required:     true,
		Autocomplete: true,
	}
}

func promptOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optionPrompt,
		Description: "Describe a mood, vibe, or activity",
		Required:    true,
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
