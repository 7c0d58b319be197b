package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/usecases"
)

const maxChoiceLength = 100

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	autocomplete *usecases.AutocompleteService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(autocomplete *usecases.AutocompleteService) *AutocompleteHandler {
	return &AutocompleteHandler{
		autocomplete: autocomplete,
	}
}

// HandleQuery suggests search results for the query option of /p and /a.
// Choosing one plays that exact URL.
func (h *AutocompleteHandler) HandleQuery(s *discordgo.Session, i *discordgo.InteractionCreate) {
	choices := h.queryChoices(context.Background(), focusedValue(i))

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		zlog.Debug().Err(err).Msg("Failed to send autocomplete choices")
	}
}

func (h *AutocompleteHandler) queryChoices(ctx context.Context, query string) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)

	output, err := h.autocomplete.SearchTracks(ctx, usecases.SearchTracksInput{Query: query})
	if err != nil {
		zlog.Debug().Err(err).Str("query", query).Msg("Autocomplete search failed")
		return choices
	}

	for _, candidate := range output.Candidates {
		if len(candidate.URL) > maxChoiceLength {
			continue // Discord rejects longer values
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate("🎵 "+candidate.Title, maxChoiceLength),
			Value: candidate.URL,
		})
	}
	return choices
}

func focusedValue(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			return opt.StringValue()
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
