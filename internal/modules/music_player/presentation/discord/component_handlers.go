package discord

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/mtube/internal/bot"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/usecases"
)

// HandlePauseResume handles the pause/resume button.
func (h *CommandHandlers) HandlePauseResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runControl(i, r, func(ctx context.Context, inv invocation) error {
		_, err := h.player.TogglePause(ctx, inv.guildID)
		return err
	})
}

// HandleSkipButton handles the skip button.
func (h *CommandHandlers) HandleSkipButton(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runControl(i, r, func(ctx context.Context, inv invocation) error {
		_, err := h.player.Skip(ctx, usecases.SkipInput{GuildID: inv.guildID})
		return err
	})
}

// HandleQuitButton handles the quit button.
func (h *CommandHandlers) HandleQuitButton(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runControl(i, r, func(ctx context.Context, inv invocation) error {
		h.player.Stop(ctx, usecases.StopInput{GuildID: inv.guildID})
		return nil
	})
}

// HandleShowQueue handles the queue button. The queue is shown only to the
// user who pressed it.
func (h *CommandHandlers) HandleShowQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err)
	}

	embed, err := h.queueEmbed(context.Background(), inv)
	if err != nil {
		return respondError(r, err)
	}
	return respondEphemeral(r, embed)
}

// HandleAddQueueButton opens the add-to-queue modal.
func (h *CommandHandlers) HandleAddQueueButton(
	_ *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return respondModal(r, AddQueueModal())
}

// HandleAIPickButton opens the AI pick modal.
func (h *CommandHandlers) HandleAIPickButton(
	_ *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	if !h.suggestions.Enabled() {
		return respondError(r, usecases.ErrSuggestionsDisabled)
	}
	return respondModal(r, AIPickModal())
}

// HandleVibeButton opens the vibe modal.
func (h *CommandHandlers) HandleVibeButton(
	_ *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	if !h.suggestions.Enabled() {
		return respondError(r, usecases.ErrSuggestionsDisabled)
	}
	return respondModal(r, VibeModal())
}

// HandleAddQueueModal handles the add-to-queue modal submission.
func (h *CommandHandlers) HandleAddQueueModal(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	query := modalValue(i, inputQuery)
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.enqueue(ctx, r, inv, query)
	})
}

// HandleAIPickModal handles the AI pick modal submission.
func (h *CommandHandlers) HandleAIPickModal(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	prompt := modalValue(i, inputAIPrompt)
	return runDeferred(i, r, false, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.aiPick(ctx, inv, prompt)
	})
}

// HandleVibeModal handles the vibe modal submission. An unreadable count
// falls back to the default.
func (h *CommandHandlers) HandleVibeModal(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	prompt := modalValue(i, inputVibePrompt)
	count, _ := strconv.Atoi(strings.TrimSpace(modalValue(i, inputVibeCount)))
	return runDeferred(i, r, false, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.vibe(ctx, inv, prompt, count)
	})
}

// runControl performs a now playing button action and acknowledges the click
// without a reply. The session redraws the now playing message itself.
func runControl(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	action func(ctx context.Context, inv invocation) error,
) error {
	inv, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err)
	}

	if err := action(context.Background(), inv); err != nil {
		return respondError(r, err)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func respondModal(r bot.Responder, modal *discordgo.InteractionResponseData) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
}

// modalValue returns the value of the text input with customID. Submitted
// modals decode into pointer components; locally built ones hold values.
func modalValue(i *discordgo.InteractionCreate, customID string) string {
	for _, component := range i.ModalSubmitData().Components {
		var row []discordgo.MessageComponent
		switch c := component.(type) {
		case *discordgo.ActionsRow:
			row = c.Components
		case discordgo.ActionsRow:
			row = c.Components
		}

		for _, child := range row {
			switch input := child.(type) {
			case *discordgo.TextInput:
				if input.CustomID == customID {
					return input.Value
				}
			case discordgo.TextInput:
				if input.CustomID == customID {
					return input.Value
				}
			}
		}
	}
	return ""
}
