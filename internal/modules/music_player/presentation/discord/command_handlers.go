package discord

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/bot"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// errNotInGuild is returned for interactions outside a server.
var errNotInGuild = errors.New("this only works in a server")

// playerService is the part of usecases.PlayerService the handlers drive.
type playerService interface {
	Enqueue(ctx context.Context, input usecases.PlayInput) (*usecases.EnqueueOutput, error)
	PlayNow(ctx context.Context, input usecases.PlayInput) (*usecases.PlayNowOutput, error)
	Pause(ctx context.Context, input usecases.PauseInput) error
	Resume(ctx context.Context, input usecases.ResumeInput) error
	TogglePause(ctx context.Context, guildID snowflake.ID) (bool, error)
	Skip(ctx context.Context, input usecases.SkipInput) (*usecases.SkipOutput, error)
	SetVolume(ctx context.Context, input usecases.SetVolumeInput) (*usecases.SetVolumeOutput, error)
	Stop(ctx context.Context, input usecases.StopInput) *usecases.StopOutput
	List(ctx context.Context, input usecases.ListInput) (*usecases.ListOutput, error)
}

// suggestionService is the part of usecases.SuggestionService the handlers drive.
type suggestionService interface {
	Enabled() bool
	SuggestOne(ctx context.Context, input usecases.SuggestInput) (*usecases.SuggestOutput, error)
	SuggestMany(ctx context.Context, input usecases.SuggestManyInput) (*usecases.SuggestManyOutput, error)
}

// CommandHandlers holds the slash command, button, and modal handlers.
type CommandHandlers struct {
	player      playerService
	suggestions suggestionService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	player *usecases.PlayerService,
	suggestions *usecases.SuggestionService,
) *CommandHandlers {
	return &CommandHandlers{
		player:      player,
		suggestions: suggestions,
	}
}

// invocation identifies who triggered an interaction and where.
type invocation struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func (inv invocation) requester() string {
	return fmt.Sprintf("<@%d>", inv.userID)
}

func (inv invocation) playInput(query string) usecases.PlayInput {
	return usecases.PlayInput{
		GuildID:               inv.guildID,
		UserID:                inv.userID,
		NotificationChannelID: inv.channelID,
		Query:                 query,
		Requester:             inv.requester(),
	}
}

func parseInvocation(i *discordgo.InteractionCreate) (invocation, error) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return invocation{}, errNotInGuild
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return invocation{}, errors.Wrap(err, "parse guild ID")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return invocation{}, errors.Wrap(err, "parse user ID")
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return invocation{}, errors.Wrap(err, "parse channel ID")
	}

	return invocation{guildID: guildID, userID: userID, channelID: channelID}, nil
}

// HandlePlayNow handles the /p command.
func (h *CommandHandlers) HandlePlayNow(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	query := stringOption(i, optionQuery)
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.playNow(ctx, inv, query)
	})
}

// HandleAdd handles the /a command.
func (h *CommandHandlers) HandleAdd(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	query := stringOption(i, optionQuery)
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.enqueue(ctx, r, inv, query)
	})
}

// HandleQuit handles the /q command.
func (h *CommandHandlers) HandleQuit(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		output := h.player.Stop(ctx, usecases.StopInput{GuildID: inv.guildID})
		if !output.Stopped {
			return NeutralEmbed("Nothing is playing."), nil
		}
		return NeutralEmbed("👋 Left the voice channel."), nil
	})
}

// HandlePause handles the /st command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		if err := h.player.Pause(ctx, usecases.PauseInput{GuildID: inv.guildID}); err != nil {
			return nil, err
		}
		return NeutralEmbed("⏸️ Paused."), nil
	})
}

// HandleResume handles the /res command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		if err := h.player.Resume(ctx, usecases.ResumeInput{GuildID: inv.guildID}); err != nil {
			return nil, err
		}
		return NeutralEmbed("▶️ Resumed."), nil
	})
}

// HandleSkip handles the /sk command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		output, err := h.player.Skip(ctx, usecases.SkipInput{GuildID: inv.guildID})
		if err != nil {
			return nil, err
		}
		return NeutralEmbed(fmt.Sprintf("⏭️ Skipped **%s**.", output.Skipped.Title)), nil
	})
}

// HandleVolume handles the /v command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	percent := min(max(intOption(i, optionPercent), minVolumePercent), maxVolumePercent)
	return runDeferred(i, r, true, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		output, err := h.player.SetVolume(ctx, usecases.SetVolumeInput{
			GuildID: inv.guildID,
			Volume:  float64(percent) / 100,
		})
		if err != nil {
			return nil, err
		}
		return NeutralEmbed(fmt.Sprintf("🔊 Volume set to **%d%%**.", volumePercent(output.Volume))), nil
	})
}

// HandleList handles the /ls command.
func (h *CommandHandlers) HandleList(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return runDeferred(i, r, false, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.queueEmbed(ctx, inv)
	})
}

// HandleAIPick handles the /ai command.
func (h *CommandHandlers) HandleAIPick(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	prompt := stringOption(i, optionPrompt)
	return runDeferred(i, r, false, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.aiPick(ctx, inv, prompt)
	})
}

// HandleVibe handles the /vibe command.
func (h *CommandHandlers) HandleVibe(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	prompt := stringOption(i, optionPrompt)
	count := intOption(i, optionCount)
	return runDeferred(i, r, false, func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
		return h.vibe(ctx, inv, prompt, count)
	})
}

// Shared actions. Commands and modals both end up here.

func (h *CommandHandlers) playNow(ctx context.Context, inv invocation, query string) (*discordgo.MessageEmbed, error) {
	output, err := h.player.PlayNow(ctx, inv.playInput(query))
	if err != nil {
		return nil, err
	}
	return NeutralEmbed(fmt.Sprintf("▶️ Playing **%s**…", output.Track.Title)), nil
}

// enqueue adds query to the queue. A track that has to wait is announced to
// the channel; one that starts right away is shown by the now playing message.
func (h *CommandHandlers) enqueue(
	ctx context.Context,
	r bot.Responder,
	inv invocation,
	query string,
) (*discordgo.MessageEmbed, error) {
	output, err := h.player.Enqueue(ctx, inv.playInput(query))
	if err != nil {
		return nil, err
	}

	if output.Started {
		return NeutralEmbed(fmt.Sprintf("▶️ Playing **%s**…", output.Track.Title)), nil
	}

	if err := r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{AddedEmbed(output.Track)},
	}); err != nil {
		zlog.Warn().Err(err).Str("guild", inv.guildID.String()).Msg("Failed to announce queued track")
	}
	return NeutralEmbed(fmt.Sprintf("✅ Added **%s** to the queue at position %d.", output.Track.Title, output.Position)), nil
}

func (h *CommandHandlers) queueEmbed(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error) {
	output, err := h.player.List(ctx, usecases.ListInput{GuildID: inv.guildID})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return NeutralEmbed("Queue is empty!"), nil
	}
	if err != nil {
		return nil, err
	}
	return QueueEmbed(output.Tracks), nil
}

func (h *CommandHandlers) aiPick(ctx context.Context, inv invocation, prompt string) (*discordgo.MessageEmbed, error) {
	suggestion, err := h.suggestions.SuggestOne(ctx, usecases.SuggestInput{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	if _, err := h.player.Enqueue(ctx, inv.playInput(suggestion.Query)); err != nil {
		return nil, err
	}
	return AIPickEmbed(prompt, suggestion.Query), nil
}

// vibe queues every suggestion in order. Queries that cannot be resolved are
// listed as failed; the voice requirement aborts the whole batch.
func (h *CommandHandlers) vibe(
	ctx context.Context,
	inv invocation,
	prompt string,
	count int,
) (*discordgo.MessageEmbed, error) {
	suggestions, err := h.suggestions.SuggestMany(ctx, usecases.SuggestManyInput{
		Prompt: prompt,
		Count:  count,
	})
	if err != nil {
		return nil, err
	}

	var (
		queued []domain.Track
		failed []string
	)
	for _, query := range suggestions.Queries {
		output, err := h.player.Enqueue(ctx, inv.playInput(query))
		if errors.Is(err, domain.ErrUserNotInVoice) {
			return nil, err
		}
		if err != nil {
			zlog.Debug().Err(err).Str("guild", inv.guildID.String()).Str("query", query).Msg("Failed to queue suggestion")
			failed = append(failed, query)
			continue
		}
		queued = append(queued, output.Track)
	}

	if len(queued) == 0 {
		return nil, domain.ErrNoPlayableResults
	}
	return VibeEmbed(prompt, queued, failed), nil
}

// Helpers.

type deferredAction func(ctx context.Context, inv invocation) (*discordgo.MessageEmbed, error)

// runDeferred acknowledges the interaction, runs action, and edits the
// acknowledgement with its embed. Errors with a user-facing message become an
// error embed; anything else is returned for the router to report.
func runDeferred(i *discordgo.InteractionCreate, r bot.Responder, ephemeral bool, action deferredAction) error {
	inv, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err)
	}

	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := r.Respond(response); err != nil {
		return errors.Wrap(err, "defer response")
	}

	embed, err := action(context.Background(), inv)
	if err != nil {
		message, ok := userMessage(err)
		if !ok {
			return err
		}
		embed = ErrorEmbed(message)
	}

	return editEmbed(r, embed)
}

func editEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{embed}
	return r.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
}

// respondError answers the interaction with an ephemeral error embed. Errors
// without a user-facing message are returned for the router to report.
func respondError(r bot.Responder, err error) error {
	message, ok := userMessage(err)
	if !ok {
		return err
	}
	return respondEphemeral(r, ErrorEmbed(message))
}

func respondEphemeral(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// userFacing lists errors whose message is shown to users as is.
var userFacing = []error{
	errNotInGuild,
	usecases.ErrEmptyQuery,
	domain.ErrNotPlayable,
	domain.ErrNoPlayableResults,
	domain.ErrAccessRestricted,
	domain.ErrSpawnFailure,
	domain.ErrSessionNotFound,
	domain.ErrNotPlaying,
	domain.ErrAlreadyPaused,
	domain.ErrNotPaused,
	usecases.ErrSuggestionsDisabled,
	usecases.ErrSuggesterFailure,
	usecases.ErrNoSuggestions,
}

// userMessage returns the message to show for err, if it has one.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrUserNotInVoice):
		return "🎤 Join a voice channel first!", true
	case errors.Is(err, domain.ErrSessionClosed):
		return "⚠️ Session expired.", true
	case errors.Is(err, domain.ErrToolFailure):
		return "Could not fetch search results.", true
	}

	for _, sentinel := range userFacing {
		if errors.Is(err, sentinel) {
			return capitalize(sentinel.Error()), true
		}
	}
	return "", false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func volumePercent(volume float64) int {
	return int(volume*100 + 0.5)
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// intOption returns the named integer option, or 0 when it was omitted.
func intOption(i *discordgo.InteractionCreate, name string) int {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return int(opt.IntValue())
		}
	}
	return 0
}
