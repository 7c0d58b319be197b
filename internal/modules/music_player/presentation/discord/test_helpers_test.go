package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

const (
	testGuildID   = "100"
	testChannelID = "200"
	testUserID    = "300"
)

// fakePlayer records inputs and returns canned results.
type fakePlayer struct {
	mu sync.Mutex

	enqueueOutput *usecases.EnqueueOutput
	enqueueErrs   map[string]error // by query
	enqueueErr    error
	playNowOutput *usecases.PlayNowOutput
	toggled       bool
	skipOutput    *usecases.SkipOutput
	listOutput    *usecases.ListOutput
	stopped       bool
	err           error

	playInputs      []usecases.PlayInput
	volumeInput     usecases.SetVolumeInput
	toggleCalls     int
	stopCalls       int
	disconnected    []snowflake.ID
	disconnectedBot snowflake.ID
}

func (f *fakePlayer) Enqueue(_ context.Context, input usecases.PlayInput) (*usecases.EnqueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playInputs = append(f.playInputs, input)

	if err := f.enqueueErrs[input.Query]; err != nil {
		return nil, err
	}
	if f.enqueueErr != nil {
		return nil, f.enqueueErr
	}
	if f.enqueueOutput != nil {
		return f.enqueueOutput, nil
	}
	return &usecases.EnqueueOutput{
		Track:    domain.NewTrack("https://example.com/"+input.Query, input.Query, "3:00", input.Requester),
		Position: len(f.playInputs),
	}, nil
}

func (f *fakePlayer) PlayNow(_ context.Context, input usecases.PlayInput) (*usecases.PlayNowOutput, error) {
	f.playInputs = append(f.playInputs, input)
	return f.playNowOutput, f.err
}

func (f *fakePlayer) Pause(context.Context, usecases.PauseInput) error   { return f.err }
func (f *fakePlayer) Resume(context.Context, usecases.ResumeInput) error { return f.err }

func (f *fakePlayer) TogglePause(context.Context, snowflake.ID) (bool, error) {
	f.toggleCalls++
	return f.toggled, f.err
}

func (f *fakePlayer) Skip(context.Context, usecases.SkipInput) (*usecases.SkipOutput, error) {
	return f.skipOutput, f.err
}

func (f *fakePlayer) SetVolume(_ context.Context, input usecases.SetVolumeInput) (*usecases.SetVolumeOutput, error) {
	f.volumeInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.SetVolumeOutput{Volume: input.Volume}, nil
}

func (f *fakePlayer) Stop(context.Context, usecases.StopInput) *usecases.StopOutput {
	f.stopCalls++
	return &usecases.StopOutput{Stopped: f.stopped}
}

func (f *fakePlayer) List(context.Context, usecases.ListInput) (*usecases.ListOutput, error) {
	return f.listOutput, f.err
}

func (f *fakePlayer) HandleBotDisconnected(guildID, botID snowflake.ID) {
	f.disconnected = append(f.disconnected, guildID)
	f.disconnectedBot = botID
}

// fakeSuggestions returns canned suggestions.
type fakeSuggestions struct {
	disabled  bool
	one       string
	many      []string
	err       error
	lastCount int
}

func (f *fakeSuggestions) Enabled() bool { return !f.disabled }

func (f *fakeSuggestions) SuggestOne(context.Context, usecases.SuggestInput) (*usecases.SuggestOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.SuggestOutput{Query: f.one}, nil
}

func (f *fakeSuggestions) SuggestMany(_ context.Context, input usecases.SuggestManyInput) (*usecases.SuggestManyOutput, error) {
	f.lastCount = input.Count
	if f.err != nil {
		return nil, f.err
	}
	return &usecases.SuggestManyOutput{Queries: f.many}, nil
}

func newTestHandlers(player *fakePlayer, suggestions *fakeSuggestions) *CommandHandlers {
	if suggestions == nil {
		suggestions = &fakeSuggestions{disabled: true}
	}
	return &CommandHandlers{player: player, suggestions: suggestions}
}

func guildInteraction(typ discordgo.InteractionType, data discordgo.InteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      typ,
		GuildID:   testGuildID,
		ChannelID: testChannelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: testUserID}},
		Data:      data,
	}}
}

func commandInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return guildInteraction(discordgo.InteractionApplicationCommand, discordgo.ApplicationCommandInteractionData{
		Name:    name,
		Options: options,
	})
}

func buttonInteraction(customID string) *discordgo.InteractionCreate {
	return guildInteraction(discordgo.InteractionMessageComponent, discordgo.MessageComponentInteractionData{
		CustomID:      customID,
		ComponentType: discordgo.ButtonComponent,
	})
}

// modalInteraction builds a submission the way discordgo decodes one.
func modalInteraction(customID string, values map[string]string) *discordgo.InteractionCreate {
	components := make([]discordgo.MessageComponent, 0, len(values))
	for id, value := range values {
		components = append(components, &discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: id, Value: value},
			},
		})
	}
	return guildInteraction(discordgo.InteractionModalSubmit, discordgo.ModalSubmitInteractionData{
		CustomID:   customID,
		Components: components,
	})
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func intOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

// editedDescription returns the description of the first edited embed.
func editedDescription(edit *discordgo.WebhookEdit) string {
	if edit == nil || edit.Embeds == nil || len(*edit.Embeds) == 0 {
		return ""
	}
	return (*edit.Embeds)[0].Description
}
