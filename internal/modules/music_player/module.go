package music_player

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/mtube/internal/bot"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/playback"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/mtube/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/mtube/internal/modules/music_player/presentation/discord"
)

const (
	// Discord drops autocomplete answers slower than three seconds.
	autocompleteTimeout    = 2500 * time.Millisecond
	lavalinkConnectTimeout = 10 * time.Second
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ bot.ComponentModule    = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	player          *usecases.PlayerService
	suggestions     *usecases.SuggestionService
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers
	lavalink        *infrastructure.LavalinkSearcher
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands(m.suggestions != nil && m.suggestions.Enabled())
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.CommandPlayNow: m.commandHandlers.HandlePlayNow,
		discord.CommandAdd:     m.commandHandlers.HandleAdd,
		discord.CommandQuit:    m.commandHandlers.HandleQuit,
		discord.CommandPause:   m.commandHandlers.HandlePause,
		discord.CommandResume:  m.commandHandlers.HandleResume,
		discord.CommandSkip:    m.commandHandlers.HandleSkip,
		discord.CommandVolume:  m.commandHandlers.HandleVolume,
		discord.CommandList:    m.commandHandlers.HandleList,
		discord.CommandAIPick:  m.commandHandlers.HandleAIPick,
		discord.CommandVibe:    m.commandHandlers.HandleVibe,
	}
}

// ComponentHandlers returns the button and modal handlers for this module.
func (m *MusicPlayerModule) ComponentHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.ButtonPauseResume: m.commandHandlers.HandlePauseResume,
		discord.ButtonSkip:        m.commandHandlers.HandleSkipButton,
		discord.ButtonQuit:        m.commandHandlers.HandleQuitButton,
		discord.ButtonShowQueue:   m.commandHandlers.HandleShowQueue,
		discord.ButtonAddQueue:    m.commandHandlers.HandleAddQueueButton,
		discord.ButtonAIPick:      m.commandHandlers.HandleAIPickButton,
		discord.ButtonVibe:        m.commandHandlers.HandleVibeButton,
		discord.ModalAddQueue:     m.commandHandlers.HandleAddQueueModal,
		discord.ModalAIPick:       m.commandHandlers.HandleAIPickModal,
		discord.ModalVibe:         m.commandHandlers.HandleVibeModal,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.eventHandlers.HandleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init wires the playback core to Discord and the external tools.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil || deps.Session.State == nil || deps.Session.State.User == nil {
		return errors.New("music_player requires an open Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return errors.Wrap(err, "parse bot user ID")
	}

	ytdlp := infrastructure.NewYtdlp(m.config.YtdlpPath, nil)

	searcher, err := m.newSearcher(botID, ytdlp)
	if err != nil {
		return err
	}

	var suggester ports.Suggester
	if m.config.OllamaURL != "" {
		suggester = infrastructure.NewOllamaSuggester(m.config.OllamaURL, m.config.OllamaModel)
	}

	loader := usecases.NewTrackLoaderService(
		searcher,
		ytdlp,
		m.config.MaxProbeAttempts,
		m.config.ResolveTimeout(),
	)
	m.player = usecases.NewPlayerService(
		playback.NewStore(),
		m.config.PlaybackConfig(),
		loader,
		infrastructure.NewVoiceStateProvider(deps.Session),
		infrastructure.NewAudioPipeline(m.config.PipelineConfig()),
		infrastructure.NewDiscordVoiceConnector(deps.Session),
		discord.NewNotifier(deps.Session),
	)
	m.suggestions = usecases.NewSuggestionService(suggester)

	m.commandHandlers = discord.NewCommandHandlers(m.player, m.suggestions)
	m.autocomplete = discord.NewAutocompleteHandler(
		usecases.NewAutocompleteService(searcher, autocompleteTimeout),
	)
	m.eventHandlers = discord.NewEventHandlers(botID, m.player)

	deps.Logger.Info().
		Str("ytdlp", m.config.YtdlpPath).
		Str("ffmpeg", m.config.FFmpegPath).
		Bool("lavalink", m.lavalink != nil).
		Bool("suggestions", m.suggestions.Enabled()).
		Msg("Music player ready")

	return nil
}

// newSearcher prefers Lavalink for search when configured and falls back to
// yt-dlp otherwise.
func (m *MusicPlayerModule) newSearcher(botID snowflake.ID, ytdlp *infrastructure.Ytdlp) (ports.TrackSearcher, error) {
	if m.config.LavalinkAddress == "" {
		return ytdlp, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lavalinkConnectTimeout)
	defer cancel()

	lavalink, err := infrastructure.NewLavalinkSearcher(ctx, botID, m.config.LavalinkConfig())
	if err != nil {
		return nil, errors.Wrap(err, "connect to Lavalink")
	}
	m.lavalink = lavalink
	return lavalink, nil
}

// Shutdown stops every session and closes the Lavalink connection.
func (m *MusicPlayerModule) Shutdown() error {
	if m.player != nil {
		m.player.Shutdown()
	}
	if m.lavalink != nil {
		m.lavalink.Close()
	}
	return nil
}

func (m *MusicPlayerModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	switch i.ApplicationCommandData().Name {
	case discord.CommandPlayNow, discord.CommandAdd:
		m.autocomplete.HandleQuery(s, i)
	}
}
