package bot

import (
	"maps"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config     *Config
	session    *discordgo.Session
	modules    []Module
	handlers   map[string]InteractionHandler
	components map[string]InteractionHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:     cfg,
		modules:    make([]Module, 0),
		handlers:   make(map[string]InteractionHandler),
		components: make(map[string]InteractionHandler),
	}
}

// LoadModules loads modules from the global registry and their configuration.
func (b *Bot) LoadModules() error {
	b.modules = Modules()

	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return errors.Wrapf(err, "load %s module config", mod.Name())
		}
	}
	return nil
}

// Start initializes the bot, connects to Discord, and registers commands.
func (b *Bot) Start() error {
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return errors.Wrap(err, "create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	b.session = session

	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "open Discord connection")
	}

	// Modules need the bot's own user, which is known once the session is open.
	if err := b.initModules(); err != nil {
		return errors.Wrap(err, "initialize modules")
	}

	b.buildHandlerMap()
	b.session.AddHandler(b.handleInteraction)
	b.registerEventHandlers()

	if err := b.registerCommands(); err != nil {
		return errors.Wrap(err, "register commands")
	}

	zlog.Info().
		Str("user_id", b.session.State.User.ID).
		Str("username", b.session.State.User.Username).
		Msg("Bot started")

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			zlog.Warn().Err(err).Str("module", mod.Name()).Msg("Failed to shut down module")
		}
	}

	if b.session != nil {
		return errors.Wrap(b.session.Close(), "close Discord session")
	}

	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	moduleNames := make([]string, 0, len(b.modules))
	for _, mod := range b.modules {
		deps := ModuleDependencies{
			Session: b.session,
			Logger:  zlog.With().Str("module", mod.Name()).Logger(),
		}
		if err := mod.Init(deps); err != nil {
			return errors.Wrapf(err, "initialize %s module", mod.Name())
		}
		zlog.Debug().Str("module", mod.Name()).Msg("Initialized module")
		moduleNames = append(moduleNames, mod.Name())
	}

	zlog.Info().Strs("modules", moduleNames).Msg("Initialized modules")

	return nil
}

// buildHandlerMap builds the command name and component ID mappings.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())
		if cm, ok := mod.(ComponentModule); ok {
			maps.Copy(b.components, cm.ComponentHandlers())
		}
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands replaces the application's commands with the modules' set.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		b.config.GuildID, // empty registers globally
		commands,
	)
	if err != nil {
		return errors.Wrap(err, "overwrite application commands")
	}

	for _, cmd := range registered {
		zlog.Debug().Str("command", cmd.Name).Msg("Registered command")
	}

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// route finds the handler for an interaction. kind is empty for interaction
// types the bot does not route.
func (b *Bot) route(i *discordgo.InteractionCreate) (handler InteractionHandler, kind, key string) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		kind, key = "command", i.ApplicationCommandData().Name
		handler = b.handlers[key]
	case discordgo.InteractionMessageComponent:
		kind, key = "component", i.MessageComponentData().CustomID
		handler = b.components[key]
	case discordgo.InteractionModalSubmit:
		kind, key = "modal", i.ModalSubmitData().CustomID
		handler = b.components[key]
	}
	return handler, kind, key
}

// handleInteraction routes incoming interactions to the appropriate handler.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	handler, kind, key := b.route(i)
	if kind == "" {
		return
	}

	responder := NewDiscordResponder(s, i.Interaction)

	if handler == nil {
		zlog.Warn().Str(kind, key).Msg("Found no handler for interaction")
		respondWithEmbed(responder, "Unknown Interaction", "This interaction is not recognized.", colorYellow)
		return
	}

	if err := invoke(handler, s, i, responder); err != nil {
		zlog.Error().Err(err).Str(kind, key).Msg("Failed to handle interaction")
		respondWithEmbed(responder, "Error", "An error occurred while processing your request.", colorRed)
	}
}

// invoke runs handler and converts a panic into an error.
func invoke(
	handler InteractionHandler,
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r Responder,
) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf("handler panicked: %v", p)
			zlog.Error().Str("stack", string(debug.Stack())).Msg("Recovered interaction handler panic")
		}
	}()
	return handler(s, i, r)
}

// respondWithEmbed sends an ephemeral embed, editing the original response
// when the handler already answered or deferred.
func respondWithEmbed(r Responder, title, description string, color int) {
	embeds := []*discordgo.MessageEmbed{
		{
			Title:       title,
			Description: description,
			Color:       color,
		},
	}

	var err error
	if r.Responded() {
		err = r.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
	} else {
		err = r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: embeds,
				Flags:  discordgo.MessageFlagsEphemeral,
			},
		})
	}
	if err != nil {
		zlog.Error().Err(err).Msg("Failed to send embed response")
	}
}
