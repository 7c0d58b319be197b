package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// InteractionHandler answers one interaction through r. A returned error is
// logged and shown to the user as a generic failure.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is any function discordgo.Session.AddHandler accepts, for
// example func(*discordgo.Session, *discordgo.VoiceStateUpdate).
type EventHandler any

// ModuleDependencies is what the bot hands each module in Init.
type ModuleDependencies struct {
	// Session is already open, so State carries the bot user.
	Session *discordgo.Session
	// Logger is tagged with the module name.
	Logger zerolog.Logger
}

// Module is a self-contained feature set: slash commands, their handlers
// and any gateway event handlers.
type Module interface {
	// Name must be unique; registering the same name again replaces the module.
	Name() string

	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers is keyed by command name.
	CommandHandlers() map[string]InteractionHandler

	EventHandlers() []EventHandler

	Init(deps ModuleDependencies) error

	Shutdown() error
}

// ComponentModule is implemented by modules that own message components or
// modals. Handlers are keyed by custom ID.
type ComponentModule interface {
	ComponentHandlers() map[string]InteractionHandler
}

// ConfigurableModule is implemented by modules with their own settings.
// LoadConfig runs from Bot.LoadModules, before the gateway connection, so a
// bad environment fails startup early.
type ConfigurableModule interface {
	LoadConfig() error
}
