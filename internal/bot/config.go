package bot

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty" validate:"required"`

	// GuildID registers commands to a single guild instead of globally.
	// Guild commands update instantly, which is handy during development.
	GuildID string `env:"DISCORD_GUILD_ID" validate:"omitempty,numeric"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing or invalid.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse bot config")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validate bot config")
	}

	return cfg, nil
}
