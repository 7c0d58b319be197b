package music_player

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/playback"
	"github.com/sglre6355/mtube/internal/modules/music_player/infrastructure"
)

// Config holds the music player module configuration.
type Config struct {
	YtdlpPath  string `env:"YTDLP_PATH" envDefault:"/usr/local/bin/yt-dlp" validate:"required"`
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg" validate:"required"`

	ProgressIntervalMS  int `env:"PROGRESS_INTERVAL_MS" envDefault:"5000" validate:"min=1000"`
	VoiceReadyTimeoutMS int `env:"VOICE_READY_TIMEOUT_MS" envDefault:"30000" validate:"min=1000"`
	ResolveTimeoutMS    int `env:"RESOLVE_TIMEOUT_MS" envDefault:"30000" validate:"min=1000"`

	MinVolume     float64 `env:"MIN_VOLUME" envDefault:"0" validate:"gte=0"`
	MaxVolume     float64 `env:"MAX_VOLUME" envDefault:"2" validate:"gtefield=MinVolume"`
	DefaultVolume float64 `env:"DEFAULT_VOLUME" envDefault:"1" validate:"gtefield=MinVolume,ltefield=MaxVolume"`

	MaxProbeAttempts int `env:"MAX_PROBE_ATTEMPTS" envDefault:"5" validate:"min=1,max=25"`

	AutoSkipOnPipelineFailure bool `env:"AUTO_SKIP_ON_PIPELINE_FAILURE" envDefault:"false"`

	// Lavalink is only used for search when an address is set.
	LavalinkAddress  string `env:"LAVALINK_ADDRESS" validate:"omitempty,hostname_port"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD" validate:"required_with=LavalinkAddress"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	// AI suggestions are enabled when an Ollama URL is set.
	OllamaURL   string `env:"OLLAMA_URL" validate:"omitempty,url"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"llama3"`
}

// LoadConfig parses and validates the module configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse music player config")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validate music player config")
	}
	return cfg, nil
}

// PlaybackConfig returns the per-session settings.
func (c *Config) PlaybackConfig() playback.Config {
	return playback.Config{
		MinVolume:         c.MinVolume,
		MaxVolume:         c.MaxVolume,
		DefaultVolume:     c.DefaultVolume,
		ProgressInterval:  millis(c.ProgressIntervalMS),
		VoiceReadyTimeout: millis(c.VoiceReadyTimeoutMS),
		AutoSkipOnFailure: c.AutoSkipOnPipelineFailure,
	}
}

// PipelineConfig returns the audio pipeline settings.
func (c *Config) PipelineConfig() infrastructure.PipelineConfig {
	return infrastructure.PipelineConfig{
		YtdlpPath:  c.YtdlpPath,
		FFmpegPath: c.FFmpegPath,
	}
}

// LavalinkConfig returns the Lavalink connection settings.
func (c *Config) LavalinkConfig() infrastructure.LavalinkConfig {
	return infrastructure.LavalinkConfig{
		Address:  c.LavalinkAddress,
		Password: c.LavalinkPassword,
		Secure:   c.LavalinkSecure,
	}
}

// ResolveTimeout bounds a single yt-dlp metadata call.
func (c *Config) ResolveTimeout() time.Duration {
	return millis(c.ResolveTimeoutMS)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
