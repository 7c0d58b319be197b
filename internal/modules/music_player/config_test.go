package music_player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnv lists every variable LoadConfig reads so tests start clean.
var configEnv = []string{
	"YTDLP_PATH", "FFMPEG_PATH",
	"PROGRESS_INTERVAL_MS", "VOICE_READY_TIMEOUT_MS", "RESOLVE_TIMEOUT_MS",
	"MIN_VOLUME", "MAX_VOLUME", "DEFAULT_VOLUME",
	"MAX_PROBE_ATTEMPTS", "AUTO_SKIP_ON_PIPELINE_FAILURE",
	"LAVALINK_ADDRESS", "LAVALINK_PASSWORD", "LAVALINK_SECURE",
	"OLLAMA_URL", "OLLAMA_MODEL",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.YtdlpPath)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 5, cfg.MaxProbeAttempts)
	assert.Equal(t, 30*time.Second, cfg.ResolveTimeout())
	assert.Empty(t, cfg.LavalinkAddress)
	assert.Empty(t, cfg.OllamaURL)
	assert.Equal(t, "llama3", cfg.OllamaModel)

	pc := cfg.PlaybackConfig()
	assert.Equal(t, 5*time.Second, pc.ProgressInterval)
	assert.Equal(t, 30*time.Second, pc.VoiceReadyTimeout)
	assert.InDelta(t, 0.0, pc.MinVolume, 1e-9)
	assert.InDelta(t, 2.0, pc.MaxVolume, 1e-9)
	assert.InDelta(t, 1.0, pc.DefaultVolume, 1e-9)
	assert.False(t, pc.AutoSkipOnFailure)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PROGRESS_INTERVAL_MS", "2000")
	t.Setenv("AUTO_SKIP_ON_PIPELINE_FAILURE", "true")
	t.Setenv("LAVALINK_ADDRESS", "localhost:2333")
	t.Setenv("LAVALINK_PASSWORD", "youshallnotpass")
	t.Setenv("OLLAMA_URL", "http://localhost:11434")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.PlaybackConfig().ProgressInterval)
	assert.True(t, cfg.PlaybackConfig().AutoSkipOnFailure)
	assert.Equal(t, "localhost:2333", cfg.LavalinkConfig().Address)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "interval too short", env: map[string]string{"PROGRESS_INTERVAL_MS": "500"}},
		{name: "probe attempts too high", env: map[string]string{"MAX_PROBE_ATTEMPTS": "26"}},
		{name: "probe attempts zero", env: map[string]string{"MAX_PROBE_ATTEMPTS": "0"}},
		{name: "max below min", env: map[string]string{"MIN_VOLUME": "1", "MAX_VOLUME": "0.5", "DEFAULT_VOLUME": "1"}},
		{name: "default above max", env: map[string]string{"DEFAULT_VOLUME": "3"}},
		{name: "lavalink without password", env: map[string]string{"LAVALINK_ADDRESS": "localhost:2333"}},
		{name: "bad ollama url", env: map[string]string{"OLLAMA_URL": "not a url"}},
		{name: "not a number", env: map[string]string{"RESOLVE_TIMEOUT_MS": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig()

			assert.Error(t, err)
		})
	}
}
