package ports

import (
	"context"
	"io"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnector defines the interface for joining voice channels.
type VoiceConnector interface {
	// Join connects the bot to the voice channel and waits until the
	// connection is ready, bounded by ctx.
	Join(ctx context.Context, guildID, channelID snowflake.ID) (VoiceOutput, error)
}

// VoiceOutput is a ready voice connection accepting raw PCM.
type VoiceOutput interface {
	// ChannelID returns the connected voice channel.
	ChannelID() snowflake.ID

	// Play starts sending src, replacing any current source. done is called
	// once with nil when src is exhausted or with the read error. done is not
	// called when the source is replaced, stopped or the output is closed.
	Play(src io.Reader, done func(error))

	// Pause stops sending audio without discarding the source.
	Pause()

	// Resume continues sending a paused source.
	Resume()

	// Stop detaches the current source.
	Stop()

	// Close stops playback and disconnects from the voice channel.
	Close() error
}
