package ports

import (
	"context"
	"io"
)

// Raw PCM format produced by every Pipeline and consumed by every VoiceOutput.
const (
	PCMSampleRate   = 48000
	PCMChannels     = 2
	PCMFrameSamples = 960 // 20ms per channel
	PCMFrameBytes   = PCMFrameSamples * PCMChannels * 2
)

// AudioPipeline spawns the external fetch and transcode stages for a track.
type AudioPipeline interface {
	// Start begins producing PCM for url at the given volume gain.
	// Returns an error marked domain.ErrSpawnFailure if either stage cannot start.
	Start(ctx context.Context, url string, volume float64) (Pipeline, error)
}

// Pipeline is a single live fetch/transcode process pair.
type Pipeline interface {
	// ID uniquely identifies this pipeline instance.
	ID() string

	// Output is the raw PCM stream. It returns io.EOF when the track ends
	// normally and an error marked domain.ErrStreamBroken when a stage dies.
	Output() io.Reader

	// Cleanup kills both stages. Safe to call more than once.
	Cleanup()
}
