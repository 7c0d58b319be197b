package infrastructure

import (
	"context"
	"encoding/binary"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"gopkg.in/hraban/opus.v2"
)

const (
	opusBitrate       = 128000
	maxOpusFrameBytes = 4000
	silenceFrames     = 5
)

// opusSilence is sent after audio stops so the client does not interpolate.
var opusSilence = []byte{0xF8, 0xFF, 0xFE}

// frameEncoder turns one PCM frame into one Opus packet.
type frameEncoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

func newOpusEncoder() (frameEncoder, error) {
	enc, err := opus.NewEncoder(ports.PCMSampleRate, ports.PCMChannels, opus.AppAudio)
	if err != nil {
		return nil, err
	}
	if err := enc.SetBitrate(opusBitrate); err != nil {
		return nil, err
	}
	return enc, nil
}

// voiceLink is the part of a discordgo voice connection the output drives.
type voiceLink interface {
	Send() chan<- []byte
	Speaking(speaking bool) error
	Disconnect() error
}

type discordVoiceLink struct {
	vc *discordgo.VoiceConnection
}

func (l discordVoiceLink) Send() chan<- []byte   { return l.vc.OpusSend }
func (l discordVoiceLink) Speaking(b bool) error { return l.vc.Speaking(b) }
func (l discordVoiceLink) Disconnect() error     { return l.vc.Disconnect() }

// DiscordVoiceConnector joins voice channels through discordgo.
type DiscordVoiceConnector struct {
	session *discordgo.Session
}

// NewDiscordVoiceConnector creates a new DiscordVoiceConnector.
func NewDiscordVoiceConnector(session *discordgo.Session) *DiscordVoiceConnector {
	return &DiscordVoiceConnector{session: session}
}

// Join connects to the voice channel and waits for the connection to become
// ready. A join that completes after ctx expires is disconnected again.
func (c *DiscordVoiceConnector) Join(ctx context.Context, guildID, channelID snowflake.ID) (ports.VoiceOutput, error) {
	type joinResult struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	joined := make(chan joinResult, 1)

	go func() {
		vc, err := c.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
		joined <- joinResult{vc, err}
	}()

	select {
	case result := <-joined:
		if result.err != nil {
			return nil, errors.Wrap(result.err, "join voice channel")
		}
		zlog.Info().
			Str("guild", guildID.String()).
			Str("channel", channelID.String()).
			Msg("Joined voice channel")
		return newVoiceOutput(discordVoiceLink{result.vc}, channelID, newOpusEncoder), nil

	case <-ctx.Done():
		go func() {
			if result := <-joined; result.vc != nil && result.err == nil {
				_ = result.vc.Disconnect()
			}
		}()
		return nil, errors.Wrap(ctx.Err(), "wait for voice connection")
	}
}

// voiceOutput pumps PCM from a source through an Opus encoder into a voice
// connection. At most one source is active at a time.
type voiceOutput struct {
	link       voiceLink
	channelID  snowflake.ID
	newEncoder func() (frameEncoder, error)
	logger     zerolog.Logger

	mu      sync.Mutex
	current *voicePlayback
	closed  bool
}

func newVoiceOutput(link voiceLink, channelID snowflake.ID, newEncoder func() (frameEncoder, error)) *voiceOutput {
	return &voiceOutput{
		link:       link,
		channelID:  channelID,
		newEncoder: newEncoder,
		logger:     zlog.With().Str("channel", channelID.String()).Logger(),
	}
}

func (o *voiceOutput) ChannelID() snowflake.ID {
	return o.channelID
}

// Play replaces the current source with src. It does not wait for the old
// pump to exit.
func (o *voiceOutput) Play(src io.Reader, done func(error)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	if o.current != nil {
		o.current.cancel()
	}

	playback := newVoicePlayback()
	o.current = playback
	go o.pump(playback, src, done)
}

func (o *voiceOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		o.current.pause()
	}
}

func (o *voiceOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		o.current.resume()
	}
}

func (o *voiceOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		o.current.cancel()
		o.current = nil
	}
}

func (o *voiceOutput) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	if o.current != nil {
		o.current.cancel()
		o.current = nil
	}
	o.mu.Unlock()

	return o.link.Disconnect()
}

// pump encodes src frame by frame until it ends or the playback is cancelled.
// done runs on its own goroutine so it may call back into the session.
func (o *voiceOutput) pump(playback *voicePlayback, src io.Reader, done func(error)) {
	finished, err := o.stream(playback, src)
	if !o.superseded(playback) {
		o.sendSilence()
		if err := o.link.Speaking(false); err != nil {
			o.logger.Debug().Err(err).Msg("Failed to clear speaking state")
		}
	}

	if !finished || done == nil {
		return
	}
	go done(err)
}

// stream reports whether the source ended on its own rather than being
// cancelled, and the read error if any.
func (o *voiceOutput) stream(playback *voicePlayback, src io.Reader) (bool, error) {
	encoder, err := o.newEncoder()
	if err != nil {
		return !playback.cancelled(), errors.Wrap(err, "create opus encoder")
	}

	pcmBytes := make([]byte, ports.PCMFrameBytes)
	pcm := make([]int16, ports.PCMFrameSamples*ports.PCMChannels)
	packet := make([]byte, maxOpusFrameBytes)
	speaking := false

	for {
		if playback.isPaused() && speaking {
			o.sendSilence()
			_ = o.link.Speaking(false)
			speaking = false
		}
		if !playback.waitUnpaused() {
			return false, nil
		}
		if !speaking {
			if err := o.link.Speaking(true); err != nil {
				o.logger.Debug().Err(err).Msg("Failed to set speaking state")
			}
			speaking = true
		}

		_, err := io.ReadFull(src, pcmBytes)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return !playback.cancelled(), nil
		}
		if err != nil {
			return !playback.cancelled(), err
		}

		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(pcmBytes[2*i:]))
		}
		n, err := encoder.Encode(pcm, packet)
		if err != nil {
			o.logger.Debug().Err(err).Msg("Failed to encode frame")
			continue
		}

		frame := make([]byte, n)
		copy(frame, packet[:n])
		select {
		case o.link.Send() <- frame:
		case <-playback.stopped:
			return false, nil
		}
	}
}

// superseded reports whether another source replaced playback.
func (o *voiceOutput) superseded(playback *voicePlayback) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil && o.current != playback
}

func (o *voiceOutput) sendSilence() {
	for range silenceFrames {
		select {
		case o.link.Send() <- opusSilence:
		default:
			return
		}
	}
}

// voicePlayback is the control state of one pump goroutine.
type voicePlayback struct {
	stopped  chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	gate chan struct{} // non-nil while paused, closed on resume
}

func newVoicePlayback() *voicePlayback {
	return &voicePlayback{stopped: make(chan struct{})}
}

func (p *voicePlayback) cancel() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

func (p *voicePlayback) cancelled() bool {
	select {
	case <-p.stopped:
		return true
	default:
		return false
	}
}

func (p *voicePlayback) pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate == nil {
		p.gate = make(chan struct{})
	}
}

func (p *voicePlayback) resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

func (p *voicePlayback) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate != nil
}

// waitUnpaused blocks while paused. It returns false if the playback was
// cancelled.
func (p *voicePlayback) waitUnpaused() bool {
	p.mu.Lock()
	gate := p.gate
	p.mu.Unlock()

	if gate == nil {
		return !p.cancelled()
	}
	select {
	case <-gate:
		return !p.cancelled()
	case <-p.stopped:
		return false
	}
}

// Ensure the adapters implement the voice ports.
var (
	_ ports.VoiceConnector = (*DiscordVoiceConnector)(nil)
	_ ports.VoiceOutput    = (*voiceOutput)(nil)
)
