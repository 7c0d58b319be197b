package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/playback"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// maxSessionAttempts bounds retries when a session closes between lookup
// and use.
const maxSessionAttempts = 3

// PlayInput contains the input for the Enqueue and PlayNow use cases.
type PlayInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	Query                 string
	Requester             string
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Track    domain.Track
	Started  bool
	Position int
}

// PlayNowOutput contains the result of the PlayNow use case.
type PlayNowOutput struct {
	Track    domain.Track
	Replaced *domain.Track
}

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID snowflake.ID
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID snowflake.ID
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID snowflake.ID
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped domain.Track
	Next    *domain.Track
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID snowflake.ID
}

// StopOutput contains the result of the Stop use case.
type StopOutput struct {
	Stopped bool // false when nothing was playing
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	GuildID snowflake.ID
	Volume  float64 // gain multiplier, 1 is unchanged
}

// SetVolumeOutput contains the result of the SetVolume use case.
type SetVolumeOutput struct {
	Volume float64
}

// ListInput contains the input for the List use case.
type ListInput struct {
	GuildID snowflake.ID
}

// ListOutput contains the result of the List use case.
type ListOutput struct {
	Tracks  []domain.Track
	Status  domain.Status
	Volume  float64
	Elapsed time.Duration
}

// Current returns the targeted track, or nil.
func (o *ListOutput) Current() *domain.Track {
	if len(o.Tracks) == 0 {
		return nil
	}
	return &o.Tracks[0]
}

// PlayerService is the command-facing entry point to playback sessions.
type PlayerService struct {
	store      *playback.Store
	cfg        playback.Config
	loader     *TrackLoaderService
	voiceState ports.VoiceStateProvider
	pipelines  ports.AudioPipeline
	voice      ports.VoiceConnector
	ui         ports.NowPlayingUI
	// now is the sessions' clock source; nil means time.Now.
	now func() time.Time
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(
	store *playback.Store,
	cfg playback.Config,
	loader *TrackLoaderService,
	voiceState ports.VoiceStateProvider,
	pipelines ports.AudioPipeline,
	voice ports.VoiceConnector,
	ui ports.NowPlayingUI,
) *PlayerService {
	return &PlayerService{
		store:      store,
		cfg:        cfg,
		loader:     loader,
		voiceState: voiceState,
		pipelines:  pipelines,
		voice:      voice,
		ui:         ui,
	}
}

// Enqueue resolves the query and appends the track to the guild's queue,
// starting playback if the queue was empty.
func (s *PlayerService) Enqueue(ctx context.Context, input PlayInput) (*EnqueueOutput, error) {
	target, track, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	var result playback.EnqueueResult
	err = s.withSession(input.GuildID, func(session *playback.Session) error {
		var err error
		result, err = session.Enqueue(ctx, track, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &EnqueueOutput{
		Track:    track,
		Started:  result.Started,
		Position: result.Position,
	}, nil
}

// PlayNow resolves the query and replaces the current track with it,
// keeping the rest of the queue.
func (s *PlayerService) PlayNow(ctx context.Context, input PlayInput) (*PlayNowOutput, error) {
	target, track, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	var replaced *domain.Track
	err = s.withSession(input.GuildID, func(session *playback.Session) error {
		var err error
		replaced, err = session.PlayNow(ctx, track, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PlayNowOutput{Track: track, Replaced: replaced}, nil
}

// Pause pauses the current track.
func (s *PlayerService) Pause(ctx context.Context, input PauseInput) error {
	session, err := s.existing(input.GuildID)
	if err != nil {
		return err
	}
	return s.sessionErr(session.Pause(ctx))
}

// Resume resumes the paused track.
func (s *PlayerService) Resume(ctx context.Context, input ResumeInput) error {
	session, err := s.existing(input.GuildID)
	if err != nil {
		return err
	}
	return s.sessionErr(session.Resume(ctx))
}

// TogglePause pauses a playing session and resumes a paused one.
// Returns true if the session is paused afterwards.
func (s *PlayerService) TogglePause(ctx context.Context, guildID snowflake.ID) (bool, error) {
	session, err := s.existing(guildID)
	if err != nil {
		return false, err
	}

	if session.Snapshot().Status == domain.StatusPaused {
		err := session.Resume(ctx)
		if errors.Is(err, domain.ErrNotPaused) {
			return false, nil
		}
		return false, s.sessionErr(err)
	}

	err = session.Pause(ctx)
	if errors.Is(err, domain.ErrAlreadyPaused) {
		return true, nil
	}
	return err == nil, s.sessionErr(err)
}

// Skip discards the current track.
func (s *PlayerService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	session, err := s.existing(input.GuildID)
	if err != nil {
		return nil, err
	}

	result, err := session.Skip(ctx)
	if err != nil {
		return nil, s.sessionErr(err)
	}
	return &SkipOutput{Skipped: result.Skipped, Next: result.Next}, nil
}

// SetVolume changes the guild's volume. The current track restarts at the
// new volume.
func (s *PlayerService) SetVolume(ctx context.Context, input SetVolumeInput) (*SetVolumeOutput, error) {
	session, err := s.existing(input.GuildID)
	if err != nil {
		return nil, err
	}

	volume, err := session.SetVolume(ctx, input.Volume)
	if err != nil {
		return nil, s.sessionErr(err)
	}
	return &SetVolumeOutput{Volume: volume}, nil
}

// Stop ends the guild's session. Stopping an absent session is not an error.
func (s *PlayerService) Stop(_ context.Context, input StopInput) *StopOutput {
	session, ok := s.store.Get(input.GuildID)
	if !ok {
		return &StopOutput{Stopped: false}
	}

	session.Stop()
	return &StopOutput{Stopped: true}
}

// List returns the guild's queue.
func (s *PlayerService) List(_ context.Context, input ListInput) (*ListOutput, error) {
	session, err := s.existing(input.GuildID)
	if err != nil {
		return nil, err
	}

	snapshot := session.Snapshot()
	if len(snapshot.Queue) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return &ListOutput{
		Tracks:  snapshot.Queue,
		Status:  snapshot.Status,
		Volume:  snapshot.Volume,
		Elapsed: snapshot.Elapsed,
	}, nil
}

// HandleBotDisconnected stops the session after the bot was removed from
// voice by someone else. A session that is still joining is left alone, and
// so is one whose bot is back in a channel: that event is the late echo of an
// earlier session leaving.
func (s *PlayerService) HandleBotDisconnected(guildID, botID snowflake.ID) {
	session, ok := s.store.Get(guildID)
	if !ok || session.VoiceChannelID() == 0 {
		return
	}

	current, err := s.voiceState.GetUserVoiceChannel(guildID, botID)
	if err == nil && current != 0 {
		zlog.Debug().
			Str("guild", guildID.String()).
			Str("channel", current.String()).
			Msg("Ignoring stale voice disconnect")
		return
	}

	zlog.Info().Str("guild", guildID.String()).Msg("Disconnected from voice, stopping session")
	session.Stop()
}

// Shutdown stops every live session.
func (s *PlayerService) Shutdown() {
	for _, session := range s.store.All() {
		session.Stop()
	}
}

// handlePlaybackFinished routes pipeline completion to whatever session the
// guild has at fire time.
func (s *PlayerService) handlePlaybackFinished(guildID snowflake.ID, pipelineID string, cause error) {
	session, ok := s.store.Get(guildID)
	if !ok {
		return
	}
	session.Advance(context.Background(), pipelineID, cause)
}

// prepare locates the requester's voice channel and resolves the track.
// Nothing is mutated when either fails.
func (s *PlayerService) prepare(ctx context.Context, input PlayInput) (playback.Target, domain.Track, error) {
	voiceChannelID, err := s.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return playback.Target{}, domain.Track{}, errors.Wrap(err, "look up voice state")
	}
	if voiceChannelID == 0 {
		return playback.Target{}, domain.Track{}, domain.ErrUserNotInVoice
	}

	output, err := s.loader.LoadTrack(ctx, LoadTrackInput{
		Query:     input.Query,
		Requester: input.Requester,
	})
	if err != nil {
		return playback.Target{}, domain.Track{}, err
	}

	target := playback.Target{
		VoiceChannelID:        voiceChannelID,
		NotificationChannelID: input.NotificationChannelID,
	}
	return target, output.Track, nil
}

// withSession runs fn against the guild's session, creating it if needed.
// A session that closes underneath fn is replaced and fn retried.
func (s *PlayerService) withSession(guildID snowflake.ID, fn func(*playback.Session) error) error {
	for range maxSessionAttempts {
		session := s.store.GetOrCreate(guildID, func() *playback.Session {
			return s.newSession(guildID)
		})

		err := fn(session)
		if !errors.Is(err, domain.ErrSessionClosed) {
			return err
		}
	}
	return domain.ErrSessionClosed
}

func (s *PlayerService) newSession(guildID snowflake.ID) *playback.Session {
	return playback.NewSession(guildID, s.store, s.cfg, playback.Dependencies{
		Pipelines:  s.pipelines,
		Voice:      s.voice,
		UI:         s.ui,
		OnFinished: s.handlePlaybackFinished,
		Now:        s.now,
	})
}

func (s *PlayerService) existing(guildID snowflake.ID) (*playback.Session, error) {
	session, ok := s.store.Get(guildID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// sessionErr reports a session that closed mid-call as absent.
func (s *PlayerService) sessionErr(err error) error {
	if errors.Is(err, domain.ErrSessionClosed) {
		return domain.ErrSessionNotFound
	}
	return err
}
