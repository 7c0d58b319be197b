package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

const emptyQueueMessage = "Queue is empty, leaving! 👋"

// Config holds the tunables of a session.
type Config struct {
	MinVolume         float64
	MaxVolume         float64
	DefaultVolume     float64
	ProgressInterval  time.Duration
	VoiceReadyTimeout time.Duration
	// AutoSkipOnFailure advances the queue when a pipeline fails to spawn or
	// breaks mid-stream instead of leaving the session on the dead track.
	AutoSkipOnFailure bool
}

// DefaultConfig returns the stock session configuration.
func DefaultConfig() Config {
	return Config{
		MinVolume:         0,
		MaxVolume:         2,
		DefaultVolume:     1,
		ProgressInterval:  5 * time.Second,
		VoiceReadyTimeout: 30 * time.Second,
	}
}

// ClampVolume limits v to [MinVolume, MaxVolume].
func (c Config) ClampVolume(v float64) float64 {
	return min(c.MaxVolume, max(c.MinVolume, v))
}

// FinishedFunc receives pipeline completion. It must look the session up by
// guild at call time instead of capturing one.
type FinishedFunc func(guildID snowflake.ID, pipelineID string, err error)

// Dependencies are the collaborators a session drives.
type Dependencies struct {
	Pipelines  ports.AudioPipeline
	Voice      ports.VoiceConnector
	UI         ports.NowPlayingUI
	OnFinished FinishedFunc
	// Now overrides the clock source; nil means time.Now.
	Now func() time.Time
}

// Target identifies where a command was issued from.
type Target struct {
	VoiceChannelID        snowflake.ID
	NotificationChannelID snowflake.ID
}

// EnqueueResult reports what Enqueue did.
type EnqueueResult struct {
	Started  bool // the track is now playing
	Position int  // 1-based queue position of the track
}

// SkipResult reports what Skip did.
type SkipResult struct {
	Skipped domain.Track
	Next    *domain.Track // nil when the queue drained and the session closed
}

// Snapshot is a read-only copy of session state.
type Snapshot struct {
	GuildID               snowflake.ID
	Queue                 []domain.Track
	Status                domain.Status
	Volume                float64
	Elapsed               time.Duration
	PipelineID            string
	NotificationChannelID snowflake.ID
}

// Current returns the targeted track, or nil.
func (s Snapshot) Current() *domain.Track {
	if len(s.Queue) == 0 {
		return nil
	}
	return &s.Queue[0]
}

// Session is the playback state machine for one guild.
// All exported methods are safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	guildID snowflake.ID
	store   *Store
	cfg     Config
	deps    Dependencies
	logger  zerolog.Logger

	queue                 domain.Queue
	status                domain.Status
	pipeline              ports.Pipeline
	clock                 *domain.ElapsedClock
	volume                float64
	output                ports.VoiceOutput
	nowPlaying            *ports.MessageHandle
	notificationChannelID snowflake.ID
	progress              *ProgressNotifier
	writer                *frameWriter
	drawSeq               uint64
	closed                bool

	// voiceChannelID mirrors output.ChannelID() and is readable without mu.
	voiceChannelID atomic.Uint64
}

// NewSession creates an idle session that removes itself from store when it
// terminates.
func NewSession(guildID snowflake.ID, store *Store, cfg Config, deps Dependencies) *Session {
	return &Session{
		guildID: guildID,
		store:   store,
		cfg:     cfg,
		deps:    deps,
		logger:  zlog.With().Str("guild", guildID.String()).Logger(),
		queue:   domain.NewQueue(),
		status:  domain.StatusIdle,
		clock:   domain.NewElapsedClock(deps.Now),
		volume:  cfg.ClampVolume(cfg.DefaultVolume),
		writer:  &frameWriter{ui: deps.UI},
	}
}

// GuildID returns the guild this session belongs to.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// Enqueue appends track. On an empty queue it joins voice if needed and
// starts playback.
func (s *Session) Enqueue(ctx context.Context, track domain.Track, target Target) (EnqueueResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return EnqueueResult{}, domain.ErrSessionClosed
	}
	if err := s.prepareLocked(ctx, target); err != nil {
		return EnqueueResult{}, err
	}

	wasEmpty := s.queue.IsEmpty()
	s.queue.Append(track)
	position := s.queue.Len()

	if !wasEmpty {
		return EnqueueResult{Started: false, Position: position}, nil
	}

	s.playHeadLocked(ctx)
	return EnqueueResult{Started: !s.closed, Position: position}, nil
}

// PlayNow replaces the current track with track, preserving the rest of the
// queue. On an idle session it behaves like Enqueue.
func (s *Session) PlayNow(ctx context.Context, track domain.Track, target Target) (*domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	if err := s.prepareLocked(ctx, target); err != nil {
		return nil, err
	}

	s.stopProgressLocked()
	s.cleanupPipelineLocked()
	replaced := s.queue.ReplaceHead(track)

	s.playHeadLocked(ctx)
	return replaced, nil
}

// Pause silences output and freezes the clock. The pipeline stays alive.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return domain.ErrSessionClosed
	case s.status == domain.StatusPaused:
		return domain.ErrAlreadyPaused
	case s.status != domain.StatusPlaying:
		return domain.ErrNotPlaying
	}

	s.output.Pause()
	s.clock.Freeze()
	s.status = domain.StatusPaused
	s.redrawLocked(ctx)
	return nil
}

// Resume continues paused output and the clock.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.status != domain.StatusPaused {
		return domain.ErrNotPaused
	}

	s.output.Resume()
	s.clock.Unfreeze()
	s.status = domain.StatusPlaying
	s.redrawLocked(ctx)
	return nil
}

// Skip discards the current track regardless of position and plays the next
// one. Skipping the last track terminates the session.
func (s *Session) Skip(ctx context.Context) (SkipResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SkipResult{}, domain.ErrSessionClosed
	}
	if s.queue.IsEmpty() {
		return SkipResult{}, domain.ErrNotPlaying
	}

	s.stopProgressLocked()
	s.cleanupPipelineLocked()
	skipped := s.queue.PopHead()

	s.playHeadLocked(ctx)

	result := SkipResult{Skipped: *skipped}
	if !s.closed {
		result.Next = s.queue.Head()
	}
	return result, nil
}

// SetVolume clamps and stores v. When a track is targeted the pipeline is
// respawned at the new gain, which restarts the track from the beginning.
func (s *Session) SetVolume(ctx context.Context, v float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, domain.ErrSessionClosed
	}

	s.volume = s.cfg.ClampVolume(v)
	head := s.queue.Head()
	if head == nil {
		return s.volume, nil
	}

	s.stopProgressLocked()
	s.cleanupPipelineLocked()
	s.clock.Reset()
	s.status = domain.StatusPlaying

	if err := s.startPipelineLocked(ctx, *head); err != nil {
		s.pipelineFailedLocked(ctx, *head, err)
		return s.volume, nil
	}

	if s.nowPlaying == nil {
		s.renderLocked(ctx, *head)
		return s.volume, nil
	}
	s.redrawLocked(ctx)
	s.startProgressLocked()
	return s.volume, nil
}

// Stop tears the session down and removes it from the store. Stopping a
// closed session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.logger.Info().Msg("Stopping session")
	s.terminateLocked()
}

// Advance handles completion of the pipeline identified by pipelineID.
// Completions from pipelines that are no longer live are ignored and
// reported as false.
func (s *Session) Advance(ctx context.Context, pipelineID string, cause error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pipeline == nil || s.pipeline.ID() != pipelineID {
		s.logger.Debug().Str("pipeline", pipelineID).Msg("Ignoring stale pipeline completion")
		return false
	}

	head := s.queue.Head()
	if cause != nil && head != nil {
		s.pipelineFailedLocked(ctx, *head, cause)
		if !s.cfg.AutoSkipOnFailure {
			return true
		}
	}

	s.stopProgressLocked()
	s.cleanupPipelineLocked()
	s.queue.PopHead()
	s.playHeadLocked(ctx)
	return true
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		GuildID:               s.guildID,
		Queue:                 s.queue.List(),
		Status:                s.status,
		Volume:                s.volume,
		Elapsed:               s.clock.Elapsed(),
		NotificationChannelID: s.notificationChannelID,
	}
	if s.pipeline != nil {
		snapshot.PipelineID = s.pipeline.ID()
	}
	return snapshot
}

// VoiceChannelID returns the connected voice channel, or 0 while the
// session is still joining or after it closed. It does not wait for
// in-flight operations.
func (s *Session) VoiceChannelID() snowflake.ID {
	return snowflake.ID(s.voiceChannelID.Load())
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// prepareLocked records the notification channel and makes sure the voice
// output is connected. A fresh session that cannot connect is terminated.
func (s *Session) prepareLocked(ctx context.Context, target Target) error {
	if target.NotificationChannelID != 0 {
		s.notificationChannelID = target.NotificationChannelID
	}
	if s.output != nil {
		return nil
	}

	if target.VoiceChannelID == 0 {
		if s.queue.IsEmpty() {
			s.terminateLocked()
		}
		return domain.ErrUserNotInVoice
	}

	joinCtx, cancel := context.WithTimeout(ctx, s.cfg.VoiceReadyTimeout)
	defer cancel()

	output, err := s.deps.Voice.Join(joinCtx, s.guildID, target.VoiceChannelID)
	if err != nil {
		if s.queue.IsEmpty() {
			s.terminateLocked()
		}
		return errors.Wrapf(err, "join voice channel %s", target.VoiceChannelID)
	}
	s.output = output
	s.voiceChannelID.Store(uint64(output.ChannelID()))
	return nil
}

// playHeadLocked starts playback of queue[0]. With an empty queue the
// session terminates.
func (s *Session) playHeadLocked(ctx context.Context) {
	for {
		head := s.queue.Head()
		if head == nil {
			s.announceLocked(ctx, emptyQueueMessage)
			s.terminateLocked()
			return
		}

		s.stopProgressLocked()
		s.cleanupPipelineLocked()
		s.clock.Reset()
		s.status = domain.StatusPlaying

		err := s.startPipelineLocked(ctx, *head)
		if err == nil {
			s.renderLocked(ctx, *head)
			return
		}

		s.pipelineFailedLocked(ctx, *head, err)
		if !s.cfg.AutoSkipOnFailure {
			s.renderLocked(ctx, *head)
			return
		}
		s.queue.PopHead()
	}
}

func (s *Session) startPipelineLocked(ctx context.Context, track domain.Track) error {
	pipeline, err := s.deps.Pipelines.Start(ctx, track.URL, s.volume)
	if err != nil {
		return err
	}
	s.pipeline = pipeline

	guildID := s.guildID
	pipelineID := pipeline.ID()
	onFinished := s.deps.OnFinished
	s.output.Play(pipeline.Output(), func(err error) {
		if onFinished != nil {
			onFinished(guildID, pipelineID, err)
		}
	})

	s.logger.Info().
		Str("pipeline", pipelineID).
		Str("track", track.Title).
		Float64("volume", s.volume).
		Msg("Started playback")
	return nil
}

// pipelineFailedLocked reports a dead pipeline. The queue is left alone.
func (s *Session) pipelineFailedLocked(ctx context.Context, track domain.Track, err error) {
	s.logger.Error().Err(err).Str("track", track.Title).Msg("Audio pipeline failed")
	s.clock.Freeze()
	s.stopProgressLocked()
	if s.pipeline != nil {
		s.pipeline.Cleanup()
	}

	if s.notificationChannelID == 0 {
		return
	}
	msg := "Playback failed for **" + track.Title + "**: " + err.Error()
	if uiErr := s.deps.UI.ReportError(ctx, s.notificationChannelID, msg); uiErr != nil {
		s.logger.Warn().Err(uiErr).Msg("Failed to report pipeline failure")
	}
}

// cleanupPipelineLocked detaches the output and kills the live pipeline.
func (s *Session) cleanupPipelineLocked() {
	if s.pipeline == nil {
		return
	}
	if s.output != nil {
		s.output.Stop()
	}
	s.pipeline.Cleanup()
	s.pipeline = nil
}

// terminateLocked releases every resource and removes the session from the
// store. The session rejects all further operations.
func (s *Session) terminateLocked() {
	s.closed = true
	s.stopProgressLocked()
	s.cleanupPipelineLocked()
	s.queue.Clear()
	s.clock.Freeze()
	s.status = domain.StatusIdle
	s.nowPlaying = nil

	if s.output != nil {
		if err := s.output.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close voice output")
		}
		s.output = nil
	}
	s.voiceChannelID.Store(0)

	if s.store != nil {
		s.store.Remove(s.guildID, s)
	}
}

func (s *Session) viewLocked(track domain.Track) ports.NowPlayingView {
	return ports.NowPlayingView{
		Track:    track,
		Elapsed:  s.clock.Elapsed(),
		Paused:   s.status == domain.StatusPaused,
		Volume:   s.volume,
		Upcoming: max(s.queue.Len()-1, 0),
	}
}

// renderLocked posts a fresh now-playing message and starts the ticker.
func (s *Session) renderLocked(ctx context.Context, track domain.Track) {
	s.nowPlaying = nil
	if s.notificationChannelID == 0 {
		return
	}

	handle, err := s.deps.UI.Render(ctx, s.notificationChannelID, s.viewLocked(track))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send now playing message")
		return
	}
	s.nowPlaying = handle
	s.startProgressLocked()
}

// redrawLocked edits the current now-playing message in place.
func (s *Session) redrawLocked(ctx context.Context) {
	head := s.queue.Head()
	if s.nowPlaying == nil || head == nil {
		return
	}
	if err := s.writer.write(ctx, s.frameLocked(*head)); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to update now playing message")
	}
}

func (s *Session) announceLocked(ctx context.Context, message string) {
	if s.notificationChannelID == 0 {
		return
	}
	if err := s.deps.UI.Announce(ctx, s.notificationChannelID, message); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send announcement")
	}
}

func (s *Session) startProgressLocked() {
	s.stopProgressLocked()
	if s.nowPlaying == nil || s.cfg.ProgressInterval <= 0 {
		return
	}

	notifier := newProgressNotifier(s.cfg.ProgressInterval, s.writer, s.logger)
	notifier.source = func() (progressFrame, frameState) {
		return s.progressFrame(notifier)
	}
	s.progress = notifier
	notifier.start()
}

func (s *Session) stopProgressLocked() {
	if s.progress == nil {
		return
	}
	s.progress.Stop()
	s.progress = nil
}

// progressFrame is the notifier's read-only view of the session.
func (s *Session) progressFrame(notifier *ProgressNotifier) (progressFrame, frameState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.queue.Head()
	if s.closed || s.progress != notifier || s.nowPlaying == nil || head == nil {
		return progressFrame{}, frameEnd
	}
	if s.status == domain.StatusPaused {
		return progressFrame{}, frameSkip
	}
	return s.frameLocked(*head), frameRender
}

// frameLocked snapshots the now-playing view for track. Callers ensure
// nowPlaying is set.
func (s *Session) frameLocked(track domain.Track) progressFrame {
	s.drawSeq++
	return progressFrame{
		handle: *s.nowPlaying,
		view:   s.viewLocked(track),
		seq:    s.drawSeq,
	}
}
