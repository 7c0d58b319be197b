package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

type frameState int

const (
	frameRender frameState = iota // redraw with the frame
	frameSkip                     // paused, nothing to redraw
	frameEnd                      // session gone, stop ticking
)

type progressFrame struct {
	handle ports.MessageHandle
	view   ports.NowPlayingView
	// seq orders frames; it is taken under the session lock.
	seq uint64
}

// frameWriter serialises edits of a session's now-playing message. A frame
// older than the last one written is dropped, so a tick read before a pause
// cannot land after the paused view.
type frameWriter struct {
	ui ports.NowPlayingUI

	mu   sync.Mutex
	last uint64
}

func (w *frameWriter) write(ctx context.Context, frame progressFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if frame.seq <= w.last {
		return nil
	}
	w.last = frame.seq
	return w.ui.Update(ctx, frame.handle, frame.view)
}

// ProgressNotifier periodically redraws the now-playing message of one
// session while it is playing.
type ProgressNotifier struct {
	interval time.Duration
	writer   *frameWriter
	logger   zerolog.Logger
	source   func() (progressFrame, frameState)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newProgressNotifier(interval time.Duration, writer *frameWriter, logger zerolog.Logger) *ProgressNotifier {
	return &ProgressNotifier{
		interval: interval,
		writer:   writer,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (n *ProgressNotifier) start() {
	go n.run()
}

// Stop ends the ticker. It never blocks, so it is safe to call while the
// session lock is held; use Done to wait for the goroutine to exit.
func (n *ProgressNotifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.stop)
	})
}

// Done is closed once the ticker goroutine has exited.
func (n *ProgressNotifier) Done() <-chan struct{} {
	return n.done
}

func (n *ProgressNotifier) run() {
	defer close(n.done)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
		}

		frame, state := n.source()
		switch state {
		case frameEnd:
			return
		case frameSkip:
			continue
		}

		if !n.tick(frame) {
			return
		}
	}
}

// tick redraws one frame and reports whether ticking should continue.
func (n *ProgressNotifier) tick(frame progressFrame) bool {
	ctx, cancel := context.WithTimeout(context.Background(), n.interval)
	defer cancel()

	err := n.writer.write(ctx, frame)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrUIGone):
		n.logger.Debug().Msg("Now playing message deleted, stopping progress updates")
		return false
	case errors.Is(err, domain.ErrUIPermissionDenied):
		n.logger.Error().Err(err).Msg("Missing permissions to edit now playing message")
		return false
	default:
		n.logger.Debug().Err(err).Msg("Transient progress update failure")
		return true
	}
}
