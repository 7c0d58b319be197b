package infrastructure

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// defaultReapTimeout bounds how long a finished stream waits for both
// processes to exit before it gives up on their exit status.
const defaultReapTimeout = 5 * time.Second

// PipelineConfig contains the external tools the pipeline spawns.
type PipelineConfig struct {
	YtdlpPath   string
	FFmpegPath  string
	ReapTimeout time.Duration
}

// AudioPipeline spawns yt-dlp piped into ffmpeg for each track.
type AudioPipeline struct {
	config PipelineConfig
}

// NewAudioPipeline creates a new AudioPipeline.
func NewAudioPipeline(config PipelineConfig) *AudioPipeline {
	if config.ReapTimeout <= 0 {
		config.ReapTimeout = defaultReapTimeout
	}
	return &AudioPipeline{config: config}
}

// Start spawns both processes and connects yt-dlp's stdout directly to
// ffmpeg's stdin. The returned pipeline produces 48kHz stereo s16le PCM.
func (a *AudioPipeline) Start(ctx context.Context, url string, volume float64) (ports.Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "start pipeline"), domain.ErrSpawnFailure)
	}

	id := uuid.NewString()
	logger := zlog.With().Str("pipeline", id).Logger()

	fetch := exec.Command(a.config.YtdlpPath,
		"-f", "bestaudio",
		"--no-playlist",
		"-q",
		"-o", "-",
		url,
	)
	transcode := exec.Command(a.config.FFmpegPath,
		"-hide_banner",
		"-loglevel", "warning",
		"-i", "pipe:0",
		"-af", "volume="+strconv.FormatFloat(volume, 'f', 2, 64),
		"-f", "s16le",
		"-ar", strconv.Itoa(ports.PCMSampleRate),
		"-ac", strconv.Itoa(ports.PCMChannels),
		"pipe:1",
	)
	fetchStderr := newStderrFilter(logger.With().Str("stage", "yt-dlp").Logger())
	transcodeStderr := newStderrFilter(logger.With().Str("stage", "ffmpeg").Logger())
	fetch.Stderr = fetchStderr
	transcode.Stderr = transcodeStderr

	pipeReader, pipeWriter, err := os.Pipe()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "create pipe"), domain.ErrSpawnFailure)
	}
	fetch.Stdout = pipeWriter
	transcode.Stdin = pipeReader

	stdout, err := transcode.StdoutPipe()
	if err != nil {
		_ = pipeReader.Close()
		_ = pipeWriter.Close()
		return nil, errors.Mark(errors.Wrap(err, "open ffmpeg stdout"), domain.ErrSpawnFailure)
	}

	p := &processPipeline{
		id:          id,
		fetch:       fetch,
		transcode:   transcode,
		reapTimeout: a.config.ReapTimeout,
		reaped:      make(chan struct{}),
		logger:      logger,
		stderr:      []*stderrFilter{fetchStderr, transcodeStderr},
	}

	if err := transcode.Start(); err != nil {
		_ = pipeReader.Close()
		_ = pipeWriter.Close()
		return nil, errors.Mark(errors.Wrap(err, "start ffmpeg"), domain.ErrSpawnFailure)
	}
	if err := fetch.Start(); err != nil {
		_ = pipeReader.Close()
		_ = pipeWriter.Close()
		p.fetch = nil
		p.Cleanup()
		return nil, errors.Mark(errors.Wrap(err, "start yt-dlp"), domain.ErrSpawnFailure)
	}

	// The children hold their own copies now.
	_ = pipeReader.Close()
	_ = pipeWriter.Close()

	p.output = &pipelineOutput{source: stdout, pipeline: p}
	logger.Debug().Str("url", url).Msg("Spawned audio pipeline")
	return p, nil
}

// processPipeline is one running yt-dlp | ffmpeg pair.
type processPipeline struct {
	id        string
	fetch     *exec.Cmd
	transcode *exec.Cmd
	output    *pipelineOutput
	logger    zerolog.Logger
	stderr    []*stderrFilter

	reapTimeout  time.Duration
	reapOnce     sync.Once
	reaped       chan struct{}
	fetchErr     error
	transcodeErr error

	cleanupOnce sync.Once
	killed      bool
	mu          sync.Mutex
}

func (p *processPipeline) ID() string {
	return p.id
}

func (p *processPipeline) Output() io.Reader {
	return p.output
}

// Cleanup kills both processes and reaps them in the background. It never
// blocks on process exit and is safe to call more than once.
func (p *processPipeline) Cleanup() {
	p.cleanupOnce.Do(func() {
		p.mu.Lock()
		p.killed = true
		p.mu.Unlock()

		kill(p.fetch)
		kill(p.transcode)
		p.reap()
		p.logger.Debug().Msg("Cleaned up audio pipeline")
	})
}

func (p *processPipeline) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// reap waits for both processes on a background goroutine, once.
func (p *processPipeline) reap() {
	p.reapOnce.Do(func() {
		go func() {
			defer close(p.reaped)
			if p.transcode != nil {
				p.transcodeErr = p.transcode.Wait()
			}
			if p.fetch != nil {
				p.fetchErr = p.fetch.Wait()
			}
			for _, filter := range p.stderr {
				filter.Flush()
			}
		}()
	})
}

// finish is called when ffmpeg's stdout reaches EOF. It reports whether the
// stream ended cleanly.
func (p *processPipeline) finish() error {
	p.reap()

	select {
	case <-p.reaped:
	case <-time.After(p.reapTimeout):
		p.Cleanup()
		return errors.Mark(errors.New("audio pipeline did not exit"), domain.ErrStreamBroken)
	}

	if p.wasKilled() {
		return io.EOF
	}
	if p.transcodeErr != nil {
		return errors.Mark(errors.Wrap(p.transcodeErr, "ffmpeg"), domain.ErrStreamBroken)
	}
	if !isBenignPipeError(p.fetchErr) {
		return errors.Mark(errors.Wrap(p.fetchErr, "yt-dlp"), domain.ErrStreamBroken)
	}
	return io.EOF
}

// pipelineOutput is ffmpeg's stdout. At EOF it reaps the pipeline and
// surfaces a broken stream as an error.
type pipelineOutput struct {
	source   io.Reader
	pipeline *processPipeline

	once sync.Once
	err  error
}

func (o *pipelineOutput) Read(b []byte) (int, error) {
	n, err := o.source.Read(b)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, io.EOF) && !isBenignPipeError(err) {
		return n, errors.Mark(errors.Wrap(err, "read pcm"), domain.ErrStreamBroken)
	}

	o.once.Do(func() {
		o.err = o.pipeline.finish()
	})
	return n, o.err
}

func kill(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		zlog.Debug().Err(err).Str("process", cmd.Path).Msg("Failed to kill process")
	}
}

// isBenignPipeError reports whether err only says that the other end of a
// pipe went away.
func isBenignPipeError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.Signaled() && status.Signal() == syscall.SIGPIPE
		}
	}
	return false
}
