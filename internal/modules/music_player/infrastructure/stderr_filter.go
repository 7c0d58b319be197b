package infrastructure

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// progressMarkers identify the progress chatter yt-dlp and ffmpeg print on
// stderr.
var progressMarkers = []string{"[download]", "ETA", "size=", "bitrate=", "speed="}

// stderrFilter is an io.Writer that splits a process's stderr into lines and
// logs everything that is not progress output.
type stderrFilter struct {
	mu      sync.Mutex
	logger  zerolog.Logger
	pending []byte
}

func newStderrFilter(logger zerolog.Logger) *stderrFilter {
	return &stderrFilter{logger: logger}
}

func (f *stderrFilter) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = append(f.pending, b...)
	for {
		i := bytes.IndexAny(f.pending, "\r\n")
		if i < 0 {
			break
		}
		f.emit(string(f.pending[:i]))
		f.pending = f.pending[i+1:]
	}
	return len(b), nil
}

// Flush logs any trailing partial line.
func (f *stderrFilter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.emit(string(f.pending))
	f.pending = nil
}

func (f *stderrFilter) emit(line string) {
	line = strings.TrimSpace(line)
	if line == "" || isProgressLine(line) {
		return
	}
	f.logger.Warn().Msg(line)
}

func isProgressLine(line string) bool {
	for _, marker := range progressMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
