package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// restrictionPhrases appear in yt-dlp's error output when the source refuses
// to serve a video.
var restrictionPhrases = []string{
	"sign in to confirm your age",
	"age-restricted",
	"private video",
	"members-only",
	"join this channel",
	"video unavailable",
	"not available in your country",
	"uploader has not made this video available",
	"this video has been removed",
	"premieres in",
	"this live event will begin",
}

// CommandRunner runs an external command and returns its stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Ytdlp resolves tracks by running yt-dlp in metadata-only mode.
type Ytdlp struct {
	path string
	run  CommandRunner
}

// NewYtdlp creates a new Ytdlp. A nil runner uses ExecRunner.
func NewYtdlp(path string, run CommandRunner) *Ytdlp {
	if run == nil {
		run = ExecRunner
	}
	return &Ytdlp{
		path: path,
		run:  run,
	}
}

// ytdlpEntry is the subset of yt-dlp's JSON output we use.
type ytdlpEntry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	WebpageURL   string   `json:"webpage_url"`
	Duration     *float64 `json:"duration"`
	IsLive       bool     `json:"is_live"`
	LiveStatus   string   `json:"live_status"`
	Availability string   `json:"availability"`
}

func (e ytdlpEntry) pageURL() string {
	switch {
	case e.WebpageURL != "":
		return e.WebpageURL
	case strings.HasPrefix(e.URL, "http"):
		return e.URL
	case e.ID != "":
		return "https://www.youtube.com/watch?v=" + e.ID
	default:
		return ""
	}
}

// Search lists up to limit candidates for the query without extracting them.
func (y *Ytdlp) Search(ctx context.Context, query string, limit int) ([]ports.SearchCandidate, error) {
	searchQuery := domain.NewSearchQuery(query)
	stdout, stderr, err := y.run(ctx, y.path,
		"--flat-playlist",
		"--dump-json",
		"--no-warnings",
		searchQuery.YtdlpQuery(limit),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "yt-dlp search: %s", lastLine(stderr))
	}

	var candidates []ports.SearchCandidate
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry ytdlpEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			zlog.Debug().Err(err).Msg("Skipping unparsable yt-dlp search entry")
			continue
		}
		url := entry.pageURL()
		if url == "" {
			continue
		}
		candidates = append(candidates, ports.SearchCandidate{URL: url, Title: entry.Title})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read yt-dlp search output")
	}

	return candidates, nil
}

// Probe extracts full metadata for url. Sources that refuse to serve the
// video produce an error marked domain.ErrAccessRestricted.
func (y *Ytdlp) Probe(ctx context.Context, url string) (*ports.TrackInfo, error) {
	stdout, stderr, err := y.run(ctx, y.path,
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		"--skip-download",
		url,
	)
	if err != nil {
		message := lastLine(stderr)
		wrapped := errors.Wrapf(err, "yt-dlp probe: %s", message)
		if isRestricted(message) {
			return nil, errors.Mark(wrapped, domain.ErrAccessRestricted)
		}
		return nil, wrapped
	}

	var entry ytdlpEntry
	if err := json.Unmarshal(bytes.TrimSpace(firstLine(stdout)), &entry); err != nil {
		return nil, errors.Wrap(err, "parse yt-dlp probe output")
	}

	switch entry.LiveStatus {
	case "is_upcoming", "post_live":
		return nil, errors.Mark(
			errors.Newf("live status %s", entry.LiveStatus),
			domain.ErrAccessRestricted,
		)
	}
	switch entry.Availability {
	case "private", "premium_only", "subscriber_only", "needs_auth":
		return nil, errors.Mark(
			errors.Newf("availability %s", entry.Availability),
			domain.ErrAccessRestricted,
		)
	}

	info := &ports.TrackInfo{
		URL:    entry.pageURL(),
		Title:  entry.Title,
		IsLive: entry.IsLive || entry.LiveStatus == "is_live",
	}
	if info.URL == "" {
		info.URL = url
	}
	if entry.Duration != nil && !info.IsLive {
		info.Duration = time.Duration(*entry.Duration * float64(time.Second))
	}
	return info, nil
}

func isRestricted(message string) bool {
	message = strings.ToLower(message)
	for _, phrase := range restrictionPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}

func firstLine(b []byte) []byte {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i]
	}
	return b
}

// lastLine returns the last non-empty line of yt-dlp's stderr, which holds
// the ERROR message.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}

// Ensure Ytdlp implements the resolver ports.
var (
	_ ports.TrackSearcher = (*Ytdlp)(nil)
	_ ports.TrackProber   = (*Ytdlp)(nil)
)
