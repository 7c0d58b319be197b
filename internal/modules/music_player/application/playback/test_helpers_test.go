package playback

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testVoiceChannelID = snowflake.ID(2)
	testTextChannelID  = snowflake.ID(3)
)

var testTarget = Target{
	VoiceChannelID:        testVoiceChannelID,
	NotificationChannelID: testTextChannelID,
}

func mockTrack(name string) domain.Track {
	return domain.NewTrack("https://www.youtube.com/watch?v="+name, "Track "+name, "3:00", "<@123>")
}

func trackTitles(tracks []domain.Track) []string {
	result := make([]string, len(tracks))
	for i, t := range tracks {
		result[i] = t.Title
	}
	return result
}

// mockPipeline is a pipeline handle that never produces audio.
type mockPipeline struct {
	id       string
	url      string
	volume   float64
	mu       sync.Mutex
	cleanups int
}

func (p *mockPipeline) ID() string { return p.id }

func (p *mockPipeline) Output() io.Reader { return strings.NewReader("") }

func (p *mockPipeline) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanups++
}

func (p *mockPipeline) cleaned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleanups > 0
}

type mockPipelines struct {
	mu       sync.Mutex
	started  []*mockPipeline
	startErr error
	// failURLs makes Start fail for specific URLs.
	failURLs map[string]bool
}

func (m *mockPipelines) Start(_ context.Context, url string, volume float64) (ports.Pipeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startErr != nil || m.failURLs[url] {
		return nil, domain.ErrSpawnFailure
	}
	p := &mockPipeline{
		id:     "pipeline-" + strconv.Itoa(len(m.started)+1),
		url:    url,
		volume: volume,
	}
	m.started = append(m.started, p)
	return p, nil
}

func (m *mockPipelines) all() []*mockPipeline {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*mockPipeline, len(m.started))
	copy(result, m.started)
	return result
}

func (m *mockPipelines) last() *mockPipeline {
	all := m.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

// live counts pipelines that were started and never cleaned up.
func (m *mockPipelines) live() int {
	count := 0
	for _, p := range m.all() {
		if !p.cleaned() {
			count++
		}
	}
	return count
}

type mockOutput struct {
	channelID snowflake.ID
	mu        sync.Mutex
	src       io.Reader
	done      func(error)
	plays     int
	paused    bool
	stops     int
	closes    int
}

func (o *mockOutput) ChannelID() snowflake.ID { return o.channelID }

func (o *mockOutput) Play(src io.Reader, done func(error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.src = src
	o.done = done
	o.plays++
	o.paused = false
}

func (o *mockOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
}

func (o *mockOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = false
}

func (o *mockOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.src = nil
	o.done = nil
	o.stops++
}

func (o *mockOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes++
	return nil
}

// finish simulates the current source ending. It returns false when no
// source is attached.
func (o *mockOutput) finish(err error) bool {
	o.mu.Lock()
	done := o.done
	o.src = nil
	o.done = nil
	o.mu.Unlock()

	if done == nil {
		return false
	}
	done(err)
	return true
}

func (o *mockOutput) isPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

func (o *mockOutput) closeCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

type mockVoice struct {
	mu      sync.Mutex
	joinErr error
	joins   int
	outputs []*mockOutput
}

func (m *mockVoice) Join(_ context.Context, _, channelID snowflake.ID) (ports.VoiceOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.joins++
	if m.joinErr != nil {
		return nil, m.joinErr
	}
	output := &mockOutput{channelID: channelID}
	m.outputs = append(m.outputs, output)
	return output, nil
}

func (m *mockVoice) output() *mockOutput {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outputs) == 0 {
		return nil
	}
	return m.outputs[len(m.outputs)-1]
}

type mockUI struct {
	mu        sync.Mutex
	renders   []ports.NowPlayingView
	updates   []ports.NowPlayingView
	errors    []string
	announces []string
	renderErr error
	updateErr error
	nextID    snowflake.ID
	// hold, when set, runs once inside the next unpaused Update.
	hold func()
}

func (m *mockUI) Render(_ context.Context, channelID snowflake.ID, view ports.NowPlayingView) (*ports.MessageHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.renders = append(m.renders, view)
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.nextID++
	return &ports.MessageHandle{ChannelID: channelID, MessageID: 100 + m.nextID}, nil
}

func (m *mockUI) Update(_ context.Context, _ ports.MessageHandle, view ports.NowPlayingView) error {
	m.mu.Lock()
	hold := m.hold
	if !view.Paused {
		m.hold = nil
	} else {
		hold = nil
	}
	m.mu.Unlock()

	if hold != nil {
		hold()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates = append(m.updates, view)
	return m.updateErr
}

func (m *mockUI) ReportError(_ context.Context, _ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors = append(m.errors, message)
	return nil
}

func (m *mockUI) Announce(_ context.Context, _ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.announces = append(m.announces, message)
	return nil
}

func (m *mockUI) setUpdateErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

// holdNextUpdate blocks the next unpaused Update until release is closed,
// closing entered once it is blocked.
func (m *mockUI) holdNextUpdate(entered chan<- struct{}, release <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold = func() {
		close(entered)
		<-release
	}
}

func (m *mockUI) lastUpdate() (ports.NowPlayingView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.updates) == 0 {
		return ports.NowPlayingView{}, false
	}
	return m.updates[len(m.updates)-1], true
}

func (m *mockUI) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

func (m *mockUI) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockUI) announcements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.announces))
	copy(result, m.announces)
	return result
}

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness wires a store, sessions and mocks together the way the player
// service does.
type harness struct {
	t         *testing.T
	cfg       Config
	store     *Store
	pipelines *mockPipelines
	voice     *mockVoice
	ui        *mockUI
	clock     *mockClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ProgressInterval = 0
	cfg.VoiceReadyTimeout = time.Second

	return &harness{
		t:         t,
		cfg:       cfg,
		store:     NewStore(),
		pipelines: &mockPipelines{failURLs: make(map[string]bool)},
		voice:     &mockVoice{},
		ui:        &mockUI{},
		clock:     newMockClock(),
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Pipelines: h.pipelines,
		Voice:     h.voice,
		UI:        h.ui,
		Now:       h.clock.Now,
		OnFinished: func(guildID snowflake.ID, pipelineID string, err error) {
			if session, ok := h.store.Get(guildID); ok {
				session.Advance(context.Background(), pipelineID, err)
			}
		},
	}
}

func (h *harness) session() *Session {
	return h.store.GetOrCreate(testGuildID, func() *Session {
		return NewSession(testGuildID, h.store, h.cfg, h.deps())
	})
}

func (h *harness) sessionWith(tracks ...domain.Track) *Session {
	h.t.Helper()

	s := h.session()
	for _, tr := range tracks {
		if _, err := s.Enqueue(context.Background(), tr, testTarget); err != nil {
			h.t.Fatalf("enqueue %s: %v", tr.Title, err)
		}
	}
	return s
}

func currentNotifier(s *Session) *ProgressNotifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}
