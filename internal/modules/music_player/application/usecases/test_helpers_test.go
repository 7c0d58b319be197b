package usecases

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/playback"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
)

const (
	testGuildID        = snowflake.ID(1)
	testUserID         = snowflake.ID(10)
	testBotID          = snowflake.ID(11)
	testVoiceChannelID = snowflake.ID(20)
	testTextChannelID  = snowflake.ID(30)
)

func videoURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

type mockSearcher struct {
	candidates []ports.SearchCandidate
	err        error
	lastQuery  string
	lastLimit  int
}

func (m *mockSearcher) Search(_ context.Context, query string, limit int) ([]ports.SearchCandidate, error) {
	m.lastQuery = query
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

type mockProber struct {
	mu     sync.Mutex
	errs   map[string]error
	probed []string
}

func newMockProber() *mockProber {
	return &mockProber{errs: make(map[string]error)}
}

func (m *mockProber) Probe(_ context.Context, url string) (*ports.TrackInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.probed = append(m.probed, url)
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	return &ports.TrackInfo{
		URL:      url,
		Title:    "Title of " + url[strings.LastIndex(url, "=")+1:],
		Duration: 3*time.Minute + 4*time.Second,
	}, nil
}

func (m *mockProber) probedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.probed))
	copy(result, m.probed)
	return result
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockPipeline struct {
	id      string
	url     string
	volume  float64
	mu      sync.Mutex
	cleaned bool
}

func (p *mockPipeline) ID() string        { return p.id }
func (p *mockPipeline) Output() io.Reader { return strings.NewReader("") }

func (p *mockPipeline) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleaned = true
}

func (p *mockPipeline) isCleaned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleaned
}

type mockAudioPipeline struct {
	mu      sync.Mutex
	started []*mockPipeline
}

func (m *mockAudioPipeline) Start(_ context.Context, url string, volume float64) (ports.Pipeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := &mockPipeline{id: "p" + strconv.Itoa(len(m.started)+1), url: url, volume: volume}
	m.started = append(m.started, p)
	return p, nil
}

func (m *mockAudioPipeline) last() *mockPipeline {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.started) == 0 {
		return nil
	}
	return m.started[len(m.started)-1]
}

func (m *mockAudioPipeline) live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.started {
		if !p.isCleaned() {
			count++
		}
	}
	return count
}

type mockVoiceOutput struct {
	channelID snowflake.ID
	mu        sync.Mutex
	done      func(error)
	paused    bool
	closed    bool
}

func (o *mockVoiceOutput) ChannelID() snowflake.ID { return o.channelID }

func (o *mockVoiceOutput) Play(_ io.Reader, done func(error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = done
	o.paused = false
}

func (o *mockVoiceOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
}

func (o *mockVoiceOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = false
}

func (o *mockVoiceOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = nil
}

func (o *mockVoiceOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *mockVoiceOutput) finish(err error) {
	o.mu.Lock()
	done := o.done
	o.done = nil
	o.mu.Unlock()

	if done != nil {
		done(err)
	}
}

type mockVoiceConnector struct {
	mu      sync.Mutex
	joinErr error
	outputs []*mockVoiceOutput
}

func (m *mockVoiceConnector) Join(_ context.Context, _, channelID snowflake.ID) (ports.VoiceOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.joinErr != nil {
		return nil, m.joinErr
	}
	output := &mockVoiceOutput{channelID: channelID}
	m.outputs = append(m.outputs, output)
	return output, nil
}

func (m *mockVoiceConnector) output() *mockVoiceOutput {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outputs) == 0 {
		return nil
	}
	return m.outputs[len(m.outputs)-1]
}

type mockNowPlayingUI struct {
	mu       sync.Mutex
	rendered int
	errors   []string
}

func (m *mockNowPlayingUI) Render(_ context.Context, channelID snowflake.ID, _ ports.NowPlayingView) (*ports.MessageHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered++
	return &ports.MessageHandle{ChannelID: channelID, MessageID: snowflake.ID(500 + m.rendered)}, nil
}

func (m *mockNowPlayingUI) Update(context.Context, ports.MessageHandle, ports.NowPlayingView) error {
	return nil
}

func (m *mockNowPlayingUI) ReportError(_ context.Context, _ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
	return nil
}

func (m *mockNowPlayingUI) Announce(context.Context, snowflake.ID, string) error {
	return nil
}

type mockSuggester struct {
	one       string
	many      []string
	err       error
	lastCount int
}

func (m *mockSuggester) SuggestOne(context.Context, string) (string, error) {
	return m.one, m.err
}

func (m *mockSuggester) SuggestMany(_ context.Context, _ string, count int) ([]string, error) {
	m.lastCount = count
	return m.many, m.err
}

// playerFixture bundles a PlayerService with its mocks.
type playerFixture struct {
	service    *PlayerService
	store      *playback.Store
	voiceState *mockVoiceStateProvider
	clock      *fakeClock
	searcher   *mockSearcher
	prober     *mockProber
	pipelines  *mockAudioPipeline
	voice      *mockVoiceConnector
	ui         *mockNowPlayingUI
}

func newPlayerFixture() *playerFixture {
	f := &playerFixture{
		store:     playback.NewStore(),
		searcher:  &mockSearcher{},
		prober:    newMockProber(),
		pipelines: &mockAudioPipeline{},
		voice:     &mockVoiceConnector{},
		ui:        &mockNowPlayingUI{},
	}

	cfg := playback.DefaultConfig()
	cfg.ProgressInterval = 0
	cfg.VoiceReadyTimeout = time.Second

	f.voiceState = &mockVoiceStateProvider{
		channels: map[snowflake.ID]snowflake.ID{testUserID: testVoiceChannelID},
	}
	f.clock = &fakeClock{now: time.Unix(1_700_000_000, 0)}
	loader := NewTrackLoaderService(f.searcher, f.prober, DefaultMaxProbeAttempts, time.Second)
	f.service = NewPlayerService(f.store, cfg, loader, f.voiceState, f.pipelines, f.voice, f.ui)
	f.service.now = f.clock.Now
	return f
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func playInput(query string) PlayInput {
	return PlayInput{
		GuildID:               testGuildID,
		UserID:                testUserID,
		NotificationChannelID: testTextChannelID,
		Query:                 query,
		Requester:             "<@10>",
	}
}
