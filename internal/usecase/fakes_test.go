package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"DailyCast/internal/domain"
)

type fakeModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []domain.Prompt
}

func (m *fakeModel) Complete(_ context.Context, p domain.Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, p)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *fakeModel) seen() []domain.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Prompt(nil), m.prompts...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.ChatMessage
	err  error
}

func (n *fakeNotifier) SendMessage(_ context.Context, msg domain.ChatMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *fakeNotifier) messages() []domain.ChatMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.ChatMessage(nil), n.sent...)
}

type dispatchCall struct {
	Target string
	Req    domain.AgentRequest
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, target string, req domain.AgentRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{Target: target, Req: req})
	return d.err
}

func (d *fakeDispatcher) dispatched() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

type toggle struct {
	Name   string
	Active bool
}

type fakeActivator struct {
	mu      sync.Mutex
	toggles []toggle
	failOn  map[string]bool
}

func (a *fakeActivator) SetActive(_ context.Context, entry domain.PipelineEntry, active bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toggles = append(a.toggles, toggle{Name: entry.Name, Active: active})
	if a.failOn[entry.Name] {
		return errors.New("workflow host unavailable")
	}
	return nil
}

type fakeRunLog struct {
	mu      sync.Mutex
	records map[string]domain.RunRecord
	err     error
}

func newFakeRunLog() *fakeRunLog {
	return &fakeRunLog{records: map[string]domain.RunRecord{}}
}

func (l *fakeRunLog) Save(_ context.Context, rec domain.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.records[rec.Date] = rec
	return nil
}

func (l *fakeRunLog) Get(_ context.Context, date string) (domain.RunRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[date]
	return rec, ok, nil
}

func (l *fakeRunLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

type fakeCatalog struct {
	sources []domain.Source
}

func (c fakeCatalog) Sources(context.Context) ([]domain.Source, error) {
	return c.sources, nil
}

type fakeSource struct {
	result  domain.IngestResult
	release chan struct{}
	entered chan struct{}
}

func (s *fakeSource) Ingest(ctx context.Context, _ []domain.Source) (domain.IngestResult, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return domain.IngestResult{}, ctx.Err()
		}
	}
	return s.result, nil
}

type fakeSynth struct {
	mu       sync.Mutex
	fail     map[int]bool
	inFlight int
	peak     int
	delay    time.Duration
}

func (s *fakeSynth) Synthesize(ctx context.Context, line domain.SpeakerLine) ([]byte, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail[line.Index] {
		return nil, errors.New("tts quota exceeded")
	}
	return []byte("[" + line.Speaker + ":" + line.Text + "]"), nil
}

type fakeAssets struct {
	intro []byte
}

func (a fakeAssets) Intro(context.Context) ([]byte, error) {
	return a.intro, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.EpisodeAudio
	result    domain.PublishedEpisode
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, audio domain.EpisodeAudio, _ domain.EpisodeScript) (domain.PublishedEpisode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, audio)
	if p.err != nil {
		return domain.PublishedEpisode{}, p.err
	}
	return p.result, nil
}

func (p *fakePublisher) uploads() []domain.EpisodeAudio {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.EpisodeAudio(nil), p.published...)
}

var testHosts = []domain.Host{
	{Tag: "HANS", Name: "Hans", VoiceID: "voice-hans"},
	{Tag: "FLINT", Name: "Flint", VoiceID: "voice-flint"},
}
