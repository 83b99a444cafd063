package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyCast/internal/digest"
	"DailyCast/internal/domain"
)

var testDay = time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)

const curatorReply = "```json\n{\"headlines\":[{\"title\":\"A\"}]}\n```"

type pipelineFixture struct {
	model      *fakeModel
	source     *fakeSource
	synth      *fakeSynth
	publisher  *fakePublisher
	runLog     *fakeRunLog
	notifier   *fakeNotifier
	dispatcher *fakeDispatcher
}

func newPipelineFixture() *pipelineFixture {
	return &pipelineFixture{
		model: &fakeModel{replies: []string{curatorReply, writerReply}},
		source: &fakeSource{result: domain.IngestResult{
			Stories: []domain.Story{{Title: "A", URL: "https://a.test/1", Source: "HN", Tier: 1}},
			Total:   1,
		}},
		synth:      &fakeSynth{},
		publisher:  &fakePublisher{result: domain.PublishedEpisode{ID: "1234", AudioURL: "https://cdn.test/1234.mp3"}},
		runLog:     newFakeRunLog(),
		notifier:   &fakeNotifier{},
		dispatcher: &fakeDispatcher{},
	}
}

func (f *pipelineFixture) pipeline() *Pipeline {
	p := NewPipeline(PipelineDeps{
		Catalog:          fakeCatalog{sources: []domain.Source{{Name: "HN", Type: "rss", Active: true}}},
		Source:           f.source,
		Curator:          NewCurator(f.model, "curate", testShow),
		Writer:           NewWriter(f.model, "write", testShow),
		Synthesizer:      f.synth,
		Assets:           fakeAssets{intro: []byte("INTRO")},
		Publisher:        f.publisher,
		RunLog:           f.runLog,
		Notifier:         f.notifier,
		Dispatcher:       f.dispatcher,
		Digest:           digest.New(testShow.Title),
		Show:             testShow,
		DigestChatID:     "100",
		SynthesisWorkers: 2,
		DownstreamTarget: "cfo",
		Logger:           slog.New(slog.DiscardHandler),
	})
	p.now = func() time.Time { return testDay.Add(time.Minute) }
	return p
}

func TestPipelineRunPublishesAndRecords(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	rec, err := f.pipeline().Run(context.Background(), testDay)
	require.NoError(t, err)

	require.Equal(t, domain.RunRecord{
		Date:            "2026-10-19",
		RunAt:           testDay.Add(time.Minute),
		EpisodeTitle:    "Agents Everywhere",
		StoryCount:      3,
		StoriesIngested: 1,
		EpisodeID:       "1234",
		AudioURL:        "https://cdn.test/1234.mp3",
		Status:          domain.RunSuccess,
	}, rec)

	saved, ok, err := f.runLog.Get(context.Background(), "2026-10-19")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, saved)

	uploads := f.publisher.uploads()
	require.Len(t, uploads, 1)
	require.Equal(t, "circuit-breakers-2026-10-19.mp3", uploads[0].FileName)
	require.True(t, uploads[0].HasIntro)
	require.Equal(t, "INTRO[HANS:Welcome back.][FLINT:Big day for agents.]", string(uploads[0].Data))

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "100", msgs[0].ChatID)
	require.True(t, msgs[0].Markdown)
	require.True(t, strings.Contains(msgs[0].Text, "Agents Everywhere"))
	require.Contains(t, msgs[0].Text, "https://cdn.test/1234.mp3")

	require.Equal(t, []dispatchCall{{Target: "cfo", Req: domain.AgentRequest{ChatID: "100"}}}, f.dispatcher.dispatched())
}

func TestPipelinePublishFailureLeavesNoRecord(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.publisher.err = errors.New("buzzsprout 503")

	_, err := f.pipeline().Run(context.Background(), testDay)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StagePublish, stageErr.Stage)

	require.Zero(t, f.runLog.count())
	require.Empty(t, f.notifier.messages())
	require.Empty(t, f.dispatcher.dispatched())
}

func TestPipelineSynthesisFailurePublishesNothing(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.synth.fail = map[int]bool{1: true}

	_, err := f.pipeline().Run(context.Background(), testDay)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageSynthesize, stageErr.Stage)
	require.Empty(t, f.publisher.uploads())
	require.Zero(t, f.runLog.count())
}

func TestPipelineCurationFailureStopsEarly(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.model.replies = []string{"I could not find anything newsworthy."}

	_, err := f.pipeline().Run(context.Background(), testDay)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageCurate, stageErr.Stage)
	require.Len(t, f.model.seen(), 1, "writer must not be called")
}

func TestPipelineLogFailureSkipsDownstream(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.runLog.err = errors.New("disk full")

	_, err := f.pipeline().Run(context.Background(), testDay)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageLog, stageErr.Stage)
	require.Empty(t, f.dispatcher.dispatched())
}

func TestPipelineDigestFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.notifier.err = errors.New("telegram down")

	_, err := f.pipeline().Run(context.Background(), testDay)
	require.NoError(t, err)
	require.Equal(t, 1, f.runLog.count())
	require.Len(t, f.dispatcher.dispatched(), 1)
}

func TestPipelineRejectsOverlappingRun(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.source.entered = make(chan struct{})
	f.source.release = make(chan struct{})
	p := f.pipeline()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = p.Run(context.Background(), testDay)
	}()

	<-f.source.entered
	_, err := p.Run(context.Background(), testDay)
	require.ErrorIs(t, err, ErrRunInProgress)

	close(f.source.release)
	wg.Wait()
	require.NoError(t, firstErr)
}

const proseOnlyReply = "Just prose, nobody speaking.\n\n```json\n" +
	`{"episode_title":"Quiet Day","story_count":0}` +
	"\n```\n"

func TestPipelineZeroLineScriptPublishesIntroOnly(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.model.replies = []string{curatorReply, proseOnlyReply}

	rec, err := f.pipeline().Run(context.Background(), testDay)
	require.NoError(t, err)
	require.Equal(t, "Quiet Day", rec.EpisodeTitle)

	uploads := f.publisher.uploads()
	require.Len(t, uploads, 1)
	require.Equal(t, 0, uploads[0].LineCount)
	require.Equal(t, "INTRO", string(uploads[0].Data))
}

func TestPipelineZeroLineScriptWithoutIntroHandsEmptyAudioToPublisher(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.model.replies = []string{curatorReply, proseOnlyReply}
	f.publisher.err = errors.New("buzzsprout: empty audio")
	p := f.pipeline()
	p.deps.Assets = fakeAssets{}

	_, err := p.Run(context.Background(), testDay)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StagePublish, stageErr.Stage)

	uploads := f.publisher.uploads()
	require.Len(t, uploads, 1)
	require.Empty(t, uploads[0].Data)
	require.False(t, uploads[0].HasIntro)
	require.Zero(t, f.runLog.count())
}

type stubLock struct {
	held bool
	err  error
}

func (l *stubLock) TryLock() (bool, error) { return !l.held, l.err }
func (l *stubLock) Unlock() error          { return nil }

func TestPipelineHonoursProcessLock(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	p := f.pipeline()
	p.deps.Lock = &stubLock{held: true}

	_, err := p.Run(context.Background(), testDay)
	require.ErrorIs(t, err, ErrRunInProgress)
	require.Empty(t, f.model.seen())
}

type gateFunc func(string) bool

func (g gateFunc) Active(name string) bool { return g(name) }

type captureDriver struct {
	job func(time.Time)
}

func (d *captureDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *captureDriver) Stop(context.Context) error { return nil }

func TestSchedulerSkipsPausedPipeline(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	driver := &captureDriver{}
	paused := true
	sched := NewScheduler(driver, f.pipeline(), gateFunc(func(name string) bool {
		require.Equal(t, "daily-pipeline", name)
		return !paused
	}), "daily-pipeline", slog.New(slog.DiscardHandler))

	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(testDay)
	require.Empty(t, f.model.seen())

	paused = false
	driver.job(testDay)
	require.Equal(t, 1, f.runLog.count())
	require.NoError(t, sched.Stop(context.Background()))
}

func TestSchedulerLogsFailedRun(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	p := f.pipeline()
	p.deps.Lock = &stubLock{err: errors.New("lock file is read-only")}

	var logs bytes.Buffer
	driver := &captureDriver{}
	sched := NewScheduler(driver, p, nil, "daily-pipeline", slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, sched.Start(context.Background()))

	driver.job(testDay)
	require.Contains(t, logs.String(), "scheduled run failed")
	require.Contains(t, logs.String(), "lock file is read-only")
	require.Zero(t, f.runLog.count())
}
