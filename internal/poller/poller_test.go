package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atxp-dev/atxp-image-demo/internal/domain"
	"github.com/atxp-dev/atxp-image-demo/internal/events"
	"github.com/atxp-dev/atxp-image-demo/internal/platform/imagejob"
	"github.com/atxp-dev/atxp-image-demo/internal/store"
)

// capturePublisher records every published event.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *capturePublisher) stageNames() []string {
	var names []string
	for _, e := range p.all() {
		if se, ok := e.(events.StageEvent); ok {
			names = append(names, se.Stage)
		}
	}
	return names
}

func (p *capturePublisher) countStageStatus(status events.StageStatus) int {
	n := 0
	for _, e := range p.all() {
		if se, ok := e.(events.StageEvent); ok && se.Status == status {
			n++
		}
	}
	return n
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		Interval:      time.Millisecond,
		MaxAttempts:   10,
		ProgressEvery: 2,
	}
}

type pollerFixture struct {
	store   *store.TaskStore
	pub     *capturePublisher
	emitter *events.StageEmitter
	taskID  uuid.UUID
}

func newFixture(t *testing.T, client imagejob.JobClient, cfg Config) (*Poller, *pollerFixture) {
	t.Helper()

	taskStore := store.NewTaskStore(testLogger())
	task := taskStore.Create("a sunset")
	taskStore.UpdateStatus(task.ID, domain.TaskStatusProcessing,
		store.WithExternalTaskID("ext-1"))

	pub := &capturePublisher{}
	emitter := events.NewStageEmitter(pub, uuid.New(), testLogger())

	p := New(taskStore, client, emitter, pub, cfg, testLogger(),
		task.ID, "ext-1", "token")

	return p, &pollerFixture{store: taskStore, pub: pub, emitter: emitter, taskID: task.ID}
}

func TestPoller_SuccessWithStore(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{status: imagejob.JobStatus{State: imagejob.JobStateProcessing}},
			{status: imagejob.JobStatus{State: imagejob.JobStateProcessing}},
			{status: imagejob.JobStatus{State: imagejob.JobStateCompleted, URL: "https://tmp/img.png"}},
		},
		stored: imagejob.StoredObject{Locator: "https://files/img.png", Name: "img.png"},
	}

	p, fx := newFixture(t, client, testConfig())
	state := p.Run(context.Background())

	assert.Equal(t, StateSucceeded, state)

	task, err := fx.store.Get(fx.taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, "https://files/img.png", task.ResultURL)
	assert.Equal(t, "img.png", task.ResultName)

	names := fx.pub.stageNames()
	assert.Equal(t, []string{
		events.StageProcessing, // attempt 2, ProgressEvery=2
		events.StageImageCompleted,
		events.StageStoringFile,
		events.StageCompleted,
	}, names)
	assert.Equal(t, 1, fx.pub.countStageStatus(events.StatusFinal))
	assert.True(t, fx.emitter.Terminated())
}

func TestPoller_StoreFailureFallsBackToOriginalURL(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{status: imagejob.JobStatus{State: imagejob.JobStateCompleted, URL: "https://tmp/img.png"}},
		},
		storeErr: errors.New("file store unavailable"),
	}

	p, fx := newFixture(t, client, testConfig())
	state := p.Run(context.Background())

	assert.Equal(t, StateSucceeded, state)

	// The task still completes, pointing at the original URL.
	task, err := fx.store.Get(fx.taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, "https://tmp/img.png", task.ResultURL)

	names := fx.pub.stageNames()
	assert.Contains(t, names, events.StageStorageWarning)
	assert.Equal(t, events.StageCompleted, names[len(names)-1])
	assert.Equal(t, 1, fx.pub.countStageStatus(events.StatusFinal))
	assert.Equal(t, 0, fx.pub.countStageStatus(events.StatusError))
}

func TestPoller_ExternalFailure(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{status: imagejob.JobStatus{State: imagejob.JobStateProcessing}},
			{status: imagejob.JobStatus{State: imagejob.JobStateFailed}},
		},
	}

	p, fx := newFixture(t, client, testConfig())
	state := p.Run(context.Background())

	assert.Equal(t, StateFailed, state)

	task, err := fx.store.Get(fx.taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, task.Status)

	// Exactly one terminal error event, nothing after it.
	assert.Equal(t, 1, fx.pub.countStageStatus(events.StatusError))
	names := fx.pub.stageNames()
	assert.Equal(t, events.StageGenerationError, names[len(names)-1])
}

func TestPoller_TransientErrorsAreRetried(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{err: errors.New("connection reset")},
			{err: errors.New("timeout")},
			{status: imagejob.JobStatus{State: imagejob.JobStateCompleted, URL: "https://tmp/img.png"}},
		},
		stored: imagejob.StoredObject{Locator: "https://files/img.png", Name: "img.png"},
	}

	p, fx := newFixture(t, client, testConfig())
	state := p.Run(context.Background())

	assert.Equal(t, StateSucceeded, state)
	assert.Equal(t, 3, client.statusCallCount())
	// Transient faults never surface as error events.
	assert.Equal(t, 0, fx.pub.countStageStatus(events.StatusError))
}

func TestPoller_Timeout(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{status: imagejob.JobStatus{State: imagejob.JobStateProcessing}},
		},
	}

	cfg := testConfig()
	cfg.MaxAttempts = 3
	p, fx := newFixture(t, client, cfg)
	state := p.Run(context.Background())

	assert.Equal(t, StateTimedOut, state)
	assert.Equal(t, 3, client.statusCallCount())

	task, err := fx.store.Get(fx.taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, task.Status)

	names := fx.pub.stageNames()
	assert.Equal(t, events.StageTimeout, names[len(names)-1])
	assert.Equal(t, 1, fx.pub.countStageStatus(events.StatusError))
}

func TestPoller_StopsWhenTaskVanishes(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{status: imagejob.JobStatus{State: imagejob.JobStateProcessing}},
		},
	}

	p, fx := newFixture(t, client, testConfig())
	fx.store.Discard(fx.taskID)

	state := p.Run(context.Background())

	assert.Equal(t, StateAbandoned, state)
	assert.Equal(t, 0, client.statusCallCount())
	assert.Empty(t, fx.pub.all())
}

func TestPoller_CancellationStopsLoop(t *testing.T) {
	t.Parallel()

	client := &mockJobClient{
		statusReplies: []statusReply{
			{status: imagejob.JobStatus{State: imagejob.JobStateProcessing}},
		},
	}

	cfg := testConfig()
	cfg.Interval = time.Hour // first tick never arrives
	p, _ := newFixture(t, client, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan State, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case state := <-done:
		assert.Equal(t, StateAbandoned, state)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}
