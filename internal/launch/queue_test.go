package launch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pump-fun-launcher-go/internal/logger"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner reports every dispatched ID on a channel
type recordingRunner struct {
	mu      sync.Mutex
	runs    []string
	ch      chan string
	outcome func(id string) *Outcome
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{ch: make(chan string, 16)}
}

func (r *recordingRunner) Run(_ context.Context, id string) (*Outcome, error) {
	r.mu.Lock()
	r.runs = append(r.runs, id)
	r.mu.Unlock()
	r.ch <- id

	if r.outcome != nil {
		return r.outcome(id), nil
	}
	return &Outcome{RequestID: id, Success: true}, nil
}

func (r *recordingRunner) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.runs...)
}

func quietLogger() *logger.Logger {
	log, err := logger.NewLogger(logger.LogConfig{Level: "panic", Format: "text"})
	if err != nil {
		panic(err)
	}
	return log
}

func newTestQueue(t *testing.T, runner Runner, cfg QueueConfig, clk clock.Clock) (*Queue, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "queue.json"))
	q, err := NewQueue(store, runner, cfg, clk, quietLogger())
	require.NoError(t, err)
	return q, store
}

func TestEnqueue_Idempotent(t *testing.T) {
	q, _ := newTestQueue(t, newRecordingRunner(), QueueConfig{}, clock.NewMock())

	require.NoError(t, q.Enqueue("req-1"))
	require.NoError(t, q.Enqueue("req-1"))
	require.NoError(t, q.Enqueue("req-2"))
	require.NoError(t, q.Enqueue("req-1"))

	snap := q.Snapshot()
	assert.Equal(t, 2, snap.PendingCount)
}

func TestEnqueue_PersistsImmediately(t *testing.T) {
	runner := newRecordingRunner()
	q, store := newTestQueue(t, runner, QueueConfig{}, clock.NewMock())

	require.NoError(t, q.Enqueue("req-1"))
	require.NoError(t, q.Enqueue("req-2"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1", "req-2"}, state.Pending)
}

func TestQueue_RestoresAcrossRestart(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "queue.json"))

	q1, err := NewQueue(store, newRecordingRunner(), QueueConfig{}, clock.NewMock(), quietLogger())
	require.NoError(t, err)
	require.NoError(t, q1.Enqueue("survivor"))

	q2, err := NewQueue(store, newRecordingRunner(), QueueConfig{}, clock.NewMock(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, q2.Snapshot().PendingCount)
}

func TestPopHead_PersistsBeforeDispatch(t *testing.T) {
	q, store := newTestQueue(t, newRecordingRunner(), QueueConfig{MaxPerHour: 10}, clock.NewMock())
	require.NoError(t, q.Enqueue("req-1"))
	require.NoError(t, q.Enqueue("req-2"))

	id := q.popHead()
	assert.Equal(t, "req-1", id, "FIFO order")

	// The shrunken queue and the attempt charge are on disk before any
	// network work happens, so a crash mid-launch cannot replay it.
	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"req-2"}, state.Pending)
	assert.Equal(t, 1, state.LaunchedThisHour)
}

func TestDispatch_ChargesBudgetOnlyForSettledSpend(t *testing.T) {
	runner := newRecordingRunner()
	runner.outcome = func(id string) *Outcome {
		if id == "fail-spent" {
			// Failed after a confirmed buy: the spend is real.
			return &Outcome{RequestID: id, Success: false, SpentSOL: 0.03, Reason: "sell failed"}
		}
		if id == "fail-clean" {
			return &Outcome{RequestID: id, Success: false, Reason: "submit failed"}
		}
		return &Outcome{RequestID: id, Success: true, SpentSOL: 0.01, ReceivedSOL: 0.009}
	}

	q, _ := newTestQueue(t, runner, QueueConfig{}, clock.NewMock())
	ctx := context.Background()

	q.dispatch(ctx, "ok")
	q.dispatch(ctx, "fail-spent")
	q.dispatch(ctx, "fail-clean")

	snap := q.Snapshot()
	assert.Equal(t, 3, snap.TotalProcessed)
	assert.Equal(t, 2, snap.TotalFailed)
	assert.InDelta(t, 0.04, snap.SpentTodaySOL, 1e-9, "only settled SOL counts")
}

func TestGateWait_HourlyLimit(t *testing.T) {
	mock := clock.NewMock()
	q, _ := newTestQueue(t, newRecordingRunner(), QueueConfig{MaxPerHour: 2}, mock)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	require.NoError(t, q.Enqueue("c"))

	for i := 0; i < 2; i++ {
		wait, _ := q.gateWait()
		require.Zero(t, wait)
		q.popHead()
	}

	wait, reason := q.gateWait()
	assert.Positive(t, wait)
	assert.Equal(t, "hourly rate limit", reason)

	// Once the hour rolls over the counter resets and dispatch is clear.
	mock.Add(61 * time.Minute)
	wait, _ = q.gateWait()
	assert.Zero(t, wait)
	assert.Zero(t, q.Snapshot().LaunchedThisHour)
}

func TestGateWait_DailyBudget(t *testing.T) {
	mock := clock.NewMock()
	runner := newRecordingRunner()
	runner.outcome = func(id string) *Outcome {
		return &Outcome{RequestID: id, Success: true, SpentSOL: 0.6}
	}
	q, _ := newTestQueue(t, runner, QueueConfig{DailyBudgetSOL: 1.0}, mock)

	q.dispatch(context.Background(), "first")
	wait, _ := q.gateWait()
	assert.Zero(t, wait, "0.6 of 1.0 spent, still clear")

	q.dispatch(context.Background(), "second")
	wait, reason := q.gateWait()
	assert.Positive(t, wait)
	assert.Equal(t, "daily budget", reason)

	mock.Add(25 * time.Hour)
	wait, _ = q.gateWait()
	assert.Zero(t, wait)
	assert.Zero(t, q.Snapshot().SpentTodaySOL)
}

func TestRun_DispatchesInOrder(t *testing.T) {
	runner := newRecordingRunner()
	q, _ := newTestQueue(t, runner, QueueConfig{MaxPerHour: 10}, clock.New())

	require.NoError(t, q.Enqueue("first"))
	require.NoError(t, q.Enqueue("second"))
	require.NoError(t, q.Enqueue("third"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-runner.ch:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for dispatch")
		}
	}
	cancel()
	<-done

	assert.Equal(t, []string{"first", "second", "third"}, runner.ids())
}

func TestRun_InterLaunchDelayPacesConsecutiveLaunches(t *testing.T) {
	mock := clock.NewMock()
	runner := newRecordingRunner()
	q, _ := newTestQueue(t, runner, QueueConfig{MaxPerHour: 10, InterLaunchDelay: 45 * time.Second}, mock)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	select {
	case id := <-runner.ch:
		require.Equal(t, "a", id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first launch")
	}

	// The wake token left by enqueuing "b" must not cut the pacing delay
	// short; with the clock frozen the second launch can never start.
	select {
	case id := <-runner.ch:
		t.Fatalf("launch %s dispatched before the inter-launch delay elapsed", id)
	case <-time.After(100 * time.Millisecond):
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case id := <-runner.ch:
			assert.Equal(t, "b", id)
			cancel()
			<-done
			return
		case <-deadline:
			t.Fatal("inter-launch delay never elapsed")
		default:
			time.Sleep(2 * time.Millisecond)
			mock.Add(30 * time.Second)
		}
	}
}

func TestRun_ContinuesWhenHeadPersistFails(t *testing.T) {
	runner := newRecordingRunner()
	statePath := filepath.Join(t.TempDir(), "queue.json")
	q, err := NewQueue(NewStore(statePath), runner, QueueConfig{MaxPerHour: 10}, clock.New(), quietLogger())
	require.NoError(t, err)

	require.NoError(t, q.Enqueue("first"))
	require.NoError(t, q.Enqueue("second"))

	// Make every subsequent save fail by replacing the state file with a
	// directory. Processing must carry on with in-memory state.
	require.NoError(t, os.Remove(statePath))
	require.NoError(t, os.Mkdir(statePath, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	for _, want := range []string{"first", "second"} {
		select {
		case id := <-runner.ch:
			assert.Equal(t, want, id)
		case <-time.After(5 * time.Second):
			t.Fatalf("queue stalled before dispatching %s", want)
		}
	}
	cancel()
	<-done
}

func TestRun_HourlyLimitGatesThenReleases(t *testing.T) {
	mock := clock.NewMock()
	runner := newRecordingRunner()
	q, _ := newTestQueue(t, runner, QueueConfig{MaxPerHour: 2}, mock)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	require.NoError(t, q.Enqueue("c"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	waitFor := func(want string) {
		deadline := time.After(10 * time.Second)
		for {
			select {
			case id := <-runner.ch:
				require.Equal(t, want, id)
				return
			case <-deadline:
				t.Fatalf("timed out waiting for %s", want)
			default:
				// Drive the mock clock forward so gate sleeps elapse. The
				// real-time pause lets the loop reach its next timer first.
				time.Sleep(2 * time.Millisecond)
				mock.Add(time.Minute)
			}
		}
	}

	waitFor("a")
	waitFor("b")

	// Third launch is held until the hourly window rolls over; advancing the
	// clock past it must release the queue without any new enqueue.
	waitFor("c")

	cancel()
	<-done
}

func TestRun_PauseBlocksDispatch(t *testing.T) {
	runner := newRecordingRunner()
	q, _ := newTestQueue(t, runner, QueueConfig{MaxPerHour: 10}, clock.New())

	q.Pause()
	require.NoError(t, q.Enqueue("held"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	select {
	case id := <-runner.ch:
		t.Fatalf("paused queue dispatched %s", id)
	case <-time.After(200 * time.Millisecond):
	}

	q.Resume()

	select {
	case id := <-runner.ch:
		assert.Equal(t, "held", id)
	case <-time.After(5 * time.Second):
		t.Fatal("resume did not release the queue")
	}

	cancel()
	<-done
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	q, _ := newTestQueue(t, newRecordingRunner(), QueueConfig{}, clock.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
