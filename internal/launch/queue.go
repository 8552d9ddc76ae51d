package launch

import (
	"context"
	"errors"
	"sync"
	"time"

	"pump-fun-launcher-go/internal/config"
	"pump-fun-launcher-go/internal/logger"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// Queue lifecycle states
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
)

// gate reasons
const (
	gateHourly = "hourly rate limit"
	gateBudget = "daily budget"
)

// QueueConfig holds the queue's pacing limits
type QueueConfig struct {
	MaxPerHour       int
	DailyBudgetSOL   float64
	InterLaunchDelay time.Duration
}

// StatusSnapshot is a point-in-time view of the queue for operators
type StatusSnapshot struct {
	Status           Status    `json:"status"`
	PendingCount     int       `json:"pending_count"`
	Processing       string    `json:"processing,omitempty"`
	LaunchedThisHour int       `json:"launched_this_hour"`
	HourResetsAt     time.Time `json:"hour_resets_at"`
	SpentTodaySOL    float64   `json:"spent_today_sol"`
	DayResetsAt      time.Time `json:"day_resets_at"`
	TotalProcessed   int       `json:"total_processed"`
	TotalFailed      int       `json:"total_failed"`
}

// Queue sequences launches one at a time under an hourly rate limit and a
// daily SOL budget. State is persisted across restarts; the head is popped
// and saved before any network work so a crash cannot replay a launch.
type Queue struct {
	mu         sync.Mutex
	state      *State
	store      *Store
	runner     Runner
	logger     *logger.Logger
	clk        clock.Clock
	cfg        QueueConfig
	status     Status
	paused     bool
	processing string
	wake       chan struct{}
}

// NewQueue restores persisted state and builds a queue around runner. Pass
// clock.New() outside of tests.
func NewQueue(store *Store, runner Runner, cfg QueueConfig, clk clock.Clock, log *logger.Logger) (*Queue, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}

	if len(state.Pending) > 0 {
		log.WithField("pending", len(state.Pending)).Info("📋 Restored launch queue")
	}

	return &Queue{
		state:  state,
		store:  store,
		runner: runner,
		logger: log,
		clk:    clk,
		cfg:    cfg,
		status: StatusIdle,
		wake:   make(chan struct{}, 1),
	}, nil
}

// Enqueue appends a request ID. Duplicates of a pending or in-flight ID are
// ignored so retried submissions cannot double-launch.
func (q *Queue) Enqueue(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if id == q.processing {
		return nil
	}
	for _, pending := range q.state.Pending {
		if pending == id {
			return nil
		}
	}

	q.state.Pending = append(q.state.Pending, id)
	if err := q.persistLocked(); err != nil {
		return err
	}

	q.logger.WithFields(logrus.Fields{
		"request_id": id,
		"pending":    len(q.state.Pending),
	}).Info("➕ Launch request enqueued")

	q.signal()
	return nil
}

// Pause stops dispatching after the current launch finishes. The launch in
// flight is never interrupted.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	q.logger.Info("⏸️ Launch queue paused")
}

// Resume lifts a pause
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.logger.Info("▶️ Launch queue resumed")
	q.signal()
}

// Snapshot reports the queue's current state
func (q *Queue) Snapshot() StatusSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return StatusSnapshot{
		Status:           q.status,
		PendingCount:     len(q.state.Pending),
		Processing:       q.processing,
		LaunchedThisHour: q.state.LaunchedThisHour,
		HourResetsAt:     q.state.HourResetsAt,
		SpentTodaySOL:    q.state.SpentTodaySOL,
		DayResetsAt:      q.state.DayResetsAt,
		TotalProcessed:   q.state.TotalProcessed,
		TotalFailed:      q.state.TotalFailed,
	}
}

// Run drives the queue until ctx is cancelled. One launch at a time; pause
// and cancellation are observed between iterations, never mid-launch.
func (q *Queue) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if q.isPaused() {
			q.setStatus(StatusPaused)
			if err := q.waitForSignal(ctx); err != nil {
				return err
			}
			continue
		}

		if !q.hasPending() {
			q.setStatus(StatusIdle)
			if err := q.waitForSignal(ctx); err != nil {
				return err
			}
			continue
		}

		if wait, reason := q.gateWait(); wait > 0 {
			q.logGateWait(reason, wait)
			if err := q.sleepSliced(ctx, wait, true); err != nil {
				return err
			}
			continue
		}

		id := q.popHead()

		q.setStatus(StatusProcessing)
		q.dispatch(ctx, id)
		q.setStatus(StatusIdle)

		// Pacing between launches is not a wait for work, so a wake from a
		// concurrent Enqueue must not cut it short.
		if q.cfg.InterLaunchDelay > 0 {
			if err := q.sleepSliced(ctx, q.cfg.InterLaunchDelay, false); err != nil {
				return err
			}
		}
	}
}

// popHead removes the head and persists the shrunken queue before any
// network call, and charges the hourly counter for the attempt whether or
// not the launch ends up succeeding. A persistence failure is flagged but
// never stops processing; the in-memory state stays authoritative.
func (q *Queue) popHead() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.resetWindowsLocked(q.clk.Now())

	id := q.state.Pending[0]
	q.state.Pending = q.state.Pending[1:]
	q.state.LaunchedThisHour++
	q.processing = id

	if err := q.persistLocked(); err != nil {
		q.logger.LogQueuePersistError(err)
	}
	return id
}

func (q *Queue) dispatch(ctx context.Context, id string) {
	q.logger.LogLaunchStarted(id, q.Snapshot().PendingCount)

	outcome, err := q.runner.Run(ctx, id)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.processing = ""
	q.state.TotalProcessed++

	switch {
	case err != nil:
		q.state.TotalFailed++
		q.logger.LogLaunchFailed(id, err)
	case !outcome.Success:
		q.state.TotalFailed++
		q.logger.LogLaunchFailed(id, errors.New(outcome.Reason))
	default:
		q.logger.LogLaunchSuccess(id, outcome.Mint, outcome.SpentSOL, outcome.ReceivedSOL)
	}

	// Only settled spend counts against the budget. A failed launch may
	// still have spent SOL on a confirmed buy, and that spend is real.
	if outcome != nil && outcome.SpentSOL > 0 {
		q.state.SpentTodaySOL += outcome.SpentSOL
	}

	if perr := q.persistLocked(); perr != nil {
		q.logger.LogQueuePersistError(perr)
	}
}

// gateWait returns how long dispatch must hold off, zero when clear. The
// wait is an estimate only; callers must re-evaluate after sleeping.
func (q *Queue) gateWait() (time.Duration, string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clk.Now()
	q.resetWindowsLocked(now)

	if q.cfg.MaxPerHour > 0 && q.state.LaunchedThisHour >= q.cfg.MaxPerHour {
		return q.state.HourResetsAt.Sub(now), gateHourly
	}
	if q.cfg.DailyBudgetSOL > 0 && q.state.SpentTodaySOL >= q.cfg.DailyBudgetSOL {
		return q.state.DayResetsAt.Sub(now), gateBudget
	}
	return 0, ""
}

func (q *Queue) resetWindowsLocked(now time.Time) {
	if q.state.HourResetsAt.IsZero() || !now.Before(q.state.HourResetsAt) {
		q.state.LaunchedThisHour = 0
		q.state.HourResetsAt = now.Add(time.Hour)
	}
	if q.state.DayResetsAt.IsZero() || !now.Before(q.state.DayResetsAt) {
		q.state.SpentTodaySOL = 0
		q.state.DayResetsAt = now.Add(24 * time.Hour)
	}
}

// sleepSliced sleeps in bounded slices so a pause, resume or counter reset
// never goes unnoticed for long. Gate waits pass wakeable so new work can
// interrupt them; the inter-launch delay does not, it must run its full
// course regardless of pending wake tokens.
func (q *Queue) sleepSliced(ctx context.Context, total time.Duration, wakeable bool) error {
	wake := q.wake
	if !wakeable {
		wake = nil
	}
	maxSlice := time.Duration(config.MaxGateRecheckIntervalSec) * time.Second
	remaining := total
	for remaining > 0 {
		slice := remaining
		if slice > maxSlice {
			slice = maxSlice
		}
		timer := q.clk.Timer(slice)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-wake:
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if q.isPaused() {
			return nil
		}
		remaining -= slice
	}
	return nil
}

func (q *Queue) waitForSignal(ctx context.Context) error {
	timer := q.clk.Timer(time.Duration(config.MaxGateRecheckIntervalSec) * time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.wake:
		return nil
	case <-timer.C:
		return nil
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) isPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

func (q *Queue) hasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.state.Pending) > 0
}

func (q *Queue) setStatus(s Status) {
	q.mu.Lock()
	q.status = s
	q.mu.Unlock()
}

func (q *Queue) persistLocked() error {
	return q.store.Save(q.state)
}

func (q *Queue) logGateWait(reason string, wait time.Duration) {
	q.mu.Lock()
	launched := q.state.LaunchedThisHour
	spent := q.state.SpentTodaySOL
	q.mu.Unlock()

	until := q.clk.Now().Add(wait)
	if reason == gateHourly {
		q.logger.LogRateLimitWait(launched, q.cfg.MaxPerHour, until)
		return
	}
	q.logger.LogBudgetWait(spent, q.cfg.DailyBudgetSOL, until)
}
