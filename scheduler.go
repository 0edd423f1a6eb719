package dronestorage

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler runs deferred tasks and periodic loops on a fixed tick.
//
// Every task and loop runs through the guard function, which the Manager
// sets to take its own lock, so scheduled work never runs alongside a
// lifecycle signal.
type Scheduler struct {
	log *slog.Logger

	// guard wraps every execution
	guard func(func())

	// Loop management
	loops   [stageCount][]*loopState
	loopsMu sync.Mutex

	// Task queue
	queue *taskQueue

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Tick tracking
	tickRate   time.Duration
	tickNumber atomic.Uint64
}

// loopState tracks the state of a single loop.
type loopState struct {
	task      Runnable
	name      string
	interval  time.Duration
	lastRun   time.Time
	nextRun   time.Time
	cancelled atomic.Bool
}

// ShouldRun checks if the loop should run at the given time.
func (l *loopState) ShouldRun(now time.Time) bool {
	if l.interval == 0 {
		return true
	}
	return !now.Before(l.nextRun)
}

// MarkRun updates the last run time and schedules the next run.
func (l *loopState) MarkRun(now time.Time) {
	l.lastRun = now
	if l.interval > 0 {
		// Drift-free timing
		l.nextRun = l.nextRun.Add(l.interval)
		if l.nextRun.Before(now) {
			// Catch up if we're behind
			l.nextRun = now.Add(l.interval)
		}
	}
}

// LoopHandle allows cancelling a loop registered with Every.
type LoopHandle struct {
	loop *loopState
}

// Cancel stops future runs of the loop.
func (h *LoopHandle) Cancel() {
	if h != nil && h.loop != nil {
		h.loop.cancelled.Store(true)
	}
}

// newScheduler creates a new scheduler. A nil guard runs work directly.
func newScheduler(log *slog.Logger, guard func(func())) *Scheduler {
	if guard == nil {
		guard = func(fn func()) { fn() }
	}
	return &Scheduler{
		log:      log,
		guard:    guard,
		queue:    newTaskQueue(),
		tickRate: 50 * time.Millisecond, // 20 TPS
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduler's tick loop.
func (s *Scheduler) Start() {
	if s.running.Swap(true) {
		return // Already running
	}
	go s.tickLoop()
}

// Stop stops the tick loop and drops every pending task. It must not be
// called from inside the guard.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running
	}

	close(s.stopCh)
	<-s.doneCh
	s.queue.Clear()
}

// TickNumber returns the number of ticks run so far.
func (s *Scheduler) TickNumber() uint64 {
	return s.tickNumber.Load()
}

// NextTick schedules r to run on the following tick.
func (s *Scheduler) NextTick(r Runnable, stage Stage) *TaskHandle {
	return s.After(1, r, stage)
}

// After schedules r to run the given number of ticks from now. A value of 0
// behaves like 1: work never runs within the tick that scheduled it.
func (s *Scheduler) After(ticks uint64, r Runnable, stage Stage) *TaskHandle {
	if ticks == 0 {
		ticks = 1
	}
	task := &scheduledTask{
		dueTick: s.tickNumber.Load() + ticks,
		stage:   stage.orDefault(),
		task:    r,
		name:    taskName(r),
	}
	s.queue.Push(task)
	return &TaskHandle{task: task}
}

// Every registers a loop that runs r every interval, starting on the next
// tick. An interval of 0 runs every tick.
func (s *Scheduler) Every(interval time.Duration, r Runnable, stage Stage) *LoopHandle {
	stage = stage.orDefault()
	state := &loopState{
		task:     r,
		name:     taskName(r),
		interval: interval,
		nextRun:  time.Now(),
	}

	s.loopsMu.Lock()
	s.loops[stage] = append(s.loops[stage], state)
	s.loopsMu.Unlock()

	return &LoopHandle{loop: state}
}

// tickLoop is the main scheduler loop.
func (s *Scheduler) tickLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick executes one scheduler tick: for each stage, due tasks first, then due
// loops.
func (s *Scheduler) tick(now time.Time) {
	n := s.tickNumber.Add(1)

	due := s.queue.PopDue(n)
	byStage := make([][]*scheduledTask, stageCount)
	for _, task := range due {
		byStage[task.stage] = append(byStage[task.stage], task)
	}

	for stage := Before; stage < stageCount; stage++ {
		for _, task := range byStage[stage] {
			if task.cancelled.Load() {
				continue
			}
			s.execute(stage, "task", task.name, task.task)
			// Mark as consumed so late Cancel calls are harmless.
			task.cancelled.Store(true)
		}
		for _, loop := range s.dueLoops(stage, now) {
			s.execute(stage, "loop", loop.name, loop.task)
			loop.MarkRun(now)
		}
	}
}

// dueLoops drops cancelled loops for stage and returns the ones due at now.
func (s *Scheduler) dueLoops(stage Stage, now time.Time) []*loopState {
	s.loopsMu.Lock()
	defer s.loopsMu.Unlock()

	live := s.loops[stage][:0]
	var due []*loopState
	for _, loop := range s.loops[stage] {
		if loop.cancelled.Load() {
			continue
		}
		live = append(live, loop)
		if loop.ShouldRun(now) {
			due = append(due, loop)
		}
	}
	for i := len(live); i < len(s.loops[stage]); i++ {
		s.loops[stage][i] = nil
	}
	s.loops[stage] = live
	return due
}

// execute runs r inside the guard with panic recovery. A panicking task is
// logged and does not take the scheduler down.
func (s *Scheduler) execute(stage Stage, kind, name string, r Runnable) {
	defer func() {
		if rec := recover(); rec != nil {
			s.handlePanic(stage, kind, name, rec)
		}
	}()
	s.guard(r.Run)
}

func (s *Scheduler) handlePanic(stage Stage, kind, name string, recovered any) {
	err := fmt.Errorf("dronestorage: panic in %s %s: %v", kind, name, recovered)
	s.log.Error(err.Error(), "stage", stage.String(), "stack", string(debug.Stack()))
}
