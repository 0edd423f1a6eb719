package dronestorage

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// scheduledTask represents a task scheduled for a future tick.
type scheduledTask struct {
	// dueTick is the scheduler tick the task runs on
	dueTick uint64

	// stage orders tasks due on the same tick
	stage Stage

	// seq preserves submission order within a tick and stage
	seq uint64

	// task is the work to run
	task Runnable

	// name identifies the task in logs
	name string

	// cancelled indicates if the task has been cancelled
	cancelled atomic.Bool

	// index is the heap index for efficient removal
	index int
}

// taskQueue is a priority queue of scheduled tasks ordered by due tick, then
// stage, then submission order. It uses a binary heap for O(log n) insertion
// and removal.
type taskQueue struct {
	mu   sync.Mutex
	heap []*scheduledTask
	seq  uint64
}

// newTaskQueue creates a new task queue.
func newTaskQueue() *taskQueue {
	return &taskQueue{
		heap: make([]*scheduledTask, 0, 64),
	}
}

// compactHeap removes cancelled tasks from the heap and rebuilds the heap property.
func (q *taskQueue) compactHeap() {
	write := 0
	for read := 0; read < len(q.heap); read++ {
		if !q.heap[read].cancelled.Load() {
			q.heap[write] = q.heap[read]
			q.heap[write].index = write
			write++
		}
	}

	for i := write; i < len(q.heap); i++ {
		q.heap[i] = nil
	}
	q.heap = q.heap[:write]

	for i := len(q.heap)/2 - 1; i >= 0; i-- {
		q.down(i, len(q.heap))
	}
}

// Push adds a task to the queue with periodic cleanup to prevent memory leaks.
func (q *taskQueue) Push(task *scheduledTask) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) > 100 && len(q.heap)%100 == 0 {
		q.compactHeap()
	}

	q.seq++
	task.seq = q.seq
	task.index = len(q.heap)
	q.heap = append(q.heap, task)
	q.up(task.index)
}

// PopDue removes and returns all live tasks due on or before tick, in run order.
func (q *taskQueue) PopDue(tick uint64) []*scheduledTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*scheduledTask
	for len(q.heap) > 0 && q.heap[0].dueTick <= tick {
		task := q.pop()
		if !task.cancelled.Load() {
			due = append(due, task)
		}
	}
	return due
}

// Len returns the number of tasks in the queue, cancelled ones included.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Clear removes all tasks from the queue.
func (q *taskQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.heap {
		t.cancelled.Store(true)
	}
	q.heap = q.heap[:0]
}

// less orders tasks by due tick, stage, then submission order.
func (q *taskQueue) less(i, j int) bool {
	a, b := q.heap[i], q.heap[j]
	if a.dueTick != b.dueTick {
		return a.dueTick < b.dueTick
	}
	if a.stage != b.stage {
		return a.stage < b.stage
	}
	return a.seq < b.seq
}

// pop removes and returns the minimum task. Caller must hold lock.
func (q *taskQueue) pop() *scheduledTask {
	n := len(q.heap) - 1
	q.swap(0, n)
	q.down(0, n)
	task := q.heap[n]
	q.heap[n] = nil // Allow GC
	q.heap = q.heap[:n]
	task.index = -1
	return task
}

// up moves task at index up the heap.
func (q *taskQueue) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || !q.less(i, parent) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// down moves task at index down the heap.
func (q *taskQueue) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n || left < 0 {
			break
		}
		j := left
		if right := left + 1; right < n && q.less(right, left) {
			j = right
		}
		if !q.less(j, i) {
			break
		}
		q.swap(i, j)
		i = j
	}
}

// swap swaps two tasks in the heap.
func (q *taskQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].index = i
	q.heap[j].index = j
}

// TaskHandle allows cancelling a scheduled task.
type TaskHandle struct {
	task *scheduledTask
}

// Cancel cancels the scheduled task. Cancelling a task that already ran is a
// no-op.
func (h *TaskHandle) Cancel() {
	if h != nil && h.task != nil {
		h.task.cancelled.Store(true)
	}
}

// Cancelled reports whether the task was cancelled.
func (h *TaskHandle) Cancelled() bool {
	return h == nil || h.task == nil || h.task.cancelled.Load()
}

// taskName returns a log-friendly name for a runnable.
func taskName(r Runnable) string {
	t := reflect.TypeOf(r)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
