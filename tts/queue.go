package tts

import (
	"sync"
	"time"
)

// PlaybackQueue holds pending tasks in submission order.
// It is safe for concurrent use. Enqueueing never starts playback.
type PlaybackQueue struct {
	mu    sync.Mutex
	tasks []Task
	stats QueueStats
}

// QueueStats tracks queue activity.
type QueueStats struct {
	TotalEnqueued int64
	TotalDequeued int64
	TotalCleared  int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// NewPlaybackQueue creates an empty queue.
func NewPlaybackQueue() *PlaybackQueue {
	return &PlaybackQueue{}
}

// Enqueue appends a task to the tail.
func (q *PlaybackQueue) Enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks = append(q.tasks, t)
	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	if len(q.tasks) > q.stats.PeakSize {
		q.stats.PeakSize = len(q.tasks)
	}
}

// DequeueNext removes and returns the head task. The boolean is false when
// the queue is empty.
func (q *PlaybackQueue) DequeueNext() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return Task{}, false
	}

	t := q.tasks[0]
	q.tasks[0] = Task{}
	q.tasks = q.tasks[1:]
	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	return t, true
}

// Clear removes all pending tasks at once and returns how many were dropped.
func (q *PlaybackQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tasks)
	q.tasks = nil
	q.stats.TotalCleared += int64(n)
	return n
}

// Len returns the number of pending tasks.
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Pending returns a copy of the pending tasks, head first.
func (q *PlaybackQueue) Pending() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

// Stats returns current queue statistics.
func (q *PlaybackQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.CurrentSize = len(q.tasks)
	return s
}
