package tts

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestPlaybackQueueFIFO tests submission order.
func TestPlaybackQueueFIFO(t *testing.T) {
	q := NewPlaybackQueue()
	q.Enqueue(SpeakTask("a", DefaultVoice))
	q.Enqueue(WaitTask(time.Millisecond))
	q.Enqueue(SpeakTask("b", DefaultVoice))

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	want := []string{"speak(\"a\" en-US/p1.00/r1.00)", "wait(1ms)", "speak(\"b\" en-US/p1.00/r1.00)"}
	for i, w := range want {
		task, ok := q.DequeueNext()
		if !ok {
			t.Fatalf("DequeueNext() %d returned empty", i)
		}
		if task.String() != w {
			t.Errorf("task %d = %s, want %s", i, task, w)
		}
	}

	if _, ok := q.DequeueNext(); ok {
		t.Error("DequeueNext() on empty queue should return false")
	}
}

// TestPlaybackQueueClear tests bulk removal and stats.
func TestPlaybackQueueClear(t *testing.T) {
	q := NewPlaybackQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(SpeakTask(fmt.Sprint(i), DefaultVoice))
	}
	q.DequeueNext()

	if n := q.Clear(); n != 4 {
		t.Errorf("Clear() = %d, want 4", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear", q.Len())
	}

	stats := q.Stats()
	if stats.TotalEnqueued != 5 || stats.TotalDequeued != 1 || stats.TotalCleared != 4 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.PeakSize != 5 || stats.CurrentSize != 0 {
		t.Errorf("PeakSize/CurrentSize = %d/%d, want 5/0", stats.PeakSize, stats.CurrentSize)
	}
	if stats.LastEnqueue.IsZero() || stats.LastDequeue.IsZero() {
		t.Error("timestamps should be recorded")
	}
}

// TestPlaybackQueuePending tests the snapshot copy.
func TestPlaybackQueuePending(t *testing.T) {
	q := NewPlaybackQueue()
	q.Enqueue(SpeakTask("x", DefaultVoice))
	pending := q.Pending()
	pending[0].Text = "changed"

	task, _ := q.DequeueNext()
	if task.Text != "x" {
		t.Errorf("Pending() leaked internal storage: got %q", task.Text)
	}
}

// TestPlaybackQueueConcurrent tests concurrent producers.
func TestPlaybackQueueConcurrent(t *testing.T) {
	q := NewPlaybackQueue()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(WaitTask(0))
			}
		}()
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", q.Len())
	}
}
