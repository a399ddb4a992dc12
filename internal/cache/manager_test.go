package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/learnlink/learnlink/tts"
)

func newTestManager(t *testing.T, config tts.CacheConfig) *Manager {
	t.Helper()
	if config.Dir == "" {
		config.Dir = t.TempDir()
	}
	m, err := NewManager(config, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_Hierarchy(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 1})

	m.Put("a", []byte("A"))
	m.Put("b", []byte("B")) // pushes a out of memory
	m.Flush()

	if m.memory.Contains("a") {
		t.Fatal("a should only be on disk")
	}
	got, ok := m.Get("a")
	if !ok || string(got) != "A" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}
	if !m.memory.Contains("a") {
		t.Error("disk hit should be promoted to memory")
	}

	s := m.Stats()
	if s.Promotions != 1 {
		t.Errorf("Promotions = %d, want 1", s.Promotions)
	}
	if s.Disk.Entries != 2 {
		t.Errorf("disk entries = %d, want 2", s.Disk.Entries)
	}

	if _, ok := m.Get("missing"); ok {
		t.Error("missing key should miss")
	}
}

func TestManager_TTLOnOpen(t *testing.T) {
	dir := t.TempDir()
	disk, err := NewDiskCache(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = disk.Put("stale", []byte("x"))
	disk.Close()

	// Back-date the entry file.
	old := time.Now().Add(-72 * time.Hour)
	if err := chtimes(disk.path("stale"), old); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t, tts.CacheConfig{Dir: dir, MemoryEntries: 4, TTL: 24 * time.Hour})
	if m.Contains("stale") {
		t.Error("expired entry should be pruned on open")
	}
	if m.Stats().Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", m.Stats().Pruned)
	}
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 4})
	m.Put("a", []byte("A"))
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if m.Contains("a") {
		t.Error("a should be gone after Clear")
	}
}

type countingSynth struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (s *countingSynth) Name() string    { return "counting" }
func (s *countingSynth) Available() bool { return true }

func (s *countingSynth) Synthesize(_ context.Context, text string, _ tts.VoiceParams) ([]byte, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return []byte(text), nil
}

func TestSynthesizer_CachesResults(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 8})
	inner := &countingSynth{}
	s := m.Wrap(inner)

	voice := tts.VoiceParams{Lang: "en-US", Pitch: 1.2, Rate: 0.9}
	for i := 0; i < 3; i++ {
		pcm, err := s.Synthesize(context.Background(), "Ay", voice)
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if !bytes.Equal(pcm, []byte("Ay")) {
			t.Errorf("pcm = %q", pcm)
		}
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner called %d times, want 1", n)
	}
	if !s.Cached("Ay", voice) {
		t.Error("Cached should report true")
	}
	if s.Cached("Ay", tts.DefaultVoice) {
		t.Error("a different voice is a different entry")
	}
	if s.Name() != "counting" {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestSynthesizer_CollapsesConcurrentRequests(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 8})
	inner := &countingSynth{delay: 50 * time.Millisecond}
	s := m.Wrap(inner)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Synthesize(context.Background(), "bee", tts.DefaultVoice)
		}()
	}
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner called %d times, want 1", n)
	}
}

// stallingSynth blocks its first call until the context is canceled, then
// takes teardown to return, like a subprocess being killed. Later calls
// succeed at once.
type stallingSynth struct {
	calls    atomic.Int32
	started  chan struct{}
	teardown time.Duration
}

func (s *stallingSynth) Name() string    { return "stalling" }
func (s *stallingSynth) Available() bool { return true }

func (s *stallingSynth) Synthesize(ctx context.Context, text string, _ tts.VoiceParams) ([]byte, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-ctx.Done()
		time.Sleep(s.teardown)
		return nil, ctx.Err()
	}
	return []byte(text), nil
}

func TestSynthesizer_RetryAfterCanceledSharedCall(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 8})
	inner := &stallingSynth{started: make(chan struct{}), teardown: 30 * time.Millisecond}
	s := m.Wrap(inner)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Synthesize(ctx, "Ay", tts.DefaultVoice)
		first <- err
	}()
	<-inner.started
	cancel()

	pcm, err := s.Synthesize(context.Background(), "Ay", tts.DefaultVoice)
	if err != nil {
		t.Fatalf("fresh request failed: %v", err)
	}
	if string(pcm) != "Ay" {
		t.Errorf("pcm = %q, want Ay", pcm)
	}
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled request error = %v, want context.Canceled", err)
	}
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner called %d times, want 2", n)
	}
}

func TestSynthesizer_WaiterLeavesOnCancel(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 8})
	inner := &stallingSynth{started: make(chan struct{})}
	s := m.Wrap(inner)

	leaderCtx, stopLeader := context.WithCancel(context.Background())
	defer stopLeader()
	go func() { _, _ = s.Synthesize(leaderCtx, "Bee", tts.DefaultVoice) }()
	<-inner.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := s.Synthesize(ctx, "Bee", tts.DefaultVoice); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("waiter stayed %v on a stalled shared call", waited)
	}
}

func TestSynthesizer_ErrorsAreNotCached(t *testing.T) {
	m := newTestManager(t, tts.CacheConfig{MemoryEntries: 8})
	boom := errors.New("boom")
	inner := &countingSynth{err: boom}
	s := m.Wrap(inner)

	for i := 0; i < 2; i++ {
		if _, err := s.Synthesize(context.Background(), "x", tts.DefaultVoice); !errors.Is(err, boom) {
			t.Fatalf("error = %v, want boom", err)
		}
	}
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner called %d times, want 2", n)
	}
}

func TestKey(t *testing.T) {
	v := tts.VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1}
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"identical", Key("piper", "cat", v), Key("piper", "cat", v), true},
		{"surrounding space", Key("piper", " cat ", v), Key("piper", "cat", v), true},
		{"lang case", Key("piper", "cat", tts.VoiceParams{Lang: "EN-us", Pitch: 1, Rate: 1}), Key("piper", "cat", v), true},
		{"engine", Key("espeak", "cat", v), Key("piper", "cat", v), false},
		{"rate", Key("piper", "cat", tts.VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1.1}), Key("piper", "cat", v), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys equal = %v, want %v", tt.a == tt.b, tt.same)
			}
		})
	}
}
