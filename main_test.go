package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/learnlink/learnlink/internal/cache"
	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

type countingSynth struct {
	calls atomic.Int64
	fail  string
}

func (s *countingSynth) Name() string    { return "counting" }
func (s *countingSynth) Available() bool { return true }

func (s *countingSynth) Synthesize(_ context.Context, text string, _ tts.VoiceParams) ([]byte, error) {
	s.calls.Add(1)
	if text == s.fail {
		return nil, errors.New("boom")
	}
	return []byte{0, 0}, nil
}

func newCache(t *testing.T) *cache.Manager {
	t.Helper()
	m, err := cache.NewManager(tts.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryEntries: 64}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestWarmCache(t *testing.T) {
	m := newCache(t)
	inner := &countingSynth{}
	synth := m.Wrap(inner)
	clips := []clip{
		{"Ay", trainer.NameVoice},
		{"Bee", trainer.NameVoice},
		{"cat", trainer.WordVoice},
	}

	warmed, skipped, err := warmCache(context.Background(), synth, clips, 2)
	if err != nil {
		t.Fatalf("warmCache failed: %v", err)
	}
	if warmed != 3 || skipped != 0 {
		t.Errorf("first run warmed=%d skipped=%d, want 3 and 0", warmed, skipped)
	}

	warmed, skipped, err = warmCache(context.Background(), synth, clips, 0)
	if err != nil {
		t.Fatalf("second warmCache failed: %v", err)
	}
	if warmed != 0 || skipped != 3 {
		t.Errorf("second run warmed=%d skipped=%d, want 0 and 3", warmed, skipped)
	}
	if n := inner.calls.Load(); n != 3 {
		t.Errorf("synthesizer called %d times, want 3", n)
	}
}

func TestWarmCacheError(t *testing.T) {
	synth := newCache(t).Wrap(&countingSynth{fail: "Bee"})
	_, _, err := warmCache(context.Background(), synth, []clip{{"Ay", trainer.NameVoice}, {"Bee", trainer.NameVoice}}, 1)
	if err == nil || !strings.Contains(err.Error(), `"Bee"`) {
		t.Errorf("err = %v, want failure naming the clip", err)
	}
}

func TestWarmClips(t *testing.T) {
	clips := warmClips()
	if want := 2*len(trainer.Alphabet) + 2*len(trainer.Sounds); len(clips) != want {
		t.Fatalf("len(warmClips()) = %d, want %d", len(clips), want)
	}
	if clips[0].text != "Ay" || clips[0].voice != trainer.NameVoice {
		t.Errorf("first clip = %+v, want the name of A", clips[0])
	}
}

func TestSpelling(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"cat", "C-A-T"},
		{"x-ray", "X-R-A-Y"},
		{"42", ""},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := spelling(tt.word)
			if !strings.Contains(got, tt.want) || !strings.HasSuffix(got, "  "+tt.word) {
				t.Errorf("spelling(%q) = %q, want letters %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestHighlight(t *testing.T) {
	sentence := "I see a bee"
	bounds := trainer.WordBoundaries(sentence)

	if got := highlight(sentence, bounds, -1); got != sentence {
		t.Errorf("highlight(-1) = %q, want the plain sentence", got)
	}
	if got := highlight(sentence, bounds, len(bounds)); got != sentence {
		t.Errorf("highlight(out of range) = %q, want the plain sentence", got)
	}
	got := highlight(sentence, bounds, 1)
	if !strings.HasPrefix(got, "I ") || !strings.HasSuffix(got, " a bee") || !strings.Contains(got, "see") {
		t.Errorf("highlight(1) = %q", got)
	}
}

func TestHighlighterTracksWords(t *testing.T) {
	h := newHighlighter("I see a bee", false)
	for _, tt := range []struct {
		charIndex int
		want      int
	}{{0, 0}, {2, 1}, {8, 3}} {
		h.handle(tts.Event{Type: tts.EventBoundary, CharIndex: tt.charIndex})
		if h.current != tt.want {
			t.Errorf("boundary at %d: current = %d, want %d", tt.charIndex, h.current, tt.want)
		}
	}

	failure := errors.New("no voice")
	h.handle(tts.Event{Type: tts.EventTaskFailed, Err: failure})
	if !errors.Is(h.failed, failure) {
		t.Errorf("failed = %v, want %v", h.failed, failure)
	}
}

func TestSayVoice(t *testing.T) {
	defer func(lang string, pitch, rate float64) {
		sayLang, sayPitch, sayRate = lang, pitch, rate
	}(sayLang, sayPitch, sayRate)

	cfg := tts.DefaultConfig()
	sayLang, sayPitch, sayRate = "", 1.5, 0.8
	v := sayVoice(cfg)
	if v.Lang != cfg.Voice().Lang || v.Pitch != 1.5 || v.Rate != 0.8 {
		t.Errorf("sayVoice() = %+v", v)
	}

	sayLang = "en-GB"
	if v := sayVoice(cfg); v.Lang != "en-GB" {
		t.Errorf("sayVoice().Lang = %q, want en-GB", v.Lang)
	}
}

func TestFindLessons(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.md":           "# Animals\n\nThe cat sleeps. The dog runs.\n",
		"sub/a.markdown": "Hello there.\n",
		"empty.md":       "```\ncode only\n```\n",
		"notes.txt":      "Not a lesson.",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	lessons, err := findLessons(dir, true)
	if err != nil {
		t.Fatalf("findLessons failed: %v", err)
	}
	want := []lessonFile{
		{path: "b.md", title: "Animals", sentences: 3},
		{path: filepath.Join("sub", "a.markdown"), sentences: 1},
	}
	if len(lessons) != len(want) {
		t.Fatalf("findLessons = %+v, want %+v", lessons, want)
	}
	for i := range want {
		if lessons[i] != want[i] {
			t.Errorf("lessons[%d] = %+v, want %+v", i, lessons[i], want[i])
		}
	}
}
