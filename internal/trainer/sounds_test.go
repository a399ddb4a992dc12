package trainer

import (
	"errors"
	"testing"

	"github.com/learnlink/learnlink/tts"
)

func TestSpeakSentence(t *testing.T) {
	r := &recorder{}
	s := Sounds[0].ExampleSentence
	if err := SpeakSentence(r, s); err != nil {
		t.Fatalf("SpeakSentence failed: %v", err)
	}
	if len(r.tasks) != 1 || r.tasks[0] != tts.SpeakTask(s, SentenceVoice) {
		t.Errorf("tasks = %v", r.tasks)
	}

	if err := SpeakSentence(&recorder{}, "   "); !errors.Is(err, ErrEmptySentence) {
		t.Errorf("blank sentence error = %v", err)
	}
}

func TestWordBoundaries(t *testing.T) {
	bounds := WordBoundaries("The black cat sat on the mat.")
	if len(bounds) != 7 {
		t.Fatalf("got %d boundaries, want 7", len(bounds))
	}
	want := Boundary{Word: "cat", Start: 10, End: 13}
	if bounds[2] != want {
		t.Errorf("bounds[2] = %+v, want %+v", bounds[2], want)
	}
	if bounds[6].Word != "mat." {
		t.Errorf("last word = %q", bounds[6].Word)
	}
}

func TestWordAt(t *testing.T) {
	bounds := WordBoundaries("We see  the green tree.")
	tests := []struct {
		name      string
		charIndex int
		want      int
	}{
		{"first word start", 0, 0},
		{"inside second word", 4, 1},
		{"between words", 6, -1},
		{"after double space", 8, 2},
		{"last char", 22, 4},
		{"past the end", 23, -1},
		{"negative", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordAt(bounds, tt.charIndex); got != tt.want {
				t.Errorf("WordAt(%d) = %d, want %d", tt.charIndex, got, tt.want)
			}
		})
	}
}

func TestSoundsCatalogue(t *testing.T) {
	for _, s := range Sounds {
		if s.Symbol == "" || s.ExampleWord == "" || s.ExampleSentence == "" {
			t.Errorf("incomplete sound %+v", s)
		}
	}
}
