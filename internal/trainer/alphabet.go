// Package trainer holds the learning content of LearnLink (alphabet,
// phonetic sounds, vocabulary, lessons) and turns learner actions into
// speech task batches.
//
// Every action follows the same discipline: cancel whatever is playing,
// enqueue the whole batch, then start.
package trainer

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/learnlink/learnlink/tts"
)

var (
	// ErrUnknownLetter is returned for characters outside the alphabet table.
	ErrUnknownLetter = errors.New("unknown letter")

	// ErrEmptyWord is returned when a word has no letters to spell.
	ErrEmptyWord = errors.New("word has no letters")
)

// Voices used by the alphabet trainer.
var (
	NameVoice  = tts.VoiceParams{Lang: "en-US", Pitch: 1.2, Rate: 0.9}
	SoundVoice = tts.VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1.1}
	WordVoice  = tts.VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1}
)

// Pauses between the parts of a spelled letter or word.
const (
	NameSoundGap  = 150 * time.Millisecond
	LetterGap     = 50 * time.Millisecond
	BeforeWordGap = 300 * time.Millisecond
)

// Letter is one row of the alphabet table.
type Letter struct {
	Letter rune
	Name   string // how the letter is called, e.g. "Ay"
	Sound  string // its phonetic sound, e.g. "ah"
}

func (l Letter) String() string {
	return string(l.Letter)
}

// Alphabet is the English alphabet with letter names and sounds.
var Alphabet = []Letter{
	{'A', "Ay", "ah"}, {'B', "Bee", "buh"}, {'C', "Cee", "kuh"}, {'D', "Dee", "duh"},
	{'E', "Ee", "eh"}, {'F', "Eff", "fuh"}, {'G', "Gee", "guh"}, {'H', "Aitch", "huh"},
	{'I', "Eye", "ih"}, {'J', "Jay", "juh"}, {'K', "Kay", "kuh"}, {'L', "El", "luh"},
	{'M', "Em", "muh"}, {'N', "En", "nuh"}, {'O', "Oh", "aw"}, {'P', "Pee", "puh"},
	{'Q', "Queue", "kwuh"}, {'R', "Ar", "ruh"}, {'S', "Ess", "sss"}, {'T', "Tee", "tuh"},
	{'U', "You", "uh"}, {'V', "Vee", "vuh"}, {'W', "Double-you", "wuh"}, {'X', "Ex", "ks"},
	{'Y', "Why", "yuh"}, {'Z', "Zee", "zuh"},
}

// LookupLetter finds r in the alphabet, ignoring case.
func LookupLetter(r rune) (Letter, bool) {
	r = unicode.ToUpper(r)
	if r < 'A' || r > 'Z' {
		return Letter{}, false
	}
	return Alphabet[r-'A'], true
}

// ParseLetter accepts a single letter such as "b" or "B".
func ParseLetter(s string) (Letter, error) {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) != 1 {
		return Letter{}, fmt.Errorf("%w: %q", ErrUnknownLetter, s)
	}
	l, ok := LookupLetter(runes[0])
	if !ok {
		return Letter{}, fmt.Errorf("%w: %q", ErrUnknownLetter, s)
	}
	return l, nil
}

// LetterTasks returns the batch that spells one letter: its name, a short
// pause, then its sound.
func LetterTasks(l Letter) []tts.Task {
	return []tts.Task{
		tts.SpeakTask(l.Name, NameVoice),
		tts.WaitTask(NameSoundGap),
		tts.SpeakTask(l.Sound, SoundVoice),
	}
}

// Letters returns the alphabet letters of word in order. Accented letters
// count as their base letter, so "café" has the letters C, A, F and E.
// Everything else is ignored.
func Letters(word string) []Letter {
	folded, _, err := transform.String(foldAccents(), word)
	if err != nil {
		folded = word
	}
	var letters []Letter
	for _, r := range folded {
		if l, ok := LookupLetter(r); ok {
			letters = append(letters, l)
		}
	}
	return letters
}

// foldAccents strips combining marks. Transformers are stateful, so each
// call gets a fresh chain.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// WordTasks returns the batch that pronounces word: the name of every
// letter (see Letters) with a short pause after each, a longer pause, then
// the word itself.
func WordTasks(word string) ([]tts.Task, error) {
	letters := Letters(word)
	if len(letters) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyWord, word)
	}
	tasks := make([]tts.Task, 0, 2*len(letters)+2)
	for _, l := range letters {
		tasks = append(tasks, tts.SpeakTask(l.Name, NameVoice), tts.WaitTask(LetterGap))
	}
	return append(tasks,
		tts.WaitTask(BeforeWordGap),
		tts.SpeakTask(word, WordVoice),
	), nil
}

// SpellLetter interrupts any speech and says the letter's name and sound.
func SpellLetter(s tts.Speaker, l Letter) error {
	return Play(s, LetterTasks(l)...)
}

// PronounceWord interrupts any speech, spells word letter by letter and
// then says it whole.
func PronounceWord(s tts.Speaker, word string) error {
	tasks, err := WordTasks(word)
	if err != nil {
		return err
	}
	return Play(s, tasks...)
}

// Play cancels current speech, enqueues tasks as one batch and starts
// playback.
func Play(s tts.Speaker, tasks ...tts.Task) error {
	s.CancelAll()
	for _, t := range tasks {
		if err := s.Enqueue(t); err != nil {
			s.CancelAll()
			return err
		}
	}
	return s.Start()
}
