package trainer

import (
	"errors"
	"strings"

	"github.com/learnlink/learnlink/tts"
)

// ErrEmptySentence is returned when there is nothing to read.
var ErrEmptySentence = errors.New("sentence is empty")

// SentenceVoice reads example sentences and lessons.
var SentenceVoice = tts.VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1}

// Sound is a phonetic sound with an example.
type Sound struct {
	Name            string
	Symbol          string // IPA
	ExampleWord     string
	ExampleSentence string
	Description     string
}

// Sounds is the pronunciation catalogue.
var Sounds = []Sound{
	{
		Name: "Short 'a'", Symbol: "/æ/", ExampleWord: "cat",
		ExampleSentence: "The black cat sat on the mat.",
		Description:     "As in 'apple' or 'bat'.",
	},
	{
		Name: "Long 'e'", Symbol: "/iː/", ExampleWord: "see",
		ExampleSentence: "We see the green tree.",
		Description:     "As in 'meet' or 'sleep'.",
	},
	{
		Name: "Short 'i'", Symbol: "/ɪ/", ExampleWord: "sit",
		ExampleSentence: "He will sit in the big ship.",
		Description:     "As in 'ship' or 'live'.",
	},
	{
		Name: "Consonant 'th' (voiced)", Symbol: "/ð/", ExampleWord: "this",
		ExampleSentence: "This is their mother.",
		Description:     "As in 'that' or 'mother'.",
	},
	{
		Name: "Consonant 'sh'", Symbol: "/ʃ/", ExampleWord: "ship",
		ExampleSentence: "She sells sea shells.",
		Description:     "As in 'shoe' or 'fish'.",
	},
}

// SpeakSentence interrupts any speech and reads sentence.
func SpeakSentence(s tts.Speaker, sentence string) error {
	if strings.TrimSpace(sentence) == "" {
		return ErrEmptySentence
	}
	return Play(s, tts.SpeakTask(sentence, SentenceVoice))
}

// Boundary is the byte range of one word in a sentence.
type Boundary struct {
	Word  string
	Start int
	End   int
}

// WordBoundaries splits sentence into words for highlighting.
func WordBoundaries(sentence string) []Boundary {
	spans := tts.WordSpans(sentence)
	bounds := make([]Boundary, len(spans))
	for i, sp := range spans {
		bounds[i] = Boundary{Word: sentence[sp.Start:sp.End], Start: sp.Start, End: sp.End}
	}
	return bounds
}

// WordAt returns the index of the word containing charIndex, or -1 when
// charIndex falls between or outside the words.
func WordAt(bounds []Boundary, charIndex int) int {
	for i, b := range bounds {
		if charIndex >= b.Start && charIndex < b.End {
			return i
		}
	}
	return -1
}
