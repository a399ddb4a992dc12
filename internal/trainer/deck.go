package trainer

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/learnlink/learnlink/tts"
)

//go:embed deck.yaml
var defaultDeck []byte

// ErrEmptyDeck is returned for a deck without any phrase.
var ErrEmptyDeck = errors.New("vocabulary deck has no phrases")

// Deck is a vocabulary deck grouped by category.
type Deck struct {
	Categories []Category `yaml:"categories"`
}

// Category is a titled group of phrases.
type Category struct {
	Title string   `yaml:"title"`
	Items []Phrase `yaml:"items"`
}

// Phrase is an English word or phrase with its translation.
type Phrase struct {
	English     string `yaml:"english"`
	Translation string `yaml:"translation"`
	Category    string `yaml:"-"`
}

// DefaultDeck returns the built-in deck.
func DefaultDeck() *Deck {
	d, err := ParseDeck(defaultDeck)
	if err != nil {
		panic(fmt.Sprintf("built-in deck: %v", err))
	}
	return d
}

// LoadDeck reads a YAML deck from path.
func LoadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	d, err := ParseDeck(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ParseDeck decodes a YAML deck. Blank phrases are dropped.
func ParseDeck(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deck: %w", err)
	}

	n := 0
	for i := range d.Categories {
		c := &d.Categories[i]
		items := c.Items[:0]
		for _, p := range c.Items {
			p.English = strings.TrimSpace(p.English)
			if p.English == "" {
				continue
			}
			p.Category = c.Title
			items = append(items, p)
		}
		c.Items = items
		n += len(items)
	}
	if n == 0 {
		return nil, ErrEmptyDeck
	}
	return &d, nil
}

// Phrases returns every phrase in category order.
func (d *Deck) Phrases() []Phrase {
	var out []Phrase
	for _, c := range d.Categories {
		out = append(out, c.Items...)
	}
	return out
}

// phraseSource adapts a phrase list to fuzzy.Source. Both the English text
// and the translation are searchable.
type phraseSource []Phrase

func (s phraseSource) String(i int) string {
	return s[i].English + " " + s[i].Translation
}

func (s phraseSource) Len() int {
	return len(s)
}

// Filter returns the phrases matching query, best match first. An empty
// query returns every phrase.
func (d *Deck) Filter(query string) []Phrase {
	phrases := d.Phrases()
	query = strings.TrimSpace(query)
	if query == "" {
		return phrases
	}

	matches := fuzzy.FindFrom(query, phraseSource(phrases))
	out := make([]Phrase, len(matches))
	for i, m := range matches {
		out[i] = phrases[m.Index]
	}
	return out
}

// SpeakPhrase interrupts any speech and says the English phrase.
func SpeakPhrase(s tts.Speaker, p Phrase) error {
	if p.English == "" {
		return ErrEmptySentence
	}
	return Play(s, tts.SpeakTask(p.English, WordVoice))
}
