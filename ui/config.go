package ui

// Config contains TUI-specific configuration.
type Config struct {
	// DeckPath is the vocabulary deck to load and watch. Empty means the
	// built-in deck.
	DeckPath string

	// Background color of the letter or word being spoken.
	HighlightColor string `env:"LEARNLINK_HIGHLIGHT_COLOR" envDefault:"226"`
	// Show translations in the vocabulary list from the start.
	ShowTranslations bool `env:"LEARNLINK_SHOW_TRANSLATIONS"`

	// For debugging the UI
	AltScreen bool `env:"LEARNLINK_ALT_SCREEN" envDefault:"true"`
}
