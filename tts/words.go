package tts

import "unicode"

// Span is a half-open byte range [Start, End) of a word in a string.
type Span struct {
	Start int
	End   int
}

// WordSpans splits text on whitespace and returns the byte range of every
// word, in order.
func WordSpans(text string) []Span {
	var spans []Span
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, Span{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(text)})
	}
	return spans
}

// SpanAt returns the index of the span containing charIndex, or of the last
// span starting before it. It returns -1 if charIndex precedes every span.
func SpanAt(spans []Span, charIndex int) int {
	found := -1
	for i, s := range spans {
		if s.Start > charIndex {
			break
		}
		found = i
	}
	return found
}
