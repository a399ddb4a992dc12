package trainer

import (
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/learnlink/learnlink/tts"
)

// SentenceGap is the pause between sentences when reading a lesson.
const SentenceGap = 400 * time.Millisecond

// Lesson is the readable text of a markdown document.
type Lesson struct {
	Title     string
	Sentences []string
}

// ParseLesson extracts the title and the speakable sentences of a markdown
// lesson. Code, HTML and link targets are not read out.
func ParseLesson(markdown []byte) Lesson {
	reader := text.NewReader(markdown)
	doc := goldmark.New().Parser().Parse(reader)

	var (
		lesson Lesson
		blocks []string
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		var buf strings.Builder
		writeText(n, reader.Source(), &buf)
		block := strings.Join(strings.Fields(buf.String()), " ")
		if block == "" {
			continue
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && lesson.Title == "" {
			lesson.Title = strings.TrimRight(block, ".:")
		}
		blocks = append(blocks, block)
	}

	for _, b := range blocks {
		lesson.Sentences = append(lesson.Sentences, SplitSentences(b)...)
	}
	return lesson
}

// writeText appends the plain text under node, ending block elements with
// a sentence stop so headings and list items are read separately.
func writeText(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.ThematicBreak:
		return
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return
	case *ast.String:
		buf.Write(n.Value)
		return
	case *ast.AutoLink:
		return
	case *ast.Heading, *ast.ListItem:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			writeText(c, source, buf)
		}
		endSentence(buf)
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		writeText(c, source, buf)
	}
	if node.Type() == ast.TypeBlock && node.Kind() != ast.KindList {
		endSentence(buf)
	}
}

func endSentence(buf *strings.Builder) {
	s := strings.TrimRightFunc(buf.String(), unicode.IsSpace)
	if s == "" {
		return
	}
	if !strings.ContainsRune(".!?:", rune(s[len(s)-1])) {
		buf.WriteByte('.')
	}
	buf.WriteByte(' ')
}

// SplitSentences breaks text after '.', '!' or '?' when the next word
// starts with an upper-case letter or a digit.
func SplitSentences(s string) []string {
	runes := []rune(strings.TrimSpace(s))
	var (
		out   []string
		start int
	)
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) {
			continue
		}
		// Swallow closing quotes and repeated punctuation.
		end := i + 1
		for end < len(runes) && strings.ContainsRune(".!?\"')", runes[end]) {
			end++
		}
		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next == end && next < len(runes) {
			continue // no space after the stop, e.g. 3.14 or e.g.
		}
		if next < len(runes) && !unicode.IsUpper(runes[next]) && !unicode.IsDigit(runes[next]) {
			continue
		}
		if sentence := strings.TrimSpace(string(runes[start:end])); sentence != "" {
			out = append(out, sentence)
		}
		start = next
		i = next - 1
	}
	if start < len(runes) {
		if sentence := strings.TrimSpace(string(runes[start:])); sentence != "" {
			out = append(out, sentence)
		}
	}
	return out
}

// LessonTasks returns the batch that reads sentences one after another.
func LessonTasks(sentences []string) []tts.Task {
	tasks := make([]tts.Task, 0, len(sentences)*2)
	for i, s := range sentences {
		if i > 0 {
			tasks = append(tasks, tts.WaitTask(SentenceGap))
		}
		tasks = append(tasks, tts.SpeakTask(s, SentenceVoice))
	}
	return tasks
}

// ReadLesson interrupts any speech and reads the lesson's sentences.
func ReadLesson(s tts.Speaker, lesson Lesson) error {
	if len(lesson.Sentences) == 0 {
		return ErrEmptySentence
	}
	return Play(s, LessonTasks(lesson.Sentences)...)
}
