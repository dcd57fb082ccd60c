// Package chunker splits prose into sentences and groups them into parts
// of bounded size.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentences splits text after '.', '!' or '?' runs that are followed by
// whitespace or the end of the text. Sentences are trimmed; empty ones are
// dropped.
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		for i+1 < len(runes) && (isTerminal(runes[i+1]) || runes[i+1] == '"' || runes[i+1] == '\'') {
			i++
			current.WriteRune(runes[i])
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Parts distributes sentences over at most n parts of near-equal sentence
// count, earlier parts taking the remainder. Fewer parts are returned when
// there are fewer sentences than n.
func Parts(sentences []string, n int) []string {
	if n <= 0 || len(sentences) == 0 {
		return nil
	}
	n = min(n, len(sentences))
	size, extra := len(sentences)/n, len(sentences)%n

	parts := make([]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		parts = append(parts, strings.Join(sentences[start:end], " "))
		start = end
	}
	return parts
}

// BySize packs whole sentences into chunks of at most maxRunes runes. A
// single sentence longer than maxRunes is split at word boundaries.
func BySize(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = 1000
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, s := range Sentences(text) {
		pieces := []string{s}
		if utf8.RuneCountInString(s) > maxRunes {
			pieces = splitWords(s, maxRunes)
		}
		for _, p := range pieces {
			if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(p) > maxRunes {
				flush()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(p)
		}
	}
	flush()
	return chunks
}

func splitWords(s string, maxRunes int) []string {
	var out []string
	var current strings.Builder
	for _, w := range strings.Fields(s) {
		for utf8.RuneCountInString(w) > maxRunes {
			if current.Len() > 0 {
				out = append(out, current.String())
				current.Reset()
			}
			r := []rune(w)
			out = append(out, string(r[:maxRunes]))
			w = string(r[maxRunes:])
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(w) > maxRunes {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(w)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
