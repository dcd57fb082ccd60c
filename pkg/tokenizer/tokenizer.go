package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a run of letters, digits and inner apostrophes with its byte
// offsets in the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// Lower returns the lowercase form of the token.
func (t Token) Lower() string {
	return strings.ToLower(t.Text)
}

// Words splits text into word tokens. Punctuation and whitespace are not
// returned; callers that need them slice the source with Start/End.
func Words(text string) []Token {
	var tokens []Token
	start := -1
	runes := []rune(text)
	offset := 0
	offsets := make([]int, len(runes)+1)
	for i, r := range runes {
		offsets[i] = offset
		offset += len(string(r))
	}
	offsets[len(runes)] = offset

	for i, r := range runes {
		if isWordRune(r) || (r == '\'' && start >= 0 && i+1 < len(runes) && isWordRune(runes[i+1])) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Text: text[offsets[start]:offsets[i]], Start: offsets[start], End: offsets[i]})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: text[offsets[start]:], Start: offsets[start], End: len(text)})
	}
	return tokens
}

// LowerSet returns the set of lowercase word tokens in text.
func LowerSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Words(text) {
		set[t.Lower()] = struct{}{}
	}
	return set
}

// CountTokens provides a rough LLM token estimate.
func CountTokens(text string) int {
	// ~4 chars per token for English
	words := strings.Fields(text)
	return max(len(words)*4/3, 1)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
