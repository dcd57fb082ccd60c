package guardrails

import (
	"sort"
	"strings"
	"unicode"

	"github.com/nikhilbhutani/sketchstories/pkg/tokenizer"
)

// ThemeExtractor returns lowercase single-word theme candidates.
type ThemeExtractor interface {
	Themes(text string) []string
}

// ContentWordExtractor treats every alphabetic non-stop word longer than
// two letters as a theme candidate.
type ContentWordExtractor struct {
	stopWords map[string]struct{}
}

func NewContentWordExtractor(lex *Lexicon) *ContentWordExtractor {
	return &ContentWordExtractor{stopWords: lex.stopWords}
}

func (e *ContentWordExtractor) Themes(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range tokenizer.Words(text) {
		w := strings.TrimSuffix(tok.Lower(), "'s")
		if len(w) <= 2 || !isAlpha(w) {
			continue
		}
		if _, stop := e.stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// ThemeChecker requires at least one candidate on the safe-theme list.
type ThemeChecker struct {
	lex       *Lexicon
	extractor ThemeExtractor
}

func NewThemeChecker(lex *Lexicon, extractor ThemeExtractor) *ThemeChecker {
	if extractor == nil {
		extractor = NewContentWordExtractor(lex)
	}
	return &ThemeChecker{lex: lex, extractor: extractor}
}

func (c *ThemeChecker) Check(text string) Verdict {
	candidates := c.extractor.Themes(text)
	for _, cand := range candidates {
		if _, ok := c.match(cand); ok {
			return Pass()
		}
	}
	return Reject(RejectTheme, "no safe theme among %d candidates", len(candidates))
}

// Matched returns the safe themes found in text, for reporting.
func (c *ThemeChecker) Matched(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, cand := range c.extractor.Themes(text) {
		if theme, ok := c.match(cand); ok {
			if _, dup := seen[theme]; !dup {
				seen[theme] = struct{}{}
				out = append(out, theme)
			}
		}
	}
	return out
}

// match folds simple plurals so "animal" finds "animals" and "families"
// finds "family".
func (c *ThemeChecker) match(word string) (string, bool) {
	forms := []string{word, word + "s"}
	if strings.HasSuffix(word, "ies") && len(word) > 4 {
		forms = append(forms, word[:len(word)-3]+"y")
	}
	if strings.HasSuffix(word, "s") && len(word) > 3 {
		forms = append(forms, strings.TrimSuffix(word, "s"))
	}
	for _, f := range forms {
		if c.lex.IsSafeTheme(f) {
			return f, true
		}
	}
	return "", false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
