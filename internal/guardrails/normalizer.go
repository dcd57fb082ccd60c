package guardrails

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

const profanityMask = "****"

// profaneToken also accepts the symbols used as letter substitutes.
var profaneToken = regexp.MustCompile(`[\p{L}\p{N}@$]+`)

// formatChars are invisible runes such as U+200B that can split a word
// without changing how it displays.
var formatChars = regexp.MustCompile(`\p{Cf}`)

var inflections = map[string]struct{}{
	"s": {}, "es": {}, "ed": {}, "er": {}, "ers": {}, "est": {}, "ing": {}, "in": {}, "y": {},
}

var leet = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"@", "a",
	"$", "s",
)

// Normalizer censors profanity, strips unsafe patterns and collapses
// whitespace. It is immutable after construction.
type Normalizer struct {
	words    []string
	single   map[string]struct{}
	prefixes map[string]struct{}
	suffixes map[string]struct{}
	phrases  []*regexp.Regexp
	matcher  *ahocorasick.Matcher
	patterns []*regexp.Regexp
}

func NewNormalizer(lex *Lexicon) *Normalizer {
	n := &Normalizer{
		single:   make(map[string]struct{}),
		prefixes: lex.compoundPrefixes,
		suffixes: lex.compoundSuffixes,
		patterns: lex.unsafePatterns,
	}
	for _, w := range lex.profanity {
		if strings.Contains(w, " ") {
			n.phrases = append(n.phrases, phraseRegexp(w))
			continue
		}
		n.words = append(n.words, w)
		n.single[w] = struct{}{}
	}
	n.matcher = ahocorasick.NewStringMatcher(n.words)
	return n
}

// Normalize never fails; it returns the cleaned text.
func (n *Normalizer) Normalize(text string) string {
	text = n.censor(formatChars.ReplaceAllString(text, ""))
	for _, re := range n.patterns {
		text = re.ReplaceAllString(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

func (n *Normalizer) censor(text string) string {
	for _, re := range n.phrases {
		text = re.ReplaceAllString(text, profanityMask)
	}
	if len(n.words) == 0 {
		return text
	}

	folded := leet.Replace(strings.ToLower(text))
	hits := n.matcher.MatchThreadSafe([]byte(folded))
	if len(hits) == 0 {
		return text
	}
	candidates := make([]string, 0, len(hits))
	for _, i := range hits {
		candidates = append(candidates, n.words[i])
	}

	return profaneToken.ReplaceAllStringFunc(text, func(tok string) string {
		if n.isProfane(leet.Replace(strings.ToLower(tok)), candidates) {
			return profanityMask
		}
		return tok
	})
}

// isProfane reports whether a folded token is a listed word, optionally
// inflected, or a compound of a listed word and a known word part.
// "scrappy" and "Dickens" stay clean because "s" and "ens" are not parts.
func (n *Normalizer) isProfane(tok string, candidates []string) bool {
	for _, c := range candidates {
		for off := 0; off < len(tok); {
			i := strings.Index(tok[off:], c)
			if i < 0 {
				break
			}
			i += off
			if n.isPrefix(tok[:i]) && n.isSuffix(tok[i+len(c):], c) {
				return true
			}
			off = i + 1
		}
	}
	return false
}

func (n *Normalizer) isPrefix(pre string) bool {
	if pre == "" {
		return true
	}
	if _, ok := n.prefixes[pre]; ok {
		return true
	}
	_, ok := n.single[pre]
	return ok
}

func (n *Normalizer) isSuffix(post, word string) bool {
	if post == "" || inflected(post, word) {
		return true
	}
	if _, ok := n.suffixes[post]; ok {
		return true
	}
	_, ok := n.single[post]
	return ok
}

// inflected accepts a common ending, also after a doubled final letter
// as in "shitty".
func inflected(post, word string) bool {
	if _, ok := inflections[post]; ok {
		return true
	}
	if len(post) > 1 && post[0] == word[len(word)-1] {
		_, ok := inflections[post[1:]]
		return ok
	}
	return false
}

func phraseRegexp(phrase string) *regexp.Regexp {
	parts := strings.Fields(phrase)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(parts, `\s+`) + `\b`)
}
