package guardrails

import (
	"sort"
	"strings"

	"github.com/nikhilbhutani/sketchstories/pkg/tokenizer"
)

// EntityLabeler maps each lowercase token of a text to its entity labels.
// Tokens without labels may be omitted.
type EntityLabeler interface {
	Labels(text string) map[string][]string
}

// GazetteerLabeler labels tokens by dictionary lookup.
type GazetteerLabeler struct {
	entries map[string][]string
}

func NewGazetteerLabeler(lex *Lexicon) *GazetteerLabeler {
	return &GazetteerLabeler{entries: lex.entities}
}

func (g *GazetteerLabeler) Labels(text string) map[string][]string {
	out := make(map[string][]string)
	for _, tok := range tokenizer.Words(text) {
		w := tok.Lower()
		if labels, ok := g.entries[w]; ok {
			out[w] = labels
		}
	}
	return out
}

// SafetyClassifier is a binary gate over entity labels and forbidden word
// co-occurrences.
type SafetyClassifier struct {
	labeler      EntityLabeler
	unsafeLabels map[string]struct{}
	combinations [][]string
}

func NewSafetyClassifier(lex *Lexicon, labeler EntityLabeler) *SafetyClassifier {
	if labeler == nil {
		labeler = NewGazetteerLabeler(lex)
	}
	return &SafetyClassifier{
		labeler:      labeler,
		unsafeLabels: lex.unsafeEntityLabels,
		combinations: lex.unsafeCombinations,
	}
}

func (c *SafetyClassifier) Check(text string) Verdict {
	labels := c.labeler.Labels(text)
	tokens := make([]string, 0, len(labels))
	for tok := range labels {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	for _, tok := range tokens {
		for _, label := range labels[tok] {
			if _, bad := c.unsafeLabels[strings.ToUpper(label)]; bad {
				return Reject(RejectSafety, "token %q labelled %s", tok, label)
			}
		}
	}

	present := tokenizer.LowerSet(text)
	for _, combo := range c.combinations {
		if containsAll(present, combo) {
			return Reject(RejectSafety, "unsafe combination %s", strings.Join(combo, "+"))
		}
	}
	return Pass()
}

func containsAll(set map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
