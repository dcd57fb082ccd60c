package guardrails

import (
	"fmt"
	"strings"

	"github.com/nikhilbhutani/sketchstories/pkg/tokenizer"
)

// VocabularyAdapter swaps words for simpler ones chosen per age group.
type VocabularyAdapter struct {
	lex *Lexicon
}

func NewVocabularyAdapter(lex *Lexicon) *VocabularyAdapter {
	return &VocabularyAdapter{lex: lex}
}

// Adapt rewrites every token found in the age group's table. Text between
// tokens and unmatched tokens are copied verbatim.
func (a *VocabularyAdapter) Adapt(text string, age AgeGroup) (string, error) {
	if !a.lex.hasVocabulary(age) {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgeGroup, string(age))
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, tok := range tokenizer.Words(text) {
		b.WriteString(text[last:tok.Start])
		if r, ok := a.lex.Replacement(age, tok.Lower()); ok {
			b.WriteString(r)
		} else {
			b.WriteString(tok.Text)
		}
		last = tok.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
