package guardrails

import (
	"github.com/nikhilbhutani/sketchstories/pkg/tokenizer"
)

const (
	minPolarity     = -0.1
	maxSubjectivity = 0.8
	negationFactor  = -0.5
	negationWindow  = 3
)

// Sentiment holds polarity in [-1, 1] and subjectivity in [0, 1].
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

type SentimentScorer interface {
	Score(text string) Sentiment
}

// LexiconScorer averages word scores from the lexicon. An intensifier
// scales the following word; a negation within three tokens flips and
// dampens polarity.
type LexiconScorer struct {
	words        map[string]sentimentEntry
	intensifiers map[string]float64
	negations    map[string]struct{}
}

func NewLexiconScorer(lex *Lexicon) *LexiconScorer {
	return &LexiconScorer{
		words:        lex.sentiment,
		intensifiers: lex.intensifiers,
		negations:    lex.negations,
	}
}

func (s *LexiconScorer) Score(text string) Sentiment {
	var (
		polarity, subjectivity float64
		n                      int
		boost                  = 1.0
		negated                int
	)

	for _, tok := range tokenizer.Words(text) {
		w := tok.Lower()
		if v, ok := s.intensifiers[w]; ok {
			boost = v
			continue
		}
		if _, ok := s.negations[w]; ok {
			negated = negationWindow
			continue
		}
		e, ok := s.words[w]
		if !ok {
			boost = 1.0
			if negated > 0 {
				negated--
			}
			continue
		}
		p := e.Polarity * boost
		if negated > 0 {
			p *= negationFactor
		}
		polarity += p
		subjectivity += e.Subjectivity * boost
		n++
		boost = 1.0
		negated = 0
	}

	if n == 0 {
		return Sentiment{}
	}
	return Sentiment{
		Polarity:     clamp(polarity/float64(n), -1, 1),
		Subjectivity: clamp(subjectivity/float64(n), 0, 1),
	}
}

// ToneChecker rejects negative or overly intense text.
type ToneChecker struct {
	scorer SentimentScorer
}

func NewToneChecker(lex *Lexicon, scorer SentimentScorer) *ToneChecker {
	if scorer == nil {
		scorer = NewLexiconScorer(lex)
	}
	return &ToneChecker{scorer: scorer}
}

func (c *ToneChecker) Check(text string) Verdict {
	s := c.scorer.Score(text)
	if s.Polarity < minPolarity {
		return Reject(RejectTone, "polarity %.2f below %.2f", s.Polarity, minPolarity)
	}
	if abs(s.Subjectivity) > maxSubjectivity {
		return Reject(RejectTone, "subjectivity %.2f above %.2f", s.Subjectivity, maxSubjectivity)
	}
	return Pass()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
