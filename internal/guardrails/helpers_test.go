package guardrails

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex, err := DefaultLexicon()
	require.NoError(t, err)
	return lex
}

type countingRecorder struct {
	stages   map[string]int
	passed   int
	rejected int
	safe     int
	unsafe   int
	dropped  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stages: map[string]int{}, dropped: map[string]int{}}
}

func (r *countingRecorder) FilterResult(stage string, passed bool) {
	r.stages[stage]++
	if passed {
		r.passed++
	} else {
		r.rejected++
	}
}

func (r *countingRecorder) StoryValidated(safe bool) {
	if safe {
		r.safe++
	} else {
		r.unsafe++
	}
}

func (r *countingRecorder) EffectDropped(kind string) { r.dropped[kind]++ }
