package guardrails

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLexicon(t *testing.T) {
	lex := testLexicon(t)

	assert.Equal(t, "Once upon a time, there was a friendly animal who loved to play and make friends.", lex.FallbackText())
	assert.Len(t, lex.FallbackStory().Narrative, 3)
	assert.ElementsMatch(t, []string{"crash", "bang", "explosion", "scream", "yell"}, lex.UnsafeSounds())
	assert.ElementsMatch(t, []string{"violent", "scary", "threatening", "rapid"}, lex.UnsafeAnimations())
	assert.True(t, lex.IsSafeTheme("friendship"))
	assert.False(t, lex.IsSafeTheme("war"))

	for _, age := range AgeGroups() {
		assert.True(t, lex.hasVocabulary(age), age)
	}
	r, ok := lex.Replacement(AgePreschool, "sad")
	assert.True(t, ok)
	assert.Equal(t, "unhappy", r)
	_, ok = lex.Replacement(AgeMiddle, "sad")
	assert.False(t, ok)
}

func TestFallbackStoryIsCopied(t *testing.T) {
	lex := testLexicon(t)

	s := lex.FallbackStory()
	s.Narrative[0].Content = "changed"
	s.SoundEffects = nil

	fresh := lex.FallbackStory()
	assert.Equal(t, "Once upon a time, in a beautiful garden full of nature...", fresh.Narrative[0].Content)
	assert.Len(t, fresh.SoundEffects, 1)
}

func TestParseLexiconOverride(t *testing.T) {
	lex, err := ParseLexicon([]byte(`
safe_themes: [dinosaurs]
vocabulary:
  "9-12":
    perilous: risky
`))
	require.NoError(t, err)

	assert.True(t, lex.IsSafeTheme("dinosaurs"))
	assert.False(t, lex.IsSafeTheme("friendship"), "lists replace defaults")
	r, ok := lex.Replacement(AgeMiddle, "perilous")
	assert.True(t, ok)
	assert.Equal(t, "risky", r)
	_, ok = lex.Replacement(AgePreschool, "sad")
	assert.True(t, ok, "other age tables survive the override")
}

func TestParseLexiconRejectsBadResources(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad pattern", "unsafe_patterns: ['(unclosed']"},
		{"unknown age group", "vocabulary:\n  \"13-16\": {a: b}"},
		{"empty fallback", "fallback:\n  text: \"  \""},
		{"not yaml", "profanity: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLexicon([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unsafe_sounds: [thunder]\n"), 0o644))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"thunder"}, lex.UnsafeSounds())

	_, err = LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	lex, err = LoadLexicon("")
	require.NoError(t, err)
	assert.Len(t, lex.UnsafeSounds(), 5)
}

func TestParseAgeGroup(t *testing.T) {
	age, err := ParseAgeGroup(" 6-8 ")
	require.NoError(t, err)
	assert.Equal(t, AgeEarly, age)

	_, err = ParseAgeGroup("13-16")
	assert.ErrorIs(t, err, ErrUnknownAgeGroup)
	_, err = ParseAgeGroup("")
	assert.ErrorIs(t, err, ErrUnknownAgeGroup)
}
