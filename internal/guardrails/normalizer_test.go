package guardrails

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCensorsProfanity(t *testing.T) {
	n := NewNormalizer(testLexicon(t))

	tests := []struct {
		in   string
		want string
	}{
		{"You are a stupid idiot", "You are a **** ****"},
		{"STUPID cat", "**** cat"},
		{"that is sh1t", "that is ****"},
		{"he got pissed off", "he got **** off"},
		{"please Shut   Up now", "please **** now"},
		{"a scrappy little dog", "a scrappy little dog"},
		{"Dickens wrote books", "Dickens wrote books"},
		{"the bullshit bunny", "the **** bunny"},
		{"a dumbass fox", "a **** fox"},
		{"you shithead", "you ****"},
		{"MotherFuckers everywhere", "**** everywhere"},
		{"quit bull$hitting me", "quit **** me"},
		{"a shitty day", "a **** day"},
		{"the dumbest idea", "the **** idea"},
		{"Dumbo the elephant", "Dumbo the elephant"},
		{"close the closer door", "close the closer door"},
		{"an oxymoron", "an oxymoron"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizeLeavesNoProfaneWord(t *testing.T) {
	lex := testLexicon(t)
	n := NewNormalizer(lex)

	for _, word := range lex.profanity {
		out := strings.ToLower(n.Normalize("the bunny said " + word + " loudly"))
		assert.NotContains(t, out, word)
		assert.Contains(t, out, profanityMask)
	}
}

func TestNormalizeStripsFormatCharacters(t *testing.T) {
	n := NewNormalizer(testLexicon(t))

	assert.Equal(t, "****", n.Normalize("sh\u200bit"))
	assert.Equal(t, "a **** cat", n.Normalize("a stu\u00adpid cat"))
	assert.Equal(t, "a happy fox", n.Normalize("a hap\u200dpy\ufeff fox"))
}

func TestNormalizeStripsPatterns(t *testing.T) {
	n := NewNormalizer(testLexicon(t))

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url", "visit https://example.com/page now", "visit now"},
		{"www", "go to www.example.com today", "go to today"},
		{"email", "write to kid@example.com please", "write to please"},
		{"html", "a <b>bold</b> fox", "a bold fox"},
		{"phone", "call 555-123-4567 soon", "call soon"},
		{"control", "tab\x01bed", "tab bed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	n := NewNormalizer(testLexicon(t))

	assert.Equal(t, "a happy fox", n.Normalize("  a \t happy\n\n fox  "))
	assert.Equal(t, "", n.Normalize("   "))
	assert.Equal(t, "", n.Normalize(""))
}
