package guardrails

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

type sentimentEntry struct {
	Polarity     float64 `yaml:"polarity"`
	Subjectivity float64 `yaml:"subjectivity"`
}

type lexiconFile struct {
	Profanity          []string                     `yaml:"profanity"`
	ProfanityCompounds struct {
		Prefixes []string `yaml:"prefixes"`
		Suffixes []string `yaml:"suffixes"`
	} `yaml:"profanity_compounds"`
	UnsafePatterns     []string                     `yaml:"unsafe_patterns"`
	Vocabulary         map[string]map[string]string `yaml:"vocabulary"`
	SafeThemes         []string                     `yaml:"safe_themes"`
	UnsafeEntityLabels []string                     `yaml:"unsafe_entity_labels"`
	Entities           map[string][]string          `yaml:"entities"`
	UnsafeCombinations [][]string                   `yaml:"unsafe_combinations"`
	UnsafeSounds       []string                     `yaml:"unsafe_sounds"`
	UnsafeAnimations   []string                     `yaml:"unsafe_animations"`
	StopWords          []string                     `yaml:"stop_words"`
	Sentiment          map[string]sentimentEntry    `yaml:"sentiment"`
	Intensifiers       map[string]float64           `yaml:"intensifiers"`
	Negations          []string                     `yaml:"negations"`
	Fallback           struct {
		Text  string `yaml:"text"`
		Story struct {
			Narrative    []Section `yaml:"narrative"`
			SoundEffects []Effect  `yaml:"sound_effects"`
			Animations   []Effect  `yaml:"animations"`
		} `yaml:"story"`
	} `yaml:"fallback"`
}

// Lexicon is the immutable bundle of word lists and tables shared by every
// pipeline component. Build one at start-up and pass it to constructors;
// it is safe for concurrent reads.
type Lexicon struct {
	profanity          []string
	compoundPrefixes   map[string]struct{}
	compoundSuffixes   map[string]struct{}
	unsafePatterns     []*regexp.Regexp
	vocabulary         map[AgeGroup]map[string]string
	safeThemes         map[string]struct{}
	unsafeEntityLabels map[string]struct{}
	entities           map[string][]string // token -> labels
	unsafeCombinations [][]string
	unsafeSounds       []string
	unsafeAnimations   []string
	stopWords          map[string]struct{}
	sentiment          map[string]sentimentEntry
	intensifiers       map[string]float64
	negations          map[string]struct{}
	fallbackText       string
	fallbackStory      Story
}

// DefaultLexicon parses the embedded lexicon.
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(nil)
}

// LoadLexicon returns the embedded lexicon, overlaid with the YAML file at
// path when path is not empty.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes override on top of the embedded defaults. Top-level
// tables gain or replace keys; lists in override replace the default list.
func ParseLexicon(override []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(defaultLexiconYAML, &f); err != nil {
		return nil, fmt.Errorf("decode embedded lexicon: %w", err)
	}
	if len(override) > 0 {
		if err := yaml.Unmarshal(override, &f); err != nil {
			return nil, fmt.Errorf("decode lexicon override: %w", err)
		}
	}
	return buildLexicon(f)
}

func buildLexicon(f lexiconFile) (*Lexicon, error) {
	lex := &Lexicon{
		vocabulary:         make(map[AgeGroup]map[string]string, len(f.Vocabulary)),
		safeThemes:         toSet(f.SafeThemes),
		unsafeEntityLabels: make(map[string]struct{}, len(f.UnsafeEntityLabels)),
		entities:           make(map[string][]string),
		stopWords:          toSet(f.StopWords),
		sentiment:          make(map[string]sentimentEntry, len(f.Sentiment)),
		intensifiers:       make(map[string]float64, len(f.Intensifiers)),
		negations:          toSet(f.Negations),
		unsafeSounds:       lowerAll(f.UnsafeSounds),
		unsafeAnimations:   lowerAll(f.UnsafeAnimations),
		profanity:          lowerAll(f.Profanity),
		compoundPrefixes:   toSet(f.ProfanityCompounds.Prefixes),
		compoundSuffixes:   toSet(f.ProfanityCompounds.Suffixes),
		fallbackText:       strings.TrimSpace(f.Fallback.Text),
	}

	for _, p := range f.UnsafePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile unsafe pattern %q: %w", p, err)
		}
		lex.unsafePatterns = append(lex.unsafePatterns, re)
	}

	for key, table := range f.Vocabulary {
		age, err := ParseAgeGroup(key)
		if err != nil {
			return nil, fmt.Errorf("vocabulary: %w", err)
		}
		m := make(map[string]string, len(table))
		for from, to := range table {
			m[strings.ToLower(strings.TrimSpace(from))] = to
		}
		lex.vocabulary[age] = m
	}
	for _, age := range AgeGroups() {
		if _, ok := lex.vocabulary[age]; !ok {
			return nil, fmt.Errorf("vocabulary: missing table for age group %s", age)
		}
	}

	for _, label := range f.UnsafeEntityLabels {
		lex.unsafeEntityLabels[strings.ToUpper(strings.TrimSpace(label))] = struct{}{}
	}
	for label, words := range f.Entities {
		label = strings.ToUpper(strings.TrimSpace(label))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			lex.entities[w] = append(lex.entities[w], label)
		}
	}

	for _, combo := range f.UnsafeCombinations {
		if len(combo) == 0 {
			continue
		}
		lex.unsafeCombinations = append(lex.unsafeCombinations, lowerAll(combo))
	}

	for w, e := range f.Sentiment {
		lex.sentiment[strings.ToLower(w)] = e
	}
	for w, v := range f.Intensifiers {
		lex.intensifiers[strings.ToLower(w)] = v
	}

	if lex.fallbackText == "" {
		return nil, fmt.Errorf("fallback: text is empty")
	}
	if len(f.Fallback.Story.Narrative) == 0 {
		return nil, fmt.Errorf("fallback: story has no narrative")
	}
	lex.fallbackStory = Story{
		Narrative:    f.Fallback.Story.Narrative,
		SoundEffects: f.Fallback.Story.SoundEffects,
		Animations:   f.Fallback.Story.Animations,
	}.clone()

	return lex, nil
}

// FallbackText is the single canonical replacement for rejected text.
func (l *Lexicon) FallbackText() string { return l.fallbackText }

// FallbackStory returns a fresh copy of the canned replacement story.
func (l *Lexicon) FallbackStory() Story { return l.fallbackStory.clone() }

// Replacement looks up the age-appropriate substitute for a lowercase word.
func (l *Lexicon) Replacement(age AgeGroup, word string) (string, bool) {
	table, ok := l.vocabulary[age]
	if !ok {
		return "", false
	}
	r, ok := table[word]
	return r, ok
}

func (l *Lexicon) hasVocabulary(age AgeGroup) bool {
	_, ok := l.vocabulary[age]
	return ok
}

// IsSafeTheme reports whether a lowercase keyword is on the theme allow-list.
func (l *Lexicon) IsSafeTheme(word string) bool {
	_, ok := l.safeThemes[word]
	return ok
}

// SafeThemes lists the allowed themes in no particular order.
func (l *Lexicon) SafeThemes() []string {
	out := make([]string, 0, len(l.safeThemes))
	for t := range l.safeThemes {
		out = append(out, t)
	}
	return out
}

// UnsafeSounds returns the keywords that reject a sound effect.
func (l *Lexicon) UnsafeSounds() []string { return append([]string(nil), l.unsafeSounds...) }

// UnsafeAnimations returns the keywords that reject an animation.
func (l *Lexicon) UnsafeAnimations() []string { return append([]string(nil), l.unsafeAnimations...) }

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
