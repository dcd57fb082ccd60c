package guardrails

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Stage names the pipeline step that produced a report.
type Stage string

const (
	StageNormalize  Stage = "normalize"
	StageSafety     Stage = "safety"
	StageVocabulary Stage = "vocabulary"
	StageTheme      Stage = "theme"
	StageTone       Stage = "tone"
	StageComplete   Stage = "complete"
)

// Recorder receives pipeline outcomes, typically for metrics.
type Recorder interface {
	FilterResult(stage string, passed bool)
	StoryValidated(safe bool)
	EffectDropped(kind string)
}

type nopRecorder struct{}

func (nopRecorder) FilterResult(string, bool) {}
func (nopRecorder) StoryValidated(bool)       {}
func (nopRecorder) EffectDropped(string)      {}

type options struct {
	log       zerolog.Logger
	recorder  Recorder
	labeler   EntityLabeler
	extractor ThemeExtractor
	scorer    SentimentScorer
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

func WithEntityLabeler(l EntityLabeler) Option {
	return func(o *options) { o.labeler = l }
}

func WithThemeExtractor(e ThemeExtractor) Option {
	return func(o *options) { o.extractor = e }
}

func WithSentimentScorer(s SentimentScorer) Option {
	return func(o *options) { o.scorer = s }
}

// Report describes one run of the filter.
type Report struct {
	Output string `json:"output"`
	Passed bool   `json:"passed"`
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason,omitempty"`
}

// ContentFilter runs normalize, safety, vocabulary, theme and tone checks
// in order and replaces rejected text with the lexicon fallback. It holds
// no mutable state and is safe for concurrent use.
type ContentFilter struct {
	lex        *Lexicon
	normalizer *Normalizer
	classifier *SafetyClassifier
	adapter    *VocabularyAdapter
	themes     *ThemeChecker
	tone       *ToneChecker
	log        zerolog.Logger
	recorder   Recorder
}

func NewContentFilter(lex *Lexicon, opts ...Option) *ContentFilter {
	o := options{log: zerolog.Nop(), recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}

	return &ContentFilter{
		lex:        lex,
		normalizer: NewNormalizer(lex),
		classifier: NewSafetyClassifier(lex, o.labeler),
		adapter:    NewVocabularyAdapter(lex),
		themes:     NewThemeChecker(lex, o.extractor),
		tone:       NewToneChecker(lex, o.scorer),
		log:        o.log.With().Str("component", "content_filter").Logger(),
		recorder:   o.recorder,
	}
}

// Lexicon returns the resources the filter was built from.
func (f *ContentFilter) Lexicon() *Lexicon { return f.lex }

// Normalize exposes the first pipeline stage on its own.
func (f *ContentFilter) Normalize(text string) string {
	return f.normalizer.Normalize(text)
}

// FilterContent returns text made safe for the age group, or the fallback
// text when any stage rejects it. It never fails.
func (f *ContentFilter) FilterContent(text string, age AgeGroup) string {
	return f.Evaluate(text, age).Output
}

// Evaluate is FilterContent with the stage outcome attached.
func (f *ContentFilter) Evaluate(text string, age AgeGroup) (report Report) {
	stage := StageNormalize
	defer func() {
		if r := recover(); r != nil {
			report = f.fallback(stage, Reject(RejectFault, "panic: %v", r))
		}
		f.recorder.FilterResult(string(report.Stage), report.Passed)
	}()

	if !age.Valid() {
		return f.fallback(stage, Reject(RejectFault, "%v: %q", ErrUnknownAgeGroup, string(age)))
	}

	clean := f.normalizer.Normalize(text)

	stage = StageSafety
	if v := f.classifier.Check(clean); v.Rejected() {
		return f.fallback(stage, v)
	}

	stage = StageVocabulary
	adapted, err := f.adapter.Adapt(clean, age)
	if err != nil {
		return f.fallback(stage, Reject(RejectFault, "%v", err))
	}

	stage = StageTheme
	if v := f.themes.Check(adapted); v.Rejected() {
		return f.fallback(stage, v)
	}

	stage = StageTone
	if v := f.tone.Check(adapted); v.Rejected() {
		return f.fallback(stage, v)
	}

	return Report{Output: adapted, Passed: true, Stage: StageComplete}
}

func (f *ContentFilter) fallback(stage Stage, v Verdict) Report {
	f.log.Debug().
		Str("stage", string(stage)).
		Str("kind", string(v.Kind)).
		Str("reason", v.Reason).
		Msg("content replaced with fallback")
	return Report{
		Output: f.lex.FallbackText(),
		Stage:  stage,
		Reason: fmt.Sprintf("%s: %s", v.Kind, v.Reason),
	}
}
