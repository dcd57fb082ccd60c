package guardrails

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/llm"
)

// GuardrailResult holds the outcome of an input check.
type GuardrailResult struct {
	Allowed bool               `json:"allowed"`
	Flags   []string           `json:"flags,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
	Reason  string             `json:"reason,omitempty"`
}

// Guardrail screens free text a child types before it reaches a prompt.
type Guardrail interface {
	Check(ctx context.Context, text string) (*GuardrailResult, error)
	Name() string
}

// Pipeline chains guardrails; every guard runs and results are merged.
type Pipeline struct {
	guards []Guardrail
}

func NewPipeline(guards ...Guardrail) *Pipeline {
	return &Pipeline{guards: guards}
}

func (p *Pipeline) Add(g Guardrail) {
	p.guards = append(p.guards, g)
}

func (p *Pipeline) Check(ctx context.Context, text string) (*GuardrailResult, error) {
	combined := &GuardrailResult{
		Allowed: true,
		Scores:  make(map[string]float64),
	}

	for _, g := range p.guards {
		result, err := g.Check(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("guardrail %s: %w", g.Name(), err)
		}
		if !result.Allowed {
			combined.Allowed = false
			if combined.Reason == "" {
				combined.Reason = fmt.Sprintf("blocked by %s: %s", g.Name(), result.Reason)
			}
		}
		combined.Flags = append(combined.Flags, result.Flags...)
		for k, v := range result.Scores {
			combined.Scores[k] = v
		}
	}

	return combined, nil
}

// IdeaPipeline builds the checks applied to a child's story idea. gw may
// be nil, in which case injection detection is heuristic only.
func IdeaPipeline(gw llm.Gateway, model string, filter *ContentFilter, maxLen int) *Pipeline {
	return NewPipeline(
		NewInputLengthGuard(maxLen),
		NewPersonalInfoGuard(),
		NewIdeaSafetyGuard(filter),
		NewPromptInjectionDetector(gw, model),
	)
}

// InputLengthGuard rejects inputs that are too long.
type InputLengthGuard struct {
	maxLength int
}

func NewInputLengthGuard(maxLen int) *InputLengthGuard {
	if maxLen <= 0 {
		maxLen = 500
	}
	return &InputLengthGuard{maxLength: maxLen}
}

func (g *InputLengthGuard) Name() string { return "input_length" }

func (g *InputLengthGuard) Check(_ context.Context, text string) (*GuardrailResult, error) {
	if len([]rune(text)) > g.maxLength {
		return &GuardrailResult{
			Allowed: false,
			Reason:  fmt.Sprintf("input exceeds %d characters", g.maxLength),
			Flags:   []string{"input_too_long"},
		}, nil
	}
	return &GuardrailResult{Allowed: true}, nil
}

var (
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
)

// PersonalInfoGuard stops children from sending contact details or home
// location into a prompt.
type PersonalInfoGuard struct {
	phrases map[string][]string
}

func NewPersonalInfoGuard() *PersonalInfoGuard {
	return &PersonalInfoGuard{
		phrases: map[string][]string{
			"address":  {"my address", "i live at", "i live on", "my house is at"},
			"phone":    {"my phone", "my number is", "call me at"},
			"school":   {"my school is", "i go to school at"},
			"password": {"my password", "password is"},
		},
	}
}

func (g *PersonalInfoGuard) Name() string { return "personal_info" }

func (g *PersonalInfoGuard) Check(_ context.Context, text string) (*GuardrailResult, error) {
	var flags []string
	lower := strings.ToLower(text)

	for flag, phrases := range g.phrases {
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				flags = append(flags, flag)
				break
			}
		}
	}
	if emailPattern.MatchString(text) {
		flags = append(flags, "email")
	}
	if phonePattern.MatchString(text) {
		flags = append(flags, "phone_number")
	}

	if len(flags) > 0 {
		return &GuardrailResult{
			Allowed: false,
			Reason:  "personal information detected",
			Flags:   flags,
		}, nil
	}
	return &GuardrailResult{Allowed: true}, nil
}

// IdeaSafetyGuard applies the normalizer and safety classifier to an
// idea. Theme and tone are not required of a short idea.
type IdeaSafetyGuard struct {
	filter *ContentFilter
}

func NewIdeaSafetyGuard(filter *ContentFilter) *IdeaSafetyGuard {
	return &IdeaSafetyGuard{filter: filter}
}

func (g *IdeaSafetyGuard) Name() string { return "idea_safety" }

func (g *IdeaSafetyGuard) Check(_ context.Context, text string) (*GuardrailResult, error) {
	clean := g.filter.normalizer.Normalize(text)
	if strings.Contains(clean, profanityMask) {
		return &GuardrailResult{
			Allowed: false,
			Reason:  "inappropriate language",
			Flags:   []string{"profanity"},
		}, nil
	}
	if v := g.filter.classifier.Check(clean); v.Rejected() {
		return &GuardrailResult{
			Allowed: false,
			Reason:  v.Reason,
			Flags:   []string{"unsafe_content"},
		}, nil
	}
	return &GuardrailResult{Allowed: true}, nil
}
