package storygen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
)

// Observer receives one call per generation attempt.
type Observer interface {
	StoryGenerated(generator string, err error)
}

// Result is a validated story ready to show to a child.
type Result struct {
	StoryID      string           `json:"story_id"`
	Story        guardrails.Story `json:"story"`
	IsSafe       bool             `json:"is_safe"`
	Issues       []string         `json:"issues"`
	Generator    string           `json:"generator"`
	IdeaUsed     bool             `json:"idea_used"`
	IdeaFlags    []string         `json:"idea_flags,omitempty"`
	NarrationURL string           `json:"voice_narration,omitempty"`
}

type Service struct {
	primary   Generator
	fallback  Generator
	validator *guardrails.StoryValidator
	ideas     *guardrails.Pipeline
	narrator  Narrator
	observer  Observer
	log       zerolog.Logger
}

type Option func(*Service)

// WithFallback sets the generator used when the primary one fails.
func WithFallback(g Generator) Option {
	return func(s *Service) { s.fallback = g }
}

// WithIdeaScreen screens the child's idea before it reaches a prompt.
func WithIdeaScreen(p *guardrails.Pipeline) Option {
	return func(s *Service) { s.ideas = p }
}

func WithNarrator(n Narrator) Option {
	return func(s *Service) { s.narrator = n }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(primary Generator, validator *guardrails.StoryValidator, opts ...Option) *Service {
	s := &Service{
		primary:   primary,
		validator: validator,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "storygen").Logger()
	return s
}

// Create screens the idea, generates a draft, validates it for the age
// group and narrates the result. A blocked idea is dropped rather than
// failing the request; narration failures are logged and skipped.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	if req.StoryID == "" {
		req.StoryID = uuid.NewString()
	}
	res := &Result{StoryID: req.StoryID}

	if err := s.screenIdea(ctx, &req, res); err != nil {
		return nil, err
	}

	draft, gen, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Generator = gen

	v := s.validator.ValidateStory(draft, req.AgeGroup)
	res.Story, res.IsSafe, res.Issues = v.ModifiedContent, v.IsSafe, v.Issues

	if s.narrator != nil {
		url, err := s.narrator.Narrate(ctx, req.StoryID, res.Story)
		if err != nil {
			s.log.Warn().Err(err).Str("story_id", req.StoryID).Msg("narration skipped")
		} else {
			res.NarrationURL = url
		}
	}

	s.log.Info().
		Str("story_id", req.StoryID).
		Str("generator", gen).
		Str("age_group", req.AgeGroup.String()).
		Bool("is_safe", res.IsSafe).
		Bool("idea_used", res.IdeaUsed).
		Msg("story created")
	return res, nil
}

func (s *Service) screenIdea(ctx context.Context, req *Request, res *Result) error {
	req.Idea = strings.TrimSpace(req.Idea)
	if req.Idea == "" {
		return nil
	}
	if s.ideas == nil {
		res.IdeaUsed = true
		return nil
	}

	check, err := s.ideas.Check(ctx, req.Idea)
	if err != nil {
		return fmt.Errorf("screen idea: %w", err)
	}
	res.IdeaFlags = check.Flags
	if !check.Allowed {
		s.log.Info().Strs("flags", check.Flags).Str("reason", check.Reason).Msg("idea dropped")
		req.Idea = ""
		return nil
	}
	res.IdeaUsed = true
	return nil
}

func (s *Service) generate(ctx context.Context, req Request) (guardrails.Draft, string, error) {
	draft, err := s.primary.Generate(ctx, req)
	s.observe(s.primary.Name(), err)
	if err == nil {
		return draft, s.primary.Name(), nil
	}
	if ctx.Err() != nil || s.fallback == nil {
		return guardrails.Draft{}, "", fmt.Errorf("%s generator: %w", s.primary.Name(), err)
	}

	s.log.Warn().Err(err).Str("generator", s.primary.Name()).Msg("falling back to " + s.fallback.Name())
	draft, ferr := s.fallback.Generate(ctx, req)
	s.observe(s.fallback.Name(), ferr)
	if ferr != nil {
		return guardrails.Draft{}, "", fmt.Errorf("%s generator: %w", s.fallback.Name(), ferr)
	}
	return draft, s.fallback.Name(), nil
}

func (s *Service) observe(name string, err error) {
	if s.observer != nil {
		s.observer.StoryGenerated(name, err)
	}
}
