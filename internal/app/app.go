// Package app wires the storytelling services shared by the api, worker
// and bot binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/cache"
	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/database"
	"github.com/nikhilbhutani/sketchstories/internal/drawing"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/llm"
	"github.com/nikhilbhutani/sketchstories/internal/metrics"
	"github.com/nikhilbhutani/sketchstories/internal/narration"
	"github.com/nikhilbhutani/sketchstories/internal/storage"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

// Core is everything needed to turn an image into a safe story. It has
// no database.
type Core struct {
	Log        zerolog.Logger
	Metrics    *metrics.Metrics
	Redis      *redis.Client
	Cache      *cache.Cache
	Storage    storage.Storage
	Gateway    llm.Gateway
	Filter     *guardrails.ContentFilter
	Validator  *guardrails.StoryValidator
	Analyzer   *vision.Processor
	Stories    *storygen.Service
	DefaultAge guardrails.AgeGroup

	closers []func() error
}

// NewCore connects to Redis and builds the safety, vision and story
// services from cfg.
func NewCore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Core, error) {
	defaultAge, err := guardrails.ParseAgeGroup(cfg.Safety.DefaultAgeGroup)
	if err != nil {
		return nil, fmt.Errorf("SAFETY_DEFAULT_AGE_GROUP: %w", err)
	}

	c := &Core{Log: log, Metrics: metrics.NewMetrics(), DefaultAge: defaultAge}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	c.closers = append(c.closers, c.Redis.Close)
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, analyses will not be cached")
	}
	c.Cache = cache.NewCache(c.Redis, "sketchstories")

	if cfg.Storage.SupabaseURL != "" {
		c.Storage = storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.Bucket)
	}

	c.Gateway = llm.NewGateway(cfg.LLM, log)

	if err := c.buildSafety(cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildVision(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	c.buildStories(cfg)
	return c, nil
}

func (c *Core) buildSafety(cfg *config.Config) error {
	lex, err := loadLexicon(cfg.Safety.LexiconPath)
	if err != nil {
		return err
	}
	c.Filter = guardrails.NewContentFilter(lex,
		guardrails.WithLogger(c.Log),
		guardrails.WithRecorder(c.Metrics),
	)
	c.Validator, err = guardrails.NewStoryValidator(c.Filter)
	return err
}

func loadLexicon(path string) (*guardrails.Lexicon, error) {
	if path == "" {
		return guardrails.DefaultLexicon()
	}
	lex, err := guardrails.LoadLexicon(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	return lex, nil
}

func (c *Core) buildVision(ctx context.Context, cfg *config.Config) error {
	var det vision.Detector
	switch cfg.Vision.Backend {
	case "gcp":
		cd, err := vision.NewCloudDetector(ctx)
		if err != nil {
			return fmt.Errorf("cloud vision: %w", err)
		}
		c.closers = append(c.closers, cd.Close)
		det = cd
	case "llm":
		if cfg.LLM.OpenAIKey == "" && cfg.LLM.AnthropicKey == "" {
			c.Log.Warn().Msg("no LLM key configured, drawings are analysed by colour only")
			det = vision.ColorOnly{}
			break
		}
		det = vision.NewLLMDetector(c.Gateway, cfg.Vision.Model)
	case "none", "":
		det = vision.ColorOnly{}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", cfg.Vision.Backend)
	}

	c.Analyzer = vision.NewProcessor(det,
		vision.WithCache(c.Cache, cfg.Vision.CacheTTL),
		vision.WithMinConfidence(cfg.Vision.MinConfidence),
		vision.WithObserver(c.Metrics),
		vision.WithLogger(c.Log),
	)
	return nil
}

func (c *Core) buildStories(cfg *config.Config) {
	template := storygen.NewTemplateGenerator()
	opts := []storygen.Option{
		storygen.WithIdeaScreen(guardrails.IdeaPipeline(c.Gateway, cfg.Story.Model, c.Filter, cfg.Safety.MaxIdeaLength)),
		storygen.WithObserver(c.Metrics),
		storygen.WithLogger(c.Log),
	}

	var primary storygen.Generator = template
	if cfg.Story.Provider != "template" && (cfg.LLM.OpenAIKey != "" || cfg.LLM.AnthropicKey != "") {
		primary = storygen.NewLLMGenerator(c.Gateway, cfg.Story)
		opts = append(opts, storygen.WithFallback(template))
	}

	if cfg.TTS.Enabled {
		if c.Storage == nil {
			c.Log.Warn().Msg("narration enabled without storage, stories will not be narrated")
		} else {
			speech := narration.NewOpenAISpeech(cfg.TTS)
			opts = append(opts, storygen.WithNarrator(narration.NewNarrator(speech, c.Storage, c.Log)))
		}
	}

	c.Stories = storygen.NewService(primary, c.Validator, opts...)
}

// Close releases connections in reverse order of creation.
func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Store adds the Postgres-backed drawing store to a Core.
type Store struct {
	Pool     *pgxpool.Pool
	Drawings *drawing.Service
	Teller   *drawing.Storyteller
}

// NewStore connects to Postgres, applies migrations and builds the
// drawing services. Object storage is required.
func NewStore(ctx context.Context, cfg *config.Config, core *Core) (*Store, error) {
	if core.Storage == nil {
		return nil, errors.New("missing required env vars: SUPABASE_URL")
	}
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, core.Log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	drawings := drawing.NewService(drawing.NewPostgresRepository(pool), core.Storage, core.Log)
	return &Store{
		Pool:     pool,
		Drawings: drawings,
		Teller:   drawing.NewStoryteller(drawings, core.Analyzer, core.Stories),
	}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}
