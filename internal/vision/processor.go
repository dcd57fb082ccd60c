package vision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/cache"
)

// Cache is the subset of the Redis cache used for analyses.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Observer receives analysis outcomes, typically for metrics.
type Observer interface {
	DrawingAnalyzed(backend string, err error, d time.Duration)
}

// Processor runs detection and the heuristic layers over a drawing.
type Processor struct {
	detector      Detector
	colors        *ColorAnalyzer
	cache         Cache
	ttl           time.Duration
	minConfidence float64
	observer      Observer
	log           zerolog.Logger
}

type ProcessorOption func(*Processor)

func WithCache(c Cache, ttl time.Duration) ProcessorOption {
	return func(p *Processor) { p.cache, p.ttl = c, ttl }
}

func WithMinConfidence(v float64) ProcessorOption {
	return func(p *Processor) { p.minConfidence = v }
}

func WithObserver(o Observer) ProcessorOption {
	return func(p *Processor) { p.observer = o }
}

func WithLogger(l zerolog.Logger) ProcessorOption {
	return func(p *Processor) { p.log = l }
}

func NewProcessor(d Detector, opts ...ProcessorOption) *Processor {
	p := &Processor{
		detector:      d,
		colors:        NewColorAnalyzer(),
		minConfidence: 0.7,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("component", "drawing_processor").Str("backend", d.Name()).Logger()
	return p
}

// Analyze decodes the image, runs the detector and derives scene, colour,
// composition and safety information. Results are cached by image hash.
func (p *Processor) Analyze(ctx context.Context, img []byte) (a *Analysis, err error) {
	start := time.Now()
	defer func() {
		if p.observer != nil {
			p.observer.DrawingAnalyzed(p.detector.Name(), err, time.Since(start))
		}
	}()

	key := cacheKey(img)
	if p.cache != nil {
		var cached Analysis
		switch cerr := p.cache.Get(ctx, key, &cached); {
		case cerr == nil:
			p.log.Debug().Str("key", key).Msg("analysis cache hit")
			return &cached, nil
		case !errors.Is(cerr, cache.ErrMiss):
			p.log.Warn().Err(cerr).Msg("analysis cache read failed")
		}
	}

	decoded, format, err := DecodeImage(img)
	if err != nil {
		return nil, err
	}

	det, err := p.detector.Detect(ctx, img, "image/"+format)
	if err != nil {
		return nil, fmt.Errorf("detect objects: %w", err)
	}

	objects := make([]Object, 0, len(det.Objects))
	for _, o := range det.Objects {
		if o.Confidence >= p.minConfidence {
			objects = append(objects, o)
		}
	}

	colors, attrs := p.colors.Analyze(decoded)
	scene := SceneInfo{
		Type:       SceneType(objects, det.Scene),
		Label:      det.Scene,
		Confidence: det.SceneConfidence,
		Attributes: attrs,
	}
	a = &Analysis{
		Objects:     objects,
		Scene:       scene,
		Colors:      colors,
		Composition: Compose(objects),
		Safety:      CheckDrawing(objects, scene, det.Flags),
		Backend:     p.detector.Name(),
	}

	if p.cache != nil {
		if cerr := p.cache.Set(ctx, key, a, p.ttl); cerr != nil {
			p.log.Warn().Err(cerr).Msg("analysis cache write failed")
		}
	}
	p.log.Info().
		Int("objects", len(objects)).
		Str("scene", scene.Type).
		Bool("safe", a.Safety.IsSafe).
		Msg("drawing analyzed")
	return a, nil
}

func cacheKey(img []byte) string {
	sum := sha256.Sum256(img)
	return "analysis:" + hex.EncodeToString(sum[:])
}
