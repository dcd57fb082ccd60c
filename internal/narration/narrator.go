package narration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/storage"
	"github.com/nikhilbhutani/sketchstories/pkg/chunker"
)

var ErrNothingToSay = errors.New("story has no narrative text")

// Narrator turns a story into one audio object. Long stories are
// synthesized sentence-aligned in pieces and the MP3 frames concatenated.
type Narrator struct {
	speech Speech
	store  storage.Storage
	log    zerolog.Logger
}

func NewNarrator(speech Speech, store storage.Storage, log zerolog.Logger) *Narrator {
	return &Narrator{
		speech: speech,
		store:  store,
		log:    log.With().Str("component", "narration").Logger(),
	}
}

// Key is where the narration for a story is stored.
func Key(storyID string) string {
	return "narration/" + storyID + ".mp3"
}

func (n *Narrator) Narrate(ctx context.Context, storyID string, story guardrails.Story) (string, error) {
	chunks := chunker.BySize(story.Text(), maxInput)
	if len(chunks) == 0 {
		return "", ErrNothingToSay
	}

	var audio []byte
	for i, c := range chunks {
		part, err := n.speech.Synthesize(ctx, c)
		if err != nil {
			return "", fmt.Errorf("synthesize part %d/%d: %w", i+1, len(chunks), err)
		}
		audio = append(audio, part...)
	}

	key := Key(storyID)
	if err := n.store.Put(ctx, key, audio, n.speech.ContentType()); err != nil {
		return "", fmt.Errorf("store narration: %w", err)
	}

	n.log.Debug().Str("story_id", storyID).Int("parts", len(chunks)).Int("bytes", len(audio)).Msg("narration stored")
	return n.store.URL(key), nil
}
