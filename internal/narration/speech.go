// Package narration reads validated stories aloud and stores the audio.
package narration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/sketchstories/internal/config"
)

// maxInput is the longest text the speech endpoint accepts in one call.
const maxInput = 4096

// Speech is a text-to-speech backend.
type Speech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	ContentType() string
}

// OpenAISpeech synthesizes MP3 audio with the OpenAI speech API.
type OpenAISpeech struct {
	client *openai.Client
	model  string
	voice  string
	speed  float64
}

func NewOpenAISpeech(cfg config.TTSConfig) *OpenAISpeech {
	oc := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	s := &OpenAISpeech{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.OpenAIModel,
		voice:  cfg.Voice,
		speed:  cfg.Speed,
	}
	if s.model == "" {
		s.model = "tts-1"
	}
	if s.voice == "" {
		s.voice = "fable"
	}
	return s
}

func (o *OpenAISpeech) ContentType() string { return "audio/mpeg" }

func (o *OpenAISpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          o.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
