// Package telegram tells stories about drawings sent to a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/cache"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

const (
	maxPhotoBytes = 10 << 20
	ageTTL        = 90 * 24 * time.Hour
	lockTTL       = 3 * time.Minute
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// State keeps per-chat settings and locks.
type State interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type Analyzer interface {
	Analyze(ctx context.Context, img []byte) (*vision.Analysis, error)
}

type StoryCreator interface {
	Create(ctx context.Context, req storygen.Request) (*storygen.Result, error)
}

// Observer counts messages in each direction.
type Observer interface {
	TelegramMessage(direction string)
}

type Bot struct {
	api        API
	analyzer   Analyzer
	stories    StoryCreator
	state      State
	defaultAge guardrails.AgeGroup
	httpClient *http.Client
	observer   Observer
	log        zerolog.Logger
}

type Option func(*Bot)

func WithObserver(o Observer) Option {
	return func(b *Bot) { b.observer = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bot) { b.log = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(b *Bot) { b.httpClient = c }
}

func NewBot(api API, analyzer Analyzer, stories StoryCreator, state State, defaultAge guardrails.AgeGroup, opts ...Option) *Bot {
	b := &Bot{
		api:        api,
		analyzer:   analyzer,
		stories:    stories,
		state:      state,
		defaultAge: defaultAge,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With().Str("component", "telegram").Logger()
	return b
}

// Run handles updates until ctx is cancelled or the channel closes, then
// waits for in-flight updates.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, upd)
			}()
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	b.observe("in")

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	default:
		b.send(msg.Chat.ID, hintText)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.send(cid, startText)
	case "help":
		b.send(cid, helpText)
	case "age":
		b.handleAge(ctx, cid, strings.TrimSpace(msg.CommandArguments()))
	default:
		b.send(cid, "I don't know that command. Try /help.")
	}
}

func (b *Bot) handleAge(ctx context.Context, cid int64, arg string) {
	if arg == "" {
		b.send(cid, fmt.Sprintf("Stories are written for ages %s. Change it with /age 3-5, /age 6-8 or /age 9-12.", b.ageFor(ctx, cid)))
		return
	}
	age, err := guardrails.ParseAgeGroup(arg)
	if err != nil {
		b.send(cid, "Please choose one of: 3-5, 6-8, 9-12.")
		return
	}
	if err := b.state.Set(ctx, ageKey(cid), age.String(), ageTTL); err != nil {
		b.log.Error().Err(err).Int64("chat_id", cid).Msg("age not saved")
		b.send(cid, sorryText)
		return
	}
	b.send(cid, fmt.Sprintf("Got it! Stories will be written for ages %s.", age))
}

// ageFor returns the chat's chosen age group, or the default.
func (b *Bot) ageFor(ctx context.Context, cid int64) guardrails.AgeGroup {
	var s string
	if err := b.state.Get(ctx, ageKey(cid), &s); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			b.log.Warn().Err(err).Int64("chat_id", cid).Msg("age lookup failed")
		}
		return b.defaultAge
	}
	age, err := guardrails.ParseAgeGroup(s)
	if err != nil {
		return b.defaultAge
	}
	return age
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	locked, err := b.state.SetNX(ctx, lockKey(cid), msg.MessageID, lockTTL)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", cid).Msg("chat lock failed")
		b.send(cid, sorryText)
		return
	}
	if !locked {
		b.send(cid, "I'm still writing your last story. One moment!")
		return
	}
	defer func() {
		// the request context may be gone by now
		if err := b.state.Delete(context.WithoutCancel(ctx), lockKey(cid)); err != nil {
			b.log.Warn().Err(err).Int64("chat_id", cid).Msg("chat lock not released")
		}
	}()

	b.send(cid, "What a lovely drawing! Let me think of a story...")

	story, err := b.tell(ctx, msg)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", cid).Msg("story failed")
		b.send(cid, sorryText)
		return
	}
	b.send(cid, story)
}

func (b *Bot) tell(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	photo := msg.Photo[len(msg.Photo)-1]
	img, err := b.download(ctx, photo.FileID)
	if err != nil {
		return "", err
	}
	a, err := b.analyzer.Analyze(ctx, img)
	if err != nil {
		return "", fmt.Errorf("analyze photo: %w", err)
	}
	res, err := b.stories.Create(ctx, storygen.Request{
		Analysis: a,
		AgeGroup: b.ageFor(ctx, msg.Chat.ID),
		Idea:     msg.Caption,
	})
	if err != nil {
		return "", fmt.Errorf("create story: %w", err)
	}
	return formatStory(res), nil
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve photo: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo larger than %d bytes", maxPhotoBytes)
	}
	return data, nil
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
		return
	}
	b.observe("out")
}

func (b *Bot) observe(direction string) {
	if b.observer != nil {
		b.observer.TelegramMessage(direction)
	}
}

func ageKey(cid int64) string  { return fmt.Sprintf("tg:age:%d", cid) }
func lockKey(cid int64) string { return fmt.Sprintf("tg:lock:%d", cid) }
