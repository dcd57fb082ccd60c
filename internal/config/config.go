package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Storage   StorageConfig
	TTS       TTSConfig
	Safety    SafetyConfig
	Vision    VisionConfig
	Story     StoryConfig
	Logging   LoggingConfig
	Telegram  TelegramConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	DefaultProvider  string
	FallbackProvider string
	MaxRetries       int
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type TTSConfig struct {
	Enabled       bool
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	Voice         string
	Speed         float64
}

type SafetyConfig struct {
	LexiconPath     string // optional YAML overriding the embedded lexicon
	DefaultAgeGroup string
	MaxIdeaLength   int
}

type VisionConfig struct {
	Backend       string // "gcp", "llm" or "none"
	Model         string // vision-capable chat model for the llm backend
	MinConfidence float64
	CacheTTL      time.Duration
}

type StoryConfig struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	Style       string
}

type LoggingConfig struct {
	Level  string
	Pretty bool
}

type TelegramConfig struct {
	Token string
	Debug bool
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	tokenTTL, err := getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}

	ttsEnabled, err := getEnvBool("TTS_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_ENABLED: %w", err)
	}

	ttsSpeed, err := getEnvFloat("TTS_SPEED", 0.9)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_SPEED: %w", err)
	}

	maxIdea, err := getEnvInt("SAFETY_MAX_IDEA_LENGTH", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid SAFETY_MAX_IDEA_LENGTH: %w", err)
	}

	minConfidence, err := getEnvFloat("VISION_MIN_CONFIDENCE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_MIN_CONFIDENCE: %w", err)
	}

	cacheTTL, err := getEnvDuration("VISION_CACHE_TTL", 6*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_CACHE_TTL: %w", err)
	}

	temperature, err := getEnvFloat("STORY_TEMPERATURE", 0.8)
	if err != nil {
		return nil, fmt.Errorf("invalid STORY_TEMPERATURE: %w", err)
	}

	storyTokens, err := getEnvInt("STORY_MAX_TOKENS", 600)
	if err != nil {
		return nil, fmt.Errorf("invalid STORY_MAX_TOKENS: %w", err)
	}

	pretty, err := getEnvBool("LOG_PRETTY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	tgDebug, err := getEnvBool("TELEGRAM_DEBUG", false)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_DEBUG: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		Storage: StorageConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "drawings"),
		},
		TTS: TTSConfig{
			Enabled:       ttsEnabled,
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("TTS_OPENAI_MODEL", ""),
			Voice:         getEnv("TTS_VOICE", "fable"),
			Speed:         ttsSpeed,
		},
		Safety: SafetyConfig{
			LexiconPath:     getEnv("SAFETY_LEXICON_PATH", ""),
			DefaultAgeGroup: getEnv("SAFETY_DEFAULT_AGE_GROUP", "6-8"),
			MaxIdeaLength:   maxIdea,
		},
		Vision: VisionConfig{
			Backend:       getEnv("VISION_BACKEND", "llm"),
			Model:         getEnv("VISION_MODEL", "gpt-4o-mini"),
			MinConfidence: minConfidence,
			CacheTTL:      cacheTTL,
		},
		Story: StoryConfig{
			Provider:    getEnv("STORY_PROVIDER", ""),
			Model:       getEnv("STORY_MODEL", "gpt-4o-mini"),
			Temperature: temperature,
			MaxTokens:   storyTokens,
			Style:       getEnv("STORY_STYLE", "bedtime"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: pretty,
		},
		Telegram: TelegramConfig{
			Token: getEnv("TELEGRAM_BOT_TOKEN", ""),
			Debug: tgDebug,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports required settings missing for the API server.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateBot reports required settings missing for the Telegram bot.
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("missing required env vars: TELEGRAM_BOT_TOKEN")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
