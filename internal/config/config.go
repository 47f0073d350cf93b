package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config is the full service configuration.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogEnc   string `envconfig:"LOG_ENCODING" default:"json"`

	// "postgres" or "memory"
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"stories"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	DBPassword    string        `ignored:"true"`

	// Empty URLs disable the dependent feature.
	RedisURL          string `envconfig:"REDIS_URL"`
	RabbitMQURL       string `envconfig:"RABBITMQ_URL"`
	CompletionQueue   string `envconfig:"COMPLETION_QUEUE" default:"story_completed"`
	ReplenishedQueue  string `envconfig:"REPLENISHED_QUEUE" default:"stories_replenished"`
	RateLimitPerMin   uint   `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
	CORSAllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// "openai" (any OpenAI-compatible endpoint) or "ollama"
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel      string        `envconfig:"AI_MODEL" default:"openai/gpt-4o-mini"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxTokens  int           `envconfig:"AI_MAX_TOKENS" default:"3000"`
	AIAPIKey     string        `ignored:"true"`

	TTSBaseURL    string        `envconfig:"TTS_BASE_URL" default:"https://api.elevenlabs.io"`
	TTSVoiceID    string        `envconfig:"TTS_VOICE_ID"`
	TTSModelID    string        `envconfig:"TTS_MODEL_ID" default:"eleven_multilingual_v2"`
	TTSStability  float64       `envconfig:"TTS_STABILITY" default:"0.5"`
	TTSSimilarity float64       `envconfig:"TTS_SIMILARITY" default:"0.75"`
	TTSTimeout    time.Duration `envconfig:"TTS_TIMEOUT" default:"90s"`
	TTSAPIKey     string        `ignored:"true"`

	// Consecutive provider failures before the breaker opens.
	BreakerFailures uint32        `envconfig:"PROVIDER_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"PROVIDER_BREAKER_COOLDOWN" default:"30s"`

	AudioDir      string `envconfig:"AUDIO_DIR" default:"./data/audio"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	DefaultTargetCount  int    `envconfig:"DEFAULT_TARGET_COUNT" default:"1"`
	DefaultChildName    string `envconfig:"DEFAULT_CHILD_NAME" default:"friend"`
	DefaultChildAge     int    `envconfig:"DEFAULT_CHILD_AGE" default:"5"`
	RegenerationWorkers int    `envconfig:"REGENERATION_WORKERS" default:"2"`
	RegenerationQueue   int    `envconfig:"REGENERATION_QUEUE_SIZE" default:"100"`
	InitConcurrency     int    `envconfig:"INIT_CONCURRENCY" default:"2"`

	JWTSecret string `ignored:"true"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// MaskedDSN is GetDSN with the password hidden, for logs.
func (c *Config) MaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.SplitN(dsn, "@", 2)
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 3 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

// TextGenerationEnabled reports whether generation credentials are present.
// Ollama runs without a key.
func (c *Config) TextGenerationEnabled() bool {
	return c.AIAPIKey != "" || strings.EqualFold(c.AIClientType, "ollama")
}

// SpeechEnabled reports whether speech synthesis credentials are present.
func (c *Config) SpeechEnabled() bool {
	return c.TTSAPIKey != ""
}

// LoadConfig reads envFile (optional), the environment and secret files.
// Provider keys are optional: a missing key turns the capability off.
func LoadConfig(envFile string, secrets SecretSource) (*Config, error) {
	if envFile != "" {
		// a missing .env file is normal outside development
		_ = godotenv.Load(envFile)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	var err error
	if cfg.AIAPIKey, err = optionalSecret(secrets, "ai_api_key", "AI_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.TTSAPIKey, err = optionalSecret(secrets, "elevenlabs_api_key", "ELEVENLABS_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = optionalSecret(secrets, "jwt_secret", "JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = optionalSecret(secrets, "db_password", "DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.StoreDriver == "postgres" && cfg.DBPassword == "" {
		return nil, errors.New("db_password secret is required for the postgres store")
	}
	if cfg.DefaultTargetCount < 1 {
		cfg.DefaultTargetCount = 1
	}
	if cfg.RegenerationWorkers < 1 {
		cfg.RegenerationWorkers = 1
	}

	return &cfg, nil
}

func optionalSecret(secrets SecretSource, name, envName string) (string, error) {
	value, err := secrets.Read(name, envName)
	if errors.Is(err, ErrSecretNotFound) {
		return "", nil
	}
	return value, err
}

// LogSummary writes the non-secret settings to log.
func (c *Config) LogSummary(log *zap.Logger) {
	log.Info("Configuration loaded",
		zap.String("env", c.Env),
		zap.String("port", c.Port),
		zap.String("storeDriver", c.StoreDriver),
		zap.String("dsn", c.MaskedDSN()),
		zap.String("aiClientType", c.AIClientType),
		zap.String("aiBaseURL", c.AIBaseURL),
		zap.String("aiModel", c.AIModel),
		zap.Duration("aiTimeout", c.AITimeout),
		zap.Duration("ttsTimeout", c.TTSTimeout),
		zap.Bool("textGeneration", c.TextGenerationEnabled()),
		zap.Bool("speech", c.SpeechEnabled()),
		zap.Bool("jwtAuth", c.JWTSecret != ""),
		zap.Bool("redis", c.RedisURL != ""),
		zap.Bool("rabbitmq", c.RabbitMQURL != ""),
		zap.Int("defaultTargetCount", c.DefaultTargetCount),
	)
	if !c.TextGenerationEnabled() {
		log.Warn("AI API key not configured, story generation is disabled")
	}
	if !c.SpeechEnabled() {
		log.Warn("ElevenLabs API key not configured, audio will stay pending")
	}
}
