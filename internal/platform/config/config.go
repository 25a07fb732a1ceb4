package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"voice_motto/internal/common"
	"voice_motto/internal/common/security"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"

	TranscriberStatic  = "static"
	TranscriberWhisper = "whisper"
)

type DBConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"user"`
	Password string `env:"PASSWORD" envDefault:"password"`
	Name     string `env:"NAME" envDefault:"voice_motto"`
	SslMode  string `env:"SSLMODE" envDefault:"disable"`
	// URL overrides the individual fields when set.
	URL string `env:"URL"`
}

// ConnString returns a pgx-compatible connection string.
func (c DBConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" sslmode=" + c.SslMode
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type WhisperConfig struct {
	FFmpegPath  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	WhisperPath string `env:"WHISPER_PATH" envDefault:"whisper-cli"`
	ModelPath   string `env:"WHISPER_MODEL_PATH"`
	Language    string `env:"WHISPER_LANGUAGE" envDefault:"auto"`
}

// Config is built once at process start and handed to every component that
// needs it.
type Config struct {
	APIPort            string `env:"API_PORT" envDefault:"8080"`
	JWTSecret          string `env:"JWT_SECRET" envDefault:"defaultsecret"`
	JWTExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"72"`

	DB    DBConfig    `envPrefix:"DB_"`
	Redis RedisConfig `envPrefix:"REDIS_"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	QueueDriver string `env:"QUEUE_DRIVER" envDefault:"redis"`

	TranscriptionQueueName string `env:"TRANSCRIPTION_QUEUE_NAME" envDefault:"transcription_jobs_queue"`
	MemoryQueueSize        int    `env:"MEMORY_QUEUE_SIZE" envDefault:"128"`
	WorkerConcurrency      int    `env:"WORKER_CONCURRENCY" envDefault:"1"`
	EmbeddedWorker         bool   `env:"EMBEDDED_WORKER" envDefault:"true"`

	UploadFolder      string   `env:"UPLOAD_FOLDER" envDefault:"./uploads"`
	MaxUploadBytes    int64    `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" envSeparator:"," envDefault:"webm"`

	EncryptionKeyRaw string `env:"ENCRYPTION_KEY"`

	Transcriber string        `env:"TRANSCRIBER" envDefault:"static"`
	Whisper     WhisperConfig
	// DummyTranscript is what the static transcriber returns.
	DummyTranscript string `env:"DUMMY_TRANSCRIPT" envDefault:"This is a dummy transcription result."`

	MinAppVersion string `env:"MIN_APP_VERSION" envDefault:"1.2.0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Derived values, filled by Sanitize.
	JWTExp        time.Duration `env:"-"`
	EncryptionKey []byte        `env:"-"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return parse(env.Options{})
}

// LoadFromMap builds a Config from an explicit environment, ignoring the
// process environment. Used by tests and tooling.
func LoadFromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %v: %w", err, common.ErrConfiguration)
	}
	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sanitize validates required values and fills derived fields.
func (c *Config) Sanitize() error {
	if strings.TrimSpace(c.EncryptionKeyRaw) == "" {
		return fmt.Errorf("ENCRYPTION_KEY not found in environment variables: %w", common.ErrConfiguration)
	}
	key, err := security.ParseKey(c.EncryptionKeyRaw)
	if err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %v: %w", err, common.ErrConfiguration)
	}
	c.EncryptionKey = key

	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q: %w", c.StoreDriver, common.ErrConfiguration)
	}
	switch c.QueueDriver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q: %w", c.QueueDriver, common.ErrConfiguration)
	}
	switch c.Transcriber {
	case TranscriberStatic:
	case TranscriberWhisper:
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("WHISPER_MODEL_PATH is required for the whisper transcriber: %w", common.ErrConfiguration)
		}
	default:
		return fmt.Errorf("unknown TRANSCRIBER %q: %w", c.Transcriber, common.ErrConfiguration)
	}

	exts := make([]string, 0, len(c.AllowedExtensions))
	for _, ext := range c.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must not be empty: %w", common.ErrConfiguration)
	}
	c.AllowedExtensions = exts

	if c.WorkerConcurrency < 1 {
		c.WorkerConcurrency = 1
	}
	if c.MemoryQueueSize < 1 {
		c.MemoryQueueSize = 1
	}
	if c.JWTExpirationHours <= 0 {
		c.JWTExpirationHours = 72
	}
	c.JWTExp = time.Duration(c.JWTExpirationHours) * time.Hour
	return nil
}
