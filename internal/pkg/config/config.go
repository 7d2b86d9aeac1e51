package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Twilio   TwilioConfig
	Push     PushConfig
	Dispatch DispatchConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=clinic"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST, default=localhost"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM, default=no-reply@clinic.local"`
}

type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From       string `env:"TWILIO_FROM"`
}

type PushConfig struct {
	WebhookURL string `env:"PUSH_WEBHOOK_URL, default=http://localhost:9000/push"`
}

// DispatchConfig tunes the notification pipeline: event workers, the
// delivery poller, the retry budget, and the reminder lead time.
type DispatchConfig struct {
	Workers      int           `env:"DISPATCH_WORKERS,      default=4"`
	PollInterval time.Duration `env:"DISPATCH_POLL_INTERVAL, default=30s"`
	BatchSize    int           `env:"DISPATCH_BATCH_SIZE,   default=50"`
	MaxRetries   int           `env:"DISPATCH_MAX_RETRIES,  default=3"`
	ReminderLead time.Duration `env:"REMINDER_LEAD,         default=24h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
