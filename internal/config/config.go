package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	DBPath    string `env:"DB_PATH" envDefault:"./out/depositlink.db"`
	AuditPath string `env:"AUDIT_PATH" envDefault:"./out/audit.jsonl"`

	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"336h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
	SweepBatchSize int           `env:"SWEEP_BATCH_SIZE" envDefault:"200"`

	JWTSecret     string        `env:"JWT_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	CRMBaseURL string        `env:"CRM_BASE_URL"`
	CRMToken   string        `env:"CRM_TOKEN"`
	CRMTimeout time.Duration `env:"CRM_TIMEOUT" envDefault:"5s"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
