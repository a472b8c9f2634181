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
	Port    int
	GinMode string

	DatabaseURL string

	SecretKey   string
	TokenExpiry time.Duration

	// Key for encrypting stored database passwords; at least 32 characters.
	EncryptionKey string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	AllowedOrigins []string

	TLSCertFile string
	TLSKeyFile  string
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:           8000,
		GinMode:        "release",
		DatabaseURL:    "sqlite://astral.db",
		TokenExpiry:    24 * time.Hour,
		AIModel:        "gemini-2.0-flash",
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	if raw := env.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}

	cfg.SecretKey = env.Getenv("SECRET_KEY")
	if cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("SECRET_KEY is required")
	}

	if raw := env.Getenv("TOKEN_EXPIRY_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_MINUTES")
		}
		cfg.TokenExpiry = time.Duration(minutes) * time.Minute
	}

	cfg.EncryptionKey = env.Getenv("ENCRYPTION_KEY")
	if cfg.EncryptionKey == "" {
		// Password encryption falls back to the server secret when no
		// dedicated key is configured.
		cfg.EncryptionKey = cfg.SecretKey
	}
	if len(cfg.EncryptionKey) < 32 {
		return Config{}, fmt.Errorf("ENCRYPTION_KEY must be at least 32 characters")
	}

	cfg.AIAPIKey = env.Getenv("AI_API_KEY")
	cfg.AIBaseURL = env.Getenv("AI_BASE_URL")
	if raw := env.Getenv("AI_MODEL"); raw != "" {
		cfg.AIModel = raw
	}

	if raw := env.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		cfg.AllowedOrigins = origins
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	return cfg, nil
}
