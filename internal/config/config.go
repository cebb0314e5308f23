package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const devJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Port          string        `yaml:"port"`
	Env           string        `yaml:"env"`
	DatabaseDSN   string        `yaml:"database_dsn"`
	Migrate       bool          `yaml:"migrate"`
	JWTSecret     string        `yaml:"jwt_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SessionCookie string        `yaml:"session_cookie"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	AuthRateRPS   float64       `yaml:"auth_rate_rps"`
	AuthRateBurst int           `yaml:"auth_rate_burst"`
	TMDB          TMDB          `yaml:"tmdb"`
}

type TMDB struct {
	BaseURL     string        `yaml:"base_url"`
	AccessToken string        `yaml:"access_token"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func defaults() Config {
	return Config{
		Port:          "8080",
		Env:           "development",
		DatabaseDSN:   "root:password@tcp(127.0.0.1:3306)/reelshelf?parseTime=true",
		JWTSecret:     devJWTSecret,
		SessionTTL:    30 * 24 * time.Hour,
		SessionCookie: "reelshelf_session",
		CORSOrigins:   []string{"http://localhost:3000"},
		LogLevel:      "info",
		LogFormat:     "text",
		AuthRateRPS:   5,
		AuthRateBurst: 10,
		TMDB: TMDB{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SessionCookie = getEnv("SESSION_COOKIE", cfg.SessionCookie)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.TMDB.BaseURL = getEnv("TMDB_BASE_URL", cfg.TMDB.BaseURL)
	cfg.TMDB.AccessToken = getEnv("TMDB_ACCESS_TOKEN", cfg.TMDB.AccessToken)
	cfg.TMDB.APIKey = getEnv("TMDB_API_KEY", cfg.TMDB.APIKey)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return err
	}
	if cfg.TMDB.Timeout, err = getEnvDuration("TMDB_TIMEOUT", cfg.TMDB.Timeout); err != nil {
		return err
	}
	if cfg.AuthRateRPS, err = getEnvFloat("AUTH_RATE_RPS", cfg.AuthRateRPS); err != nil {
		return err
	}
	if cfg.AuthRateBurst, err = getEnvInt("AUTH_RATE_BURST", cfg.AuthRateBurst); err != nil {
		return err
	}
	if cfg.Migrate, err = getEnvBool("MIGRATE", cfg.Migrate); err != nil {
		return err
	}
	return nil
}

func (c Config) validate() error {
	if c.IsProduction() && (c.JWTSecret == devJWTSecret || c.JWTSecret == "") {
		return errors.New("JWT_SECRET must be set in production environment")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AuthRateRPS <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("AUTH_RATE_RPS and AUTH_RATE_BURST must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
