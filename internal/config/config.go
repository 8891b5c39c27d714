package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-in-production"

var ErrProductionSecret = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	Migrate     bool

	JWTSecret string
	JWTExpiry time.Duration

	SwapiURL     string
	SwapiTimeout time.Duration

	SyncSchedule    string
	SyncConcurrency int

	CORSOrigins []string

	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	TrustProxy         bool

	// SeedAdminPassword is only read by cmd/seed.
	SeedAdminPassword string
}

// Load reads configuration from the environment, falling back to
// development defaults. It fails if production runs with the default
// JWT secret.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Port:               v.GetString("PORT"),
		Env:                v.GetString("ENV"),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		Migrate:            v.GetBool("DB_MIGRATE"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpiry:          v.GetDuration("JWT_EXPIRY"),
		SwapiURL:           v.GetString("SWAPI_URL"),
		SwapiTimeout:       v.GetDuration("SWAPI_TIMEOUT"),
		SyncSchedule:       v.GetString("SYNC_SCHEDULE"),
		SyncConcurrency:    v.GetInt("SYNC_CONCURRENCY"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		AuthRateLimitRPS:   v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
		AuthRateLimitBurst: v.GetInt("AUTH_RATE_LIMIT_BURST"),
		TrustProxy:         v.GetBool("TRUST_PROXY"),
		SeedAdminPassword:  v.GetString("SEED_ADMIN_PASSWORD"),
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrProductionSecret
	}

	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/swfilms?parseTime=true")
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRY", 60*time.Minute)
	v.SetDefault("SWAPI_URL", "https://swapi.dev/api")
	v.SetDefault("SWAPI_TIMEOUT", 10*time.Second)
	v.SetDefault("SYNC_SCHEDULE", "@midnight")
	v.SetDefault("SYNC_CONCURRENCY", 4)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 5)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)
	v.SetDefault("TRUST_PROXY", false)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
