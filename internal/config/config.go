package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	LogLevel  string
	LogFormat string

	MessageRateLimit         time.Duration
	PollConversationInterval time.Duration
	PollBadgeInterval        time.Duration

	// AuthThrottleInterval and AuthThrottleBurst bound login/register attempts per IP.
	AuthThrottleInterval time.Duration
	AuthThrottleBurst    int

	// ReindexSchedule is a cron spec for rebuilding the search index. Empty disables it.
	ReindexSchedule string
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),

		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    time.Duration(v.GetInt("JWT_TTL_MINUTES")) * time.Minute,

		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		AdminName:     v.GetString("ADMIN_NAME"),

		MeiliSearchHost: v.GetString("MEILISEARCH_HOST"),
		MeiliMasterKey:  v.GetString("MEILI_MASTER_KEY"),

		CloudinaryURL:          v.GetString("CLOUDINARY_URL"),
		CloudinaryCloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    v.GetString("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: v.GetString("CLOUDINARY_UPLOAD_FOLDER"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		AuthThrottleBurst: v.GetInt("AUTH_THROTTLE_BURST"),
		ReindexSchedule:   v.GetString("REINDEX_SCHEDULE"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = database.BuildDSN(
			v.GetString("DB_HOST"),
			v.GetString("DB_USER"),
			v.GetString("DB_PASS"),
			v.GetString("DB_NAME"),
			v.GetString("DB_PORT"),
		)
	}

	var err error
	cfg.MessageRateLimit, err = time.ParseDuration(v.GetString("MESSAGE_RATE_LIMIT"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_LIMIT: %w", err)
	}
	cfg.PollConversationInterval, err = time.ParseDuration(v.GetString("POLL_CONVERSATION_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_CONVERSATION_INTERVAL: %w", err)
	}
	cfg.PollBadgeInterval, err = time.ParseDuration(v.GetString("POLL_BADGE_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_BADGE_INTERVAL: %w", err)
	}
	cfg.AuthThrottleInterval, err = time.ParseDuration(v.GetString("AUTH_THROTTLE_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_THROTTLE_INTERVAL: %w", err)
	}

	if cfg.IsProduction() && (cfg.JWTSecret == "" || cfg.JWTSecret == "change-me") {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_NAME", "scholar_portal")
	v.SetDefault("DB_PORT", "5432")

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL_MINUTES", 60)

	v.SetDefault("ADMIN_EMAIL", "admin@theplanetscholar.com")
	v.SetDefault("ADMIN_PASSWORD", "admin12345")
	v.SetDefault("ADMIN_NAME", "Scholarship Office")

	v.SetDefault("MEILISEARCH_HOST", "")
	v.SetDefault("CLOUDINARY_UPLOAD_FOLDER", "planet_scholar")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("MESSAGE_RATE_LIMIT", "500ms")
	v.SetDefault("POLL_CONVERSATION_INTERVAL", "5s")
	v.SetDefault("POLL_BADGE_INTERVAL", "10s")

	v.SetDefault("AUTH_THROTTLE_INTERVAL", "6s")
	v.SetDefault("AUTH_THROTTLE_BURST", 5)
	v.SetDefault("REINDEX_SCHEDULE", "0 3 * * *")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
