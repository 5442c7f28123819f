package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	AllowOrigins string
	DBPath       string

	SetlistFMKey     string
	DiscogsUserAgent string
	SearchCacheTTL   time.Duration
	SearchTimeout    time.Duration

	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRedirectURI  string

	// Fallback per-video duration when a Takeout record carries none.
	TakeoutEstimateMinutes float64
}

func Load() *Config {
	_ = godotenv.Load() // loads .env when present

	return &Config{
		Port:         getEnv("PORT", "8080"),
		AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		DBPath:       getEnv("DB_PATH", "./data/herd.db"),

		SetlistFMKey:     getEnv("SETLIST_FM_API_KEY", ""),
		DiscogsUserAgent: getEnv("DISCOGS_USER_AGENT", "HerdApp/1.0 +https://getherd.co"),
		SearchCacheTTL:   getDuration("SEARCH_CACHE_TTL", 2*time.Minute),
		SearchTimeout:    getDuration("SEARCH_TIMEOUT", 15*time.Second),

		YouTubeClientID:     getEnv("YOUTUBE_CLIENT_ID", ""),
		YouTubeClientSecret: getEnv("YOUTUBE_CLIENT_SECRET", ""),
		YouTubeRedirectURI:  getEnv("YOUTUBE_REDIRECT_URI", ""),

		TakeoutEstimateMinutes: getFloat("TAKEOUT_ESTIMATE_MINUTES", 8),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
