package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string
	AnalyticsBaseURL string
	RedisURL         string
	LogLevel         string
	LogFormat        string
	CacheTTLGraph    time.Duration
	RequestTimeout   time.Duration
	VisualizeTimeout time.Duration
	UploadTimeout    time.Duration
	MaxUploadBytes   int64
	SessionIdleTTL   time.Duration
	RateLimitPerMin  int
	CircuitFailLimit int
	CircuitCooldown  time.Duration
	DefaultTab       string
}

func Load() Config {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ANALYTICS_BASE_URL", "http://localhost:5001")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CACHE_TTL_GRAPH", 300)
	v.SetDefault("ANALYTICS_REQUEST_TIMEOUT", 12)
	v.SetDefault("ANALYTICS_VISUALIZE_TIMEOUT", 30)
	v.SetDefault("ANALYTICS_UPLOAD_TIMEOUT", 120)
	v.SetDefault("MAX_UPLOAD_MB", 16)
	v.SetDefault("SESSION_IDLE_TTL", 1800)
	v.SetDefault("RATE_LIMIT_PER_MIN", 240)
	v.SetDefault("CIRCUIT_FAIL_LIMIT", 3)
	v.SetDefault("CIRCUIT_COOLDOWN", 20)
	v.SetDefault("DEFAULT_TAB", "standard")
	v.AutomaticEnv()

	return Config{
		Port:             v.GetString("PORT"),
		AnalyticsBaseURL: strings.TrimRight(v.GetString("ANALYTICS_BASE_URL"), "/"),
		RedisURL:         v.GetString("REDIS_URL"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		CacheTTLGraph:    seconds(v, "CACHE_TTL_GRAPH"),
		RequestTimeout:   seconds(v, "ANALYTICS_REQUEST_TIMEOUT"),
		VisualizeTimeout: seconds(v, "ANALYTICS_VISUALIZE_TIMEOUT"),
		UploadTimeout:    seconds(v, "ANALYTICS_UPLOAD_TIMEOUT"),
		MaxUploadBytes:   v.GetInt64("MAX_UPLOAD_MB") << 20,
		SessionIdleTTL:   seconds(v, "SESSION_IDLE_TTL"),
		RateLimitPerMin:  v.GetInt("RATE_LIMIT_PER_MIN"),
		CircuitFailLimit: v.GetInt("CIRCUIT_FAIL_LIMIT"),
		CircuitCooldown:  seconds(v, "CIRCUIT_COOLDOWN"),
		DefaultTab:       v.GetString("DEFAULT_TAB"),
	}
}

// seconds reads an integer number of seconds; unparsable values fall back to zero.
func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}
