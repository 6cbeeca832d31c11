package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	PublicBaseURL string
	// TrustedProxies lists proxy addresses or CIDRs whose forwarding headers
	// are believed. Empty means the connection address is the client.
	TrustedProxies []string

	PlacesFiles []string

	// moderation
	AdminToken        string
	AdminPasswordHash string
	SessionTTL        time.Duration

	// anti-abuse
	CaptchaSecret    string
	CaptchaVerifyURL string
	RateLimitSecret  string
	RateLimitPerHour int

	// mail
	ResendAPIKey      string
	MailFrom          string
	ModerationEmailTo string

	// enricher
	OverpassURL   string
	EnrichWorkers int
	EnrichRPS     float64
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ""),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/estates?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		PublicBaseURL:     strings.TrimRight(env("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		TrustedProxies:    splitList(os.Getenv("TRUSTED_PROXIES")),
		PlacesFiles:       splitList(os.Getenv("PLACES_FILES")),
		AdminToken:        os.Getenv("ADMIN_TOKEN"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SessionTTL:        time.Duration(atoi("ADMIN_SESSION_HOURS", 8)) * time.Hour,
		CaptchaSecret:     os.Getenv("CAPTCHA_SECRET"),
		CaptchaVerifyURL:  env("CAPTCHA_VERIFY_URL", "https://hcaptcha.com/siteverify"),
		RateLimitSecret:   os.Getenv("RATE_LIMIT_SECRET"),
		RateLimitPerHour:  atoi("RATE_LIMIT_PER_HOUR", 5),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		MailFrom:          env("MAIL_FROM", "reviews@estates.local"),
		ModerationEmailTo: os.Getenv("MODERATION_EMAIL_TO"),
		OverpassURL:       env("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		EnrichWorkers:     atoi("ENRICH_WORKERS", 2),
		EnrichRPS:         atof("ENRICH_RPS", 0.5),
	}
	if c.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is empty; moderation endpoints will reject every request")
	}
	if c.CaptchaSecret == "" {
		log.Warn().Msg("CAPTCHA_SECRET is empty; captcha verification disabled")
	}
	if c.RateLimitSecret == "" {
		log.Warn().Msg("RATE_LIMIT_SECRET is empty; submission rate limit disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
