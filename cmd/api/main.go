package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"estate_reviews/internal/adapters/captcha"
	server "estate_reviews/internal/adapters/http_server"
	"estate_reviews/internal/adapters/mailer"
	"estate_reviews/internal/adapters/observability"
	redisad "estate_reviews/internal/adapters/redis"
	"estate_reviews/internal/app"
	"estate_reviews/internal/auth"
	"estate_reviews/internal/domain"
	"estate_reviews/internal/shared"
	mysqlrepo "estate_reviews/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)

	// redis is optional: without it the feed is uncached and the
	// rate limit window is read from MySQL
	var (
		cache  domain.Cache
		sublog domain.SubmissionLog = mysqlrepo.NewSubmissionLog(db)
	)
	rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rc.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; feed cache disabled")
		_ = rc.Close()
	} else {
		cache = redisad.New(rc)
		sublog = redisad.NewSubmissionLog(rc, 0)
		defer rc.Close()
	}
	cancel()

	catalog := app.NewCatalog(repo, cfg.PlacesFiles...)
	if err := catalog.Reload(ctx); err != nil {
		log.Fatal().Err(err).Msg("place index load failed")
	}

	intake := app.Intake{
		Catalog: catalog,
		Guard:   app.NewRateGuard(sublog, cfg.RateLimitSecret, cfg.RateLimitPerHour),
		Notify:  newNotifier(cfg),
	}
	if cfg.CaptchaSecret != "" {
		cv, err := captcha.New(cfg.CaptchaVerifyURL, cfg.CaptchaSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("captcha client")
		}
		intake.Captcha = cv
	}

	feed := app.NewFeedService(repo, cache, catalog, cfg.CacheTTL)

	// http
	proxies, err := server.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("TRUSTED_PROXIES")
	}
	srv := server.New(proxies...)
	if cfg.MetricsAddr == "" {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(&server.Handlers{
		Catalog:    catalog,
		Feed:       feed,
		Reviews:    app.NewSubmissionService(repo, intake),
		Suggest:    app.NewSuggestionService(repo, intake),
		Moderation: app.NewModerationService(repo, repo, feed, catalog),
		Auth:       auth.New(cfg.AdminToken, cfg.AdminPasswordHash, cfg.SessionTTL),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Int("estates", catalog.Len()).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	_ = db.Close()
	log.Info().Msg("API stopped")
}

func newNotifier(cfg shared.Config) domain.Notifier {
	to := strings.FieldsFunc(cfg.ModerationEmailTo, func(r rune) bool { return r == ',' || r == ' ' })
	var p mailer.Provider = mailer.NewLogProvider(log.Logger)
	if cfg.ResendAPIKey != "" {
		p = mailer.NewResendProvider(cfg.ResendAPIKey)
	} else if len(to) > 0 {
		log.Warn().Msg("RESEND_API_KEY is empty; moderation emails are logged only")
	}
	return mailer.NewNotifier(mailer.New(p, cfg.MailFrom), to, cfg.PublicBaseURL)
}
