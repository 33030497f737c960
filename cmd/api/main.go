package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"propscope/backend-go/internal/config"
	"propscope/backend-go/internal/dashboard"
	internalhttp "propscope/backend-go/internal/http"
	"propscope/backend-go/internal/logging"
	"propscope/backend-go/internal/services"
)

func main() {
	_ = godotenv.Load(
		".env",
		".env.local",
		"backend-go/.env",
		"backend-go/.env.local",
	)
	cfg := config.Load()
	log := logging.New(cfg)

	cache := services.NewCache(cfg, log)
	analytics := services.NewAnalyticsClient(cfg, cache, log)
	sessions := dashboard.NewSessionStore(analytics, analytics, dashboard.SessionOptions{
		DefaultTab:   cfg.DefaultTab,
		IdleTTL:      cfg.SessionIdleTTL,
		FetchTimeout: cfg.VisualizeTimeout,
	}, log)

	h := internalhttp.NewRouter(cfg, cache, analytics, sessions, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("propscope backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweepCache := func() {}
		if mc, ok := cache.(*services.MemoryCache); ok {
			sweepCache = func() { mc.Sweep() }
		}
		return sessions.RunJanitor(ctx, time.Minute, sweepCache)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}
