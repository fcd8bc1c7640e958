package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appforge/internal/common/config"
	"appforge/internal/common/httpclient"
	"appforge/internal/common/logger"
	"appforge/internal/common/observability"
	"appforge/internal/githost"
	"appforge/internal/naming"
	"appforge/internal/notify"
	"appforge/internal/orchestrator"
	"appforge/internal/publish"
	"appforge/internal/server"
	"appforge/internal/store"
	"appforge/internal/synth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	log.Info("starting appforge", map[string]interface{}{
		"environment": cfg.App.Environment,
		"store":       cfg.Store.Backend,
		"generator":   cfg.Generator.Provider,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	st, err := openStore(cfg, log)
	if err != nil {
		log.Error("store init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer st.Close()

	gen, err := newGenerator(cfg.Generator, log)
	if err != nil {
		log.Error("generator init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	host := githost.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout, log)
	synthesizer := synth.New(gen, log)
	publisher := publish.New(host, cfg.GitHub.Owner, cfg.GitHub.DefaultBranch, log)
	notifier := notify.New(httpclient.NewClient(cfg.Notify.Timeout), cfg.Notify.MaxAttempts, cfg.Notify.InitialBackoff, log)
	pipeline := orchestrator.New(cfg.Auth.AcceptedSecrets(), naming.New(), synthesizer, publisher, notifier, obs, log)

	srv := server.New(cfg.Server, cfg.Auth.AcceptedSecrets(), pipeline, st, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server stopped", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	case sig := <-stop:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

// openStore builds the configured backend. Redis and postgres connections are
// retried briefly so the service survives a slower-starting dependency.
func openStore(cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		var s *store.RedisStore
		err := retryWithBackoff(5, time.Second, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			var err error
			s, err = store.NewRedisStore(ctx, cfg.Store.Redis)
			return err
		}, log)
		return s, err
	case "postgres":
		var s *store.PostgresStore
		err := retryWithBackoff(5, time.Second, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			var err error
			s, err = store.NewPostgresStore(ctx, cfg.Store.Postgres)
			return err
		}, log)
		return s, err
	default:
		return store.NewMemoryStore(), nil
	}
}

func newGenerator(cfg config.GeneratorConfig, log logger.Logger) (synth.Generator, error) {
	switch cfg.Provider {
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return synth.NewChatClient(baseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature, cfg.Timeout), nil
	case "gemini":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return synth.NewGeminiClient(ctx, cfg.Model)
	default:
		log.Info("no generator configured, using deterministic templates", nil)
		return nil, nil
	}
}

func retryWithBackoff(attempts int, wait time.Duration, fn func() error, log logger.Logger) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts {
			log.Warn("dependency not ready, retrying", map[string]interface{}{
				"attempt": i,
				"wait":    wait.String(),
				"error":   err.Error(),
			})
			time.Sleep(wait)
			wait *= 2
		}
	}
	return err
}
