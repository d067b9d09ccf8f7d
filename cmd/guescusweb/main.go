package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/logging"
	"github.com/johnqtcg/guescus/internal/metrics"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/summary"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	lookupTimeout     = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.NewLoader().Load(os.Getenv("GUESCUS_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	backend, err := gh.NewBackend(gh.Config{
		MaxRetries:  cfg.GitHub.MaxRetries,
		RESTBaseURL: cfg.GitHub.RESTBaseURL,
		GraphQLURL:  cfg.GitHub.GraphQLURL,
	})
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	recorder, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	gen, err := summary.NewGenerator(ctx, cfg.Summary)
	if err != nil {
		return fmt.Errorf("create summary generator: %w", err)
	}
	authors := guestResolver(ctx, backend, cfg.GitHub, logger)
	summarySvc := summary.NewService(gen, summary.Options{
		Logger:     logger.With().Str("component", "summary").Logger(),
		Authors:    authors,
		OnFallback: recorder.SummaryFallback,
	})

	gate := composer.NewGate(composer.NewMemoryCooldownStore(cfg.Composer.Cooldown), cfg.Composer.Cooldown, time.Now)
	pipeline := composer.New(backend, composer.Options{
		Cooldown:    gate,
		NicknameMax: cfg.Composer.NicknameMax,
		Logger:      logger.With().Str("component", "composer").Logger(),
	})

	tmpl, err := loadTemplate()
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}

	handler := newWebHandler(webDeps{
		backend:     backend,
		pipeline:    pipeline,
		sessions:    session.NewManager(backend, cfg.Session.TTL),
		summary:     summarySvc,
		limiter:     newGuestLimiter(cfg.GuestRate),
		metrics:     recorder,
		gatherer:    prometheus.DefaultGatherer,
		tmpl:        tmpl,
		guestToken:  cfg.GitHub.GuestToken,
		authors:     authors,
		nicknameMax: cfg.Composer.NicknameMax,
		logger:      logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Bool("guest_token_set", logging.TokenSet(cfg.GitHub.GuestToken)).
			Bool("summary_enabled", summarySvc.Enabled()).
			Msg("guescus web listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// guestResolver pins guest markers to the account behind the shared
// credential, looking it up once when the config does not name it.
func guestResolver(ctx context.Context, backend gh.Backend, cfg config.GitHubConfig, logger zerolog.Logger) guest.Resolver {
	authors := guest.Resolver{PosterLogin: cfg.GuestLogin}
	if authors.PosterLogin != "" || cfg.GuestToken == "" {
		return authors
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	viewer, err := backend.Viewer(lookupCtx, cfg.GuestToken)
	if err != nil {
		logger.Warn().Err(err).Msg("look up guest account; guest markers are trusted from any author")
		return authors
	}
	authors.PosterLogin = viewer.Login
	return authors
}
