package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"smartcook/internal/api"
	"smartcook/internal/auth"
	"smartcook/internal/images"
	"smartcook/internal/photos"
	"smartcook/internal/recipes"
	"smartcook/internal/recommend"
	"smartcook/internal/store"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr   string
	noRecommend bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  issueToken,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&noRecommend, "no-recommend", false, "Disable the recommendation endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Server.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	authn, err := auth.NewTokenAuth(cfg.Auth.TokenSecret)
	if err != nil {
		return err
	}
	host, err := images.New(ctx, cfg.Images)
	if err != nil {
		return fmt.Errorf("image host: %w", err)
	}

	var rec *recommend.Recommender
	if !noRecommend {
		rec, err = newRecommender(ctx)
		if err != nil {
			return err
		}
	}

	srv := api.NewServer(api.Deps{
		Auth:        authn,
		Recipes:     recipes.NewService(st),
		Photos:      photos.NewService(st, host),
		Recommender: rec,
		DB:          st,
		Logger:      logger,
	})

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newRecommender wires the LLM provider and, when configured, the Redis cache.
func newRecommender(ctx context.Context) (*recommend.Recommender, error) {
	provider, err := recommend.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.RedisURL == "" {
		return recommend.New(provider, nil), nil
	}
	cache, err := recommend.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.GetRecommendationTTL())
	if err != nil {
		logger.Warn("Recommendation cache disabled", zap.Error(err))
		return recommend.New(provider, nil), nil
	}
	return recommend.New(provider, cache), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg.Server.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	version, err := store.SchemaVersion(ctx, st.DB())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", st.Path(), version)
	return nil
}

func issueToken(cmd *cobra.Command, args []string) error {
	if cfg.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token secret not configured (set SMARTCOOK_TOKEN_SECRET)")
	}
	ta, err := auth.NewTokenAuth(cfg.Auth.TokenSecret)
	if err != nil {
		return err
	}
	tok, err := ta.Issue(args[0], cfg.GetTokenTTL())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
