// Command transitctl is the operator CLI for the transit directory: schema
// migration, CSV imports and token management against the configured store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/transitdir/internal/config"
	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/logging"
	"github.com/JonMunkholm/transitdir/internal/store"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	backend     string
	databaseURL string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:          "transitctl",
		Short:        "Operate a transit directory store",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Store backend: memory or postgres (default: STORE_BACKEND)")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection string (default: DATABASE_URL)")

	cmd.AddCommand(newMigrateCmd(&opts), newImportCmd(&opts), newTokenCmd(&opts))
	return cmd
}

// env is what every subcommand works against.
type env struct {
	cfg     *config.Config
	backend store.Backend
	logger  *slog.Logger
	close   func()
}

// open loads configuration, applies flag overrides and opens the store.
func (o *rootOptions) open(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.Store.Backend = o.backend
	}
	if o.databaseURL != "" {
		cfg.Database.URL = o.databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	backend, closeFn, err := store.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, backend: backend, logger: logger, close: closeFn}, nil
}

// service builds a Service whose token set holds the configured and the
// stored tokens.
func (e *env) service(ctx context.Context) (*core.Service, error) {
	seed, err := e.cfg.SeedTokens()
	if err != nil {
		return nil, err
	}
	tokens := core.NewTokenSet(seed...)
	if _, err := tokens.Seed(ctx, e.backend); err != nil {
		return nil, fmt.Errorf("read stored tokens: %w", err)
	}
	return core.NewService(core.ServiceConfig{
		Store:   e.backend,
		Tokens:  tokens,
		Limiter: core.NewImportLimiter(e.cfg.Import.MaxConcurrent, e.cfg.Import.MaxWait),
		Logger:  e.logger,
	})
}
