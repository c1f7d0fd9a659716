package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/climate-action-ai/app"
	"github.com/upb/climate-action-ai/config"
	"github.com/upb/climate-action-ai/internal/observability"
	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/routes"
	"github.com/upb/climate-action-ai/services/assistant"
	"github.com/upb/climate-action-ai/services/backends"
	"github.com/upb/climate-action-ai/services/orchestrator"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "climate-api",
		Short:         "Climate Action AI server and command line client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newBackendsCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newAskCmd() *cobra.Command {
	var (
		location string
		priority []string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the climate assistant one question using the configured backends",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := initLogger()
			if err != nil {
				return err
			}

			cfg, err := config.New(cmd.Context())
			if err != nil {
				return err
			}
			if len(priority) > 0 {
				applyPriorityOverride(&cfg.Backends, priority)
			}

			return runAsk(cmd.Context(), cmd.OutOrStdout(), cfg, logger,
				assistant.AskRequest{Question: strings.Join(args, " "), Location: location})
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "location used to ground the answer")
	cmd.Flags().StringSliceVar(&priority, "priority", nil, "backend ids to try, in order (comma separated)")
	return cmd
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Print the effective backend priority lists and the registered backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := initLogger()
			if err != nil {
				return err
			}

			cfg, err := config.New(cmd.Context())
			if err != nil {
				return err
			}

			deps, err := app.NewDependencies(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close(context.Background())

			printBackends(cmd.OutOrStdout(), cfg, deps.Backends)
			return nil
		},
	}
}

func runServe(ctx context.Context) error {
	// Initialize logger
	logger, err := initLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting climate action api", zap.String("version", version))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.New(ctx)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("address", cfg.Server.Address()),
		zap.Strings("priority", cfg.Backends.Priority))

	// Initialize dependencies
	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			_ = deps.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		_ = srv.Close()
	}

	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("failed to close dependencies", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// runAsk performs one assistant generation through the same orchestrator the
// server uses, recorded under the cli endpoint.
func runAsk(ctx context.Context, out io.Writer, cfg *config.Config, logger *zap.Logger, req assistant.AskRequest, opts ...app.Option) error {
	opts = append(opts, app.WithAssistantOptions(assistant.WithAskEndpoint(models.EndpointCLI)))
	deps, err := app.NewDependencies(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())

	answer, err := deps.Assistant.Ask(ctx, req)
	if err != nil {
		if exhausted, ok := orchestrator.AsExhaustion(err); ok {
			for _, attempt := range exhausted.Attempts {
				fmt.Fprintf(out, "%s: %s (%v)\n", attempt.Backend, backends.Classify(attempt.Err), attempt.Err)
			}
		}
		return err
	}

	fmt.Fprintln(out, answer.Answer)
	fmt.Fprintf(out, "\n-- %s\n", answer.Model)
	return nil
}

func printBackends(out io.Writer, cfg *config.Config, registry *backends.Registry) {
	fmt.Fprintf(out, "priority: %s\n", strings.Join(cfg.Backends.Priority, ", "))
	for _, endpoint := range []models.Endpoint{
		models.EndpointAssistant,
		models.EndpointActionPlan,
		models.EndpointNews,
		models.EndpointFootprint,
		models.EndpointCLI,
	} {
		if override, ok := cfg.Backends.Endpoints[string(endpoint)]; ok {
			fmt.Fprintf(out, "  %s: %s\n", endpoint, strings.Join(override, ", "))
		}
	}

	registered := registry.List()
	if len(registered) == 0 {
		fmt.Fprintln(out, "registered: none")
		return
	}
	fmt.Fprintf(out, "registered: %s\n", strings.Join(registered, ", "))
}

func applyPriorityOverride(cfg *config.BackendsConfig, priority []string) {
	if cfg.Endpoints == nil {
		cfg.Endpoints = make(map[string][]string)
	}
	cfg.Endpoints[string(models.EndpointCLI)] = priority
}

// initLogger initializes the zap logger based on environment
func initLogger() (*zap.Logger, error) {
	return observability.NewLogger(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
