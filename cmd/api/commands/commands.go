package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/socialdesk/core/internal/adapters/kv"
	"github.com/socialdesk/core/internal/adapters/platform"
	"github.com/socialdesk/core/internal/application/persistence"
	"github.com/socialdesk/core/internal/application/services"
	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/infrastructure/server"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewRootCommand builds the socialdesk command tree
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "socialdesk",
		Short:         "SocialDesk API Server",
		Long:          `SocialDesk keeps a team's task board, scheduled social posts, connected channels and bio-link pages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	load := func() (*config.Config, error) {
		return config.LoadFile(configPath)
	}

	rootCmd.AddCommand(NewServeCommand(load))
	rootCmd.AddCommand(NewMigrateCommand(load))
	rootCmd.AddCommand(NewSeedCommand(load))
	rootCmd.AddCommand(NewExportCommand(load))
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

type configLoader func() (*config.Config, error)

// NewServeCommand creates the serve command
func NewServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the SocialDesk API server",
		Long:  "Start the API server and, when enabled, the scheduled post dispatcher",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := load()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			runServer(cfg)
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print SocialDesk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "SocialDesk %s\n", Version)
		},
	}
}

// openAdapter opens the configured backend behind a persistence adapter
func openAdapter(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*persistence.Adapter, error) {
	store, err := kv.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return persistence.New(store, log, m), nil
}

func runServer(cfg *config.Config) {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	adapter, err := openAdapter(ctx, cfg, appLogger, m)
	if err != nil {
		appLogger.Fatalw("Failed to open storage", "error", err)
	}
	defer adapter.Close()

	stores := persistence.Open(ctx, adapter, persistence.StoreOptions{
		Latency: cfg.Store.Latency,
		Metrics: m,
	})
	defer stores.Close()

	taskService := services.NewTaskService(stores.Tasks, appLogger, m)
	remote := services.Platform{
		Client:      platform.New(cfg.Platform, appLogger),
		AccessToken: cfg.Platform.AccessToken,
	}
	postService := services.NewPostService(stores.Posts, stores.Channels, remote, appLogger, m)
	channelService := services.NewChannelService(stores.Channels, remote, appLogger)
	bioLinkService := services.NewBioLinkService(stores.Pages, appLogger)

	if cfg.Dispatcher.Enabled {
		dispatcher := services.NewDispatcher(
			postService,
			channelService,
			remote,
			cfg.Dispatcher,
			appLogger,
			m,
		)
		go dispatcher.Run(ctx)
	}

	srv := server.New(cfg, server.Services{
		Tasks:    taskService,
		Posts:    postService,
		Channels: channelService,
		Pages:    bioLinkService,
	}, adapter, m, appLogger)

	go func() {
		appLogger.Infow("Starting SocialDesk API server",
			"port", cfg.Server.Port,
			"environment", cfg.App.Environment,
			"storage", cfg.Storage.Backend,
		)

		if err := srv.Start(cfg.Server.GetAddr()); err != nil {
			appLogger.Errorw("Server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	appLogger.Info("Server exited gracefully")
}
