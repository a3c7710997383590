package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ringleader/internal/accounts"
	"ringleader/internal/bus"
	"ringleader/internal/command"
	"ringleader/internal/config"
	"ringleader/internal/daemon"
	"ringleader/internal/domain"
	"ringleader/internal/ext/mirror"
	"ringleader/internal/ext/notes"
	"ringleader/internal/gateway"
	"ringleader/internal/hook"
	"ringleader/internal/metrics"
	"ringleader/internal/router"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	startTime  = time.Now()
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "ringleader",
		Short: "Ringleader: command bot for a Jami-compatible messaging daemon",
		Long:  "Ringleader connects to the messaging daemon over DBus, routes inbound conversation events, and dispatches !commands and extension hooks.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.ringleader/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())
	root.AddCommand(installServiceCmd())
	root.AddCommand(uninstallServiceCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and download directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Router.DownloadDir, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "downloads", cfg.Router.DownloadDir)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the daemon and route messages until interrupted",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	logger = setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := daemon.Connect(logger)
	if err != nil {
		return fmt.Errorf("daemon connection: %w", err)
	}
	defer client.Close()

	if !client.Ping(ctx) {
		return fmt.Errorf("messaging daemon is not reachable on the session bus")
	}

	registry := accounts.NewRegistry(client, logger)
	if err := registry.Refresh(ctx); err != nil {
		return fmt.Errorf("initial account refresh: %w", err)
	}

	gw := gateway.New(client, logger)

	table := command.NewTable(logger)
	command.RegisterBuiltins(table)
	registerOperatorCommands(table)

	hooks := hook.NewRegistry(logger)

	if cfg.Extensions.Notes.Enabled {
		store, err := notes.Open(cfg.Extensions.Notes.DBPath, logger)
		if err != nil {
			return fmt.Errorf("notes extension: %w", err)
		}
		defer store.Close()
		store.Attach(table, hooks)
		logger.Info("notes extension enabled", "db", cfg.Extensions.Notes.DBPath)
	}

	if cfg.Extensions.Mirror.Enabled {
		m, err := mirror.New(mirror.Config{
			Token:  cfg.Extensions.Mirror.Token,
			ChatID: cfg.Extensions.Mirror.ChatID,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("mirror extension disabled", "err", err)
		} else {
			m.Attach(hooks)
			logger.Info("mirror extension enabled")
		}
	}

	policy := router.Unrestricted()
	if len(cfg.Router.MonitoredAccounts) > 0 {
		policy = router.RestrictedTo(cfg.Router.MonitoredAccounts)
		logger.Info("monitoring restricted accounts", "usernames", cfg.Router.MonitoredAccounts)
	}

	rt := router.New(router.Config{
		Accounts:    registry,
		Sender:      gw,
		Commands:    table,
		Hooks:       hooks,
		Policy:      policy,
		DownloadDir: cfg.Router.DownloadDir,
		Logger:      logger,
	})

	eventBus := bus.New(cfg.Daemon.EventBuffer, logger)
	defer eventBus.Close()

	if err := client.Subscribe(ctx, eventBus); err != nil {
		return fmt.Errorf("daemon subscription: %w", err)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.Listen)
	}

	logger.Info("ringleader started", "version", version, "downloads", cfg.Router.DownloadDir)
	rt.Run(ctx, eventBus.Events())

	logger.Info("ringleader stopped")
	return nil
}

// registerOperatorCommands adds the operator commands through the public
// registration surface, same as any external extension would.
func registerOperatorCommands(table *command.Table) {
	table.Register("uptime", "Show how long the bot has been running", func(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
		return "Uptime: " + time.Since(startTime).Round(time.Second).String()
	})

	table.Register("version", "Show the bot version", func(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
		return fmt.Sprintf("ringleader v%s (%s/%s, Go %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	})
}

func serveMetrics(ctx context.Context, listen string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", metrics.Default.Handler())
	srv := &http.Server{Addr: listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics endpoint error", "err", err)
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		} else {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level()}))
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon reachability and local accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := daemon.Connect(logger)
			if err != nil {
				return fmt.Errorf("daemon connection: %w", err)
			}
			defer client.Close()

			if !client.Ping(ctx) {
				logger.Info("daemon", "reachable", false)
				return nil
			}
			logger.Info("daemon", "reachable", true)

			registry := accounts.NewRegistry(client, logger)
			if err := registry.Refresh(ctx); err != nil {
				return fmt.Errorf("account refresh: %w", err)
			}
			for username, id := range registry.Mapping(ctx) {
				logger.Info("account", "username", username, "id", id)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ringleader v%s (%s/%s, Go %s)\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. router.downloadDir)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. metrics.enabled true)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
