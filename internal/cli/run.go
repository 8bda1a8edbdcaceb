package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"maunium.net/go/mautrix/id"

	"github.com/roomclaw/roomclaw/internal/config"
	"github.com/roomclaw/roomclaw/internal/dispatch"
	"github.com/roomclaw/roomclaw/internal/history"
	"github.com/roomclaw/roomclaw/internal/mx"
	"github.com/roomclaw/roomclaw/internal/plugin"
	"github.com/roomclaw/roomclaw/internal/plugins"
)

var (
	flagConfig string
	flagDev    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and sync with the homeserver",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&flagConfig, "config", "c", "config.yaml", "path to the config file")
	runCmd.Flags().BoolVar(&flagDev, "dev", false, "run as the dev instance (requires dev_mode: true in config)")
}

func runBot(parent context.Context) error {
	// 1. Configuration.
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	// 2. Mode. Both the flag and the config switch are required for dev
	// mode so a stray --dev cannot hijack a prod deployment, and a
	// dev-mode config cannot silently demote the prod instance.
	devActive := flagDev && cfg.DevMode
	if flagDev && !cfg.DevMode {
		return fmt.Errorf("--dev passed but dev_mode is not enabled in %s", flagConfig)
	}
	if devActive && cfg.DevID == "" {
		return fmt.Errorf("dev mode requires dev_id in %s", flagConfig)
	}
	printModeBanner(devActive, cfg.DevID)

	// 3. Matrix session.
	client, err := mx.NewMautrixClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return err
	}

	// 4. History store.
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	hist, err := history.Open(filepath.Join(cfg.StateDir, "history.db"))
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer hist.Close()

	// 5. Plugins.
	registry := plugins.BuildRegistry(cfg)
	logTriggers(registry)

	// 6. Dispatch.
	disp := dispatch.New(dispatch.Options{
		Client:    client,
		Registry:  registry,
		History:   hist,
		DevActive: devActive,
		DevID:     cfg.DevID,
	})
	client.OnMessage(disp.HandleMessage)
	if cfg.AutoJoinEnabled() {
		client.EnableAutoJoin()
	}

	// 7. Sync until interrupted.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting sync",
		"homeserver", cfg.Homeserver,
		"user_id", cfg.UserID,
		"dev_active", devActive,
	)
	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sync loop: %w", err)
	}
	slog.Info("Shutting down")
	return nil
}

func printModeBanner(devActive bool, devID string) {
	if devActive {
		color.Yellow("== DEV MODE == answering !%s.<command> and @%s.<name>", devID, devID)
	} else {
		color.Green("== PROD MODE ==")
	}
}

// logTriggers prints the effective trigger routing table at startup so a
// glance at the log shows which token reaches which plugin.
func logTriggers(registry *plugin.Registry) {
	for _, row := range registry.Entries() {
		commands := append([]string(nil), row.Entry.Spec.Triggers.Commands...)
		mentions := append([]string(nil), row.Entry.Spec.Triggers.Mentions...)
		sort.Strings(commands)
		sort.Strings(mentions)
		slog.Info("Registered plugin",
			"id", row.ID,
			"enabled", row.Entry.Spec.Enabled,
			"commands", commands,
			"mentions", mentions,
		)
	}
}
