package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relayauth/totpgate/api"
	"github.com/relayauth/totpgate/internal/audit"
	"github.com/relayauth/totpgate/internal/config"
	"github.com/relayauth/totpgate/internal/dispatch"
	"github.com/relayauth/totpgate/internal/metrics"
	"github.com/relayauth/totpgate/internal/webui"
)

// queueDepthMultiplier sizes the dispatch worker pool's queue as a multiple
// of the thread count, so a burst can outrun the workers briefly without
// growing the queue unboundedly as nthreads scales up.
const queueDepthMultiplier = 4

var serveCmd = &cobra.Command{
	Use:   "serve <config-file>",
	Short: "Start the gateway",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFile, err := openLogFile(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("opening log path: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, nil))

	var store *audit.Store
	if auditDBPath != "" {
		store, err = audit.Open(auditDBPath)
		if err != nil {
			return fmt.Errorf("opening audit database: %w", err)
		}
		defer store.Close()
	}
	auditLogger := audit.New(logger, store)

	templates, err := webui.NewRegistry(nil)
	if err != nil {
		return fmt.Errorf("building template registry: %w", err)
	}

	detector := metrics.NewFailureDetector(0, 0, func(ev metrics.AlertEvent) {
		auditLogger.Alert(context.Background(), ev.Message, ev.Count, ev.Threshold)
	})

	handler := api.New(cfg, templates, auditLogger, api.WithAnomalyDetector(detector))

	printBanner()
	fmt.Printf("Listening on %s with %d workers (log: %s)\n", listenAddr, cfg.NThreads, cfg.LogPath)

	server := dispatch.NewServer(listenAddr, handler.Router(), handler.HealthHandler(), cfg.NThreads, cfg.NThreads*queueDepthMultiplier)
	return server.Run(context.Background())
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
