package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"intake/internal/daemon"
	"intake/internal/ipc"
	"intake/internal/logging"
)

// daemon-run hosts the full daemon in the foreground, mainly for development
// and for running under a process supervisor without the intaked binary.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon-run",
		Short: "Run the ingest daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			logger, closeLogs, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Path:   cfg.LogPath(),
				Stderr: true,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closeLogs()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := daemon.New(cfg, logger, daemon.Options{})
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(runCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			defer d.Stop()

			server, err := ipc.NewServer(runCtx, cfg.SocketPath(), d, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer server.Close()
			server.Serve()

			fmt.Fprintf(cmd.OutOrStdout(), "intake daemon running (socket %s); Ctrl-C to stop\n", cfg.SocketPath())
			<-runCtx.Done()
			return nil
		},
	}
}
