package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"pharmatrack/internal/logging"
	"pharmatrack/internal/notify"
	"pharmatrack/internal/store"
	"pharmatrack/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one master tracker update run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// Only one run may touch the staging areas at a time.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another run is already in progress (lock %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			notifier := notify.NewService(cfg)
			manager := workflow.NewManager(cfg, st, notifier, logger)

			run, err := manager.Execute(signalCtx)
			if errors.Is(err, workflow.ErrNothingToDo) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to process: no tracker or customer files dropped")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch run.Status {
			case store.StatusCompleted:
				fmt.Fprintf(out, "Run %d completed\n", run.ID)
				return nil
			case store.StatusFailed:
				fmt.Fprintf(out, "Run %d failed\n", run.ID)
				return fmt.Errorf("run %d: %s", run.ID, run.ErrorMessage)
			default:
				return fmt.Errorf("run %d ended in unexpected status %s", run.ID, run.Status)
			}
		},
	}
}
