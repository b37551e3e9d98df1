package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pharmatrack/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect run history",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					string(run.Status),
					run.TrackerFile,
					formatRunTime(run.StartTime),
					formatRunEnd(run.EndTime),
					run.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Tracker", "Started", "Finished", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				out,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its customer files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %d not found", runID)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %d\n", run.ID)
			fmt.Fprintf(out, "  Status:   %s\n", run.Status)
			fmt.Fprintf(out, "  Tracker:  %s\n", valueOrDash(run.TrackerFile))
			fmt.Fprintf(out, "  Started:  %s\n", formatRunTime(run.StartTime))
			fmt.Fprintf(out, "  Finished: %s\n", formatRunEnd(run.EndTime))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error:    %s\n", run.ErrorMessage)
			}

			entries, err := st.CustomerLogForRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No customer files processed")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.CustomerName,
					entry.FileName,
					string(entry.Status),
					entry.Message,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Customer", "File", "Status", "Message"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				out,
			))
			return nil
		},
	}
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatRunTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

func formatRunEnd(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return formatRunTime(*value)
}
