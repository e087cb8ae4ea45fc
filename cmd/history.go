package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// historyCommand builds the history command group.
func historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect runs and the dismissal ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(historyRunsCommand())
	cmd.AddCommand(historyShowCommand())
	cmd.AddCommand(historyExportCommand())
	cmd.AddCommand(historyUndoCommand())
	return cmd
}

func historyRunsCommand() *cobra.Command {
	var (
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			runs, total, err := a.Searches.ListRuns(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %-9s  %s  found=%d dismissed=%d skipped=%d  %q in %q\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.Status, r.ID,
					r.TotalFound, r.TotalDismissed, r.TotalSkipped,
					r.Keywords, r.Location)
			}
			dismissed, err := a.Dismissed.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d of %d run(s), %d job(s) in the ledger\n", len(runs), total, dismissed)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many runs")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	return cmd
}

func historyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its dismissals and log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			run, err := a.Searches.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRunSummary(run)

			dismissals, err := a.Dismissed.ListByRun(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if len(dismissals) > 0 {
				fmt.Println("Dismissals:")
				for _, d := range dismissals {
					fmt.Printf("  %-22s %-24s %s at %s\n",
						d.JobID, d.Reason, d.Title, d.Company)
				}
			}

			logs, err := a.Searches.GetLogs(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if len(logs) > 0 {
				fmt.Println("Log:")
				for _, l := range logs {
					fmt.Printf("  %s [%s] %s\n",
						l.CreatedAt.Format("15:04:05"), l.Level, l.Message)
				}
			}
			return nil
		},
	}
}

func historyExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dismissal ledger as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			n, err := a.Exporter().Write(cmd.Context(), w)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Printf("wrote %d row(s) to %s\n", n, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func historyUndoCommand() *cobra.Command {
	var (
		remote  bool
		byTitle bool
	)

	cmd := &cobra.Command{
		Use:   "undo <job-id>",
		Short: "Remove a job from the dismissal ledger",
		Long: `Undo deletes the ledger row so the job can show up in future runs.
With --title the argument is a title fragment instead of a job id; it must
match exactly one ledger row. With --remote the dismissal feedback is also
reversed on the platform.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			jobID := args[0]
			if byTitle {
				matches, err := a.Dismissed.SearchByTitle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				switch len(matches) {
				case 0:
					return fmt.Errorf("no ledger row matches title %q", args[0])
				case 1:
					jobID = matches[0].JobID
				default:
					for _, m := range matches {
						fmt.Printf("  %s  %s at %s\n", m.JobID, m.Title, m.Company)
					}
					return fmt.Errorf("title %q matches %d rows, undo by job id", args[0], len(matches))
				}
			}

			removed, err := a.Dismissed.Delete(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("job %s is not in the ledger", jobID)
			}
			fmt.Printf("job %s removed from the ledger\n", jobID)

			if remote {
				client, err := a.Client()
				if err != nil {
					return err
				}
				if err := client.UndoDismiss(cmd.Context(), jobID); err != nil {
					return fmt.Errorf("ledger row removed but remote undo failed: %w", err)
				}
				fmt.Println("remote dismissal reversed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also reverse the dismissal on the platform")
	cmd.Flags().BoolVar(&byTitle, "title", false, "treat the argument as a title fragment")
	return cmd
}
