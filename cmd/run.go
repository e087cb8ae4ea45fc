package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/domain"
)

// runCommand builds the run command.
func runCommand() *cobra.Command {
	var (
		keywords  string
		location  string
		timeRange string
		limit     int
		easyApply bool
		relevant  bool
		workplace []int
		savedName string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one discovery run",
		Long: `Run executes one discovery pass: result pages are fetched, every job
is checked against the dismissal ledger and the blocklists, and every
dismissal is recorded. Ctrl-C stops the run cooperatively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			params := domain.SearchParams{
				Keywords:       keywords,
				Location:       location,
				TimeRange:      timeRange,
				Limit:          limit,
				EasyApply:      easyApply,
				Relevant:       relevant,
				WorkplaceTypes: workplace,
			}
			if savedName != "" {
				saved, err := a.Searches.GetSavedSearchByName(cmd.Context(), savedName)
				if err != nil {
					return err
				}
				params = saved.Params()
			}

			manager, err := a.Manager()
			if err != nil {
				return err
			}

			runID, err := manager.Start(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s started\n", runID)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			done := make(chan struct{})
			go func() {
				manager.Wait()
				close(done)
			}()

			select {
			case <-sigCh:
				fmt.Println("Stopping run...")
				if err := manager.Stop(); err != nil {
					return err
				}
				manager.Wait()
			case <-done:
			}

			final, err := manager.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			printRunSummary(final)
			if final.Status == domain.RunFailed {
				return fmt.Errorf("run %s failed", final.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "search keywords")
	cmd.Flags().StringVarP(&location, "location", "l", "", "location text")
	cmd.Flags().StringVar(&timeRange, "time-range", domain.TimeRangeDay,
		"posting age filter: all, 24h, week, month")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many jobs (0 = config default)")
	cmd.Flags().BoolVar(&easyApply, "easy-apply", false, "only postings with quick apply")
	cmd.Flags().BoolVar(&relevant, "relevant", false, "sort by relevance instead of most recent")
	cmd.Flags().IntSliceVar(&workplace, "workplace", nil,
		"workplace type codes: 1=on-site, 2=remote, 3=hybrid")
	cmd.Flags().StringVar(&savedName, "saved", "", "use a saved search instead of flags")

	return cmd
}

// printRunSummary prints the final counters of a run.
func printRunSummary(r *domain.SearchRun) {
	duration := ""
	if r.CompletedAt != nil {
		duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
	}
	fmt.Printf("Run %s: %s\n", r.ID, r.Status)
	fmt.Printf("  found:     %d\n", r.TotalFound)
	fmt.Printf("  dismissed: %d\n", r.TotalDismissed)
	fmt.Printf("  skipped:   %d\n", r.TotalSkipped)
	if duration != "" {
		fmt.Printf("  duration:  %s\n", duration)
	}
}
