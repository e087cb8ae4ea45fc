package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCommand builds the scheduler command.
func schedulerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run saved searches on their cron schedules",
		Long: `Scheduler keeps the process alive and triggers the saved searches
configured under "schedules". A trigger that collides with an active run
is skipped, never queued.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			if len(a.Config.Schedules) == 0 {
				return errors.New("no schedules configured")
			}

			sched, manager, err := a.Scheduler()
			if err != nil {
				return err
			}
			if err := sched.Register(cmd.Context(), a.Config.Schedules); err != nil {
				return err
			}

			sched.Start()
			fmt.Printf("Scheduler running with %d schedule(s), Ctrl-C to stop\n",
				len(a.Config.Schedules))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("Shutting down...")
			sched.Stop()
			if err := manager.Stop(); err == nil {
				manager.Wait()
			}
			return nil
		},
	}
}
