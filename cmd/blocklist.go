package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/filter"
)

// blocklistCommand builds the blocklist command group.
func blocklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Manage the title and company blocklists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(blocklistValidateCommand())
	cmd.AddCommand(blocklistOptimizeCommand())
	cmd.AddCommand(blocklistAddCommand())
	cmd.AddCommand(blocklistRemoveCommand())
	return cmd
}

// pickStore selects the title or company store.
func pickStore(a *app, companies bool) *filter.FileStore {
	if companies {
		return a.Companies
	}
	return a.Titles
}

func blocklistValidateCommand() *cobra.Command {
	var companies bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a blocklist for duplicates and whitespace issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			store := pickStore(a, companies)
			lines, err := store.Load()
			if err != nil {
				return err
			}

			report := filter.ValidateBlocklist(lines)
			if report.Clean() {
				fmt.Printf("%s: no issues in %d line(s)\n", store.Path(), len(lines))
				return nil
			}
			for _, issue := range report.Duplicates {
				fmt.Printf("%s:%d: duplicate entry %q\n", store.Path(), issue.Line, issue.Entry)
			}
			for _, issue := range report.WhitespaceIssues {
				fmt.Printf("%s:%d: leading or trailing whitespace in %q\n",
					store.Path(), issue.Line, issue.Entry)
			}
			return fmt.Errorf("%d issue(s) found",
				len(report.Duplicates)+len(report.WhitespaceIssues))
		},
	}
	cmd.Flags().BoolVar(&companies, "companies", false, "validate the company blocklist")
	return cmd
}

func blocklistOptimizeCommand() *cobra.Command {
	var (
		companies bool
		write     bool
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Find redundant blocklist entries",
		Long: `Optimize finds title entries subsumed by a shorter entry, or company
entries whose link never appeared in the dismissal ledger. Without
--write the blocklist is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			store := pickStore(a, companies)
			entries, err := store.Entries()
			if err != nil {
				return err
			}

			if companies {
				links, err := a.Dismissed.UniqueCompanyLinks(cmd.Context())
				if err != nil {
					return err
				}
				seen, unseen := filter.OptimizeCompanies(entries, links)
				fmt.Printf("%d entr(ies) matched in ledger, %d never seen\n",
					len(seen), len(unseen))
				for _, entry := range unseen {
					fmt.Printf("  never seen: %s\n", entry)
				}
				return nil
			}

			kept, dropped, err := filter.OptimizeTitles(entries)
			if err != nil {
				return err
			}
			if len(dropped) == 0 {
				fmt.Println("no redundant entries")
				return nil
			}
			for _, entry := range dropped {
				fmt.Printf("  redundant: %s\n", entry)
			}
			if !write {
				fmt.Printf("%d redundant entr(ies); rerun with --write to remove\n", len(dropped))
				return nil
			}
			if err := store.Replace(kept); err != nil {
				return err
			}
			fmt.Printf("removed %d entr(ies), %d kept\n", len(dropped), len(kept))
			return nil
		},
	}
	cmd.Flags().BoolVar(&companies, "companies", false, "optimize the company blocklist")
	cmd.Flags().BoolVar(&write, "write", false, "write the optimized blocklist back")
	return cmd
}

func blocklistAddCommand() *cobra.Command {
	var companies bool

	cmd := &cobra.Command{
		Use:   "add <entry>",
		Short: "Add a blocklist entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			store := pickStore(a, companies)
			added, err := store.Append(args[0])
			if err != nil {
				return err
			}
			if !added {
				fmt.Printf("%q is already listed\n", args[0])
				return nil
			}
			fmt.Printf("added %q to %s\n", args[0], store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&companies, "companies", false, "add to the company blocklist")
	return cmd
}

func blocklistRemoveCommand() *cobra.Command {
	var companies bool

	cmd := &cobra.Command{
		Use:   "remove <entry>",
		Short: "Remove a blocklist entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			store := pickStore(a, companies)
			removed, err := store.Remove(args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("%q is not listed\n", args[0])
				return nil
			}
			fmt.Printf("removed %q from %s\n", args[0], store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&companies, "companies", false, "remove from the company blocklist")
	return cmd
}
