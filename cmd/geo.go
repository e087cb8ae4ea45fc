package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/geo"
)

// geoCommand builds the geo command group.
func geoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geo",
		Short: "Inspect and correct location resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(geoResolveCommand())
	cmd.AddCommand(geoListCommand())
	cmd.AddCommand(geoOverrideCommand())
	cmd.AddCommand(geoForgetCommand())
	cmd.AddCommand(geoCandidatesCommand())
	cmd.AddCommand(geoRenameCommand())
	cmd.AddCommand(geoDeleteCandidateCommand())
	return cmd
}

func geoResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <location>",
		Short: "Resolve a location and cache the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			resolver, err := a.Resolver()
			if err != nil {
				return err
			}
			entry, err := resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Println("unscoped (worldwide)")
				return nil
			}
			fmt.Printf("query:      %s\n", entry.Query)
			fmt.Printf("master id:  %d\n", entry.MasterGeoID)
			if entry.Refined() {
				fmt.Printf("refined to: %d\n", *entry.PopulatedPlaceID)
			} else {
				fmt.Println("refined to: (regional only)")
			}
			return nil
		},
	}
}

func geoListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached location resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			entries, err := a.Geo.ListCache(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("geo cache is empty")
				return nil
			}
			for _, e := range entries {
				refined := "-"
				if e.Refined() {
					refined = strconv.FormatInt(*e.PopulatedPlaceID, 10)
				}
				fmt.Printf("%-40s master=%d pp=%s\n", e.Query, e.MasterGeoID, refined)
			}
			return nil
		},
	}
}

func geoOverrideCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "override <location> <pp-id|none>",
		Short: "Set or clear the populated-place refinement of a cached location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			var ppID *int64
			if !strings.EqualFold(args[1], "none") {
				id, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("bad populated place id %q: %w", args[1], err)
				}
				ppID = &id
			}

			query := geo.Normalize(args[0])
			found, err := a.OfflineResolver().ApplyOverride(cmd.Context(), args[0], ppID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no cache entry for %q; resolve it first", query)
			}
			if ppID == nil {
				fmt.Printf("%s: refinement cleared\n", query)
			} else {
				fmt.Printf("%s: refined to %d\n", query, *ppID)
			}
			return nil
		},
	}
}

func geoForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <location>",
		Short: "Drop a cached resolution so the next run resolves it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			query := geo.Normalize(args[0])
			if err := a.OfflineResolver().Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s: forgotten\n", query)
			return nil
		},
	}
}

func geoCandidatesCommand() *cobra.Command {
	var master int64

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List the populated-place candidate catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			var filterID *int64
			if master != 0 {
				filterID = &master
			}
			candidates, err := a.OfflineResolver().Candidates(cmd.Context(), filterID)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Println("no candidates")
				return nil
			}
			for _, c := range candidates {
				masters := make([]string, len(c.MasterGeoIDs))
				for i, id := range c.MasterGeoIDs {
					masters[i] = strconv.FormatInt(id, 10)
				}
				fmt.Printf("%-12d %-40s masters=%s\n",
					c.PPID, c.DisplayName(), strings.Join(masters, ","))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&master, "master", 0, "only candidates seen under this master geo id")
	return cmd
}

func geoDeleteCandidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-candidate <pp-id|all>",
		Short: "Drop candidates from the catalog",
		Long: `Delete-candidate removes one populated-place candidate, or the whole
catalog with "all". The catalog is rebuilt from the platform the next time
an affected location is resolved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			if strings.EqualFold(args[0], "all") {
				if err := a.Geo.DeleteAllCandidates(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("candidate catalog cleared")
				return nil
			}

			ppID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad populated place id %q: %w", args[0], err)
			}
			if err := a.Geo.DeleteCandidate(cmd.Context(), ppID); err != nil {
				return err
			}
			fmt.Printf("candidate %d removed\n", ppID)
			return nil
		},
	}
}

func geoRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <pp-id> <name>",
		Short: "Attach a corrected display name to a candidate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			ppID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad populated place id %q: %w", args[0], err)
			}
			found, err := a.OfflineResolver().RenameCandidate(cmd.Context(), ppID, args[1])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no candidate with id %d", ppID)
			}
			fmt.Printf("%d renamed to %q\n", ppID, args[1])
			return nil
		},
	}
}
