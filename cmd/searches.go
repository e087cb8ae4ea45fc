package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/domain"
)

// searchesCommand builds the saved-search command group.
func searchesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searches",
		Short: "Manage saved searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(searchesAddCommand())
	cmd.AddCommand(searchesListCommand())
	cmd.AddCommand(searchesDeleteCommand())
	return cmd
}

func searchesAddCommand() *cobra.Command {
	var (
		keywords  string
		location  string
		timeRange string
		limit     int
		easyApply bool
		relevant  bool
		workplace []int
		update    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save a search template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			saved := &domain.SavedSearch{
				ID:             uuid.New().String(),
				Name:           args[0],
				Keywords:       keywords,
				Location:       location,
				TimeRange:      timeRange,
				JobLimit:       limit,
				EasyApply:      easyApply,
				Relevant:       relevant,
				WorkplaceTypes: workplace,
				CreatedAt:      time.Now().UTC(),
			}
			params := saved.Params()
			if err := params.Validate(); err != nil {
				return err
			}

			if update {
				existing, err := a.Searches.GetSavedSearchByName(cmd.Context(), saved.Name)
				if err != nil {
					return err
				}
				saved.ID = existing.ID
				saved.CreatedAt = existing.CreatedAt
				if err := a.Searches.UpdateSavedSearch(cmd.Context(), saved); err != nil {
					return err
				}
				fmt.Printf("updated saved search %q\n", saved.Name)
				return nil
			}

			if err := a.Searches.CreateSavedSearch(cmd.Context(), saved); err != nil {
				return err
			}
			fmt.Printf("saved search %q (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "search keywords")
	cmd.Flags().StringVarP(&location, "location", "l", "", "location text")
	cmd.Flags().StringVar(&timeRange, "time-range", domain.TimeRangeDay,
		"posting age filter: all, 24h, week, month")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many jobs")
	cmd.Flags().BoolVar(&easyApply, "easy-apply", false, "only postings with quick apply")
	cmd.Flags().BoolVar(&relevant, "relevant", false, "sort by relevance")
	cmd.Flags().IntSliceVar(&workplace, "workplace", nil,
		"workplace type codes: 1=on-site, 2=remote, 3=hybrid")
	cmd.Flags().BoolVar(&update, "update", false, "replace an existing search with this name")
	return cmd
}

func searchesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			searches, err := a.Searches.ListSavedSearches(cmd.Context())
			if err != nil {
				return err
			}
			if len(searches) == 0 {
				fmt.Println("no saved searches")
				return nil
			}
			for _, s := range searches {
				fmt.Printf("%-20s %q in %q (%s)\n", s.Name, s.Keywords, s.Location, s.TimeRange)
			}
			return nil
		},
	}
}

func searchesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer func() { fatalIfClose(a.Close()) }()

			saved, err := a.Searches.GetSavedSearchByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.Searches.DeleteSavedSearch(cmd.Context(), saved.ID); err != nil {
				return err
			}
			fmt.Printf("deleted saved search %q\n", args[0])
			return nil
		},
	}
}
