// Package cmd implements the command-line interface for jobsift.
// It provides the root command and subcommands for running searches,
// managing blocklists, geo mappings and the dismissal history.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "jobsift",
		Short: "A job discovery and filtering pipeline",
		Long: `jobsift discovers job postings, filters out the ones you never want
to see again and keeps a durable record of every dismissal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are visible to viper.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jobsift version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(schedulerCommand())
	rootCmd.AddCommand(blocklistCommand())
	rootCmd.AddCommand(geoCommand())
	rootCmd.AddCommand(historyCommand())
	rootCmd.AddCommand(searchesCommand())
}

// fatalIfClose reports a close failure without masking the command error.
func fatalIfClose(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: shutdown error: %v\n", err)
	}
}
