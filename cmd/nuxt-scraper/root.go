package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rahjooh/nuxt-scraper/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "nuxt-scraper",
	Short: "nuxt-scraper extracts and hydrates Nuxt 3 payloads",
	Long: `nuxt-scraper pulls the serialized __NUXT_DATA__ payload out of Nuxt 3
pages and hydrates its flat reference-indexed form back into plain JSON,
restoring dates, sets, maps, big integers and regular expressions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// newLogger builds the command logger from the --log-level flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
