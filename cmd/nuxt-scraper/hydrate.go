package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	nuxt "github.com/rahjooh/nuxt-scraper"
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate [file]",
	Short: "Hydrate a serialized payload into plain JSON",
	Long: `Reads a serialized payload from the given file (or stdin when omitted),
hydrates it and writes the resulting tree to stdout as indented JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		raw, err := readInput(args)
		if err != nil {
			return err
		}

		maxCells, _ := cmd.Flags().GetInt("max-cells")
		root, _ := cmd.Flags().GetInt("root")
		showStats, _ := cmd.Flags().GetBool("stats")

		opts := []nuxt.Option{nuxt.WithLogger(logger)}
		if maxCells > 0 {
			opts = append(opts, nuxt.WithMaxCells(maxCells))
		}

		payload, err := nuxt.ParsePayload(string(raw), opts...)
		if err != nil {
			return err
		}

		var result *nuxt.Result
		if cmd.Flags().Changed("root") {
			result, err = payload.HydrateIndex(root)
		} else {
			result, err = payload.Hydrate()
		}
		if err != nil {
			return err
		}

		for _, warn := range result.Warnings {
			logger.Warn("unknown special tag", "cell", warn.Index, "tag", warn.Tag)
		}
		for _, fail := range result.Failures {
			logger.Warn("decode failure", "cell", fail.Index, "tag", fail.Tag, "detail", fail.Detail)
		}

		out, err := json.MarshalIndent(nuxt.Render(result.Value), "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		fmt.Println(string(out))

		if showStats {
			logger.Info("hydration stats",
				"cells_visited", result.Stats.CellsVisited,
				"cache_size", result.Stats.CacheSize,
				"decode_failures", result.Stats.DecodeFailures,
				"unknown_tags", result.Stats.UnknownTags)
		}
		return nil
	},
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func init() {
	rootCmd.AddCommand(hydrateCmd)
	hydrateCmd.Flags().Int("max-cells", 0, "Reject payloads with more than this many cells (0 = unbounded)")
	hydrateCmd.Flags().Int("root", 0, "Hydrate from this cell index instead of the default root")
	hydrateCmd.Flags().Bool("stats", false, "Log hydration stats after the run")
}
