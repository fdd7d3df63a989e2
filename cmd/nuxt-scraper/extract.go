package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	nuxt "github.com/rahjooh/nuxt-scraper"
	"github.com/rahjooh/nuxt-scraper/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract the payload from an HTML document",
	Long: `Reads an HTML document from the given file (or stdin when omitted) and
extracts the serialized payload, preferring the __NUXT_DATA__ element over a
window.__NUXT__ assignment. With --hydrate the payload is also hydrated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		doc, err := readInput(args)
		if err != nil {
			return err
		}

		extraction, err := extract.FromString(string(doc))
		if err != nil {
			return err
		}
		logger.Info("extracted payload", "method", extraction.Method, "bytes", len(extraction.Raw))

		hydrate, _ := cmd.Flags().GetBool("hydrate")
		if !hydrate {
			fmt.Println(extraction.Raw)
			return nil
		}

		// window.__NUXT__ carries the legacy non-flat state object, which
		// needs no hydration
		if extraction.Method == extract.MethodWindow {
			var state any
			if err := json.Unmarshal([]byte(extraction.Raw), &state); err != nil {
				return fmt.Errorf("decode window state: %w", err)
			}
			out, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("encode output: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		result, err := nuxt.Hydrate(extraction.Raw, nuxt.WithLogger(logger))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(nuxt.Render(result.Value), "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Bool("hydrate", false, "Hydrate the extracted payload instead of printing it raw")
}
