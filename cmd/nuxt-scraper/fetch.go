package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	nuxt "github.com/rahjooh/nuxt-scraper"
	"github.com/rahjooh/nuxt-scraper/browser"
	"github.com/rahjooh/nuxt-scraper/extract"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a live page with a headless browser and hydrate its payload",
	Long: `Navigates to the given URL with a headless Chrome instance, optionally
waits for a selector to become visible, captures the payload and hydrates it.
Requires a Chrome or Chromium binary on the host.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		headless, _ := cmd.Flags().GetBool("headless")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		userAgent, _ := cmd.Flags().GetString("user-agent")
		proxy, _ := cmd.Flags().GetString("proxy")
		waitFor, _ := cmd.Flags().GetString("wait-for")
		sleep, _ := cmd.Flags().GetDuration("sleep")
		noHydrate, _ := cmd.Flags().GetBool("raw")

		opts := []browser.Option{
			browser.WithHeadless(headless),
			browser.WithTimeout(timeout),
			browser.WithLogger(logger),
		}
		if userAgent != "" {
			opts = append(opts, browser.WithUserAgent(userAgent))
		}
		if proxy != "" {
			opts = append(opts, browser.WithProxy(proxy))
		}

		var steps []browser.Step
		if waitFor != "" {
			steps = append(steps, browser.WaitVisible(waitFor))
		}
		if sleep > 0 {
			steps = append(steps, browser.Sleep(sleep))
		}

		capture, err := browser.NewExtractor(opts...).Extract(context.Background(), args[0], steps...)
		if err != nil {
			return err
		}

		if noHydrate || capture.Method == extract.MethodWindow {
			fmt.Println(capture.Raw)
			return nil
		}

		result, err := nuxt.Hydrate(capture.Raw, nuxt.WithLogger(logger))
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
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().Bool("headless", true, "Run the browser headless")
	fetchCmd.Flags().Duration("timeout", 30*time.Second, "Overall navigation timeout")
	fetchCmd.Flags().String("user-agent", "", "Override the browser user agent")
	fetchCmd.Flags().String("proxy", "", "Proxy server for browser traffic")
	fetchCmd.Flags().String("wait-for", "", "CSS selector to wait for before capturing")
	fetchCmd.Flags().Duration("sleep", 0, "Extra pause before capturing")
	fetchCmd.Flags().Bool("raw", false, "Print the captured payload without hydrating")
}
