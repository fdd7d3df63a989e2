package main

import (
	"fmt"

	"github.com/spf13/cobra"

	nuxt "github.com/rahjooh/nuxt-scraper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nuxt-scraper",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nuxt-scraper version %s\n", nuxt.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
