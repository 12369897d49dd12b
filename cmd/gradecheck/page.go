package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gradecard/backend/internal/infrastructure/scrape"
	"github.com/spf13/cobra"
)

var (
	flagHTMLFile string
	flagTimeout  time.Duration
)

var pageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Scrape a listing page and resolve its grade",
	Long: `Page reads the restaurant identity from a listing page, then resolves it.
The page is fetched over HTTP unless --html names a saved copy; the URL
still selects the site adapter.

Examples:
  gradecheck page https://www.yelp.com/biz/joes-pizza-new-york
  gradecheck page https://www.grubhub.com/restaurant/joes-pizza/123 --html saved.html`,
	Args: cobra.ExactArgs(1),
	RunE: runPage,
}

func init() {
	rootCmd.AddCommand(pageCmd)

	pageCmd.Flags().StringVar(&flagHTMLFile, "html", "", "Read the page from this file instead of fetching it")
	pageCmd.Flags().DurationVar(&flagTimeout, "fetch_timeout", 30*time.Second, "Timeout for fetching the page")
}

func runPage(cmd *cobra.Command, args []string) error {
	pageURL := args[0]

	service, err := newInspectionService()
	if err != nil {
		return err
	}

	var html string
	if flagHTMLFile != "" {
		data, err := os.ReadFile(flagHTMLFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", flagHTMLFile, err)
		}
		html = string(data)
	} else {
		html, err = scrape.NewFetcher(flagTimeout).Fetch(cmd.Context(), pageURL)
		if err != nil {
			return err
		}
	}

	badge, err := service.LookupPage(cmd.Context(), pageURL, html, "")
	if err != nil {
		return err
	}

	return printBadge(cmd.OutOrStdout(), badge)
}
