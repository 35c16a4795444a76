package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/carekg/internal/crawl"
	"github.com/pdiddy/carekg/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "carekg/0.1"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [start-urls...]",
	Short: "Fetch guideline pages and PDFs from trusted publishers",
	Long: `Crawl starts from the built-in entry points (or the given URLs) and
follows links best-first: each discovered link on a trusted domain is scored
by the clinical terms in its URL and the highest-scoring link is fetched
next. Main content regions and PDFs are stored under pages/raw/ with a
metadata record under pages/metadata/. Existing pages are not rewritten.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("pages-dir", "pages", "base directory for pages (contains raw/, metadata/, text/)")
	crawlCmd.Flags().StringSlice("allowed-domains", nil, "trusted domains (default: built-in guideline publishers)")
	crawlCmd.Flags().String("vocabulary-file", "", "YAML file of term: weight overrides for link scoring")
	crawlCmd.Flags().Int("max-depth", 3, "maximum links followed from a start URL")
	crawlCmd.Flags().Int("max-pages", 200, "maximum pages fetched")
	crawlCmd.Flags().Duration("delay", defaultDelay, "delay between consecutive fetches")
	crawlCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	crawlCmd.Flags().String("user-agent", defaultUserAgent, "User-Agent header")
	crawlCmd.Flags().Int("max-retries", 0, "retries on HTTP 429 and 503 (0 = default)")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    durationSetting("timeout"),
			UserAgent:  stringSetting("user-agent"),
			MaxRetries: intSetting("max-retries"),
		},
		AllowedDomains: stringsSetting("allowed-domains"),
		StartURLs:      args,
		VocabularyFile: stringSetting("vocabulary-file"),
		MaxDepth:       intSetting("max-depth"),
		MaxPages:       intSetting("max-pages"),
		FetchDelay:     durationSetting("delay"),
		PagesDir:       stringSetting("pages-dir"),
	}

	crawler, err := crawl.New(cfg, nil)
	if err != nil {
		return err
	}

	summary, err := crawler.Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d page(s) failed to fetch", summary.Failed)
	}
	return nil
}
