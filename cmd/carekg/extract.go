package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/carekg/internal/extract"
	"github.com/pdiddy/carekg/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file]",
	Short: "Extract care knowledge records from cleaned text",
	Long: `Extract runs the rule-based extraction engine over every document in
pages/text/ and writes one records file per document to
knowledge/extracted/<id>-records.yaml. Documents whose records are newer
than their text are skipped unless --force is given.

With a file argument, extract runs the engine over that one file and
prints the records as JSON. With --watch, extract keeps running and
re-extracts whenever text files change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("pages-dir", "pages", "base directory for pages (contains text/, metadata/)")
	extractCmd.Flags().String("knowledge-dir", "knowledge", "base directory for knowledge output (contains extracted/)")
	extractCmd.Flags().Int("workers", 4, "documents extracted concurrently")
	extractCmd.Flags().Bool("force", false, "re-extract documents that are up to date")
	extractCmd.Flags().Bool("watch", false, "watch pages/text/ and re-extract on change")
	extractCmd.Flags().Duration("debounce", extract.DefaultDebounce, "quiet period before a watch re-run")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return extractFile(args[0])
	}

	cfg := types.ExtractionConfig{
		PagesDir:     stringSetting("pages-dir"),
		KnowledgeDir: stringSetting("knowledge-dir"),
		Workers:      intSetting("workers"),
		Force:        boolSetting("force"),
	}

	if boolSetting("watch") {
		return extract.Watch(cmd.Context(), cfg, durationSetting("debounce"), os.Stdout)
	}

	summary, err := extract.ExtractAll(cmd.Context(), cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", summary.Failed)
	}
	return nil
}

func extractFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	records := extract.Extract(string(data))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
