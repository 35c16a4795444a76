package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/carekg/internal/clean"
	"github.com/pdiddy/carekg/internal/container"
	"github.com/pdiddy/carekg/pkg/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Reduce crawled pages to relevant plain text",
	Long: `Clean reads every page recorded under pages/metadata/, strips HTML
down to its readable text or runs PDFs through the markitdown container,
and keeps pages that mention at least two clinical terms. Kept text is
written to pages/text/<id>.txt. PDF pages need docker or podman with the
PDF image available; without them PDF pages are marked failed.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("pages-dir", "pages", "base directory for pages (contains raw/, metadata/, text/)")
	cleanCmd.Flags().String("pdf-image", clean.DefaultPDFImage, "container image that converts PDF to Markdown")
	cleanCmd.Flags().Bool("keep-irrelevant", false, "write text for pages that fail the relevance test")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg := types.CleanConfig{
		PagesDir:       stringSetting("pages-dir"),
		PDFImage:       stringSetting("pdf-image"),
		KeepIrrelevant: boolSetting("keep-irrelevant"),
	}
	ctx := cmd.Context()

	var pdf clean.PDFExtractor
	if rt, err := container.DetectRuntime(ctx); err != nil {
		slog.Warn("PDF cleaning disabled", "err", err)
	} else if ext, err := clean.NewMarkitdownExtractor(ctx, rt, cfg.PDFImage); err != nil {
		slog.Warn("PDF cleaning disabled", "err", err)
	} else {
		pdf = ext
	}

	summary, err := clean.New(pdf, slog.Default()).CleanAll(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d page(s) failed cleaning", summary.Failed)
	}
	return nil
}
