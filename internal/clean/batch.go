// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/carekg/pkg/types"
)

const (
	metadataDir = "metadata"
	textDir     = "text"
)

// BatchSummary holds counts from a batch cleaning run.
type BatchSummary struct {
	Cleaned    int
	Irrelevant int
	Skipped    int
	Failed     int
}

// Total returns the number of pages processed.
func (s BatchSummary) Total() int {
	return s.Cleaned + s.Irrelevant + s.Skipped + s.Failed
}

// HasFailures reports whether any pages failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// CleanAll cleans every page recorded under pagesDir/metadata/. Relevant
// text goes to pagesDir/text/<id>.txt and the page's clean status is written
// back to its metadata. Pages already cleaned or set aside are skipped.
func (c *Cleaner) CleanAll(ctx context.Context, cfg types.CleanConfig, w io.Writer) (BatchSummary, error) {
	metaDir := filepath.Join(cfg.PagesDir, metadataDir)
	outDir := filepath.Join(cfg.PagesDir, textDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating text directory: %w", err)
	}

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var summary BatchSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		metaPath := filepath.Join(metaDir, entry.Name())
		page, err := readPage(metaPath)
		if err != nil {
			summary.Failed++
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			continue
		}

		if page.CleanStatus == types.CleanDone || page.CleanStatus == types.CleanIrrelevant {
			summary.Skipped++
			fmt.Fprintf(w, "skipped %s\n", page.ID)
			continue
		}

		status, terms := c.cleanPage(ctx, cfg, page, outDir)
		page.CleanStatus = status
		if err := writePage(metaPath, page); err != nil {
			summary.Failed++
			fmt.Fprintf(w, "failed  %s: write metadata: %v\n", page.ID, err)
			continue
		}

		switch status {
		case types.CleanDone:
			summary.Cleaned++
			fmt.Fprintf(w, "cleaned %s (%d clinical terms)\n", page.ID, terms)
		case types.CleanIrrelevant:
			summary.Irrelevant++
			fmt.Fprintf(w, "irrelevant %s\n", page.ID)
		default:
			summary.Failed++
			fmt.Fprintf(w, "failed  %s: no text\n", page.ID)
		}
	}

	fmt.Fprintf(w, "\ncleaned: %d, irrelevant: %d, skipped: %d, failed: %d\n",
		summary.Cleaned, summary.Irrelevant, summary.Skipped, summary.Failed)
	return summary, nil
}

// cleanPage cleans one page and writes its text when kept. It returns the
// resulting status and the number of clinical terms found.
func (c *Cleaner) cleanPage(ctx context.Context, cfg types.CleanConfig, page *types.Page, outDir string) (types.CleanStatus, int) {
	rawPath := filepath.Join(cfg.PagesDir, page.RawPath)

	var text string
	switch page.ContentType {
	case types.ContentPDF:
		text = c.CleanPDF(ctx, rawPath)
	default:
		data, err := os.ReadFile(rawPath)
		if err != nil {
			c.logger().Error("reading raw page", "id", page.ID, "path", rawPath, "err", err)
			return types.CleanFailed, 0
		}
		text = c.CleanHTML(string(data))
	}

	if strings.TrimSpace(text) == "" {
		return types.CleanFailed, 0
	}

	terms := len(MatchedTerms(text))
	status := types.CleanDone
	if terms < relevanceThreshold {
		status = types.CleanIrrelevant
		if !cfg.KeepIrrelevant {
			return status, terms
		}
	}

	outPath := filepath.Join(outDir, page.ID+".txt")
	if err := os.WriteFile(outPath, []byte(text+"\n"), 0o644); err != nil {
		c.logger().Error("writing text", "id", page.ID, "path", outPath, "err", err)
		return types.CleanFailed, terms
	}
	return status, terms
}

func readPage(path string) (*types.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var page types.Page
	if err := yaml.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if page.ID == "" {
		page.ID = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return &page, nil
}

func writePage(path string, page *types.Page) error {
	data, err := yaml.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshaling page: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
