// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/carekg/pkg/types"
)

const (
	textDir      = "text"
	metadataDir  = "metadata"
	extractedDir = "extracted"

	// RecordsSuffix names extraction output files: <id>-records.yaml.
	RecordsSuffix = "-records.yaml"

	defaultWorkers = 4
)

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int

	// Records counts emitted records per category across extracted documents.
	Records map[types.Category]int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractAll runs the engine over every document in pagesDir/text/ and writes
// one YAML result per document to knowledgeDir/extracted/. Documents whose
// output is newer than their text are skipped unless cfg.Force is set.
// Up to cfg.Workers documents are processed concurrently; a failing document
// is counted and does not stop the batch.
func ExtractAll(ctx context.Context, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	inDir := filepath.Join(cfg.PagesDir, textDir)
	metaDir := filepath.Join(cfg.PagesDir, metadataDir)
	outDir := filepath.Join(cfg.KnowledgeDir, extractedDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading text directory %s: %w", inDir, err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu      sync.Mutex
		summary = BatchSummary{Records: make(map[types.Category]int)}
	)
	report := func(update func(*BatchSummary), format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		update(&summary)
		fmt.Fprintf(w, format, args...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		docID := strings.TrimSuffix(entry.Name(), ".txt")
		textPath := filepath.Join(inDir, entry.Name())
		outPath := filepath.Join(outDir, docID+RecordsSuffix)

		g.Go(func() error {
			if !cfg.Force {
				changed, err := hasChanged(textPath, outPath)
				if err != nil {
					report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: %v\n", docID, err)
					return nil
				}
				if !changed {
					report(func(s *BatchSummary) { s.Skipped++ }, "skipped %s\n", docID)
					return nil
				}
			}

			result, err := ExtractDocument(docID, textPath, metaDir)
			if err != nil {
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: %v\n", docID, err)
				return nil
			}
			if err := writeResult(outPath, result); err != nil {
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: write error: %v\n", docID, err)
				return nil
			}

			report(func(s *BatchSummary) {
				s.Extracted++
				for cat, n := range result.Counts {
					s.Records[cat] += n
				}
			}, "extracted %s (%d records)\n", docID, len(result.Records))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "\nextracted: %d, skipped: %d, failed: %d\n",
		summary.Extracted, summary.Skipped, summary.Failed)
	for _, cat := range sortedCategories(summary.Records) {
		fmt.Fprintf(w, "  %-20s %d\n", cat.Label()+"/"+string(cat), summary.Records[cat])
	}

	return summary, nil
}

// ExtractDocument reads one cleaned text file and runs the engine over it.
// The source URL is copied from metaDir/<docID>.yaml when that file exists.
func ExtractDocument(docID, textPath, metaDir string) (*types.ExtractionResult, error) {
	content, err := os.ReadFile(textPath)
	if err != nil {
		return nil, fmt.Errorf("reading text %s: %w", textPath, err)
	}

	records := Extract(string(content))
	result := &types.ExtractionResult{
		DocumentID: docID,
		Records:    records,
		Counts:     CountByCategory(records),
	}
	if page := loadPage(metaDir, docID); page != nil {
		result.SourceURL = page.URL
	}
	return result, nil
}

// loadPage reads page metadata, returning nil when it is missing or invalid.
func loadPage(metaDir, docID string) *types.Page {
	data, err := os.ReadFile(filepath.Join(metaDir, docID+".yaml"))
	if err != nil {
		return nil
	}
	var page types.Page
	if err := yaml.Unmarshal(data, &page); err != nil {
		return nil
	}
	return &page
}

// hasChanged reports whether the text file is newer than the output file.
// Returns true if the output does not exist.
func hasChanged(textPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(textPath)
	if err != nil {
		return false, fmt.Errorf("stat text %s: %w", textPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeResult marshals the result to a YAML file via a temp file and rename,
// so readers never see a partial file.
func writeResult(path string, result *types.ExtractionResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing result: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

func sortedCategories(counts map[types.Category]int) []types.Category {
	cats := make([]types.Category, 0, len(counts))
	for cat := range counts {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
