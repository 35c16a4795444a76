// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns cleaned guideline text into typed knowledge graph
// nodes. Extraction runs in three layers over one document:
//
//  1. the heuristic detector bank (keyword and sentence rules),
//  2. the fallback topic classifier, only when layer 1 emitted nothing,
//  3. the pattern library, always.
//
// The engine is a pure function of its input. All keyword and pattern
// tables are package-level values that are never written after init, so
// Extract is safe to call from any number of goroutines.
//
// See docs/ARCHITECTURE § Extraction.
package extract

import (
	"strings"

	"github.com/pdiddy/carekg/pkg/types"
)

// Extract runs the full engine over one document and returns its records in
// evaluation order. Empty or unmatched text yields an empty slice; Extract
// never fails.
func Extract(text string) []types.ExtractionRecord {
	lower := strings.ToLower(text)

	var records []types.ExtractionRecord
	for _, d := range heuristicBank {
		records = append(records, d.run(text, lower)...)
	}

	if len(records) == 0 {
		records = append(records, fallbackChunk(text, lower)...)
	}

	return append(records, matchPatterns(text)...)
}

// CountByCategory tallies records per category.
func CountByCategory(records []types.ExtractionRecord) map[types.Category]int {
	counts := make(map[types.Category]int)
	for _, r := range records {
		counts[r.Category]++
	}
	return counts
}
