// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/carekg/pkg/types"
)

// GroupLabel normalizes a pattern group name such as "environment_action"
// into a node label ("EnvironmentAction"): each underscore-separated word is
// capitalized and the delimiters are dropped.
func GroupLabel(group string) string {
	var b strings.Builder
	for _, word := range strings.Split(group, "_") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	return b.String()
}

// matchPatterns scans text with every pattern of every group and emits one
// record per match. Overlapping matches are all kept.
func matchPatterns(text string) []types.ExtractionRecord {
	text = bound(text, MaxPatternInput)

	var records []types.ExtractionRecord
	for _, group := range patternLibrary {
		detector := detectorPatternPrefix + string(group.category)
		for _, re := range group.patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				records = append(records, patternRecord(text, group.category, detector, loc[0], loc[1]))
			}
		}
	}
	return records
}

func patternRecord(text string, cat types.Category, detector string, start, end int) types.ExtractionRecord {
	ws, we := window(text, start, end, contextRadius)
	rec := newRecord(cat, types.SourcePattern, detector, map[string]string{
		"matched_text": text[start:end],
		"context":      text[ws:we],
	})
	rec.Span = &types.Span{
		MatchStart:  start,
		MatchEnd:    end,
		WindowStart: ws,
		WindowEnd:   we,
	}
	return rec
}
