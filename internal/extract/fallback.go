// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"unicode/utf8"

	"github.com/pdiddy/carekg/pkg/types"
)

// classifyTopic runs the topic cascade over lower-cased text. Every rule is
// tested and a later match overrides an earlier one; GeneralCare is returned
// when nothing matches.
func classifyTopic(lower string) Topic {
	topic := TopicGeneralCare
	for _, rule := range topicCascade {
		if containsAny(lower, rule.keywords) {
			topic = rule.topic
		}
	}
	return topic
}

// fallbackChunk classifies a whole document that no heuristic detector
// claimed. Documents of fallbackMinLength characters or fewer yield nothing.
func fallbackChunk(text, lower string) []types.ExtractionRecord {
	if utf8.RuneCountInString(text) <= fallbackMinLength {
		return nil
	}
	normalized := collapseSpace(text)
	return []types.ExtractionRecord{
		newRecord(types.CategoryKnowledgeChunk, types.SourceFallback, DetectorFallback, map[string]string{
			"text":        prefix(normalized, previewLimit) + previewSuffix,
			"full_text":   normalized,
			"topic":       string(classifyTopic(lower)),
			"source_type": chunkSourceType,
		}),
	}
}
