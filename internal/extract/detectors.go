// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"strings"

	"github.com/pdiddy/carekg/pkg/types"
)

// Detector names recorded in ExtractionRecord.Detector.
const (
	DetectorAssessmentScore  = "assessment_score"
	DetectorMedicationSafety = "medication_safety"
	DetectorADL              = "adl"
	DetectorEnvironment      = "environment_hazard"
	DetectorRedFlag          = "red_flag"
	DetectorQuestion         = "question"
	DetectorFallback         = "fallback_topic"
	detectorPatternPrefix    = "pattern:"
)

// detector tests one document. text is the raw input and lower its
// lower-cased form; both are passed so no detector recomputes them.
type detector struct {
	name string
	run  func(text, lower string) []types.ExtractionRecord
}

// heuristicBank lists the keyword detectors in evaluation order. Order only
// affects the order of emitted records.
var heuristicBank = []detector{
	{DetectorAssessmentScore, detectAssessmentScore},
	{DetectorMedicationSafety, detectMedicationSafety},
	{DetectorADL, detectADL},
	{DetectorEnvironment, detectEnvironmentHazard},
	{DetectorRedFlag, detectRedFlag},
	{DetectorQuestion, detectQuestions},
}

func newRecord(cat types.Category, source types.RecordSource, detector string, props map[string]string) types.ExtractionRecord {
	return types.ExtractionRecord{
		Category: cat,
		Source:   source,
		Detector: detector,
		Node: types.Node{
			Label:      cat.Label(),
			Properties: props,
		},
	}
}

func heuristic(cat types.Category, detector string, props map[string]string) []types.ExtractionRecord {
	return []types.ExtractionRecord{newRecord(cat, types.SourceHeuristic, detector, props)}
}

// detectAssessmentScore emits a ScoringRule when the text names the Timed Up
// and Go test and states a duration in seconds. A mention without a number
// emits nothing.
func detectAssessmentScore(text, lower string) []types.ExtractionRecord {
	if !timedMobilityRe.MatchString(lower) {
		return nil
	}
	m := secondsRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	threshold := m[1]
	return heuristic(types.CategoryScoringRule, DetectorAssessmentScore, map[string]string{
		"assessment":  tugAssessment,
		"threshold":   threshold,
		"logic":       fmt.Sprintf(tugLogicFormat, threshold),
		"evidence":    m[0],
		"source_text": prefix(text, instructionLimit),
	})
}

func detectMedicationSafety(text, lower string) []types.ExtractionRecord {
	if !containsAny(lower, medicationSafetyTerms) {
		return nil
	}
	return heuristic(types.CategoryMedicationRule, DetectorMedicationSafety, map[string]string{
		"type":        medicationType,
		"description": medicationDesc,
		"source_text": prefix(text, instructionLimit),
	})
}

func detectADL(text, lower string) []types.ExtractionRecord {
	if !containsAny(lower, adlTerms) {
		return nil
	}
	return heuristic(types.CategoryCareTask, DetectorADL, map[string]string{
		"domain":      adlDomain,
		"instruction": prefix(text, instructionLimit),
	})
}

func detectEnvironmentHazard(text, lower string) []types.ExtractionRecord {
	if !containsAny(lower, hazardTerms) {
		return nil
	}
	return heuristic(types.CategoryEnvironmentAction, DetectorEnvironment, map[string]string{
		"category":    hazardCategory,
		"instruction": prefix(text, instructionLimit),
	})
}

func detectRedFlag(text, lower string) []types.ExtractionRecord {
	if !containsAny(lower, redFlagTerms) {
		return nil
	}
	return heuristic(types.CategoryObservationTask, DetectorRedFlag, map[string]string{
		"name":    redFlagName,
		"trigger": prefix(text, instructionLimit),
	})
}

// detectQuestions emits one AssessmentQuestion per question sentence, in
// document order. Matching is case-sensitive so only capitalized sentence
// openers count as interrogatives.
func detectQuestions(text, _ string) []types.ExtractionRecord {
	var records []types.ExtractionRecord
	for _, sentence := range splitSentences(text) {
		if !isQuestion(sentence) {
			continue
		}
		records = append(records, newRecord(types.CategoryAssessmentQuestion, types.SourceHeuristic, DetectorQuestion, map[string]string{
			"question": sentence,
			"context":  questionContext,
		}))
	}
	return records
}

// isQuestion reports whether a trimmed sentence ends in a question mark, or
// opens with an interrogative auxiliary and has no terminal punctuation.
func isQuestion(sentence string) bool {
	if sentence == "" {
		return false
	}
	if strings.HasSuffix(sentence, "?") {
		return true
	}
	if strings.HasSuffix(sentence, ".") || strings.HasSuffix(sentence, "!") {
		return false
	}
	first, rest, ok := strings.Cut(sentence, " ")
	if !ok || strings.TrimSpace(rest) == "" {
		return false
	}
	for _, w := range interrogativeStarts {
		if first == w {
			return true
		}
	}
	return false
}
