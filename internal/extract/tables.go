// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"

	"github.com/pdiddy/carekg/pkg/types"
)

// Limits applied when assembling records.
const (
	// instructionLimit is the number of characters of raw text copied into
	// heuristic records.
	instructionLimit = 500

	// previewLimit is the number of characters of normalized text kept in a
	// KnowledgeChunk preview.
	previewLimit  = 300
	previewSuffix = "..."

	// fallbackMinLength is the character count a document must exceed
	// before the fallback classifier considers it.
	fallbackMinLength = 100

	// contextRadius is the number of characters kept on each side of a
	// pattern match.
	contextRadius = 50
)

// MaxPatternInput caps the bytes of a document scanned by the pattern
// library. Longer text is cut at the last rune boundary before the cap.
const MaxPatternInput = 1 << 20

// Assessment-score detector.
var (
	// timedMobilityRe matches the Timed Up and Go test by name or abbreviation.
	timedMobilityRe = regexp.MustCompile(`\b(?:tug|timed up and go)\b`)

	// secondsRe matches a number followed by a seconds unit, e.g. "12.5 seconds".
	secondsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:seconds?|secs?)\b`)
)

const (
	tugAssessment   = "TUG"
	tugLogicFormat  = "Cutoff at %s seconds for fall risk"
	medicationType  = "SafetyAlert"
	medicationDesc  = "Potentially Inappropriate Medication for Older Adults"
	adlDomain       = "ADL Assistance"
	hazardCategory  = "Home Safety"
	redFlagName     = "Clinical Red Flags"
	questionContext = "Clinical Screening"
	chunkSourceType = "GuidelineText"
)

// Keyword sets, all lower-case.
var (
	medicationSafetyTerms = []string{"beers criteria", "inappropriate medication"}

	adlTerms = []string{"bathing", "dressing", "toileting", "feeding", "transferring"}

	hazardTerms = []string{"grab bar", "lighting", "flooring", "rugs", "hazard"}

	redFlagTerms = []string{"warning sign", "red flag", "report", "worsen", "escalate"}
)

// terminatorRe finds runs of sentence-ending punctuation. A run only ends a
// sentence when whitespace or the end of the line follows it, so decimals
// such as "13.5" stay whole.
var terminatorRe = regexp.MustCompile(`[.!?]+`)

// abbreviations are lower-cased words whose trailing period never ends a
// sentence.
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"st": true, "vs": true, "approx": true, "fig": true,
	"e.g": true, "i.e": true,
}

// interrogativeStarts are the capitalized auxiliaries that open a yes/no
// screening question. A sentence beginning with one of them is a question
// even when the cleaner dropped its question mark.
var interrogativeStarts = []string{
	"Do", "Does", "Did", "Have", "Has", "Can", "Could",
	"Is", "Are", "Will", "Would", "Should",
}

// Topic is the subject tag assigned by the fallback classifier.
type Topic string

const (
	TopicGeneralCare      Topic = "GeneralCare"
	TopicNutrition        Topic = "Nutrition"
	TopicPhysicalActivity Topic = "PhysicalActivity"
	TopicSocialWellbeing  Topic = "SocialWellbeing"
	TopicFinancialLegal   Topic = "FinancialLegal"
)

type topicRule struct {
	topic    Topic
	keywords []string
}

// topicCascade is evaluated in order and the last matching rule wins.
var topicCascade = []topicRule{
	{TopicNutrition, []string{"diet", "food", "nutrition", "eat", "drink"}},
	{TopicPhysicalActivity, []string{"exercise", "walk", "move", "strength"}},
	{TopicSocialWellbeing, []string{"social", "family", "friend", "lonely"}},
	{TopicFinancialLegal, []string{"money", "finance", "pay", "cost"}},
}

// patternGroup is one named category of the pattern library.
type patternGroup struct {
	category types.Category
	patterns []*regexp.Regexp
}

// patternLibrary is matched case-insensitively against original-case text.
// Group and pattern order determine output order.
var patternLibrary = []patternGroup{
	{types.CategoryEnvironmentAction, compileAll(
		`install (.*) in (.*)`,
		`remove (.*) from (.*)`,
		`lighting (should|must) be (.*)`,
		`ensure (.*) is (.*)`,
	)},
	{types.CategoryAssessmentLogic, compileAll(
		`if (.*) score (.*) (.*) then (.*)`,
		`evaluate (.*) using (.*)`,
		`cutoff (of|at) (.*) indicates (.*)`,
		`threshold (is|exceeds) (.*)`,
	)},
	{types.CategoryCareTask, compileAll(
		`assist with (.*)`,
		`monitor (.*) every (.*)`,
		`supervise (.*) during (.*)`,
		`remind (patient|resident) to (.*)`,
	)},
	{types.CategoryMedicationSafety, compileAll(
		`avoid (.*) in (.*)`,
		`dosage (should|must) (.*)`,
		`monitor for (?:(.*) )?side effects`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		res[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return res
}
