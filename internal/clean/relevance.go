// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import "strings"

// relevanceThreshold is the number of distinct clinical terms a text must
// contain to be kept.
const relevanceThreshold = 2

// clinicalTerms are lower-case substrings that mark caregiver guidance:
// actions, geriatric syndromes and guidance vocabulary.
var clinicalTerms = []string{
	"assist", "monitor", "check", "observe", "help with", "supervise",
	"ensure", "remove hazard", "install", "support", "administer",

	"fall risk", "frailty", "mobility", "cognitive", "dementia",
	"polypharmacy", "medication review", "adl", "iadl", "tug test",
	"balance", "gait", "transfer", "ambulation",

	"recommendation", "guideline", "care plan", "intervention",
	"screening", "scoring", "assessment tool",
}

// IsRelevant reports whether text contains at least two distinct clinical
// terms. Matching is substring-based on the lower-cased text, so "iadl"
// also counts as "adl".
func IsRelevant(text string) bool {
	return len(MatchedTerms(text)) >= relevanceThreshold
}

// MatchedTerms returns the clinical terms found in text, in term-list order.
func MatchedTerms(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range clinicalTerms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}
