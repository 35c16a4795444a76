// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// pdfBonus is added to links that point straight at a PDF; published
// guidelines are usually distributed that way.
const pdfBonus = 15

// DefaultVocabulary weighs URL terms by how likely the linked page is to
// hold caregiver guidance.
var DefaultVocabulary = map[string]int{
	// Caregiver action and direct guidance.
	"guideline": 10, "bpg": 10, "algorithm": 10, "pathway": 10,
	"checklist": 8, "nursing-action": 8, "care-plan": 9,
	"intervention": 7, "management": 7, "recommendation": 9,

	// Geriatric syndromes and falls.
	"fall": 5, "frailty": 5, "dementia": 5, "delirium": 5,
	"mobility": 4, "gait": 4, "balance": 4, "hip-fracture": 4,
	"polypharmacy": 6, "medication-review": 6,

	// Assessment tools.
	"assessment": 5, "tug": 7, "moca": 7, "mmse": 7, "screening": 5,
	"score": 4, "diagnostic": 3,
}

// blockedTerms zero a link's score: social sharing, accounts and shops.
var blockedTerms = []string{"facebook", "twitter", "linkedin", "login", "register", "cart"}

// DefaultAllowedDomains are the trusted guideline publishers.
var DefaultAllowedDomains = []string{
	"nice.org.uk",
	"cdc.gov",
	"gov.bc.ca",
	"healthlinkbc.ca",
	"rnao.ca",
	"alz.org",
	"ncoa.org",
	"bgs.org.uk",
	"americangeriatrics.org",
	"choosingwisely.org",
}

// DefaultStartURLs seed the frontier when no start URLs are configured.
var DefaultStartURLs = []string{
	"https://www.healthlinkbc.ca/living-well/getting-older",
	"https://www.cdc.gov/steadi/hcp/index.html",
	"https://www.nice.org.uk/guidance/population-groups/older-people",
	"https://rnao.ca/bpg/guidelines",
	"https://www.bgs.org.uk/resources/resource-series/fit-for-frailty",
	"https://www.alz.org/professionals/care-providers",
}

// Scorer rates links by the vocabulary terms their URL contains.
type Scorer struct {
	vocab map[string]int
}

// NewScorer returns a Scorer over DefaultVocabulary with overrides applied.
// An override weight of 0 removes a term.
func NewScorer(overrides map[string]int) *Scorer {
	vocab := make(map[string]int, len(DefaultVocabulary)+len(overrides))
	for term, w := range DefaultVocabulary {
		vocab[term] = w
	}
	for term, w := range overrides {
		term = strings.ToLower(term)
		if w == 0 {
			delete(vocab, term)
			continue
		}
		vocab[term] = w
	}
	return &Scorer{vocab: vocab}
}

// Score returns the sum of the weights of every vocabulary term contained
// in the lower-cased URL, plus pdfBonus when it ends in ".pdf". Any blocked
// term makes the score 0.
func (s *Scorer) Score(rawURL string) int {
	lower := strings.ToLower(rawURL)
	for _, bad := range blockedTerms {
		if strings.Contains(lower, bad) {
			return 0
		}
	}
	score := 0
	for term, w := range s.vocab {
		if strings.Contains(lower, term) {
			score += w
		}
	}
	if strings.HasSuffix(lower, ".pdf") {
		score += pdfBonus
	}
	return score
}

var defaultScorer = NewScorer(nil)

// ScoreLink scores rawURL against DefaultVocabulary.
func ScoreLink(rawURL string) int {
	return defaultScorer.Score(rawURL)
}

// LoadVocabulary reads a YAML mapping of term to weight.
func LoadVocabulary(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	var vocab map[string]int
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("parsing vocabulary %s: %w", path, err)
	}
	return vocab, nil
}

// Trusted reports whether rawURL is an http(s) URL whose host contains one
// of domains.
func Trusted(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}
