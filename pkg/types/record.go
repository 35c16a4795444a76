// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category is the closed set of extraction kinds. Each category maps to
// exactly one node label; see Label.
type Category string

const (
	CategoryScoringRule        Category = "scoring_rule"
	CategoryMedicationRule     Category = "medication_rule"
	CategoryCareTask           Category = "care_task"
	CategoryEnvironmentAction  Category = "environment_action"
	CategoryObservationTask    Category = "observation_task"
	CategoryAssessmentQuestion Category = "assessment_question"
	CategoryKnowledgeChunk     Category = "knowledge_chunk"
	CategoryAssessmentLogic    Category = "assessment_logic"
	CategoryMedicationSafety   Category = "medication_safety"
)

// Node labels written into Node.Label.
const (
	LabelScoringRule        = "ScoringRule"
	LabelMedicationRule     = "MedicationRule"
	LabelCareTask           = "CareTask"
	LabelEnvironmentAction  = "EnvironmentAction"
	LabelObservationTask    = "ObservationTask"
	LabelAssessmentQuestion = "AssessmentQuestion"
	LabelKnowledgeChunk     = "KnowledgeChunk"
	LabelAssessmentLogic    = "AssessmentLogic"
	LabelMedicationSafety   = "MedicationSafety"
)

var categoryLabels = map[Category]string{
	CategoryScoringRule:        LabelScoringRule,
	CategoryMedicationRule:     LabelMedicationRule,
	CategoryCareTask:           LabelCareTask,
	CategoryEnvironmentAction:  LabelEnvironmentAction,
	CategoryObservationTask:    LabelObservationTask,
	CategoryAssessmentQuestion: LabelAssessmentQuestion,
	CategoryKnowledgeChunk:     LabelKnowledgeChunk,
	CategoryAssessmentLogic:    LabelAssessmentLogic,
	CategoryMedicationSafety:   LabelMedicationSafety,
}

// Label returns the canonical node label for the category, or "" for an
// unknown category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Categories returns every declared category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryScoringRule,
		CategoryMedicationRule,
		CategoryCareTask,
		CategoryEnvironmentAction,
		CategoryObservationTask,
		CategoryAssessmentQuestion,
		CategoryKnowledgeChunk,
		CategoryAssessmentLogic,
		CategoryMedicationSafety,
	}
}

// RecordSource identifies which extraction layer produced a record.
type RecordSource string

const (
	SourceHeuristic RecordSource = "heuristic"
	SourceFallback  RecordSource = "fallback"
	SourcePattern   RecordSource = "pattern"
)

// Node is a labeled property bag describing one graph entity candidate.
type Node struct {
	Label      string            `json:"label" yaml:"label"`
	Properties map[string]string `json:"properties" yaml:"properties"`
}

// Span locates a pattern match and its context window in the source text.
// Offsets are byte offsets into the text the engine was given and always
// satisfy 0 <= WindowStart <= MatchStart <= MatchEnd <= WindowEnd <= len(text).
type Span struct {
	MatchStart  int `json:"match_start" yaml:"match_start"`
	MatchEnd    int `json:"match_end" yaml:"match_end"`
	WindowStart int `json:"window_start" yaml:"window_start"`
	WindowEnd   int `json:"window_end" yaml:"window_end"`
}

// ExtractionRecord is one typed output unit produced for a document.
type ExtractionRecord struct {
	Category Category     `json:"category" yaml:"category"`
	Source   RecordSource `json:"source" yaml:"source"`

	// Detector names the rule that fired (e.g. "adl", "pattern:care_task").
	Detector string `json:"detector" yaml:"detector"`

	Node Node  `json:"node" yaml:"node"`
	Span *Span `json:"span,omitempty" yaml:"span,omitempty"`
}

// ExtractionResult holds the records extracted from a single document.
type ExtractionResult struct {
	// DocumentID matches the Page ID assigned by the crawler.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// SourceURL is copied from page metadata when it is available.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	Records []ExtractionRecord `json:"records" yaml:"records"`

	// Counts holds the number of records per category.
	Counts map[Category]int `json:"counts" yaml:"counts"`
}
