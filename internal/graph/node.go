// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"strings"

	"github.com/pdiddy/carekg/pkg/types"
)

// EdgeType names a relation between two graph entries.
type EdgeType string

const (
	// EdgeExtractedFrom links every node to the document it came from.
	EdgeExtractedFrom EdgeType = "EXTRACTED_FROM"
	EdgeAssesses      EdgeType = "ASSESSES"
	EdgeConstrains    EdgeType = "CONSTRAINS"
	EdgeMonitors      EdgeType = "MONITORS"
	EdgeScreensFor    EdgeType = "SCREENS_FOR"
)

// relationRules connect nodes of one document by label.
var relationRules = []struct {
	from, to string
	edge     EdgeType
}{
	{types.LabelScoringRule, types.LabelCareTask, EdgeAssesses},
	{types.LabelMedicationRule, types.LabelCareTask, EdgeConstrains},
	{types.LabelObservationTask, types.LabelCareTask, EdgeMonitors},
	{types.LabelAssessmentQuestion, types.LabelScoringRule, EdgeScreensFor},
}

// Node is one stored extraction record.
type Node struct {
	ID         string             `json:"id" yaml:"id"`
	Label      string             `json:"label" yaml:"label"`
	Category   types.Category     `json:"category" yaml:"category"`
	Source     types.RecordSource `json:"source" yaml:"source"`
	Detector   string             `json:"detector,omitempty" yaml:"detector,omitempty"`
	DocumentID string             `json:"document_id" yaml:"document_id"`
	Text       string             `json:"text" yaml:"text"`
	Topic      string             `json:"topic,omitempty" yaml:"topic,omitempty"`
	Properties map[string]string  `json:"properties" yaml:"properties"`
	Span       *types.Span        `json:"span,omitempty" yaml:"span,omitempty"`
}

// Edge is a directed relation. Dst is a node ID, or a document ID for
// EXTRACTED_FROM edges.
type Edge struct {
	Src  string   `json:"src" yaml:"src"`
	Dst  string   `json:"dst" yaml:"dst"`
	Type EdgeType `json:"type" yaml:"type"`
}

// textKeys lists, in preference order, the property that best describes a
// node. The first non-empty one becomes the node's searchable text.
var textKeys = []string{
	"full_text", "instruction", "trigger", "question", "source_text",
	"context", "matched_text", "logic", "description",
}

func newNode(docID string, ordinal int, rec types.ExtractionRecord) Node {
	return Node{
		ID:         stableID(docID, rec.Node.Label, ordinal, rec.Node.Properties),
		Label:      rec.Node.Label,
		Category:   rec.Category,
		Source:     rec.Source,
		Detector:   rec.Detector,
		DocumentID: docID,
		Text:       nodeText(rec.Node.Properties),
		Topic:      rec.Node.Properties["topic"],
		Properties: rec.Node.Properties,
		Span:       rec.Span,
	}
}

func nodeText(props map[string]string) string {
	for _, k := range textKeys {
		if v := strings.TrimSpace(props[k]); v != "" {
			return v
		}
	}
	var parts []string
	for _, k := range sortedKeys(props) {
		if v := strings.TrimSpace(props[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// buildEdges returns the provenance edge of every node followed by the
// relation edges between nodes of the document, in node order.
func buildEdges(docID string, nodes []Node) []Edge {
	edges := make([]Edge, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, Edge{Src: n.ID, Dst: docID, Type: EdgeExtractedFrom})
	}

	byLabel := make(map[string][]string)
	for _, n := range nodes {
		byLabel[n.Label] = append(byLabel[n.Label], n.ID)
	}
	for _, rule := range relationRules {
		for _, src := range byLabel[rule.from] {
			for _, dst := range byLabel[rule.to] {
				edges = append(edges, Edge{Src: src, Dst: dst, Type: rule.edge})
			}
		}
	}
	return edges
}
