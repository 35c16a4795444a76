// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Export is the serialised graph: documents, nodes and the edges between
// the exported nodes.
type Export struct {
	Documents []Document    `json:"documents" yaml:"documents"`
	Nodes     []QueryResult `json:"nodes" yaml:"nodes"`
	Edges     []Edge        `json:"edges" yaml:"edges"`
}

const exportLimit = 1000000

// ExportYAML writes the graph to knowledge/index/export.yaml. It supports
// the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	export, err := s.Export(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.knowledgeDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the graph to knowledge/index/export.json. It supports
// the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	export, err := s.Export(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.knowledgeDir, indexDir, "export.json")
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Export collects the nodes matching opts, the documents they come from and
// every edge whose ends are both exported (or whose target is an exported
// document).
func (s *Store) Export(ctx context.Context, opts QueryOptions) (*Export, error) {
	opts.MaxResults = exportLimit
	nodes, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	export := &Export{Nodes: nodes}
	inExport := make(map[string]bool, len(nodes))
	docSeen := make(map[string]bool)
	var docIDs []string
	for _, n := range nodes {
		inExport[n.ID] = true
		if !docSeen[n.DocumentID] {
			docSeen[n.DocumentID] = true
			docIDs = append(docIDs, n.DocumentID)
		}
	}

	for _, id := range docIDs {
		var doc Document
		var url, domain, ctype, fetched *string
		err := s.db.QueryRowContext(ctx,
			`SELECT id, url, domain, content_type, fetched_at FROM documents WHERE id = ?`, id,
		).Scan(&doc.ID, &url, &domain, &ctype, &fetched)
		if err != nil {
			return nil, fmt.Errorf("loading document %s: %w", id, err)
		}
		doc.URL, doc.Domain, doc.ContentType, doc.FetchedAt = deref(url), deref(domain), deref(ctype), deref(fetched)
		export.Documents = append(export.Documents, doc)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.src, e.dst, e.type FROM edges e
		 JOIN nodes n ON n.id = e.src
		 ORDER BY n.document_id, n.ordinal, e.type, e.dst`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e        Edge
			edgeType string
		)
		if err := rows.Scan(&e.Src, &e.Dst, &edgeType); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Type = EdgeType(edgeType)
		if inExport[e.Src] && (inExport[e.Dst] || docSeen[e.Dst]) {
			export.Edges = append(export.Edges, e)
		}
	}

	return export, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
