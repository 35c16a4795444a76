// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/carekg/pkg/types"
)

// QueryOptions holds parameters for graph queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over node text.
	Query string

	// Label filters by node label (e.g. "CareTask").
	Label string

	// Source filters by record source (heuristic, fallback, pattern).
	Source types.RecordSource

	// Topic filters KnowledgeChunk nodes by topic.
	Topic string

	// DocumentID filters by source document.
	DocumentID string

	// MaxResults limits result count. Zero uses store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Label == "" && q.Source == "" && q.Topic == "" && q.DocumentID == ""
}

// QueryResult is a Node with the URL of its source document.
type QueryResult struct {
	Node        `yaml:",inline"`
	DocumentURL string `json:"document_url,omitempty" yaml:"document_url,omitempty"`
}

const nodeColumns = `n.id, n.label, n.category, n.source, n.detector, n.document_id,
	n.text, n.topic, n.properties, n.match_start, n.match_end, n.window_start, n.window_end`

// Retrieve queries the graph with optional full-text search and structured
// filters. Full-text results are ranked by relevance; filter-only results
// are ordered by document and record position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(`SELECT ` + nodeColumns + `, d.url
			FROM nodes_fts
			JOIN nodes n ON n.rowid = nodes_fts.rowid
			LEFT JOIN documents d ON n.document_id = d.id
			WHERE nodes_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + nodeColumns + `, d.url
			FROM nodes n
			LEFT JOIN documents d ON n.document_id = d.id
			WHERE 1=1`)
	}

	if opts.Label != "" {
		qb.WriteString(` AND n.label = ?`)
		args = append(args, opts.Label)
	}
	if opts.Source != "" {
		qb.WriteString(` AND n.source = ?`)
		args = append(args, string(opts.Source))
	}
	if opts.Topic != "" {
		qb.WriteString(` AND n.topic = ?`)
		args = append(args, opts.Topic)
	}
	if opts.DocumentID != "" {
		qb.WriteString(` AND n.document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY nodes_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY n.document_id, n.ordinal`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying graph: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr  QueryResult
			url sql.NullString
		)
		if err := scanNode(rows, &qr.Node, &url); err != nil {
			return nil, err
		}
		qr.DocumentURL = url.String
		results = append(results, qr)
	}

	return results, rows.Err()
}

// GetNode returns the node with the given ID.
func (s *Store) GetNode(ctx context.Context, id string) (*Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes n WHERE n.id = ?`, id)
	var n Node
	if err := scanNode(row, &n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("node %s not found", id)
		}
		return nil, err
	}
	return &n, nil
}

// Neighbor is one edge incident to a node, seen from that node. Node is the
// entry at the other end, nil when that end is a document.
type Neighbor struct {
	Edge     Edge   `json:"edge" yaml:"edge"`
	Outgoing bool   `json:"outgoing" yaml:"outgoing"`
	Node     *Node  `json:"node,omitempty" yaml:"node,omitempty"`
	Document string `json:"document,omitempty" yaml:"document,omitempty"`
}

// Neighbors lists the edges of the node with the given ID, outgoing edges
// first, each group ordered by edge type and far-end ID.
func (s *Store) Neighbors(ctx context.Context, id string) ([]Neighbor, error) {
	if _, err := s.GetNode(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT src, dst, type, 1 AS outgoing FROM edges WHERE src = ?
		 UNION ALL
		 SELECT src, dst, type, 0 AS outgoing FROM edges WHERE dst = ?
		 ORDER BY outgoing DESC, type, src, dst`, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}

	var neighbors []Neighbor
	for rows.Next() {
		var (
			nb       Neighbor
			edgeType string
		)
		if err := rows.Scan(&nb.Edge.Src, &nb.Edge.Dst, &edgeType, &nb.Outgoing); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		nb.Edge.Type = EdgeType(edgeType)
		neighbors = append(neighbors, nb)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range neighbors {
		nb := &neighbors[i]
		far := nb.Edge.Dst
		if !nb.Outgoing {
			far = nb.Edge.Src
		}
		if nb.Edge.Type == EdgeExtractedFrom && nb.Outgoing {
			nb.Document = far
			continue
		}
		n, err := s.GetNode(ctx, far)
		if err != nil {
			return nil, err
		}
		nb.Node = n
	}
	return neighbors, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNode reads nodeColumns, plus any extra destinations, into n.
func scanNode(sc scanner, n *Node, extra ...any) error {
	var (
		category, source string
		detector, topic  sql.NullString
		props            sql.NullString
		ms, me, ws, we   sql.NullInt64
	)
	dest := append([]any{
		&n.ID, &n.Label, &category, &source, &detector, &n.DocumentID,
		&n.Text, &topic, &props, &ms, &me, &ws, &we,
	}, extra...)
	if err := sc.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scanning node: %w", err)
	}

	n.Category = types.Category(category)
	n.Source = types.RecordSource(source)
	n.Detector = detector.String
	n.Topic = topic.String
	if props.Valid {
		json.Unmarshal([]byte(props.String), &n.Properties)
	}
	if ms.Valid {
		n.Span = &types.Span{
			MatchStart:  int(ms.Int64),
			MatchEnd:    int(me.Int64),
			WindowStart: int(ws.Int64),
			WindowEnd:   int(we.Int64),
		}
	}
	return nil
}
