// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph stores extraction records as a property graph in SQLite.
// Each record becomes a node with a stable ID; the store adds the edges
// (provenance and clinical relations) that the extraction engine never
// emits. Node text is indexed with FTS5 for retrieval.
//
// See docs/ARCHITECTURE § Graph Sink.
package graph

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/carekg/pkg/types"
)

const (
	extractedDir = "extracted"
	indexDir     = "index"
	metadataDir  = "metadata"
	dbFile       = "graph.db"

	// recordsSuffix matches extract.RecordsSuffix.
	recordsSuffix = "-records.yaml"

	defaultMaxResults = 20
)

// Store manages the graph SQLite database.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	pagesDir     string
	maxResults   int
}

// NewStore opens or creates the graph database at
// knowledgeDir/index/graph.db and creates the schema if it does not exist.
// pagesDir is read for document metadata during ingest.
func NewStore(cfg types.GraphConfig, pagesDir string) (*Store, error) {
	dbDir := filepath.Join(cfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:           db,
		knowledgeDir: cfg.KnowledgeDir,
		pagesDir:     pagesDir,
		maxResults:   maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			url TEXT,
			domain TEXT,
			content_type TEXT,
			fetched_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL,
			category TEXT NOT NULL,
			source TEXT NOT NULL,
			detector TEXT,
			document_id TEXT NOT NULL REFERENCES documents(id),
			ordinal INTEGER NOT NULL,
			text TEXT NOT NULL,
			topic TEXT,
			properties TEXT,
			match_start INTEGER,
			match_end INTEGER,
			window_start INTEGER,
			window_end INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_document_id ON nodes(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label)`,
		`CREATE TABLE IF NOT EXISTS edges (
			src TEXT NOT NULL,
			dst TEXT NOT NULL,
			type TEXT NOT NULL,
			document_id TEXT NOT NULL REFERENCES documents(id),
			PRIMARY KEY (src, dst, type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_document_id ON edges(document_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			document_id TEXT PRIMARY KEY,
			file_mod_time TEXT,
			run_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			indexed INTEGER,
			updated INTEGER,
			skipped INTEGER,
			failed INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='nodes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE nodes_fts USING fts5(text, content=nodes, content_rowid=rowid)`,
			`CREATE TRIGGER nodes_ai AFTER INSERT ON nodes BEGIN
				INSERT INTO nodes_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER nodes_ad AFTER DELETE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER nodes_au AFTER UPDATE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO nodes_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a graph ingest run.
type IngestSummary struct {
	RunID   string
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s IngestSummary) HasFailures() bool {
	return s.Failed > 0
}

// Ingest reads extraction results from knowledgeDir/extracted/ and loads
// them into the graph. Files whose modification time matches the last
// ingest are skipped; changed files replace the document's nodes and edges
// in one transaction. Each run is recorded in ingest_runs. When anything
// changed, export.yaml is rewritten.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	extractDir := filepath.Join(s.knowledgeDir, extractedDir)
	metaDir := filepath.Join(s.pagesDir, metadataDir)

	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading extraction directory %s: %w", extractDir, err)
	}

	summary := IngestSummary{RunID: ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()}
	started := time.Now().UTC().Format(time.RFC3339Nano)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordsSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), recordsSuffix)
		filePath := filepath.Join(extractDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE document_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		var result types.ExtractionResult
		if err := yaml.Unmarshal(data, &result); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", docID, err)
			summary.Failed++
			continue
		}
		result.DocumentID = docID

		page := loadPage(metaDir, docID)

		nodes, edges, err := s.ingestDocument(ctx, &result, page, modTime, summary.RunID)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d nodes, %d edges)\n", docID, nodes, edges)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d nodes, %d edges)\n", docID, nodes, edges)
			summary.Indexed++
		}
	}

	if err := s.recordRun(ctx, summary, started); err != nil {
		fmt.Fprintf(w, "warning: recording run %s failed: %v\n", summary.RunID, err)
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) recordRun(ctx context.Context, summary IngestSummary, started string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, started_at, finished_at, indexed, updated, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, started, time.Now().UTC().Format(time.RFC3339Nano),
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed,
	)
	return err
}

// ingestDocument replaces one document's nodes and edges. It returns the
// number of nodes and edges written.
func (s *Store) ingestDocument(ctx context.Context, result *types.ExtractionResult, page *types.Page, modTime, runID string) (int, int, error) {
	docID := result.DocumentID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE document_id = ?`, docID); err != nil {
		return 0, 0, fmt.Errorf("deleting old edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE document_id = ?`, docID); err != nil {
		return 0, 0, fmt.Errorf("deleting old nodes: %w", err)
	}

	doc := documentRow(result, page)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, url, domain, content_type, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			url=excluded.url, domain=excluded.domain,
			content_type=excluded.content_type, fetched_at=excluded.fetched_at`,
		doc.ID, doc.URL, doc.Domain, doc.ContentType, doc.FetchedAt,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("upserting document: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO nodes (id, label, category, source, detector, document_id, ordinal,
			text, topic, properties, match_start, match_end, window_start, window_end)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	nodes := make([]Node, len(result.Records))
	for i, rec := range result.Records {
		n := newNode(docID, i, rec)
		nodes[i] = n

		props, _ := json.Marshal(n.Properties)
		var ms, me, ws, we sql.NullInt64
		if n.Span != nil {
			ms = sql.NullInt64{Int64: int64(n.Span.MatchStart), Valid: true}
			me = sql.NullInt64{Int64: int64(n.Span.MatchEnd), Valid: true}
			ws = sql.NullInt64{Int64: int64(n.Span.WindowStart), Valid: true}
			we = sql.NullInt64{Int64: int64(n.Span.WindowEnd), Valid: true}
		}
		_, err := nodeStmt.ExecContext(ctx,
			n.ID, n.Label, string(n.Category), string(n.Source), n.Detector, docID, i,
			n.Text, n.Topic, string(props), ms, me, ws, we,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO edges (src, dst, type, document_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	edges := buildEdges(docID, nodes)
	for _, e := range edges {
		if _, err := edgeStmt.ExecContext(ctx, e.Src, e.Dst, string(e.Type), docID); err != nil {
			return 0, 0, fmt.Errorf("inserting edge %s-%s->%s: %w", e.Src, e.Type, e.Dst, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (document_id, file_mod_time, run_id) VALUES (?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET file_mod_time=excluded.file_mod_time, run_id=excluded.run_id`,
		docID, modTime, runID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("updating indexing status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return len(nodes), len(edges), nil
}

// Document is a source document in the graph.
type Document struct {
	ID          string `json:"id" yaml:"id"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Domain      string `json:"domain,omitempty" yaml:"domain,omitempty"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	FetchedAt   string `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
}

func documentRow(result *types.ExtractionResult, page *types.Page) Document {
	doc := Document{ID: result.DocumentID, URL: result.SourceURL}
	if page == nil {
		return doc
	}
	if doc.URL == "" {
		doc.URL = page.URL
	}
	doc.Domain = page.Domain
	doc.ContentType = string(page.ContentType)
	if !page.FetchedAt.IsZero() {
		doc.FetchedAt = page.FetchedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// loadPage reads page metadata from metaDir/<docID>.yaml. Returns nil if
// the file does not exist or cannot be parsed.
func loadPage(metaDir, docID string) *types.Page {
	data, err := os.ReadFile(filepath.Join(metaDir, docID+".yaml"))
	if err != nil {
		return nil
	}
	var page types.Page
	if err := yaml.Unmarshal(data, &page); err != nil {
		return nil
	}
	return &page
}

// stableID returns the first 12 hex characters of a SHA-256 over the
// document, label, record ordinal and sorted properties.
func stableID(docID, label string, ordinal int, props map[string]string) string {
	h := sha256.New()
	h.Write([]byte(docID))
	h.Write([]byte{0})
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(ordinal)))
	for _, k := range sortedKeys(props) {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(props[k]))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
