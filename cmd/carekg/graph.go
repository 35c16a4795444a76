// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/carekg/internal/graph"
	"github.com/pdiddy/carekg/pkg/types"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage the knowledge graph (store, retrieve, neighbors, export)",
	Long: `Graph manages a local SQLite property graph built from extraction
records. Use subcommands to load records, query nodes, walk edges, or
export the graph.`,
}

// --- store subcommand ---

var graphStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Load extraction records into the graph",
	Long: `Store reads records files from knowledge/extracted/, turns each record
into a node, adds provenance and clinical relation edges, and writes an
export file. Unchanged documents are skipped on subsequent runs.`,
	RunE: runGraphStore,
}

func runGraphStore(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var graphRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query nodes with full-text search and filters",
	Long: `Retrieve searches node text using FTS5 full-text search, structured
filters (label, source, topic, document), or a combination of both.`,
	RunE: runGraphRetrieve,
}

func runGraphRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --label, --source, --topic, or --document")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []graph.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-12s  %-18s  %-9s  %-50s  %s\n",
		"Rank", "ID", "Label", "Source", "Text", "Document")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-18s  %-9s  %-50s  %s\n",
			i+1, r.ID, r.Label, r.Source, truncate(r.Text, 50), truncate(r.DocumentID, 20))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- neighbors subcommand ---

var graphNeighborsCmd = &cobra.Command{
	Use:   "neighbors <node-id>",
	Short: "List the edges of a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphNeighbors,
}

func runGraphNeighbors(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	neighbors, err := store.Neighbors(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(neighbors)
	}

	for _, nb := range neighbors {
		arrow := "->"
		if !nb.Outgoing {
			arrow = "<-"
		}
		switch {
		case nb.Node != nil:
			fmt.Printf("%s %-15s %s  %-18s  %s\n", arrow, nb.Edge.Type, nb.Node.ID, nb.Node.Label, truncate(nb.Node.Text, 60))
		default:
			fmt.Printf("%s %-15s document %s\n", arrow, nb.Edge.Type, nb.Document)
		}
	}
	fmt.Printf("\n%d edges\n", len(neighbors))
	return nil
}

// --- export subcommand ---

var graphExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph to YAML or JSON",
	Long: `Export writes the full graph (or the part selected by the filter
flags) to knowledge/index/export.yaml or export.json.`,
	RunE: runGraphExport,
}

func runGraphExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to knowledge/index/export.yaml")
	case "json":
		if err := store.ExportJSON(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to knowledge/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore() (*graph.Store, error) {
	cfg := types.GraphConfig{
		KnowledgeDir: stringSetting("knowledge-dir"),
		MaxResults:   intSetting("max-results"),
	}
	return graph.NewStore(cfg, stringSetting("pages-dir"))
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) graph.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	label, _ := cmd.Flags().GetString("label")
	source, _ := cmd.Flags().GetString("source")
	topic, _ := cmd.Flags().GetString("topic")
	document, _ := cmd.Flags().GetString("document")
	limit, _ := cmd.Flags().GetInt("limit")

	return graph.QueryOptions{
		Query:      queryText,
		Label:      label,
		Source:     types.RecordSource(source),
		Topic:      topic,
		DocumentID: document,
		MaxResults: limit,
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "full-text search query")
	cmd.Flags().String("label", "", "filter by node label, e.g. CareTask or ScoringRule")
	cmd.Flags().String("source", "", "filter by record source: heuristic, fallback, pattern")
	cmd.Flags().String("topic", "", "filter knowledge chunks by topic")
	cmd.Flags().String("document", "", "filter by document ID")
	cmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	graphCmd.PersistentFlags().String("knowledge-dir", "knowledge", "base directory for knowledge (contains extracted/, index/)")
	graphCmd.PersistentFlags().String("pages-dir", "pages", "base directory for pages (contains metadata/)")
	graphCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	addFilterFlags(graphRetrieveCmd)
	graphRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	graphNeighborsCmd.Flags().Bool("json", false, "output edges as JSON")

	addFilterFlags(graphExportCmd)
	graphExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	graphCmd.AddCommand(graphStoreCmd)
	graphCmd.AddCommand(graphRetrieveCmd)
	graphCmd.AddCommand(graphNeighborsCmd)
	graphCmd.AddCommand(graphExportCmd)

	rootCmd.AddCommand(graphCmd)
}
