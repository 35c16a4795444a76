//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups the stage targets that drive the built carekg binary.
type Pipeline mg.Namespace

func carekg(args ...string) error {
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Crawl fetches guideline pages from the default trusted sources into pages/.
func (Pipeline) Crawl() error {
	mg.Deps(Init, Build)
	fmt.Println("[crawl] Fetch guideline pages from trusted geriatric care sources.")
	return carekg("crawl")
}

// Clean reduces crawled pages to relevant plain text in pages/text/.
func (Pipeline) Clean() error {
	mg.Deps(Init, Build)
	fmt.Println("[clean] Reduce crawled pages to relevant plain text.")
	return carekg("clean")
}

// Extract runs the extraction engine over pages/text/ into knowledge/extracted/.
func (Pipeline) Extract() error {
	mg.Deps(Init, Build)
	fmt.Println("[extract] Extract care tasks, scoring rules, alerts, and questions.")
	return carekg("extract")
}

// Graph loads extraction records into the SQLite knowledge graph.
func (Pipeline) Graph() error {
	mg.Deps(Init, Build)
	fmt.Println("[graph] Store extraction records in the knowledge graph.")
	return carekg("graph", "store")
}

// All runs every stage in order.
func (p Pipeline) All() {
	mg.SerialDeps(p.Crawl, p.Clean, p.Extract, p.Graph)
}
