// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ContentType distinguishes the raw formats the crawler stores.
type ContentType string

const (
	ContentHTML ContentType = "html"
	ContentPDF  ContentType = "pdf"
)

// CleanStatus records what the cleaning stage did with a page.
type CleanStatus string

const (
	CleanNone       CleanStatus = "none"
	CleanDone       CleanStatus = "cleaned"
	CleanIrrelevant CleanStatus = "irrelevant"
	CleanFailed     CleanStatus = "failed"
)

// Page is the crawler's record of one fetched guideline page or PDF.
type Page struct {
	// ID is a slug derived from the URL host and path.
	ID string `json:"id" yaml:"id"`

	// URL is the absolute URL the content was fetched from.
	URL string `json:"url" yaml:"url"`

	// Domain is the URL host.
	Domain string `json:"domain" yaml:"domain"`

	// Depth is the number of links followed from a start URL.
	Depth int `json:"depth" yaml:"depth"`

	// Score is the link score that put the page on the frontier. Start URLs
	// carry 0.
	Score int `json:"score" yaml:"score"`

	ContentType ContentType `json:"content_type" yaml:"content_type"`

	// RawPath is the stored raw content, relative to the pages directory
	// (e.g. "raw/<id>.html").
	RawPath string `json:"raw_path" yaml:"raw_path"`

	// CrawlID identifies the crawl run that fetched the page.
	CrawlID string `json:"crawl_id,omitempty" yaml:"crawl_id,omitempty"`

	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	CleanStatus CleanStatus `json:"clean_status" yaml:"clean_status"`
}
