// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean turns crawled pages into plain text for extraction.
// HTML is reduced to the text of its main content region; PDFs go through
// a PDFExtractor backend and keep only titles, list items and paragraphs.
// Pages whose text does not mention enough clinical terms are set aside.
//
// Cleaning failures never propagate: they are logged and yield "".
package clean

import (
	"context"
	"log/slog"
)

// Cleaner cleans pages. PDF may be nil, in which case PDF pages clean to "".
type Cleaner struct {
	PDF PDFExtractor
	Log *slog.Logger
}

// New returns a Cleaner using pdf for PDF pages and logger for failures.
// A nil logger uses slog.Default().
func New(pdf PDFExtractor, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{PDF: pdf, Log: logger}
}

// CleanHTML returns the readable text of markup. See CleanHTML.
func (c *Cleaner) CleanHTML(markup string) string {
	return CleanHTML(markup)
}

// CleanPDF returns the titles, list items and narrative paragraphs of the
// PDF at path, one per line. Returns "" when no extractor is configured or
// extraction fails; the failure is logged.
func (c *Cleaner) CleanPDF(ctx context.Context, path string) string {
	if c.PDF == nil {
		c.logger().Warn("no pdf extractor configured", "path", path)
		return ""
	}
	md, err := c.PDF.Extract(ctx, path)
	if err != nil {
		c.logger().Error("pdf extraction failed", "path", path, "err", err)
		return ""
	}
	return keepMarkdown(md)
}

func (c *Cleaner) logger() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}
