// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the carekg pipeline:
// crawled Page records, ExtractionRecord nodes emitted by the extraction
// engine, and the per-stage configuration structs.
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types
