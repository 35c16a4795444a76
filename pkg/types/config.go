package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "carekg/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on 429 and 503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CrawlConfig holds settings for the crawl stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// AllowedDomains is the trusted domain allow list. Empty uses the
	// built-in list of guideline publishers.
	AllowedDomains []string `json:"allowed_domains" yaml:"allowed_domains"`

	// StartURLs seeds the frontier. Empty uses the built-in entry points.
	StartURLs []string `json:"start_urls" yaml:"start_urls"`

	// VocabularyFile is an optional YAML file of term -> weight overrides
	// merged into the built-in link vocabulary.
	VocabularyFile string `json:"vocabulary_file,omitempty" yaml:"vocabulary_file,omitempty"`

	// MaxDepth bounds how many links are followed from a start URL (default 3).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxPages bounds the number of pages fetched per run (default 200).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// FetchDelay is the delay between consecutive fetches (default 1s;
	// negative disables it).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`

	// PagesDir is the base directory for pages (contains raw/, metadata/, text/).
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`
}

// CleanConfig holds settings for the cleaning stage.
type CleanConfig struct {
	// PagesDir is the base directory for pages (contains raw/, metadata/, text/).
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// PDFImage is the container image used to turn PDFs into text
	// (default "markitdown:latest").
	PDFImage string `json:"pdf_image" yaml:"pdf_image"`

	// KeepIrrelevant writes text for pages that fail the relevance test.
	KeepIrrelevant bool `json:"keep_irrelevant" yaml:"keep_irrelevant"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// PagesDir is the base directory for pages (contains text/, metadata/).
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// KnowledgeDir is the base directory for knowledge output (contains extracted/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// Workers bounds concurrent documents (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// Force re-extracts documents whose output is already up to date.
	Force bool `json:"force" yaml:"force"`
}

// GraphConfig holds settings for the graph store stage.
type GraphConfig struct {
	// KnowledgeDir is the base directory for knowledge (contains extracted/, index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LogConfig controls the structured logger used by the CLI.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// File, when set, sends JSON logs to a rotating file instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// MaxSizeMB is the size at which the log file rotates (default 10).
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept (default 3).
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Crawl      CrawlConfig      `json:"crawl" yaml:"crawl"`
	Clean      CleanConfig      `json:"clean" yaml:"clean"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Graph      GraphConfig      `json:"graph" yaml:"graph"`
	Log        LogConfig        `json:"log" yaml:"log"`
}
