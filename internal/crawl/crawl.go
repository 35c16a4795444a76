// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl fetches guideline pages and PDFs from trusted publishers.
// Links are followed best-first: every discovered URL is scored by the
// clinical terms it contains and the highest-scoring URL is fetched next.
// Each stored page gets a raw file under pages/raw/ and a metadata record
// under pages/metadata/.
package crawl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/carekg/internal/httputil"
	"github.com/pdiddy/carekg/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"

	defaultMaxDepth   = 3
	defaultMaxPages   = 200
	defaultFetchDelay = time.Second
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "carekg/0.1"

	// maxBodyBytes caps a single download.
	maxBodyBytes = 32 << 20

	slugLimit = 60
)

// Summary holds counts from a crawl run.
type Summary struct {
	CrawlID string
	Stored  int
	Skipped int
	Failed  int
}

// Total returns the number of pages fetched.
func (s Summary) Total() int {
	return s.Stored + s.Skipped + s.Failed
}

// HasFailures reports whether any fetch failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Crawler runs best-first crawls over the configured domains.
type Crawler struct {
	cfg    types.CrawlConfig
	client *http.Client
	scorer *Scorer
}

// New returns a Crawler for cfg. Zero config values take package defaults.
// A nil client gets one with cfg.Timeout. The vocabulary file, when set, is
// merged into the default link vocabulary.
func New(cfg types.CrawlConfig, client *http.Client) (*Crawler, error) {
	if len(cfg.AllowedDomains) == 0 {
		cfg.AllowedDomains = DefaultAllowedDomains
	}
	if len(cfg.StartURLs) == 0 {
		cfg.StartURLs = DefaultStartURLs
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.FetchDelay < 0 {
		cfg.FetchDelay = 0
	} else if cfg.FetchDelay == 0 {
		cfg.FetchDelay = defaultFetchDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var overrides map[string]int
	if cfg.VocabularyFile != "" {
		v, err := LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, err
		}
		overrides = v
	}

	return &Crawler{cfg: cfg, client: client, scorer: NewScorer(overrides)}, nil
}

// Run crawls from the start URLs until the frontier is empty, MaxPages
// pages have been fetched, or ctx is cancelled. Start URLs enter at depth 0
// with score 0; links are queued only from pages above MaxDepth, only when
// trusted and only with a positive score. Pages already on disk are
// fetched for their links but not rewritten.
func (c *Crawler) Run(ctx context.Context, w io.Writer) (Summary, error) {
	for _, dir := range []string{
		filepath.Join(c.cfg.PagesDir, rawDir),
		filepath.Join(c.cfg.PagesDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	summary := Summary{CrawlID: ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()}
	fmt.Fprintf(w, "crawl %s: %d start URLs, %d domains\n",
		summary.CrawlID, len(c.cfg.StartURLs), len(c.cfg.AllowedDomains))

	frontier := NewFrontier()
	for _, u := range c.cfg.StartURLs {
		frontier.Push(u, 0, 0)
	}

	for fetched := 0; fetched < c.cfg.MaxPages; fetched++ {
		t, ok := frontier.Pop()
		if !ok {
			break
		}
		if fetched > 0 && c.cfg.FetchDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(c.cfg.FetchDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		page, links, err := c.fetch(ctx, t, summary.CrawlID)
		switch {
		case err != nil:
			summary.Failed++
			fmt.Fprintf(w, "failed  %s: %v\n", t.URL, err)
		case page == nil:
			summary.Skipped++
			fmt.Fprintf(w, "no content %s\n", t.URL)
		default:
			stored, err := c.store(page)
			switch {
			case err != nil:
				summary.Failed++
				fmt.Fprintf(w, "failed  %s: %v\n", t.URL, err)
			case stored:
				summary.Stored++
				fmt.Fprintf(w, "stored  %s (depth %d, score %d)\n", page.ID, t.Depth, t.Score)
			default:
				summary.Skipped++
				fmt.Fprintf(w, "skipped %s (already exists)\n", page.ID)
			}
		}

		if t.Depth >= c.cfg.MaxDepth {
			continue
		}
		for _, link := range links {
			if !Trusted(link, c.cfg.AllowedDomains) {
				continue
			}
			if score := c.scorer.Score(link); score > 0 {
				frontier.Push(link, t.Depth+1, score)
			}
		}
	}

	fmt.Fprintf(w, "\nstored: %d, skipped: %d, failed: %d, queued: %d\n",
		summary.Stored, summary.Skipped, summary.Failed, frontier.Len())
	return summary, nil
}

// fetchedPage is a page ready to store.
type fetchedPage struct {
	types.Page
	body []byte
}

// fetch downloads one target. It returns the page to store (nil when an
// HTML page has no content region) and the links found on HTML pages.
func (c *Crawler) fetch(ctx context.Context, t target, crawlID string) (*fetchedPage, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("reading body: %w", err)
	}

	// Redirects may move the page; links resolve against where it landed.
	final := resp.Request.URL
	page := types.Page{
		ID:          PageID(final.String()),
		URL:         final.String(),
		Domain:      final.Hostname(),
		Depth:       t.Depth,
		Score:       t.Score,
		CrawlID:     crawlID,
		FetchedAt:   time.Now().UTC(),
		CleanStatus: types.CleanNone,
	}

	if isPDF(resp.Header.Get("Content-Type"), final.Path) {
		page.ContentType = types.ContentPDF
		page.RawPath = filepath.Join(rawDir, page.ID+".pdf")
		return &fetchedPage{Page: page, body: body}, nil, nil
	}

	content, links, err := parsePage(final, body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}
	if content == "" {
		return nil, links, nil
	}
	page.ContentType = types.ContentHTML
	page.RawPath = filepath.Join(rawDir, page.ID+".html")
	return &fetchedPage{Page: page, body: []byte(content)}, links, nil
}

// store writes the raw content and metadata of p. It reports false when the
// page's metadata already exists.
func (c *Crawler) store(p *fetchedPage) (bool, error) {
	metaPath := filepath.Join(c.cfg.PagesDir, metadataDir, p.ID+".yaml")
	if _, err := os.Stat(metaPath); err == nil {
		return false, nil
	}

	if err := writeAtomic(filepath.Join(c.cfg.PagesDir, p.RawPath), p.body); err != nil {
		return false, fmt.Errorf("writing raw content: %w", err)
	}
	data, err := yaml.Marshal(&p.Page)
	if err != nil {
		return false, fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := writeAtomic(metaPath, data); err != nil {
		return false, fmt.Errorf("writing metadata: %w", err)
	}
	return true, nil
}

// writeAtomic writes data to path through a temporary file and rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".crawl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func isPDF(contentType, path string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/pdf" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// PageID derives a file-safe page identifier from a URL: a slug of host and
// path followed by a short hash of the full URL, e.g.
// "cdc-gov-steadi-hcp-index-html-3f2a9c".
func PageID(rawURL string) string {
	var base string
	if u, err := url.Parse(rawURL); err == nil {
		base = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") + u.EscapedPath()
	}
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if len(slug) > slugLimit {
		slug = strings.TrimRight(slug[:slugLimit], "-")
	}
	sum := sha256.Sum256([]byte(rawURL))
	hash := hex.EncodeToString(sum[:3])
	if slug == "" {
		return hash
	}
	return slug + "-" + hash
}
