// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/carekg/pkg/types"
)

// fakeExtractor returns fixed Markdown or a fixed error.
type fakeExtractor struct {
	md    string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.md, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "empty",
			markup: "   ",
			want:   "",
		},
		{
			name: "main region wins over body furniture",
			markup: `<html><body><nav>Home | About</nav>
				<main><h1>Falls prevention</h1><p>Assist with   bathing.</p>
				<script>var x = 1;</script><p>Check <b>gait</b> daily.</p></main>
				<footer>Copyright</footer></body></html>`,
			want: "Falls prevention\nAssist with bathing.\nCheck gait daily.",
		},
		{
			name:   "article when no main",
			markup: `<body><div>Sidebar</div><article><p>Install grab bars.</p></article></body>`,
			want:   "Install grab bars.",
		},
		{
			name:   "content-area class",
			markup: `<body><div class="nav">Menu</div><div class="page content-area"><p>Remove rugs.</p></div></body>`,
			want:   "Remove rugs.",
		},
		{
			name:   "body fallback skips furniture",
			markup: `<body><header>Logo</header><p>Monitor for delirium.</p><aside>Ads</aside></body>`,
			want:   "Monitor for delirium.",
		},
		{
			name:   "list items and table cells",
			markup: `<main><ul><li>Bathing</li><li>Dressing</li></ul><table><tr><td>TUG</td><td>12 s</td></tr></table></main>`,
			want:   "Bathing\nDressing\nTUG 12 s",
		},
		{
			name:   "line breaks",
			markup: `<main><p>First line<br>Second line</p></main>`,
			want:   "First line\nSecond line",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanHTML(tt.markup))
		})
	}
}

func TestKeepMarkdown(t *testing.T) {
	md := strings.Join([]string{
		"# Falls in older people",
		"",
		"<!-- image -->",
		"![figure](fig1.png)",
		"",
		"Offer a multifactorial falls risk",
		"assessment to [older people](https://example.org) presenting",
		"for medical attention.",
		"",
		"| Test | Cutoff |",
		"|------|--------|",
		"| TUG  | 12 s   |",
		"",
		"- Check **gait** and balance",
		"2. Review medication",
		"",
		"12",
		"Page 3 of 40",
		"---",
		"<!-- multi",
		"line comment -->",
		"```",
		"code block",
		"```",
		"## Recommendations",
	}, "\n")

	want := strings.Join([]string{
		"Falls in older people",
		"Offer a multifactorial falls risk assessment to older people presenting for medical attention.",
		"Check gait and balance",
		"Review medication",
		"Recommendations",
	}, "\n")
	assert.Equal(t, want, keepMarkdown(md))
}

func TestCleanPDF(t *testing.T) {
	ctx := context.Background()

	ok := New(&fakeExtractor{md: "# Title\n\nNarrative text."}, quietLogger())
	assert.Equal(t, "Title\nNarrative text.", ok.CleanPDF(ctx, "doc.pdf"))

	failing := New(&fakeExtractor{err: errors.New("boom")}, quietLogger())
	assert.Equal(t, "", failing.CleanPDF(ctx, "doc.pdf"))

	none := New(nil, quietLogger())
	assert.Equal(t, "", none.CleanPDF(ctx, "doc.pdf"))
}

func TestCleanPDF_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	c := New(&fakeExtractor{err: errors.New("container exited")}, slog.New(slog.NewTextHandler(&logs, nil)))
	c.CleanPDF(context.Background(), "guideline.pdf")
	assert.Contains(t, logs.String(), "pdf extraction failed")
	assert.Contains(t, logs.String(), "guideline.pdf")
}

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"Assist the resident.", false},
		{"Assist the resident and monitor closely.", true},
		{"FALL RISK and FRAILTY screening", true},
		{"Review IADL needs.", true}, // iadl contains adl
		{"The weather is nice today.", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRelevant(tt.text))
		})
	}
}

func TestMatchedTerms_Distinct(t *testing.T) {
	assert.Equal(t, []string{"assist"}, MatchedTerms("assist assist assist"))
}

// --- batch ---

func setupPages(t *testing.T) types.CleanConfig {
	t.Helper()
	cfg := types.CleanConfig{PagesDir: t.TempDir()}
	for _, d := range []string{"raw", metadataDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.PagesDir, d), 0o755))
	}
	return cfg
}

func addPage(t *testing.T, cfg types.CleanConfig, page types.Page, raw string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PagesDir, page.RawPath), []byte(raw), 0o644))
	data, err := yaml.Marshal(&page)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PagesDir, metadataDir, page.ID+".yaml"), data, 0o644))
}

func loadStatus(t *testing.T, cfg types.CleanConfig, id string) types.CleanStatus {
	t.Helper()
	page, err := readPage(filepath.Join(cfg.PagesDir, metadataDir, id+".yaml"))
	require.NoError(t, err)
	return page.CleanStatus
}

func TestCleanAll(t *testing.T) {
	cfg := setupPages(t)
	addPage(t, cfg, types.Page{ID: "steadi", ContentType: types.ContentHTML, RawPath: "raw/steadi.html"},
		`<main><p>Assist with transfers and monitor gait.</p></main>`)
	addPage(t, cfg, types.Page{ID: "news", ContentType: types.ContentHTML, RawPath: "raw/news.html"},
		`<main><p>Our office is closed on Monday.</p></main>`)
	addPage(t, cfg, types.Page{ID: "blank", ContentType: types.ContentHTML, RawPath: "raw/blank.html"},
		`<main></main>`)
	addPage(t, cfg, types.Page{ID: "bpg", ContentType: types.ContentPDF, RawPath: "raw/bpg.pdf"}, "%PDF-1.7")

	pdf := &fakeExtractor{md: "# Guideline\n\n- Screening for frailty"}
	c := New(pdf, quietLogger())

	var buf bytes.Buffer
	summary, err := c.CleanAll(context.Background(), cfg, &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Cleaned)
	assert.Equal(t, 1, summary.Irrelevant)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 4, summary.Total())
	assert.True(t, summary.HasFailures())
	assert.Equal(t, 1, pdf.calls)

	text, err := os.ReadFile(filepath.Join(cfg.PagesDir, textDir, "steadi.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Assist with transfers and monitor gait.\n", string(text))

	pdfText, err := os.ReadFile(filepath.Join(cfg.PagesDir, textDir, "bpg.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Guideline\nScreening for frailty\n", string(pdfText))

	_, err = os.Stat(filepath.Join(cfg.PagesDir, textDir, "news.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, types.CleanDone, loadStatus(t, cfg, "steadi"))
	assert.Equal(t, types.CleanIrrelevant, loadStatus(t, cfg, "news"))
	assert.Equal(t, types.CleanFailed, loadStatus(t, cfg, "blank"))
	assert.Contains(t, buf.String(), "cleaned steadi")
	assert.Contains(t, buf.String(), "irrelevant news")

	// Second run skips finished pages and retries the failed one.
	summary, err = c.CleanAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, pdf.calls)
}

func TestCleanAll_KeepIrrelevant(t *testing.T) {
	cfg := setupPages(t)
	cfg.KeepIrrelevant = true
	addPage(t, cfg, types.Page{ID: "news", ContentType: types.ContentHTML, RawPath: "raw/news.html"},
		`<main><p>Our office is closed on Monday.</p></main>`)

	summary, err := New(nil, quietLogger()).CleanAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Irrelevant)

	_, err = os.Stat(filepath.Join(cfg.PagesDir, textDir, "news.txt"))
	assert.NoError(t, err)
}

func TestCleanAll_MissingMetadataDir(t *testing.T) {
	cfg := types.CleanConfig{PagesDir: filepath.Join(t.TempDir(), "pages")}
	_, err := New(nil, quietLogger()).CleanAll(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading metadata directory")
}

func TestCleanAll_CancelledContext(t *testing.T) {
	cfg := setupPages(t)
	addPage(t, cfg, types.Page{ID: "steadi", ContentType: types.ContentHTML, RawPath: "raw/steadi.html"},
		`<main><p>Assist with transfers and monitor gait.</p></main>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, quietLogger()).CleanAll(ctx, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
