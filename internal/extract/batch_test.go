// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/carekg/pkg/types"
)

func testConfig(t *testing.T) types.ExtractionConfig {
	t.Helper()
	tmp := t.TempDir()
	cfg := types.ExtractionConfig{
		PagesDir:     filepath.Join(tmp, "pages"),
		KnowledgeDir: filepath.Join(tmp, "knowledge"),
		Workers:      2,
	}
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.PagesDir, textDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.PagesDir, metadataDir), 0o755))
	return cfg
}

func writeText(t *testing.T, cfg types.ExtractionConfig, docID, text string) {
	t.Helper()
	path := filepath.Join(cfg.PagesDir, textDir, docID+".txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func writePage(t *testing.T, cfg types.ExtractionConfig, page types.Page) {
	t.Helper()
	data, err := yaml.Marshal(&page)
	require.NoError(t, err)
	path := filepath.Join(cfg.PagesDir, metadataDir, page.ID+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readResult(t *testing.T, cfg types.ExtractionConfig, docID string) types.ExtractionResult {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.KnowledgeDir, extractedDir, docID+RecordsSuffix))
	require.NoError(t, err)
	var result types.ExtractionResult
	require.NoError(t, yaml.Unmarshal(data, &result))
	return result
}

func TestExtractAll(t *testing.T) {
	cfg := testConfig(t)
	writeText(t, cfg, "bathing", "Assist with bathing and monitor for side effects.")
	writeText(t, cfg, "tug", "The patient's TUG test result was 14.2 seconds, indicating high fall risk.")
	writeText(t, cfg, "empty", "")
	writePage(t, cfg, types.Page{ID: "bathing", URL: "https://www.cdc.gov/steadi/bathing.html"})

	var buf bytes.Buffer
	summary, err := ExtractAll(context.Background(), cfg, &buf)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Extracted)
	assert.Equal(t, 0, summary.Failed)
	assert.False(t, summary.HasFailures())
	assert.Equal(t, 2, summary.Records[types.CategoryCareTask])
	assert.Equal(t, 1, summary.Records[types.CategoryScoringRule])
	assert.Contains(t, buf.String(), "extracted bathing (3 records)")

	bathing := readResult(t, cfg, "bathing")
	assert.Equal(t, "bathing", bathing.DocumentID)
	assert.Equal(t, "https://www.cdc.gov/steadi/bathing.html", bathing.SourceURL)
	require.Len(t, bathing.Records, 3)
	assert.Equal(t, Extract("Assist with bathing and monitor for side effects."), bathing.Records)

	empty := readResult(t, cfg, "empty")
	assert.Empty(t, empty.Records)
}

func TestExtractAll_SkipsUnchanged(t *testing.T) {
	cfg := testConfig(t)
	writeText(t, cfg, "doc", "Remove rugs from hallways.")

	_, err := ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	var buf bytes.Buffer
	summary, err := ExtractAll(context.Background(), cfg, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Extracted)
	assert.Contains(t, buf.String(), "skipped doc")

	cfg.Force = true
	summary, err = ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
}

func TestExtractAll_ReextractsChanged(t *testing.T) {
	cfg := testConfig(t)
	writeText(t, cfg, "doc", "Remove rugs from hallways.")

	_, err := ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	path := filepath.Join(cfg.PagesDir, textDir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Assist with dressing."), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	summary, err := ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)

	result := readResult(t, cfg, "doc")
	assert.Equal(t, 2, result.Counts[types.CategoryCareTask])
}

func TestExtractAll_IgnoresOtherFiles(t *testing.T) {
	cfg := testConfig(t)
	writeText(t, cfg, "doc", "Ensure the floor is dry.")
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PagesDir, textDir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(cfg.PagesDir, textDir, "sub.txt"), 0o755))

	summary, err := ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total())
}

func TestExtractAll_MissingTextDir(t *testing.T) {
	cfg := types.ExtractionConfig{
		PagesDir:     filepath.Join(t.TempDir(), "missing"),
		KnowledgeDir: t.TempDir(),
	}
	_, err := ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading text directory")
}

func TestExtractAll_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	writeText(t, cfg, "doc", "Ensure the floor is dry.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractAll(ctx, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	writeText(t, cfg, "doc", "Ensure the floor is dry.")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	err := Watch(ctx, cfg, 10*time.Millisecond, &buf)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(cfg.KnowledgeDir, extractedDir, "doc"+RecordsSuffix))
	assert.NoError(t, statErr)
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc"+RecordsSuffix)
	result := &types.ExtractionResult{DocumentID: "doc", Records: Extract("Assist with bathing.")}

	require.NoError(t, writeResult(path, result))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "document_id: doc")
}

func TestWriteResult_RemovesTempOnFailure(t *testing.T) {
	// A non-empty directory at the target path makes the rename fail.
	path := filepath.Join(t.TempDir(), "doc"+RecordsSuffix)
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	err := writeResult(path, &types.ExtractionResult{DocumentID: "doc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing result")

	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}
