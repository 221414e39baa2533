package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/sitescreen/internal/models"
)

func sampleReport() *models.BatchReport {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &models.BatchReport{
		ID:         "batch-1",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Total:      2,
	}
	r.Add(&models.URLOutcome{
		Index: 0, URL: "https://example.com/a", Status: models.OutcomeOK,
		Score: 12, Verdict: models.VerdictUnsafe, Genre: "アダルト", Origin: models.OriginForeign,
		MatchMode: models.MatchModePattern, Match: "[パターン/ドメイン一致] アダルト（パターン: *.xxx）",
		Degraded: []models.FailureReason{models.ReasonOCR},
	})
	r.Add(&models.URLOutcome{
		Index: 1, URL: "https://example.com/b|c", Status: models.OutcomeFailed,
		Reason: models.ReasonRowNotFound, Error: "row not found\nin sheet",
	})
	return r
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	assert.Contains(t, md, "# Batch batch-1")
	assert.Contains(t, md, "- Duration: 1m30s")
	assert.Contains(t, md, "- URLs: 2 (written 1, failed 1)")
	assert.Contains(t, md, "- Verdicts: Unsafe 1 / Borderline 0 / Safe 0")
	assert.Contains(t, md, "| 1 | https://example.com/a | ok | 12/15 | Unsafe | アダルト | [パターン/ドメイン一致] アダルト（パターン: *.xxx） | 海外サイト | degraded:ocr |")
	assert.Contains(t, md, `| 2 | https://example.com/b\|c | failed | - |`)
	assert.Contains(t, md, "| Genre | Match | Origin |")
	assert.Contains(t, md, "row_not_found, row not found in sheet")
}

func TestHTML(t *testing.T) {
	out, err := HTML(Markdown(sampleReport()))
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "<!DOCTYPE html>"))
	assert.Contains(t, s, "<h1")
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "<td>アダルト</td>")
}

func TestWriteFileByExtension(t *testing.T) {
	dir := t.TempDir()

	mdPath := filepath.Join(dir, "out", "report.md")
	require.NoError(t, WriteFile(mdPath, sampleReport()))
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Batch"))

	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, WriteFile(htmlPath, sampleReport()))
	data, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<table>")
}
