// Package report renders a batch report as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/sitescreen/internal/models"
)

// Markdown renders the batch summary followed by one table row per URL
func Markdown(r *models.BatchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Batch %s\n\n", r.ID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "- URLs: %d (written %d, failed %d)\n", r.Total, r.Succeeded, r.Failed)

	counts := r.VerdictCounts()
	fmt.Fprintf(&b, "- Verdicts: %s %d / %s %d / %s %d\n\n",
		models.VerdictUnsafe, counts[models.VerdictUnsafe],
		models.VerdictBorderline, counts[models.VerdictBorderline],
		models.VerdictSafe, counts[models.VerdictSafe])

	b.WriteString("| # | URL | Status | Score | Verdict | Genre | Match | Origin | Notes |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, o := range r.Outcomes {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			o.Index+1,
			cell(o.URL),
			o.Status,
			score(o),
			cell(string(o.Verdict)),
			cell(o.Genre),
			cell(o.Match),
			cell(string(o.Origin)),
			cell(notes(o)),
		)
	}
	return b.String()
}

// HTML converts rendered Markdown to a standalone HTML document
func HTML(markdown string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to convert report to HTML: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>sitescreen report</title></head><body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}

// WriteFile writes the report to path. A .html or .htm extension selects
// HTML, anything else Markdown.
func WriteFile(path string, r *models.BatchReport) error {
	content := []byte(Markdown(r))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		rendered, err := HTML(string(content))
		if err != nil {
			return err
		}
		content = rendered
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

func score(o *models.URLOutcome) string {
	if o.Status != models.OutcomeOK {
		return "-"
	}
	return fmt.Sprintf("%g/%d", o.Score, models.MaxScore)
}

func notes(o *models.URLOutcome) string {
	var parts []string
	if o.Reason != models.ReasonNone {
		parts = append(parts, string(o.Reason))
	}
	for _, d := range o.Degraded {
		parts = append(parts, "degraded:"+string(d))
	}
	if o.Error != "" {
		parts = append(parts, o.Error)
	}
	return strings.Join(parts, ", ")
}

// cell keeps a value on one table line
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
