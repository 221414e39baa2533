// -----------------------------------------------------------------------
// Text Extractor - boilerplate removal and visible text extraction
// -----------------------------------------------------------------------

package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// adSelectors are removed before full-document text extraction
var adSelectors = []string{
	"header", "footer", "nav", "iframe", "ins",
	".footer", ".header", ".ads", ".sponsor", ".promo", ".widget",
	`[id*="ad"]`, `[class*="ad"]`, `[class*="sponsor"]`, `[id*="sponsor"]`,
	`[class*="banner"]`, `[id*="banner"]`, `[class*="rec"]`, `[class*="promo"]`,
}

// bodySelectors are removed inside <body> before locale text extraction
var bodySelectors = []string{
	"header", "footer", "nav", ".footer", ".header", ".ads", `[id*="ad"]`, `[class*="ad"]`,
}

// ExtractCleanText removes structural and ad elements, drops script and style,
// and returns the remaining text nodes trimmed and joined by newlines
func ExtractCleanText(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	root := doc.Selection
	removeAll(root, adSelectors)
	root.Find("script, style").Remove()
	return joinText(root)
}

// ExtractBodyText is the stricter variant used for locale detection: only the
// body subtree, with navigation and ad containers removed
func ExtractBodyText(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	removeAll(body, bodySelectors)
	body.Find("script, style").Remove()
	return joinText(body)
}

// ExtractImageDescriptor returns the first image's alt text, falling back to its
// src, plus the src itself. Both are empty when the page has no image.
func ExtractImageDescriptor(rawHTML string) (descriptor string, src string) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", ""
	}

	img := doc.Find("img").First()
	if img.Length() == 0 {
		return "", ""
	}
	src, _ = img.Attr("src")
	alt, _ := img.Attr("alt")
	if alt != "" {
		return alt, src
	}
	return src, src
}

func removeAll(sel *goquery.Selection, selectors []string) {
	for _, s := range selectors {
		sel.Find(s).Remove()
	}
}

// joinText walks the selection in document order and collects non-empty,
// trimmed text nodes
func joinText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}
