package locale

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/crawler"
)

func newTestClassifier() *Classifier {
	return NewClassifier([]string{".jp", "yahoo.co.jp"}, common.NewDefaultConfig().Classifier)
}

func page(body string) string {
	return "<html><body><p>" + body + "</p></body></html>"
}

func TestClassifyWhitelist(t *testing.T) {
	c := newTestClassifier()
	english := page(strings.Repeat("This is an English page. ", 10))

	assert.Equal(t, models.OriginDomestic, c.Classify("https://news.example.jp/a", english, ""))
	assert.Equal(t, models.OriginDomestic, c.Classify("https://WWW.YAHOO.CO.JP/", english, ""))
	assert.Equal(t, models.OriginForeign, c.Classify("https://example.com/jp", english, ""))
}

func TestClassifyScriptRatio(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		html string
		ocr  string
		want models.SiteOrigin
	}{
		{
			name: "japanese body",
			html: page("これは日本語で書かれたウェブサイトの本文です。天気予報とニュースを掲載しています。"),
			want: models.OriginDomestic,
		},
		{
			name: "latin only body",
			html: page(strings.Repeat("latin text only ", 5)),
			want: models.OriginForeign,
		},
		{
			name: "mostly english with a little japanese",
			html: page("Welcome to our international shopping site with great deals 日本"),
			want: models.OriginForeign,
		},
		{
			name: "short body falls back to ocr",
			html: page("Login"),
			ocr:  "ログインしてください。会員限定のページです。",
			want: models.OriginDomestic,
		},
		{
			name: "short body and no ocr",
			html: page("Hi"),
			want: models.OriginForeign,
		},
		{
			name: "empty html uses ocr",
			html: "",
			ocr:  "Sign in to continue",
			want: models.OriginForeign,
		},
		{
			name: "digits only is not domestic",
			html: page(strings.Repeat("1234567890", 5)),
			want: models.OriginForeign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify("https://example.com", tt.html, tt.ocr))
		})
	}
}

func TestClassifyReadsRenderedPageNotStaticShell(t *testing.T) {
	c := newTestClassifier()
	fetched := &models.FetchResult{
		StaticHTML:   `<html><body><noscript>You need to enable JavaScript to run this app.</noscript></body></html>`,
		RenderedHTML: page("これは日本語のウェブサイトです。最新のニュースと情報を毎日お届けしています。"),
	}

	assert.Equal(t, models.OriginDomestic, c.Classify("https://example.com/", crawler.LocaleHTML(fetched), ""))
}

func TestClassifyWithoutRenderFallsBackToOCR(t *testing.T) {
	c := newTestClassifier()
	fetched := &models.FetchResult{StaticHTML: page(strings.Repeat("English only static page. ", 10))}

	assert.Equal(t, models.OriginDomestic, c.Classify("https://example.com/", crawler.LocaleHTML(fetched), "画像の中の日本語テキストです"))
}
