package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCleanText(t *testing.T) {
	html := `<html><head><style>.x{}</style><script>var a=1;</script></head>
<body>
  <header>サイト名</header>
  <nav>メニュー</nav>
  <div class="ads-top">広告です</div>
  <div id="main">
    <p>  本文の一行目  </p>
    <p>本文の二行目</p>
  </div>
  <iframe src="x"></iframe>
  <footer>著作権表示</footer>
</body></html>`

	assert.Equal(t, "本文の一行目\n本文の二行目", ExtractCleanText(html))
}

func TestExtractCleanTextEmpty(t *testing.T) {
	assert.Empty(t, ExtractCleanText(""))
	assert.Empty(t, ExtractCleanText("   "))
}

func TestExtractBodyText(t *testing.T) {
	html := `<html><head><title>タイトル</title></head>
<body><div class="header">ヘッダ</div><p>こんにちは</p><p>world</p></body></html>`

	assert.Equal(t, "こんにちは\nworld", ExtractBodyText(html), "title and header class excluded")
	assert.Empty(t, ExtractBodyText(""))
}

func TestExtractImageDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantDesc string
		wantSrc  string
	}{
		{
			name:     "alt preferred",
			html:     `<body><img src="/a.png" alt="ロゴ"><img src="/b.png" alt="二枚目"></body>`,
			wantDesc: "ロゴ",
			wantSrc:  "/a.png",
		},
		{
			name:     "src fallback",
			html:     `<body><img src="/banner.jpg"></body>`,
			wantDesc: "/banner.jpg",
			wantSrc:  "/banner.jpg",
		},
		{
			name: "no image",
			html: `<body><p>text only</p></body>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, src := ExtractImageDescriptor(tt.html)
			assert.Equal(t, tt.wantDesc, desc)
			assert.Equal(t, tt.wantSrc, src)
		})
	}
}
