package locale

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/crawler"
)

var (
	domesticScript = regexp.MustCompile(`[ぁ-んァ-ン一-龯]`)
	latinLetter    = regexp.MustCompile(`[a-zA-Z]`)
)

// Classifier decides whether a site is domestic or foreign from its domain
// and the script mix of its visible text
type Classifier struct {
	whitelist      []string
	ratio          float64
	minBodyText    int
	latinThreshold float64
}

// NewClassifier creates a classifier over the domestic domain whitelist
func NewClassifier(whitelist []string, config common.ClassifierConfig) *Classifier {
	c := &Classifier{
		whitelist:      whitelist,
		ratio:          config.ScriptRatio,
		minBodyText:    config.MinBodyText,
		latinThreshold: config.LatinThreshold,
	}
	if c.ratio <= 0 {
		c.ratio = 0.4
	}
	if c.minBodyText <= 0 {
		c.minBodyText = 30
	}
	if c.latinThreshold <= 0 {
		c.latinThreshold = 0.2
	}
	return c
}

// Classify returns OriginDomestic or OriginForeign. Body text shorter than
// the minimum is replaced by the OCR text before measuring.
func (c *Classifier) Classify(url, html, ocrText string) models.SiteOrigin {
	if c.whitelisted(url) {
		return models.OriginDomestic
	}

	text := crawler.ExtractBodyText(html)
	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.minBodyText {
		text = ocrText
	}

	if c.isDomesticText(text) {
		return models.OriginDomestic
	}
	return models.OriginForeign
}

func (c *Classifier) whitelisted(url string) bool {
	domain := common.ExtractDomain(url)
	if domain == "" {
		return false
	}
	for _, suffix := range c.whitelist {
		if suffix != "" && strings.HasSuffix(domain, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (c *Classifier) isDomesticText(text string) bool {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return false
	}
	jp := len(domesticScript.FindAllStringIndex(text, -1))
	latin := len(latinLetter.FindAllStringIndex(text, -1))

	if jp == 0 && float64(latin) > float64(total)*c.latinThreshold {
		return false
	}
	return float64(jp)/float64(total) >= c.ratio
}
