package common

import (
	"bufio"
	"io"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
)

// ExtractDomain returns the lowercased host (including any port) of a URL,
// or "" when the URL cannot be parsed
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// ReadURLList reads one URL per line, trimming whitespace and skipping blank
// lines and lines starting with '#'. Input order is kept.
func ReadURLList(r io.Reader, logger arbor.ILogger) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := url.ParseRequestURI(line); err != nil {
			logger.Warn().Str("line", line).Err(err).Msg("Skipping malformed URL")
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
