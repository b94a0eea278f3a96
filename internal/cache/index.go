package cache

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/mwantia/gocard/pkg/card"
)

var wordPattern = regexp.MustCompile(`\b\w{3,}\b`)

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// indexText turns HTML into markdown so markup never ends up in the index.
func (m *Manager) indexText(content, contentType string) string {
	if card.MediaType(contentType) != "text/html" {
		return content
	}

	md, err := m.markdown.ConvertString(content)
	if err != nil {
		m.log.Debug("Indexing raw HTML, conversion failed: %v", err)
		return content
	}
	return md
}

// extractTags returns the unique lowercase words of at least three
// characters in first-seen order, at most limit of them.
func extractTags(text string, limit int) []string {
	tags := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(tags) >= limit {
			break
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		tags = append(tags, word)
	}
	return tags
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}

	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
