package normalize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

// Markdown converts Markdown input into plain text by rendering it to HTML
// first, then stripping all tags. Block boundaries become line breaks;
// horizontal whitespace within a line is collapsed.
func Markdown(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	var rendered bytes.Buffer
	if err := goldmark.Convert([]byte(raw), &rendered); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&rendered)
	if err != nil {
		return "", fmt.Errorf("parsing rendered markdown: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := strings.Join(strings.Fields(line), " "); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
