// Package normalize converts raw document markup into clean plain text
// suitable for embedding.
//
// Two input families are supported:
//   - Storage-format markup (the XHTML-like format wiki pages are stored in),
//     handled by Storage()
//   - Markdown, handled by Markdown()
//
// Both produce a linear plain-text stream: headings on their own line,
// paragraph and table-cell text joined with single spaces, table rows as
// pipe-delimited lines. A cleanup pass strips emoji shortcodes and symbols,
// hex color codes, and isolated numeric tokens, then collapses whitespace.
//
// Empty or whitespace-only input yields an empty string, not an error.
// Whether a result is too short to be worth embedding is the pipeline's
// decision, not this package's.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	// emoji shortcodes like :smile: or :+1:
	emojiShortcodeRE = regexp.MustCompile(`:[a-z0-9_+-]+:`)

	// hex color codes: #fff, #ff8800, #ff8800cc
	hexColorRE = regexp.MustCompile(`#(?:[0-9a-fA-F]{8}|[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)

	whitespaceRE = regexp.MustCompile(`\s+`)

	numericTokenRE = regexp.MustCompile(`^\d+$`)
)

// headingTags are emitted on their own line with no markup preserved.
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Storage converts storage-format markup (XHTML-like wiki page storage) into
// plain text. Structured macros contribute only their title parameter; all
// other known non-content constructs are dropped.
func Storage(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parsing storage markup: %w", err)
	}

	var lines []string
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		for _, node := range body.Nodes {
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				renderBlock(child, &lines)
			}
		}
	})

	return strings.Join(lines, "\n"), nil
}

// renderBlock walks the parse tree and appends one cleaned text line per
// block-level construct.
func renderBlock(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		// Stray text outside any block element becomes its own line.
		if line := Clean(n.Data); line != "" {
			*lines = append(*lines, line)
		}
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	switch {
	case headingTags[n.Data]:
		appendLine(lines, Clean(textContent(n)))
	case n.Data == "p" || n.Data == "li" || n.Data == "blockquote" || n.Data == "pre":
		appendLine(lines, Clean(textContent(n)))
	case n.Data == "table":
		renderTable(n, lines)
	case n.Data == "ac:structured-macro" || n.Data == "structured-macro":
		// Known non-content construct: only the title parameter survives.
		appendLine(lines, Clean(macroTitle(n)))
	default:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			renderBlock(child, lines)
		}
	}
}

// renderTable emits one pipe-delimited line per table row, cells joined in
// document order. Nested tables flatten into their parent row stream.
func renderTable(table *html.Node, lines *[]string) {
	var walkRows func(n *html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for cell := n.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type != html.ElementNode {
					continue
				}
				if cell.Data == "td" || cell.Data == "th" {
					if text := Clean(textContent(cell)); text != "" {
						cells = append(cells, text)
					}
				}
			}
			if len(cells) > 0 {
				*lines = append(*lines, strings.Join(cells, " | "))
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walkRows(child)
		}
	}
	walkRows(table)
}

// macroTitle extracts the title parameter of a structured macro, if any.
func macroTitle(macro *html.Node) string {
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode &&
			(n.Data == "ac:parameter" || n.Data == "parameter") {
			for _, attr := range n.Attr {
				if (attr.Key == "ac:name" || attr.Key == "name") && attr.Val == "title" {
					title = textContent(n)
					return
				}
			}
		}
		for child := n.FirstChild; child != nil && title == ""; child = child.NextSibling {
			walk(child)
		}
	}
	walk(macro)
	return title
}

// textContent concatenates all descendant text nodes, separating adjacent
// nodes with a space so inline markup boundaries don't glue words together.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func appendLine(lines *[]string, line string) {
	if line != "" {
		*lines = append(*lines, line)
	}
}

// Clean applies the per-text-node cleanup pass: strips emoji shortcodes and
// emoji symbols, hex color codes, and isolated numeric tokens, then collapses
// runs of whitespace to a single space and trims.
func Clean(text string) string {
	text = emojiShortcodeRE.ReplaceAllString(text, " ")
	text = hexColorRE.ReplaceAllString(text, " ")
	text = stripEmoji(text)

	fields := strings.Fields(whitespaceRE.ReplaceAllString(text, " "))
	kept := fields[:0]
	for _, f := range fields {
		if numericTokenRE.MatchString(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// stripEmoji removes runes in the common emoji and pictograph blocks,
// including variation selectors and regional indicators.
func stripEmoji(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, regional indicators
			return -1
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			return -1
		case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
			return -1
		case r == 0x200D: // zero-width joiner
			return -1
		default:
			return r
		}
	}, text)
}
