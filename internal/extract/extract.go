// Package extract returns the main article text of an HTML document,
// stripping navigation, ads, scripts, and style blocks.
package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/webindex/webindex/internal/errors"
)

// pageURL is used as readability's base URL for resolving relative links; the
// core does not follow links, so any stable placeholder origin works.
var pageURL, _ = url.Parse("https://webindex.local/")

// Extract returns the main article text of html source text.
//
// It first attempts a readability-style main-content heuristic; if that
// yields nothing, it falls back to a tag-stripping pass that removes
// <script>/<style> blocks and collapses whitespace. It fails with
// ErrCodeNoTextContent only if both strategies yield zero non-whitespace
// characters.
func Extract(source string) (string, error) {
	if text := extractReadable(source); text != "" {
		return text, nil
	}

	if text := extractByStripping(source); text != "" {
		return text, nil
	}

	return "", errors.New(errors.ErrCodeNoTextContent, "no readable text content found", nil)
}

// extractReadable runs the readability main-content heuristic. It returns
// empty on any failure rather than erroring, so the caller can fall back.
func extractReadable(source string) string {
	article, err := readability.FromReader(strings.NewReader(source), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// extractByStripping walks the HTML tree directly, skipping script/style/
// noscript nodes, and collapses whitespace runs in the remaining text nodes.
func extractByStripping(source string) string {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapseWhitespace(sb.String())
}

// collapseWhitespace reduces any run of whitespace to a single space and
// trims the result.
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}
