package extract

import (
	"regexp"
	"strings"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html"
)

// Transform post-processes a resolved field value.
type Transform func(string) string

var (
	reYear       = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// StripCommentTail cuts the value at an embedded HTML comment marker.
// Some templates leave server-side comments glued to visible text.
func StripCommentTail(s string) string {
	if i := strings.Index(s, "<!--"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// StripYear removes a trailing "(YYYY)" year annotation.
func StripYear(s string) string {
	return strings.TrimSpace(reYear.ReplaceAllString(s, ""))
}

// CollapseWhitespace folds runs of whitespace (including newlines from
// pretty-printed markup) into single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// TrimParens strips one layer of surrounding parentheses, e.g. "(4)" -> "4".
func TrimParens(s string) string {
	return strings.Trim(strings.TrimSpace(s), "()")
}

// NormalizeDate parses free-form review dates into ISO 8601 (YYYY-MM-DD).
// Best effort: the raw value is kept when it cannot be parsed, so a site
// with an unrecognized date format still produces a populated field.
func NormalizeDate(s string) string {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// FlattenMarkup re-parses a value that may still carry markup (inline
// icons, wrapper spans) and keeps only its text content.
func FlattenMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return CollapseWhitespace(buf.String())
}
