// Package richtext cleans editor HTML before it is stored.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = newPolicy()
	strict = bluemonday.StrictPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Mention nodes from the editor.
	p.AllowAttrs("data-type").Matching(regexp.MustCompile(`^mention$`)).OnElements("span")
	p.AllowAttrs("data-id", "data-label").Matching(regexp.MustCompile(`^[\p{L}\p{N}_.\-]+$`)).OnElements("span")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^mention$`)).OnElements("span")
	return p
}

// Sanitize strips everything except formatting and mention spans.
func Sanitize(content string) string {
	return strings.TrimSpace(ugc.Sanitize(content))
}

// PlainText drops all markup, e.g. for search documents.
func PlainText(content string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(content)))
}

// IsBlank reports whether content has no visible text.
func IsBlank(content string) bool {
	return PlainText(content) == ""
}
