// Package textnorm turns feed-supplied HTML fragments into plain text excerpts.
package textnorm

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ExcerptLimit is the rune count after which excerpts are truncated.
const ExcerptLimit = 520

const ellipsis = "…"

// maxPasses bounds how often the rules are reapplied to reach a fixed point.
const maxPasses = 64

var (
	reBlockClose = regexp.MustCompile(`(?is)<\s*(?:br\s*/?|/\s*(?:p|div|li|pre|blockquote))\s*>`)
	reBlockOpen  = regexp.MustCompile(`(?is)<\s*(?:p|div|li|pre|blockquote)(?:\s+[^>]*)?>`)
	reAnchor     = regexp.MustCompile(`(?is)<a\s+[^>]*href=['"]([^'"]+)['"][^>]*>(.*?)</a>`)
	reCode       = regexp.MustCompile(`(?is)</?code[^>]*>`)
	reTag        = regexp.MustCompile(`(?s)<[^>]+>`)
	reBlankLines = regexp.MustCompile(`\n(?:[ \t\f\v]*\n)+`)
	reHSpace     = regexp.MustCompile(`[ \t\f\v]+`)
)

// ToPlainText converts an HTML fragment to plain text. Anchors become
// "text (href)" unless the text already contains the href. The result is a
// fixed point: ToPlainText(ToPlainText(s)) == ToPlainText(s). Stripping tags
// can expose new entities or tags, so the rules run until the text settles.
func ToPlainText(s string) string {
	for range maxPasses {
		next := plainPass(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func plainPass(s string) string {
	if s == "" {
		return ""
	}
	s = unescape(s)
	s = reBlockClose.ReplaceAllString(s, "\n")
	s = reBlockOpen.ReplaceAllString(s, "\n")
	s = reAnchor.ReplaceAllStringFunc(s, rewriteAnchor)
	s = reCode.ReplaceAllString(s, "")
	s = reTag.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r", "")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	s = reHSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// unescape decodes entities until none are left. Every pass that changes s
// either removes an ampersand or shortens s, so the loop ends.
func unescape(s string) string {
	for {
		u := html.UnescapeString(s)
		if u == s {
			break
		}
		s = u
	}
	return s
}

func rewriteAnchor(m string) string {
	sub := reAnchor.FindStringSubmatch(m)
	href := strings.TrimSpace(sub[1])
	text := strings.TrimSpace(reTag.ReplaceAllString(sub[2], ""))
	if href != "" && text != "" && !strings.Contains(text, href) {
		return text + " (" + href + ")"
	}
	if text != "" {
		return text
	}
	return href
}

// Truncate shortens s to at most limit runes plus an ellipsis, backing up to
// the last space so that words are not split. A single word longer than the
// cut is cut hard.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := runes[:limit]
	if runes[limit] != ' ' {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(string(cut), " \n\t") + ellipsis
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == ' ' {
			return i
		}
	}
	return -1
}

// Excerpt renders a comment body as a single-paragraph excerpt.
func Excerpt(fragment string) string {
	txt := ToPlainText(fragment)
	txt = strings.TrimSpace(strings.ReplaceAll(txt, "\n\n", " "))
	return Truncate(txt, ExcerptLimit)
}
