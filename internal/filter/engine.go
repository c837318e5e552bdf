// Package filter decides which feed entries are worth keeping: the
// low-signal heuristics for recurring threads and official accounts, and the
// include/exclude rule engine for per-source extra rules.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"briefing/internal/model"
)

// FeedItem is the part of a feed entry that rules are matched against.
type FeedItem struct {
	Title       string
	Description string
}

// ItemOf returns the matchable view of an entry.
func ItemOf(e model.FeedEntry) FeedItem {
	return FeedItem{Title: e.Title, Description: e.BodyText}
}

type matcher struct {
	scope model.FilterScope
	word  string
	re    *regexp.Regexp
	never bool
}

func (m matcher) matches(item FeedItem) bool {
	if m.never {
		return false
	}
	text := textForScope(item, m.scope)
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return strings.Contains(text, m.word)
}

// Rules is a compiled set of include/exclude filters.
// Include rules use OR logic (at least one must match).
// Exclude rules use AND logic (none must match).
// A nil *Rules allows everything.
type Rules struct {
	include []matcher
	exclude []matcher
}

// Compile validates and compiles filters. Regex rules are case-insensitive.
func Compile(filters []model.Filter) (*Rules, error) {
	return compile(filters, true)
}

func compile(filters []model.Filter, strict bool) (*Rules, error) {
	r := &Rules{}
	for _, f := range filters {
		m := matcher{scope: f.Scope}
		switch f.Kind {
		case model.FilterIncludeRe, model.FilterExcludeRe:
			re, err := regexp.Compile("(?i)" + f.Value)
			if err != nil {
				if strict {
					return nil, fmt.Errorf("invalid regex %q: %w", f.Value, err)
				}
				m.never = true
			}
			m.re = re
		case model.FilterInclude, model.FilterExclude:
			m.word = strings.ToLower(f.Value)
		default:
			if strict {
				return nil, fmt.Errorf("unknown filter kind %q", f.Kind)
			}
			continue
		}

		if f.Kind == model.FilterInclude || f.Kind == model.FilterIncludeRe {
			r.include = append(r.include, m)
		} else {
			r.exclude = append(r.exclude, m)
		}
	}
	return r, nil
}

// Allow reports whether an item passes the rules.
func (r *Rules) Allow(item FeedItem) bool {
	if r == nil {
		return true
	}
	for _, m := range r.exclude {
		if m.matches(item) {
			return false
		}
	}
	if len(r.include) == 0 {
		return true
	}
	for _, m := range r.include {
		if m.matches(item) {
			return true
		}
	}
	return false
}

// Match checks whether an item passes the given set of filters without
// validating them first. Rules with an invalid regex never match.
func Match(item FeedItem, filters []model.Filter) bool {
	r, _ := compile(filters, false)
	return r.Allow(item)
}

func textForScope(item FeedItem, scope model.FilterScope) string {
	switch scope {
	case model.ScopeTitle:
		return strings.ToLower(item.Title)
	case model.ScopeContent:
		return strings.ToLower(item.Description)
	default:
		return strings.ToLower(item.Title + " " + item.Description)
	}
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
