package filter

import (
	"regexp"
	"strings"

	"briefing/internal/model"
)

// recurringTitle matches administrative and recurring threads: a cadence word
// followed by thread wording, or one of the fixed announcement phrases.
var recurringTitle = regexp.MustCompile(
	`(?i)\b(weekly|monthly|daily)\b.*\b(thread|discussion|check[- ]?in)\b` +
		`|\bdiscussion thread\b|\bopen thread\b|\breminder\b|\brules?\b` +
		`|\badvertis(ing|ement)\b|\bama\b|\bcommunity update\b`,
)

// IsRecurringTitle reports whether a title looks like a sticky or recurring thread.
func IsRecurringTitle(title string) bool {
	return recurringTitle.MatchString(title)
}

// IsOfficialAuthor reports whether author looks like a moderator bot or an
// official account of the subreddit.
func IsOfficialAuthor(author, subreddit string) bool {
	a := strings.TrimSpace(author)
	a = strings.TrimPrefix(a, "/")
	a = strings.TrimPrefix(a, "u/")
	a = strings.ToLower(a)
	if a == "" {
		return false
	}
	if a == "automoderator" || strings.Contains(a, "official") {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(subreddit))
	return s != "" && (a == s || a == s+"_official" || a == s+"official")
}

// IsLowSignal reports whether an entry is administrative or recurring rather
// than substantive. The author heuristic only applies in a subreddit context.
func IsLowSignal(e model.FeedEntry, subreddit string) bool {
	if IsRecurringTitle(e.Title) {
		return true
	}
	return subreddit != "" && IsOfficialAuthor(e.Author, subreddit)
}
