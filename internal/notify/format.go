package notify

import (
	"fmt"
	"slices"
	"strings"

	"briefing/internal/model"
)

const title = "[Morning Briefing]"

// FormatSnapshot summarizes a snapshot run.
func FormatSnapshot(s model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s snapshot %s\n\n", title, s.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))

	fmt.Fprintf(&b, "HN: %d stories\n", len(s.HN))

	posts, failed := 0, 0
	for _, r := range s.Reddit {
		posts += len(r.Entries)
		if r.Error != "" {
			failed++
		}
	}
	fmt.Fprintf(&b, "Reddit: %d posts from %d subreddits", posts, len(s.Reddit))
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Anti-bubble: %d picks\n", len(s.AntiBubble))
	for _, p := range s.AntiBubble {
		fmt.Fprintf(&b, "  %s: %s\n", p.Source, p.Title)
	}
	fmt.Fprintf(&b, "YouTube: %d videos\n", len(s.YouTube))
	fmt.Fprintf(&b, "Readwise: %d highlights (%s)\n", len(s.Readwise.Highlights), s.Readwise.Status)

	if len(s.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		keys := make([]string, 0, len(s.Errors))
		for k := range s.Errors {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, s.Errors[k])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatUpdate summarizes an update-post run.
func FormatUpdate(path string, changed bool, saved, failed int, publish bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s post %s\n\n", title, path)
	if changed {
		b.WriteString("Post updated.\n")
	} else {
		b.WriteString("No changes needed.\n")
	}
	switch {
	case !publish:
		b.WriteString("Readwise: skipped")
	default:
		fmt.Fprintf(&b, "Readwise: %d saved, %d failed", saved, failed)
	}
	return b.String()
}
