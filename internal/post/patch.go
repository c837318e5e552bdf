package post

import (
	"fmt"
	"regexp"
	"strings"

	"briefing/internal/model"
)

// Section headings of a briefing post.
const (
	HeadingHN         = "## A) Hacker News — Top 5"
	HeadingAntiBubble = "## C) Anti-bubble picks (outside the usual sources)"
	HeadingYouTube    = "## D) YouTube picks"
)

// NoVideosPlaceholder is the sentence a post carries when no videos were picked.
const NoVideosPlaceholder = "_No new videos from the curated channels today._"

const discussionPrefix = "HN discussion:"

var linkLineRe = regexp.MustCompile(`^Link:\s*(https?://\S+)$`)

// Updates is the fresh data applied to a post.
type Updates struct {
	// Discussions maps a story URL to its HN discussion URL.
	Discussions map[string]string
	Videos      []model.Video
}

// Patch applies discussion links and the video block. It is a pure function
// of its inputs and applying it twice gives the same document as once.
func Patch(doc string, u Updates) string {
	doc = AddDiscussionLinks(doc, u.Discussions)
	return ApplyVideos(doc, u.Videos)
}

// AddDiscussionLinks inserts an "HN discussion: URL" line and a blank line
// after every "Link: URL" line of the Hacker News section whose URL has a
// discussion. Links already followed by a discussion line are left alone.
func AddDiscussionLinks(doc string, discussions map[string]string) string {
	sec, ok := Find(doc, HeadingHN)
	if !ok || len(discussions) == 0 {
		return doc
	}

	ls := lines(sec.Body(doc))
	var b strings.Builder
	for i, line := range ls {
		b.WriteString(line)

		link, ok := linkOf(line)
		if !ok {
			continue
		}
		discussion := discussions[link]
		if discussion == "" || hasDiscussion(ls[i+1:]) {
			continue
		}
		if !strings.HasSuffix(line, "\n") {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n\n", discussionPrefix, discussion)
	}
	return doc[:sec.BodyStart] + b.String() + doc[sec.End:]
}

// hasDiscussion reports whether the next non-blank line is a discussion line.
func hasDiscussion(rest []string) bool {
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			continue
		}
		return strings.HasPrefix(strings.TrimLeft(l, " \t"), discussionPrefix)
	}
	return false
}

func linkOf(line string) (string, bool) {
	m := linkLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ApplyVideos removes the no-videos placeholder from the YouTube and
// anti-bubble sections, then writes the YouTube picks block when there are
// videos: it replaces an existing YouTube section or is inserted right after
// the anti-bubble section, falling back to the end of the document.
func ApplyVideos(doc string, videos []model.Video) string {
	doc = removePlaceholder(doc, HeadingYouTube)
	doc = removePlaceholder(doc, HeadingAntiBubble)
	if len(videos) == 0 {
		return doc
	}

	block := VideoBlock(videos)

	if sec, ok := Find(doc, HeadingYouTube); ok {
		if sec.End < len(doc) {
			block += "\n"
		}
		return doc[:sec.Start] + block + doc[sec.End:]
	}

	if sec, ok := Find(doc, HeadingAntiBubble); ok && sec.End < len(doc) {
		head := doc[:sec.End]
		if !strings.HasSuffix(head, "\n\n") {
			head = strings.TrimRight(head, "\n") + "\n\n"
		}
		return head + block + "\n" + doc[sec.End:]
	}

	return appendBlock(doc, block)
}

// VideoBlock renders the YouTube picks section.
func VideoBlock(videos []model.Video) string {
	var b strings.Builder
	b.WriteString(HeadingYouTube)
	b.WriteString("\n\n")
	for _, v := range videos {
		fmt.Fprintf(&b, "- %s (%s): [%s](%s)\n",
			v.Channel, v.PublishedAt.UTC().Format("2006-01-02"), escapeLinkText(v.Title), v.Link)
	}
	return b.String()
}

func appendBlock(doc, block string) string {
	switch {
	case doc == "" || strings.HasSuffix(doc, "\n\n"):
		return doc + block
	case strings.HasSuffix(doc, "\n"):
		return doc + "\n" + block
	default:
		return doc + "\n\n" + block
	}
}

func removePlaceholder(doc, heading string) string {
	sec, ok := Find(doc, heading)
	if !ok {
		return doc
	}
	// The blank line after a placeholder goes with it when the text before
	// the placeholder already ends in a blank line.
	var b strings.Builder
	prevBlank, dropped := false, false
	for _, line := range lines(sec.Body(doc)) {
		blank := strings.TrimSpace(line) == ""
		if isPlaceholder(line) {
			dropped = true
			continue
		}
		if blank && dropped && prevBlank {
			dropped = false
			continue
		}
		dropped = false
		prevBlank = blank
		b.WriteString(line)
	}
	return doc[:sec.BodyStart] + b.String() + doc[sec.End:]
}

func isPlaceholder(line string) bool {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "- ")
	t = strings.TrimPrefix(t, "* ")
	return strings.TrimSpace(t) == NoVideosPlaceholder
}

var linkTextEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)

func escapeLinkText(s string) string {
	return linkTextEscaper.Replace(s)
}

// Links returns every "Link: URL" target inside the named sections, in
// document order.
func Links(doc string, headings ...string) []string {
	var out []string
	for _, h := range headings {
		sec, ok := Find(doc, h)
		if !ok {
			continue
		}
		for _, line := range lines(sec.Body(doc)) {
			if link, ok := linkOf(line); ok {
				out = append(out, link)
			}
		}
	}
	return out
}
