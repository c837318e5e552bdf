// Package post patches a Markdown briefing post in place. Edits are scoped to
// named sections found by an index of heading lines.
package post

import (
	"strings"
)

// Section is a heading-delimited range of a document. Offsets are byte
// offsets: Start is the first byte of the heading line, BodyStart the first
// byte after it, and End the start of the next heading of equal or higher
// rank (or the document length).
type Section struct {
	Heading   string
	Level     int
	Start     int
	BodyStart int
	End       int
}

// Body returns the section content below its heading line.
func (s Section) Body(doc string) string {
	return doc[s.BodyStart:s.End]
}

// Index returns every heading section of doc in document order. Lines inside
// fenced code blocks are not headings.
func Index(doc string) []Section {
	var sections []Section
	inFence := false

	for off := 0; off < len(doc); {
		next := strings.IndexByte(doc[off:], '\n')
		lineEnd := len(doc)
		if next >= 0 {
			lineEnd = off + next + 1
		}
		line := strings.TrimRight(doc[off:lineEnd], " \t\r\n")

		if isFence(line) {
			inFence = !inFence
		} else if level := headingLevel(line); level > 0 && !inFence {
			for i := range sections {
				if sections[i].End < 0 && sections[i].Level >= level {
					sections[i].End = off
				}
			}
			sections = append(sections, Section{
				Heading:   line,
				Level:     level,
				Start:     off,
				BodyStart: lineEnd,
				End:       -1,
			})
		}
		off = lineEnd
	}

	for i := range sections {
		if sections[i].End < 0 {
			sections[i].End = len(doc)
		}
	}
	return sections
}

// Find returns the first section whose heading line equals heading exactly.
// Trailing whitespace on the heading line is ignored.
func Find(doc, heading string) (Section, bool) {
	heading = strings.TrimRight(heading, " \t")
	for _, s := range Index(doc) {
		if s.Heading == heading {
			return s, true
		}
	}
	return Section{}, false
}

// headingLevel returns the ATX heading level of line, or 0.
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level < len(line) && line[level] != ' ' && line[level] != '\t' {
		return 0
	}
	return level
}

func isFence(line string) bool {
	t := strings.TrimLeft(line, " ")
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// lines splits s into lines that keep their trailing newline.
func lines(s string) []string {
	out := strings.SplitAfter(s, "\n")
	if out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
