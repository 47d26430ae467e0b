package compile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// line is one line of a text file with its provenance. after is the id of
// the marker line a fragment line was injected after, or -1.
type line struct {
	text  string
	owner string
	id    int
	after int
}

// document is a text file held as attributed lines while add-ons apply.
type document struct {
	lines           []line
	trailingNewline bool
	nextID          *int
}

// splitLines splits content into lines. A trailing newline does not start
// a new line and empty content has no lines.
func splitLines(content string) (lines []string, trailingNewline bool) {
	if content == "" {
		return nil, false
	}
	trailingNewline = strings.HasSuffix(content, "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n"), trailingNewline
}

// LineCount returns the number of attributed lines in content.
func LineCount(content string) int {
	lines, _ := splitLines(content)
	return len(lines)
}

func newDocument(content, owner string, ids *int) *document {
	texts, trailing := splitLines(content)
	d := &document{
		lines:           make([]line, 0, len(texts)),
		trailingNewline: trailing,
		nextID:          ids,
	}
	for _, t := range texts {
		d.lines = append(d.lines, d.newLine(t, owner, -1))
	}
	return d
}

func (d *document) newLine(text, owner string, after int) line {
	*d.nextID++
	return line{text: text, owner: owner, id: *d.nextID, after: after}
}

// findMarker returns the id of the first line holding marker as a whole
// token: "// INSERT:mw" does not match a "// INSERT:mw-late" line.
func (d *document) findMarker(marker string) (int, bool) {
	if marker == "" {
		return 0, false
	}
	for _, l := range d.lines {
		if containsToken(l.text, marker) {
			return l.id, true
		}
	}
	return 0, false
}

// containsToken reports whether marker occurs in text without an
// identifier character directly before or after it.
func containsToken(text, marker string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], marker)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(marker)
		if boundaryBefore(text, i, marker) && boundaryAfter(text, end, marker) {
			return true
		}
		start = i + 1
	}
}

func boundaryBefore(text string, i int, marker string) bool {
	if i == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(marker)
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isIdentRune(first) || !isIdentRune(prev)
}

func boundaryAfter(text string, end int, marker string) bool {
	if end == len(text) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(marker)
	next, _ := utf8.DecodeRuneInString(text[end:])
	return !isIdentRune(last) || !isIdentRune(next)
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (d *document) indexOf(id int) int {
	for i, l := range d.lines {
		if l.id == id {
			return i
		}
	}
	return -1
}

// injectAfter splices fragment after the marker line and after any fragment
// injected there before, so earlier add-ons stay closer to the marker.
func (d *document) injectAfter(markerID int, fragment, owner string) {
	texts, _ := splitLines(fragment)
	if len(texts) == 0 {
		return
	}
	pos := d.indexOf(markerID) + 1
	for pos < len(d.lines) && d.lines[pos].after == markerID {
		pos++
	}

	// The marker was the last line and had no newline; the file now
	// continues past it.
	if pos == len(d.lines) && !d.trailingNewline {
		_, fragTrailing := splitLines(fragment)
		d.trailingNewline = fragTrailing
	}

	inserted := make([]line, 0, len(texts))
	for _, t := range texts {
		inserted = append(inserted, d.newLine(t, owner, markerID))
	}
	d.lines = append(d.lines[:pos], append(inserted, d.lines[pos:]...)...)
}

func (d *document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, l := range d.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text)
	}
	if d.trailingNewline {
		b.WriteByte('\n')
	}
	return b.String()
}

func (d *document) attributions() []LineAttribution {
	out := make([]LineAttribution, len(d.lines))
	for i, l := range d.lines {
		out[i] = LineAttribution{Line: i + 1, AddOn: l.owner}
	}
	return out
}
