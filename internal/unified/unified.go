// Package unified parses unified-diff text into line records.
//
// Parse never fails: malformed or empty input yields an empty slice, which callers treat
// as "nothing to preview". Line numbers are 1-indexed; zero means absent.
package unified

import (
	"regexp"
	"strconv"
	"strings"
)

// LineType tags a diff line.
type LineType int

const (
	Context LineType = iota
	Added
	Removed
	Gap
)

func (t LineType) String() string {
	switch t {
	case Context:
		return "context"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Gap:
		return "gap"
	default:
		return "unknown"
	}
}

// Line is one parsed diff line. Added lines carry only NewLine, removed lines only
// OldLine, context lines both, and gap lines neither (they carry HiddenCount instead).
type Line struct {
	Type        LineType
	OldLine     int
	NewLine     int
	Content     string
	HiddenCount int
}

// Hunk is one "@@" block of a unified diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string // text after the closing "@@", usually a function name
	Lines    []Line

	// Set when "\ No newline at end of file" follows the last line of a side.
	OldNoEOL bool
	NewNoEOL bool
}

// OldText rebuilds the old side of the hunk (context and removed lines).
func (h Hunk) OldText() string {
	return h.sideText(Removed, h.OldNoEOL)
}

// NewText rebuilds the new side of the hunk (context and added lines).
func (h Hunk) NewText() string {
	return h.sideText(Added, h.NewNoEOL)
}

func (h Hunk) sideText(kind LineType, noEOL bool) string {
	var b strings.Builder
	n := 0
	for _, l := range h.Lines {
		if l.Type != Context && l.Type != kind {
			continue
		}
		b.WriteString(l.Content)
		b.WriteByte('\n')
		n++
	}
	s := b.String()
	if noEOL && n > 0 {
		s = s[:len(s)-1]
	}
	return s
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

// parseHeader reads "@@ -a[,b] +c[,d] @@". A missing count defaults to 1.
func parseHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	h := Hunk{OldCount: 1, NewCount: 1, Section: strings.TrimSpace(m[5])}
	var err error
	if h.OldStart, err = strconv.Atoi(m[1]); err != nil {
		return Hunk{}, false
	}
	if m[2] != "" {
		if h.OldCount, err = strconv.Atoi(m[2]); err != nil {
			return Hunk{}, false
		}
	}
	if h.NewStart, err = strconv.Atoi(m[3]); err != nil {
		return Hunk{}, false
	}
	if m[4] != "" {
		if h.NewCount, err = strconv.Atoi(m[4]); err != nil {
			return Hunk{}, false
		}
	}
	return h, true
}

// isFileMeta reports lines that belong to the file header rather than a hunk body.
func isFileMeta(line string) bool {
	for _, p := range []string{"diff ", "index ", "--- ", "+++ ", "new file mode", "deleted file mode",
		"old mode", "new mode", "similarity index", "rename from", "rename to", "Binary files"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// ParseHunks splits patch text for a single file into hunks.
func ParseHunks(text string) []Hunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	rows := strings.Split(text, "\n")
	if rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}

	var hunks []Hunk
	var cur *Hunk
	oldNum, newNum := 0, 0
	oldSeen, newSeen := 0, 0
	var last LineType

	flush := func() {
		if cur != nil {
			hunks = append(hunks, *cur)
			cur = nil
		}
	}

	for _, row := range rows {
		row = strings.TrimSuffix(row, "\r")
		if strings.HasPrefix(row, "@@") {
			flush()
			h, ok := parseHeader(row)
			if !ok {
				continue
			}
			cur = &h
			oldNum, newNum = h.OldStart, h.NewStart
			// A zero count means the side is empty and Start names the line before it.
			if h.OldCount == 0 {
				oldNum++
			}
			if h.NewCount == 0 {
				newNum++
			}
			oldSeen, newSeen = 0, 0
			last = Context
			continue
		}
		if cur == nil {
			continue
		}
		if oldSeen >= cur.OldCount && newSeen >= cur.NewCount {
			if isFileMeta(row) {
				flush()
				continue
			}
			if row == "" {
				continue
			}
		}
		if strings.HasPrefix(row, `\`) {
			switch last {
			case Removed:
				cur.OldNoEOL = true
			case Added:
				cur.NewNoEOL = true
			default:
				cur.OldNoEOL = true
				cur.NewNoEOL = true
			}
			continue
		}

		var l Line
		switch {
		case strings.HasPrefix(row, "+"):
			l = Line{Type: Added, NewLine: newNum, Content: row[1:]}
			newNum++
			newSeen++
		case strings.HasPrefix(row, "-"):
			l = Line{Type: Removed, OldLine: oldNum, Content: row[1:]}
			oldNum++
			oldSeen++
		case strings.HasPrefix(row, " "):
			l = Line{Type: Context, OldLine: oldNum, NewLine: newNum, Content: row[1:]}
			oldNum++
			newNum++
			oldSeen++
			newSeen++
		default:
			// Unprefixed body line: some tools strip the leading space of context lines.
			l = Line{Type: Context, OldLine: oldNum, NewLine: newNum, Content: row}
			oldNum++
			newNum++
			oldSeen++
			newSeen++
		}
		last = l.Type
		cur.Lines = append(cur.Lines, l)
	}
	flush()

	out := hunks[:0]
	for _, h := range hunks {
		if len(h.Lines) > 0 {
			out = append(out, h)
		}
	}
	return out
}

// Parse flattens the hunks of a patch into one ordered line sequence, inserting a Gap
// line between two hunks when unchanged lines separate them.
func Parse(text string) []Line {
	return Flatten(ParseHunks(text))
}

// Flatten joins hunks into one sequence with gap markers.
func Flatten(hunks []Hunk) []Line {
	var out []Line
	for i, h := range hunks {
		if i > 0 {
			if hidden := GapBetween(hunks[i-1], h); hidden > 0 {
				out = append(out, Line{Type: Gap, HiddenCount: hidden})
			}
		}
		out = append(out, h.Lines...)
	}
	return out
}

// GapBetween returns the number of unchanged lines between two consecutive hunks,
// taking the larger of the old-side and new-side distances.
func GapBetween(prev, next Hunk) int {
	newGap := next.NewStart - (prev.NewStart + prev.NewCount)
	oldGap := next.OldStart - (prev.OldStart + prev.OldCount)
	return max(newGap, oldGap, 0)
}
