package document

import (
	"sort"
	"strings"
)

// Line describes one line of a Doc. From and To are byte offsets; To excludes the newline.
type Line struct {
	Number int // 1-indexed
	From   int
	To     int
	Text   string
}

// Doc is an immutable text snapshot with a line index.
type Doc struct {
	text   string
	starts []int
}

func New(text string) *Doc {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Doc{text: text, starts: starts}
}

func (d *Doc) Text() string { return d.text }

func (d *Doc) Len() int { return len(d.text) }

// LineCount counts lines the way an editor shows them: "a\nb\n" has three lines,
// the last one empty.
func (d *Doc) LineCount() int { return len(d.starts) }

// Line returns line n (1-indexed). ok is false when n is out of range.
func (d *Doc) Line(n int) (Line, bool) {
	if n < 1 || n > len(d.starts) {
		return Line{}, false
	}
	from := d.starts[n-1]
	to := len(d.text)
	if n < len(d.starts) {
		to = d.starts[n] - 1
	}
	return Line{Number: n, From: from, To: to, Text: d.text[from:to]}, true
}

// LineAt returns the line containing pos. pos is clamped to the document.
func (d *Doc) LineAt(pos int) Line {
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.text) {
		pos = len(d.text)
	}
	n := sort.Search(len(d.starts), func(i int) bool { return d.starts[i] > pos })
	line, _ := d.Line(n)
	return line
}

// Slice returns text[from:to] with both ends clamped.
func (d *Doc) Slice(from, to int) string {
	from = clamp(from, 0, len(d.text))
	to = clamp(to, from, len(d.text))
	return d.text[from:to]
}

// LineStart returns the offset where line n begins. Lines past the end map to Len.
func (d *Doc) LineStart(n int) int {
	if n < 1 {
		return 0
	}
	if n > len(d.starts) {
		return len(d.text)
	}
	return d.starts[n-1]
}

// LinesEnd returns the offset just past line n including its newline, or Len for the
// last line.
func (d *Doc) LinesEnd(n int) int {
	if n < 1 {
		return 0
	}
	if n >= len(d.starts) {
		return len(d.text)
	}
	return d.starts[n]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
