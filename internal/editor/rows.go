package editor

import (
	"strings"

	"github.com/kobzarvs/qpreview/internal/chardiff"
	"github.com/kobzarvs/qpreview/internal/decor"
	"github.com/kobzarvs/qpreview/internal/document"
)

type rowKind int

const (
	rowText rowKind = iota
	rowDeleted
	rowGap
)

// row is one screen line. Deleted and gap rows are virtual: they have no text in the
// display document and sit above the line they are anchored to.
type row struct {
	kind rowKind
	// line is the display line of a text row, or the line a virtual row sits above.
	line    int
	text    string
	added   bool
	chars   [][2]int // changed byte ranges within text
	oldLine int
	span    chardiff.Span
	hidden  int
}

// buildRows lays the display document and its decorations out as screen rows. A
// trailing empty line after a final newline is not shown.
func buildRows(doc *document.Doc, decos decor.Set) []row {
	points := map[int][]decor.Decoration{}
	added := map[int]bool{}
	chars := map[int][][2]int{}
	for _, d := range decos.All() {
		switch d.Kind {
		case decor.KindGap, decor.KindDeletedBlock:
			points[d.From] = append(points[d.From], d)
		case decor.KindAddedLine:
			added[doc.LineAt(d.From).Number] = true
		case decor.KindAddedChars:
			line := doc.LineAt(d.From)
			chars[line.Number] = append(chars[line.Number], [2]int{d.From - line.From, d.To - line.From})
		}
	}

	n := doc.LineCount()
	if n > 1 && strings.HasSuffix(doc.Text(), "\n") {
		n--
	}
	rows := make([]row, 0, n+len(points))
	for i := 1; i <= n; i++ {
		line, _ := doc.Line(i)
		rows = appendPoints(rows, points[line.From], i)
		delete(points, line.From)
		rows = append(rows, row{kind: rowText, line: i, text: line.Text, added: added[i], chars: chars[i]})
	}
	// Whatever is left is anchored past the last shown line.
	if rest, ok := points[doc.Len()]; ok {
		rows = appendPoints(rows, rest, n+1)
	}
	return rows
}

func appendPoints(rows []row, decos []decor.Decoration, line int) []row {
	for _, d := range decos {
		switch d.Kind {
		case decor.KindGap:
			rows = append(rows, row{kind: rowGap, line: line, hidden: d.Payload.Hidden})
		case decor.KindDeletedBlock:
			for _, dl := range d.Payload.Deleted {
				rows = append(rows, row{kind: rowDeleted, line: line, text: dl.Text, oldLine: dl.OldLine, span: dl.Span})
			}
		}
	}
	return rows
}

// hunkRows returns the first and last row of the display lines [from, to], including
// deleted rows above them. ok is false when no row falls in the range.
func hunkRows(rows []row, from, to int) (first, last int, ok bool) {
	first, last = -1, -1
	for i, r := range rows {
		if r.kind == rowGap || r.line < from || r.line > to {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last, first >= 0
}
