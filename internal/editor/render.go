package editor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

func (e *Editor) Render(s tcell.Screen) {
	e.refresh()
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	statusY := h - 1
	viewHeight := max(h-1, 0)
	e.viewHeight = viewHeight
	e.ensureCursorVisible(viewHeight)

	s.SetStyle(e.styleMain)
	s.Clear()

	gutterWidth := e.gutterWidth()
	for y := 0; y < viewHeight; y++ {
		idx := e.scroll + y
		if idx >= len(e.rows) {
			clearLine(s, y, w, e.styleMain)
			continue
		}
		e.drawRow(s, y, w, gutterWidth, idx)
	}
	e.renderStatusline(s, w, statusY)
	s.HideCursor()
	s.Show()
}

// gutterWidth is " " + digits + " " + marker, or just the marker column when line
// numbers are off.
func (e *Editor) gutterWidth() int {
	if !e.lineNumbers {
		return 2
	}
	maxLine := max(e.engine.Display().LineCount(), 1)
	for _, r := range e.rows {
		maxLine = max(maxLine, r.oldLine)
	}
	digits := max(len(strconv.Itoa(maxLine)), 2)
	return 1 + digits + 1 + 1
}

func (e *Editor) drawRow(s tcell.Screen, y, w, gutterWidth, idx int) {
	r := e.rows[idx]
	active := idx == e.cursor

	base := e.styleMain
	marker, markerStyle := ' ', e.styleMain
	num := 0
	switch r.kind {
	case rowText:
		num = r.line
		if r.added {
			base = e.styleAdded
			marker, markerStyle = '+', e.styleGutterAdded
		}
	case rowDeleted:
		num = r.oldLine
		base = e.styleRemoved
		marker, markerStyle = '-', e.styleGutterRemoved
	case rowGap:
		base = e.styleGap
	}

	if e.lineNumbers {
		numStyle := e.styleLineNumber
		if active {
			numStyle = e.styleLineNumberActive
		}
		if r.kind == rowText && e.problems[r.line] {
			numStyle = e.styleError
		}
		digits := gutterWidth - 3
		numStr := strings.Repeat(" ", digits)
		if num > 0 {
			numStr = fmt.Sprintf("%*d", digits, num)
		}
		s.SetContent(0, y, ' ', nil, e.styleMain)
		for i, ch := range numStr {
			if 1+i >= w {
				break
			}
			s.SetContent(1+i, y, ch, nil, numStyle)
		}
		if gutterWidth-2 < w {
			s.SetContent(gutterWidth-2, y, ' ', nil, e.styleMain)
		}
	} else if r.kind == rowText && e.problems[r.line] {
		marker, markerStyle = '!', e.styleError
	}
	if gutterWidth-1 < w {
		s.SetContent(gutterWidth-1, y, marker, nil, markerStyle)
	}
	if gutterWidth >= w {
		return
	}

	switch r.kind {
	case rowGap:
		e.drawText(s, y, w, gutterWidth, e.gapText(r.hidden), func(int) tcell.Style { return base })
	case rowDeleted:
		e.drawText(s, y, w, gutterWidth, r.text, func(i int) tcell.Style {
			if !r.span.Empty() && i >= r.span.Offset && i < r.span.End() {
				return e.styleRemovedChars
			}
			return base
		})
	default:
		e.drawText(s, y, w, gutterWidth, r.text, func(i int) tcell.Style {
			for _, c := range r.chars {
				if i >= c[0] && i < c[1] {
					return e.styleAddedChars
				}
			}
			return base
		})
	}
}

func (e *Editor) gapText(hidden int) string {
	if strings.Contains(e.gapFormat, "%d") {
		return fmt.Sprintf(e.gapFormat, hidden)
	}
	return fmt.Sprintf("··· %d unchanged lines ···", hidden)
}

// drawText paints text from startX, expanding tabs and honouring wide runes. style
// receives the byte offset of each rune. The rest of the line is filled with the style
// of the last byte.
func (e *Editor) drawText(s tcell.Screen, y, w, startX int, text string, style func(i int) tcell.Style) {
	x := startX
	col := 0
	fill := style(len(text))
	for i, r := range text {
		if x >= w {
			return
		}
		st := style(i)
		if r == '\t' {
			spaces := e.tabWidth - (col % e.tabWidth)
			for j := 0; j < spaces && x < w; j++ {
				s.SetContent(x, y, ' ', nil, st)
				x++
				col++
			}
			continue
		}
		rw := runewidth.RuneWidth(r)
		if rw < 1 {
			rw = 1
		}
		if x+rw > w {
			break
		}
		s.SetContent(x, y, r, nil, st)
		x += rw
		col += rw
	}
	for x < w {
		s.SetContent(x, y, ' ', nil, fill)
		x++
	}
}

func (e *Editor) renderStatusline(s tcell.Screen, w, y int) {
	name := filepath.Base(e.engine.Path())
	if e.engine.Path() == "" {
		name = "[No Name]"
	}
	dirty := ""
	if e.engine.HasChanges() {
		dirty = "*"
	}
	status := fmt.Sprintf(" PREVIEW | %s%s | %s ", name, dirty, e.pendingSummary())
	if e.statusMessage != "" {
		status += "| " + e.statusMessage + " "
	}
	right := ""
	if sum := e.syntaxSummary(); sum != "" {
		right = " " + sum + " |"
	}
	line := 0
	if e.cursor < len(e.rows) {
		line = e.rows[e.cursor].line
	}
	right += fmt.Sprintf(" Ln %d/%d ", line, e.engine.Display().LineCount())
	if e.gitBranch != "" {
		right += "| " + formatGitBranch(e.branchSymbol, e.gitBranch) + " "
	}

	for x, r := range composeStatusLine(status, right, w) {
		if x >= w {
			break
		}
		s.SetContent(x, y, r, nil, e.styleStatus)
	}
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func composeStatusLine(left, right string, width int) []rune {
	if width <= 0 {
		return nil
	}
	leftRunes := []rune(left)
	rightRunes := []rune(right)
	if len(leftRunes)+len(rightRunes) > width {
		if len(rightRunes) >= width {
			rightRunes = rightRunes[len(rightRunes)-width:]
			leftRunes = nil
		} else {
			leftRunes = leftRunes[:width-len(rightRunes)]
		}
	}
	spaceCount := max(width-len(leftRunes)-len(rightRunes), 0)
	line := make([]rune, 0, width)
	line = append(line, leftRunes...)
	for i := 0; i < spaceCount; i++ {
		line = append(line, ' ')
	}
	line = append(line, rightRunes...)
	return line
}
