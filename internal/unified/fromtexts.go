package unified

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FromTexts diffs two texts line by line and returns a single hunk covering both in
// full. Inside each changed run removed lines come before added lines, so a one-line
// replacement yields the removed/added pair the decoration builder treats as a modify.
func FromTexts(oldText, newText string) Hunk {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	h := Hunk{
		OldStart: 1,
		NewStart: 1,
		OldNoEOL: oldText != "" && !strings.HasSuffix(oldText, "\n"),
		NewNoEOL: newText != "" && !strings.HasSuffix(newText, "\n"),
	}
	oldNum, newNum := 1, 1
	var dels, ins []string

	flush := func() {
		for _, s := range dels {
			h.Lines = append(h.Lines, Line{Type: Removed, OldLine: oldNum, Content: s})
			oldNum++
		}
		for _, s := range ins {
			h.Lines = append(h.Lines, Line{Type: Added, NewLine: newNum, Content: s})
			newNum++
		}
		dels, ins = nil, nil
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			dels = append(dels, splitLines(d.Text)...)
		case diffmatchpatch.DiffInsert:
			ins = append(ins, splitLines(d.Text)...)
		case diffmatchpatch.DiffEqual:
			flush()
			for _, s := range splitLines(d.Text) {
				h.Lines = append(h.Lines, Line{Type: Context, OldLine: oldNum, NewLine: newNum, Content: s})
				oldNum++
				newNum++
			}
		}
	}
	flush()

	h.OldCount = oldNum - 1
	h.NewCount = newNum - 1
	if h.OldCount == 0 {
		h.OldStart = 0
	}
	if h.NewCount == 0 {
		h.NewStart = 0
	}
	return h
}

// splitLines cuts text into lines without their terminators. A trailing newline does
// not start an extra line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

// Split cuts h into smaller hunks around its changed lines, keeping up to context
// unchanged lines on each side. Runs whose context would touch are kept together.
func Split(h Hunk, context int) []Hunk {
	if context < 0 {
		context = 0
	}
	type span struct{ from, to int }
	var spans []span
	for i, l := range h.Lines {
		if l.Type != Added && l.Type != Removed {
			continue
		}
		s := span{max(i-context, 0), min(i+context, len(h.Lines)-1)}
		if n := len(spans); n > 0 && s.from <= spans[n-1].to+1 {
			spans[n-1].to = s.to
			continue
		}
		spans = append(spans, s)
	}
	if len(spans) == 0 {
		return nil
	}

	lastOld, lastNew := -1, -1
	for i, l := range h.Lines {
		if l.Type == Context || l.Type == Removed {
			lastOld = i
		}
		if l.Type == Context || l.Type == Added {
			lastNew = i
		}
	}

	// Lines of each side that precede the hunk.
	oldBase := h.OldStart - 1
	if h.OldCount == 0 {
		oldBase = h.OldStart
	}
	newBase := h.NewStart - 1
	if h.NewCount == 0 {
		newBase = h.NewStart
	}

	out := make([]Hunk, 0, len(spans))
	oldSeen, newSeen, next := 0, 0, 0
	for _, s := range spans {
		for ; next < s.from; next++ {
			oldSeen, newSeen = advance(h.Lines[next].Type, oldSeen, newSeen)
		}
		sub := Hunk{Section: h.Section}
		sub.Lines = append([]Line(nil), h.Lines[s.from:s.to+1]...)
		for _, l := range sub.Lines {
			sub.OldCount, sub.NewCount = advance(l.Type, sub.OldCount, sub.NewCount)
		}
		sub.OldStart = oldBase + oldSeen
		if sub.OldCount > 0 {
			sub.OldStart++
		}
		sub.NewStart = newBase + newSeen
		if sub.NewCount > 0 {
			sub.NewStart++
		}
		sub.OldNoEOL = h.OldNoEOL && lastOld >= s.from && lastOld <= s.to
		sub.NewNoEOL = h.NewNoEOL && lastNew >= s.from && lastNew <= s.to
		out = append(out, sub)
	}
	return out
}

func advance(t LineType, oldN, newN int) (int, int) {
	switch t {
	case Context:
		return oldN + 1, newN + 1
	case Removed:
		return oldN + 1, newN
	case Added:
		return oldN, newN + 1
	}
	return oldN, newN
}

// Relative returns a copy of the hunk's lines renumbered so each side starts at 1.
func (h Hunk) Relative() []Line {
	out := make([]Line, 0, len(h.Lines))
	oldNum, newNum := 1, 1
	for _, l := range h.Lines {
		switch l.Type {
		case Context:
			l.OldLine, l.NewLine = oldNum, newNum
			oldNum++
			newNum++
		case Removed:
			l.OldLine, l.NewLine = oldNum, 0
			oldNum++
		case Added:
			l.OldLine, l.NewLine = 0, newNum
			newNum++
		default:
			continue
		}
		out = append(out, l)
	}
	return out
}
