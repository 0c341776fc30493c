// Package vbuf composes a base text with an ordered list of replacements.
package vbuf

import (
	"strings"

	"github.com/kobzarvs/qpreview/internal/document"
	"github.com/kobzarvs/qpreview/internal/logger"
)

// Edit replaces OldText with NewText. From and To locate OldText in the base text the
// edit was created against; From < 0 means the edit carries no location and is placed
// by searching for OldText.
type Edit struct {
	ID      string
	From    int
	To      int
	OldText string
	NewText string
}

// Result is the outcome of Compose.
type Result struct {
	Content string
	Applied []string
	Missed  []string
	// Starts holds, per applied edit, the offset in Content where its NewText begins.
	Starts map[string]int

	steps []document.ChangeSet
}

// Map translates an offset of the base text into Content. deleted reports that pos was
// inside text replaced by one of the edits.
func (r Result) Map(pos int, assoc document.Assoc) (int, bool) {
	deleted := false
	for _, cs := range r.steps {
		var d bool
		pos, d = cs.MapPos(pos, assoc)
		deleted = deleted || d
	}
	return pos, deleted
}

// Compose applies edits to base in order. An edit is placed at its recorded location
// when that location, carried through the edits applied before it, still holds OldText;
// otherwise at the first occurrence of OldText. An edit that cannot be placed is
// skipped and reported in Missed.
func Compose(base string, edits []Edit) Result {
	res := Result{Content: base, Starts: make(map[string]int, len(edits))}
	starts := make([]int, 0, len(edits))
	for _, e := range edits {
		from, to, ok := locate(res, e)
		if !ok {
			logger.Warn("compose: anchor miss", "id", e.ID, "old_len", len(e.OldText))
			res.Missed = append(res.Missed, e.ID)
			continue
		}
		cs := document.Single(from, to, e.NewText)
		res.Content = cs.Apply(res.Content)
		// Earlier starts move with this edit; text inserted exactly at a start goes before it.
		for i, s := range starts {
			starts[i], _ = cs.MapPos(s, document.AssocAfter)
		}
		res.steps = append(res.steps, cs)
		res.Applied = append(res.Applied, e.ID)
		starts = append(starts, from)
	}
	for i, id := range res.Applied {
		res.Starts[id] = starts[i]
	}
	return res
}

// locate finds the range of res.Content that e replaces.
func locate(res Result, e Edit) (from, to int, ok bool) {
	if e.From >= 0 && e.To >= e.From {
		if from, to, ok = carry(res, e); ok && res.Content[from:to] == e.OldText {
			return from, to, true
		}
	}
	if e.OldText == "" {
		return 0, 0, false
	}
	idx := strings.Index(res.Content, e.OldText)
	if idx < 0 {
		return 0, 0, false
	}
	logger.Debug("compose: placed by search", "id", e.ID, "at", idx)
	return idx, idx + len(e.OldText), true
}

// carry maps the recorded range of e through the edits applied so far.
func carry(res Result, e Edit) (int, int, bool) {
	if e.From == e.To {
		at, deleted := res.Map(e.From, document.AssocAfter)
		if deleted || at > len(res.Content) {
			return 0, 0, false
		}
		return at, at, true
	}
	from, d1 := res.Map(e.From, document.AssocAfter)
	to, d2 := res.Map(e.To, document.AssocBefore)
	if d1 || d2 || to < from || to > len(res.Content) {
		return 0, 0, false
	}
	return from, to, true
}
