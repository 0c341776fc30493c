// Package overlay holds the accept/reject/commit lifecycle of proposed diff units.
//
// A State is immutable. Every transition returns a new State, or the receiver itself
// when the transition changes nothing, so callers can compare pointers to detect
// no-ops.
package overlay

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kobzarvs/qpreview/internal/document"
	"github.com/kobzarvs/qpreview/internal/unified"
	"github.com/kobzarvs/qpreview/internal/vbuf"
)

type Status int

const (
	Pending Status = iota
	Accepted
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Anchor locates a unit in the base text. FromLine and ToLine are 1-based and
// inclusive; ToLine < FromLine marks an insertion before FromLine. From and To are the
// byte range captured from the base, or -1 when the unit is placed by OldText alone.
type Anchor struct {
	FromLine int
	ToLine   int
	From     int
	To       int
	OldText  string
	NewText  string
}

// Unit is one independently acceptable change. Lines are numbered relative to the
// unit: the first line of each side is 1.
type Unit struct {
	ID     string
	Anchor Anchor
	Status Status
	Lines  []unified.Line
}

func (u Unit) edit() vbuf.Edit {
	return vbuf.Edit{ID: u.ID, From: u.Anchor.From, To: u.Anchor.To, OldText: u.Anchor.OldText, NewText: u.Anchor.NewText}
}

// OldLineCount and NewLineCount count the lines each side of the unit spans.
func (u Unit) OldLineCount() int {
	n := 0
	for _, l := range u.Lines {
		if l.Type == unified.Context || l.Type == unified.Removed {
			n++
		}
	}
	return n
}

func (u Unit) NewLineCount() int {
	n := 0
	for _, l := range u.Lines {
		if l.Type == unified.Context || l.Type == unified.Added {
			n++
		}
	}
	return n
}

// ResolveAnchor fills in the byte range of a from its line range in base. When
// a.OldText is empty it is taken from base. If OldText omits the newline ending the
// range, the range is shortened to match.
func ResolveAnchor(base *document.Doc, a Anchor) Anchor {
	if a.FromLine < 1 {
		a.From, a.To = -1, -1
		return a
	}
	a.From = base.LineStart(a.FromLine)
	a.To = a.From
	if a.ToLine >= a.FromLine {
		a.To = base.LinesEnd(a.ToLine)
	}
	slice := base.Slice(a.From, a.To)
	switch {
	case a.OldText == "":
		a.OldText = slice
	case slice != a.OldText && strings.TrimSuffix(slice, "\n") == a.OldText:
		a.To--
	case a.To == base.Len() && slice+"\n" == a.OldText:
		// The last line has no newline but the proposal assumed one.
		a.OldText = slice
		a.NewText = strings.TrimSuffix(a.NewText, "\n")
	}
	return a
}

// State is one snapshot of the base text and its units.
type State struct {
	base  string
	units []Unit
	dirty bool
}

func New(base string) *State {
	return &State{base: base}
}

func (s *State) Base() string { return s.base }

// Dirty reports whether at least one unit is accepted.
func (s *State) Dirty() bool { return s.dirty }

func (s *State) Units() []Unit { return slices.Clone(s.units) }

func (s *State) Pending() []Unit {
	var out []Unit
	for _, u := range s.units {
		if u.Status == Pending {
			out = append(out, u)
		}
	}
	return out
}

func (s *State) Get(id string) (Unit, bool) {
	if i := s.index(id); i >= 0 {
		return s.units[i], true
	}
	return Unit{}, false
}

func (s *State) index(id string) int {
	return slices.IndexFunc(s.units, func(u Unit) bool { return u.ID == id })
}

func (s *State) with(units []Unit) *State {
	next := &State{base: s.base, units: units}
	for _, u := range units {
		if u.Status == Accepted {
			next.dirty = true
			break
		}
	}
	return next
}

// WithUnits replaces every unit. Rejected units are dropped.
func (s *State) WithUnits(units []Unit) *State {
	kept := make([]Unit, 0, len(units))
	for _, u := range units {
		if u.Status != Rejected {
			kept = append(kept, u)
		}
	}
	if len(kept) == 0 && len(s.units) == 0 {
		return s
	}
	return s.with(kept)
}

// Accept marks id accepted. Unknown or already accepted ids change nothing.
func (s *State) Accept(id string) *State {
	i := s.index(id)
	if i < 0 || s.units[i].Status == Accepted {
		return s
	}
	units := slices.Clone(s.units)
	units[i].Status = Accepted
	return s.with(units)
}

// Reject drops id. Unknown ids change nothing.
func (s *State) Reject(id string) *State {
	i := s.index(id)
	if i < 0 {
		return s
	}
	return s.with(slices.Delete(slices.Clone(s.units), i, i+1))
}

func (s *State) AcceptAll() *State {
	if len(s.Pending()) == 0 {
		return s
	}
	units := slices.Clone(s.units)
	for i := range units {
		units[i].Status = Accepted
	}
	return s.with(units)
}

// RejectAll drops every pending unit and keeps accepted ones.
func (s *State) RejectAll() *State {
	if len(s.Pending()) == 0 {
		return s
	}
	var units []Unit
	for _, u := range s.units {
		if u.Status == Accepted {
			units = append(units, u)
		}
	}
	return s.with(units)
}

// Discard drops every unit and keeps the base.
func (s *State) Discard() *State {
	if len(s.units) == 0 {
		return s
	}
	return New(s.base)
}

// Commit folds accepted units into the base and drops every unit. It returns the new
// base for the caller to persist.
func (s *State) Commit() (*State, string) {
	content := s.VirtualContent()
	if len(s.units) == 0 {
		return s, content
	}
	return New(content), content
}

// SetBase replaces the base text and drops every unit.
func (s *State) SetBase(text string) *State {
	if text == s.base && len(s.units) == 0 {
		return s
	}
	return New(text)
}

// Edit applies cs to the base. Unit ranges move with the text around them; a unit
// whose range was cut by cs falls back to locating its OldText.
func (s *State) Edit(cs document.ChangeSet) *State {
	if cs.Empty() {
		return s
	}
	doc := document.New(cs.Apply(s.base))
	units := slices.Clone(s.units)
	for i := range units {
		a := &units[i].Anchor
		if a.From < 0 {
			continue
		}
		var from, to int
		var d1, d2 bool
		if a.From == a.To {
			from, d1 = cs.MapPos(a.From, document.AssocAfter)
			to = from
		} else {
			from, d1 = cs.MapPos(a.From, document.AssocAfter)
			to, d2 = cs.MapPos(a.To, document.AssocBefore)
		}
		if d1 || d2 || to < from {
			a.From, a.To, a.FromLine, a.ToLine = -1, -1, 0, 0
			continue
		}
		a.From, a.To = from, to
		a.FromLine = doc.LineAt(from).Number
		a.ToLine = a.FromLine - 1
		if to > from {
			a.ToLine = doc.LineAt(to - 1).Number
		}
	}
	next := s.with(units)
	next.base = doc.Text()
	return next
}

// VirtualContent is the base with every accepted unit applied.
func (s *State) VirtualContent() string {
	if !s.dirty {
		return s.base
	}
	return s.compose(func(u Unit) bool { return u.Status == Accepted }).Content
}

// Display composes every live unit, pending and accepted, over the base. It is the text
// an editor shows while the units are previewed.
func (s *State) Display() vbuf.Result {
	return s.compose(func(u Unit) bool { return u.Status != Rejected })
}

func (s *State) compose(keep func(Unit) bool) vbuf.Result {
	var edits []vbuf.Edit
	for _, u := range s.units {
		if keep(u) {
			edits = append(edits, u.edit())
		}
	}
	return vbuf.Compose(s.base, edits)
}
