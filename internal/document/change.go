package document

import (
	"fmt"
	"sort"
	"strings"
)

// Assoc selects which side of an insertion a mapped position sticks to.
type Assoc int

const (
	AssocBefore Assoc = -1
	AssocAfter  Assoc = 1
)

// Change replaces the range [From, To) of the pre-edit text with Insert.
type Change struct {
	From   int
	To     int
	Insert string
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	if c.From == c.To {
		return fmt.Sprintf("Insert(%d, %q)", c.From, c.Insert)
	}
	if c.Insert == "" {
		return fmt.Sprintf("Delete[%d:%d]", c.From, c.To)
	}
	return fmt.Sprintf("Replace[%d:%d] with %q", c.From, c.To, c.Insert)
}

// ChangeSet is one edit transaction: sorted, non-overlapping changes expressed in the
// pre-edit offset space.
type ChangeSet struct {
	changes []Change
}

// NewChangeSet validates and sorts changes. Changes may touch but not overlap, and at
// most one insertion may sit at a given offset.
func NewChangeSet(changes ...Change) (ChangeSet, error) {
	sorted := make([]Change, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		return sorted[i].To < sorted[j].To
	})
	for i, c := range sorted {
		if c.From < 0 || c.To < c.From {
			return ChangeSet{}, fmt.Errorf("invalid change %s", c)
		}
		if i > 0 {
			prev := sorted[i-1]
			if c.From < prev.To || (c.From == prev.From && prev.From == prev.To && c.From == c.To) {
				return ChangeSet{}, fmt.Errorf("overlapping changes %s and %s", prev, c)
			}
		}
	}
	return ChangeSet{changes: sorted}, nil
}

// Single builds a change set holding exactly one change. It panics on an invalid range.
func Single(from, to int, insert string) ChangeSet {
	cs, err := NewChangeSet(Change{From: from, To: to, Insert: insert})
	if err != nil {
		panic(err)
	}
	return cs
}

func (cs ChangeSet) Empty() bool { return len(cs.changes) == 0 }

func (cs ChangeSet) Changes() []Change {
	out := make([]Change, len(cs.changes))
	copy(out, cs.changes)
	return out
}

// Apply returns text with every change applied. Ranges past the end of text are clamped.
func (cs ChangeSet) Apply(text string) string {
	if len(cs.changes) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, c := range cs.changes {
		from := clamp(c.From, pos, len(text))
		to := clamp(c.To, from, len(text))
		b.WriteString(text[pos:from])
		b.WriteString(c.Insert)
		pos = to
	}
	b.WriteString(text[pos:])
	return b.String()
}

// ApplyDoc applies the change set to d and returns the new snapshot.
func (cs ChangeSet) ApplyDoc(d *Doc) *Doc {
	if cs.Empty() {
		return d
	}
	return New(cs.Apply(d.Text()))
}

// MapPos re-expresses a pre-edit offset in the post-edit offset space. deleted reports
// that pos sat strictly inside a replaced range; the returned offset is then the start of
// the replacement and callers should not trust it.
func (cs ChangeSet) MapPos(pos int, assoc Assoc) (mapped int, deleted bool) {
	delta := 0
	for _, c := range cs.changes {
		if pos < c.From {
			break
		}
		if c.From == c.To {
			if pos == c.From && assoc == AssocBefore {
				break
			}
			delta += len(c.Insert)
			continue
		}
		if pos == c.From {
			if assoc == AssocBefore {
				return c.From + delta, false
			}
			return c.From + delta + len(c.Insert), false
		}
		if pos < c.To {
			return c.From + delta, true
		}
		delta += len(c.Insert) - (c.To - c.From)
	}
	return pos + delta, false
}

// Touches reports whether any change overlaps or abuts [from, to].
func (cs ChangeSet) Touches(from, to int) bool {
	for _, c := range cs.changes {
		if c.From <= to && c.To >= from {
			return true
		}
	}
	return false
}
