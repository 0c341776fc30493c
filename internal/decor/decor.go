// Package decor turns parsed diff lines into decorations anchored at document offsets.
package decor

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kobzarvs/qpreview/internal/chardiff"
	"github.com/kobzarvs/qpreview/internal/document"
	"github.com/kobzarvs/qpreview/internal/unified"
)

// Kind orders decorations that share a range: markers drawn above a line come first.
type Kind int

const (
	KindGap Kind = iota
	KindDeletedBlock
	KindAddedLine
	KindAddedChars
)

func (k Kind) String() string {
	switch k {
	case KindGap:
		return "gap"
	case KindDeletedBlock:
		return "deleted"
	case KindAddedLine:
		return "added-line"
	case KindAddedChars:
		return "added-chars"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Point kinds sit between characters; range kinds cover text.
func (k Kind) isPoint() bool { return k == KindGap || k == KindDeletedBlock }

// DeletedLine is one old line shown inside a deleted block. Span marks the changed
// characters when the line was paired with a replacement.
type DeletedLine struct {
	Text    string
	OldLine int
	Span    chardiff.Span
}

type Payload struct {
	Deleted []DeletedLine // KindDeletedBlock
	Hidden  int           // KindGap
	NewLine int           // KindAddedLine, KindAddedChars
}

// Decoration is one overlay record. Point kinds have From == To.
type Decoration struct {
	From    int
	To      int
	Kind    Kind
	Payload Payload
}

func (d Decoration) Equal(o Decoration) bool {
	return d.From == o.From && d.To == o.To && d.Kind == o.Kind &&
		d.Payload.Hidden == o.Payload.Hidden && d.Payload.NewLine == o.Payload.NewLine &&
		slices.Equal(d.Payload.Deleted, o.Payload.Deleted)
}

func (d Decoration) String() string {
	switch d.Kind {
	case KindGap:
		return fmt.Sprintf("%s@%d hidden=%d", d.Kind, d.From, d.Payload.Hidden)
	case KindDeletedBlock:
		return fmt.Sprintf("%s@%d lines=%d", d.Kind, d.From, len(d.Payload.Deleted))
	default:
		return fmt.Sprintf("%s[%d:%d] line=%d", d.Kind, d.From, d.To, d.Payload.NewLine)
	}
}

// Document is the read side of the live document the decorations are built against.
type Document interface {
	LineCount() int
	Line(n int) (document.Line, bool)
	Len() int
}

type Options struct {
	CharHighlights bool
}

// Build maps lines onto doc. NewLine numbers refer to doc's lines; lines that fall
// outside doc are skipped.
func Build(lines []unified.Line, doc Document, opts Options) Set {
	var out []Decoration
	blocks := map[int]int{} // anchor -> index in out, deleted blocks
	gaps := map[int]int{}

	for i, l := range lines {
		switch l.Type {
		case unified.Added:
			line, ok := doc.Line(l.NewLine)
			if !ok {
				continue
			}
			out = append(out, Decoration{From: line.From, To: line.To, Kind: KindAddedLine,
				Payload: Payload{NewLine: l.NewLine}})
			if !opts.CharHighlights || i == 0 || lines[i-1].Type != unified.Removed {
				continue
			}
			_, span := chardiff.Compute(lines[i-1].Content, l.Content)
			if span.Empty() {
				continue
			}
			from := min(line.From+span.Offset, line.To)
			to := min(line.From+span.End(), line.To)
			if from < to {
				out = append(out, Decoration{From: from, To: to, Kind: KindAddedChars,
					Payload: Payload{NewLine: l.NewLine}})
			}

		case unified.Removed:
			at := anchorAfter(lines, i, doc)
			dl := DeletedLine{Text: l.Content, OldLine: l.OldLine}
			if opts.CharHighlights && i+1 < len(lines) && lines[i+1].Type == unified.Added {
				dl.Span, _ = chardiff.Compute(l.Content, lines[i+1].Content)
			}
			if idx, ok := blocks[at]; ok {
				out[idx].Payload.Deleted = append(out[idx].Payload.Deleted, dl)
				continue
			}
			blocks[at] = len(out)
			out = append(out, Decoration{From: at, To: at, Kind: KindDeletedBlock,
				Payload: Payload{Deleted: []DeletedLine{dl}}})

		case unified.Gap:
			at := anchorAfter(lines, i, doc)
			if idx, ok := gaps[at]; ok {
				out[idx].Payload.Hidden += l.HiddenCount
				continue
			}
			gaps[at] = len(out)
			out = append(out, Decoration{From: at, To: at, Kind: KindGap,
				Payload: Payload{Hidden: l.HiddenCount}})
		}
	}
	return NewSet(out)
}

// anchorAfter returns the start of the first line after lines[i] that exists in the new
// text, clamped to the end of doc.
func anchorAfter(lines []unified.Line, i int, doc Document) int {
	for _, l := range lines[i+1:] {
		if l.NewLine == 0 {
			continue
		}
		if line, ok := doc.Line(l.NewLine); ok {
			return line.From
		}
		return doc.Len()
	}
	return doc.Len()
}

func less(a, b Decoration) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	if a.To != b.To {
		return a.To < b.To
	}
	return a.Kind < b.Kind
}

// Set is a sorted decoration list for one render pass.
type Set struct {
	decos []Decoration
}

// NewSet sorts decos by (From, To, Kind). It panics if two records of one kind overlap.
func NewSet(decos []Decoration) Set {
	sorted := make([]Decoration, len(decos))
	copy(sorted, decos)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if err := check(sorted); err != nil {
		panic(err)
	}
	return Set{decos: sorted}
}

func check(decos []Decoration) error {
	last := map[Kind]Decoration{}
	for i, d := range decos {
		if d.To < d.From {
			return fmt.Errorf("decor: inverted range %s", d)
		}
		if i > 0 && !less(decos[i-1], d) {
			return fmt.Errorf("decor: unordered records %s, %s", decos[i-1], d)
		}
		if prev, ok := last[d.Kind]; ok && overlaps(prev, d) {
			return fmt.Errorf("decor: overlapping %s records at %d", d.Kind, d.From)
		}
		last[d.Kind] = d
	}
	return nil
}

// overlaps reports whether d, sorted after prev and of the same kind, collides with it.
func overlaps(prev, d Decoration) bool {
	if d.Kind.isPoint() {
		return d.From <= prev.From
	}
	return d.From < prev.To || (d.From == prev.From && d.To == prev.To)
}

func (s Set) Len() int { return len(s.decos) }

func (s Set) All() []Decoration {
	return slices.Clone(s.decos)
}

// Between returns records that intersect [from, to].
func (s Set) Between(from, to int) []Decoration {
	var out []Decoration
	for _, d := range s.decos {
		if d.From > to {
			break
		}
		if d.To >= from {
			out = append(out, d)
		}
	}
	return out
}

func (s Set) Equal(o Set) bool {
	return slices.EqualFunc(s.decos, o.decos, Decoration.Equal)
}

// Map re-expresses the set after cs was applied to the document. Point records and
// range starts stick before inserted text, range ends after it. A record whose anchor
// was inside deleted text is dropped, as is one that would now overlap its predecessor.
func (s Set) Map(cs document.ChangeSet) Set {
	if cs.Empty() {
		return s
	}
	mapped := make([]Decoration, 0, len(s.decos))
	for _, d := range s.decos {
		from, deleted := cs.MapPos(d.From, document.AssocBefore)
		if deleted {
			continue
		}
		if d.Kind.isPoint() {
			d.From, d.To = from, from
			mapped = append(mapped, d)
			continue
		}
		to, deleted := cs.MapPos(d.To, document.AssocAfter)
		if deleted || to < from {
			continue
		}
		d.From, d.To = from, to
		mapped = append(mapped, d)
	}
	sort.SliceStable(mapped, func(i, j int) bool { return less(mapped[i], mapped[j]) })

	out := mapped[:0]
	last := map[Kind]Decoration{}
	for _, d := range mapped {
		if prev, ok := last[d.Kind]; ok && overlaps(prev, d) {
			continue
		}
		last[d.Kind] = d
		out = append(out, d)
	}
	return Set{decos: out}
}
