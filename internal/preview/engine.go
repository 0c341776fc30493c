// Package preview is the facade a host editor talks to: it turns proposals into
// pending units, answers render queries and runs the accept/reject/commit commands.
package preview

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/kobzarvs/qpreview/internal/decor"
	"github.com/kobzarvs/qpreview/internal/document"
	"github.com/kobzarvs/qpreview/internal/logger"
	"github.com/kobzarvs/qpreview/internal/overlay"
	"github.com/kobzarvs/qpreview/internal/unified"
	"github.com/kobzarvs/qpreview/internal/vbuf"
)

// Committer persists committed content. The engine itself never writes files.
type Committer interface {
	Commit(path, content string) error
}

type Options struct {
	CharHighlights bool
	ShowGaps       bool
	// Context is the number of unchanged lines kept around each hunk cut from a text
	// pair by ProposeTexts.
	Context int
}

// Span is where a pending unit sits in the display text. From and To are byte offsets
// of its new text; FromLine and ToLine are 1-based display lines.
type Span struct {
	ID       string
	From     int
	To       int
	FromLine int
	ToLine   int
}

type view struct {
	state  *overlay.State
	result vbuf.Result
	doc    *document.Doc
	lines  []unified.Line
	decos  decor.Set
	spans  []Span
}

// Engine previews proposed edits to one file. Commands swap an immutable state, so a
// reader always sees either the old or the new state.
type Engine struct {
	path      string
	opts      Options
	committer Committer
	state     atomic.Pointer[overlay.State]
	view      atomic.Pointer[view]
}

func New(path, base string, opts Options, committer Committer) *Engine {
	e := &Engine{path: path, opts: opts, committer: committer}
	e.state.Store(overlay.New(base))
	return e
}

func (e *Engine) Path() string { return e.path }

func (e *Engine) State() *overlay.State { return e.state.Load() }

func (e *Engine) PendingUnits() []overlay.Unit { return e.state.Load().Pending() }

func (e *Engine) Units() []overlay.Unit { return e.state.Load().Units() }

func (e *Engine) VirtualContent() string { return e.state.Load().VirtualContent() }

func (e *Engine) HasChanges() bool { return e.state.Load().Dirty() }

// Display is the text shown while previewing: the base with every live unit applied.
func (e *Engine) Display() *document.Doc { return e.current().doc }

func (e *Engine) Decorations() decor.Set { return e.current().decos }

// Lines returns the diff lines of the pending units, numbered against the display text
// on the new side and against the base on the old side.
func (e *Engine) Lines() []unified.Line { return e.current().lines }

// Spans lists pending units in display order.
func (e *Engine) Spans() []Span { return e.current().spans }

// Missed lists units that could not be placed in the display text.
func (e *Engine) Missed() []string { return e.current().result.Missed }

func (e *Engine) current() *view {
	st := e.state.Load()
	if v := e.view.Load(); v != nil && v.state == st {
		return v
	}
	v := e.build(st)
	e.view.Store(v)
	return v
}

func (e *Engine) build(st *overlay.State) *view {
	res := st.Display()
	doc := document.New(res.Content)
	lines, spans := e.position(st, res, doc)
	return &view{
		state:  st,
		result: res,
		doc:    doc,
		lines:  lines,
		decos:  decor.Build(lines, doc, decor.Options{CharHighlights: e.opts.CharHighlights}),
		spans:  spans,
	}
}

// position renumbers the pending units' lines against doc and appends, after each
// unit, the unchanged line that follows it so removed lines anchor above it.
func (e *Engine) position(st *overlay.State, res vbuf.Result, doc *document.Doc) ([]unified.Line, []Span) {
	type placed struct {
		unit  overlay.Unit
		start int
	}
	var units []placed
	for _, u := range st.Pending() {
		if start, ok := res.Starts[u.ID]; ok {
			units = append(units, placed{u, start})
		}
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].start < units[j].start })

	var lines []unified.Line
	spans := make([]Span, 0, len(units))
	for i, p := range units {
		span := spanAt(doc, p.unit.ID, p.start, p.start+len(p.unit.Anchor.NewText))
		if e.opts.ShowGaps && i > 0 {
			if hidden := span.FromLine - spans[i-1].ToLine - 1; hidden > 0 {
				lines = append(lines, unified.Line{Type: unified.Gap, HiddenCount: hidden})
			}
		}
		oldShift := max(p.unit.Anchor.FromLine-1, 0)
		for _, l := range p.unit.Lines {
			if l.NewLine > 0 {
				l.NewLine += span.FromLine - 1
			}
			if l.OldLine > 0 {
				l.OldLine += oldShift
			}
			lines = append(lines, l)
		}
		after := span.FromLine + p.unit.NewLineCount()
		if next, ok := doc.Line(after); ok {
			ctx := unified.Line{Type: unified.Context, NewLine: after, Content: next.Text}
			if p.unit.Anchor.FromLine > 0 {
				ctx.OldLine = p.unit.Anchor.FromLine + p.unit.OldLineCount()
			}
			lines = append(lines, ctx)
		}
		spans = append(spans, span)
	}
	return lines, spans
}

func spanAt(doc *document.Doc, id string, from, to int) Span {
	s := Span{ID: id, From: from, To: to, FromLine: doc.LineAt(from).Number}
	s.ToLine = s.FromLine
	if to > from {
		s.ToLine = doc.LineAt(to - 1).Number
	}
	return s
}

// swap runs one transition and publishes its result.
func (e *Engine) swap(name string, f func(*overlay.State) *overlay.State) *overlay.State {
	prev := e.state.Load()
	next := f(prev)
	if next == prev {
		logger.Debug("preview: no-op", "op", name, "path", e.path)
		return prev
	}
	e.state.Store(next)
	logger.Debug("preview: transition", "op", name, "path", e.path,
		"units", len(next.Units()), "pending", len(next.Pending()), "dirty", next.Dirty())
	return next
}

func (e *Engine) Accept(id string) *overlay.State {
	return e.swap("accept", func(s *overlay.State) *overlay.State { return s.Accept(id) })
}

func (e *Engine) Reject(id string) *overlay.State {
	return e.swap("reject", func(s *overlay.State) *overlay.State { return s.Reject(id) })
}

func (e *Engine) AcceptAll() *overlay.State {
	return e.swap("accept_all", (*overlay.State).AcceptAll)
}

func (e *Engine) RejectAll() *overlay.State {
	return e.swap("reject_all", (*overlay.State).RejectAll)
}

func (e *Engine) Discard() *overlay.State {
	return e.swap("discard", (*overlay.State).Discard)
}

// SetBaseContent replaces the base after a file load or reload and drops every unit.
func (e *Engine) SetBaseContent(text string) *overlay.State {
	return e.swap("set_base", func(s *overlay.State) *overlay.State { return s.SetBase(text) })
}

// Commit folds the accepted units into the base and hands the result to the
// committer. When the committer fails the state is left untouched.
func (e *Engine) Commit() error {
	prev := e.state.Load()
	next, content := prev.Commit()
	if next == prev {
		return nil
	}
	if prev.Dirty() && e.committer != nil {
		if err := e.committer.Commit(e.path, content); err != nil {
			logger.Error("preview: commit failed", "path", e.path, "err", err)
			return fmt.Errorf("commit %s: %w", e.path, err)
		}
	}
	e.state.Store(next)
	logger.Info("preview: committed", "path", e.path, "bytes", len(content), "changed", prev.Dirty())
	return nil
}

// Propose replaces every unit with the hunks of p.
func (e *Engine) Propose(p Proposal) (*overlay.State, error) {
	if err := p.Validate(); err != nil {
		return e.state.Load(), err
	}
	if p.Path != "" && e.path != "" && filepath.Clean(p.Path) != filepath.Clean(e.path) &&
		filepath.Base(p.Path) != filepath.Base(e.path) {
		return e.state.Load(), fmt.Errorf("proposal %q targets %s, previewing %s", p.ID, p.Path, e.path)
	}
	st := e.swap("propose", func(s *overlay.State) *overlay.State {
		doc := document.New(s.Base())
		units := make([]overlay.Unit, 0, len(p.Hunks))
		for i, h := range p.Hunks {
			a := overlay.ResolveAnchor(doc, overlay.Anchor{
				FromLine: h.FromLine,
				ToLine:   h.ToLine,
				OldText:  h.OldText,
				NewText:  h.NewText,
			})
			units = append(units, overlay.Unit{
				ID:     p.hunkID(i),
				Anchor: a,
				Lines:  unified.FromTexts(a.OldText, a.NewText).Relative(),
			})
		}
		return s.WithUnits(units)
	})
	logger.Info("preview: proposal", "id", p.ID, "path", e.path, "hunks", len(p.Hunks))
	return st, nil
}

// ProposeUnified replaces every unit with the hunks of a unified diff against the base.
// Text that holds no hunks clears the preview.
func (e *Engine) ProposeUnified(id, patch string) *overlay.State {
	hunks := unified.ParseHunks(patch)
	logger.Info("preview: unified proposal", "id", id, "path", e.path, "hunks", len(hunks))
	return e.proposeHunks(id, hunks)
}

// ProposeTexts diffs oldText against newText and proposes the result, cut into hunks
// with Options.Context lines of context.
func (e *Engine) ProposeTexts(id, oldText, newText string) *overlay.State {
	hunks := unified.Split(unified.FromTexts(oldText, newText), e.opts.Context)
	logger.Info("preview: text proposal", "id", id, "path", e.path, "hunks", len(hunks))
	return e.proposeHunks(id, hunks)
}

func (e *Engine) proposeHunks(id string, hunks []unified.Hunk) *overlay.State {
	return e.swap("propose", func(s *overlay.State) *overlay.State {
		doc := document.New(s.Base())
		units := make([]overlay.Unit, 0, len(hunks))
		for i, h := range hunks {
			from, to := h.OldStart, h.OldStart+h.OldCount-1
			if h.OldCount == 0 {
				from, to = h.OldStart+1, h.OldStart
			}
			units = append(units, overlay.Unit{
				ID: unitID(id, i),
				Anchor: overlay.ResolveAnchor(doc, overlay.Anchor{
					FromLine: from,
					ToLine:   to,
					OldText:  h.OldText(),
					NewText:  h.NewText(),
				}),
				Lines: h.Relative(),
			})
		}
		return s.WithUnits(units)
	})
}

// ApplyEdit records an edit made to the base text while units are previewed. Unit
// ranges move with the text. An edit that keeps the line structure and stays clear of
// every unit is carried into the cached decorations directly instead of rebuilding them.
func (e *Engine) ApplyEdit(cs document.ChangeSet) *overlay.State {
	prev := e.state.Load()
	v := e.view.Load()
	next := e.swap("edit", func(s *overlay.State) *overlay.State { return s.Edit(cs) })
	if next == prev || v == nil || v.state != prev {
		return next
	}
	if nv, ok := e.shift(v, next, cs); ok {
		e.view.Store(nv)
	}
	return next
}

func (e *Engine) shift(v *view, next *overlay.State, cs document.ChangeSet) (*view, bool) {
	base := v.state.Base()
	for _, u := range v.state.Units() {
		if u.Anchor.From < 0 || cs.Touches(u.Anchor.From, u.Anchor.To) {
			return nil, false
		}
	}
	changes := cs.Changes()
	for i, c := range changes {
		if strings.Count(base[min(c.From, len(base)):min(c.To, len(base))], "\n") != strings.Count(c.Insert, "\n") {
			return nil, false
		}
		from, d1 := v.result.Map(c.From, document.AssocBefore)
		to, d2 := v.result.Map(c.To, document.AssocBefore)
		if d1 || d2 {
			return nil, false
		}
		changes[i] = document.Change{From: from, To: to, Insert: c.Insert}
	}
	dcs, err := document.NewChangeSet(changes...)
	if err != nil {
		return nil, false
	}

	res := next.Display()
	doc := document.New(res.Content)
	spans := make([]Span, 0, len(v.spans))
	for _, s := range v.spans {
		from, _ := dcs.MapPos(s.From, document.AssocBefore)
		to, _ := dcs.MapPos(s.To, document.AssocBefore)
		spans = append(spans, spanAt(doc, s.ID, from, to))
	}
	logger.Debug("preview: decorations shifted", "path", e.path, "changes", len(changes))
	return &view{
		state:  next,
		result: res,
		doc:    doc,
		lines:  v.lines,
		decos:  v.decos.Map(dcs),
		spans:  spans,
	}, true
}
