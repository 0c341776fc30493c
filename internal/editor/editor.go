// Package editor is the terminal surface of a preview session: it paints the display
// text with its decorations and turns keys into engine commands.
package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qpreview/internal/config"
	"github.com/kobzarvs/qpreview/internal/logger"
	"github.com/kobzarvs/qpreview/internal/overlay"
	"github.com/kobzarvs/qpreview/internal/preview"
	"github.com/kobzarvs/qpreview/internal/syntax"
)

const (
	actionMoveUp     = "move_up"
	actionMoveDown   = "move_down"
	actionScrollUp   = "scroll_up"
	actionScrollDown = "scroll_down"
	actionPageUp     = "page_up"
	actionPageDown   = "page_down"
	actionFileStart  = "file_start"
	actionFileEnd    = "file_end"
	actionNextHunk   = "next_hunk"
	actionPrevHunk   = "prev_hunk"
	actionAccept     = "accept_hunk"
	actionReject     = "reject_hunk"
	actionAcceptAll  = "accept_all"
	actionRejectAll  = "reject_all"
	actionDiscard    = "discard"
	actionCommit     = "commit"
	actionQuit       = "quit"
)

type Editor struct {
	engine  *preview.Engine
	checker *syntax.Checker
	keymap  map[string]string

	tabWidth    int
	lineNumbers bool
	gapFormat   string

	// rows are rebuilt whenever the engine state differs from state.
	state    *overlay.State
	rows     []row
	syntax   syntax.Result
	problems map[int]bool // display lines, 1-based

	cursor        int
	scroll        int
	viewHeight    int
	statusMessage string
	gitBranch     string
	branchSymbol  string

	styleMain             tcell.Style
	styleStatus           tcell.Style
	styleLineNumber       tcell.Style
	styleLineNumberActive tcell.Style
	styleAdded            tcell.Style
	styleAddedChars       tcell.Style
	styleRemoved          tcell.Style
	styleRemovedChars     tcell.Style
	styleGap              tcell.Style
	styleGutterAdded      tcell.Style
	styleGutterRemoved    tcell.Style
	styleError            tcell.Style

	actionHook func(action string)
}

// New builds a surface over engine. checker may be nil to skip syntax checks.
func New(cfg config.Config, engine *preview.Engine, checker *syntax.Checker) *Editor {
	keymap := make(map[string]string, len(cfg.Keymap.Preview))
	for k, v := range cfg.Keymap.Preview {
		keymap[k] = v
	}
	tabWidth := cfg.Preview.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	if !cfg.Preview.SyntaxCheckEnabled() {
		checker = nil
	}
	mainFg := parseColor(cfg.Theme.Foreground, tcell.ColorWhite)
	mainBg := parseColor(cfg.Theme.Background, tcell.ColorBlack)
	statusFg := parseColor(cfg.Theme.StatuslineForeground, tcell.ColorBlack)
	statusBg := parseColor(cfg.Theme.StatuslineBackground, tcell.ColorGray)
	lineNumberFg := parseColor(cfg.Theme.LineNumberForeground, tcell.ColorGray)
	lineNumberActiveFg := parseColor(cfg.Theme.LineNumberActiveForeground, mainFg)
	addedBg := parseColor(cfg.Theme.AddedBackground, tcell.ColorDarkGreen)
	addedCharsBg := parseColor(cfg.Theme.AddedCharsBackground, tcell.ColorGreen)
	removedFg := parseColor(cfg.Theme.RemovedForeground, mainFg)
	removedBg := parseColor(cfg.Theme.RemovedBackground, tcell.ColorDarkRed)
	removedCharsBg := parseColor(cfg.Theme.RemovedCharsBackground, tcell.ColorRed)
	gapFg := parseColor(cfg.Theme.GapForeground, tcell.ColorGray)
	gutterAdded := parseColor(cfg.Theme.GutterAdded, tcell.ColorGreen)
	gutterRemoved := parseColor(cfg.Theme.GutterRemoved, tcell.ColorRed)
	errorFg := parseColor(cfg.Theme.ErrorForeground, tcell.ColorRed)

	return &Editor{
		engine:                engine,
		checker:               checker,
		keymap:                keymap,
		tabWidth:              tabWidth,
		lineNumbers:           cfg.Preview.LineNumbers != "off",
		gapFormat:             cfg.Preview.GapFormat,
		branchSymbol:          cfg.Preview.GitBranchSymbol,
		styleMain:             tcell.StyleDefault.Foreground(mainFg).Background(mainBg),
		styleStatus:           tcell.StyleDefault.Foreground(statusFg).Background(statusBg),
		styleLineNumber:       tcell.StyleDefault.Foreground(lineNumberFg).Background(mainBg),
		styleLineNumberActive: tcell.StyleDefault.Foreground(lineNumberActiveFg).Background(mainBg),
		styleAdded:            tcell.StyleDefault.Foreground(mainFg).Background(addedBg),
		styleAddedChars:       tcell.StyleDefault.Foreground(mainFg).Background(addedCharsBg),
		styleRemoved:          tcell.StyleDefault.Foreground(removedFg).Background(removedBg),
		styleRemovedChars:     tcell.StyleDefault.Foreground(removedFg).Background(removedCharsBg),
		styleGap:              tcell.StyleDefault.Foreground(gapFg).Background(mainBg).Italic(true),
		styleGutterAdded:      tcell.StyleDefault.Foreground(gutterAdded).Background(mainBg),
		styleGutterRemoved:    tcell.StyleDefault.Foreground(gutterRemoved).Background(mainBg),
		styleError:            tcell.StyleDefault.Foreground(errorFg).Background(mainBg).Bold(true),
	}
}

func (e *Editor) SetStatusMessage(msg string) {
	e.statusMessage = msg
}

// SetGitBranch shows name in the status line. An empty name hides it.
func (e *Editor) SetGitBranch(name string) {
	e.gitBranch = strings.TrimSpace(name)
}

// refresh rebuilds rows and the syntax result after the engine moved to a new state.
func (e *Editor) refresh() {
	st := e.engine.State()
	if st == e.state && e.rows != nil {
		return
	}
	e.state = st
	doc := e.engine.Display()
	e.rows = buildRows(doc, e.engine.Decorations())
	e.problems = nil
	e.syntax = syntax.Result{}
	if e.checker != nil {
		res, err := e.checker.Check(context.Background(), e.engine.Path(), doc.Text())
		if err != nil {
			logger.Warn("editor: syntax check failed", "path", e.engine.Path(), "err", err)
		}
		e.syntax = res
		if len(res.Problems) > 0 {
			e.problems = make(map[int]bool, len(res.Problems))
			for _, r := range res.Rows() {
				e.problems[r+1] = true
			}
		}
	}
	if e.cursor >= len(e.rows) {
		e.cursor = max(len(e.rows)-1, 0)
	}
}

// HandleKey runs the action bound to ev. It returns true when the session should end.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	e.refresh()
	e.statusMessage = ""
	key := keyString(ev)
	action, ok := e.keymap[key]
	if !ok {
		return false
	}
	if e.actionHook != nil {
		e.actionHook(action)
	}
	return e.execAction(action)
}

func (e *Editor) execAction(action string) bool {
	switch action {
	case actionMoveUp:
		e.moveCursor(-1)
	case actionMoveDown:
		e.moveCursor(1)
	case actionScrollUp:
		e.scroll = max(e.scroll-1, 0)
	case actionScrollDown:
		e.scroll = min(e.scroll+1, max(len(e.rows)-1, 0))
	case actionPageUp:
		e.moveCursor(-max(e.viewHeight-1, 1))
	case actionPageDown:
		e.moveCursor(max(e.viewHeight-1, 1))
	case actionFileStart:
		e.cursor = 0
	case actionFileEnd:
		e.cursor = max(len(e.rows)-1, 0)
	case actionNextHunk:
		e.jumpHunk(1)
	case actionPrevHunk:
		e.jumpHunk(-1)
	case actionAccept:
		if id, ok := e.currentHunk(); ok {
			e.engine.Accept(id)
			e.setStatus("accepted " + id)
		}
	case actionReject:
		if id, ok := e.currentHunk(); ok {
			e.engine.Reject(id)
			e.setStatus("rejected " + id)
		}
	case actionAcceptAll:
		e.engine.AcceptAll()
		e.setStatus("accepted all")
	case actionRejectAll:
		e.engine.RejectAll()
		e.setStatus("rejected pending")
	case actionDiscard:
		e.engine.Discard()
		e.setStatus("discarded")
	case actionCommit:
		if err := e.engine.Commit(); err != nil {
			e.setStatus(err.Error())
			break
		}
		e.setStatus("committed " + filepath.Base(e.engine.Path()))
	case actionQuit:
		return true
	default:
		logger.Debug("editor: unknown action", "action", action)
	}
	e.refresh()
	return false
}

func (e *Editor) setStatus(msg string) {
	e.statusMessage = msg
}

func (e *Editor) moveCursor(delta int) {
	e.cursor = clampRange(e.cursor+delta, 0, max(len(e.rows)-1, 0))
}

// jumpHunk moves the cursor to the first row of the next (dir > 0) or previous pending
// unit.
func (e *Editor) jumpHunk(dir int) {
	spans := e.engine.Spans()
	if dir > 0 {
		for _, s := range spans {
			if first, _, ok := hunkRows(e.rows, s.FromLine, s.ToLine); ok && first > e.cursor {
				e.cursor = first
				return
			}
		}
		return
	}
	for i := len(spans) - 1; i >= 0; i-- {
		if first, _, ok := hunkRows(e.rows, spans[i].FromLine, spans[i].ToLine); ok && first < e.cursor {
			e.cursor = first
			return
		}
	}
}

// currentHunk is the pending unit under the cursor, or else the next one below it, or
// else the last one.
func (e *Editor) currentHunk() (string, bool) {
	spans := e.engine.Spans()
	if len(spans) == 0 {
		return "", false
	}
	for _, s := range spans {
		if _, last, ok := hunkRows(e.rows, s.FromLine, s.ToLine); ok && e.cursor <= last {
			return s.ID, true
		}
	}
	return spans[len(spans)-1].ID, true
}

func (e *Editor) ensureCursorVisible(viewHeight int) {
	if viewHeight <= 0 {
		return
	}
	if e.cursor < e.scroll {
		e.scroll = e.cursor
		return
	}
	if e.cursor >= e.scroll+viewHeight {
		e.scroll = e.cursor - viewHeight + 1
	}
}

func (e *Editor) pendingSummary() string {
	pending, accepted := 0, 0
	for _, u := range e.engine.Units() {
		switch u.Status {
		case overlay.Pending:
			pending++
		case overlay.Accepted:
			accepted++
		}
	}
	return fmt.Sprintf("%d pending, %d accepted", pending, accepted)
}

func (e *Editor) syntaxSummary() string {
	if !e.syntax.Checked {
		return ""
	}
	if e.syntax.OK() {
		return e.syntax.Language + " ok"
	}
	rows := e.syntax.Rows()
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strconv.Itoa(r+1))
	}
	return fmt.Sprintf("%s errors: %s", e.syntax.Language, strings.Join(lines, ","))
}

func formatGitBranch(symbol, branch string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		symbol = "git:"
	}
	if strings.HasSuffix(symbol, ":") {
		return symbol + branch
	}
	return symbol + " " + branch
}

func clampRange(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
