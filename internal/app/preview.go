package app

import (
	"fmt"
	"runtime"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/kobzarvs/qpreview/internal/config"
	"github.com/kobzarvs/qpreview/internal/editor"
	"github.com/kobzarvs/qpreview/internal/gitinfo"
	"github.com/kobzarvs/qpreview/internal/logger"
	"github.com/kobzarvs/qpreview/internal/syntax"
)

func (a *App) newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Review a proposed change interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Preview.Debug || mustGetBoolFlag(cmd, "debug")); err != nil {
				return err
			}
			defer logger.Close()

			eng, err := a.openEngine(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			var checker *syntax.Checker
			if cfg.Preview.SyntaxCheckEnabled() {
				langs, err := config.LoadLanguages()
				if err != nil {
					return err
				}
				checker = syntax.New(langs)
			}
			ed := editor.New(cfg, eng, checker)
			ed.SetGitBranch(gitinfo.Branch(args[0]))
			if missed := eng.Missed(); len(missed) > 0 {
				ed.SetStatusMessage(fmt.Sprintf("%d hunks do not match the file", len(missed)))
			}

			runtime.LockOSThread()
			s, err := a.newScreen()
			if err != nil {
				return err
			}
			if err := s.Init(); err != nil {
				return err
			}
			defer s.Fini()
			return run(s, ed)
		},
	}
}

// run drives ed from screen events until the user quits or the screen is finalized.
func run(s tcell.Screen, ed *editor.Editor) error {
	ed.Render(s)
	for {
		ev := s.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			if ed.HandleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			s.Sync()
		}
		ed.Render(s)
	}
}
