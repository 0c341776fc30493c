package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/kobzarvs/qpreview/internal/config"
	"github.com/kobzarvs/qpreview/internal/gitinfo"
	"github.com/kobzarvs/qpreview/internal/logger"
	"github.com/kobzarvs/qpreview/internal/preview"
)

// App is the top-level runtime for qpreview.
type App struct {
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	newScreen func() (tcell.Screen, error)
}

func New(args []string) *App {
	return &App{
		args:      args,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newScreen: tcell.NewScreen,
	}
}

func (a *App) Run() error {
	root := &cobra.Command{
		Use:           "qpreview",
		Short:         "Preview proposed edits inline before they touch the file",
		Long:          "qpreview shows a proposed change to a file as inline decorations and lets you accept or reject it hunk by hunk.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("debug", false, "log at debug level")
	root.PersistentFlags().String("patch", "", "unified diff to preview (- reads stdin)")
	root.PersistentFlags().String("proposal", "", "JSON proposal to preview (- reads stdin)")
	root.PersistentFlags().String("new", "", "file holding the proposed content")
	root.PersistentFlags().String("rev", "", "propose the file as recorded at this git revision")
	root.PersistentFlags().Bool("gaps", false, "show markers for unchanged regions between hunks")

	root.AddCommand(a.newPreviewCmd(), a.newRenderCmd(), a.newApplyCmd())
	root.SetArgs(a.args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.Execute()
}

func mustGetBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag %s: %v", name, err))
	}
	return v
}

func mustGetStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag %s: %v", name, err))
	}
	return v
}

// openEngine reads path and proposes the change named by the command's flags.
func (a *App) openEngine(cmd *cobra.Command, cfg config.Config, path string) (*preview.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	opts := preview.Options{
		CharHighlights: cfg.Preview.CharHighlightsEnabled(),
		ShowGaps:       cfg.Preview.ShowGaps || mustGetBoolFlag(cmd, "gaps"),
		Context:        cfg.Preview.Context,
	}
	eng := preview.New(path, string(data), opts, fileCommitter{})
	if err := a.propose(cmd, eng); err != nil {
		return nil, err
	}
	if missed := eng.Missed(); len(missed) > 0 {
		logger.Warn("app: hunks that do not match the file", "path", path, "ids", missed)
	}
	return eng, nil
}

func (a *App) propose(cmd *cobra.Command, eng *preview.Engine) error {
	patch := mustGetStringFlag(cmd, "patch")
	proposal := mustGetStringFlag(cmd, "proposal")
	newFile := mustGetStringFlag(cmd, "new")
	rev := mustGetStringFlag(cmd, "rev")
	n := 0
	for _, v := range []string{patch, proposal, newFile, rev} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of --patch, --proposal, --new or --rev is required")
	}

	switch {
	case patch != "":
		data, err := a.readInput(patch)
		if err != nil {
			return err
		}
		eng.ProposeUnified(inputID(patch), string(data))
	case proposal != "":
		data, err := a.readInput(proposal)
		if err != nil {
			return err
		}
		p, err := preview.ParseProposal(data)
		if err != nil {
			return fmt.Errorf("%s: %w", proposal, err)
		}
		if _, err := eng.Propose(p); err != nil {
			return err
		}
	case rev != "":
		old, err := gitinfo.Show(eng.Path(), rev)
		if err != nil {
			return err
		}
		eng.ProposeTexts(rev, eng.State().Base(), old)
	default:
		data, err := a.readInput(newFile)
		if err != nil {
			return err
		}
		eng.ProposeTexts(inputID(newFile), eng.State().Base(), string(data))
	}
	return nil
}

func (a *App) readInput(name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func inputID(name string) string {
	if name == "-" {
		return "stdin"
	}
	return filepath.Base(name)
}
