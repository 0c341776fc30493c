package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kobzarvs/qpreview/internal/config"
	"github.com/kobzarvs/qpreview/internal/decor"
	"github.com/kobzarvs/qpreview/internal/logger"
	"github.com/kobzarvs/qpreview/internal/preview"
)

// batchEngine is the shared setup of the non-interactive commands. They log to stderr
// so stdout carries only their output.
func (a *App) batchEngine(cmd *cobra.Command, path string) (*preview.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.InitWriter(a.stderr, cfg.Preview.Debug || mustGetBoolFlag(cmd, "debug"))
	return a.openEngine(cmd, cfg, path)
}

func (a *App) newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE",
		Short: "Print the hunks and decorations of a proposed change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.batchEngine(cmd, args[0])
			if err != nil {
				return err
			}
			return writeRender(cmd.OutOrStdout(), eng)
		},
	}
}

func writeRender(w io.Writer, eng *preview.Engine) error {
	var b strings.Builder
	for _, s := range eng.Spans() {
		fmt.Fprintf(&b, "hunk %s lines %d-%d\n", s.ID, s.FromLine, s.ToLine)
	}
	for _, id := range eng.Missed() {
		fmt.Fprintf(&b, "missed %s\n", id)
	}
	for _, d := range eng.Decorations().All() {
		fmt.Fprintf(&b, "%s\n", d)
		if d.Kind != decor.KindDeletedBlock {
			continue
		}
		for _, dl := range d.Payload.Deleted {
			fmt.Fprintf(&b, "\t-%d %s\n", dl.OldLine, dl.Text)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (a *App) newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Accept hunks of a proposed change and print or write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.batchEngine(cmd, args[0])
			if err != nil {
				return err
			}
			hunks, err := cmd.Flags().GetStringSlice("hunks")
			if err != nil {
				return err
			}
			if err := acceptHunks(eng, hunks); err != nil {
				return err
			}
			write, err := cmd.Flags().GetBool("write")
			if err != nil {
				return err
			}
			if !write {
				_, err := io.WriteString(cmd.OutOrStdout(), eng.VirtualContent())
				return err
			}
			changed := eng.HasChanges()
			if err := eng.Commit(); err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("hunks", nil, "hunk ids to accept (default: all)")
	cmd.Flags().Bool("write", false, "write the result back to FILE")
	return cmd
}

func acceptHunks(eng *preview.Engine, ids []string) error {
	if len(ids) == 0 {
		eng.AcceptAll()
		return nil
	}
	pending := map[string]bool{}
	for _, u := range eng.PendingUnits() {
		pending[u.ID] = true
	}
	for _, id := range ids {
		if !pending[id] {
			return fmt.Errorf("unknown hunk %q", id)
		}
	}
	for _, id := range ids {
		eng.Accept(id)
	}
	return nil
}
