package vbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kobzarvs/qpreview/internal/document"
	"github.com/kobzarvs/qpreview/internal/logger"
)

const base = "line1\nline2\nline3\n"

func TestComposeAnchored(t *testing.T) {
	res := Compose(base, []Edit{{ID: "a", From: 6, To: 11, OldText: "line2", NewText: "lineTWO"}})
	require.Equal(t, "line1\nlineTWO\nline3\n", res.Content)
	require.Equal(t, []string{"a"}, res.Applied)
	require.Empty(t, res.Missed)
	require.Equal(t, 6, res.Starts["a"])
}

func TestComposeKeepsOrderAndShiftsLaterAnchors(t *testing.T) {
	res := Compose(base, []Edit{
		{ID: "top", From: 0, To: 0, NewText: "header\n"},
		{ID: "mid", From: 6, To: 12, OldText: "line2\n", NewText: ""},
		{ID: "end", From: 18, To: 18, NewText: "line4\n"},
	})
	require.Equal(t, "header\nline1\nline3\nline4\n", res.Content)
	require.Equal(t, []string{"top", "mid", "end"}, res.Applied)
	require.Equal(t, 0, res.Starts["top"])
	require.Equal(t, 13, res.Starts["mid"])
	require.Equal(t, 19, res.Starts["end"])
}

func TestComposeRepeatedTextUsesAnchor(t *testing.T) {
	text := "x = 1\nx = 1\n"
	res := Compose(text, []Edit{{ID: "second", From: 6, To: 11, OldText: "x = 1", NewText: "x = 2"}})
	require.Equal(t, "x = 1\nx = 2\n", res.Content)
}

func TestComposeFallsBackToSearch(t *testing.T) {
	res := Compose(base, []Edit{{ID: "a", From: -1, OldText: "line3", NewText: "LINE3"}})
	require.Equal(t, "line1\nline2\nLINE3\n", res.Content)
	require.Equal(t, 12, res.Starts["a"])

	// A stale location is ignored in favour of the text.
	res = Compose(base, []Edit{{ID: "b", From: 0, To: 5, OldText: "line2", NewText: "two"}})
	require.Equal(t, "line1\ntwo\nline3\n", res.Content)
}

func TestComposeMissIsSkipped(t *testing.T) {
	res := Compose(base, []Edit{
		{ID: "gone", From: -1, OldText: "nowhere", NewText: "x"},
		{ID: "empty", From: -1, OldText: "", NewText: "x"},
		{ID: "ok", From: 0, To: 5, OldText: "line1", NewText: "one"},
	})
	require.Equal(t, "one\nline2\nline3\n", res.Content)
	require.Equal(t, []string{"gone", "empty"}, res.Missed)
	require.Equal(t, []string{"ok"}, res.Applied)
	_, ok := res.Starts["gone"]
	require.False(t, ok)
}

func TestComposeOverlappingEditsFallBack(t *testing.T) {
	res := Compose(base, []Edit{
		{ID: "a", From: 0, To: 11, OldText: "line1\nline2", NewText: "merged"},
		{ID: "b", From: 6, To: 11, OldText: "line2", NewText: "two"},
	})
	require.Equal(t, "merged\nline3\n", res.Content)
	require.Equal(t, []string{"b"}, res.Missed)
}

func TestResultMap(t *testing.T) {
	res := Compose(base, []Edit{{ID: "a", From: 0, To: 0, NewText: ">>"}})
	pos, deleted := res.Map(6, document.AssocBefore)
	require.False(t, deleted)
	require.Equal(t, 8, pos)
}

func TestComposeMissLogsWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })

	Compose(base, []Edit{{ID: "gone", From: -1, OldText: "nowhere", NewText: "x"}})
	entries := logs.FilterMessage("compose: anchor miss").All()
	require.Len(t, entries, 1)
	require.Equal(t, "gone", entries[0].ContextMap()["id"])
}
