package unified

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const twoHunks = `diff --git a/main.go b/main.go
index 83db48f..bf269f4 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@ package main
 one
-two
+TWO
 three
@@ -15,2 +15,3 @@ func main() {
 fifteen
+inserted
 sixteen
`

func TestParseCountsAndNumbering(t *testing.T) {
	lines := Parse(twoHunks)

	var added, removed, context, gaps int
	for _, l := range lines {
		switch l.Type {
		case Added:
			added++
			require.Zero(t, l.OldLine)
			require.NotZero(t, l.NewLine)
		case Removed:
			removed++
			require.Zero(t, l.NewLine)
			require.NotZero(t, l.OldLine)
		case Context:
			context++
			require.NotZero(t, l.OldLine)
			require.NotZero(t, l.NewLine)
		case Gap:
			gaps++
			require.Zero(t, l.OldLine)
			require.Zero(t, l.NewLine)
		}
	}
	require.Equal(t, 2, added)
	require.Equal(t, 1, removed)
	require.Equal(t, 4, context)
	require.Equal(t, 1, gaps)
	require.Len(t, lines, added+removed+context+gaps)

	lastOld, lastNew := 0, 0
	for _, l := range lines {
		if l.OldLine != 0 {
			require.Greater(t, l.OldLine, lastOld)
			lastOld = l.OldLine
		}
		if l.NewLine != 0 {
			require.Greater(t, l.NewLine, lastNew)
			lastNew = l.NewLine
		}
	}
}

func TestParseLineNumbers(t *testing.T) {
	lines := Parse(twoHunks)
	require.Equal(t, Line{Type: Context, OldLine: 1, NewLine: 1, Content: "one"}, lines[0])
	require.Equal(t, Line{Type: Removed, OldLine: 2, Content: "two"}, lines[1])
	require.Equal(t, Line{Type: Added, NewLine: 2, Content: "TWO"}, lines[2])
	require.Equal(t, Line{Type: Context, OldLine: 3, NewLine: 3, Content: "three"}, lines[3])
	require.Equal(t, Line{Type: Added, NewLine: 16, Content: "inserted"}, lines[6])
}

func TestParseGapSize(t *testing.T) {
	patch := "@@ -1,10 +1,10 @@\n" + repeatContext(10) + "@@ -25,2 +25,2 @@\n a\n b\n"
	lines := Parse(patch)
	var gap *Line
	for i := range lines {
		if lines[i].Type == Gap {
			gap = &lines[i]
		}
	}
	require.NotNil(t, gap)
	// 1 + 10 = 11, next hunk at 25: lines 11..24 are hidden.
	require.Equal(t, 14, gap.HiddenCount)

	patch = "@@ -1,9 +1,9 @@\n" + repeatContext(9) + "@@ -15,1 +15,1 @@\n x\n"
	lines = Parse(patch)
	require.Equal(t, Gap, lines[9].Type)
	require.Equal(t, 5, lines[9].HiddenCount)
}

func TestParseAdjacentHunksHaveNoGap(t *testing.T) {
	patch := "@@ -1,2 +1,2 @@\n a\n-b\n+B\n@@ -3,1 +3,1 @@\n-c\n+C\n"
	for _, l := range Parse(patch) {
		require.NotEqual(t, Gap, l.Type)
	}
}

func TestParseMalformedAndEmpty(t *testing.T) {
	require.Empty(t, Parse(""))
	require.Empty(t, Parse("   \n\n"))
	require.Empty(t, Parse("not a diff at all\njust text\n"))
	require.Empty(t, Parse("@@ garbage @@\n+x\n"))
	require.Empty(t, Parse("--- a/x\n+++ b/x\n"))
}

func TestParseMissingCountDefaultsToOne(t *testing.T) {
	hunks := ParseHunks("@@ -3 +3 @@\n-old\n+new\n")
	require.Len(t, hunks, 1)
	h := hunks[0]
	require.Equal(t, 1, h.OldCount)
	require.Equal(t, 1, h.NewCount)
	require.Equal(t, "old\n", h.OldText())
	require.Equal(t, "new\n", h.NewText())
}

func TestParseNoNewlineMarker(t *testing.T) {
	patch := "@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+B\n\\ No newline at end of file\n"
	hunks := ParseHunks(patch)
	require.Len(t, hunks, 1)
	require.Len(t, hunks[0].Lines, 3)
	require.Equal(t, "a\nb", hunks[0].OldText())
	require.Equal(t, "a\nB", hunks[0].NewText())
}

func TestParseCRLFAndSection(t *testing.T) {
	hunks := ParseHunks("@@ -1,1 +1,1 @@ func f() {\r\n-x\r\n+y\r\n")
	require.Len(t, hunks, 1)
	require.Equal(t, "func f() {", hunks[0].Section)
	require.Equal(t, "x", hunks[0].Lines[0].Content)
}

func TestParsePureInsertion(t *testing.T) {
	hunks := ParseHunks("@@ -2,0 +3,2 @@\n+a\n+b\n")
	require.Len(t, hunks, 1)
	require.Equal(t, 0, hunks[0].OldCount)
	require.Equal(t, Line{Type: Added, NewLine: 3, Content: "a"}, hunks[0].Lines[0])
	require.Equal(t, "", hunks[0].OldText())
}

func TestParseRemovedLineLooksLikeHeader(t *testing.T) {
	// "--- x" is a removed line "-- x" while the hunk still expects old lines.
	hunks := ParseHunks("@@ -1,2 +1,1 @@\n--- x\n keep\n")
	require.Len(t, hunks, 1)
	require.Equal(t, Line{Type: Removed, OldLine: 1, Content: "-- x"}, hunks[0].Lines[0])
}

func TestParseMultipleFilesStopsAtHeader(t *testing.T) {
	patch := "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-x\n+y\ndiff --git a/z b/z\n--- a/z\n+++ b/z\n@@ -1 +1 @@\n-z\n+Z\n"
	hunks := ParseHunks(patch)
	require.Len(t, hunks, 2)
	require.Len(t, hunks[0].Lines, 2)
}

func TestFromTexts(t *testing.T) {
	h := FromTexts("line1\nline2\nline3\n", "line1\nlineTWO\nline3\n")
	require.Equal(t, []Line{
		{Type: Context, OldLine: 1, NewLine: 1, Content: "line1"},
		{Type: Removed, OldLine: 2, Content: "line2"},
		{Type: Added, NewLine: 2, Content: "lineTWO"},
		{Type: Context, OldLine: 3, NewLine: 3, Content: "line3"},
	}, h.Lines)
	require.Equal(t, 3, h.OldCount)
	require.Equal(t, 3, h.NewCount)
	require.Equal(t, "line1\nline2\nline3\n", h.OldText())
	require.Equal(t, "line1\nlineTWO\nline3\n", h.NewText())
}

func TestFromTextsWithoutTrailingNewline(t *testing.T) {
	h := FromTexts("a", "b")
	require.Equal(t, "a", h.OldText())
	require.Equal(t, "b", h.NewText())

	h = FromTexts("", "x\n")
	require.Equal(t, 0, h.OldCount)
	require.Equal(t, 0, h.OldStart)
	require.Equal(t, []Line{{Type: Added, NewLine: 1, Content: "x"}}, h.Lines)
}

func TestSplit(t *testing.T) {
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
	next := "1\nTWO\n3\n4\n5\n6\n7\n8\nNINE\n10\n"
	hunks := Split(FromTexts(old, next), 1)
	require.Len(t, hunks, 2)

	require.Equal(t, 1, hunks[0].OldStart)
	require.Equal(t, 3, hunks[0].OldCount)
	require.Equal(t, "1\n2\n3\n", hunks[0].OldText())
	require.Equal(t, "1\nTWO\n3\n", hunks[0].NewText())

	require.Equal(t, 8, hunks[1].OldStart)
	require.Equal(t, 3, hunks[1].OldCount)
	require.Equal(t, "8\nNINE\n10\n", hunks[1].NewText())

	require.Len(t, Split(FromTexts(old, next), 3), 1)
	require.Empty(t, Split(FromTexts(old, old), 3))
}

func TestSplitPureInsertion(t *testing.T) {
	hunks := Split(FromTexts("a\nb\nc\n", "a\nb\nnew\nc\n"), 0)
	require.Len(t, hunks, 1)
	require.Equal(t, 0, hunks[0].OldCount)
	require.Equal(t, 2, hunks[0].OldStart)
	require.Equal(t, 3, hunks[0].NewStart)
	require.Equal(t, "new\n", hunks[0].NewText())
}

func TestRelative(t *testing.T) {
	hunks := ParseHunks("@@ -10,2 +12,2 @@\n ctx\n-a\n+b\n")
	require.Equal(t, []Line{
		{Type: Context, OldLine: 1, NewLine: 1, Content: "ctx"},
		{Type: Removed, OldLine: 2, Content: "a"},
		{Type: Added, NewLine: 2, Content: "b"},
	}, hunks[0].Relative())
}

func repeatContext(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += " x\n"
	}
	return s
}
