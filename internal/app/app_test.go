package app

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qpreview/internal/config"
	"github.com/kobzarvs/qpreview/internal/editor"
	"github.com/kobzarvs/qpreview/internal/logger"
	"github.com/kobzarvs/qpreview/internal/preview"
)

const (
	baseText = "line1\nline2\nline3\n"
	onePatch = "--- a/f.txt\n+++ b/f.txt\n@@ -2 +2 @@\n-line2\n+lineTWO\n"
	twoPatch = "@@ -1 +1 @@\n-line1\n+LINE1\n@@ -3 +3 @@\n-line3\n+LINE3\n"
)

type testEnv struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("QPREVIEW_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { logger.Replace(nil) })
	return &testEnv{dir: t.TempDir()}
}

func (env *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(env.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (env *testEnv) run(stdin string, args ...string) error {
	a := New(args)
	a.stdin = strings.NewReader(stdin)
	a.stdout = &env.stdout
	a.stderr = &env.stderr
	return a.Run()
}

func TestApplyPrintsVirtualContent(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	patch := env.write(t, "p.diff", onePatch)

	if err := env.run("", "apply", file, "--patch", patch); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.stdout.String(); got != "line1\nlineTWO\nline3\n" {
		t.Fatalf("stdout = %q", got)
	}
	data, _ := os.ReadFile(file)
	if string(data) != baseText {
		t.Fatalf("file changed without --write: %q", data)
	}
}

func TestApplyWritesSelectedHunks(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	patch := env.write(t, "two.diff", twoPatch)

	if err := env.run("", "apply", file, "--patch", patch, "--hunks", "two.diff#2", "--write"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "line1\nline2\nLINE3\n" {
		t.Fatalf("file = %q", data)
	}
	if !strings.Contains(env.stderr.String(), "wrote "+file) {
		t.Fatalf("stderr = %q, want wrote message", env.stderr.String())
	}
}

func TestApplyUnknownHunk(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	patch := env.write(t, "p.diff", onePatch)

	err := env.run("", "apply", file, "--patch", patch, "--hunks", "nope")
	if err == nil || !strings.Contains(err.Error(), `unknown hunk "nope"`) {
		t.Fatalf("err = %v, want unknown hunk", err)
	}
}

func TestApplyProposalFromStdin(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	proposal := `{"id":"p","path":"f.txt","hunks":[{"id":"h","from_line":3,"to_line":3,"new_text":"third\n"}]}`

	if err := env.run(proposal, "apply", file, "--proposal", "-"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.stdout.String(); got != "line1\nline2\nthird\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestApplyNewText(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	next := env.write(t, "next.txt", "line1\nline2\nline3\nline4\n")

	if err := env.run("", "apply", file, "--new", next); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.stdout.String(); got != "line1\nline2\nline3\nline4\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestApplyRestoresRevision(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
		{"config", "commit.gpgsign", "false"},
		{"add", "f.txt"},
		{"commit", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = env.dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	env.write(t, "f.txt", "line1\nedited\nline3\n")

	if err := env.run("", "render", file, "--rev", "HEAD"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := env.stdout.String(); !strings.HasPrefix(got, "hunk HEAD#1 lines 1-3\n") {
		t.Fatalf("stdout = %q, want one hunk with context", got)
	}
	env.stdout.Reset()
	if err := env.run("", "apply", file, "--rev", "HEAD"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.stdout.String(); got != baseText {
		t.Fatalf("stdout = %q, want %q", got, baseText)
	}
}

func TestRenderListsDecorations(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	patch := env.write(t, "p.diff", onePatch)

	if err := env.run("", "render", file, "--patch", patch); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "hunk p.diff#1 lines 2-2\n" +
		"deleted@6 lines=1\n" +
		"\t-2 line2\n" +
		"added-line[6:13] line=2\n" +
		"added-chars[10:13] line=2\n"
	if got := env.stdout.String(); got != want {
		t.Fatalf("stdout =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderReportsMissedHunks(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	patch := env.write(t, "p.diff", "@@ -2 +2 @@\n-other\n+x\n")

	if err := env.run("", "render", file, "--patch", patch); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := env.stdout.String(); got != "missed p.diff#1\n" {
		t.Fatalf("stdout = %q", got)
	}
	if !strings.Contains(env.stderr.String(), "compose: anchor miss") {
		t.Fatalf("stderr = %q, want anchor miss warning", env.stderr.String())
	}
}

func TestProposalSourceRequired(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)

	err := env.run("", "render", file)
	if err == nil || !strings.Contains(err.Error(), "exactly one of") {
		t.Fatalf("err = %v, want missing source error", err)
	}
	err = env.run("", "render", file, "--patch", "a", "--new", "b")
	if err == nil || !strings.Contains(err.Error(), "exactly one of") {
		t.Fatalf("err = %v, want conflicting source error", err)
	}
}

func TestMissingFile(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("", "render", filepath.Join(env.dir, "absent.txt"), "--patch", "-")
	if err == nil || !strings.Contains(err.Error(), "read ") {
		t.Fatalf("err = %v, want read error", err)
	}
}

func TestFileCommitterKeepsMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(path, []byte("old"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := (fileCommitter{}).Commit(path, "new"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("mode = %v, want 0755", info.Mode().Perm())
	}

	err = (fileCommitter{}).Commit(filepath.Join(dir, "missing", "x"), "new")
	if err == nil || !strings.Contains(err.Error(), "write ") {
		t.Fatalf("err = %v, want write error", err)
	}
}

// scriptedScreen is a simulation screen that queues keys as soon as it is initialized.
type scriptedScreen struct {
	tcell.SimulationScreen
	keys []rune
}

func (s *scriptedScreen) Init() error {
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	s.SetSize(40, 10)
	for _, r := range s.keys {
		s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	return nil
}

func TestPreviewSessionAcceptAndCommit(t *testing.T) {
	env := newTestEnv(t)
	file := env.write(t, "f.txt", baseText)
	patch := env.write(t, "p.diff", onePatch)

	a := New([]string{"preview", file, "--patch", patch})
	a.stdout, a.stderr = &env.stdout, &env.stderr
	a.newScreen = func() (tcell.Screen, error) {
		return &scriptedScreen{SimulationScreen: tcell.NewSimulationScreen("UTF-8"), keys: []rune{'a', 's', 'q'}}, nil
	}
	if err := a.Run(); err != nil {
		t.Fatalf("preview: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "line1\nlineTWO\nline3\n" {
		t.Fatalf("file = %q", data)
	}
}

func TestRunQuitsWithoutCommit(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte(baseText), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	eng := preview.New(file, baseText, preview.Options{}, fileCommitter{})
	eng.ProposeUnified("p", onePatch)
	ed := editor.New(config.Default(), eng, nil)

	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	defer s.Fini()
	s.SetSize(40, 10)
	s.InjectKey(tcell.KeyRune, 'A', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	if err := run(s, ed); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !eng.HasChanges() {
		t.Fatalf("accept_all not applied")
	}
	data, _ := os.ReadFile(file)
	if string(data) != baseText {
		t.Fatalf("file written without commit: %q", data)
	}
}
