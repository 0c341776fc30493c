// Package gitinfo reads the repository state of a previewed file.
package gitinfo

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var errNotRepo = errors.New("not a git repository")

// repo is the working tree holding a file and its git directory.
type repo struct {
	root   string
	gitDir string
}

// Branch names the checked out branch, or "detached:<sha>". It is empty outside a repository.
func Branch(path string) string {
	r, err := find(path)
	if err != nil {
		return ""
	}
	head, err := os.ReadFile(filepath.Join(r.gitDir, "HEAD"))
	if err != nil {
		return ""
	}
	return headName(string(head))
}

// Root is the top of the working tree holding path, or "" outside a repository.
func Root(path string) string {
	r, err := find(path)
	if err != nil {
		return ""
	}
	return r.root
}

// Show returns the content of the file at path as recorded at rev. An empty rev means HEAD.
func Show(path, rev string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := find(abs); err != nil {
		return "", err
	}
	if rev == "" {
		rev = "HEAD"
	}
	// "./" makes git resolve the path against -C instead of the tree root.
	object := rev + ":./" + filepath.Base(abs)
	cmd := exec.Command("git", "-C", filepath.Dir(abs), "show", object)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git show %s: %s", object, msg)
		}
		return "", fmt.Errorf("git show %s: %w", object, err)
	}
	return string(out), nil
}

// find walks up from path to the first directory holding .git. A .git file is a
// worktree link and names the real git directory.
func find(path string) (repo, error) {
	dir := path
	info, err := os.Stat(dir)
	if err != nil {
		return repo{}, err
	}
	if !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		dotGit := filepath.Join(dir, ".git")
		if info, err := os.Stat(dotGit); err == nil {
			if info.IsDir() {
				return repo{root: dir, gitDir: dotGit}, nil
			}
			if gitDir, ok := readLink(dotGit); ok {
				if !filepath.IsAbs(gitDir) {
					gitDir = filepath.Join(dir, gitDir)
				}
				return repo{root: dir, gitDir: gitDir}, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return repo{}, errNotRepo
		}
		dir = parent
	}
}

func readLink(dotGit string) (string, bool) {
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", false
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(target), true
}

// headName turns the first line of HEAD into a branch name.
func headName(head string) string {
	line, _, _ := strings.Cut(head, "\n")
	line = strings.TrimSpace(line)
	if ref, ok := strings.CutPrefix(line, "ref:"); ok {
		return filepath.Base(strings.TrimSpace(ref))
	}
	if len(line) >= 7 {
		return "detached:" + line[:7]
	}
	if line == "" {
		return ""
	}
	return "detached"
}
