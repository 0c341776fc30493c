// Package syntax parses previewed content with tree-sitter and reports where it no
// longer parses, so a proposal that would break the file is visible before commit.
package syntax

import (
	"context"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/golang"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/kobzarvs/qpreview/internal/config"
	"github.com/kobzarvs/qpreview/internal/logger"
)

// Problem is one error or missing node. Row and Col are 0-based.
type Problem struct {
	Row     int
	Col     int
	Missing bool
	Kind    string
}

func (p Problem) String() string {
	if p.Missing {
		return fmt.Sprintf("%d:%d: missing %s", p.Row+1, p.Col+1, p.Kind)
	}
	return fmt.Sprintf("%d:%d: syntax error", p.Row+1, p.Col+1)
}

type Result struct {
	Language string
	Checked  bool
	Problems []Problem
}

// Rows returns the distinct 0-based rows that have a problem.
func (r Result) Rows() []int {
	seen := map[int]bool{}
	var rows []int
	for _, p := range r.Problems {
		if !seen[p.Row] {
			seen[p.Row] = true
			rows = append(rows, p.Row)
		}
	}
	sort.Ints(rows)
	return rows
}

func (r Result) OK() bool { return len(r.Problems) == 0 }

type Checker struct {
	langs   config.Languages
	parsers map[string]*sitter.Parser
	mu      sync.Mutex
}

func New(langs config.Languages) *Checker {
	return &Checker{
		langs:   langs,
		parsers: make(map[string]*sitter.Parser),
	}
}

// Check parses content as the language path maps to. Unknown languages come back with
// Checked false.
func (c *Checker) Check(ctx context.Context, path, content string) (Result, error) {
	lang := c.langs.Match(path)
	if lang == nil {
		return Result{}, nil
	}
	tsLang := tsLanguageForName(lang.Name)
	if tsLang == nil {
		return Result{Language: lang.Name}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	parser := c.parsers[lang.Name]
	if parser == nil {
		parser = sitter.NewParser()
		parser.SetLanguage(tsLang)
		c.parsers[lang.Name] = parser
	}
	tree, err := parser.ParseCtx(ctx, nil, []byte(content))
	if err != nil {
		return Result{Language: lang.Name}, fmt.Errorf("parse %s: %w", path, err)
	}

	res := Result{Language: lang.Name, Checked: true}
	root := tree.RootNode()
	if root != nil && root.HasError() {
		collect(root, &res.Problems)
	}
	logger.Debug("syntax check", "path", path, "language", lang.Name, "problems", len(res.Problems))
	return res, nil
}

// collect walks the subtrees that contain errors. An error node is reported once;
// its children are not searched further.
func collect(node *sitter.Node, out *[]Problem) {
	if node.IsMissing() {
		p := node.StartPoint()
		*out = append(*out, Problem{Row: int(p.Row), Col: int(p.Column), Missing: true, Kind: node.Type()})
		return
	}
	if node.IsError() {
		p := node.StartPoint()
		*out = append(*out, Problem{Row: int(p.Row), Col: int(p.Column), Kind: node.Type()})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			collect(child, out)
		}
	}
}

func tsLanguageForName(name string) *sitter.Language {
	switch name {
	case "go":
		return golang.GetLanguage()
	case "markdown":
		return tree_sitter_markdown.GetLanguage()
	case "yaml":
		return yaml.GetLanguage()
	case "toml":
		return toml.GetLanguage()
	case "bash":
		return bash.GetLanguage()
	default:
		return nil
	}
}
