package nolint

import (
	"go/ast"
	"go/token"
	"strings"
)

const nolintPrefix = "//nolint"

// Manager tracks nolint comments and decides whether a rewrite at a
// given position is suppressed.
type Manager struct {
	// scopes maps a line number to the suppressions active on it.
	scopes map[int][]scope
}

// scope is one parsed nolint comment.
type scope struct {
	rules map[string]struct{}
	all   bool
}

// ParseComments parses nolint comments in the given AST file and returns
// a Manager. A comment suppresses rewrites on its own line and, when it
// stands alone on a line, on the line below it.
func ParseComments(f *ast.File, fset *token.FileSet) *Manager {
	m := &Manager{scopes: make(map[int][]scope)}
	for _, cg := range f.Comments {
		for _, comment := range cg.List {
			sc, ok := parseComment(comment)
			if !ok {
				continue
			}
			pos := fset.Position(comment.Pos())
			m.scopes[pos.Line] = append(m.scopes[pos.Line], sc)
			if pos.Column == 1 || onlyCommentOnLine(fset, f, comment) {
				m.scopes[pos.Line+1] = append(m.scopes[pos.Line+1], sc)
			}
		}
	}
	return m
}

// IsSuppressed reports whether a rewrite by rule at pos is nolinted.
func (m *Manager) IsSuppressed(pos token.Position, rule string) bool {
	for _, sc := range m.scopes[pos.Line] {
		if sc.all {
			return true
		}
		if _, ok := sc.rules[rule]; ok {
			return true
		}
	}
	return false
}

// parseComment parses a single comment. Supported forms:
//
//	//nolint              suppress every rule
//	//nolint:nilify       suppress every rule
//	//nolint:rule1,rule2  suppress the named rules
func parseComment(comment *ast.Comment) (scope, bool) {
	text := strings.TrimSpace(comment.Text)
	if !strings.HasPrefix(text, nolintPrefix) {
		return scope{}, false
	}
	rest := strings.TrimPrefix(text, nolintPrefix)
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return scope{all: true}, true
	}
	if !strings.HasPrefix(rest, ":") {
		// Some other comment that merely starts with the prefix.
		return scope{}, false
	}
	sc := scope{rules: make(map[string]struct{})}
	for _, name := range strings.Split(rest[1:], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "nilify" {
			return scope{all: true}, true
		}
		sc.rules[name] = struct{}{}
	}
	if len(sc.rules) == 0 {
		return scope{all: true}, true
	}
	return sc, true
}

// onlyCommentOnLine reports whether the comment is the only token on its
// line, meaning it annotates the line below rather than its own.
func onlyCommentOnLine(fset *token.FileSet, f *ast.File, comment *ast.Comment) bool {
	line := fset.Position(comment.Pos()).Line
	alone := true
	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil || !alone {
			return false
		}
		if _, ok := n.(*ast.Comment); ok {
			return true
		}
		if _, ok := n.(*ast.CommentGroup); ok {
			return true
		}
		if n.Pos().IsValid() && fset.Position(n.Pos()).Line == line && n.Pos() < comment.Pos() {
			if _, isFile := n.(*ast.File); !isFile {
				alone = false
				return false
			}
		}
		return true
	})
	return alone
}
