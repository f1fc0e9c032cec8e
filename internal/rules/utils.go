package rules

import (
	"go/ast"
	"go/token"
	"strings"
)

// condLeaves decomposes expr into its comparison leaves by recursively
// stripping parentheses, unary not, and the two logical connectives.
// Detection and substitution share this decomposition, so a leaf nested
// under any combination of !, && and || is found independently of its
// siblings.
func condLeaves(expr ast.Expr) []ast.Expr {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return condLeaves(e.X)
	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			return condLeaves(e.X)
		}
	case *ast.BinaryExpr:
		if e.Op == token.LAND || e.Op == token.LOR {
			return append(condLeaves(e.X), condLeaves(e.Y)...)
		}
	}
	return []ast.Expr{expr}
}

// nilCheck is a recognized direct nil comparison `x == nil` / `x != nil`.
type nilCheck struct {
	x  ast.Expr    // the non-nil operand; an addressable reference
	op token.Token // token.EQL or token.NEQ
}

// asNilCheck recognizes a direct comparison of an addressable reference
// against nil, unwrapping any parentheses first.
func asNilCheck(expr ast.Expr) (nilCheck, bool) {
	for {
		p, ok := expr.(*ast.ParenExpr)
		if !ok {
			break
		}
		expr = p.X
	}
	bin, ok := expr.(*ast.BinaryExpr)
	if !ok || (bin.Op != token.EQL && bin.Op != token.NEQ) {
		return nilCheck{}, false
	}
	switch {
	case isNil(bin.Y) && isAddressable(bin.X):
		return nilCheck{x: bin.X, op: bin.Op}, true
	case isNil(bin.X) && isAddressable(bin.Y):
		return nilCheck{x: bin.Y, op: bin.Op}, true
	}
	return nilCheck{}, false
}

func isNil(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == "nil"
}

// isAddressable reports whether expr is a plain identifier or a selector
// chain of identifiers (x, x.f, x.f.g). Calls and index expressions are
// rejected: copying them into a rewritten condition could duplicate side
// effects.
func isAddressable(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name != "nil"
	case *ast.SelectorExpr:
		return isAddressable(e.X)
	}
	return false
}

// isConstantLike reports whether expr is a constant-like right-hand side:
// a basic literal, a signed basic literal, or a bare identifier (named
// constant, true, false).
func isConstantLike(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.BasicLit:
		return true
	case *ast.UnaryExpr:
		if e.Op == token.SUB || e.Op == token.ADD {
			_, ok := e.X.(*ast.BasicLit)
			return ok
		}
	case *ast.Ident:
		return e.Name != "nil"
	}
	return false
}

// constEq compares two constant-like expressions by their normalized
// source text. `- 1` and `-1` are equal; `-1` and `1` are not.
func constEq(a, b string) bool {
	norm := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	return norm(a) == norm(b)
}

// flip inverts a comparison operator.
func flip(op token.Token) token.Token {
	if op == token.EQL {
		return token.NEQ
	}
	return token.EQL
}

// mentions reports whether expr references the identifier name anywhere.
func mentions(expr ast.Expr, name string) bool {
	found := false
	ast.Inspect(expr, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = true
			return false
		}
		return !found
	})
	return found
}

// lineIndent returns the leading whitespace of the line containing
// offset, used to re-indent inserted statements.
func lineIndent(src []byte, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}
