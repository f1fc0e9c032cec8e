package rules

import (
	"go/ast"
	"go/token"

	"github.com/nilaware/nilify/internal/edits"
)

// Rule is the contract every rewrite rule implements.
//
// IsApplicable reports whether the rule wants to rewrite something at
// node. It runs on every node of one pre-order traversal and is allowed
// to mutate the rule's private analysis state even when it returns false;
// detection and bookkeeping are interleaved on purpose.
//
// Apply assumes IsApplicable just returned true for node in the same
// traversal and may emit zero or more edits.
type Rule interface {
	Name() string
	IsApplicable(node ast.Node) bool
	Apply(node ast.Node, set *edits.Set)
}

// Span is a byte-offset range in one file, used to address nodes flagged
// by an external nullability checker. Matching is exact: a span belongs
// to the node whose Pos/End offsets are identical to it.
type Span struct {
	Start int
	End   int
}

// Context carries the per-file inputs shared by all rule instances of one
// engine run. Rules hold it for the lifetime of one file and are
// discarded afterwards.
type Context struct {
	Fset *token.FileSet
	Src  []byte

	// PossiblyNil holds the spans an external nullability checker
	// flagged as possibly nil. Only DereferenceGuard consumes it.
	PossiblyNil map[Span]bool
}

// Offsets returns the byte-offset span of node in Src.
func (c *Context) Offsets(node ast.Node) (int, int) {
	return c.Fset.Position(node.Pos()).Offset, c.Fset.Position(node.End()).Offset
}

// Text returns the verbatim source text of node, preserving the original
// formatting, parentheses and comments inside the span.
func (c *Context) Text(node ast.Node) string {
	start, end := c.Offsets(node)
	return string(c.Src[start:end])
}

// SpanOf returns the Span of node.
func (c *Context) SpanOf(node ast.Node) Span {
	start, end := c.Offsets(node)
	return Span{Start: start, End: end}
}
