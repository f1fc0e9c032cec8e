package rules

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilaware/nilify/internal/edits"
)

// applyRule runs a single rule over src the same way the engine does:
// one pre-order traversal, IsApplicable then Apply, edits spliced back
// into the original text.
func applyRule(t *testing.T, newRule func(*Context) Rule, src string, spans ...Span) string {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", []byte(src), parser.ParseComments)
	require.NoError(t, err)

	ctx := &Context{Fset: fset, Src: []byte(src)}
	if len(spans) > 0 {
		ctx.PossiblyNil = make(map[Span]bool, len(spans))
		for _, s := range spans {
			ctx.PossiblyNil[s] = true
		}
	}

	rule := newRule(ctx)
	set := edits.NewSet()
	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		if rule.IsApplicable(n) {
			rule.Apply(n, set)
		}
		return true
	})

	out, err := set.Apply([]byte(src))
	require.NoError(t, err)
	return string(out)
}
