package rules

import (
	"go/ast"

	"github.com/nilaware/nilify/internal/edits"
)

// NestedNilInlining inlines calls to small unexported helpers whose only
// job is to report the nilness of some reference.
//
//	func (c *client) missing() bool { return c.conn == nil }
//	if c.missing() { ... }   ->  if (c.conn == nil) { ... }
//
// Declarations are collected in a dedicated pass over the whole file
// before any call site is touched, so calls lexically preceding the
// declaration are rewritten too. Method bodies cannot change during one
// run, so no invalidation is needed.
type NestedNilInlining struct {
	ctx       *Context
	collected bool

	// byName maps a helper name to the replacement texts of every
	// registered declaration with that name. Substitution only happens
	// when the name is unambiguous in the file.
	byName map[string][]string
}

func NewNestedNilInlining(ctx *Context) Rule {
	return &NestedNilInlining{ctx: ctx, byName: make(map[string][]string)}
}

func (r *NestedNilInlining) Name() string { return "nested-nil-inlining" }

func (r *NestedNilInlining) IsApplicable(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.File:
		if !r.collected {
			r.collect(n)
			r.collected = true
		}
	case *ast.CallExpr:
		return r.replacement(n) != ""
	}
	return false
}

func (r *NestedNilInlining) Apply(node ast.Node, set *edits.Set) {
	call, ok := node.(*ast.CallExpr)
	if !ok {
		return
	}
	repl := r.replacement(call)
	if repl == "" {
		return
	}
	start, end := r.ctx.Offsets(call)
	set.Replace(r.Name(), start, end, repl)
}

// collect registers every declaration in the file that is an unexported,
// zero-parameter, bool-returning function or method whose body is exactly
// one return of a direct nil comparison.
func (r *NestedNilInlining) collect(file *ast.File) {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !r.qualifies(fn) {
			continue
		}
		ret := fn.Body.List[0].(*ast.ReturnStmt)
		name := fn.Name.Name
		r.byName[name] = append(r.byName[name], "("+r.ctx.Text(ret.Results[0])+")")
	}
}

func (r *NestedNilInlining) qualifies(fn *ast.FuncDecl) bool {
	if ast.IsExported(fn.Name.Name) {
		return false
	}
	if fn.Type.Params != nil && len(fn.Type.Params.List) > 0 {
		return false
	}
	if fn.Type.Results == nil || len(fn.Type.Results.List) != 1 {
		return false
	}
	field := fn.Type.Results.List[0]
	if len(field.Names) > 1 {
		return false
	}
	res, ok := field.Type.(*ast.Ident)
	if !ok || res.Name != "bool" {
		return false
	}
	if fn.Body == nil || len(fn.Body.List) != 1 {
		return false
	}
	ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return false
	}
	_, ok = asNilCheck(ret.Results[0])
	return ok
}

// replacement returns the inlined comparison for a no-argument call to a
// registered helper, or "" when the call does not match. A name declared
// by more than one helper in the file is skipped rather than guessed at.
func (r *NestedNilInlining) replacement(call *ast.CallExpr) string {
	if len(call.Args) > 0 {
		return ""
	}
	var name string
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		name = fun.Name
	case *ast.SelectorExpr:
		name = fun.Sel.Name
	default:
		return ""
	}
	repls := r.byName[name]
	if len(repls) != 1 {
		return ""
	}
	return repls[0]
}
