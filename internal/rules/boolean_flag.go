package rules

import (
	"go/ast"
	"go/token"

	"github.com/nilaware/nilify/internal/edits"
)

// BooleanFlag rewrites uses of boolean variables that were initialized
// from a nil-comparison expression back into the comparison itself.
//
//	ok := conn == nil
//	if ok { ... }      ->  if (conn == nil) { ... }
//	if !ok { ... }     ->  if !(conn == nil) { ... }
//
// The recorded replacement is a parenthesized verbatim copy of the whole
// initializer, not just a leaf, so compound initializers keep their
// structure. A wrapping ! at the usage site is left untouched; negation
// composes through the copied parentheses.
type BooleanFlag struct {
	ctx *Context

	// flags maps a variable name to the parenthesized source text of
	// its registering initializer.
	flags map[string]string
}

func NewBooleanFlag(ctx *Context) Rule {
	return &BooleanFlag{ctx: ctx, flags: make(map[string]string)}
}

func (r *BooleanFlag) Name() string { return "boolean-flag" }

func (r *BooleanFlag) IsApplicable(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.AssignStmt:
		r.trackAssign(n)
	case *ast.ValueSpec:
		r.trackDecl(n)
	case *ast.IfStmt:
		return r.usesFlag(n.Cond)
	case *ast.ForStmt:
		if n.Cond != nil {
			return r.usesFlag(n.Cond)
		}
	}
	return false
}

func (r *BooleanFlag) Apply(node ast.Node, set *edits.Set) {
	var cond ast.Expr
	switch n := node.(type) {
	case *ast.IfStmt:
		cond = n.Cond
	case *ast.ForStmt:
		cond = n.Cond
	default:
		return
	}
	for _, leaf := range condLeaves(cond) {
		id, ok := leaf.(*ast.Ident)
		if !ok {
			continue
		}
		repl, ok := r.flags[id.Name]
		if !ok {
			continue
		}
		start, end := r.ctx.Offsets(id)
		set.Replace(r.Name(), start, end, repl)
	}
}

// trackAssign handles both invalidation and registration. Any assignment
// to a tracked flag removes its binding, whatever the new value is; a :=
// definition whose right-hand side qualifies then registers a fresh one.
func (r *BooleanFlag) trackAssign(assign *ast.AssignStmt) {
	for _, lhs := range assign.Lhs {
		if id, ok := lhs.(*ast.Ident); ok {
			delete(r.flags, id.Name)
		}
	}
	if assign.Tok != token.DEFINE || len(assign.Lhs) != len(assign.Rhs) {
		return
	}
	for i, lhs := range assign.Lhs {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			continue
		}
		if qualifiesAsFlagInit(assign.Rhs[i]) {
			r.flags[id.Name] = "(" + r.ctx.Text(assign.Rhs[i]) + ")"
		}
	}
}

// trackDecl handles var declarations. A declaration shadowing a tracked
// name drops the old binding even when the new initializer does not
// qualify.
func (r *BooleanFlag) trackDecl(spec *ast.ValueSpec) {
	for _, name := range spec.Names {
		delete(r.flags, name.Name)
	}
	if !boolDeclType(spec.Type) || len(spec.Values) != len(spec.Names) {
		return
	}
	for i, name := range spec.Names {
		if qualifiesAsFlagInit(spec.Values[i]) {
			r.flags[name.Name] = "(" + r.ctx.Text(spec.Values[i]) + ")"
		}
	}
}

func (r *BooleanFlag) usesFlag(cond ast.Expr) bool {
	for _, leaf := range condLeaves(cond) {
		if id, ok := leaf.(*ast.Ident); ok {
			if _, tracked := r.flags[id.Name]; tracked {
				return true
			}
		}
	}
	return false
}

// boolDeclType accepts an explicit bool type or an inferred one.
func boolDeclType(typ ast.Expr) bool {
	if typ == nil {
		return true
	}
	id, ok := typ.(*ast.Ident)
	return ok && id.Name == "bool"
}

// qualifiesAsFlagInit reports whether expr bottoms out in nil-comparison
// leaves once parentheses, unary not and the logical connectives are
// stripped. Both operands of && must qualify; for || either side is
// enough, since one nil-comparison branch already makes the flag a
// nilness proxy.
func qualifiesAsFlagInit(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return qualifiesAsFlagInit(e.X)
	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			return qualifiesAsFlagInit(e.X)
		}
	case *ast.BinaryExpr:
		switch e.Op {
		case token.LAND:
			return qualifiesAsFlagInit(e.X) && qualifiesAsFlagInit(e.Y)
		case token.LOR:
			return qualifiesAsFlagInit(e.X) || qualifiesAsFlagInit(e.Y)
		case token.EQL, token.NEQ:
			_, ok := asNilCheck(e)
			return ok
		}
	}
	return false
}
