package rules

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/nilaware/nilify/internal/edits"
)

// DereferenceGuard inserts defensive nil assertions in front of
// dereferences that are only guarded indirectly, through a bridge
// variable whose truth implies the dereferenced reference is non-nil.
//
//	ok := y != nil && y.ready
//	if ok {
//		y.run()
//	}
//
// becomes
//
//	ok := y != nil && y.ready
//	if ok {
//		{
//			if y == nil {
//				panic("unexpected nil: y")
//			}
//			y.run()
//		}
//	}
//
// The rule only adds assertions; it never rewrites an existing
// comparison. Dereferences already guarded by a direct nil check on the
// same reference in an enclosing condition are left alone.
type DereferenceGuard struct {
	ctx  *Context
	file *ast.File

	// implies records bridge -> real: the bridge variable being true
	// implies the real variable is non-nil.
	implies map[string]string

	// asserted tracks statements an assertion was already planned for,
	// so two qualifying dereferences in one statement do not produce
	// conflicting wrappings.
	asserted map[ast.Stmt]bool

	// guardAssigns are assignments already consumed by the
	// if-guarded form; the plain assignment handler must not treat
	// them as invalidating reassignments.
	guardAssigns map[*ast.AssignStmt]bool

	plan map[ast.Node]guardPlan
}

type guardPlan struct {
	stmt ast.Stmt
	real string
}

func NewDereferenceGuard(ctx *Context) Rule {
	return &DereferenceGuard{
		ctx:          ctx,
		implies:      make(map[string]string),
		asserted:     make(map[ast.Stmt]bool),
		guardAssigns: make(map[*ast.AssignStmt]bool),
		plan:         make(map[ast.Node]guardPlan),
	}
}

func (r *DereferenceGuard) Name() string { return "dereference-guard" }

func (r *DereferenceGuard) IsApplicable(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.File:
		if r.file == nil {
			r.file = n
			r.collectImplications(n)
		}
	case *ast.SelectorExpr:
		if id, ok := n.X.(*ast.Ident); ok {
			return r.planAssertion(n, id.Name)
		}
	case *ast.ReturnStmt:
		return r.planFlaggedReturn(n)
	}
	return false
}

func (r *DereferenceGuard) Apply(node ast.Node, set *edits.Set) {
	p, ok := r.plan[node]
	if !ok {
		return
	}
	delete(r.plan, node)
	r.asserted[p.stmt] = true

	start, end := r.ctx.Offsets(p.stmt)
	indent := lineIndent(r.ctx.Src, start)
	orig := indentTail(r.ctx.Text(p.stmt), "\t")

	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(indent + "\tif " + p.real + " == nil {\n")
	b.WriteString(indent + "\t\tpanic(\"unexpected nil: " + p.real + "\")\n")
	b.WriteString(indent + "\t}\n")
	b.WriteString(indent + "\t" + orig + "\n")
	b.WriteString(indent + "}")
	set.Replace(r.Name(), start, end, b.String())
}

// collectImplications is the first pass: one walk over the whole file
// recording every bridge assignment before any dereference is examined.
// A later reassignment of a bridge from a right-hand side that no longer
// carries the guard removes its edge.
func (r *DereferenceGuard) collectImplications(file *ast.File) {
	ast.Inspect(file, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.AssignStmt:
			if r.guardAssigns[stmt] {
				break
			}
			if len(stmt.Lhs) == 1 && len(stmt.Rhs) == 1 {
				if id, ok := stmt.Lhs[0].(*ast.Ident); ok {
					r.trackBridge(id.Name, stmt.Rhs[0])
				}
			}
		case *ast.ValueSpec:
			if len(stmt.Names) == 1 && len(stmt.Values) == 1 {
				r.trackBridge(stmt.Names[0].Name, stmt.Values[0])
			}
		case *ast.IfStmt:
			r.trackGuardedAssign(stmt)
		}
		return true
	})
}

// trackBridge handles `b := y != nil && <expr using y>`: a variable
// assigned from a logical conjunction guarded by a nil inequality on y.
func (r *DereferenceGuard) trackBridge(name string, rhs ast.Expr) {
	real := guardedReference(rhs)
	if real == "" {
		delete(r.implies, name)
		return
	}
	r.implies[name] = real
}

// trackGuardedAssign handles the statement form of the same idiom:
//
//	if y != nil { b = <expr using y> }
func (r *DereferenceGuard) trackGuardedAssign(ifStmt *ast.IfStmt) {
	var real string
	for _, leaf := range condLeaves(ifStmt.Cond) {
		c, ok := asNilCheck(leaf)
		if !ok || c.op != token.NEQ {
			continue
		}
		if id, ok := c.x.(*ast.Ident); ok {
			real = id.Name
			break
		}
	}
	if real == "" {
		return
	}
	for _, stmt := range ifStmt.Body.List {
		assign, ok := stmt.(*ast.AssignStmt)
		if !ok || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
			continue
		}
		id, ok := assign.Lhs[0].(*ast.Ident)
		if !ok || !mentions(assign.Rhs[0], real) {
			continue
		}
		r.implies[id.Name] = real
		r.guardAssigns[assign] = true
	}
}

// guardedReference returns the variable y when expr decomposes into
// leaves containing a `y != nil` guard plus a use of y, which is how a
// conditional derivation of y is spelled without a ternary operator.
func guardedReference(expr ast.Expr) string {
	leaves := condLeaves(expr)
	if len(leaves) < 2 {
		return ""
	}
	for _, leaf := range leaves {
		c, ok := asNilCheck(leaf)
		if !ok || c.op != token.NEQ {
			continue
		}
		id, ok := c.x.(*ast.Ident)
		if !ok {
			continue
		}
		for _, other := range leaves {
			if other != leaf && mentions(other, id.Name) {
				return id.Name
			}
		}
	}
	return ""
}

// planAssertion decides whether a dereference through real needs an
// assertion and records where it would be inserted.
func (r *DereferenceGuard) planAssertion(node ast.Node, real string) bool {
	if r.file == nil {
		return false
	}
	bridges := make(map[string]bool)
	for b, y := range r.implies {
		if y == real {
			bridges[b] = true
		}
	}
	if len(bridges) == 0 {
		return false
	}

	path, _ := astutil.PathEnclosingInterval(r.file, node.Pos(), node.End())
	var target ast.Stmt
	guarded := false
	for _, enc := range path {
		ifStmt, ok := enc.(*ast.IfStmt)
		if !ok {
			if blk, isBlock := enc.(*ast.BlockStmt); isBlock {
				if len(blk.List) > 0 && assertsNonNil(blk.List[0], real) {
					// Already wrapped in an assertion block.
					return false
				}
				continue
			}
			if stmt, ok := enc.(ast.Stmt); ok && !guarded {
				target = stmt
			}
			continue
		}
		for _, leaf := range condLeaves(ifStmt.Cond) {
			if c, ok := asNilCheck(leaf); ok {
				if id, ok := c.x.(*ast.Ident); ok && id.Name == real {
					// Already directly guarded; nothing to add.
					return false
				}
			}
			if id, ok := leaf.(*ast.Ident); ok && bridges[id.Name] && !guarded {
				guarded = true
				if target == nil {
					target = ifStmt
				}
			}
		}
		if stmt, ok := enc.(ast.Stmt); ok && !guarded {
			target = stmt
		}
	}
	if !guarded || target == nil || r.asserted[target] {
		return false
	}
	r.plan[node] = guardPlan{stmt: target, real: real}
	return true
}

// planFlaggedReturn handles returns of expressions the external checker
// flagged as possibly nil.
func (r *DereferenceGuard) planFlaggedReturn(ret *ast.ReturnStmt) bool {
	if len(r.ctx.PossiblyNil) == 0 {
		return false
	}
	for _, res := range ret.Results {
		if !r.ctx.PossiblyNil[r.ctx.SpanOf(res)] {
			continue
		}
		if name := baseIdent(res); name != "" {
			return r.planAssertion(ret, name)
		}
	}
	return false
}

// assertsNonNil recognizes the assertion statement this rule inserts:
// `if real == nil { panic(...) }` with no else branch.
func assertsNonNil(stmt ast.Stmt, real string) bool {
	ifStmt, ok := stmt.(*ast.IfStmt)
	if !ok || ifStmt.Else != nil || len(ifStmt.Body.List) != 1 {
		return false
	}
	c, ok := asNilCheck(ifStmt.Cond)
	if !ok || c.op != token.EQL {
		return false
	}
	id, ok := c.x.(*ast.Ident)
	if !ok || id.Name != real {
		return false
	}
	expr, ok := ifStmt.Body.List[0].(*ast.ExprStmt)
	if !ok {
		return false
	}
	call, ok := expr.X.(*ast.CallExpr)
	if !ok {
		return false
	}
	fn, ok := call.Fun.(*ast.Ident)
	return ok && fn.Name == "panic"
}

// baseIdent returns the root identifier of an addressable reference.
func baseIdent(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		if e.Name == "nil" {
			return ""
		}
		return e.Name
	case *ast.SelectorExpr:
		return baseIdent(e.X)
	}
	return ""
}

// indentTail prefixes every line after the first with extra, keeping a
// multi-line statement aligned after it is wrapped one block deeper.
func indentTail(text, extra string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = extra + lines[i]
	}
	return strings.Join(lines, "\n")
}
