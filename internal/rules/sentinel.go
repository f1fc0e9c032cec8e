package rules

import (
	"go/ast"
	"go/token"

	"github.com/nilaware/nilify/internal/edits"
)

// Sentinel rewrites comparisons against sentinel constants into the nil
// check the sentinel stands for.
//
//	if x == nil { v = -1 }
//	if v == -1 { ... }   ->  if x == nil { ... }
//	if v != -1 { ... }   ->  if x != nil { ... }
//
// The same variable is often reused for unrelated constants, so each
// variable's last known value is tracked separately from its sentinel
// binding: registering a sentinel whose constant equals the variable's
// current value would create a stale alias and is rejected.
type Sentinel struct {
	ctx *Context

	sentinels map[string]sentinelBinding
	lastValue map[string]valueState

	// funcs holds the names of functions declared in this file. A call
	// to anything else is opaque and conservatively wipes every tracked
	// value to unknown.
	funcs map[string]bool
}

// sentinelBinding ties a sentinel variable to the nil check it encodes.
// assign is the registering assignment; visiting it again during the
// same traversal must not invalidate the binding it just created.
type sentinelBinding struct {
	assign *ast.AssignStmt
	xText  string      // source text of the checked reference
	op     token.Token // operator of the original nil check
	value  string      // source text of the sentinel constant
}

type valueState struct {
	known bool
	text  string
}

func NewSentinel(ctx *Context) Rule {
	return &Sentinel{
		ctx:       ctx,
		sentinels: make(map[string]sentinelBinding),
		lastValue: make(map[string]valueState),
		funcs:     make(map[string]bool),
	}
}

func (r *Sentinel) Name() string { return "sentinel" }

func (r *Sentinel) IsApplicable(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.File:
		r.collectFuncs(n)
	case *ast.CallExpr:
		if r.opaqueCall(n) {
			for name := range r.lastValue {
				r.lastValue[name] = valueState{}
			}
		}
	case *ast.AssignStmt:
		r.trackAssign(n)
	case *ast.ValueSpec:
		r.trackDecl(n)
	case *ast.IfStmt:
		r.tryRegister(n)
		return r.usesSentinel(n.Cond)
	}
	return false
}

func (r *Sentinel) Apply(node ast.Node, set *edits.Set) {
	ifStmt, ok := node.(*ast.IfStmt)
	if !ok {
		return
	}
	for _, leaf := range condLeaves(ifStmt.Cond) {
		name, op, valueText, cmp := r.sentinelComparison(leaf)
		if name == "" {
			continue
		}
		b := r.sentinels[name]

		// Two independent matches decide the polarity of the rewritten
		// check. The net effect is a single operator flip iff exactly
		// one of them fails; the four cases are spelled out because the
		// shortcut is easy to get backwards.
		valueMatch := constEq(valueText, b.value)
		opMatch := op == b.op
		newOp := b.op
		switch {
		case valueMatch && opMatch:
			// `v == C` with the original `x == nil` check: same polarity.
		case valueMatch && !opMatch:
			newOp = flip(b.op)
		case !valueMatch && opMatch:
			newOp = flip(b.op)
		case !valueMatch && !opMatch:
			// Double inversion cancels out.
		}

		start, end := r.ctx.Offsets(cmp)
		set.Replace(r.Name(), start, end, b.xText+" "+newOp.String()+" nil")
	}
}

func (r *Sentinel) collectFuncs(file *ast.File) {
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			r.funcs[fn.Name.Name] = true
		}
	}
}

// opaqueCall reports whether call reaches a routine whose effects cannot
// be determined locally. Only plain calls to functions declared in the
// same file are transparent.
func (r *Sentinel) opaqueCall(call *ast.CallExpr) bool {
	id, ok := call.Fun.(*ast.Ident)
	if !ok {
		return true
	}
	return !r.funcs[id.Name]
}

// trackAssign invalidates sentinel bindings on reassignment and updates
// the last-value table. The assignment that registered a binding is
// exempt from invalidating it.
func (r *Sentinel) trackAssign(assign *ast.AssignStmt) {
	for i, lhs := range assign.Lhs {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			continue
		}
		if b, bound := r.sentinels[id.Name]; bound && b.assign != assign {
			delete(r.sentinels, id.Name)
		}
		r.recordValue(id.Name, rhsAt(assign.Rhs, i, len(assign.Lhs)))
	}
}

func (r *Sentinel) trackDecl(spec *ast.ValueSpec) {
	for i, name := range spec.Names {
		delete(r.sentinels, name.Name)
		if i < len(spec.Values) {
			r.recordValue(name.Name, spec.Values[i])
		} else {
			r.lastValue[name.Name] = valueState{}
		}
	}
}

func (r *Sentinel) recordValue(name string, rhs ast.Expr) {
	if rhs != nil && isConstantLike(rhs) {
		r.lastValue[name] = valueState{known: true, text: r.ctx.Text(rhs)}
		return
	}
	r.lastValue[name] = valueState{}
}

// tryRegister registers `if <cond with nil check on x> { v = C }` as the
// sentinel binding v -> (x, C). Registration is silently rejected when
// v's last known value already equals C; the prior binding, if any,
// stays authoritative.
func (r *Sentinel) tryRegister(ifStmt *ast.IfStmt) {
	if ifStmt.Else != nil || len(ifStmt.Body.List) != 1 {
		return
	}
	var check nilCheck
	found := false
	for _, leaf := range condLeaves(ifStmt.Cond) {
		if c, ok := asNilCheck(leaf); ok {
			check = c
			found = true
			break
		}
	}
	if !found {
		return
	}

	assign, ok := ifStmt.Body.List[0].(*ast.AssignStmt)
	if !ok || assign.Tok != token.ASSIGN || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return
	}
	id, ok := assign.Lhs[0].(*ast.Ident)
	if !ok || !isConstantLike(assign.Rhs[0]) {
		return
	}

	valueText := r.ctx.Text(assign.Rhs[0])
	if last, ok := r.lastValue[id.Name]; ok && last.known && constEq(last.text, valueText) {
		return
	}
	r.sentinels[id.Name] = sentinelBinding{
		assign: assign,
		xText:  r.ctx.Text(check.x),
		op:     check.op,
		value:  valueText,
	}
}

func (r *Sentinel) usesSentinel(cond ast.Expr) bool {
	for _, leaf := range condLeaves(cond) {
		if name, _, _, _ := r.sentinelComparison(leaf); name != "" {
			return true
		}
	}
	return false
}

// sentinelComparison recognizes a leaf `v == C` / `v != C` (either
// operand order) where v has a registered sentinel and C is constant-
// like. It returns v's name, the comparison operator, C's source text
// and the comparison node itself, or an empty name.
func (r *Sentinel) sentinelComparison(leaf ast.Expr) (string, token.Token, string, ast.Expr) {
	bin, ok := leaf.(*ast.BinaryExpr)
	if !ok || (bin.Op != token.EQL && bin.Op != token.NEQ) {
		return "", token.ILLEGAL, "", nil
	}
	for _, pair := range [][2]ast.Expr{{bin.X, bin.Y}, {bin.Y, bin.X}} {
		id, ok := pair[0].(*ast.Ident)
		if !ok || !isConstantLike(pair[1]) {
			continue
		}
		if _, bound := r.sentinels[id.Name]; bound {
			return id.Name, bin.Op, r.ctx.Text(pair[1]), bin
		}
	}
	return "", token.ILLEGAL, "", nil
}

// rhsAt returns the right-hand side paired with lhs index i, or nil for
// tuple assignments where no single expression corresponds.
func rhsAt(rhs []ast.Expr, i, lhsLen int) ast.Expr {
	if len(rhs) == lhsLen {
		return rhs[i]
	}
	return nil
}
