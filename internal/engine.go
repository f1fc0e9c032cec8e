package internal

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nilaware/nilify/internal/edits"
	"github.com/nilaware/nilify/internal/nolint"
	"github.com/nilaware/nilify/internal/rules"
	tt "github.com/nilaware/nilify/internal/types"
)

// ErrNoRules is returned by NewEngine when the configured rule list is
// empty after unknown names were dropped. Running with no rules is a
// configuration error, not a silent no-op.
var ErrNoRules = errors.New("no valid rewrite rules configured")

// Engine drives the rewriting of one file at a time: one full pre-order
// traversal per configured rule, one shared edit set, one splice of the
// edits back into the original text. Rule instances are constructed
// fresh for every run, so an external driver may process files in
// parallel with one engine per file and no shared mutable state.
type Engine struct {
	logger      *zap.Logger
	ruleNames   []string
	possiblyNil []rules.Span
	nilReport   map[string][]rules.Span
}

// NewEngine validates ruleNames against the registry, preserving order.
// Unknown names are logged and dropped; an empty resulting list is fatal.
func NewEngine(ruleNames []string, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var valid []string
	for _, name := range ruleNames {
		if _, ok := allRuleConstructors[name]; !ok {
			logger.Warn("unknown rewrite rule, skipping", zap.String("rule", name))
			continue
		}
		valid = append(valid, name)
	}
	if len(valid) == 0 {
		return nil, ErrNoRules
	}
	return &Engine{logger: logger, ruleNames: valid}, nil
}

// Rules returns the validated rule names in execution order.
func (e *Engine) Rules() []string {
	out := make([]string, len(e.ruleNames))
	copy(out, e.ruleNames)
	return out
}

// SetPossiblyNil supplies the node spans an external nullability checker
// flagged as possibly nil. Only the dereference-guard rule consumes them.
func (e *Engine) SetPossiblyNil(spans []rules.Span) {
	e.possiblyNil = spans
}

// SetNilReport supplies possibly-nil spans keyed by cleaned file path,
// the shape an external checker's report parses into. Spans for a file
// are added on top of any set via SetPossiblyNil when that file runs.
func (e *Engine) SetNilReport(report map[string][]rules.Span) {
	e.nilReport = report
}

// Run rewrites the named file and returns the new text plus a record of
// every change. The file itself is not written.
func (e *Engine) Run(filename string) ([]byte, []tt.Change, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return e.rewrite(filename, src)
}

// RunSource rewrites in-memory source.
func (e *Engine) RunSource(src []byte) ([]byte, []tt.Change, error) {
	return e.rewrite("", src)
}

func (e *Engine) rewrite(filename string, src []byte) ([]byte, []tt.Change, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	spans := e.possiblyNil
	if e.nilReport != nil && filename != "" {
		spans = append(spans[:len(spans):len(spans)], e.nilReport[filepath.Clean(filename)]...)
	}
	ctx := &rules.Context{
		Fset:        fset,
		Src:         src,
		PossiblyNil: spanSet(spans),
	}

	set := edits.NewSet()
	for _, name := range e.ruleNames {
		rule := allRuleConstructors[name](ctx)
		ast.Inspect(file, func(n ast.Node) bool {
			if n == nil {
				return false
			}
			if rule.IsApplicable(n) {
				rule.Apply(n, set)
			}
			return true
		})
		e.logger.Debug("rule traversal finished",
			zap.String("rule", rule.Name()), zap.Int("edits", set.Len()))
	}

	tf := fset.File(file.Pos())
	mgr := nolint.ParseComments(file, fset)
	set.Filter(func(ed edits.Edit) bool {
		return !mgr.IsSuppressed(fset.Position(tf.Pos(ed.Start)), ed.Rule)
	})

	var changes []tt.Change
	for _, ed := range set.Edits() {
		old := string(src[ed.Start:ed.End])
		changes = append(changes, tt.Change{
			Rule:     ed.Rule,
			Filename: filename,
			Old:      old,
			New:      ed.New,
			Message:  fmt.Sprintf("rewrote %q to %q", old, ed.New),
			Start:    fset.Position(tf.Pos(ed.Start)),
			End:      fset.Position(tf.Pos(ed.End)),
		})
	}

	out, err := set.Apply(src)
	if err != nil {
		return nil, nil, fmt.Errorf("rewriting %s: %w", filename, err)
	}
	return out, changes, nil
}

func spanSet(spans []rules.Span) map[rules.Span]bool {
	if len(spans) == 0 {
		return nil
	}
	m := make(map[rules.Span]bool, len(spans))
	for _, s := range spans {
		m[s] = true
	}
	return m
}
