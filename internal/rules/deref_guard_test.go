package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDereferenceGuard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name: "bridge guarded dereference gets an assertion",
			code: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if ok {
		y.run()
	}
}`,
			expected: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if ok {
		{
			if y == nil {
				panic("unexpected nil: y")
			}
			y.run()
		}
	}
}`,
		},
		{
			name: "direct guard in the same condition suppresses the assertion",
			code: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if ok && y != nil {
		y.run()
	}
}`,
			expected: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if ok && y != nil {
		y.run()
	}
}`,
		},
		{
			name: "direct guard in an enclosing condition suppresses the assertion",
			code: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if y != nil {
		if ok {
			y.run()
		}
	}
}`,
			expected: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if y != nil {
		if ok {
			y.run()
		}
	}
}`,
		},
		{
			name: "guard assign idiom builds the implication",
			code: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	var ok bool
	if y != nil {
		ok = y.ready
	}
	if ok {
		y.run()
	}
}`,
			expected: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	var ok bool
	if y != nil {
		ok = y.ready
	}
	if ok {
		{
			if y == nil {
				panic("unexpected nil: y")
			}
			y.run()
		}
	}
}`,
		},
		{
			name: "bridge reassignment removes the implication",
			code: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	ok = true
	if ok {
		y.run()
	}
}`,
			expected: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	ok = true
	if ok {
		y.run()
	}
}`,
		},
		{
			name: "unbridged dereference is untouched",
			code: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing, ok bool) {
	if ok {
		y.run()
	}
}`,
			expected: `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing, ok bool) {
	if ok {
		y.run()
	}
}`,
		},
		{
			name: "one assertion per statement",
			code: `package main

type thing struct{ ready bool; n int }

func f(y *thing) int {
	ok := y != nil && y.ready
	if ok {
		return y.n + y.n
	}
	return 0
}`,
			expected: `package main

type thing struct{ ready bool; n int }

func f(y *thing) int {
	ok := y != nil && y.ready
	if ok {
		{
			if y == nil {
				panic("unexpected nil: y")
			}
			return y.n + y.n
		}
	}
	return 0
}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applyRule(t, NewDereferenceGuard, tt.code)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// Returns flagged possibly nil by the external checker are asserted the
// same way dereferences are.
func TestDereferenceGuardFlaggedReturn(t *testing.T) {
	t.Parallel()
	code := `package main

type thing struct{ ready bool }

func f(y *thing) *thing {
	ok := y != nil && y.ready
	if ok {
		return y
	}
	return nil
}`
	// span of the `y` in `return y`
	idx := strings.Index(code, "return y\n")
	require.Positive(t, idx)
	span := Span{Start: idx + len("return "), End: idx + len("return y")}

	got := applyRule(t, NewDereferenceGuard, code, span)
	assert.Contains(t, got, `		{
			if y == nil {
				panic("unexpected nil: y")
			}
			return y
		}`)
}

func TestDereferenceGuardIdempotent(t *testing.T) {
	t.Parallel()
	code := `package main

type thing struct{ ready bool }

func (t *thing) run() {}

func f(y *thing) {
	ok := y != nil && y.ready
	if ok {
		y.run()
	}
}`
	once := applyRule(t, NewDereferenceGuard, code)
	twice := applyRule(t, NewDereferenceGuard, once)
	assert.Equal(t, once, twice)
}
