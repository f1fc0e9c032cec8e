package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBooleanFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name: "simple flag in if condition",
			code: `package main

func f(x *int) {
	ok := x == nil
	if ok {
		println(1)
	}
}`,
			expected: `package main

func f(x *int) {
	ok := x == nil
	if (x == nil) {
		println(1)
	}
}`,
		},
		{
			name: "negated flag keeps the not",
			code: `package main

func f(x *int) {
	ok := x == nil
	if !ok {
		println(1)
	}
}`,
			expected: `package main

func f(x *int) {
	ok := x == nil
	if !(x == nil) {
		println(1)
	}
}`,
		},
		{
			name: "compound initializer is copied verbatim",
			code: `package main

func f(x, y *int) {
	ok := x == nil || (y != nil)
	if ok {
		println(1)
	}
}`,
			expected: `package main

func f(x, y *int) {
	ok := x == nil || (y != nil)
	if (x == nil || (y != nil)) {
		println(1)
	}
}`,
		},
		{
			name: "flag leaf nested under logical combinators",
			code: `package main

func f(x *int, n int) {
	ok := x != nil
	if ok && n > 0 {
		println(1)
	}
}`,
			expected: `package main

func f(x *int, n int) {
	ok := x != nil
	if (x != nil) && n > 0 {
		println(1)
	}
}`,
		},
		{
			name: "explicit bool declaration",
			code: `package main

func f(x *int) {
	var ok bool = x == nil
	if ok {
		println(1)
	}
}`,
			expected: `package main

func f(x *int) {
	var ok bool = x == nil
	if (x == nil) {
		println(1)
	}
}`,
		},
		{
			name: "reassignment invalidates the binding",
			code: `package main

func f(x *int) {
	ok := x == nil
	ok = true
	if ok {
		println(1)
	}
}`,
			expected: `package main

func f(x *int) {
	ok := x == nil
	ok = true
	if ok {
		println(1)
	}
}`,
		},
		{
			name: "shadowing declaration invalidates the binding",
			code: `package main

func f(x *int) {
	ok := x == nil
	_ = ok
	{
		ok := true
		if ok {
			println(1)
		}
	}
}`,
			expected: `package main

func f(x *int) {
	ok := x == nil
	_ = ok
	{
		ok := true
		if ok {
			println(1)
		}
	}
}`,
		},
		{
			name: "non nil initializer is not a flag",
			code: `package main

func f(n int) {
	ok := n == 0
	if ok {
		println(1)
	}
}`,
			expected: `package main

func f(n int) {
	ok := n == 0
	if ok {
		println(1)
	}
}`,
		},
		{
			name: "for loop condition",
			code: `package main

func f(x *int) {
	done := x == nil
	for !done {
		println(1)
	}
}`,
			expected: `package main

func f(x *int) {
	done := x == nil
	for !(x == nil) {
		println(1)
	}
}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applyRule(t, NewBooleanFlag, tt.code)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBooleanFlagIdempotent(t *testing.T) {
	t.Parallel()
	code := `package main

func f(x *int) {
	ok := x == nil
	if ok {
		println(1)
	}
}`
	once := applyRule(t, NewBooleanFlag, code)
	twice := applyRule(t, NewBooleanFlag, once)
	assert.Equal(t, once, twice)
}
