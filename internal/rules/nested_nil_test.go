package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNestedNilInlining(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name: "method helper inlined at call site",
			code: `package main

type client struct{ conn *conn }
type conn struct{}

func (c *client) missing() bool { return c.conn == nil }

func run(c *client) {
	if c.missing() {
		println("no conn")
	}
}`,
			expected: `package main

type client struct{ conn *conn }
type conn struct{}

func (c *client) missing() bool { return c.conn == nil }

func run(c *client) {
	if (c.conn == nil) {
		println("no conn")
	}
}`,
		},
		{
			name: "call site precedes the declaration",
			code: `package main

var cfg *config

type config struct{}

func run() {
	if noConfig() {
		println("no config")
	}
}

func noConfig() bool { return cfg == nil }`,
			expected: `package main

var cfg *config

type config struct{}

func run() {
	if (cfg == nil) {
		println("no config")
	}
}

func noConfig() bool { return cfg == nil }`,
		},
		{
			name: "negated call keeps the not",
			code: `package main

var cfg *config

type config struct{}

func noConfig() bool { return cfg == nil }

func run() {
	if !noConfig() {
		println("have config")
	}
}`,
			expected: `package main

var cfg *config

type config struct{}

func noConfig() bool { return cfg == nil }

func run() {
	if !(cfg == nil) {
		println("have config")
	}
}`,
		},
		{
			name: "exported helper is not inlined",
			code: `package main

var cfg *config

type config struct{}

func NoConfig() bool { return cfg == nil }

func run() {
	if NoConfig() {
		println("no config")
	}
}`,
			expected: `package main

var cfg *config

type config struct{}

func NoConfig() bool { return cfg == nil }

func run() {
	if NoConfig() {
		println("no config")
	}
}`,
		},
		{
			name: "helper with parameters is not inlined",
			code: `package main

func isNil(p *int) bool { return p == nil }

func run(p *int) {
	if isNil(p) {
		println("nil")
	}
}`,
			expected: `package main

func isNil(p *int) bool { return p == nil }

func run(p *int) {
	if isNil(p) {
		println("nil")
	}
}`,
		},
		{
			name: "multi statement body is not inlined",
			code: `package main

var cfg *config

type config struct{}

func noConfig() bool {
	println("checking")
	return cfg == nil
}

func run() {
	if noConfig() {
		println("no config")
	}
}`,
			expected: `package main

var cfg *config

type config struct{}

func noConfig() bool {
	println("checking")
	return cfg == nil
}

func run() {
	if noConfig() {
		println("no config")
	}
}`,
		},
		{
			name: "ambiguous helper name is skipped",
			code: `package main

type a struct{ p *int }
type b struct{ q *int }

func (x *a) empty() bool { return x.p == nil }
func (x *b) empty() bool { return x.q == nil }

func run(x *a) {
	if x.empty() {
		println("empty")
	}
}`,
			expected: `package main

type a struct{ p *int }
type b struct{ q *int }

func (x *a) empty() bool { return x.p == nil }
func (x *b) empty() bool { return x.q == nil }

func run(x *a) {
	if x.empty() {
		println("empty")
	}
}`,
		},
		{
			name: "inlined outside conditions too",
			code: `package main

var cfg *config

type config struct{}

func noConfig() bool { return cfg == nil }

func run() {
	missing := noConfig()
	_ = missing
}`,
			expected: `package main

var cfg *config

type config struct{}

func noConfig() bool { return cfg == nil }

func run() {
	missing := (cfg == nil)
	_ = missing
}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applyRule(t, NewNestedNilInlining, tt.code)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNestedNilInliningIdempotent(t *testing.T) {
	t.Parallel()
	code := `package main

var cfg *config

type config struct{}

func noConfig() bool { return cfg == nil }

func run() {
	if noConfig() {
		println("no config")
	}
}`
	once := applyRule(t, NewNestedNilInlining, code)
	twice := applyRule(t, NewNestedNilInlining, once)
	assert.Equal(t, once, twice)
}
