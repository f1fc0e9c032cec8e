package internal

import (
	"sort"

	"github.com/nilaware/nilify/internal/rules"
)

// Define the ruleConstructor type
type ruleConstructor func(*rules.Context) rules.Rule

// Define the ruleMap type
type ruleMap map[string]ruleConstructor

// Create a map to hold the mappings of rule names to their constructors
var allRuleConstructors = ruleMap{
	"boolean-flag":        rules.NewBooleanFlag,
	"sentinel":            rules.NewSentinel,
	"nested-nil-inlining": rules.NewNestedNilInlining,
	"dereference-guard":   rules.NewDereferenceGuard,
}

// DefaultRuleOrder is the order the rules run in when no configuration
// overrides it.
var DefaultRuleOrder = []string{
	"boolean-flag",
	"sentinel",
	"nested-nil-inlining",
	"dereference-guard",
}

// RuleNames returns every registered rule name, sorted.
func RuleNames() []string {
	names := make([]string, 0, len(allRuleConstructors))
	for name := range allRuleConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
