package convert

import (
	"fmt"
	"strings"
)

// TransformFunc computes a class token from an attribute. value is empty for
// boolean attributes. The returned token is used verbatim.
type TransformFunc func(name, value string, arbitrary bool) string

// FallibleTransformFunc is a TransformFunc that can fail, used by scripted
// rule tables. A failure aborts the conversion of the element.
type FallibleTransformFunc func(name, value string, arbitrary bool) (string, error)

// Transform is either a fixed class prefix or a function.
type Transform struct {
	prefix string
	fn     FallibleTransformFunc
}

// Prefix returns a transform that renders "{prefix}-{value}", or the bare
// prefix for boolean and empty values. Arbitrary values are bracketed.
func Prefix(prefix string) Transform {
	return Transform{prefix: prefix}
}

// Func returns a transform backed by fn.
func Func(fn TransformFunc) Transform {
	return Transform{fn: func(name, value string, arbitrary bool) (string, error) {
		return fn(name, value, arbitrary), nil
	}}
}

// FallibleFunc returns a transform backed by a function that may fail.
func FallibleFunc(fn FallibleTransformFunc) Transform {
	return Transform{fn: fn}
}

// IsFunc reports whether the transform is function-backed.
func (t Transform) IsFunc() bool { return t.fn != nil }

// String describes the transform for listings.
func (t Transform) String() string {
	if t.fn != nil {
		return "func"
	}
	return t.prefix
}

func (t Transform) apply(name, value string, arbitrary bool) (string, error) {
	if t.fn != nil {
		return t.fn(name, value, arbitrary)
	}
	if value == "" {
		return t.prefix, nil
	}
	if arbitrary {
		return t.prefix + "-[" + value + "]", nil
	}
	return t.prefix + "-" + value, nil
}

// Rule maps one attribute name to its transform.
type Rule struct {
	Attr      string
	Transform Transform
}

// R is shorthand for a prefix rule.
func R(attr, prefix string) Rule {
	return Rule{Attr: attr, Transform: Prefix(prefix)}
}

// F is shorthand for a function rule.
func F(attr string, fn TransformFunc) Rule {
	return Rule{Attr: attr, Transform: Func(fn)}
}

// RuleTable is the immutable attribute → transform mapping for one component
// kind. Iteration follows declaration order.
type RuleTable struct {
	name        string
	baseClasses []string
	rules       []Rule
	index       map[string]int
}

// NewRuleTable builds a rule table. Duplicate attribute names are rejected
// here, once, so that conversions never have to check.
func NewRuleTable(name string, baseClasses []string, rules ...Rule) (*RuleTable, error) {
	t := &RuleTable{
		name:        name,
		baseClasses: append([]string(nil), baseClasses...),
		rules:       make([]Rule, 0, len(rules)),
		index:       make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		if strings.TrimSpace(r.Attr) == "" {
			return nil, fmt.Errorf("rule table %s: empty attribute name", name)
		}
		if _, dup := t.index[r.Attr]; dup {
			return nil, &DuplicateRuleError{Table: name, Attr: r.Attr}
		}
		t.index[r.Attr] = len(t.rules)
		t.rules = append(t.rules, r)
	}
	return t, nil
}

// MustRuleTable is NewRuleTable for package-level tables; it panics on error.
func MustRuleTable(name string, baseClasses []string, rules ...Rule) *RuleTable {
	t, err := NewRuleTable(name, baseClasses, rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the component kind (the source tag name) of the table.
func (t *RuleTable) Name() string { return t.name }

// BaseClasses returns a copy of the classes applied to every conversion.
func (t *RuleTable) BaseClasses() []string {
	return append([]string(nil), t.baseClasses...)
}

// Rules returns a copy of the rules in table order.
func (t *RuleTable) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Lookup returns the transform registered for attr.
func (t *RuleTable) Lookup(attr string) (Transform, bool) {
	i, ok := t.index[attr]
	if !ok {
		return Transform{}, false
	}
	return t.rules[i].Transform, true
}

// Len returns the number of rules.
func (t *RuleTable) Len() int { return len(t.rules) }
