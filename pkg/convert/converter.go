package convert

import (
	"regexp"
	"strings"
)

// Attribute names with a fixed meaning to the converter.
const (
	ClassAttr     = "className"
	ComponentAttr = "component"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultMergeFunc = "cn"
	DefaultTag       = "div"
)

// DefaultPassthrough lists the attributes copied verbatim onto the converted
// element, in output order.
var DefaultPassthrough = []string{
	"data-intercom-target",
	"data-testid",
	"key",
	"onClick",
	"onKeyUp",
	"onMouseEnter",
	"onMouseLeave",
	"ref",
	"role",
	"style",
	"tabIndex",
	"unselectable",
}

var tagNamePattern = regexp.MustCompile(`^(?:[A-Za-z_$][\w$-]*(?:\.[A-Za-z_$][\w$]*)*|[A-Za-z_][\w-]*:[A-Za-z_][\w-]*)$`)

// Options configures a Converter.
type Options struct {
	// MergeFunc is the runtime helper wrapping complex class arguments.
	MergeFunc string
	// DefaultTag is the output tag when no component override is given.
	DefaultTag string
	// Passthrough is appended to DefaultPassthrough.
	Passthrough []string
}

// Converter renders elements into plain elements with a utility-class
// attribute. It holds no per-element state and is safe for concurrent use.
type Converter struct {
	mergeFunc   string
	defaultTag  string
	passthrough []string
}

// New creates a Converter.
func New(opts Options) *Converter {
	c := &Converter{
		mergeFunc:  opts.MergeFunc,
		defaultTag: opts.DefaultTag,
	}
	if c.mergeFunc == "" {
		c.mergeFunc = DefaultMergeFunc
	}
	if c.defaultTag == "" {
		c.defaultTag = DefaultTag
	}
	seen := make(map[string]bool)
	for _, name := range append(append([]string(nil), DefaultPassthrough...), opts.Passthrough...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		c.passthrough = append(c.passthrough, name)
	}
	return c
}

// MergeFunc returns the merge helper name used for complex classes.
func (c *Converter) MergeFunc() string { return c.mergeFunc }

// Passthrough returns the effective allowlist in output order.
func (c *Converter) Passthrough() []string {
	return append([]string(nil), c.passthrough...)
}

// IsComplexClass reports whether converting el needs a runtime class
// expression: a matched attribute is a ternary, or el already has a className.
func (c *Converter) IsComplexClass(el *Element, table *RuleTable) bool {
	if el.HasAttr(ClassAttr) {
		return true
	}
	for _, r := range table.rules {
		if a, ok := el.Attr(r.Attr); ok && a.Value.IsConditional() {
			return true
		}
	}
	return false
}

// Convert resolves el against table. The element itself is never modified.
func (c *Converter) Convert(el *Element, table *RuleTable) (*Result, error) {
	res := &Result{
		Tag:         c.defaultTag,
		SelfClosing: el.SelfClosing,
	}

	consumed := map[string]bool{ClassAttr: true, ComponentAttr: true}
	for _, r := range table.rules {
		attr, ok := el.Attr(r.Attr)
		if !ok {
			continue
		}
		prop, err := Resolve(attr, r.Transform)
		if err != nil {
			return nil, err
		}
		consumed[r.Attr] = true
		res.Props = append(res.Props, prop)
	}

	tag, err := c.resolveTag(el)
	if err != nil {
		return nil, err
	}
	res.Tag = tag

	res.IsComplexClass = c.IsComplexClass(el, table)
	if res.IsComplexClass {
		res.ClassValue, res.UsesMergeFunc = c.complexClass(el, table, res.Props)
	} else {
		res.ClassValue = simpleClass(table.baseClasses, res.Props)
	}

	for _, name := range c.passthrough {
		if consumed[name] {
			continue
		}
		attr, ok := el.Attr(name)
		if !ok {
			continue
		}
		consumed[name] = true
		res.Passthrough = append(res.Passthrough, PassthroughAttr{Name: attr.Name, Initializer: attr.Initializer})
	}
	res.Spreads = append(res.Spreads, el.Spreads...)

	for _, a := range el.Attrs {
		if !consumed[a.Name] {
			consumed[a.Name] = true
			res.Dropped = append(res.Dropped, a.Name)
		}
	}
	return res, nil
}

func (c *Converter) resolveTag(el *Element) (string, error) {
	attr, ok := el.Attr(ComponentAttr)
	if !ok || attr.Value.Kind == Absent {
		return c.defaultTag, nil
	}
	var tag string
	if attr.Value.Kind == StringLiteral {
		tag = attr.Value.Text
	} else {
		tag = expressionText(attr)
	}
	if tag == "" {
		return c.defaultTag, nil
	}
	if !tagNamePattern.MatchString(tag) {
		return "", &InvalidTagError{Tag: tag}
	}
	return tag, nil
}

// simpleClass renders the static class attribute value, or "" when there is
// nothing to emit.
func simpleClass(base []string, props []Prop) string {
	parts := make([]string, 0, len(base)+len(props))
	for _, b := range base {
		if b != "" {
			parts = append(parts, b)
		}
	}
	for _, p := range props {
		if p.Class != "" {
			parts = append(parts, p.Class)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	text := strings.Join(parts, " ")
	if strings.Contains(text, `"`) {
		return "{" + quoteDouble(text) + "}"
	}
	return `"` + text + `"`
}

// complexClass renders the class attribute value for elements whose classes
// depend on runtime expressions. merged reports whether the value calls the
// merge helper.
func (c *Converter) complexClass(el *Element, table *RuleTable, props []Prop) (value string, merged bool) {
	var args []string
	for _, b := range table.baseClasses {
		if b != "" {
			args = append(args, quoteDouble(b))
		}
	}
	for _, p := range props {
		switch {
		case p.IsComplexClass:
			args = append(args, p.Class)
		case p.Class != "":
			args = append(args, quoteDouble(p.Class))
		}
	}

	existing, hasExisting := el.Attr(ClassAttr)
	var existingArg string
	if hasExisting {
		switch existing.Value.Kind {
		case StringLiteral:
			existingArg = quoteDouble(existing.Value.Text)
		case Absent:
		default:
			existingArg = expressionText(existing)
		}
	}

	if len(args) == 0 {
		// The pre-existing className alone needs no merge call.
		switch {
		case existingArg == "":
			return "", false
		case existing.Value.Kind == StringLiteral:
			return existing.Initializer, false
		default:
			return "{" + existingArg + "}", false
		}
	}
	if existingArg != "" {
		args = append(args, existingArg)
	}
	return "{" + c.mergeFunc + "(" + strings.Join(args, ", ") + ")}", true
}

// expressionText returns the source of an expression-valued attribute
// without the surrounding braces.
func expressionText(a Attribute) string {
	init := strings.TrimSpace(a.Initializer)
	if strings.HasPrefix(init, "{") && strings.HasSuffix(init, "}") {
		return strings.TrimSpace(init[1 : len(init)-1])
	}
	if a.Value.Kind == Opaque {
		return a.Value.Text
	}
	return init
}
