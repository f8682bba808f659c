// Package convert implements the class-string engine: it resolves the
// attributes of a layout component element against a rule table and renders
// the replacement element with a single utility-class attribute.
package convert

// ValueKind identifies the shape of an attribute value.
type ValueKind int

const (
	// Absent is a boolean attribute with no initializer (<Box flex />).
	Absent ValueKind = iota
	// StringLiteral is a quoted value (a="2").
	StringLiteral
	// Conditional is a ternary expression (a={x ? 2 : 3}).
	Conditional
	// ObjectLiteral is a responsive object (a={{ sm: 2, md: 4 }}).
	ObjectLiteral
	// Opaque is any other expression, kept as source text.
	Opaque
)

var valueKindNames = map[ValueKind]string{
	Absent:        "Absent",
	StringLiteral: "StringLiteral",
	Conditional:   "Conditional",
	ObjectLiteral: "ObjectLiteral",
	Opaque:        "Opaque",
}

// String returns the name of the value kind.
func (k ValueKind) String() string {
	if name, ok := valueKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Value is the tagged variant of an attribute value.
//
// Only the fields relevant to Kind are set: Text for StringLiteral and Opaque
// (the literal contents or the raw expression source), Condition/Then/Else for
// Conditional, and Entries for ObjectLiteral.
type Value struct {
	Kind      ValueKind
	Text      string
	Condition string
	Then      *Value
	Else      *Value
	Entries   []Entry
}

// Entry is one property of an object literal value, in source order.
// HasValue is false for shorthand properties ({ sm }).
type Entry struct {
	Key      string
	Value    string
	HasValue bool
}

// AbsentValue returns the value of a boolean attribute.
func AbsentValue() Value { return Value{Kind: Absent} }

// Literal returns a string literal value.
func Literal(text string) Value { return Value{Kind: StringLiteral, Text: text} }

// Expr returns an opaque expression value.
func Expr(src string) Value { return Value{Kind: Opaque, Text: src} }

// Ternary returns a conditional value.
func Ternary(cond string, then, els Value) Value {
	return Value{Kind: Conditional, Condition: cond, Then: &then, Else: &els}
}

// Object returns an object literal value.
func Object(entries ...Entry) Value {
	return Value{Kind: ObjectLiteral, Entries: entries}
}

// IsConditional reports whether v is a ternary. Values nested inside a
// ternary are resolved through it, so this is the only complexity source.
func (v Value) IsConditional() bool {
	return v.Kind == Conditional
}

// Attribute is one named attribute of a source element.
type Attribute struct {
	Name  string
	Value Value
	// Initializer is the verbatim initializer source ("\"2\"", "{x}"),
	// empty for boolean attributes. Pass-through attributes are copied from it.
	Initializer string
}

// Element is a read-only snapshot of one source element.
type Element struct {
	Tag         string
	Attrs       []Attribute
	Spreads     []string // spread expressions, without the surrounding {...}
	SelfClosing bool
}

// Attr returns the first attribute with the given name.
func (e *Element) Attr(name string) (Attribute, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// HasAttr reports whether the element carries the named attribute.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}
