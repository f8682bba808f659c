package convert

import "strings"

// PassthroughAttr is an attribute copied verbatim onto the output element.
// Initializer is empty for boolean attributes.
type PassthroughAttr struct {
	Name        string
	Initializer string
}

// Result is the outcome of converting one element.
type Result struct {
	Tag string
	// ClassValue is the className initializer (`"a-2"` or `{cn(...)}`),
	// empty when the attribute is omitted.
	ClassValue     string
	Props          []Prop
	IsComplexClass bool
	// UsesMergeFunc is set when ClassValue calls the merge helper, so the
	// caller must make sure it is imported.
	UsesMergeFunc bool
	Passthrough   []PassthroughAttr
	Spreads       []string
	SelfClosing   bool
	// Dropped lists source attributes that have no place on the output.
	Dropped []string
}

// OpeningTag renders the replacement opening tag (or the whole element when
// self-closing).
func (r *Result) OpeningTag() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(r.Tag)
	if r.ClassValue != "" {
		b.WriteString(" " + ClassAttr + "=")
		b.WriteString(r.ClassValue)
	}
	for _, p := range r.Passthrough {
		b.WriteString(" ")
		b.WriteString(p.Name)
		if p.Initializer != "" {
			b.WriteString("=")
			b.WriteString(p.Initializer)
		}
	}
	for _, s := range r.Spreads {
		b.WriteString(" {..." + s + "}")
	}
	if r.SelfClosing {
		b.WriteString(" />")
	} else {
		b.WriteString(">")
	}
	return b.String()
}

// ClosingTag renders the replacement closing tag, or "" for self-closing
// elements.
func (r *Result) ClosingTag() string {
	if r.SelfClosing {
		return ""
	}
	return "</" + r.Tag + ">"
}

// String returns the opening tag.
func (r *Result) String() string {
	return r.OpeningTag()
}
