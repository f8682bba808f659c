// Package jsx locates JSX elements in TSX source and rewrites them in place.
//
// The scanner is shallow: it tracks strings, comments, regular
// expressions, template literals and bracket nesting well enough to find
// every element with byte-accurate spans, and leaves everything else alone.
package jsx

import (
	"errors"
	"sort"

	"github.com/leapstack-labs/boxwind/pkg/convert"
)

// Span is a half-open byte range [Start, End) into the source.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Node is one JSX element found in a document.
type Node struct {
	Element convert.Element

	// Open covers the opening tag including its angle brackets.
	Open Span
	// Close covers the closing tag; it is empty for self-closing elements.
	Close Span
}

// Outer returns the span of the whole element, children included.
func (n *Node) Outer() Span {
	if n.Element.SelfClosing {
		return n.Open
	}
	return Span{Start: n.Open.Start, End: n.Close.End}
}

// Document is a parsed TSX file.
type Document struct {
	Path string
	Src  string

	nodes []*Node
	lines []int // offsets of line starts
}

// Parse scans src and records every JSX element in it.
func Parse(path, src string) (*Document, error) {
	doc := &Document{Path: path, Src: src}
	doc.indexLines()

	s := newScanner(src)
	if err := s.scanCode(false, nil); err != nil {
		var se *scanError
		if errors.As(err, &se) {
			return nil, &ParseError{Path: path, Pos: doc.Position(se.offset), Message: se.msg}
		}
		return nil, err
	}
	doc.nodes = s.nodes
	return doc, nil
}

func (d *Document) indexLines() {
	d.lines = append(d.lines[:0], 0)
	for i := 0; i < len(d.Src); i++ {
		if d.Src[i] == '\n' {
			d.lines = append(d.lines, i+1)
		}
	}
}

// Position converts a byte offset into a line/column position.
func (d *Document) Position(offset int) Position {
	line := sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Column: offset - d.lines[line] + 1, Offset: offset}
}

// Nodes returns every element in source order of the opening tags.
func (d *Document) Nodes() []*Node {
	out := make([]*Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Elements returns the elements with the given tag name in source order.
func (d *Document) Elements(tag string) []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.Element.Tag == tag {
			out = append(out, n)
		}
	}
	return out
}

// TagCounts returns the number of elements per tag name.
func (d *Document) TagCounts() map[string]int {
	counts := make(map[string]int)
	for _, n := range d.nodes {
		counts[n.Element.Tag]++
	}
	return counts
}

// Text returns the source covered by the span.
func (d *Document) Text(s Span) string {
	return d.Src[s.Start:s.End]
}
