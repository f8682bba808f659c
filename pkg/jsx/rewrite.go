package jsx

import (
	"sort"
	"strings"
)

// Edit replaces the bytes of Span with Text.
type Edit struct {
	Span Span
	Text string
}

// Swap returns the edits that replace the tags of n. closing is ignored for
// self-closing elements.
func Swap(n *Node, opening, closing string) []Edit {
	edits := []Edit{{Span: n.Open, Text: opening}}
	if !n.Element.SelfClosing {
		edits = append(edits, Edit{Span: n.Close, Text: closing})
	}
	return edits
}

// Apply applies non-overlapping edits to src. Edits may be given in any
// order.
func Apply(src string, edits []Edit) (string, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for i, e := range sorted {
		if i > 0 && e.Span.Start < sorted[i-1].Span.End {
			return "", &OverlapError{First: sorted[i-1].Span, Second: e.Span}
		}
		b.WriteString(src[last:e.Span.Start])
		b.WriteString(e.Text)
		last = e.Span.End
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

// Batch accumulates element swaps for a single pass over a document.
//
// An element whose tags fall inside a tag already scheduled for
// replacement (a layout element passed as an attribute of another) cannot be
// rewritten in the same pass; Add rejects it so a later run can pick it up.
type Batch struct {
	edits []Edit
}

// Add schedules the edits of one swap. It reports false and schedules
// nothing when any of them overlaps an edit already in the batch.
func (b *Batch) Add(edits ...Edit) bool {
	for _, e := range edits {
		for _, have := range b.edits {
			if e.Span.Overlaps(have.Span) {
				return false
			}
		}
	}
	b.edits = append(b.edits, edits...)
	return true
}

// Len returns the number of scheduled edits.
func (b *Batch) Len() int { return len(b.edits) }

// Apply applies the scheduled edits to src.
func (b *Batch) Apply(src string) (string, error) {
	return Apply(src, b.edits)
}
