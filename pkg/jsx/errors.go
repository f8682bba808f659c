package jsx

import "fmt"

// Position is a 1-based line/column location plus the byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// ParseError represents a scanning error with position information.
type ParseError struct {
	Path    string
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// OverlapError is returned when two edits touch the same bytes.
type OverlapError struct {
	First, Second Span
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("edit [%d,%d) overlaps edit [%d,%d)", e.Second.Start, e.Second.End, e.First.Start, e.First.End)
}

// ImportConflictError is returned when a binding cannot be imported because
// the file already binds something else in its place.
type ImportConflictError struct {
	Module   string
	Name     string
	Existing string
}

func (e *ImportConflictError) Error() string {
	return fmt.Sprintf("cannot import %s from %s: %s already imported", e.Name, e.Module, e.Existing)
}

// Common error messages
const (
	errUnterminatedString   = "unterminated string literal"
	errUnterminatedTemplate = "unterminated template literal"
	errUnterminatedComment  = "unterminated block comment"
	errUnbalanced           = "unbalanced %q"
)
