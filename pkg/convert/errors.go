package convert

import "fmt"

// DuplicateRuleError is returned when a rule table declares an attribute twice.
type DuplicateRuleError struct {
	Table string
	Attr  string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule table %s: duplicate rule for attribute %q", e.Table, e.Attr)
}

// InvalidTagError is returned when a component override does not name a
// valid element tag.
type InvalidTagError struct {
	Tag string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("component override %q is not a valid tag name", e.Tag)
}

// TransformError wraps a failing function transform.
type TransformError struct {
	Attr string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform for attribute %q failed: %v", e.Attr, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
