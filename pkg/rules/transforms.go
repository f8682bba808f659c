// Package rules holds the rule tables for the layout components the
// converter understands, plus loading of user-defined tables.
//
// Built-in tables register themselves in init(); Builtin returns them as a
// Set that custom tables can be merged into.
package rules

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/boxwind/pkg/convert"
)

// BreakpointWidth renders a 12-column breakpoint width. The attribute name
// is the breakpoint: xs="6" becomes "xs:6/12", "auto" becomes
// "xs:flex-auto" and "true" becomes "xs:flex-grow". Empty values yield no
// class.
func BreakpointWidth(name, value string, _ bool) string {
	switch value {
	case "":
		return ""
	case "auto":
		return name + ":flex-auto"
	case "true":
		return name + ":flex-grow"
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		value = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return name + ":" + value + "/12"
}

// FlexDirection renders flex-row, flex-col, flex-row-reverse and so on.
func FlexDirection(_, value string, _ bool) string {
	if value == "" {
		return ""
	}
	return "flex-" + strings.Replace(value, "column", "col", 1)
}

// Verbatim uses the value itself as the class (display="flex" -> "flex").
func Verbatim(_, value string, _ bool) string {
	return value
}

// ZeroMinWidth renders min-w-0 for the boolean form and for "true".
func ZeroMinWidth(_, value string, _ bool) string {
	if value == "" || value == "true" {
		return "min-w-0"
	}
	return ""
}

// Const returns a transform that always yields class.
func Const(class string) convert.TransformFunc {
	return func(string, string, bool) string { return class }
}
