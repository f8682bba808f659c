package rules

import "github.com/leapstack-labs/boxwind/pkg/convert"

// Grid maps MUI Grid props to utility classes. Every converted Grid gets
// border-box.
var Grid = convert.MustRuleTable("Grid", []string{"border-box"},
	convert.R("alignContent", "content"),
	convert.R("alignItems", "items"),
	convert.F("container", Const("flex flex-wrap")),
	convert.F("direction", FlexDirection),
	convert.R("item", "flex-auto box-border"),
	convert.R("justify", "justify"),
	convert.R("justifyContent", "justify"),
	convert.F("lg", BreakpointWidth),
	convert.F("md", BreakpointWidth),
	convert.F("sm", BreakpointWidth),
	convert.F("xl", BreakpointWidth),
	convert.F("xs", BreakpointWidth),
	convert.R("spacing", "gap"),
	convert.R("wrap", "flex-wrap"),
	convert.F("zeroMinWidth", ZeroMinWidth),
	convert.R("color", "text"),
)

func init() {
	Register(Grid)
}
