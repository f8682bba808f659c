package rules

import "github.com/leapstack-labs/boxwind/pkg/convert"

// Box maps MUI Box system props to utility classes.
var Box = convert.MustRuleTable("Box", nil,
	convert.F("container", Const("flex")),
	convert.F("direction", FlexDirection),
	convert.F("lg", BreakpointWidth),
	convert.F("md", BreakpointWidth),
	convert.F("sm", BreakpointWidth),
	convert.F("xl", BreakpointWidth),
	convert.F("xs", BreakpointWidth),
	convert.R("spacing", "gap"),
	convert.R("wrap", "flex"),
	convert.F("zeroMinWidth", ZeroMinWidth),
	convert.R("alignContent", "content"),
	convert.R("alignItems", "items"),
	convert.R("bgcolor", "bg"),
	convert.R("border", "border"),
	convert.R("borderBottom", "border-b"),
	convert.R("borderColor", "border"),
	convert.R("borderLeft", "border-l"),
	convert.R("borderRadius", "rounded"),
	convert.R("borderRight", "border-r"),
	convert.R("borderTop", "border-t"),
	convert.R("bottom", "bottom"),
	convert.R("boxShadow", "shadow"),
	convert.R("color", "text"),
	convert.F("display", Verbatim),
	convert.R("flex", "flex"),
	convert.F("flexDirection", FlexDirection),
	convert.R("flexGrow", "flex-grow"),
	convert.R("fontSize", "text"),
	convert.F("fontStyle", Verbatim),
	convert.R("fontWeight", "font"),
	convert.R("gridGap", "gap"),
	convert.R("gridTemplateRows", "grid-rows"),
	convert.R("height", "h"),
	convert.R("justifyContent", "justify"),
	convert.R("left", "left"),
	convert.R("m", "m"),
	convert.R("margin", "m"),
	convert.R("marginBottom", "mb"),
	convert.R("marginLeft", "ml"),
	convert.R("marginRight", "mr"),
	convert.R("marginTop", "mt"),
	convert.R("marginX", "mx"),
	convert.R("marginY", "my"),
	convert.R("maxWidth", "max-w"),
	convert.R("mb", "mb"),
	convert.R("minHeight", "min-h"),
	convert.R("minWidth", "min-w"),
	convert.R("ml", "ml"),
	convert.R("mr", "mr"),
	convert.R("mt", "mt"),
	convert.R("mx", "mx"),
	convert.R("my", "my"),
	convert.R("overflow", "overflow"),
	convert.R("p", "p"),
	convert.R("padding", "p"),
	convert.R("paddingBottom", "pb"),
	convert.R("paddingLeft", "pl"),
	convert.R("paddingX", "px"),
	convert.R("paddingY", "py"),
	convert.R("pb", "pb"),
	convert.R("pl", "pl"),
	convert.F("position", Verbatim),
	convert.R("pr", "pr"),
	convert.R("pt", "pt"),
	convert.R("px", "px"),
	convert.R("py", "py"),
	convert.R("right", "right"),
	convert.R("textAlign", "text"),
	convert.R("top", "top"),
	convert.R("whiteSpace", "whitespace"),
	convert.R("width", "w"),
	convert.R("zIndex", "z"),
)

func init() {
	Register(Box)
}
