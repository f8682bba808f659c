package jsx_test

import (
	"testing"

	"github.com/leapstack-labs/boxwind/pkg/convert"
	"github.com/leapstack-labs/boxwind/pkg/jsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *jsx.Document {
	t.Helper()
	doc, err := jsx.Parse("test.tsx", src)
	require.NoError(t, err)
	return doc
}

func TestParseElements(t *testing.T) {
	src := `const A = () => (
  <Box flex p={2} className="x">
    <Grid item xs={6} />
  </Box>
);
`
	doc := mustParse(t, src)

	boxes := doc.Elements("Box")
	require.Len(t, boxes, 1)
	box := boxes[0]
	assert.Equal(t, `<Box flex p={2} className="x">`, doc.Text(box.Open))
	assert.Equal(t, `</Box>`, doc.Text(box.Close))
	assert.False(t, box.Element.SelfClosing)

	require.Len(t, box.Element.Attrs, 3)
	assert.Equal(t, convert.Attribute{Name: "flex", Value: convert.AbsentValue()}, box.Element.Attrs[0])
	assert.Equal(t, convert.Attribute{Name: "p", Value: convert.Expr("2"), Initializer: "{2}"}, box.Element.Attrs[1])
	assert.Equal(t, convert.Attribute{Name: "className", Value: convert.Literal("x"), Initializer: `"x"`}, box.Element.Attrs[2])

	grids := doc.Elements("Grid")
	require.Len(t, grids, 1)
	assert.True(t, grids[0].Element.SelfClosing)
	assert.Equal(t, `<Grid item xs={6} />`, doc.Text(grids[0].Open))
	assert.Equal(t, grids[0].Open, grids[0].Outer())
	assert.Equal(t, jsx.Span{Start: box.Open.Start, End: box.Close.End}, box.Outer())
}

func TestParseAttributeValues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want convert.Value
	}{
		{
			name: "ternary",
			src:  `<Box p={isOpen ? 2 : 'auto'} />`,
			want: convert.Ternary("isOpen", convert.Expr("2"), convert.Literal("auto")),
		},
		{
			name: "object",
			src:  `<Box p={{ sm: 6, 'md': "4", lg }} />`,
			want: convert.Object(
				convert.Entry{Key: "sm", Value: "6", HasValue: true},
				convert.Entry{Key: "md", Value: "4", HasValue: true},
				convert.Entry{Key: "lg"},
			),
		},
		{
			name: "single quoted",
			src:  `<Box p='3' />`,
			want: convert.Literal("3"),
		},
		{
			name: "string in braces",
			src:  `<Box p={"2"} />`,
			want: convert.Literal("2"),
		},
		{
			name: "empty expression",
			src:  `<Box p={/* todo */} />`,
			want: convert.AbsentValue(),
		},
		{
			name: "element value",
			src:  `<Box p=<span /> />`,
			want: convert.Expr("<span />"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			boxes := doc.Elements("Box")
			require.Len(t, boxes, 1)
			attr, ok := boxes[0].Element.Attr("p")
			require.True(t, ok)
			assert.Equal(t, tt.want, attr.Value)
		})
	}
}

func TestParseSpreads(t *testing.T) {
	doc := mustParse(t, `<Box {...rest} p={1} { ...other.props } />`)
	boxes := doc.Elements("Box")
	require.Len(t, boxes, 1)
	assert.Equal(t, []string{"rest", "other.props"}, boxes[0].Element.Spreads)
	assert.Len(t, boxes[0].Element.Attrs, 1)
}

func TestParseNestedInAttribute(t *testing.T) {
	doc := mustParse(t, `<Box icon={<Box m={1} />} p={2}>x</Box>`)
	boxes := doc.Elements("Box")
	require.Len(t, boxes, 2)
	assert.True(t, boxes[0].Open.Contains(boxes[1].Open))
	assert.Equal(t, "{<Box m={1} />}", boxes[0].Element.Attrs[0].Initializer)
}

func TestParseIgnoresNonJSX(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "comparison", src: "const x = a < b ? 1 : 2;"},
		{name: "type arguments", src: "const y = foo<string>(z);"},
		{name: "generic arrow", src: "const f = <T,>(x: T) => x;"},
		{name: "constrained generic", src: "const f = <T extends object>(x: T) => x;"},
		{name: "generic function type", src: "type F = <T>(x: T) => T;"},
		{name: "comparison on next line", src: "if (count\n  <limit) {}"},
		{name: "regex", src: "const r = /<Box>/g;"},
		{name: "string", src: `const s = "<Box />";`},
		{name: "line comment", src: "// <Box />\nconst a = 1;"},
		{name: "block comment", src: "/* <Box /> */ const a = 1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			assert.Empty(t, doc.Nodes())
		})
	}
}

func TestParseContexts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{name: "template literal", src: "const t = `${cond ? <Box p={1} /> : null}`;", want: 1},
		{name: "fragment", src: "const f = (<>\n<Box />\n<Box></Box>\n</>);", want: 2},
		{name: "apostrophe in text", src: "const a = <Box>Don't stop</Box>;", want: 1},
		{name: "map callback", src: "<ul>{items.map((i) => <Box key={i} />)}</ul>", want: 1},
		{name: "return statement", src: "function A() {\n  return <Box flex />;\n}", want: 1},
		{name: "logical and", src: "{open && <Box p={1} />}", want: 1},
		{name: "after line break", src: "const a = foo\n<Box p=\"1\" />", want: 1},
		{name: "after call on previous line", src: "render()\n  <Box />", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			assert.Len(t, doc.Elements("Box"), tt.want)
		})
	}
}

func TestParseTagNames(t *testing.T) {
	doc := mustParse(t, `<Foo.Bar><svg:rect /><my-el /></Foo.Bar>`)
	assert.Equal(t, map[string]int{"Foo.Bar": 1, "svg:rect": 1, "my-el": 1}, doc.TagCounts())
}

func TestParseError(t *testing.T) {
	_, err := jsx.Parse("a.tsx", "const s = \"abc\nconst t = 1;")
	require.Error(t, err)

	var perr *jsx.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Pos.Line)
	assert.Equal(t, 11, perr.Pos.Column)
	assert.Equal(t, "a.tsx:1:11: unterminated string literal", err.Error())
}

func TestParseMalformedElement(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "unclosed attributes", src: "const A = () => <Box p={1};\n", want: "a.tsx:1:27: unexpected ';' in <Box>"},
		{name: "missing closing tag", src: "const A = (\n  <Box p={1}>\n);", want: "a.tsx:3:3: unterminated element <Box>"},
		{name: "mismatched closing tag", src: "return <Box></Grid>;", want: "a.tsx:1:13: mismatched closing tag </Grid> for <Box>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jsx.Parse("a.tsx", tt.src)
			require.Error(t, err)
			var perr *jsx.ParseError
			require.ErrorAs(t, err, &perr)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestDocumentPosition(t *testing.T) {
	doc := mustParse(t, "a\nbc\n<Box />")
	boxes := doc.Elements("Box")
	require.Len(t, boxes, 1)
	assert.Equal(t, jsx.Position{Line: 3, Column: 1, Offset: 5}, doc.Position(boxes[0].Open.Start))
	assert.Equal(t, jsx.Position{Line: 2, Column: 2, Offset: 3}, doc.Position(3))
}
