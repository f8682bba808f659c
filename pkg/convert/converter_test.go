package convert_test

import (
	"testing"

	"github.com/leapstack-labs/boxwind/pkg/convert"
	"github.com/leapstack-labs/boxwind/pkg/jsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = convert.MustRuleTable("Box", nil,
	convert.R("a", "a"),
	convert.R("p", "p"),
	convert.R("flex", "flex"),
	convert.F("w", func(_, v string, _ bool) string { return "w-" + v + "/12" }),
)

// element parses src and returns the first element with the given tag.
func element(t *testing.T, src, tag string) *convert.Element {
	t.Helper()
	doc, err := jsx.Parse("test.tsx", src)
	require.NoError(t, err)
	nodes := doc.Elements(tag)
	require.NotEmpty(t, nodes, "no <%s> in %q", tag, src)
	return &nodes[0].Element
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		opts        convert.Options
		wantOpen    string
		wantClose   string
		wantComplex bool
	}{
		{
			name:     "self-closing",
			src:      `<Box a="2" />`,
			wantOpen: `<div className="a-2" />`,
		},
		{
			name:      "with children",
			src:       `<Box a="2">text</Box>`,
			wantOpen:  `<div className="a-2">`,
			wantClose: `</div>`,
		},
		{
			name:     "table order, not source order",
			src:      `<Box w="6" flex p={2} a="1" />`,
			wantOpen: `<div className="a-1 p-2 flex w-6/12" />`,
		},
		{
			name:     "no matches omits class",
			src:      `<Box unknown="1" />`,
			wantOpen: `<div />`,
		},
		{
			name:        "existing expression class",
			src:         `<Box className={classes.x} a={2} />`,
			wantOpen:    `<div className={cn("a-2", classes.x)} />`,
			wantComplex: true,
		},
		{
			name:        "existing string class",
			src:         `<Box className="root" a={2} />`,
			wantOpen:    `<div className={cn("a-2", "root")} />`,
			wantComplex: true,
		},
		{
			name:        "conditional prop",
			src:         `<Box a={isTrue ? 2 : 3} p="1" />`,
			wantOpen:    `<div className={cn(isTrue ? 'a-2' : 'a-3', "p-1")} />`,
			wantComplex: true,
		},
		{
			name:        "existing string class alone",
			src:         `<Box className="foo" />`,
			wantOpen:    `<div className="foo" />`,
			wantComplex: true,
		},
		{
			name:        "existing expression class alone",
			src:         `<Box className={styles.root} />`,
			wantOpen:    `<div className={styles.root} />`,
			wantComplex: true,
		},
		{
			name:     "pass-through in allowlist order then spreads",
			src:      `<Box role="button" {...rest} onClick={go} a="1" key={id} hidden {...more} />`,
			wantOpen: `<div className="a-1" key={id} onClick={go} role="button" {...rest} {...more} />`,
		},
		{
			name:     "component override string",
			src:      `<Box component="span" a="1">x</Box>`,
			wantOpen: `<span className="a-1">`, wantClose: `</span>`,
		},
		{
			name:     "component override expression",
			src:      `<Box component={Link} a="1" />`,
			wantOpen: `<Link className="a-1" />`,
		},
		{
			name:        "custom merge function",
			src:         `<Box a={on ? 1 : 2} />`,
			opts:        convert.Options{MergeFunc: "clsx"},
			wantOpen:    `<div className={clsx(on ? 'a-1' : 'a-2')} />`,
			wantComplex: true,
		},
		{
			name:     "extra pass-through and default tag",
			src:      `<Box title="x" a="1" />`,
			opts:     convert.Options{DefaultTag: "section", Passthrough: []string{"title"}},
			wantOpen: `<section className="a-1" title="x" />`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := convert.New(tt.opts)
			res, err := c.Convert(element(t, tt.src, "Box"), testTable)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpen, res.OpeningTag())
			assert.Equal(t, tt.wantClose, res.ClosingTag())
			assert.Equal(t, tt.wantComplex, res.IsComplexClass)
		})
	}
}

func TestConvertBaseClasses(t *testing.T) {
	table := convert.MustRuleTable("Grid", []string{"border-box"}, convert.R("p", "p"))
	c := convert.New(convert.Options{})

	res, err := c.Convert(element(t, `<Grid />`, "Grid"), table)
	require.NoError(t, err)
	assert.Equal(t, `<div className="border-box" />`, res.OpeningTag())

	res, err = c.Convert(element(t, `<Grid p={dense ? 1 : 2} />`, "Grid"), table)
	require.NoError(t, err)
	assert.Equal(t, `<div className={cn("border-box", dense ? 'p-1' : 'p-2')} />`, res.OpeningTag())
}

func TestConvertDropped(t *testing.T) {
	c := convert.New(convert.Options{})
	res, err := c.Convert(element(t, `<Box a="1" sx={{}} hidden key="k" />`, "Box"), testTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"sx", "hidden"}, res.Dropped)
	require.Len(t, res.Props, 1)
	assert.Equal(t, convert.Prop{Name: "a", Class: "a-1"}, res.Props[0])
}

func TestConvertInvalidTag(t *testing.T) {
	c := convert.New(convert.Options{})
	_, err := c.Convert(element(t, `<Box component="not a tag" />`, "Box"), testTable)
	var tagErr *convert.InvalidTagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "not a tag", tagErr.Tag)
}

func TestConvertDoesNotModifyElement(t *testing.T) {
	el := element(t, `<Box a="1" className="x" {...rest} />`, "Box")
	before := *el
	before.Attrs = append([]convert.Attribute(nil), el.Attrs...)

	_, err := convert.New(convert.Options{}).Convert(el, testTable)
	require.NoError(t, err)
	assert.Equal(t, before, *el)
}

func TestConvertIsIdempotent(t *testing.T) {
	c := convert.New(convert.Options{})
	src := `<Box className={classes.x} a={on ? 1 : 2} p="3" key={k}>x</Box>`

	res, err := c.Convert(element(t, src, "Box"), testTable)
	require.NoError(t, err)
	out := res.OpeningTag() + "x" + res.ClosingTag()

	again, err := c.Convert(element(t, out, "div"), testTable)
	require.NoError(t, err)
	assert.Equal(t, out, again.OpeningTag()+"x"+again.ClosingTag())
}

func TestIsComplexClass(t *testing.T) {
	c := convert.New(convert.Options{})
	assert.False(t, c.IsComplexClass(element(t, `<Box a="1" other={x ? 1 : 2} />`, "Box"), testTable))
	assert.True(t, c.IsComplexClass(element(t, `<Box a={x ? 1 : 2} />`, "Box"), testTable))
	assert.True(t, c.IsComplexClass(element(t, `<Box className="c" />`, "Box"), testTable))
}

func TestNewPassthroughDeduplicates(t *testing.T) {
	c := convert.New(convert.Options{Passthrough: []string{"key", "title", "title", ""}})
	pt := c.Passthrough()
	assert.Equal(t, len(convert.DefaultPassthrough)+1, len(pt))
	assert.Equal(t, "title", pt[len(pt)-1])
	assert.Equal(t, "cn", c.MergeFunc())
}

func TestConvertUsesMergeFunc(t *testing.T) {
	c := convert.New(convert.Options{})
	tests := []struct {
		src  string
		want bool
	}{
		{src: `<Box a="2" />`, want: false},
		{src: `<Box a={on ? 1 : 2} />`, want: true},
		{src: `<Box className={styles.root} />`, want: false},
		{src: `<Box className={styles.root} p={1} />`, want: true},
		{src: `<Box className={cn(x)} />`, want: false},
		{src: `<Box className={cn(x)} unknown />`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := c.Convert(element(t, tt.src, "Box"), testTable)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.UsesMergeFunc)
		})
	}
}
