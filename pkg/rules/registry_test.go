package rules_test

import (
	"testing"

	"github.com/leapstack-labs/boxwind/pkg/convert"
	"github.com/leapstack-labs/boxwind/pkg/jsx"
	"github.com/leapstack-labs/boxwind/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convertFirst(t *testing.T, src string, table *convert.RuleTable) string {
	t.Helper()
	doc, err := jsx.Parse("test.tsx", src)
	require.NoError(t, err)
	nodes := doc.Elements(table.Name())
	require.NotEmpty(t, nodes)
	res, err := convert.New(convert.Options{}).Convert(&nodes[0].Element, table)
	require.NoError(t, err)
	return res.OpeningTag()
}

func TestBuiltinBox(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "layout props",
			src:  `<Box display="flex" flexDirection="column" p={2} bgcolor="#fff" width="100%" />`,
			want: `<div className="bg-[#fff] flex flex-col p-2 w-[100%]" />`,
		},
		{
			name: "spacing and overflow",
			src:  `<Box spacing={2} overflow="hidden" />`,
			want: `<div className="gap-2 overflow-hidden" />`,
		},
		{
			name: "position and offsets",
			src:  `<Box position="absolute" top={0} right="4px" zIndex={10} />`,
			want: `<div className="absolute right-[4px] top-0 z-10" />`,
		},
		{
			name: "responsive margin",
			src:  `<Box m={{ xs: 1, md: 2 }} />`,
			want: `<div className="xs:m-1 md:m-2" />`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertFirst(t, tt.src, rules.Box))
		})
	}
}

func TestBuiltinGrid(t *testing.T) {
	assert.Equal(t, []string{"border-box"}, rules.Grid.BaseClasses())

	got := convertFirst(t, `<Grid container item xs={6} md="auto" spacing={2} zeroMinWidth />`, rules.Grid)
	assert.Equal(t, `<div className="border-box flex flex-wrap flex-auto box-border md:flex-auto xs:6/12 gap-2 min-w-0" />`, got)

	got = convertFirst(t, `<Grid direction="column" justify="center">x</Grid>`, rules.Grid)
	assert.Equal(t, `<div className="border-box flex-col justify-center">`, got)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"Box", "Grid"}, rules.List())

	box, ok := rules.Get("Box")
	require.True(t, ok)
	assert.Same(t, rules.Box, box)

	_, ok = rules.Get("Stack")
	assert.False(t, ok)
}

func TestSet(t *testing.T) {
	set := rules.Builtin()
	assert.Equal(t, []string{"Box", "Grid"}, set.Tags())

	custom := convert.MustRuleTable("Box", nil, convert.R("p", "pad"))
	assert.True(t, set.Put(custom))
	got, ok := set.Get("Box")
	require.True(t, ok)
	assert.Same(t, custom, got)
	assert.Equal(t, 2, set.Len())

	stack := convert.MustRuleTable("Stack", nil, convert.R("spacing", "gap"))
	assert.False(t, set.Put(stack))
	assert.Equal(t, []string{"Box", "Grid", "Stack"}, set.Tags())

	only, err := set.Only([]string{"Stack", "Grid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Stack", "Grid"}, only.Tags())

	all, err := set.Only(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())

	_, err = set.Only([]string{"Card"})
	var unknown *rules.UnknownTableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Card", unknown.Tag)
	assert.Equal(t, []string{"Box", "Grid", "Stack"}, unknown.Available)
}
