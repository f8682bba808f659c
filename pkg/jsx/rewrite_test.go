package jsx_test

import (
	"testing"

	"github.com/leapstack-labs/boxwind/pkg/jsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	src := "0123456789"
	out, err := jsx.Apply(src, []jsx.Edit{
		{Span: jsx.Span{Start: 7, End: 9}, Text: "X"},
		{Span: jsx.Span{Start: 0, End: 1}, Text: "AB"},
		{Span: jsx.Span{Start: 4, End: 4}, Text: "-"},
	})
	require.NoError(t, err)
	assert.Equal(t, "AB123-456X9", out)
}

func TestApplyOverlap(t *testing.T) {
	_, err := jsx.Apply("0123456789", []jsx.Edit{
		{Span: jsx.Span{Start: 2, End: 6}, Text: "a"},
		{Span: jsx.Span{Start: 5, End: 7}, Text: "b"},
	})
	var overlap *jsx.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, jsx.Span{Start: 2, End: 6}, overlap.First)
	assert.Equal(t, jsx.Span{Start: 5, End: 7}, overlap.Second)
}

func TestSwap(t *testing.T) {
	src := `<Box p={1}><Box flex /></Box>`
	doc := mustParse(t, src)
	boxes := doc.Elements("Box")
	require.Len(t, boxes, 2)

	var batch jsx.Batch
	require.True(t, batch.Add(jsx.Swap(boxes[0], `<div className="p-1">`, "</div>")...))
	require.True(t, batch.Add(jsx.Swap(boxes[1], `<div className="flex" />`, "ignored")...))
	assert.Equal(t, 3, batch.Len())

	out, err := batch.Apply(src)
	require.NoError(t, err)
	assert.Equal(t, `<div className="p-1"><div className="flex" /></div>`, out)
}

func TestBatchRejectsNestedTag(t *testing.T) {
	src := `<Box icon={<Box m={1} />} p={2} />`
	doc := mustParse(t, src)
	boxes := doc.Elements("Box")
	require.Len(t, boxes, 2)

	var batch jsx.Batch
	assert.True(t, batch.Add(jsx.Swap(boxes[0], `<div icon={<Box m={1} />} className="p-2" />`, "")...))
	assert.False(t, batch.Add(jsx.Swap(boxes[1], `<div className="m-1" />`, "")...))
	assert.Equal(t, 1, batch.Len())
}
