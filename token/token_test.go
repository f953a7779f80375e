package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordLookupIsCaseInsensitive(t *testing.T) {
	assert.True(t, IsKeyword("if"))
	assert.True(t, IsKeyword("If"))
	assert.True(t, IsKeyword("WHILE"))
	assert.False(t, IsKeyword("msgbox"))

	assert.True(t, IsFlowKeyword("Else"))
	assert.False(t, IsFlowKeyword("and"))

	assert.True(t, IsWordOperator("AND"))
	assert.False(t, IsWordOperator("if"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "msgbox", Normalize("MsgBox"))
	assert.Equal(t, "a_index", Normalize("A_Index"))
}

func TestRangeContains(t *testing.T) {
	outer := Range{Start: 10, End: 20}
	assert.True(t, outer.Contains(Range{Start: 10, End: 20}))
	assert.True(t, outer.Contains(Range{Start: 12, End: 15}))
	assert.False(t, outer.Contains(Range{Start: 5, End: 15}))
	assert.False(t, outer.Contains(Range{Start: 15, End: 25}))
	assert.Equal(t, 10, outer.Len())
}

func TestTableGetPut(t *testing.T) {
	tbl := NewTable()
	a := &Token{Kind: Word, Offset: 0, Length: 3, Content: "foo"}
	b := &Token{Kind: Number, Offset: 4, Length: 2, Content: "42"}
	tbl.Put(a)
	tbl.Put(b)

	assert.Same(t, a, tbl.Get(0))
	assert.Same(t, b, tbl.Get(4))
	assert.Nil(t, tbl.Get(1))
	assert.Equal(t, []int{0, 4}, tbl.Offsets())

	// Replacing an offset keeps the table keyed by offset.
	c := &Token{Kind: Reserved, Offset: 0, Length: 3, Content: "foo"}
	tbl.Put(c)
	assert.Same(t, c, tbl.Get(0))
	assert.Equal(t, 2, tbl.Len())

	tbl.Reset()
	assert.Equal(t, 0, tbl.Len())
}

func TestTableAt(t *testing.T) {
	tbl := NewTable()
	tbl.Put(&Token{Kind: Word, Offset: 5, Length: 4, Content: "name"})

	require.NotNil(t, tbl.At(5))
	require.NotNil(t, tbl.At(8))
	assert.Nil(t, tbl.At(9))
	assert.Nil(t, tbl.At(4))
}

func TestTokenPredicates(t *testing.T) {
	op := &Token{Kind: Operator, Offset: 0, Length: 2, Content: "=>"}
	assert.True(t, op.Is(Operator))
	assert.True(t, op.IsOp("=>"))
	assert.False(t, op.IsOp("="))
	assert.Equal(t, 2, op.EndOffset())
	assert.Equal(t, Range{Start: 0, End: 2}, op.Range())

	var nilTok *Token
	assert.False(t, nilTok.Is(Word))
	assert.False(t, nilTok.IsOp("+"))
}
