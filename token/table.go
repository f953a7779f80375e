package token

import "sort"

// Table is the per-document token arena, keyed by byte offset. Scanning the
// same offset twice on unmodified text returns the identical cached token,
// which lets the parser reposition its cursor freely without rescanning.
// Cross-token links (Prev, Next, OpensAt, ClosesAt) are stored as offsets
// into this table rather than pointers.
type Table struct {
	tokens map[int]*Token
}

// NewTable returns an empty token table.
func NewTable() *Table {
	return &Table{tokens: make(map[int]*Token)}
}

// Get returns the token at the given offset, or nil if none was scanned there.
func (t *Table) Get(offset int) *Token {
	return t.tokens[offset]
}

// Put stores a token, replacing any previous token at the same offset.
func (t *Table) Put(tok *Token) {
	t.tokens[tok.Offset] = tok
}

// Len returns the number of cached tokens.
func (t *Table) Len() int { return len(t.tokens) }

// Reset discards all cached tokens. Called when the document text changes.
func (t *Table) Reset() {
	t.tokens = make(map[int]*Token)
}

// Offsets returns the cached offsets in ascending order.
func (t *Table) Offsets() []int {
	offsets := make([]int, 0, len(t.tokens))
	for off := range t.tokens {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	return offsets
}

// At returns the token covering the given offset, or nil. Used by
// position-based navigation (hover, definition).
func (t *Table) At(offset int) *Token {
	for _, tok := range t.tokens {
		if tok.Offset <= offset && offset < tok.Offset+tok.Length {
			return tok
		}
	}
	return nil
}
