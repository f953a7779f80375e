// Package document manages parsed script documents and a workspace of them.
// A Document owns the text and the results of its latest parse; re-parsing
// replaces the results wholesale. The Workspace resolves include directives
// between documents and keeps the loaded set consistent.
package document

import (
	"context"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/gofrs/uuid"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"

	"github.com/ahkls/ahkls/parser"
	"github.com/ahkls/ahkls/symbol"
)

// Document is one script file plus the results of its latest parse.
type Document struct {
	// ID is a stable identity for the document across re-parses; URIs can
	// be re-opened with different casing on case-insensitive filesystems.
	ID uuid.UUID

	URI     protocol.DocumentURI
	Path    string
	Version int32

	text       string
	lineStarts []int

	dialect parser.Dialect
	policy  parser.RecoveryPolicy

	res *Results
}

// Results couples the parser output with the parse error, mirroring how the
// two travel together through every consumer.
type Results struct {
	*parser.Results
	Err error
}

// Option configures a Document.
type Option func(*Document)

// WithDialect sets the document dialect before the first parse.
func WithDialect(d parser.Dialect) Option {
	return func(doc *Document) { doc.dialect = d }
}

// WithRecoveryPolicy sets the dialect-mismatch recovery policy.
func WithRecoveryPolicy(policy parser.RecoveryPolicy) Option {
	return func(doc *Document) { doc.policy = policy }
}

// New creates a document and runs the initial parse.
func New(ctx context.Context, uri protocol.DocumentURI, text string, options ...Option) *Document {
	id, _ := uuid.NewV4()
	doc := &Document{
		ID:   id,
		URI:  uri,
		Path: pathOf(uri),
	}
	for _, opt := range options {
		opt(doc)
	}
	doc.Update(ctx, text, 0)
	return doc
}

// pathOf strips the file scheme from a document URI.
func pathOf(uri protocol.DocumentURI) string {
	s := string(uri)
	s = strings.TrimPrefix(s, "file://")
	return s
}

// Update replaces the document text and re-parses. Library documents
// (anything under a "lib" directory or with a .ahk2 library naming
// convention is decided by the caller via WithDialect) keep their dialect.
func (d *Document) Update(ctx context.Context, text string, version int32) {
	d.text = text
	d.Version = version
	d.lineStarts = computeLineStarts(text)

	res, err := parser.Parse(ctx, text,
		parser.WithDialect(d.dialect),
		parser.WithRecoveryPolicy(d.policy),
		parser.WithBuiltins(Builtins))
	d.res = &Results{Results: res, Err: err}
}

// Text returns the current document text.
func (d *Document) Text() string { return d.text }

// Results returns the latest parse results.
func (d *Document) Results() *Results { return d.res }

// Symbols returns the top-level symbol nodes of the latest parse.
func (d *Document) Symbols() []symbol.Node {
	return d.res.Symbols()
}

// Lookup finds the top-level declaration for a name, ignoring case.
func (d *Document) Lookup(name string) symbol.Node {
	key := strings.ToLower(name)
	if n, ok := d.res.Globals[key]; ok {
		return n
	}
	if lbl, ok := d.res.Labels[key]; ok {
		return lbl
	}
	return nil
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// PositionAt converts a byte offset to an LSP position. Characters count
// UTF-16 code units per the protocol.
func (d *Document) PositionAt(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	col := len(utf16.Encode([]rune(d.text[d.lineStarts[line]:offset])))
	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}

// OffsetAt converts an LSP position back to a byte offset.
func (d *Document) OffsetAt(pos protocol.Position) int {
	if int(pos.Line) >= len(d.lineStarts) {
		return len(d.text)
	}
	start := d.lineStarts[pos.Line]
	end := len(d.text)
	if int(pos.Line)+1 < len(d.lineStarts) {
		end = d.lineStarts[pos.Line+1]
	}
	remaining := int(pos.Character)
	for i, r := range d.text[start:end] {
		if remaining <= 0 {
			return start + i
		}
		remaining -= len(utf16.Encode([]rune{r}))
	}
	return end
}
