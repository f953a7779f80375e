package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/rs/zerolog"

	"github.com/ahkls/ahkls/parser"
	"github.com/ahkls/ahkls/symbol"
)

// Workspace is the set of loaded documents plus the machinery to resolve
// includes between them. Include resolution is synchronous and recursive,
// with a visited set guarding against include cycles.
type Workspace struct {
	log  zerolog.Logger
	docs map[string]*Document // keyed by lowercase path

	// libDirs are searched in order for "<name>" library includes.
	libDirs []string
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(log zerolog.Logger) WorkspaceOption {
	return func(w *Workspace) { w.log = log }
}

// WithLibDirs sets the library include search path.
func WithLibDirs(dirs ...string) WorkspaceOption {
	return func(w *Workspace) { w.libDirs = dirs }
}

// NewWorkspace returns an empty workspace.
func NewWorkspace(options ...WorkspaceOption) *Workspace {
	w := &Workspace{
		log:  zerolog.Nop(),
		docs: make(map[string]*Document),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Get returns the loaded document for a path, or nil.
func (w *Workspace) Get(path string) *Document {
	return w.docs[normalizePath(path)]
}

// Documents returns all loaded documents.
func (w *Workspace) Documents() []*Document {
	out := make([]*Document, 0, len(w.docs))
	for _, doc := range w.docs {
		out = append(out, doc)
	}
	return out
}

// Open registers text received from an editor, parses it, and loads its
// includes.
func (w *Workspace) Open(ctx context.Context, uri protocol.DocumentURI, text string, version int32, options ...Option) *Document {
	doc := New(ctx, uri, text, options...)
	w.docs[normalizePath(doc.Path)] = doc
	w.log.Debug().Str("path", doc.Path).Int("symbols", len(doc.Symbols())).
		Int("diags", doc.Results().Diags.Len()).Msg("document opened")
	w.loadIncludes(ctx, doc, map[string]bool{normalizePath(doc.Path): true})
	return doc
}

// Load reads a document from disk, parses it, and loads its includes.
// Already-loaded documents are returned as-is.
func (w *Workspace) Load(ctx context.Context, path string, options ...Option) (*Document, error) {
	key := normalizePath(path)
	if doc, ok := w.docs[key]; ok {
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := New(ctx, protocol.DocumentURI("file://"+path), string(data), options...)
	w.docs[key] = doc
	w.log.Debug().Str("path", path).Msg("document loaded")
	w.loadIncludes(ctx, doc, map[string]bool{key: true})
	return doc, nil
}

// Close drops a document from the workspace. Documents it pulled in through
// includes stay loaded; another document may still reference them.
func (w *Workspace) Close(path string) {
	delete(w.docs, normalizePath(path))
}

// loadIncludes resolves and loads the include directives of doc, depth
// first. The visited set spans the whole recursion, so cyclic includes load
// each file once and stop.
func (w *Workspace) loadIncludes(ctx context.Context, doc *Document, visited map[string]bool) {
	for _, inc := range doc.Results().Includes {
		path := w.resolveInclude(doc, inc)
		if path == "" {
			w.log.Warn().Str("raw", inc.Raw).Str("from", doc.Path).
				Msg("include not found")
			continue
		}
		key := normalizePath(path)
		if visited[key] {
			continue
		}
		visited[key] = true
		if _, ok := w.docs[key]; ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("include unreadable")
			continue
		}
		// Included files parse as libraries: definition errors surface,
		// dialect mismatches skip lines instead of aborting.
		sub := New(ctx, protocol.DocumentURI("file://"+path), string(data),
			WithDialect(parser.DialectLibrary),
			WithRecoveryPolicy(parser.PolicySkipLine))
		w.docs[key] = sub
		w.log.Debug().Str("path", path).Str("from", doc.Path).Msg("include loaded")
		w.loadIncludes(ctx, sub, visited)
	}
}

// resolveInclude maps a raw include argument to an absolute path, or ""
// when no candidate exists. Library includes search the lib directories;
// plain includes resolve relative to the including document.
func (w *Workspace) resolveInclude(doc *Document, inc parser.Include) string {
	raw := strings.TrimSpace(inc.Raw)
	if inc.Library {
		name := strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
		for _, dir := range w.libDirs {
			for _, candidate := range []string{
				filepath.Join(dir, name+".ahk"),
				filepath.Join(dir, name, name+".ahk"),
			} {
				if fileExists(candidate) {
					return candidate
				}
			}
		}
		return ""
	}
	if filepath.IsAbs(raw) {
		if fileExists(raw) {
			return raw
		}
		return ""
	}
	candidate := filepath.Join(filepath.Dir(doc.Path), raw)
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

// LookupAll searches every loaded document for a top-level declaration,
// preferring the given document.
func (w *Workspace) LookupAll(from *Document, name string) symbol.Node {
	if from != nil {
		if n := from.Lookup(name); n != nil {
			return n
		}
	}
	for _, doc := range w.docs {
		if doc == from {
			continue
		}
		if n := doc.Lookup(name); n != nil {
			return n
		}
	}
	return nil
}

// FindClass resolves a class name across the workspace, following a dotted
// path into nested classes.
func (w *Workspace) FindClass(from *Document, name string) *symbol.Class {
	parts := strings.Split(strings.ToLower(name), ".")
	node := w.LookupAll(from, parts[0])
	cls, ok := node.(*symbol.Class)
	if !ok {
		return nil
	}
	for _, part := range parts[1:] {
		member, ok := cls.Static[part]
		if !ok {
			return nil
		}
		if cls, ok = member.(*symbol.Class); !ok {
			return nil
		}
	}
	return cls
}

func normalizePath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
