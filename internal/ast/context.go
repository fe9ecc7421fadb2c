package ast

import (
	"os"
	"path/filepath"

	"github.com/grailbio/base/must"
	"github.com/pkg/errors"

	"github.com/plos-clan/cara/internal/source"
)

// AstContext owns all expression storage for one compilation: the arena
// mapping ExpId to Exp, plus the root StructType produced by parsing the
// crate's entry file and (later) flattened by the simplifier.
//
// It is mutable only while the simplifier rewrites it (Replace); it must not
// be mutated once a QueryContext has been built over it — frozen thereafter.
type AstContext struct {
	arena  []Exp // arena[0] is unused; ExpId.seq indexes directly into it
	Root   *StructType
	frozen bool
}

// Exp looks up the node registered for id. Every ExpId ever returned by the
// parser/simplifier is present in the arena; a miss
// is a compiler bug.
func (c *AstContext) Exp(id ExpId) Exp {
	must.Truef(id.Valid(), "ast: invalid ExpId dereferenced")
	must.Truef(int(id.seq) < len(c.arena), "ast: ExpId %d out of range (arena has %d entries)", id.seq, len(c.arena))
	e := c.arena[id.seq]
	must.Truef(e != nil, "ast: ExpId %d has no registered Exp", id.seq)
	return e
}

// Replace rewrites the node stored at id. Only valid before Freeze.
func (c *AstContext) Replace(id ExpId, exp Exp) {
	must.Truef(!c.frozen, "ast: Replace called on a frozen AstContext")
	must.Truef(id.Valid() && int(id.seq) < len(c.arena), "ast: Replace: invalid ExpId %d", id.seq)
	c.arena[id.seq] = exp
}

// Freeze marks the context read-only. Called once simplification completes;
// after this, every query provider may read the arena from any goroutine
// without synchronization.
func (c *AstContext) Freeze() { c.frozen = true }

// Frozen reports whether Freeze has been called.
func (c *AstContext) Frozen() bool { return c.frozen }

// ParseContext owns the growing arena during parsing and the "current file"
// cell the parser consults when minting spans, so that a nested `mod "path"`
// directive can swap it temporarily while parsing the referenced file.
type ParseContext struct {
	Files       *source.FileTable
	arena       []Exp
	currentFile source.FileID
}

// NewParseContext creates an empty ParseContext backed by ft.
func NewParseContext(ft *source.FileTable) *ParseContext {
	return &ParseContext{
		Files: ft,
		arena: make([]Exp, 1, 256), // index 0 reserved for InvalidExpID
	}
}

// CurrentFile returns the file the parser is presently reading.
func (pc *ParseContext) CurrentFile() source.FileID { return pc.currentFile }

// SetCurrentFile swaps in a new current file and returns the previous one,
// so callers can restore it after parsing a nested module:
//
//	old := pc.SetCurrentFile(nestedID)
//	body := parse(pc, nestedText)
//	pc.SetCurrentFile(old)
func (pc *ParseContext) SetCurrentFile(id source.FileID) source.FileID {
	old := pc.currentFile
	pc.currentFile = id
	return old
}

// Mint registers exp in the arena at [start,end) of the current file and
// returns its id.
func (pc *ParseContext) Mint(start, end int, exp Exp) ExpId {
	seq := uint32(len(pc.arena))
	span := source.Span{Start: start, End: end, File: pc.currentFile}
	pc.arena = append(pc.arena, exp)
	return ExpId{seq: seq, span: span}
}

// Finish hands the grown arena over to an AstContext rooted at root. Called
// once the entry file (and every module it transitively embeds) has been
// fully parsed. The returned context is not yet frozen: Replace still works
// on it until Freeze is called.
func (pc *ParseContext) Finish(root *StructType) *AstContext {
	return &AstContext{arena: pc.arena, Root: root}
}

// ExternalParser is the seam to the (out-of-scope, per ) lexer and
// grammar: given the text of one file, it parses a module root into a
// StructType, minting every node it produces into pc's arena.
type ExternalParser interface {
	ParseFile(pc *ParseContext, fileID source.FileID, text string) (*StructType, error)
}

// ResolveModule implements the `mod "relative/path"` resolution algorithm of
//: the path is resolved relative to the *current* file's
// directory, registered in the file table, and parsed with the current file
// temporarily swapped to the new one. Failure to locate or read the module
// is returned as an error so the caller can turn it into a fatal diagnostic.
func ResolveModule(pc *ParseContext, relPath string, parser ExternalParser) (*StructType, error) {
	baseDir := filepath.Dir(pc.Files.Path(pc.currentFile))
	absPath := filepath.Join(baseDir, relPath)

	if existing, ok := pc.Files.Lookup(absPath); ok {
		// Already parsed (or being parsed) this file; re-registering here
		// would be wrong for the AST's own identity, but the file table
		// interning itself is idempotent regardless.
		_ = existing
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "mod %q: resolve %q", relPath, absPath)
	}

	fileID := pc.Files.Intern(absPath, string(data))
	old := pc.SetCurrentFile(fileID)
	defer pc.SetCurrentFile(old)

	st, err := parser.ParseFile(pc, fileID, string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "mod %q: parse %q", relPath, absPath)
	}
	return st, nil
}
