package source

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/grailbio/base/must"
)

// fileEntry is the immutable data recorded for one interned file.
type fileEntry struct {
	path string
	text string
}

// FileTable interns file paths into FileIDs in insertion order and owns the
// shared source text for every registered file. Once a path is registered it
// is never evicted, and a second Intern of the same path is a no-op that
// returns the existing id without re-reading the file.
//
// Reads (Path, Text) are lock-free; writes (Intern) are serialized by mu and
// publish the new slice with a single atomic pointer store, mirroring the
// read/update pattern used by the symbol intern table this is modeled on.
type FileTable struct {
	mu sync.Mutex

	byPath map[string]FileID // guarded by mu; written only while holding it

	entriesPtr unsafe.Pointer // *[]fileEntry, read via atomic load
}

// NewFileTable creates an empty file table.
func NewFileTable() *FileTable {
	entries := make([]fileEntry, 0, 16)
	t := &FileTable{byPath: make(map[string]FileID)}
	t.entriesPtr = unsafe.Pointer(&entries)
	return t
}

func (t *FileTable) entries() []fileEntry {
	return *(*[]fileEntry)(atomic.LoadPointer(&t.entriesPtr))
}

// Intern registers path with the given source text and returns its id. If
// path was already registered, the existing id is returned and text is
// ignored.
func (t *FileTable) Intern(path, text string) FileID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byPath[path]; ok {
		return id
	}
	entries := t.entries()
	id := FileID(len(entries))
	entries = append(entries, fileEntry{path: path, text: text})
	atomic.StorePointer(&t.entriesPtr, unsafe.Pointer(&entries))
	t.byPath[path] = id
	return id
}

// Lookup returns the id of an already-registered path, if any.
func (t *FileTable) Lookup(path string) (FileID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byPath[path]
	return id, ok
}

// Path returns the path registered for id.
func (t *FileTable) Path(id FileID) string {
	entries := t.entries()
	must.Truef(int(id) >= 0 && int(id) < len(entries), "source: file id %d out of range", id)
	return entries[id].path
}

// Text returns the shared source text registered for id.
func (t *FileTable) Text(id FileID) string {
	entries := t.entries()
	must.Truef(int(id) >= 0 && int(id) < len(entries), "source: file id %d out of range", id)
	return entries[id].text
}

// Line returns the 1-based line number and the line's own text containing
// byte offset within file id. Used by the diagnostics renderer.
func (t *FileTable) Line(id FileID, offset int) (lineNo int, lineText string, lineStart int) {
	text := t.Text(id)
	if offset > len(text) {
		offset = len(text)
	}
	lineNo = 1
	lineStart = 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			lineNo++
			lineStart = i + 1
		}
	}
	lineEnd := lineStart
	for lineEnd < len(text) && text[lineEnd] != '\n' {
		lineEnd++
	}
	return lineNo, text[lineStart:lineEnd], lineStart
}
