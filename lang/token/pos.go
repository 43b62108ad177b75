package token

import gotoken "go/token"

// Position, Pos and FileSet reuse the standard library's go/token position
// encoding instead of inventing a bespoke line/column packing.
type (
	Position = gotoken.Position
	Pos      = gotoken.Pos
	FileSet  = gotoken.FileSet
	File     = gotoken.File
)

// NewFileSet creates an empty FileSet, ready to register source files.
func NewFileSet() *FileSet { return gotoken.NewFileSet() }

// NoPos is the zero Pos value, meaning "unknown position".
const NoPos = gotoken.NoPos

// Value carries the payload of a scanned token: its raw source text and
// source position, plus the decoded literal value for numeric and string
// tokens.
type Value struct {
	Raw    string
	Pos    Pos
	Int    int64
	Float  float64
	String string
}
