// Package symtab implements the per-scope symbol table: a binary search tree
// keyed by identifier byte ordering.
package symtab

import (
	"strings"

	"github.com/ifj21-compiler/ifjc/lang/types"
)

// Kind identifies what a Symbol denotes.
type Kind int

const (
	Undef Kind = iota
	VarString
	VarBoolean
	VarInteger
	VarNumber
	VarNil
	FunctionDecl
	FunctionDef
)

// Symbol is a single entry in a scope's symbol table.
type Symbol struct {
	Name          string
	Kind          Kind
	ParentScopeID uint64
	FunctionSem   *types.FunctionSemantics // only set for FunctionDecl/FunctionDef symbols
}

// VarTypeCode returns the type.Code for a variable symbol's kind, or
// types.Undef if this symbol is not a variable.
func (s *Symbol) VarTypeCode() types.Code {
	switch s.Kind {
	case VarString:
		return types.String
	case VarBoolean:
		return types.Boolean
	case VarInteger:
		return types.Integer
	case VarNumber:
		return types.Float
	case VarNil:
		return types.Nil
	default:
		return types.Undef
	}
}

// KindForVarType returns the symtab.Kind corresponding to a variable of the
// given type code.
func KindForVarType(c types.Code) Kind {
	switch c {
	case types.String:
		return VarString
	case types.Boolean:
		return VarBoolean
	case types.Integer:
		return VarInteger
	case types.Float:
		return VarNumber
	case types.Nil:
		return VarNil
	default:
		return Undef
	}
}

type node struct {
	sym         Symbol
	left, right *node
}

// Table is a binary search tree of symbols for one lexical scope.
type Table struct {
	root *node
}

// Put inserts name if absent. If name is already present and kind is
// FunctionDecl or FunctionDef, the corresponding flag on the existing
// symbol's FunctionSemantics is set and nothing else about the node is
// touched; for any other kind, Put on an existing node is a no-op. This is
// what lets declaration-before-definition and the dual-signature
// bookkeeping work without a second data structure. Put returns the stable
// symbol for name.
func (t *Table) Put(name string, kind Kind) *Symbol {
	n := t.find(name)
	if n != nil {
		applyKind(&n.sym, kind)
		return &n.sym
	}

	n = &node{sym: Symbol{Name: name, Kind: kind}}
	if kind == FunctionDecl || kind == FunctionDef {
		n.sym.FunctionSem = &types.FunctionSemantics{}
		applyKind(&n.sym, kind)
	}
	t.insert(n)
	return &n.sym
}

func applyKind(sym *Symbol, kind Kind) {
	switch kind {
	case FunctionDecl:
		if sym.FunctionSem == nil {
			sym.FunctionSem = &types.FunctionSemantics{}
		}
		sym.FunctionSem.IsDeclared = true
		if sym.Kind == Undef {
			sym.Kind = FunctionDecl
		}
	case FunctionDef:
		if sym.FunctionSem == nil {
			sym.FunctionSem = &types.FunctionSemantics{}
		}
		sym.FunctionSem.IsDefined = true
		if sym.Kind == Undef {
			sym.Kind = FunctionDef
		}
	}
}

func (t *Table) insert(n *node) {
	if t.root == nil {
		t.root = n
		return
	}
	cur := t.root
	for {
		switch {
		case n.sym.Name < cur.sym.Name:
			if cur.left == nil {
				cur.left = n
				return
			}
			cur = cur.left
		default: // n.sym.Name > cur.sym.Name (equal case handled by caller via find)
			if cur.right == nil {
				cur.right = n
				return
			}
			cur = cur.right
		}
	}
}

func (t *Table) find(name string) *node {
	cur := t.root
	for cur != nil {
		switch {
		case name < cur.sym.Name:
			cur = cur.left
		case name > cur.sym.Name:
			cur = cur.right
		default:
			return cur
		}
	}
	return nil
}

// Get looks up name, returning its symbol and true, or false if absent.
func (t *Table) Get(name string) (*Symbol, bool) {
	n := t.find(name)
	if n == nil {
		return nil, false
	}
	return &n.sym, true
}

// Traverse folds pred over every symbol in byte order (an in-order walk)
// and returns the conjunction of its results. Used at end-of-program to
// verify that every declared function was defined.
func (t *Table) Traverse(pred func(*Symbol) bool) bool {
	ok := true
	var walk func(*node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		if !pred(&n.sym) {
			ok = false
		}
		walk(n.right)
	}
	walk(t.root)
	return ok
}

// Names returns every symbol name currently in the table, in byte order.
func (t *Table) Names() []string {
	var names []string
	t.Traverse(func(s *Symbol) bool {
		names = append(names, s.Name)
		return true
	})
	return names
}

// Destroy releases every node. The BST owns no resources beyond Go's
// garbage collector, so this simply drops the root; it exists to make the
// scope-pop lifecycle explicit.
func (t *Table) Destroy() { t.root = nil }

// FormatNames joins names with ", " for diagnostic messages, used by the
// end-of-program "declared without defined" sweep.
func FormatNames(names []string) string { return strings.Join(names, ", ") }
