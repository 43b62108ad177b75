package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifj21-compiler/ifjc/lang/symtab"
	"github.com/ifj21-compiler/ifjc/lang/types"
)

func TestPutAndGet(t *testing.T) {
	var tbl symtab.Table
	tbl.Put("x", symtab.VarInteger)

	sym, ok := tbl.Get("x")
	require.True(t, ok)
	assert.Equal(t, types.Integer, sym.VarTypeCode())

	_, ok = tbl.Get("missing")
	assert.False(t, ok)
}

func TestDeclarationThenDefinitionMergeOnOneSymbol(t *testing.T) {
	var tbl symtab.Table
	decl := tbl.Put("f", symtab.FunctionDecl)
	decl.FunctionSem.Declared = types.FunctionInfo{Params: "i", Returns: "i"}

	def := tbl.Put("f", symtab.FunctionDef)
	def.FunctionSem.Defined = types.FunctionInfo{Params: "i", Returns: "i"}

	sym, ok := tbl.Get("f")
	require.True(t, ok)
	assert.True(t, sym.FunctionSem.IsDeclared)
	assert.True(t, sym.FunctionSem.IsDefined)
	assert.True(t, sym.FunctionSem.SignaturesAgree())
	assert.Same(t, decl, def, "Put must return the same stable symbol across calls for the same name")
}

func TestTraverseIsInOrder(t *testing.T) {
	var tbl symtab.Table
	tbl.Put("charlie", symtab.VarInteger)
	tbl.Put("alpha", symtab.VarInteger)
	tbl.Put("bravo", symtab.VarInteger)

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, tbl.Names())
}

func TestDestroyClearsTable(t *testing.T) {
	var tbl symtab.Table
	tbl.Put("x", symtab.VarInteger)
	tbl.Destroy()

	_, ok := tbl.Get("x")
	assert.False(t, ok)
}

func TestKindForVarTypeRoundTrip(t *testing.T) {
	for _, c := range []types.Code{types.String, types.Boolean, types.Integer, types.Float, types.Nil} {
		var tbl symtab.Table
		tbl.Put("v", symtab.KindForVarType(c))
		sym, _ := tbl.Get("v")
		assert.Equal(t, c, sym.VarTypeCode())
	}
}
