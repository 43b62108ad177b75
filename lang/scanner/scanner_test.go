package scanner_test

import (
	"testing"

	"github.com/ifj21-compiler/ifjc/lang/scanner"
	"github.com/ifj21-compiler/ifjc/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAll(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Token
	}{
		{
			name: "keywords and ident",
			src:  "global foo : function ( ) : integer",
			want: []token.Token{token.GLOBAL, token.IDENT, token.COLON, token.FUNCTION,
				token.LPAREN, token.RPAREN, token.COLON, token.KwINTEGER, token.EOF},
		},
		{
			name: "integer and float literals",
			src:  "1 007 1.5 1e10 1.5e-3",
			want: []token.Token{token.INT, token.INT, token.FLOAT, token.FLOAT, token.FLOAT, token.EOF},
		},
		{
			name: "operators",
			src:  "+ - * / // % ^ .. # < <= > >= == ~=",
			want: []token.Token{token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASHSLASH,
				token.PERCENT, token.CARET, token.DOTDOT, token.HASH, token.LT, token.LE, token.GT,
				token.GE, token.EQEQ, token.NE, token.EOF},
		},
		{
			name: "line comment is skipped",
			src:  "local -- comment\nx",
			want: []token.Token{token.LOCAL, token.IDENT, token.EOF},
		},
		{
			name: "block comment is skipped",
			src:  "local --[[ a\nb\nc ]] x",
			want: []token.Token{token.LOCAL, token.IDENT, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fset := token.NewFileSet()
			toks, _, err := scanner.ScanAll(fset, tt.name, []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, toks)
		})
	}
}

func TestScanStringEscapes(t *testing.T) {
	fset := token.NewFileSet()
	toks, vals, err := scanner.ScanAll(fset, "t", []byte(`"a\tb\065c"`))
	require.NoError(t, err)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	assert.Equal(t, "a\tbAc", vals[0].String)
}

func TestScanRejectsNullEscape(t *testing.T) {
	fset := token.NewFileSet()
	_, _, err := scanner.ScanAll(fset, "t", []byte(`"\000"`))
	require.Error(t, err)
}

func TestScanIntegerOutOfRange(t *testing.T) {
	fset := token.NewFileSet()
	_, _, err := scanner.ScanAll(fset, "t", []byte("99999999999999999999"))
	require.Error(t, err)
}
