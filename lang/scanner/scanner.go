// Package scanner implements the lexical analysis phase: it turns a byte
// stream into a stream of IFJ21 tokens consumed once by the parser.
package scanner

import (
	"fmt"
	gotoken "go/scanner"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/ifj21-compiler/ifjc/lang/token"
)

// Error and ErrorList are the diagnostic types ScanAll collects scanner
// errors into. They are aliases of go/scanner's
// types rather than distinct wrapper types.
type (
	Error     = gotoken.Error
	ErrorList = gotoken.ErrorList
)

// PrintError prints an error or error list, one diagnostic per line.
var PrintError = gotoken.PrintError

// Scanner tokenizes one source file for the parser to consume.
type Scanner struct {
	file *token.File
	src  []byte
	err  func(pos token.Position, msg string)

	cur  rune // current character, -1 at EOF
	off  int  // byte offset of cur
	roff int  // byte offset right after cur

	invalidByte byte
}

// Init prepares the scanner to tokenize src, whose size must equal
// file.Size().
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = errHandler
	s.cur = ' '
	s.off = 0
	s.roff = 0
	s.invalidByte = 0
	s.advance()
}

// NewFromReader reads all of r into memory and registers it as a new file in
// fset under name, returning an initialized Scanner.
func NewFromReader(fset *token.FileSet, name string, r io.Reader, errHandler func(token.Position, string)) (*Scanner, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f := fset.AddFile(name, -1, len(b))
	var s Scanner
	s.Init(f, b, errHandler)
	return &s, nil
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}
	s.off = s.roff

	s.invalidByte = 0
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.off, "illegal UTF-8 encoding")
			s.invalidByte = s.src[s.roff]
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(s.file.Position(s.file.Pos(off)), msg)
	}
}

func (s *Scanner) errorf(off int, format string, args ...any) {
	s.error(off, fmt.Sprintf(format, args...))
}

func (s *Scanner) advanceIf(b byte) bool {
	if s.cur == rune(b) {
		s.advance()
		return true
	}
	return false
}

// Scan returns the next token, filling in tokVal with its payload.
func (s *Scanner) Scan(tokVal *token.Value) (tok token.Token) {
	s.skipWhitespaceAndComments()

	pos := s.file.Pos(s.off)
	start := s.off

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		tok = token.LookupKw(lit)
		*tokVal = token.Value{Raw: lit, Pos: pos}

	case isDigit(cur):
		tok = s.number(tokVal, pos, start)

	default:
		s.advance()
		switch cur {
		case '+':
			tok = token.PLUS
		case '-':
			tok = token.MINUS
		case '*':
			tok = token.STAR
		case '/':
			tok = token.SLASH
			if s.advanceIf('/') {
				tok = token.SLASHSLASH
			}
		case '%':
			tok = token.PERCENT
		case '^':
			tok = token.CARET
		case '#':
			tok = token.HASH
		case '.':
			tok = token.DOTDOT
			if !s.advanceIf('.') {
				s.errorf(start, "illegal character %#U", cur)
				tok = token.ILLEGAL
			}
		case '<':
			tok = token.LT
			if s.advanceIf('=') {
				tok = token.LE
			}
		case '>':
			tok = token.GT
			if s.advanceIf('=') {
				tok = token.GE
			}
		case '=':
			tok = token.EQ
			if s.advanceIf('=') {
				tok = token.EQEQ
			}
		case '~':
			tok = token.ILLEGAL
			if s.advanceIf('=') {
				tok = token.NE
			} else {
				s.errorf(start, "illegal character %#U", cur)
			}
		case ':':
			tok = token.COLON
		case ',':
			tok = token.COMMA
		case ';':
			tok = token.SEMI
		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case '"':
			lit, val := s.shortString()
			tok = token.STRING
			*tokVal = token.Value{Raw: lit, Pos: pos, String: val}
			return tok
		case -1:
			tok = token.EOF
		default:
			if cur == utf8.RuneError && s.invalidByte > 0 {
				cur = rune(s.invalidByte)
				s.invalidByte = 0
			}
			s.errorf(start, "illegal character %#U", cur)
			tok = token.ILLEGAL
		}
		*tokVal = token.Value{Raw: string(s.src[start:s.off]), Pos: pos}
	}
	return tok
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// skipWhitespaceAndComments skips spaces, single-line "--" comments and
// block "--[[ ... ]]" comments, since the parser never needs to see either.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch {
		case isWhitespace(s.cur):
			s.advance()
		case s.cur == '-' && s.peek() == '-':
			s.advance()
			s.advance()
			s.skipComment()
		default:
			return
		}
	}
}

func (s *Scanner) skipComment() {
	if s.cur == '[' && (s.peek() == '[' || s.peek() == '=') {
		if s.tryBlockComment() {
			return
		}
	}
	for s.cur != '\n' && s.cur != -1 {
		s.advance()
	}
}

// tryBlockComment consumes a --[[ ... ]] block comment. It reports true if a
// well-formed opening "[[" was found (and the whole comment, however it
// ends, was consumed); false if "[" was not in fact the start of a block
// comment, in which case nothing was consumed and the caller falls back to a
// single-line comment.
func (s *Scanner) tryBlockComment() bool {
	if s.cur != '[' || s.peek() != '[' {
		return false
	}
	start := s.off
	s.advance()
	s.advance()
	for {
		if s.cur == -1 {
			s.error(start, "unterminated block comment")
			return true
		}
		if s.cur == ']' && s.peek() == ']' {
			s.advance()
			s.advance()
			return true
		}
		s.advance()
	}
}

func isWhitespace(rn rune) bool { return rn == ' ' || rn == '\t' || rn == '\n' || rn == '\r' }

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' || 'A' <= rn && rn <= 'Z' || rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool { return '0' <= rn && rn <= '9' }

// ScanAll tokenizes src fully under the given file name, returning every
// token including the final EOF, or the accumulated scanner errors.
func ScanAll(fset *token.FileSet, name string, src []byte) ([]token.Token, []token.Value, error) {
	var el ErrorList
	f := fset.AddFile(name, -1, len(src))
	var s Scanner
	s.Init(f, src, el.Add)

	var toks []token.Token
	var vals []token.Value
	var v token.Value
	for {
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	el.Sort()
	return toks, vals, el.Err()
}
