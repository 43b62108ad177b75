package scanner

import (
	"strconv"

	"github.com/ifj21-compiler/ifjc/lang/token"
)

// number scans an integer or float literal starting at the current digit
// and fills tokVal, returning the token kind. Grounded on the DFA in
// original_source/scanner.c (lex_number): a leading run of digits (allowing
// leading zeros, e.g. "007") stays an integer unless a '.' fractional part
// or an 'e'/'E' exponent is seen, at which point it becomes a float.
func (s *Scanner) number(tokVal *token.Value, pos token.Pos, start int) token.Token {
	isFloat := false

	for isDigit(s.cur) {
		s.advance()
	}

	if s.cur == '.' && isDigit(rune(s.peek())) {
		isFloat = true
		s.advance() // consume '.'
		for isDigit(s.cur) {
			s.advance()
		}
	}

	if s.cur == 'e' || s.cur == 'E' {
		isFloat = true
		s.advance()
		if s.cur == '+' || s.cur == '-' {
			s.advance()
		}
		if !isDigit(s.cur) {
			s.errorf(start, "malformed floating-point literal exponent")
		}
		for isDigit(s.cur) {
			s.advance()
		}
	}

	lit := string(s.src[start:s.off])
	if isFloat {
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			s.errorf(start, "invalid float literal %q: %s", lit, err)
		}
		*tokVal = token.Value{Raw: lit, Pos: pos, Float: v}
		return token.FLOAT
	}

	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		s.errorf(start, "integer literal out of range: %q", lit)
	}
	*tokVal = token.Value{Raw: lit, Pos: pos, Int: v}
	return token.INT
}
