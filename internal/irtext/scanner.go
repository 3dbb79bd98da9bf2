package irtext

import (
	"fmt"
	"io"
	"strings"
)

// Scanner splits IR text into tokens. Every non-empty line is terminated
// by an _EOL token; blank lines and comment-only lines produce none.
type Scanner struct {
	source

	tok    Token
	lit    string
	tokPos Pos

	// inLine is set once a token has been produced on the current line.
	inLine bool

	litBuf strings.Builder
}

// NewScanner returns a Scanner reading src. errh receives lexical errors;
// if nil, they are ignored.
func NewScanner(filename string, src io.Reader, errh func(line, col uint32, msg string)) *Scanner {
	return &Scanner{source: *newSource(filename, src, errh)}
}

// Next advances to the next token.
func (s *Scanner) Next() {
redo:
	for isWhitespace(s.ch) {
		s.nextch()
	}

	if s.ch == '\n' || s.ch < 0 {
		if s.inLine {
			s.inLine = false
			s.tokPos = s.pos()
			s.tok = _EOL
			s.lit = "newline"
			if s.ch == '\n' {
				s.nextch()
			}
			return
		}
		if s.ch == '\n' {
			s.nextch()
			goto redo
		}
	}

	s.tokPos = s.pos()

	switch {
	case s.ch < 0:
		s.tok = _EOF
		s.lit = ""
		return

	case isLetter(s.ch):
		s.scanIdent()

	case isDigit(s.ch):
		s.scanNumber()

	default:
		if s.scanOperator() {
			goto redo
		}
	}
	s.inLine = true
}

// Token returns the current token.
func (s *Scanner) Token() Token { return s.tok }

// Literal returns the text of the current token.
func (s *Scanner) Literal() string { return s.lit }

// Pos returns the start position of the current token.
func (s *Scanner) Pos() Pos { return s.tokPos }

func (s *Scanner) scanIdent() {
	s.litBuf.Reset()
	for isLetter(s.ch) || isDigit(s.ch) {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
	s.lit = s.litBuf.String()
	s.tok = LookupKeyword(s.lit)
}

// scanNumber scans a decimal or 0x-prefixed hexadecimal integer.
func (s *Scanner) scanNumber() {
	s.litBuf.Reset()
	s.tok = _Number

	if s.ch == '0' {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
		if lower(s.ch) == 'x' {
			s.litBuf.WriteRune(s.ch)
			s.nextch()
			if !isHexDigit(s.ch) {
				s.error("invalid hex digit")
			}
			for isHexDigit(s.ch) {
				s.litBuf.WriteRune(s.ch)
				s.nextch()
			}
			s.lit = s.litBuf.String()
			return
		}
	}
	for isDigit(s.ch) {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
	s.lit = s.litBuf.String()
}

// scanOperator scans an operator or delimiter. It returns true if a
// comment was skipped instead.
func (s *Scanner) scanOperator() bool {
	ch := s.ch
	s.nextch()

	// two-character tokens
	pair := func(next rune, two, one Token) {
		if s.ch == next {
			s.nextch()
			s.tok = two
		} else {
			s.tok = one
		}
	}

	switch ch {
	case '+':
		s.tok = _Add
	case '-':
		s.tok = _Sub
	case '*':
		s.tok = _Mul
	case '/':
		if s.ch == '/' {
			for s.ch != '\n' && s.ch >= 0 {
				s.nextch()
			}
			return true
		}
		s.tok = _Div
	case '%':
		s.tok = _Rem
	case '&':
		s.tok = _And
	case '|':
		s.tok = _Or
	case '^':
		s.tok = _Xor
	case '~':
		s.tok = _Tilde
	case '<':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Leq
		case '<':
			s.nextch()
			s.tok = _Shl
		case '-':
			s.nextch()
			s.tok = _Arrow
		default:
			s.tok = _Lss
		}
	case '>':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Geq
		case '>':
			s.nextch()
			s.tok = _Shr
		default:
			s.tok = _Gtr
		}
	case '=':
		pair('=', _Eql, _Assign)
	case '!':
		pair('=', _Neq, _Not)
	case '@':
		s.tok = _At
	case ':':
		s.tok = _Colon
	case ',':
		s.tok = _Comma
	case '(':
		s.tok = _Lparen
	case ')':
		s.tok = _Rparen
	case '[':
		s.tok = _Lbrack
	case ']':
		s.tok = _Rbrack
	default:
		s.errorAt(s.tokPos, fmt.Sprintf("unexpected character %q", ch))
		return true
	}
	s.lit = s.tok.String()
	return false
}
