// Package scanner turns description source text into a token stream. The
// language is line-oriented: newlines are significant outside brackets, so
// the scanner emits Newline tokens and lets the parser decide where they
// separate entries or attributes.
package scanner

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Scanner is a single-pass lexer over one source file.
type Scanner struct {
	file   string
	src    string
	offset int
	line   int
	col    int
}

// New returns a scanner over src, attributing positions to file.
func New(file, src string) *Scanner {
	return &Scanner{file: file, src: src, line: 1, col: 1}
}

// Scan produces the full token stream, terminated by an EOF token.
func (s *Scanner) Scan() []Token {
	var toks []Token
	for {
		tok := s.next()
		// Collapse runs of blank lines.
		if tok.Kind == Newline && len(toks) > 0 && toks[len(toks)-1].Kind == Newline {
			continue
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func (s *Scanner) pos() hcl.Pos {
	return hcl.Pos{Line: s.line, Column: s.col, Byte: s.offset}
}

func (s *Scanner) peek() byte {
	if s.offset >= len(s.src) {
		return 0
	}
	return s.src[s.offset]
}

func (s *Scanner) peekAt(n int) byte {
	if s.offset+n >= len(s.src) {
		return 0
	}
	return s.src[s.offset+n]
}

func (s *Scanner) advance() byte {
	c := s.src[s.offset]
	s.offset++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *Scanner) token(kind Kind, start hcl.Pos, text string) Token {
	return Token{
		Kind: kind,
		Text: text,
		Range: hcl.Range{
			Filename: s.file,
			Start:    start,
			End:      s.pos(),
		},
	}
}

func (s *Scanner) next() Token {
	s.skipSpaceAndComments()
	start := s.pos()
	if s.offset >= len(s.src) {
		return s.token(EOF, start, "")
	}

	c := s.peek()
	switch {
	case c == '\n':
		s.advance()
		return s.token(Newline, start, "\n")
	case c == '"':
		return s.scanString(start)
	case isDigit(c), c == '-' && isDigit(s.peekAt(1)):
		return s.scanNumber(start)
	case isIdentStart(c):
		return s.scanIdent(start)
	}

	s.advance()
	switch c {
	case ':':
		return s.token(Colon, start, ":")
	case ';':
		return s.token(Semicolon, start, ";")
	case ',':
		return s.token(Comma, start, ",")
	case '.':
		return s.token(Dot, start, ".")
	case '@':
		return s.token(At, start, "@")
	case '#':
		return s.token(Hash, start, "#")
	case '|':
		return s.token(Pipe, start, "|")
	case '{':
		return s.token(LBrace, start, "{")
	case '}':
		return s.token(RBrace, start, "}")
	case '[':
		return s.token(LBracket, start, "[")
	case ']':
		return s.token(RBracket, start, "]")
	case '<':
		return s.token(LAngle, start, "<")
	case '>':
		return s.token(RAngle, start, ">")
	case '-':
		if s.peek() == '>' {
			s.advance()
			return s.token(Arrow, start, "->")
		}
	}
	return s.token(Illegal, start, string(c))
}

func (s *Scanner) skipSpaceAndComments() {
	for s.offset < len(s.src) {
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\r':
			s.advance()
		case c == '/' && s.peekAt(1) == '/':
			for s.offset < len(s.src) && s.peek() != '\n' {
				s.advance()
			}
		case c == '\\' && s.peekAt(1) == '\n':
			// Explicit line continuation.
			s.advance()
			s.advance()
		default:
			return
		}
	}
}

func (s *Scanner) scanString(start hcl.Pos) Token {
	s.advance() // opening quote
	var sb strings.Builder
	for s.offset < len(s.src) {
		c := s.advance()
		switch c {
		case '"':
			return s.token(String, start, sb.String())
		case '\\':
			if s.offset < len(s.src) {
				esc := s.advance()
				switch esc {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '\\', '"':
					sb.WriteByte(esc)
				default:
					sb.WriteByte('\\')
					sb.WriteByte(esc)
				}
			}
		case '\n':
			// Unterminated string; report at the opening quote.
			return s.token(Illegal, start, "\"")
		default:
			sb.WriteByte(c)
		}
	}
	return s.token(Illegal, start, "\"")
}

func (s *Scanner) scanNumber(start hcl.Pos) Token {
	from := s.offset
	if s.peek() == '-' {
		s.advance()
	}
	if s.peek() == '0' && (s.peekAt(1) == 'x' || s.peekAt(1) == 'X') {
		s.advance()
		s.advance()
		for isHexDigit(s.peek()) || s.peek() == '_' {
			s.advance()
		}
		return s.token(Number, start, s.src[from:s.offset])
	}
	for isDigit(s.peek()) || s.peek() == '_' {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.token(Number, start, s.src[from:s.offset])
}

func (s *Scanner) scanIdent(start hcl.Pos) Token {
	from := s.offset
	for isIdentPart(s.peek()) {
		s.advance()
	}
	return s.token(Ident, start, s.src[from:s.offset])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
