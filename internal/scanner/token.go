package scanner

import "github.com/hashicorp/hcl/v2"

// Kind enumerates the token kinds of the description language.
type Kind int

const (
	EOF Kind = iota
	Newline
	Ident
	Number
	String
	Colon
	Semicolon
	Comma
	Dot
	At
	Hash
	Pipe
	Arrow
	LBrace
	RBrace
	LBracket
	RBracket
	LAngle
	RAngle
	Illegal
)

var kindNames = map[Kind]string{
	EOF:      "end of file",
	Newline:  "end of line",
	Ident:    "identifier",
	Number:   "number",
	String:   "string",
	Colon:    "':'",
	Semicolon: "';'",
	Comma:    "','",
	Dot:      "'.'",
	At:       "'@'",
	Hash:     "'#'",
	Pipe:     "'|'",
	Arrow:    "'->'",
	LBrace:   "'{'",
	RBrace:   "'}'",
	LBracket: "'['",
	RBracket: "']'",
	LAngle:   "'<'",
	RAngle:   "'>'",
	Illegal:  "illegal character",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown token"
}

// Token is one lexeme with its source range. Text is the literal text for
// identifiers and numbers and the decoded value for strings.
type Token struct {
	Kind  Kind
	Text  string
	Range hcl.Range
}
