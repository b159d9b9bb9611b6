// Package parser builds an ast.Description from source text. The grammar is
// line-oriented: using directives and entries each occupy one logical line,
// while brace blocks may span several physical lines.
package parser

import (
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/report"
	"github.com/vk/platdesc/internal/scanner"
)

type parser struct {
	file string
	src  string
	toks []scanner.Token
	pos  int
}

// Parse scans and parses one description. The returned error, if any, is a
// SyntaxError anchored to the offending token.
func Parse(file, src string) (*ast.Description, *report.Error) {
	p := &parser{
		file: file,
		src:  src,
		toks: scanner.New(file, src).Scan(),
	}
	return p.parseDescription()
}

func (p *parser) cur() scanner.Token  { return p.toks[p.pos] }
func (p *parser) peek() scanner.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() scanner.Token {
	tok := p.toks[p.pos]
	if tok.Kind != scanner.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) at(kind scanner.Kind) bool { return p.cur().Kind == kind }

// atIdent reports whether the current token is the given bare word.
func (p *parser) atIdent(text string) bool {
	return p.cur().Kind == scanner.Ident && p.cur().Text == text
}

func (p *parser) skipNewlines() {
	for p.at(scanner.Newline) {
		p.advance()
	}
}

func (p *parser) expect(kind scanner.Kind) (scanner.Token, *report.Error) {
	if p.at(kind) {
		return p.advance(), nil
	}
	return scanner.Token{}, p.errExpected(kind.String())
}

func (p *parser) errExpected(alternatives ...string) *report.Error {
	tok := p.cur()
	got := tok.Kind.String()
	if tok.Kind == scanner.Ident || tok.Kind == scanner.Number {
		got = "'" + tok.Text + "'"
	}
	return report.New(report.SyntaxError, tok.Range, p.src, false,
		"expected %s, got %s", strings.Join(alternatives, " or "), got)
}

func (p *parser) parseDescription() (*ast.Description, *report.Error) {
	desc := &ast.Description{FileName: p.file, Source: p.src}

	p.skipNewlines()
	for p.atIdent("using") {
		using, err := p.parseUsing()
		if err != nil {
			return nil, err
		}
		desc.Usings = append(desc.Usings, using)
		if err := p.endOfLine(); err != nil {
			return nil, err
		}
	}

	for !p.at(scanner.EOF) {
		entry, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		desc.Entries = append(desc.Entries, entry)
		if err := p.endOfLine(); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

func (p *parser) endOfLine() *report.Error {
	if p.at(scanner.EOF) {
		return nil
	}
	if !p.at(scanner.Newline) {
		return p.errExpected("end of line")
	}
	p.skipNewlines()
	return nil
}

func (p *parser) parseUsing() (*ast.Using, *report.Error) {
	kw := p.advance() // 'using'
	path, err := p.expect(scanner.String)
	if err != nil {
		return nil, err
	}
	using := &ast.Using{
		Path:      path.Text,
		PathRange: path.Range,
		Range:     hcl.RangeBetween(kw.Range, path.Range),
	}
	if p.atIdent("prefix") {
		p.advance()
		prefix, err := p.expect(scanner.String)
		if err != nil {
			return nil, err
		}
		using.Prefix = prefix.Text
		using.Range = hcl.RangeBetween(kw.Range, prefix.Range)
	}
	return using, nil
}

func (p *parser) parseEntry() (*ast.Entry, *report.Error) {
	name, err := p.expect(scanner.Ident)
	if err != nil {
		return nil, p.errExpected("variable name")
	}
	if _, err := p.expect(scanner.Colon); err != nil {
		return nil, err
	}

	entry := &ast.Entry{
		VariableName:  name.Text,
		VariableRange: name.Range,
		Range:         name.Range,
	}

	if p.atIdent("local") {
		entry.Local = true
		p.advance()
	}

	// A type name is any identifier that does not start an attribute
	// (`name:`, `name ->`, `init add:`) or a later clause.
	if p.at(scanner.Ident) && !p.atIdent("as") && !p.atInitAttribute() &&
		p.peek().Kind != scanner.Colon && p.peek().Kind != scanner.Arrow {
		tn, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		entry.Type = tn
		entry.Range = hcl.RangeBetween(name.Range, tn.Range)
	}

	if p.at(scanner.At) {
		if err := p.parseRegistrations(entry); err != nil {
			return nil, err
		}
	}

	if p.atIdent("as") {
		p.advance()
		alias, err := p.expect(scanner.String)
		if err != nil {
			return nil, err
		}
		entry.Alias = &ast.StringLiteral{Value: alias.Text, Range: alias.Range}
		entry.Range = hcl.RangeBetween(name.Range, alias.Range)
	}

	for p.at(scanner.Semicolon) {
		p.advance()
	}

	switch {
	case p.at(scanner.LBrace):
		attrs, end, err := p.parseAttributeBlock()
		if err != nil {
			return nil, err
		}
		entry.Attributes = attrs
		entry.Range = hcl.RangeBetween(name.Range, end)
	case p.startsInlineAttribute():
		attrs, err := p.parseInlineAttributes()
		if err != nil {
			return nil, err
		}
		entry.Attributes = attrs
		if len(attrs) > 0 {
			entry.Range = hcl.RangeBetween(name.Range, attrs[len(attrs)-1].Rng())
		}
	}
	return entry, nil
}

// startsInlineAttribute reports whether the entry continues with a braceless
// attribute list, as in `cpu: PerformanceInMips: 1`.
func (p *parser) startsInlineAttribute() bool {
	switch p.cur().Kind {
	case scanner.Arrow, scanner.LBracket, scanner.Number:
		return true
	case scanner.Ident:
		return p.peek().Kind == scanner.Colon || p.peek().Kind == scanner.Arrow || p.atInitAttribute()
	}
	return false
}

// atInitAttribute recognizes the two init attribute heads, `init:` and
// `init add:`.
func (p *parser) atInitAttribute() bool {
	return p.atIdent("init") &&
		(p.peek().Kind == scanner.Colon || (p.peek().Kind == scanner.Ident && p.peek().Text == "add"))
}

// parseInlineAttributes parses attributes separated by semicolons up to the
// end of the line.
func (p *parser) parseInlineAttributes() ([]ast.Attribute, *report.Error) {
	var attrs []ast.Attribute
	for {
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
		if !p.at(scanner.Semicolon) {
			return attrs, nil
		}
		p.advance()
	}
}

func (p *parser) parseTypeName() (*ast.TypeName, *report.Error) {
	first, err := p.expect(scanner.Ident)
	if err != nil {
		return nil, err
	}
	name := first.Text
	rng := first.Range
	for p.at(scanner.Dot) {
		p.advance()
		part, err := p.expect(scanner.Ident)
		if err != nil {
			return nil, err
		}
		name += "." + part.Text
		rng = hcl.RangeBetween(first.Range, part.Range)
	}
	return &ast.TypeName{Name: name, Range: rng}, nil
}

// parseRegistrations handles '@' followed by none, a single registration or a
// braced list of them.
func (p *parser) parseRegistrations(entry *ast.Entry) *report.Error {
	p.advance() // '@'
	if p.atIdent("none") {
		p.advance()
		entry.RegistrationInfos = []*ast.RegistrationInfo{}
		entry.ExplicitNone = true
		return nil
	}
	if p.at(scanner.LBrace) {
		p.advance()
		p.skipNewlines()
		for !p.at(scanner.RBrace) {
			info, err := p.parseRegistrationInfo()
			if err != nil {
				return err
			}
			entry.RegistrationInfos = append(entry.RegistrationInfos, info)
			if p.at(scanner.Semicolon) || p.at(scanner.Newline) {
				p.advance()
				p.skipNewlines()
				continue
			}
			break
		}
		_, err := p.expect(scanner.RBrace)
		return err
	}
	info, err := p.parseRegistrationInfo()
	if err != nil {
		return err
	}
	entry.RegistrationInfos = []*ast.RegistrationInfo{info}
	return nil
}

func (p *parser) parseRegistrationInfo() (*ast.RegistrationInfo, *report.Error) {
	reg, err := p.expect(scanner.Ident)
	if err != nil {
		return nil, p.errExpected("register name", "'none'")
	}
	info := &ast.RegistrationInfo{
		Register: &ast.ReferenceValue{Name: reg.Text, Scope: p.file, Range: reg.Range},
		Range:    reg.Range,
	}
	if p.startsValue() && !p.atIdent("as") {
		point, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		info.Point = point
		info.Range = hcl.RangeBetween(reg.Range, point.Rng())
	}
	return info, nil
}
