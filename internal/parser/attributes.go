package parser

import (
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/report"
	"github.com/vk/platdesc/internal/scanner"
)

// parseAttributeBlock parses '{ attr; attr; ... }' where attributes are
// separated by semicolons or newlines. Returns the closing brace range so
// the caller can extend its node.
func (p *parser) parseAttributeBlock() ([]ast.Attribute, hcl.Range, *report.Error) {
	if _, err := p.expect(scanner.LBrace); err != nil {
		return nil, hcl.Range{}, err
	}
	var attrs []ast.Attribute
	p.skipSeparators()
	for !p.at(scanner.RBrace) {
		if p.at(scanner.EOF) {
			return nil, hcl.Range{}, p.errExpected("'}'")
		}
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, hcl.Range{}, err
		}
		attrs = append(attrs, attr)
		if p.at(scanner.Semicolon) || p.at(scanner.Newline) {
			p.skipSeparators()
			continue
		}
		break
	}
	end, err := p.expect(scanner.RBrace)
	if err != nil {
		return nil, hcl.Range{}, err
	}
	return attrs, end.Range, nil
}

func (p *parser) skipSeparators() {
	for p.at(scanner.Semicolon) || p.at(scanner.Newline) {
		p.advance()
	}
}

func (p *parser) parseAttribute() (ast.Attribute, *report.Error) {
	switch {
	case p.at(scanner.Arrow), p.at(scanner.LBracket), p.at(scanner.Number):
		return p.parseIrqAttribute()
	case p.at(scanner.Ident):
		if p.atInitAttribute() {
			return p.parseInitAttribute()
		}
		switch p.peek().Kind {
		case scanner.Colon:
			return p.parseCtorOrPropertyAttribute()
		case scanner.Arrow:
			return p.parseIrqAttribute()
		}
		return nil, p.errExpected("':'", "'->'")
	}
	return nil, p.errExpected("attribute name", "interrupt source", "'}'")
}

func (p *parser) parseCtorOrPropertyAttribute() (*ast.ConstructorOrPropertyAttribute, *report.Error) {
	name := p.advance()
	p.advance() // ':'
	attr := &ast.ConstructorOrPropertyAttribute{
		Name:      name.Text,
		NameRange: name.Range,
		Range:     name.Range,
	}
	if p.atIdent("none") {
		none := p.advance()
		attr.Range = hcl.RangeBetween(name.Range, none.Range)
		return attr, nil
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	attr.Value = value
	attr.Range = hcl.RangeBetween(name.Range, value.Rng())
	return attr, nil
}

// parseInitAttribute captures the script lines of 'init [add]: { ... }'
// verbatim: each line is the raw source between separators, so the handler
// sees exactly what the user wrote.
func (p *parser) parseInitAttribute() (*ast.InitAttribute, *report.Error) {
	kw := p.advance() // 'init'
	attr := &ast.InitAttribute{Range: kw.Range}
	if p.atIdent("add") {
		attr.Add = true
		p.advance()
	}
	if _, err := p.expect(scanner.Colon); err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.LBrace); err != nil {
		return nil, err
	}

	depth := 0
	lineStart := -1
	lineEnd := -1
	flush := func() {
		if lineStart >= 0 && lineEnd > lineStart {
			line := strings.TrimSpace(p.src[lineStart:lineEnd])
			if line != "" {
				attr.Lines = append(attr.Lines, line)
			}
		}
		lineStart, lineEnd = -1, -1
	}
	for {
		tok := p.cur()
		switch {
		case tok.Kind == scanner.EOF:
			return nil, p.errExpected("'}'")
		case tok.Kind == scanner.RBrace && depth == 0:
			flush()
			end := p.advance()
			attr.Range = hcl.RangeBetween(kw.Range, end.Range)
			return attr, nil
		case (tok.Kind == scanner.Semicolon || tok.Kind == scanner.Newline) && depth == 0:
			flush()
			p.advance()
		default:
			if tok.Kind == scanner.LBrace {
				depth++
			} else if tok.Kind == scanner.RBrace {
				depth--
			}
			if lineStart < 0 {
				lineStart = tok.Range.Start.Byte
			}
			lineEnd = tok.Range.End.Byte
			p.advance()
		}
	}
}

func (p *parser) parseIrqAttribute() (*ast.IrqAttribute, *report.Error) {
	start := p.cur().Range
	attr := &ast.IrqAttribute{Range: start}

	if !p.at(scanner.Arrow) {
		sources, err := p.parseIrqEnds(true)
		if err != nil {
			return nil, err
		}
		attr.Sources = sources
	}
	if _, err := p.expect(scanner.Arrow); err != nil {
		return nil, err
	}
	for {
		dest, err := p.parseIrqDestination()
		if err != nil {
			return nil, err
		}
		attr.Destinations = append(attr.Destinations, dest)
		attr.Range = hcl.RangeBetween(start, dest.Range)
		if !p.at(scanner.Pipe) {
			return attr, nil
		}
		p.advance()
	}
}

// parseIrqEnds parses one end or a bracketed list. Named ends are only legal
// on the source side.
func (p *parser) parseIrqEnds(allowNamed bool) ([]*ast.IrqEnd, *report.Error) {
	if !p.at(scanner.LBracket) {
		end, err := p.parseIrqEnd(allowNamed)
		if err != nil {
			return nil, err
		}
		return []*ast.IrqEnd{end}, nil
	}
	p.advance()
	var ends []*ast.IrqEnd
	for {
		end, err := p.parseIrqEnd(allowNamed)
		if err != nil {
			return nil, err
		}
		ends = append(ends, end)
		if p.at(scanner.Comma) {
			p.advance()
			continue
		}
		if _, err := p.expect(scanner.RBracket); err != nil {
			return nil, err
		}
		return ends, nil
	}
}

func (p *parser) parseIrqEnd(allowNamed bool) (*ast.IrqEnd, *report.Error) {
	if p.at(scanner.Ident) && allowNamed {
		tok := p.advance()
		return &ast.IrqEnd{PropertyName: tok.Text, Range: tok.Range}, nil
	}
	if p.at(scanner.Number) {
		tok := p.advance()
		n, err := parseSmallInt(tok)
		if err != nil {
			return nil, report.New(report.SyntaxError, tok.Range, p.src, false,
				"expected a non-negative pin number, got '%s'", tok.Text)
		}
		return &ast.IrqEnd{PropertyName: "", Number: n, Range: tok.Range}, nil
	}
	if allowNamed {
		return nil, p.errExpected("GPIO property name", "pin number")
	}
	return nil, p.errExpected("pin number")
}

func (p *parser) parseIrqDestination() (*ast.IrqDestination, *report.Error) {
	if p.atIdent("none") {
		tok := p.advance()
		return &ast.IrqDestination{None: true, Range: tok.Range}, nil
	}
	ref, err := p.expect(scanner.Ident)
	if err != nil {
		return nil, p.errExpected("destination peripheral", "'none'")
	}
	dest := &ast.IrqDestination{
		Peripheral: &ast.ReferenceValue{Name: ref.Text, Scope: p.file, Range: ref.Range},
		Range:      ref.Range,
	}
	if p.at(scanner.Hash) {
		p.advance()
		tok, err := p.expect(scanner.Number)
		if err != nil {
			return nil, err
		}
		idx, perr := parseSmallInt(tok)
		if perr != nil {
			return nil, report.New(report.SyntaxError, tok.Range, p.src, false,
				"expected a non-negative local receiver index, got '%s'", tok.Text)
		}
		dest.LocalIndex = &idx
	}
	if _, err := p.expect(scanner.At); err != nil {
		return nil, err
	}
	ends, rerr := p.parseIrqEnds(false)
	if rerr != nil {
		return nil, rerr
	}
	dest.Ends = ends
	dest.Range = hcl.RangeBetween(ref.Range, ends[len(ends)-1].Range)
	return dest, nil
}
