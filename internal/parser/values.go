package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/report"
	"github.com/vk/platdesc/internal/scanner"
)

// startsValue reports whether the current token can begin a value.
func (p *parser) startsValue() bool {
	switch p.cur().Kind {
	case scanner.String, scanner.Number, scanner.LAngle, scanner.Ident:
		return true
	}
	return false
}

func (p *parser) parseValue() (ast.Value, *report.Error) {
	switch tok := p.cur(); tok.Kind {
	case scanner.String:
		p.advance()
		return &ast.StringValue{Value: tok.Text, Range: tok.Range}, nil
	case scanner.Number:
		p.advance()
		num, err := parseNumber(tok.Text)
		if err != nil {
			return nil, report.New(report.SyntaxError, tok.Range, p.src, false,
				"malformed number '%s': %v", tok.Text, err)
		}
		return &ast.NumericalValue{Text: tok.Text, Number: num, Range: tok.Range}, nil
	case scanner.LAngle:
		return p.parseRangeValue()
	case scanner.Ident:
		return p.parseWordValue()
	}
	return nil, p.errExpected("a value")
}

// parseWordValue disambiguates the identifier-led values: booleans, empty,
// references, dotted enum literals and inline objects.
func (p *parser) parseWordValue() (ast.Value, *report.Error) {
	first := p.advance()
	switch first.Text {
	case "true", "false":
		return &ast.BoolValue{Value: first.Text == "true", Range: first.Range}, nil
	case "empty":
		return &ast.EmptyValue{Range: first.Range}, nil
	}

	parts := []string{first.Text}
	rng := first.Range
	for p.at(scanner.Dot) {
		p.advance()
		part, err := p.expect(scanner.Ident)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part.Text)
		rng = hcl.RangeBetween(first.Range, part.Range)
	}

	if p.at(scanner.LBrace) {
		attrs, end, err := p.parseAttributeBlock()
		if err != nil {
			return nil, err
		}
		full := hcl.RangeBetween(first.Range, end)
		return &ast.ObjectValue{
			TypeName:   &ast.TypeName{Name: strings.Join(parts, "."), Range: rng},
			Attributes: attrs,
			Range:      full,
		}, nil
	}

	if len(parts) == 1 {
		return &ast.ReferenceValue{Name: first.Text, Scope: p.file, Range: first.Range}, nil
	}

	// Dotted, not an object: an enum literal. The type path is stored
	// reversed, type name first, so matching can run tail-first.
	member := parts[len(parts)-1]
	path := make([]string, 0, len(parts)-1)
	for i := len(parts) - 2; i >= 0; i-- {
		path = append(path, parts[i])
	}
	return &ast.EnumValue{TypePath: path, Member: member, Range: rng}, nil
}

func (p *parser) parseRangeValue() (ast.Value, *report.Error) {
	open := p.advance() // '<'
	start, err := p.parseRangeBound()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.Comma); err != nil {
		return nil, err
	}
	end, err := p.parseRangeBound()
	if err != nil {
		return nil, err
	}
	close, rerr := p.expect(scanner.RAngle)
	if rerr != nil {
		return nil, rerr
	}
	return &ast.RangeValue{
		Start: start,
		End:   end,
		Range: hcl.RangeBetween(open.Range, close.Range),
	}, nil
}

func (p *parser) parseRangeBound() (uint64, *report.Error) {
	tok, err := p.expect(scanner.Number)
	if err != nil {
		return 0, err
	}
	v, perr := parseUint64(tok.Text)
	if perr != nil {
		return 0, report.New(report.SyntaxError, tok.Range, p.src, false,
			"malformed range bound '%s': %v", tok.Text, perr)
	}
	return v, nil
}

// parseNumber is the shared smart number parser: decimal and hex integers
// (with optional sign and '_' digit grouping) and decimal floats.
func parseNumber(text string) (cty.Value, error) {
	clean := strings.ReplaceAll(text, "_", "")
	neg := strings.HasPrefix(clean, "-")
	body := strings.TrimPrefix(clean, "-")
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		u, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return cty.NilVal, err
		}
		if neg {
			if u > 1<<63 {
				return cty.NilVal, fmt.Errorf("value out of range")
			}
			return cty.NumberIntVal(-int64(u)), nil
		}
		return cty.NumberUIntVal(u), nil
	}
	return cty.ParseNumberVal(clean)
}

func parseUint64(text string) (uint64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		return strconv.ParseUint(clean[2:], 16, 64)
	}
	return strconv.ParseUint(clean, 10, 64)
}

func parseSmallInt(tok scanner.Token) (int, error) {
	v, err := parseUint64(tok.Text)
	if err != nil {
		return 0, err
	}
	if v > 1<<30 {
		return 0, fmt.Errorf("value out of range")
	}
	return int(v), nil
}
