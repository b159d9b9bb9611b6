package driver

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
)

// convResult is the outcome of a simple-value conversion attempt. reason is
// human-readable and feeds both diagnostics and constructor selection
// reports.
type convResult struct {
	ok           bool
	enumMismatch bool
	reason       string
	value        reflect.Value
}

func convOK(v reflect.Value) convResult { return convResult{ok: true, value: v} }

func convFail(format string, args ...any) convResult {
	return convResult{reason: fmt.Sprintf(format, args...)}
}

func convEnumFail(format string, args ...any) convResult {
	return convResult{enumMismatch: true, reason: fmt.Sprintf(format, args...)}
}

var rangeType = reflect.TypeOf(machine.Range{})

// isSimpleValue reports whether convertSimple applies to the value at all;
// references and inline objects follow their own rules.
func isSimpleValue(v ast.Value) bool {
	switch v.(type) {
	case *ast.ReferenceValue, *ast.ObjectValue:
		return false
	}
	return true
}

// convertSimple converts a literal to the target type per the conversion
// table: string <- string, bool <- bool, Range <- range, numeric and
// nullable numeric <- number, enum <- enum literal or defined numeric value,
// empty <- the zero value. The conversion is side-effect free.
func (s *state) convertSimple(v ast.Value, target reflect.Type) convResult {
	switch val := v.(type) {
	case *ast.EmptyValue:
		return convOK(reflect.Zero(target))

	case *ast.StringValue:
		if target.Kind() == reflect.String {
			return convOK(reflect.ValueOf(val.Value).Convert(target))
		}
		return convFail("cannot use string \"%s\" as %s", val.Value, target)

	case *ast.BoolValue:
		if target.Kind() == reflect.Bool {
			return convOK(reflect.ValueOf(val.Value).Convert(target))
		}
		return convFail("cannot use %v as %s", val.Value, target)

	case *ast.RangeValue:
		if target == rangeType {
			return convOK(reflect.ValueOf(machine.Range{Start: val.Start, End: val.End}))
		}
		if target.Kind() == reflect.Ptr && target.Elem() == rangeType {
			ptr := reflect.New(rangeType)
			ptr.Elem().Set(reflect.ValueOf(machine.Range{Start: val.Start, End: val.End}))
			return convOK(ptr)
		}
		return convFail("cannot use range %s as %s",
			machine.Range{Start: val.Start, End: val.End}, target)

	case *ast.NumericalValue:
		return s.convertNumber(val, target)

	case *ast.EnumValue:
		return s.convertEnumLiteral(val, target)
	}

	return convFail("cannot convert value to %s", target)
}

func (s *state) convertNumber(val *ast.NumericalValue, target reflect.Type) convResult {
	// A numeric literal may feed an enum target when it names a defined
	// member or the enum accepts arbitrary values.
	if enumType, enum := s.enumFor(target); enum != nil {
		var n int64
		if err := gocty.FromCtyValue(val.Number, &n); err != nil {
			return convFail("'%s' is not a valid value of %s", val.Text, enumType.Name)
		}
		if _, defined := enum.MemberByValue(n); !defined && !enum.ArbitraryValues {
			return convEnumFail("%d is not a defined member of %s (valid members: %s)",
				n, enumType.Name, strings.Join(enum.MemberNames, ", "))
		}
		return convOK(reflect.ValueOf(n).Convert(target))
	}

	dest := target
	nullable := false
	if dest.Kind() == reflect.Ptr && isNumericKind(dest.Elem().Kind()) {
		dest = dest.Elem()
		nullable = true
	}
	if !isNumericKind(dest.Kind()) {
		return convFail("cannot use number %s as %s", val.Text, target)
	}

	ptr := reflect.New(dest)
	if err := gocty.FromCtyValue(val.Number, ptr.Interface()); err != nil {
		return convFail("number %s does not fit %s: %v", val.Text, dest, err)
	}
	if nullable {
		return convOK(ptr)
	}
	return convOK(ptr.Elem())
}

func (s *state) convertEnumLiteral(val *ast.EnumValue, target reflect.Type) convResult {
	enumType, enum := s.enumFor(target)
	if enum == nil {
		return convFail("cannot use enum literal %s as %s", val, target)
	}

	// The literal's path is stored type-name first; match it tail-first
	// against the target's namespace-qualified name.
	targetPath := append([]string{enumType.LastName()}, reverse(enumType.Namespace())...)
	for i, segment := range val.TypePath {
		if i >= len(targetPath) {
			return convEnumFail("'%s' does not belong to the namespace of %s", segment, enumType.Name)
		}
		if segment != targetPath[i] {
			return convEnumFail("expected '%s', got '%s' in enum literal %s of type %s",
				targetPath[i], segment, val, enumType.Name)
		}
	}

	n, defined := enum.Members[val.Member]
	if !defined {
		return convEnumFail("'%s' is not a member of %s (valid members: %s)",
			val.Member, enumType.Name, strings.Join(enum.MemberNames, ", "))
	}
	return convOK(reflect.ValueOf(n).Convert(target))
}

// enumFor finds the enum descriptor registered for the target type.
func (s *state) enumFor(target reflect.Type) (*catalog.Type, *catalog.Enum) {
	if t, ok := s.d.catalog.ByGoType(target); ok && t.Enum != nil {
		return t, t.Enum
	}
	return nil, nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
