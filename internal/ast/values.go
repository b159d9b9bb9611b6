package ast

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Value is the interface of all attribute and registration-point values.
type Value interface {
	Rng() hcl.Range
	value()
}

// StringValue is a quoted string literal.
type StringValue struct {
	Value string
	Range hcl.Range
}

func (v *StringValue) Rng() hcl.Range { return v.Range }
func (v *StringValue) value()         {}

// BoolValue is `true` or `false`.
type BoolValue struct {
	Value bool
	Range hcl.Range
}

func (v *BoolValue) Rng() hcl.Range { return v.Range }
func (v *BoolValue) value()         {}

// NumericalValue is an integer or float literal. Text preserves the original
// spelling; Number is the parsed cty.Number used for conversions.
type NumericalValue struct {
	Text   string
	Number cty.Value
	Range  hcl.Range
}

func (v *NumericalValue) Rng() hcl.Range { return v.Range }
func (v *NumericalValue) value()         {}

// RangeValue is a `<start, end>` address range literal.
type RangeValue struct {
	Start uint64
	End   uint64
	Range hcl.Range
}

func (v *RangeValue) Rng() hcl.Range { return v.Range }
func (v *RangeValue) value()         {}

// EnumValue is a dotted enum literal. TypePath holds the type name and any
// namespace qualifiers in reverse order (type name first), Member the member
// name.
type EnumValue struct {
	TypePath []string
	Member   string
	Range    hcl.Range
}

func (v *EnumValue) Rng() hcl.Range { return v.Range }
func (v *EnumValue) value()         {}

// String renders the literal as written, e.g. "Ns.Type.Member".
func (v *EnumValue) String() string {
	parts := make([]string, 0, len(v.TypePath)+1)
	for i := len(v.TypePath) - 1; i >= 0; i-- {
		parts = append(parts, v.TypePath[i])
	}
	parts = append(parts, v.Member)
	return strings.Join(parts, ".")
}

// EmptyValue is the `empty` literal: the target type's zero value.
type EmptyValue struct {
	Range hcl.Range
}

func (v *EmptyValue) Rng() hcl.Range { return v.Range }
func (v *EmptyValue) value()         {}

// ReferenceValue names another variable. Scope is the file the reference was
// written in; lookups try that file's local scope before the merged one.
// Prefix is the include-prefix chain in effect for the file: lookups try the
// prefixed name first and fall back to the bare one, so prefixed files can
// still reach builtins.
type ReferenceValue struct {
	Name   string
	Prefix string
	Scope  string
	Range  hcl.Range
}

func (v *ReferenceValue) Rng() hcl.Range { return v.Range }
func (v *ReferenceValue) value()         {}

// ObjectValue is an inline constructor invocation: a type name plus an
// attribute list. Object values may nest.
type ObjectValue struct {
	TypeName   *TypeName
	Attributes []Attribute
	Range      hcl.Range
}

func (v *ObjectValue) Rng() hcl.Range { return v.Range }
func (v *ObjectValue) value()         {}
