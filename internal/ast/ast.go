// Package ast holds the syntax tree produced by the description parser. Every
// node carries an hcl.Range into the original text so diagnostics can quote
// the offending line.
package ast

import (
	"github.com/hashicorp/hcl/v2"
)

// Description is the parse result of one source file: a possibly-empty list
// of using directives followed by entries. The original text is kept so
// later passes can render source-annotated errors.
type Description struct {
	FileName string
	Source   string
	Usings   []*Using
	Entries  []*Entry
}

// Using is a single `using "path" [prefix "pfx_"]` directive.
type Using struct {
	Path      string
	PathRange hcl.Range
	Prefix    string
	Range     hcl.Range
}

// Entry is one variable-scoped declaration or extension unit. The first
// entry contributing to a variable must carry a type ("creating" entry);
// subsequent entries extend it ("updating" entries).
type Entry struct {
	VariableName  string
	VariableRange hcl.Range

	// Type is nil for updating entries.
	Type *TypeName

	// Local restricts the variable to references from the same file.
	Local bool

	// Alias is the display name used when the entry registers, or nil.
	Alias *StringLiteral

	// RegistrationInfos is nil when the entry carries no `@` clause at all;
	// a non-nil empty slice means `@none` (registration cancelled).
	RegistrationInfos []*RegistrationInfo
	ExplicitNone      bool

	Attributes []Attribute

	Range hcl.Range
}

// IsCreating reports whether the entry declares its variable's type.
func (e *Entry) IsCreating() bool { return e.Type != nil }

// TypeName is a possibly-dotted type name as written in the source.
type TypeName struct {
	Name  string
	Range hcl.Range
}

// StringLiteral is a quoted string with its position.
type StringLiteral struct {
	Value string
	Range hcl.Range
}

// RegistrationInfo describes one `@ register [regpoint]` clause. The parser
// always sets Register; the `@none` form is an empty RegistrationInfos slice
// on the Entry instead.
type RegistrationInfo struct {
	Register *ReferenceValue
	Point    Value
	Range    hcl.Range
}

// Attribute is one item of an entry's attribute list.
type Attribute interface {
	Rng() hcl.Range
	attribute()
}

// ConstructorOrPropertyAttribute is a `name: value` attribute. Whether the
// name addresses a settable property or a constructor parameter is decided
// during validation.
type ConstructorOrPropertyAttribute struct {
	Name      string
	NameRange hcl.Range

	// Value is nil for the cancelling `name: none` form.
	Value Value

	Range hcl.Range
}

func (a *ConstructorOrPropertyAttribute) Rng() hcl.Range { return a.Range }
func (a *ConstructorOrPropertyAttribute) attribute()     {}

// IsNone reports the cancelling `name: none` form.
func (a *ConstructorOrPropertyAttribute) IsNone() bool { return a.Value == nil }

// IrqAttribute is one interrupt-wiring attribute: a list of source ends and a
// list of destinations. Sources may be omitted, in which case validation
// imputes the default GPIO property of the entry's type.
type IrqAttribute struct {
	// Sources is nil when omitted.
	Sources      []*IrqEnd
	Destinations []*IrqDestination
	Range        hcl.Range
}

func (a *IrqAttribute) Rng() hcl.Range { return a.Range }
func (a *IrqAttribute) attribute()     {}

// IrqEnd is one end of an interrupt connection: either a named GPIO property
// or a numbered pin.
type IrqEnd struct {
	// PropertyName is set for named ends; otherwise Number is valid.
	PropertyName string
	Number       int
	Range        hcl.Range
}

// IsNamed reports whether the end refers to a GPIO property by name.
func (e *IrqEnd) IsNamed() bool { return e.PropertyName != "" }

// IrqDestination is one destination of an IRQ attribute. None cancels the
// whole attribute during merge. LocalIndex selects a local receiver on the
// destination peripheral (nil when absent).
type IrqDestination struct {
	None       bool
	Peripheral *ReferenceValue
	LocalIndex *int
	Ends       []*IrqEnd
	Range      hcl.Range
}

// InitAttribute is the ordered script section of an entry. Add appends to an
// earlier section during merge instead of replacing it.
type InitAttribute struct {
	Add   bool
	Lines []string
	Range hcl.Range
}

func (a *InitAttribute) Rng() hcl.Range { return a.Range }
func (a *InitAttribute) attribute()     {}
