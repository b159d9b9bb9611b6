package driver

import (
	"reflect"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/report"
)

// validatePreMerge checks every entry of every description on its own:
// registration infos, aliases, attribute naming and typing, and interrupt
// wiring. Constructor selection waits until after the merge.
func (s *state) validatePreMerge() *report.Error {
	for _, desc := range s.descriptions {
		for _, entry := range desc.Entries {
			if err := s.validateEntry(desc, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *state) validateEntry(desc *ast.Description, entry *ast.Entry) *report.Error {
	v, ok := s.store.declared(entry.VariableName, desc.FileName)
	if !ok {
		return report.Internal("entry for undeclared variable '%s' survived declaration", entry.VariableName)
	}

	if entry.Alias != nil {
		if entry.RegistrationInfos == nil {
			return s.fail(report.AliasWithoutRegistration, entry.Alias.Range,
				"alias '%s' on an entry without registration info", entry.Alias.Value)
		}
		if entry.ExplicitNone {
			return s.fail(report.AliasWithNoneRegistration, entry.Alias.Range,
				"alias '%s' on an entry with cancelled registration", entry.Alias.Value)
		}
	}

	for _, info := range entry.RegistrationInfos {
		if info.Register == nil {
			continue
		}
		if err := s.validateRegistrationInfo(v, info); err != nil {
			return err
		}
	}

	return s.validateAttributes(v, s.typeOf(v), entry.Attributes, false)
}

// typeOf returns the catalog descriptor of a variable's static type, falling
// back to a Go-type lookup for builtins.
func (s *state) typeOf(v *variable) *catalog.Type {
	if v.typ != nil {
		return v.typ
	}
	if v.goType != nil {
		if t, ok := s.d.catalog.ByGoType(v.goType); ok {
			return t
		}
	}
	return nil
}

// validateAttributes resolves each name:value attribute into a property or
// constructor argument against typ, type-checks property values, recurses
// into inline objects, and validates interrupt attributes. inObject rejects
// the attribute kinds inline objects cannot carry.
func (s *state) validateAttributes(v *variable, typ *catalog.Type, attrs []ast.Attribute, inObject bool) *report.Error {
	seenNames := make(map[string]bool)
	initSeen := false

	for _, attr := range attrs {
		switch a := attr.(type) {
		case *ast.ConstructorOrPropertyAttribute:
			if seenNames[a.Name] {
				return s.fail(report.PropertyOrCtorNameUsedMoreThanOnce, a.NameRange,
					"'%s' is used more than once", a.Name)
			}
			seenNames[a.Name] = true
			if err := s.validateCtorOrPropertyAttribute(typ, a); err != nil {
				return err
			}
		case *ast.InitAttribute:
			if initSeen {
				return s.fail(report.MoreThanOneInitAttribute, a.Range,
					"more than one init attribute in a single entry")
			}
			initSeen = true
		case *ast.IrqAttribute:
			if inObject {
				return s.fail(report.SyntaxError, a.Range,
					"interrupt attributes are not allowed inside inline objects")
			}
			if err := s.validateIrqAttribute(v, typ, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *state) validateCtorOrPropertyAttribute(typ *catalog.Type, a *ast.ConstructorOrPropertyAttribute) *report.Error {
	var prop *catalog.Property
	if typ != nil {
		prop, _ = typ.Property(a.Name)
	}
	isProp := prop != nil
	s.isProperty[a] = isProp

	if a.IsNone() {
		return nil
	}

	if isProp {
		if prop.ReadOnly {
			return s.fail(report.PropertyNotWritable, a.NameRange,
				"property '%s' of %s is not writable", a.Name, typ.Name)
		}
		return s.checkAssignable(a.Value, prop.Type, "property '"+a.Name+"'")
	}

	// Constructor argument: only sanity-check now, overload resolution picks
	// it up after the merge.
	return s.sanityCheckValue(a.Value)
}

// checkAssignable type-checks a value against a target type without
// materializing it.
func (s *state) checkAssignable(value ast.Value, target reflect.Type, what string) *report.Error {
	switch val := value.(type) {
	case *ast.ReferenceValue:
		ref, ok := s.store.find(val)
		if !ok {
			return s.fail(report.MissingReference, val.Range,
				"reference to unknown variable '%s'", val.Name)
		}
		if !ref.goType.AssignableTo(target) {
			return s.fail(report.TypeMismatch, val.Range,
				"%s expects %s, but '%s' is %s", what, target, val.Name, ref.staticType())
		}
		return nil
	case *ast.ObjectValue:
		objType, err := s.validateObjectValue(val)
		if err != nil {
			return err
		}
		if !objType.GoType.AssignableTo(target) {
			return s.fail(report.TypeMismatch, val.Range,
				"%s expects %s, but the inline object is %s", what, target, objType.Name)
		}
		return nil
	}

	res := s.convertSimple(value, target)
	switch {
	case res.ok:
		return nil
	case res.enumMismatch:
		return s.fail(report.EnumMismatch, value.Rng(), "%s: %s", what, res.reason)
	default:
		return s.fail(report.TypeMismatch, value.Rng(), "%s: %s", what, res.reason)
	}
}

// sanityCheckValue checks only what can be checked without a target type:
// references resolve and inline objects validate.
func (s *state) sanityCheckValue(value ast.Value) *report.Error {
	switch val := value.(type) {
	case *ast.ReferenceValue:
		if _, ok := s.store.find(val); !ok {
			return s.fail(report.MissingReference, val.Range,
				"reference to unknown variable '%s'", val.Name)
		}
	case *ast.ObjectValue:
		if _, err := s.validateObjectValue(val); err != nil {
			return err
		}
	}
	return nil
}

// validateObjectValue resolves the inline object's type and validates its
// attribute list the same way an entry's is.
func (s *state) validateObjectValue(obj *ast.ObjectValue) (*catalog.Type, *report.Error) {
	if typ, ok := s.objectType[obj]; ok {
		return typ, nil
	}
	typ, ok := s.d.catalog.Resolve(obj.TypeName.Name)
	if !ok {
		return nil, s.fail(report.TypeNotResolved, obj.TypeName.Range,
			"could not resolve type '%s'", obj.TypeName.Name)
	}
	s.objectType[obj] = typ
	if err := s.validateAttributes(nil, typ, obj.Attributes, true); err != nil {
		return nil, err
	}
	return typ, nil
}

// validatePostMerge picks constructors for every creating merged entry and
// every inline object, rejects constructor arguments on entries that never
// create, and validates init sections with the host handler.
func (s *state) validatePostMerge() *report.Error {
	for _, me := range s.merged {
		if err := s.validateMergedEntry(me); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) validateMergedEntry(me *mergedEntry) *report.Error {
	creating := me.entry.IsCreating() && !me.variable.builtin

	var ctorAttrs []*ast.ConstructorOrPropertyAttribute
	for _, attr := range me.entry.Attributes {
		a, ok := attr.(*ast.ConstructorOrPropertyAttribute)
		if !ok || s.isProperty[a] {
			continue
		}
		if !creating {
			if looksLikeCtorParam(s.typeOf(me.variable), a.Name) {
				return s.fail(report.CtorAttributesInNonCreatingEntry, a.NameRange,
					"constructor argument '%s' on an entry that does not create '%s'", a.Name, me.variable.name)
			}
			return s.fail(report.PropertyDoesNotExist, a.NameRange,
				"'%s' has no settable property '%s'", me.variable.staticType(), a.Name)
		}
		ctorAttrs = append(ctorAttrs, a)
	}

	if creating {
		sel, err := s.selectCtor(me.variable.typ, ctorAttrs, me.entry.Range)
		if err != nil {
			return err
		}
		s.entryCtor[me.entry] = sel
	}

	// Inline objects anywhere under this entry get their constructors now.
	for _, attr := range me.entry.Attributes {
		if a, ok := attr.(*ast.ConstructorOrPropertyAttribute); ok && !a.IsNone() {
			if err := s.selectObjectCtors(a.Value); err != nil {
				return err
			}
		}
	}
	for _, info := range me.entry.RegistrationInfos {
		if info.Point != nil {
			if err := s.selectObjectCtors(info.Point); err != nil {
				return err
			}
		}
	}

	if err := s.checkIrqOverlap(me); err != nil {
		return err
	}

	if len(me.initLines) > 0 && s.d.initHandler != nil {
		if err := s.d.initHandler.Validate(me.initLines); err != nil {
			return s.fail(report.InitSectionValidationError, me.initAttributeRange(),
				"init section of '%s' is invalid: %v", me.variable.name, err)
		}
	}
	return nil
}

// looksLikeCtorParam reports whether any overload of typ takes a parameter
// with the given name; used only to pick the right diagnostic.
func looksLikeCtorParam(typ *catalog.Type, name string) bool {
	if typ == nil {
		return true
	}
	for _, ctor := range typ.Ctors {
		for _, p := range ctor.Params {
			if p.Name == name {
				return true
			}
		}
	}
	return false
}

// selectObjectCtors walks a value tree and runs constructor selection for
// every inline object in it.
func (s *state) selectObjectCtors(value ast.Value) *report.Error {
	obj, ok := value.(*ast.ObjectValue)
	if !ok {
		return nil
	}
	if _, done := s.objectCtor[obj]; done {
		return nil
	}
	typ := s.objectType[obj]
	if typ == nil {
		return report.Internal("inline object at %s was not validated", obj.Range)
	}

	var ctorAttrs []*ast.ConstructorOrPropertyAttribute
	for _, attr := range obj.Attributes {
		if a, ok := attr.(*ast.ConstructorOrPropertyAttribute); ok && !s.isProperty[a] {
			ctorAttrs = append(ctorAttrs, a)
		}
	}
	sel, err := s.selectCtor(typ, ctorAttrs, obj.Range)
	if err != nil {
		return err
	}
	s.objectCtor[obj] = sel

	if s.d.initHandler != nil {
		if lines := initLinesOf(obj.Attributes); len(lines) > 0 {
			if err := s.d.initHandler.Validate(lines); err != nil {
				return s.fail(report.InitSectionValidationError, obj.Range,
					"init section of inline %s is invalid: %v", typ.Name, err)
			}
		}
	}

	for _, attr := range obj.Attributes {
		if a, ok := attr.(*ast.ConstructorOrPropertyAttribute); ok && !a.IsNone() {
			if err := s.selectObjectCtors(a.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
