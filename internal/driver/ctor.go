package driver

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/report"
)

// selectCtor picks the one public constructor overload of typ satisfied by
// the given constructor attributes. An overload is accepted when every
// formal parameter is fed by a same-named attribute, a declared default, or
// the ambient machine instance, and no attribute is left unconsumed. Every
// rejection is logged into a selection report that accompanies the NoCtor
// and AmbiguousCtor diagnostics.
func (s *state) selectCtor(typ *catalog.Type, attrs []*ast.ConstructorOrPropertyAttribute, at hcl.Range) (*ctorSelection, *report.Error) {
	// Cancelled attributes are invisible to overload resolution.
	live := make([]*ast.ConstructorOrPropertyAttribute, 0, len(attrs))
	for _, a := range attrs {
		if !a.IsNone() {
			live = append(live, a)
		}
	}

	var reportBuf strings.Builder
	var accepted []*ctorSelection

	for _, ctor := range typ.Ctors {
		sel, reason := s.tryCtor(ctor, live)
		if sel != nil {
			accepted = append(accepted, sel)
			continue
		}
		fmt.Fprintf(&reportBuf, "  %s%s rejected: %s\n", typ.LastName(), ctor.Signature(), reason)
	}

	switch len(accepted) {
	case 1:
		return accepted[0], nil
	case 0:
		return nil, s.fail(report.NoCtor, at,
			"no constructor of %s accepts the given attributes\n%s", typ.Name, reportBuf.String())
	default:
		var sigs []string
		for _, sel := range accepted {
			sigs = append(sigs, "  "+typ.LastName()+sel.ctor.Signature())
		}
		return nil, s.fail(report.AmbiguousCtor, at,
			"ambiguous constructor choice for %s, candidates:\n%s\n%s",
			typ.Name, strings.Join(sigs, "\n"), reportBuf.String())
	}
}

// tryCtor checks one overload. It returns the selection on success or the
// rejection reason.
func (s *state) tryCtor(ctor *catalog.Ctor, attrs []*ast.ConstructorOrPropertyAttribute) (*ctorSelection, string) {
	byName := make(map[string]*ast.ConstructorOrPropertyAttribute, len(attrs))
	for _, a := range attrs {
		byName[a.Name] = a
	}

	sel := &ctorSelection{ctor: ctor, args: make([]*ast.ConstructorOrPropertyAttribute, len(ctor.Params))}
	consumed := make(map[string]bool, len(attrs))

	for i, param := range ctor.Params {
		attr, given := byName[param.Name]
		if !given {
			if param.HasDefault || param.Type == catalog.MachineType {
				continue
			}
			return nil, fmt.Sprintf("no value for parameter '%s'", param.Name)
		}
		consumed[param.Name] = true
		sel.args[i] = attr

		if reason := s.checkCtorArg(attr, param); reason != "" {
			return nil, reason
		}
	}

	for _, a := range attrs {
		if !consumed[a.Name] {
			return nil, fmt.Sprintf("attribute '%s' is not a parameter of this constructor", a.Name)
		}
	}
	return sel, ""
}

// checkCtorArg verifies one attribute against one formal parameter,
// returning an empty string on success.
func (s *state) checkCtorArg(attr *ast.ConstructorOrPropertyAttribute, param catalog.Param) string {
	if isSimpleValue(attr.Value) {
		res := s.convertSimple(attr.Value, param.Type)
		if !res.ok {
			return fmt.Sprintf("parameter '%s': %s", param.Name, res.reason)
		}
		return ""
	}

	switch val := attr.Value.(type) {
	case *ast.ReferenceValue:
		ref, ok := s.store.find(val)
		if !ok {
			// Caught earlier by the sanity check; be safe anyway.
			return fmt.Sprintf("parameter '%s': unknown variable '%s'", param.Name, val.Name)
		}
		if !ref.goType.AssignableTo(param.Type) {
			return fmt.Sprintf("parameter '%s' expects %s, but '%s' is %s",
				param.Name, param.Type, val.Name, ref.staticType())
		}
	case *ast.ObjectValue:
		objType := s.objectType[val]
		if objType == nil {
			return fmt.Sprintf("parameter '%s': inline object was not resolved", param.Name)
		}
		if !objType.GoType.AssignableTo(param.Type) {
			return fmt.Sprintf("parameter '%s' expects %s, but the inline object is %s",
				param.Name, param.Type, objType.Name)
		}
	default:
		return fmt.Sprintf("parameter '%s': unsupported value kind", param.Name)
	}
	return ""
}
