package driver

import (
	"reflect"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/report"
)

var (
	nullRegistrationType = reflect.TypeOf(machine.NullRegistrationPoint)
	busRangeType         = reflect.TypeOf((*machine.BusRangeRegistration)(nil))
	busPointType         = reflect.TypeOf((*machine.BusPointRegistration)(nil))
)

func pointIsBusKind(t reflect.Type) bool {
	return busRangeType.AssignableTo(t) || busPointType.AssignableTo(t)
}

// validateRegistrationInfo resolves the register reference, finds the
// register interfaces usable for this peripheral, validates the
// registration-point value against their point types, and records the
// decision for the build phase.
func (s *state) validateRegistrationInfo(v *variable, info *ast.RegistrationInfo) *report.Error {
	regVar, ok := s.store.find(info.Register)
	if !ok {
		return s.fail(report.MissingReference, info.Register.Range,
			"reference to unknown register '%s'", info.Register.Name)
	}

	regType := s.typeOf(regVar)
	var specs []catalog.RegistrationSpec
	if regType != nil {
		for _, spec := range regType.RegistrationSpecs {
			if spec.AcceptsPeripheral(v.goType) {
				specs = append(specs, spec)
			}
		}
	}
	if len(specs) == 0 {
		return s.fail(report.NoUsableRegisterInterface, info.Register.Range,
			"'%s' has no register interface accepting %s", info.Register.Name, v.staticType())
	}

	res := &regResolution{}

	switch point := info.Point.(type) {
	case nil:
		var nullable []catalog.RegistrationSpec
		busCandidate := false
		for _, spec := range specs {
			if nullRegistrationType.AssignableTo(spec.Point) {
				nullable = append(nullable, spec)
			}
			if pointIsBusKind(spec.Point) {
				busCandidate = true
			}
		}
		busPeripheral := v.goType.Implements(catalog.BusPeripheralIface)
		if len(nullable) == 0 || (busPeripheral && busCandidate) {
			return s.fail(report.NoCtorForRegistrationPoint, info.Range,
				"registration of '%s' at '%s' needs an explicit registration point",
				v.name, info.Register.Name)
		}
		spec, err := s.chooseSpec(nullable, info)
		if err != nil {
			return err
		}
		res.spec = spec
		res.useNull = true

	case *ast.ReferenceValue:
		refVar, ok := s.store.find(point)
		if !ok {
			return s.fail(report.MissingReference, point.Range,
				"reference to unknown variable '%s'", point.Name)
		}
		matching := specsAcceptingPoint(specs, refVar.goType)
		if len(matching) == 0 {
			return s.fail(report.TypeMismatch, point.Range,
				"'%s' is %s, which is not a usable registration point for '%s'",
				point.Name, refVar.staticType(), v.name)
		}
		spec, err := s.chooseSpec(matching, info)
		if err != nil {
			return err
		}
		res.spec = spec
		res.pointRef = point

	case *ast.ObjectValue:
		objType, err := s.validateObjectValue(point)
		if err != nil {
			return err
		}
		matching := specsAcceptingPoint(specs, objType.GoType)
		if len(matching) == 0 {
			return s.fail(report.TypeMismatch, point.Range,
				"%s is not a usable registration point for '%s'", objType.Name, v.name)
		}
		spec, cerr := s.chooseSpec(matching, info)
		if cerr != nil {
			return cerr
		}
		res.spec = spec
		res.pointObj = point

	default:
		// A simple value: find a point constructor whose first parameter
		// accepts it and whose remaining parameters are optional.
		type candidate struct {
			spec     catalog.RegistrationSpec
			typ      *catalog.Type
			ctor     *catalog.Ctor
			firstArg reflect.Value
		}
		var candidates []candidate
		for _, spec := range specs {
			pointType, ok := s.d.catalog.ByGoType(spec.Point)
			if !ok {
				continue
			}
			for _, ctor := range pointType.Ctors {
				if len(ctor.Params) == 0 {
					continue
				}
				conv := s.convertSimple(info.Point, ctor.Params[0].Type)
				if !conv.ok || !trailingParamsOptional(ctor) {
					continue
				}
				candidates = append(candidates, candidate{spec: spec, typ: pointType, ctor: ctor, firstArg: conv.value})
			}
		}
		if len(candidates) == 0 {
			return s.fail(report.NoCtorForRegistrationPoint, info.Point.Rng(),
				"no registration point for '%s' at '%s' accepts this value",
				v.name, info.Register.Name)
		}
		var candidateSpecs []catalog.RegistrationSpec
		for _, c := range candidates {
			candidateSpecs = append(candidateSpecs, c.spec)
		}
		spec, err := s.chooseSpec(candidateSpecs, info)
		if err != nil {
			return err
		}
		var chosen []candidate
		for _, c := range candidates {
			if c.spec == spec {
				chosen = append(chosen, c)
			}
		}
		if len(chosen) > 1 {
			return s.fail(report.AmbiguousCtorForRegistrationPoint, info.Point.Rng(),
				"more than one constructor of %s accepts this value", chosen[0].typ.Name)
		}
		res.spec = spec
		res.pointType = chosen[0].typ
		res.pointCtor = chosen[0].ctor
		res.firstArg = chosen[0].firstArg
	}

	s.regResolution[info] = res
	return nil
}

func specsAcceptingPoint(specs []catalog.RegistrationSpec, pointGo reflect.Type) []catalog.RegistrationSpec {
	var out []catalog.RegistrationSpec
	for _, spec := range specs {
		if pointGo.AssignableTo(spec.Point) {
			out = append(out, spec)
		}
	}
	return out
}

func trailingParamsOptional(ctor *catalog.Ctor) bool {
	for _, p := range ctor.Params[1:] {
		if !p.HasDefault && p.Type != catalog.MachineType {
			return false
		}
	}
	return true
}

// chooseSpec applies the tie-break rules: prefer the most-derived
// registration-point type, then the most-derived peripheral type.
func (s *state) chooseSpec(specs []catalog.RegistrationSpec, info *ast.RegistrationInfo) (catalog.RegistrationSpec, *report.Error) {
	if len(specs) == 1 {
		return specs[0], nil
	}

	points := uniqueTypes(specs, func(sp catalog.RegistrationSpec) reflect.Type { return sp.Point })
	bestPoint, ok := mostDerived(points)
	if !ok {
		return catalog.RegistrationSpec{}, s.fail(report.AmbiguousRegistrationPointType, info.Range,
			"more than one registration point type is usable here")
	}

	var filtered []catalog.RegistrationSpec
	for _, sp := range specs {
		if sp.Point == bestPoint {
			filtered = append(filtered, sp)
		}
	}
	if len(filtered) == 1 {
		return filtered[0], nil
	}

	periphs := uniqueTypes(filtered, func(sp catalog.RegistrationSpec) reflect.Type { return sp.Peripheral })
	bestPeriph, ok := mostDerived(periphs)
	if !ok {
		return catalog.RegistrationSpec{}, s.fail(report.AmbiguousRegistree, info.Range,
			"more than one register interface accepts this peripheral")
	}
	for _, sp := range filtered {
		if sp.Peripheral == bestPeriph {
			return sp, nil
		}
	}
	return catalog.RegistrationSpec{}, report.Internal("tie-break lost every candidate")
}

func uniqueTypes(specs []catalog.RegistrationSpec, get func(catalog.RegistrationSpec) reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := make(map[reflect.Type]bool)
	for _, sp := range specs {
		t := get(sp)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// mostDerived finds the unique type assignable to every other candidate but
// not vice versa.
func mostDerived(types []reflect.Type) (reflect.Type, bool) {
	if len(types) == 1 {
		return types[0], true
	}
	for _, t := range types {
		dominates := true
		for _, u := range types {
			if t == u {
				continue
			}
			if !t.AssignableTo(u) || u.AssignableTo(t) {
				dominates = false
				break
			}
		}
		if dominates {
			return t, true
		}
	}
	return nil, false
}
