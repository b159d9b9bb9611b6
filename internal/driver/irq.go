package driver

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/report"
)

// irqHookup is one flattened interrupt connection: exactly one source end
// and one destination end.
type irqHookup struct {
	source  *ast.IrqEnd
	destVar *variable

	// localIndex is -1 when no local receiver is selected.
	localIndex int
	destNumber int

	destRange hcl.Range
}

// irqDestinationKey identifies one destination pin for fan-in counting.
type irqDestinationKey struct {
	destName   string
	localIndex int
	destNumber int
}

// combinerConnection is a fan-in combiner plus the bookkeeping of its output
// hookup.
type combinerConnection struct {
	combiner        *machine.Combiner
	outputConnected bool
}

// validateIrqAttribute resolves the attribute's source ends (imputing the
// default GPIO property when omitted), checks every destination, verifies
// arity, and stores the flattened hookups for the build phase.
func (s *state) validateIrqAttribute(v *variable, typ *catalog.Type, a *ast.IrqAttribute) *report.Error {
	sources := a.Sources
	if sources == nil {
		imputed, err := s.imputeIrqSource(v, typ, a)
		if err != nil {
			return err
		}
		sources = []*ast.IrqEnd{imputed}
	}

	for _, src := range sources {
		if err := s.checkIrqSource(v, typ, src); err != nil {
			return err
		}
	}

	var hookups []*irqHookup
	for _, dest := range a.Destinations {
		if dest.None {
			continue
		}
		destVar, ok := s.store.find(dest.Peripheral)
		if !ok {
			return s.fail(report.IrqDestinationDoesNotExist, dest.Peripheral.Range,
				"interrupt destination '%s' does not exist", dest.Peripheral.Name)
		}
		if !destVar.goType.Implements(catalog.GPIOReceiverIface) {
			return s.fail(report.IrqDestinationIsNotIrqReceiver, dest.Peripheral.Range,
				"'%s' is %s, which does not receive interrupts", dest.Peripheral.Name, destVar.staticType())
		}
		localIndex := -1
		if dest.LocalIndex != nil {
			if !destVar.goType.Implements(catalog.LocalGPIOReceiverIface) {
				return s.fail(report.NotLocalGpioReceiver, dest.Peripheral.Range,
					"'%s' has no local interrupt receivers", dest.Peripheral.Name)
			}
			localIndex = *dest.LocalIndex
		}
		if len(dest.Ends) != len(sources) {
			return s.fail(report.WrongIrqArity, dest.Range,
				"%d interrupt source(s) wired to %d destination end(s)", len(sources), len(dest.Ends))
		}
		for i, src := range sources {
			hookups = append(hookups, &irqHookup{
				source:     src,
				destVar:    destVar,
				localIndex: localIndex,
				destNumber: dest.Ends[i].Number,
				destRange:  dest.Ends[i].Range,
			})
		}
	}

	s.flattenedIrqs[a] = hookups
	return nil
}

// imputeIrqSource finds the GPIO property an attribute with omitted sources
// refers to: the one marked as the default interrupt, or the only one.
func (s *state) imputeIrqSource(v *variable, typ *catalog.Type, a *ast.IrqAttribute) (*ast.IrqEnd, *report.Error) {
	var gpios []*catalog.Property
	if typ != nil {
		gpios = typ.GPIOProperties()
	}
	if len(gpios) == 0 {
		return nil, s.fail(report.IrqSourceDoesNotExist, a.Range,
			"'%s' has no GPIO output to use as an interrupt source", v.name)
	}

	var defaults []*catalog.Property
	for _, p := range gpios {
		if p.DefaultInterrupt {
			defaults = append(defaults, p)
		}
	}
	var chosen *catalog.Property
	switch {
	case len(defaults) == 1:
		chosen = defaults[0]
	case len(defaults) > 1 || len(gpios) > 1:
		return nil, s.fail(report.AmbiguousDefaultIrqSource, a.Range,
			"'%s' has more than one possible default interrupt source", v.name)
	default:
		chosen = gpios[0]
	}
	return &ast.IrqEnd{PropertyName: chosen.Name, Range: a.Range}, nil
}

func (s *state) checkIrqSource(v *variable, typ *catalog.Type, src *ast.IrqEnd) *report.Error {
	if src.IsNamed() {
		var prop *catalog.Property
		if typ != nil {
			prop, _ = typ.Property(src.PropertyName)
		}
		if prop == nil || !prop.IsGPIO() {
			return s.fail(report.IrqSourceDoesNotExist, src.Range,
				"'%s' is not a GPIO property of %s", src.PropertyName, v.staticType())
		}
		return nil
	}
	if !v.goType.Implements(catalog.NumberedGPIOOutputIface) {
		return s.fail(report.IrqSourceIsNotNumberedGpioOutput, src.Range,
			"%s has no numbered GPIO outputs", v.staticType())
	}
	return nil
}

// checkIrqOverlap verifies that across all IRQ attributes of one merged
// entry no source end drives two connections and no destination pin is fed
// twice. Fan-in from different entries stays legal; it is what the combiner
// exists for.
func (s *state) checkIrqOverlap(me *mergedEntry) *report.Error {
	type sourceKey struct {
		named  bool
		name   string
		number int
	}
	seenSources := make(map[sourceKey]bool)
	seenDests := make(map[irqDestinationKey]bool)

	for _, attr := range me.entry.Attributes {
		a, ok := attr.(*ast.IrqAttribute)
		if !ok {
			continue
		}
		// One attribute legitimately reuses its sources across several
		// destinations; dedupe within the attribute before checking.
		attrSources := make(map[sourceKey]bool)
		for _, h := range s.flattenedIrqs[a] {
			sk := sourceKey{named: h.source.IsNamed(), name: h.source.PropertyName, number: h.source.Number}
			if !attrSources[sk] {
				attrSources[sk] = true
				if seenSources[sk] {
					return s.fail(report.IrqSourceUsedMoreThanOnce, h.source.Range,
						"interrupt source used more than once in entry for '%s'", me.variable.name)
				}
				seenSources[sk] = true
			}

			dk := irqDestinationKey{destName: h.destVar.name, localIndex: h.localIndex, destNumber: h.destNumber}
			if seenDests[dk] {
				return s.fail(report.IrqDestinationUsedMoreThanOnce, h.destRange,
					"interrupt destination used more than once in entry for '%s'", me.variable.name)
			}
			seenDests[dk] = true
		}
	}
	return nil
}
