package driver

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/report"
)

// mergeEntries folds each variable's contributing entries into one logical
// entry: attributes concatenated with last-wins for like-named
// constructor/property attributes (`x: none` deleting the chain), the last
// non-nil registration info chain, the last alias, and init sections
// resolved by their replace/add flag.
func (s *state) mergeEntries() *report.Error {
	for _, v := range s.store.variables() {
		if len(v.entries) == 0 {
			if !v.builtin {
				// A user variable with no entries should not exist; keep
				// going, the original driver treats this leniently.
				s.log.Debug("variable has no contributing entries", "variable", v.name)
			}
			continue
		}
		if !v.builtin && !v.entries[0].IsCreating() {
			s.log.Debug("first contributing entry does not create", "variable", v.name)
		}

		first := v.entries[0]
		merged := &ast.Entry{
			VariableName:  v.name,
			VariableRange: first.VariableRange,
			Type:          first.Type,
			Local:         v.local,
			Range:         first.Range,
		}
		me := &mergedEntry{variable: v, entry: merged}

		for _, entry := range v.entries {
			mergeAttributes(me, entry)
			if entry.RegistrationInfos != nil {
				merged.RegistrationInfos = entry.RegistrationInfos
				merged.ExplicitNone = entry.ExplicitNone
			}
			if entry.Alias != nil {
				merged.Alias = entry.Alias
			}
		}

		s.merged = append(s.merged, me)
	}
	return nil
}

func mergeAttributes(me *mergedEntry, entry *ast.Entry) {
	// IRQ attributes only replace like-sourced ones contributed by earlier
	// entries; duplicates within one entry are left for the overlap check.
	boundary := len(me.entry.Attributes)
	for _, attr := range entry.Attributes {
		switch a := attr.(type) {
		case *ast.ConstructorOrPropertyAttribute:
			boundary -= dropCtorOrProperty(me.entry, a.Name)
			if !a.IsNone() {
				me.entry.Attributes = append(me.entry.Attributes, a)
			}
		case *ast.IrqAttribute:
			boundary -= dropOverlappingIrqs(me.entry, a, boundary)
			if !allDestinationsNone(a) {
				me.entry.Attributes = append(me.entry.Attributes, a)
			}
		case *ast.InitAttribute:
			if !a.Add {
				me.initLines = nil
			}
			me.initLines = append(me.initLines, a.Lines...)
			me.initRange = a.Range
		}
	}
}

func dropCtorOrProperty(entry *ast.Entry, name string) int {
	removed := 0
	kept := entry.Attributes[:0]
	for _, attr := range entry.Attributes {
		if a, ok := attr.(*ast.ConstructorOrPropertyAttribute); ok && a.Name == name {
			removed++
			continue
		}
		kept = append(kept, attr)
	}
	entry.Attributes = kept
	return removed
}

// dropOverlappingIrqs removes IRQ attributes among the first boundary ones
// that share a source end with the incoming attribute, so a later wiring (or
// `-> none`) replaces an earlier entry's. It returns how many were removed.
func dropOverlappingIrqs(entry *ast.Entry, incoming *ast.IrqAttribute, boundary int) int {
	removed := 0
	kept := entry.Attributes[:0]
	for i, attr := range entry.Attributes {
		if a, ok := attr.(*ast.IrqAttribute); ok && i < boundary && irqSourcesOverlap(a, incoming) {
			removed++
			continue
		}
		kept = append(kept, attr)
	}
	entry.Attributes = kept
	return removed
}

func irqSourcesOverlap(a, b *ast.IrqAttribute) bool {
	// Attributes with imputed (omitted) sources overlap each other: they
	// address the same default line.
	if a.Sources == nil && b.Sources == nil {
		return true
	}
	for _, sa := range a.Sources {
		for _, sb := range b.Sources {
			if sa.IsNamed() == sb.IsNamed() &&
				sa.PropertyName == sb.PropertyName && sa.Number == sb.Number {
				return true
			}
		}
	}
	return false
}

func allDestinationsNone(a *ast.IrqAttribute) bool {
	for _, dest := range a.Destinations {
		if !dest.None {
			return false
		}
	}
	return len(a.Destinations) > 0
}

// initAttributeRange is a helper for diagnostics on merged init sections.
func (me *mergedEntry) initAttributeRange() hcl.Range {
	if me.initRange.Filename != "" {
		return me.initRange
	}
	return me.entry.Range
}
