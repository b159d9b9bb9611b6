package driver

import (
	"fmt"
	"strings"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/report"
)

// depEdge records that one entry depends on another, keeping the reference
// that established the dependency for cycle diagnostics.
type depEdge struct {
	to  *mergedEntry
	ref *ast.ReferenceValue
}

// depGraph maps each merged entry to its dependencies in discovery order.
type depGraph map[*mergedEntry][]depEdge

// creationOrder sorts the merged entries so that every entry follows the
// entries its constructor arguments reference. Only constructor attributes
// produce edges: nested inline objects are walked for references, but
// property values never delay creation.
func (s *state) creationOrder() ([]*mergedEntry, *report.Error) {
	graph := make(depGraph)
	for _, me := range s.merged {
		var edges []depEdge
		for _, attr := range me.entry.Attributes {
			a, ok := attr.(*ast.ConstructorOrPropertyAttribute)
			if !ok || s.isProperty[a] || a.IsNone() {
				continue
			}
			edges = s.collectValueRefs(a.Value, edges)
		}
		graph[me] = edges
	}
	return s.topoSort(graph, report.CreationOrderCycle, "creation")
}

// registrationOrder sorts the merged entries by references inside
// registration-point values, property references playing no part.
func (s *state) registrationOrder() ([]*mergedEntry, *report.Error) {
	graph := make(depGraph)
	for _, me := range s.merged {
		var edges []depEdge
		for _, info := range me.entry.RegistrationInfos {
			if info.Point != nil {
				edges = s.collectValueRefs(info.Point, edges)
			}
		}
		graph[me] = edges
	}
	return s.topoSort(graph, report.RegistrationOrderCycle, "registration")
}

// collectValueRefs walks a value for references, descending into inline
// objects' constructor attributes only; property values never create edges.
func (s *state) collectValueRefs(value ast.Value, edges []depEdge) []depEdge {
	switch val := value.(type) {
	case *ast.ReferenceValue:
		if target, ok := s.entryOf(val); ok {
			edges = append(edges, depEdge{to: target, ref: val})
		}
	case *ast.ObjectValue:
		for _, attr := range val.Attributes {
			if a, ok := attr.(*ast.ConstructorOrPropertyAttribute); ok && !s.isProperty[a] && !a.IsNone() {
				edges = s.collectValueRefs(a.Value, edges)
			}
		}
	}
	return edges
}

// entryOf resolves a reference to the merged entry of a user variable;
// builtins never need ordering.
func (s *state) entryOf(ref *ast.ReferenceValue) (*mergedEntry, bool) {
	v, ok := s.store.find(ref)
	if !ok || v.builtin {
		return nil, false
	}
	for _, me := range s.merged {
		if me.variable == v {
			return me, true
		}
	}
	return nil, false
}

// topoSort runs a stable Kahn sort over the graph, preserving declaration
// order among independent entries. On a cycle it reconstructs the offending
// edge sequence for the diagnostic.
func (s *state) topoSort(graph depGraph, cycleCode report.Code, what string) ([]*mergedEntry, *report.Error) {
	indeg := make(map[*mergedEntry]int)
	dependents := make(map[*mergedEntry][]*mergedEntry)
	// Self-edges count too: a one-node cycle must surface like any other.
	for me, edges := range graph {
		for _, e := range edges {
			indeg[me]++
			dependents[e.to] = append(dependents[e.to], me)
		}
	}

	done := make(map[*mergedEntry]bool)
	var order []*mergedEntry
	for len(order) < len(s.merged) {
		progressed := false
		for _, me := range s.merged {
			if done[me] || indeg[me] > 0 {
				continue
			}
			done[me] = true
			order = append(order, me)
			for _, dep := range dependents[me] {
				indeg[dep]--
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}

	if len(order) == len(s.merged) {
		return order, nil
	}

	cycle := findCycle(graph, done)
	if len(cycle) == 0 {
		return nil, report.Internal("%s sort stalled without a reconstructible cycle", what)
	}
	return nil, s.fail(cycleCode, cycle[0].from.entry.VariableRange,
		"the %s order of entries contains a cycle:\n%s", what, s.renderCycle(cycle))
}

// cycleStep is one edge of a reported cycle, with the entry it starts from.
type cycleStep struct {
	from *mergedEntry
	edge depEdge
}

// findCycle locates one cycle among the unsorted entries via DFS, returning
// its edge sequence in traversal order.
func findCycle(graph depGraph, done map[*mergedEntry]bool) []cycleStep {
	visiting := make(map[*mergedEntry]bool)
	var stack []cycleStep

	var visit func(me *mergedEntry) []cycleStep
	visit = func(me *mergedEntry) []cycleStep {
		visiting[me] = true
		for _, e := range graph[me] {
			if done[e.to] {
				continue
			}
			if visiting[e.to] {
				cycle := append(append([]cycleStep{}, stack...), cycleStep{from: me, edge: e})
				for i := range cycle {
					if cycle[i].from == e.to {
						return cycle[i:]
					}
				}
				return cycle
			}
			stack = append(stack, cycleStep{from: me, edge: e})
			if found := visit(e.to); found != nil {
				return found
			}
			stack = stack[:len(stack)-1]
		}
		visiting[me] = false
		return nil
	}

	for me := range graph {
		if !done[me] && !visiting[me] {
			if found := visit(me); found != nil {
				return found
			}
		}
	}
	// Unreachable when the sort reported a cycle.
	return []cycleStep{}
}

// renderCycle prints the cycle as a ladder: every step names the referencing
// entry, the reference that created the edge, and both positions.
func (s *state) renderCycle(cycle []cycleStep) string {
	var sb strings.Builder
	for _, step := range cycle {
		fmt.Fprintf(&sb, "  '%s' (at %s) depends on '%s' via '%s' (at %s)\n",
			step.from.variable.name, step.from.entry.VariableRange,
			step.edge.to.variable.name, step.edge.ref.Name, step.edge.ref.Range)
	}
	return sb.String()
}
