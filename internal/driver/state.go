package driver

import (
	"log/slog"
	"reflect"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/report"
)

// state is the scratch of one Process call. It is cleared unconditionally
// when the call returns; only side effects on the machine survive.
type state struct {
	d   *Driver
	log *slog.Logger

	// descriptions in processing order, included files first.
	descriptions     []*ast.Description
	sources          map[string]string
	usingsInProgress []string

	store  *variableStore
	merged []*mergedEntry

	// Validation results, keyed by AST node identity. Merged entries reuse
	// the original attribute nodes, so these survive merging.
	isProperty    map[*ast.ConstructorOrPropertyAttribute]bool
	regResolution map[*ast.RegistrationInfo]*regResolution
	entryCtor     map[*ast.Entry]*ctorSelection
	objectCtor    map[*ast.ObjectValue]*ctorSelection
	objectType    map[*ast.ObjectValue]*catalog.Type
	flattenedIrqs map[*ast.IrqAttribute][]*irqHookup

	// Build-phase scratch.
	combiners   map[irqDestinationKey]*combinerConnection
	updateQueue []*objectValueJob
	initQueue   []*objectValueJob
}

func newState(d *Driver, log *slog.Logger) *state {
	return &state{
		d:             d,
		log:           log,
		sources:       make(map[string]string),
		store:         newVariableStore(),
		isProperty:    make(map[*ast.ConstructorOrPropertyAttribute]bool),
		regResolution: make(map[*ast.RegistrationInfo]*regResolution),
		entryCtor:     make(map[*ast.Entry]*ctorSelection),
		objectCtor:    make(map[*ast.ObjectValue]*ctorSelection),
		objectType:    make(map[*ast.ObjectValue]*catalog.Type),
		flattenedIrqs: make(map[*ast.IrqAttribute][]*irqHookup),
		combiners:     make(map[irqDestinationKey]*combinerConnection),
	}
}

func (s *state) clear() {
	s.descriptions = nil
	s.sources = nil
	s.usingsInProgress = nil
	s.store = nil
	s.merged = nil
	s.isProperty = nil
	s.regResolution = nil
	s.entryCtor = nil
	s.objectCtor = nil
	s.objectType = nil
	s.flattenedIrqs = nil
	s.combiners = nil
	s.updateQueue = nil
	s.initQueue = nil
}

// fail builds a diagnostic anchored to rng, quoting the offending line from
// the right source file.
func (s *state) fail(code report.Code, rng hcl.Range, format string, args ...any) *report.Error {
	return report.New(code, rng, s.sources[rng.Filename], false, format, args...)
}

// failShort is fail with a single-caret underline.
func (s *state) failShort(code report.Code, rng hcl.Range, format string, args ...any) *report.Error {
	return report.New(code, rng, s.sources[rng.Filename], true, format, args...)
}

// mergedEntry is the single logical entry of one variable after merging.
type mergedEntry struct {
	variable *variable
	entry    *ast.Entry

	// initLines is the concatenation of the variable's init sections after
	// replace/add resolution; initRange anchors diagnostics.
	initLines []string
	initRange hcl.Range
}

// ctorSelection is the outcome of constructor overload resolution: the
// chosen overload and, per parameter, the attribute feeding it (nil when the
// default or the ambient machine fills it).
type ctorSelection struct {
	ctor *catalog.Ctor
	args []*ast.ConstructorOrPropertyAttribute
}

// regResolution is what pre-merge validation decided for one registration
// info.
type regResolution struct {
	spec      catalog.RegistrationSpec
	pointType *catalog.Type

	// Exactly one of the following shapes applies.
	useNull   bool
	pointCtor *catalog.Ctor // simple-value form: first arg converted below
	firstArg  reflect.Value
	pointRef  *ast.ReferenceValue
	pointObj  *ast.ObjectValue
}

// objectValueJob defers property setting and init execution for an inline
// object until its construction phase has finished.
type objectValueJob struct {
	object any
	typ    *catalog.Type
	value  *ast.ObjectValue
}
