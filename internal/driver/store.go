package driver

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/report"
)

// variable is one named slot of the description: its static type, where it
// was declared, every entry contributing to it, and the value filled in by
// the builder.
type variable struct {
	name string

	// typ is the catalog descriptor for user-declared variables; builtins
	// may lack one. goType is always valid.
	typ    *catalog.Type
	goType reflect.Type

	builtin   bool
	local     bool
	declFile  string
	declRange hcl.Range

	entries []*ast.Entry
	value   any
}

// staticType names the variable's type for diagnostics.
func (v *variable) staticType() string {
	if v.typ != nil {
		return v.typ.Name
	}
	if v.goType != nil {
		return v.goType.String()
	}
	return "<unknown>"
}

// variableStore is the two-layer scoped variable mapping: one shared scope
// merged across files, plus a local scope per file for `local` variables.
// Reference lookup tries the referencing file's local scope first.
type variableStore struct {
	globals map[string]*variable
	locals  map[string]map[string]*variable
	order   []*variable
}

func newVariableStore() *variableStore {
	return &variableStore{
		globals: make(map[string]*variable),
		locals:  make(map[string]map[string]*variable),
	}
}

// registerBuiltin seeds a variable from the host machine. Builtins live in
// the shared scope and cannot be redeclared.
func (s *variableStore) registerBuiltin(name string, value any) {
	v := &variable{
		name:    name,
		goType:  reflect.TypeOf(value),
		builtin: true,
		value:   value,
	}
	s.globals[name] = v
	s.order = append(s.order, v)
}

// declared finds a variable visible to declarations in the given file.
func (s *variableStore) declared(name, file string) (*variable, bool) {
	if locals, ok := s.locals[file]; ok {
		if v, ok := locals[name]; ok {
			return v, true
		}
	}
	v, ok := s.globals[name]
	return v, ok
}

// find resolves a reference written in scope file: the file's local scope
// first, then the shared one. Under an include prefix the prefixed name wins
// over the bare one.
func (s *variableStore) find(ref *ast.ReferenceValue) (*variable, bool) {
	if ref.Prefix != "" {
		if v, ok := s.declared(ref.Prefix+ref.Name, ref.Scope); ok {
			return v, true
		}
	}
	return s.declared(ref.Name, ref.Scope)
}

// declare adds a fresh variable in the right scope.
func (s *variableStore) declare(v *variable) {
	if v.local {
		locals, ok := s.locals[v.declFile]
		if !ok {
			locals = make(map[string]*variable)
			s.locals[v.declFile] = locals
		}
		locals[v.name] = v
	} else {
		s.globals[v.name] = v
	}
	s.order = append(s.order, v)
}

// variables enumerates every variable in declaration order, builtins first.
func (s *variableStore) variables() []*variable {
	return s.order
}

// declareAll walks every description in processing order and populates the
// store: builtins from the machine first, then one variable per first
// creating entry, with updating entries appended to their variable.
func (s *state) declareAll() *report.Error {
	s.store.registerBuiltin(machine.MachineKeyword, s.d.machine)
	for _, np := range s.d.machine.Registered() {
		if np.Name != "" {
			s.store.registerBuiltin(np.Name, np.Peripheral)
		}
	}

	for _, desc := range s.descriptions {
		for _, entry := range desc.Entries {
			if err := s.declareEntry(desc, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *state) declareEntry(desc *ast.Description, entry *ast.Entry) *report.Error {
	if !entry.IsCreating() && len(entry.Attributes) == 0 &&
		entry.RegistrationInfos == nil && entry.Alias == nil {
		return s.fail(report.EmptyEntry, entry.Range,
			"entry for '%s' has no type, attributes or registration info", entry.VariableName)
	}

	existing, exists := s.store.declared(entry.VariableName, desc.FileName)

	if entry.IsCreating() {
		if exists {
			return s.fail(report.VariableAlreadyDeclared, entry.Type.Range,
				"variable '%s' was already declared as %s", entry.VariableName, existing.staticType())
		}
		typ, ok := s.d.catalog.Resolve(entry.Type.Name)
		if !ok {
			return s.fail(report.TypeNotResolved, entry.Type.Range,
				"could not resolve type '%s'", entry.Type.Name)
		}
		v := &variable{
			name:      entry.VariableName,
			typ:       typ,
			goType:    typ.GoType,
			local:     entry.Local,
			declFile:  desc.FileName,
			declRange: entry.VariableRange,
			entries:   []*ast.Entry{entry},
		}
		s.store.declare(v)
		return nil
	}

	if !exists {
		return s.fail(report.TypeNotSpecifiedInFirstVariableUse, entry.VariableRange,
			"variable '%s' is used before its type was specified", entry.VariableName)
	}
	existing.entries = append(existing.entries, entry)
	return nil
}
