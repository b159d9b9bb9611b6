// Package catalog is the capability catalog the driver resolves types
// against: a registry of type descriptors combining hand-authored
// constructor and registration metadata with reflection over the Go types
// themselves (settable properties, GPIO lines, enum members).
package catalog

import (
	"fmt"
	"reflect"
	"strings"
)

// DefaultNamespace is prepended to bare type names that do not resolve
// directly.
const DefaultNamespace = "Peripherals"

// Catalog maps fully-qualified type names to descriptors.
type Catalog struct {
	types  map[string]*Type
	byGo   map[reflect.Type]*Type
	sorted []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		types: make(map[string]*Type),
		byGo:  make(map[reflect.Type]*Type),
	}
}

// Register adds a descriptor. Registering the same name twice is a
// programming error.
func (c *Catalog) Register(t *Type) error {
	if t.Name == "" || t.GoType == nil {
		return fmt.Errorf("catalog: descriptor needs a name and a Go type")
	}
	if _, ok := c.types[t.Name]; ok {
		return fmt.Errorf("catalog: type '%s' registered twice", t.Name)
	}
	if err := t.finish(); err != nil {
		return fmt.Errorf("catalog: %s: %w", t.Name, err)
	}
	c.types[t.Name] = t
	c.byGo[t.GoType] = t
	c.sorted = append(c.sorted, t.Name)
	return nil
}

// MustRegister is Register for init-time descriptor tables.
func (c *Catalog) MustRegister(t *Type) {
	if err := c.Register(t); err != nil {
		panic(err)
	}
}

// Resolve finds a descriptor by name, trying the name as written and then
// under the default namespace. Both spellings yield the same descriptor.
func (c *Catalog) Resolve(name string) (*Type, bool) {
	if t, ok := c.types[name]; ok {
		return t, true
	}
	if !strings.HasPrefix(name, DefaultNamespace+".") {
		if t, ok := c.types[DefaultNamespace+"."+name]; ok {
			return t, true
		}
	}
	return nil, false
}

// ByGoType finds the descriptor registered for a reflected Go type.
func (c *Catalog) ByGoType(rt reflect.Type) (*Type, bool) {
	t, ok := c.byGo[rt]
	return t, ok
}

// Names lists registered type names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.sorted))
	copy(out, c.sorted)
	return out
}
