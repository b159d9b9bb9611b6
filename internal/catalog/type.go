package catalog

import (
	"fmt"
	"reflect"
	"strings"
)

// Type describes one host type the driver may instantiate, register into,
// assign, or use as an enum. GoType is the runtime type of instances (a
// pointer to struct for peripherals and registration points, a named
// integer type for enums).
type Type struct {
	Name   string
	GoType reflect.Type

	// Ctors are the public constructor overloads, in declaration order.
	Ctors []*Ctor

	// Enum is non-nil for enum descriptors.
	Enum *Enum

	// RegistrationSpecs lists the (peripheral, point) pairs instances of
	// this type accept as a container; the erased register interfaces.
	RegistrationSpecs []RegistrationSpec

	props     map[string]*Property
	propOrder []string
}

// LastName returns the final dotted segment of the type name.
func (t *Type) LastName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Namespace returns the dotted segments before the type name.
func (t *Type) Namespace() []string {
	parts := strings.Split(t.Name, ".")
	return parts[:len(parts)-1]
}

func (t *Type) finish() error {
	for _, ctor := range t.Ctors {
		if err := ctor.check(); err != nil {
			return err
		}
	}
	t.discoverProperties()
	return nil
}

// RegistrationSpec is one erased register interface: this container accepts
// peripherals assignable to Peripheral at points assignable to Point.
type RegistrationSpec struct {
	Peripheral reflect.Type
	Point      reflect.Type
}

// AcceptsPeripheral reports whether a peripheral of the given runtime type
// can be registered under this spec.
func (s RegistrationSpec) AcceptsPeripheral(rt reflect.Type) bool {
	return rt != nil && rt.AssignableTo(s.Peripheral)
}

// Ctor is one constructor overload: an ordered parameter list and the Go
// factory function implementing it.
type Ctor struct {
	Params []Param
	fn     reflect.Value
}

// Param is a named constructor parameter, optionally carrying a default.
type Param struct {
	Name       string
	Type       reflect.Type
	HasDefault bool
	Default    any
}

// NewCtor wraps a factory function. paramNames name the function's
// parameters in order; the types are reflected from the signature. The
// function must return the instance, optionally with a trailing error.
func NewCtor(fn any, paramNames ...string) *Ctor {
	v := reflect.ValueOf(fn)
	ctor := &Ctor{fn: v}
	if v.Kind() != reflect.Func {
		return ctor
	}
	ft := v.Type()
	for i, name := range paramNames {
		if i >= ft.NumIn() {
			break
		}
		ctor.Params = append(ctor.Params, Param{Name: name, Type: ft.In(i)})
	}
	return ctor
}

// WithDefault declares a default value for a named parameter, making it
// optional.
func (c *Ctor) WithDefault(name string, value any) *Ctor {
	for i := range c.Params {
		if c.Params[i].Name == name {
			c.Params[i].HasDefault = true
			c.Params[i].Default = value
		}
	}
	return c
}

func (c *Ctor) check() error {
	if c.fn.Kind() != reflect.Func {
		return fmt.Errorf("constructor is not a function")
	}
	ft := c.fn.Type()
	if ft.NumIn() != len(c.Params) {
		return fmt.Errorf("constructor has %d parameters but %d names", ft.NumIn(), len(c.Params))
	}
	if ft.NumOut() < 1 || ft.NumOut() > 2 {
		return fmt.Errorf("constructor must return the instance and an optional error")
	}
	if ft.NumOut() == 2 && ft.Out(1) != errorType {
		return fmt.Errorf("constructor's second result must be error")
	}
	for i := range c.Params {
		if c.Params[i].HasDefault {
			dv := reflect.ValueOf(c.Params[i].Default)
			if c.Params[i].Default == nil {
				continue
			}
			if !dv.Type().AssignableTo(c.Params[i].Type) {
				return fmt.Errorf("default for '%s' has wrong type", c.Params[i].Name)
			}
		}
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Signature renders the overload for selection reports, e.g.
// "(machine *machine.Machine, size uint64 = 4096)".
func (c *Ctor) Signature() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		s := fmt.Sprintf("%s %s", p.Name, p.Type)
		if p.HasDefault {
			s += fmt.Sprintf(" = %v", p.Default)
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Invoke calls the factory with the given arguments. A nil default for a
// nilable parameter type becomes that type's zero value.
func (c *Ctor) Invoke(args []reflect.Value) (any, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if !a.IsValid() {
			in[i] = reflect.Zero(c.fn.Type().In(i))
		} else {
			in[i] = a
		}
	}
	out := c.fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// Enum describes a named integer type usable as an enum target.
type Enum struct {
	// Members maps member names to their values, MemberNames keeping the
	// declaration order for diagnostics.
	Members     map[string]int64
	MemberNames []string

	// ArbitraryValues allows any numeric literal, not just defined members.
	ArbitraryValues bool
}

// MemberByValue finds the name of a defined value.
func (e *Enum) MemberByValue(v int64) (string, bool) {
	for _, name := range e.MemberNames {
		if e.Members[name] == v {
			return name, true
		}
	}
	return "", false
}
