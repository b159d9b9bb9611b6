package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/platdesc/internal/machine"
)

// Reflected shapes the driver checks capabilities against.
var (
	GPIOType                = reflect.TypeOf((*machine.GPIO)(nil))
	MachineType             = reflect.TypeOf((*machine.Machine)(nil))
	PeripheralIface         = reflect.TypeOf((*machine.Peripheral)(nil)).Elem()
	GPIOReceiverIface       = reflect.TypeOf((*machine.GPIOReceiver)(nil)).Elem()
	LocalGPIOReceiverIface  = reflect.TypeOf((*machine.LocalGPIOReceiver)(nil)).Elem()
	NumberedGPIOOutputIface = reflect.TypeOf((*machine.NumberedGPIOOutput)(nil)).Elem()
	RegistrationPointIface  = reflect.TypeOf((*machine.RegistrationPoint)(nil)).Elem()
	BusPeripheralIface      = reflect.TypeOf((*machine.BusPeripheral)(nil)).Elem()
	ContainerIface          = reflect.TypeOf((*machine.PeripheralContainer)(nil)).Elem()
)

// Property is one settable or readable surface of a type: an exported struct
// field, optionally shadowed by a SetName method that can reject values.
type Property struct {
	Name string
	Type reflect.Type

	// DefaultInterrupt marks the GPIO property used when an IRQ attribute
	// omits its source (struct tag `periph:"default"`).
	DefaultInterrupt bool

	// ReadOnly blocks assignment from descriptions (struct tag
	// `periph:"readonly"`).
	ReadOnly bool

	fieldIndex  []int
	setter      reflect.Method
	hasSetter   bool
	setterError bool
}

// IsGPIO reports whether the property is an interrupt line.
func (p *Property) IsGPIO() bool {
	return p.Type == GPIOType
}

// discoverProperties reflects over the descriptor's Go type: every exported
// field of the underlying struct is a property, and a matching SetName
// method becomes its setter.
func (t *Type) discoverProperties() {
	t.props = make(map[string]*Property)
	rt := t.GoType
	if rt.Kind() != reflect.Ptr || rt.Elem().Kind() != reflect.Struct {
		return
	}
	st := rt.Elem()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		prop := &Property{
			Name:       field.Name,
			Type:       field.Type,
			fieldIndex: field.Index,
		}
		for _, flag := range strings.Split(field.Tag.Get("periph"), ",") {
			switch flag {
			case "default":
				prop.DefaultInterrupt = true
			case "readonly":
				prop.ReadOnly = true
			}
		}
		if m, ok := rt.MethodByName("Set" + field.Name); ok && m.Type.NumIn() == 2 {
			prop.hasSetter = true
			prop.setter = m
			prop.Type = m.Type.In(1)
			prop.setterError = m.Type.NumOut() == 1 && m.Type.Out(0) == errorType
		}
		t.props[field.Name] = prop
		t.propOrder = append(t.propOrder, field.Name)
	}
}

// Property finds a property by its exact name.
func (t *Type) Property(name string) (*Property, bool) {
	p, ok := t.props[name]
	return p, ok
}

// Properties enumerates properties in field order.
func (t *Type) Properties() []*Property {
	out := make([]*Property, 0, len(t.propOrder))
	for _, name := range t.propOrder {
		out = append(out, t.props[name])
	}
	return out
}

// GPIOProperties enumerates the interrupt-line properties in field order.
func (t *Type) GPIOProperties() []*Property {
	var out []*Property
	for _, name := range t.propOrder {
		if p := t.props[name]; p.IsGPIO() {
			out = append(out, p)
		}
	}
	return out
}

// SetProperty assigns a value through the setter method when one exists,
// falling back to direct field assignment.
func (t *Type) SetProperty(obj any, p *Property, value reflect.Value) error {
	rv := reflect.ValueOf(obj)
	if rv.Type() != t.GoType {
		return fmt.Errorf("object is %s, not %s", rv.Type(), t.GoType)
	}
	if p.hasSetter {
		out := p.setter.Func.Call([]reflect.Value{rv, value})
		if p.setterError && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
	rv.Elem().FieldByIndex(p.fieldIndex).Set(value)
	return nil
}

// GetProperty reads the backing field of a property.
func (t *Type) GetProperty(obj any, p *Property) reflect.Value {
	return reflect.ValueOf(obj).Elem().FieldByIndex(p.fieldIndex)
}
