package catalog

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/platdesc/internal/machine"
)

type widget struct {
	Limit    uint32
	IRQ      *machine.GPIO `periph:"default"`
	SecondIRQ *machine.GPIO
	Serial   string `periph:"readonly"`
	guarded  uint32
	Guarded  uint32
}

func (w *widget) Reset() {}

func (w *widget) SetGuarded(v uint32) error {
	if v > 10 {
		return machine.Recoverable("guarded value out of range")
	}
	w.guarded = v
	return nil
}

func newWidget(m *machine.Machine, limit uint32) (*widget, error) {
	return &widget{Limit: limit, IRQ: machine.NewGPIO()}, nil
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := New()
	require.NoError(t, cat.Register(&Type{
		Name:   "Peripherals.Test.Widget",
		GoType: reflect.TypeOf((*widget)(nil)),
		Ctors: []*Ctor{
			NewCtor(newWidget, "machine", "limit").WithDefault("limit", uint32(8)),
		},
	}))
	return cat
}

func TestResolve(t *testing.T) {
	cat := newTestCatalog(t)

	t.Run("fully qualified and bare names agree", func(t *testing.T) {
		full, ok := cat.Resolve("Peripherals.Test.Widget")
		require.True(t, ok)
		bare, ok := cat.Resolve("Test.Widget")
		require.True(t, ok)
		assert.Same(t, full, bare)
	})

	t.Run("unknown names fail", func(t *testing.T) {
		_, ok := cat.Resolve("Test.NoSuchThing")
		assert.False(t, ok)
	})

	t.Run("lookup by Go type", func(t *testing.T) {
		typ, ok := cat.ByGoType(reflect.TypeOf((*widget)(nil)))
		require.True(t, ok)
		assert.Equal(t, "Peripherals.Test.Widget", typ.Name)
	})
}

func TestPropertyDiscovery(t *testing.T) {
	cat := newTestCatalog(t)
	typ, _ := cat.Resolve("Test.Widget")

	t.Run("exported fields become properties", func(t *testing.T) {
		prop, ok := typ.Property("Limit")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeOf(uint32(0)), prop.Type)
		assert.False(t, prop.ReadOnly)

		_, ok = typ.Property("guarded")
		assert.False(t, ok, "unexported fields stay hidden")
	})

	t.Run("tags mark defaults and read-only", func(t *testing.T) {
		irq, ok := typ.Property("IRQ")
		require.True(t, ok)
		assert.True(t, irq.IsGPIO())
		assert.True(t, irq.DefaultInterrupt)

		second, ok := typ.Property("SecondIRQ")
		require.True(t, ok)
		assert.True(t, second.IsGPIO())
		assert.False(t, second.DefaultInterrupt)

		serial, ok := typ.Property("Serial")
		require.True(t, ok)
		assert.True(t, serial.ReadOnly)
	})

	t.Run("GPIO properties keep field order", func(t *testing.T) {
		gpios := typ.GPIOProperties()
		require.Len(t, gpios, 2)
		assert.Equal(t, "IRQ", gpios[0].Name)
		assert.Equal(t, "SecondIRQ", gpios[1].Name)
	})
}

func TestPropertyAccess(t *testing.T) {
	cat := newTestCatalog(t)
	typ, _ := cat.Resolve("Test.Widget")
	w := &widget{}

	t.Run("direct field set", func(t *testing.T) {
		prop, _ := typ.Property("Limit")
		require.NoError(t, typ.SetProperty(w, prop, reflect.ValueOf(uint32(42))))
		assert.Equal(t, uint32(42), w.Limit)
		assert.Equal(t, uint32(42), uint32(typ.GetProperty(w, prop).Uint()))
	})

	t.Run("setter method is preferred and may reject", func(t *testing.T) {
		prop, _ := typ.Property("Guarded")
		require.NoError(t, typ.SetProperty(w, prop, reflect.ValueOf(uint32(7))))
		assert.Equal(t, uint32(7), w.guarded)

		err := typ.SetProperty(w, prop, reflect.ValueOf(uint32(99)))
		require.Error(t, err)
		assert.True(t, machine.IsRecoverable(err))
	})
}

func TestCtorDescriptors(t *testing.T) {
	t.Run("signature reflects names, types and defaults", func(t *testing.T) {
		ctor := NewCtor(newWidget, "machine", "limit").WithDefault("limit", uint32(8))
		sig := ctor.Signature()
		assert.Contains(t, sig, "machine")
		assert.Contains(t, sig, "limit")
		assert.Contains(t, sig, "= 8")
	})

	t.Run("mismatched parameter names are rejected at registration", func(t *testing.T) {
		cat := New()
		err := cat.Register(&Type{
			Name:   "Peripherals.Test.Broken",
			GoType: reflect.TypeOf((*widget)(nil)),
			Ctors:  []*Ctor{NewCtor(newWidget, "machine")},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		cat := newTestCatalog(t)
		err := cat.Register(&Type{
			Name:   "Peripherals.Test.Widget",
			GoType: reflect.TypeOf((*widget)(nil)),
		})
		assert.Error(t, err)
	})

	t.Run("invoke returns the constructed value", func(t *testing.T) {
		ctor := NewCtor(newWidget, "machine", "limit")
		obj, err := ctor.Invoke([]reflect.Value{
			reflect.ValueOf(machine.New()),
			reflect.ValueOf(uint32(3)),
		})
		require.NoError(t, err)
		assert.Equal(t, uint32(3), obj.(*widget).Limit)
	})
}
