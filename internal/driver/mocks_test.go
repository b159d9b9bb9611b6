package driver_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
)

// chained is a peripheral whose constructor may reference another of its
// kind, for dependency-order tests.
type chained struct {
	Other *chained
}

func (c *chained) Reset() {}

func newChained(m *machine.Machine, other *chained) *chained {
	return &chained{Other: other}
}

// quiet carries a GPIO property its constructor leaves uninitialized.
type quiet struct {
	IRQ *machine.GPIO
}

func (q *quiet) Reset() {}

func newQuiet(m *machine.Machine) *quiet { return &quiet{} }

// twoIrq has two GPIO outputs, neither marked as the default.
type twoIrq struct {
	A *machine.GPIO
	B *machine.GPIO
}

func (d *twoIrq) Reset() {}

func newTwoIrq(m *machine.Machine) *twoIrq {
	return &twoIrq{A: machine.NewGPIO(), B: machine.NewGPIO()}
}

// guarded has a property whose setter rejects large values.
type guarded struct {
	Guarded uint32
}

func (g *guarded) Reset() {}

func (g *guarded) SetGuarded(v uint32) error {
	if v > 10 {
		return machine.Recoverable("guarded value out of range")
	}
	g.Guarded = v
	return nil
}

func newGuarded(m *machine.Machine) *guarded { return &guarded{} }

// hub accepts any peripheral at any registration point, its point type being
// the RegistrationPoint interface itself.
type hub struct {
	registered []machine.Peripheral
}

func (h *hub) Reset() {}

func (h *hub) RegisterPeripheral(m *machine.Machine, p machine.Peripheral, point machine.RegistrationPoint) error {
	h.registered = append(h.registered, p)
	m.Attach(p)
	return nil
}

func newHub(m *machine.Machine) *hub { return &hub{} }

// pointPeriph is both a peripheral and a registration point, so entries can
// use each other as points and form registration-order cycles.
type pointPeriph struct{}

func (p *pointPeriph) Reset() {}

func (p *pointPeriph) PrettyString() string { return "point peripheral" }

func newPointPeriph(m *machine.Machine) *pointPeriph { return &pointPeriph{} }

func registerMocks(t *testing.T, cat *catalog.Catalog) {
	t.Helper()
	mocks := []*catalog.Type{
		{
			Name:   "Mocks.Chained",
			GoType: reflect.TypeOf((*chained)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(newChained, "machine", "other").WithDefault("other", nil),
			},
		},
		{
			Name:   "Mocks.Quiet",
			GoType: reflect.TypeOf((*quiet)(nil)),
			Ctors:  []*catalog.Ctor{catalog.NewCtor(newQuiet, "machine")},
		},
		{
			Name:   "Mocks.TwoIrq",
			GoType: reflect.TypeOf((*twoIrq)(nil)),
			Ctors:  []*catalog.Ctor{catalog.NewCtor(newTwoIrq, "machine")},
		},
		{
			Name:   "Mocks.Guarded",
			GoType: reflect.TypeOf((*guarded)(nil)),
			Ctors:  []*catalog.Ctor{catalog.NewCtor(newGuarded, "machine")},
		},
		{
			Name:   "Mocks.Hub",
			GoType: reflect.TypeOf((*hub)(nil)),
			Ctors:  []*catalog.Ctor{catalog.NewCtor(newHub, "machine")},
			RegistrationSpecs: []catalog.RegistrationSpec{
				{
					Peripheral: reflect.TypeOf((*machine.Peripheral)(nil)).Elem(),
					Point:      reflect.TypeOf((*machine.RegistrationPoint)(nil)).Elem(),
				},
			},
		},
		{
			Name:   "Mocks.PointPeriph",
			GoType: reflect.TypeOf((*pointPeriph)(nil)),
			Ctors:  []*catalog.Ctor{catalog.NewCtor(newPointPeriph, "machine")},
		},
	}
	for _, m := range mocks {
		require.NoError(t, cat.Register(m))
	}
}
