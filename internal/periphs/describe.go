package periphs

import (
	"reflect"

	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
)

// Describe registers the stock peripherals, the system bus, the registration
// point types and the enums into a catalog.
func Describe(cat *catalog.Catalog) error {
	descriptors := []*catalog.Type{
		{
			Name:   "Peripherals.SystemBus",
			GoType: reflect.TypeOf((*machine.Bus)(nil)),
			RegistrationSpecs: []catalog.RegistrationSpec{
				{
					Peripheral: reflect.TypeOf((*machine.BusPeripheral)(nil)).Elem(),
					Point:      reflect.TypeOf((*machine.BusRangeRegistration)(nil)),
				},
				{
					Peripheral: reflect.TypeOf((*machine.Peripheral)(nil)).Elem(),
					Point:      reflect.TypeOf((*machine.NullRegistration)(nil)),
				},
			},
		},
		{
			Name:   "NullRegistrationPoint",
			GoType: reflect.TypeOf((*machine.NullRegistration)(nil)),
		},
		{
			Name:   "BusRangeRegistration",
			GoType: reflect.TypeOf((*machine.BusRangeRegistration)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(machine.NewBusRangeRegistration, "address", "size").
					WithDefault("size", uint64(0x1000)),
				catalog.NewCtor(newBusRangeRegistrationFromRange, "range"),
			},
		},
		{
			Name:   "BusPointRegistration",
			GoType: reflect.TypeOf((*machine.BusPointRegistration)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(machine.NewBusPointRegistration, "address"),
			},
		},
		{
			Name:   "Peripherals.Memory.MappedMemory",
			GoType: reflect.TypeOf((*MappedMemory)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewMappedMemory, "machine"),
				catalog.NewCtor(NewMappedMemorySized, "machine", "size"),
			},
		},
		{
			Name:   "Peripherals.CPU.ARMv7A",
			GoType: reflect.TypeOf((*ARMCpu)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewARMCpu, "machine", "cpuType"),
			},
		},
		{
			Name:   "Peripherals.Timers.SimpleTimer",
			GoType: reflect.TypeOf((*SimpleTimer)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewSimpleTimer, "machine", "frequency").
					WithDefault("frequency", uint64(1_000_000)),
			},
		},
		{
			Name:   "Peripherals.Timers.TimerWorkMode",
			GoType: reflect.TypeOf(TimerWorkMode(0)),
			Enum: &catalog.Enum{
				Members:     map[string]int64{"OneShot": int64(OneShot), "Periodic": int64(Periodic)},
				MemberNames: []string{"OneShot", "Periodic"},
			},
		},
		{
			Name:   "Peripherals.UART.SimpleUart",
			GoType: reflect.TypeOf((*SimpleUart)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewSimpleUart, "machine"),
			},
		},
		{
			Name:   "Peripherals.IRQControllers.InterruptController",
			GoType: reflect.TypeOf((*InterruptController)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewInterruptController, "machine", "contexts").
					WithDefault("contexts", uint32(1)),
			},
		},
		{
			Name:   "Peripherals.GPIOPort.SimplePort",
			GoType: reflect.TypeOf((*GPIOPort)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewGPIOPort, "machine", "lines").
					WithDefault("lines", uint32(8)),
			},
		},
		{
			Name:   "Peripherals.GPIOPort.PinPolarity",
			GoType: reflect.TypeOf(PinPolarity(0)),
			Enum: &catalog.Enum{
				Members:     map[string]int64{"Low": int64(Low), "High": int64(High)},
				MemberNames: []string{"Low", "High"},
			},
		},
		{
			Name:   "Peripherals.I2C.I2CBus",
			GoType: reflect.TypeOf((*I2CBus)(nil)),
			Ctors: []*catalog.Ctor{
				catalog.NewCtor(NewI2CBus, "machine"),
			},
			RegistrationSpecs: []catalog.RegistrationSpec{
				{
					Peripheral: reflect.TypeOf((*machine.Peripheral)(nil)).Elem(),
					Point:      reflect.TypeOf((*machine.BusPointRegistration)(nil)),
				},
			},
		},
	}

	for _, t := range descriptors {
		if err := cat.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// MustDescribe is Describe for tests and tools that own the catalog.
func MustDescribe(cat *catalog.Catalog) {
	if err := Describe(cat); err != nil {
		panic(err)
	}
}

func newBusRangeRegistrationFromRange(r machine.Range) *machine.BusRangeRegistration {
	return &machine.BusRangeRegistration{Range: r}
}
