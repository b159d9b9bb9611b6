// Package machine is the host object model the description driver attaches
// to: the Machine owning created peripherals, GPIO lines and receivers,
// registration points and the interrupt fan-in combiner.
package machine

// Peripheral is implemented by every device a description can create or
// reference.
type Peripheral interface {
	Reset()
}

// GPIOReceiver accepts interrupt line state changes on numbered pins.
type GPIOReceiver interface {
	OnGPIO(number int, value bool)
}

// LocalGPIOReceiver additionally exposes named sub-receivers selected by
// index, for peripherals with more than one interrupt controller surface.
type LocalGPIOReceiver interface {
	GPIOReceiver
	GetLocalReceiver(index int) GPIOReceiver
}

// NumberedGPIOOutput exposes a peripheral's numbered output lines. The map is
// keyed by pin number; a key may be present with a nil line when the output
// exists but was never initialized.
type NumberedGPIOOutput interface {
	Connections() map[int]*GPIO
}

// RegistrationPoint identifies where and how a peripheral attaches to its
// parent container.
type RegistrationPoint interface {
	PrettyString() string
}

// PeripheralContainer is implemented by peripherals that can have children
// registered into them. The machine is passed so the container can attach
// the child to it.
type PeripheralContainer interface {
	RegisterPeripheral(m *Machine, p Peripheral, point RegistrationPoint) error
}

// BusPeripheral marks peripherals that live in a bus address space and
// therefore need an explicit bus registration point.
type BusPeripheral interface {
	Peripheral
	BusAccessible()
}
