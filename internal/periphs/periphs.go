// Package periphs is a small library of stock peripherals and their catalog
// descriptors. It is what a description resolves type names against out of
// the box; richer hosts register their own descriptors the same way.
package periphs

import (
	"github.com/vk/platdesc/internal/machine"
)

// MappedMemory is a block of memory mapped into a bus address range.
type MappedMemory struct {
	Size uint64 `periph:"readonly"`

	machine *machine.Machine
}

// NewMappedMemory creates memory of the default size 0x1000; the sized
// overload is used when a description specifies `size`.
func NewMappedMemory(m *machine.Machine) (*MappedMemory, error) {
	return NewMappedMemorySized(m, 0x1000)
}

// NewMappedMemorySized creates memory of an explicit size.
func NewMappedMemorySized(m *machine.Machine, size uint64) (*MappedMemory, error) {
	if size == 0 {
		return nil, machine.Recoverable("memory size cannot be zero")
	}
	return &MappedMemory{Size: size, machine: m}, nil
}

func (mem *MappedMemory) Reset()         {}
func (mem *MappedMemory) BusAccessible() {}

// ARMCpu is a simplified application CPU. It receives interrupts on two
// pins: 0 for IRQ and 1 for FIQ.
type ARMCpu struct {
	CpuType           string `periph:"readonly"`
	PerformanceInMips uint32

	irqPending bool
	fiqPending bool
	machine    *machine.Machine
}

// NewARMCpu creates a CPU of the given model name.
func NewARMCpu(m *machine.Machine, cpuType string) (*ARMCpu, error) {
	if cpuType == "" {
		return nil, machine.Recoverable("cpuType cannot be empty")
	}
	return &ARMCpu{CpuType: cpuType, PerformanceInMips: 100, machine: m}, nil
}

func (c *ARMCpu) Reset() {
	c.irqPending = false
	c.fiqPending = false
}

// OnGPIO implements the interrupt input pins.
func (c *ARMCpu) OnGPIO(number int, value bool) {
	switch number {
	case 0:
		c.irqPending = value
	case 1:
		c.fiqPending = value
	}
}

// IRQPending reports whether the IRQ line is raised.
func (c *ARMCpu) IRQPending() bool { return c.irqPending }

// FIQPending reports whether the FIQ line is raised.
func (c *ARMCpu) FIQPending() bool { return c.fiqPending }

// TimerWorkMode selects how a timer treats reaching its limit.
type TimerWorkMode int

const (
	OneShot TimerWorkMode = iota
	Periodic
)

// SimpleTimer counts to a limit and raises its IRQ line.
type SimpleTimer struct {
	IRQ       *machine.GPIO `periph:"default"`
	Frequency uint64        `periph:"readonly"`
	Limit     uint64
	WorkMode  TimerWorkMode

	value uint64
}

// NewSimpleTimer creates a timer; frequency defaults to 1 MHz when the
// description leaves it out.
func NewSimpleTimer(m *machine.Machine, frequency uint64) (*SimpleTimer, error) {
	if frequency == 0 {
		return nil, machine.Recoverable("timer frequency cannot be zero")
	}
	return &SimpleTimer{IRQ: machine.NewGPIO(), Frequency: frequency, Limit: ^uint64(0)}, nil
}

func (t *SimpleTimer) Reset() {
	t.value = 0
	t.IRQ.Set(false)
}

// Tick advances the counter, firing the IRQ at the limit.
func (t *SimpleTimer) Tick() {
	t.value++
	if t.value < t.Limit {
		return
	}
	t.IRQ.Set(true)
	if t.WorkMode == Periodic {
		t.value = 0
	}
}

// SimpleUart is a bus-mapped character device with one interrupt line.
type SimpleUart struct {
	IRQ *machine.GPIO `periph:"default"`

	buffer []byte
}

// NewSimpleUart creates an idle UART.
func NewSimpleUart(m *machine.Machine) (*SimpleUart, error) {
	return &SimpleUart{IRQ: machine.NewGPIO()}, nil
}

func (u *SimpleUart) Reset() {
	u.buffer = nil
	u.IRQ.Set(false)
}

func (u *SimpleUart) BusAccessible() {}

// WriteChar queues a byte and signals the interrupt.
func (u *SimpleUart) WriteChar(b byte) {
	u.buffer = append(u.buffer, b)
	u.IRQ.Set(true)
}

// ReadChar pops one byte, dropping the interrupt when the buffer drains.
func (u *SimpleUart) ReadChar() (byte, bool) {
	if len(u.buffer) == 0 {
		return 0, false
	}
	b := u.buffer[0]
	u.buffer = u.buffer[1:]
	if len(u.buffer) == 0 {
		u.IRQ.Set(false)
	}
	return b, true
}

// InterruptController fans peripheral lines into a CPU. Its local receivers
// address the per-context input banks.
type InterruptController struct {
	Output *machine.GPIO

	contexts []*irqContext
}

type irqContext struct {
	parent *InterruptController
	lines  map[int]bool
}

// NewInterruptController creates a controller with the given number of
// contexts.
func NewInterruptController(m *machine.Machine, contexts uint32) (*InterruptController, error) {
	if contexts == 0 {
		return nil, machine.Recoverable("an interrupt controller needs at least one context")
	}
	ic := &InterruptController{Output: machine.NewGPIO()}
	for i := uint32(0); i < contexts; i++ {
		ic.contexts = append(ic.contexts, &irqContext{parent: ic, lines: make(map[int]bool)})
	}
	return ic, nil
}

func (ic *InterruptController) Reset() {
	for _, ctx := range ic.contexts {
		ctx.lines = make(map[int]bool)
	}
	ic.Output.Set(false)
}

// OnGPIO feeds context 0; explicit contexts go through GetLocalReceiver.
func (ic *InterruptController) OnGPIO(number int, value bool) {
	ic.contexts[0].OnGPIO(number, value)
}

// GetLocalReceiver selects a context's input bank.
func (ic *InterruptController) GetLocalReceiver(index int) machine.GPIOReceiver {
	if index < 0 || index >= len(ic.contexts) {
		return ic.contexts[0]
	}
	return ic.contexts[index]
}

func (ctx *irqContext) OnGPIO(number int, value bool) {
	ctx.lines[number] = value
	raised := false
	for _, c := range ctx.parent.contexts {
		for _, v := range c.lines {
			raised = raised || v
		}
	}
	ctx.parent.Output.Set(raised)
}

// PinPolarity selects the resting level of a port's lines.
type PinPolarity int

const (
	Low PinPolarity = iota
	High
)

// GPIOPort exposes a bank of numbered output lines.
type GPIOPort struct {
	Polarity PinPolarity

	connections map[int]*machine.GPIO
}

// NewGPIOPort creates a port with the given number of lines.
func NewGPIOPort(m *machine.Machine, lines uint32) (*GPIOPort, error) {
	port := &GPIOPort{connections: make(map[int]*machine.GPIO)}
	for i := uint32(0); i < lines; i++ {
		port.connections[int(i)] = machine.NewGPIO()
	}
	return port, nil
}

func (p *GPIOPort) Reset() {
	for _, g := range p.connections {
		g.Set(false)
	}
}

// Connections implements NumberedGPIOOutput.
func (p *GPIOPort) Connections() map[int]*machine.GPIO {
	return p.connections
}

// SetLine drives one output line.
func (p *GPIOPort) SetLine(number int, value bool) {
	if g, ok := p.connections[number]; ok {
		g.Set(value)
	}
}

// I2CBus is a container registering devices at single bus addresses.
type I2CBus struct {
	devices map[uint64]machine.Peripheral
}

// NewI2CBus creates an empty bus.
func NewI2CBus(m *machine.Machine) (*I2CBus, error) {
	return &I2CBus{devices: make(map[uint64]machine.Peripheral)}, nil
}

// Reset leaves the devices alone; they are registered on the machine and
// reset there.
func (b *I2CBus) Reset() {}

func (b *I2CBus) BusAccessible() {}

// RegisterPeripheral implements machine.PeripheralContainer for point
// registrations.
func (b *I2CBus) RegisterPeripheral(m *machine.Machine, p machine.Peripheral, point machine.RegistrationPoint) error {
	pt, ok := point.(*machine.BusPointRegistration)
	if !ok {
		return machine.Recoverable("an I2C device registers at a single address")
	}
	if _, taken := b.devices[pt.Address]; taken {
		return machine.Recoverable("address 0x%X is already taken", pt.Address)
	}
	b.devices[pt.Address] = p
	m.Attach(p)
	return nil
}

// Device returns the peripheral at an address.
func (b *I2CBus) Device(address uint64) (machine.Peripheral, bool) {
	d, ok := b.devices[address]
	return d, ok
}
