package periphs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
)

func TestDescribe(t *testing.T) {
	cat := catalog.New()
	require.NoError(t, Describe(cat))

	t.Run("stock names resolve", func(t *testing.T) {
		for _, name := range []string{
			"Memory.MappedMemory",
			"CPU.ARMv7A",
			"Timers.SimpleTimer",
			"UART.SimpleUart",
			"IRQControllers.InterruptController",
			"GPIOPort.SimplePort",
			"I2C.I2CBus",
			"BusRangeRegistration",
			"NullRegistrationPoint",
		} {
			_, ok := cat.Resolve(name)
			assert.True(t, ok, "'%s' must resolve", name)
		}
	})

	t.Run("system bus accepts mapped and unmapped peripherals", func(t *testing.T) {
		bus, ok := cat.Resolve("Peripherals.SystemBus")
		require.True(t, ok)
		assert.Len(t, bus.RegistrationSpecs, 2)
	})

	t.Run("timer work mode is an enum", func(t *testing.T) {
		typ, ok := cat.Resolve("Timers.TimerWorkMode")
		require.True(t, ok)
		require.NotNil(t, typ.Enum)
		assert.Equal(t, []string{"OneShot", "Periodic"}, typ.Enum.MemberNames)
	})

	t.Run("describing twice fails", func(t *testing.T) {
		assert.Error(t, Describe(cat))
	})
}

func TestSimpleTimer(t *testing.T) {
	m := machine.New()
	timer, err := NewSimpleTimer(m, 1000)
	require.NoError(t, err)
	timer.Limit = 2

	timer.Tick()
	assert.False(t, timer.IRQ.IsSet())
	timer.Tick()
	assert.True(t, timer.IRQ.IsSet())

	t.Run("periodic mode restarts the count", func(t *testing.T) {
		timer.WorkMode = Periodic
		timer.Reset()
		timer.Tick()
		timer.Tick()
		assert.True(t, timer.IRQ.IsSet())
	})

	t.Run("zero frequency is rejected", func(t *testing.T) {
		_, err := NewSimpleTimer(m, 0)
		require.Error(t, err)
		assert.True(t, machine.IsRecoverable(err))
	})
}

func TestSimpleUart(t *testing.T) {
	m := machine.New()
	uart, err := NewSimpleUart(m)
	require.NoError(t, err)

	uart.WriteChar('h')
	uart.WriteChar('i')
	assert.True(t, uart.IRQ.IsSet())

	b, ok := uart.ReadChar()
	require.True(t, ok)
	assert.Equal(t, byte('h'), b)
	assert.True(t, uart.IRQ.IsSet(), "buffer still holds a byte")

	_, _ = uart.ReadChar()
	assert.False(t, uart.IRQ.IsSet())

	_, ok = uart.ReadChar()
	assert.False(t, ok)
}

func TestInterruptControllerContexts(t *testing.T) {
	m := machine.New()
	ic, err := NewInterruptController(m, 2)
	require.NoError(t, err)

	ctx1 := ic.GetLocalReceiver(1)
	ctx1.OnGPIO(4, true)
	assert.True(t, ic.Output.IsSet())

	ctx1.OnGPIO(4, false)
	assert.False(t, ic.Output.IsSet())

	t.Run("out-of-range index falls back to context 0", func(t *testing.T) {
		recv := ic.GetLocalReceiver(99)
		recv.OnGPIO(0, true)
		assert.True(t, ic.Output.IsSet())
		ic.Reset()
		assert.False(t, ic.Output.IsSet())
	})
}

func TestMappedMemory(t *testing.T) {
	m := machine.New()

	mem, err := NewMappedMemory(m)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), mem.Size)

	_, err = NewMappedMemorySized(m, 0)
	require.Error(t, err)
	assert.True(t, machine.IsRecoverable(err))
}
