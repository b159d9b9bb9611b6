package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiver struct {
	states map[int]bool
}

func newFakeReceiver() *fakeReceiver {
	return &fakeReceiver{states: make(map[int]bool)}
}

func (r *fakeReceiver) OnGPIO(number int, value bool) {
	r.states[number] = value
}

type fakePeripheral struct {
	resets int
}

func (p *fakePeripheral) Reset() { p.resets++ }

type fakeBusDevice struct {
	fakePeripheral
}

func (p *fakeBusDevice) BusAccessible() {}

func TestGPIO(t *testing.T) {
	t.Run("connect propagates current state", func(t *testing.T) {
		g := NewGPIO()
		g.Set(true)
		recv := newFakeReceiver()
		g.Connect(recv, 3)
		assert.True(t, recv.states[3])
	})

	t.Run("set drives all endpoints", func(t *testing.T) {
		g := NewGPIO()
		a, b := newFakeReceiver(), newFakeReceiver()
		g.Connect(a, 0)
		g.Connect(b, 7)
		g.Set(true)
		assert.True(t, a.states[0])
		assert.True(t, b.states[7])
		g.Set(false)
		assert.False(t, a.states[0])
		assert.False(t, b.states[7])
	})

	t.Run("IsConnected", func(t *testing.T) {
		g := NewGPIO()
		assert.False(t, g.IsConnected())
		g.Connect(newFakeReceiver(), 0)
		assert.True(t, g.IsConnected())
	})
}

func TestCombiner(t *testing.T) {
	c := NewCombiner(3)
	recv := newFakeReceiver()
	c.Output.Connect(recv, 5)

	c.OnGPIO(0, true)
	assert.True(t, recv.states[5], "one raised input raises the output")

	c.OnGPIO(2, true)
	c.OnGPIO(0, false)
	assert.True(t, recv.states[5], "output stays up while any input is up")

	c.OnGPIO(2, false)
	assert.False(t, recv.states[5], "output drops when every input drops")

	assert.Equal(t, 0, c.NextInputIndex())
	assert.Equal(t, 1, c.NextInputIndex())
	assert.Equal(t, 3, c.Arity())
}

func TestMachineNames(t *testing.T) {
	m := New()

	t.Run("system bus is pre-registered", func(t *testing.T) {
		p, ok := m.ByName(SystemBusName)
		require.True(t, ok)
		assert.Same(t, m.SystemBus, p)
		assert.True(t, m.IsRegistered(m.SystemBus))
	})

	t.Run("naming requires registration", func(t *testing.T) {
		p := &fakePeripheral{}
		err := m.SetLocalName(p, "ghost")
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		p := &fakePeripheral{}
		m.Attach(p)
		err := m.SetLocalName(p, SystemBusName)
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
		require.NoError(t, m.SetLocalName(p, "dev0"))
	})

	t.Run("renaming is rejected", func(t *testing.T) {
		p, _ := m.ByName("dev0")
		err := m.SetLocalName(p, "dev1")
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})
}

func TestBusRegistration(t *testing.T) {
	t.Run("mapped ranges must not overlap", func(t *testing.T) {
		m := New()
		a, b := &fakeBusDevice{}, &fakeBusDevice{}
		require.NoError(t, m.SystemBus.RegisterPeripheral(m, a, NewBusRangeRegistration(0x1000, 0x100)))
		err := m.SystemBus.RegisterPeripheral(m, b, NewBusRangeRegistration(0x10F0, 0x100))
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
		assert.True(t, m.IsRegistered(a))
		assert.False(t, m.IsRegistered(b))
	})

	t.Run("bus peripherals need an address", func(t *testing.T) {
		m := New()
		err := m.SystemBus.RegisterPeripheral(m, &fakeBusDevice{}, NullRegistrationPoint)
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})

	t.Run("plain peripherals may register unmapped", func(t *testing.T) {
		m := New()
		p := &fakePeripheral{}
		require.NoError(t, m.SystemBus.RegisterPeripheral(m, p, NullRegistrationPoint))
		assert.True(t, m.IsRegistered(p))
		assert.Len(t, m.SystemBus.Unmapped(), 1)
	})
}

func TestMachineReset(t *testing.T) {
	m := New()
	p := &fakePeripheral{}
	require.NoError(t, m.SystemBus.RegisterPeripheral(m, p, NullRegistrationPoint))
	m.Reset()
	assert.Equal(t, 1, p.resets)
}

func TestPostCreationHooks(t *testing.T) {
	m := New()
	calls := 0
	m.OnPostCreation(func() { calls++ })
	m.PostCreationActions()
	m.PostCreationActions()
	assert.Equal(t, 2, calls)
}
